package progression

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/engineermaster/internal/achievement"
	"github.com/abhisek/engineermaster/internal/logger"
	"github.com/abhisek/engineermaster/internal/skilltree"
	"github.com/abhisek/engineermaster/internal/store"
)

const tracerName = "github.com/abhisek/engineermaster/internal/progression"

// Service applies progression rules on top of a ProgressStore. Every
// mutation it performs is an upsert or is guarded by a unique key, so any
// operation may be retried after a failure.
type Service struct {
	store store.ProgressStore
	cfg   Config
	log   *logger.Logger
	now   func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service backed by st.
func NewService(st store.ProgressStore, cfg Config, opts ...Option) *Service {
	s := &Service{
		store: st,
		cfg:   cfg,
		log:   logger.Nop(),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Config returns the rules the service was built with.
func (s *Service) Config() Config {
	return s.cfg
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// loadTree builds the tree's graph and the user's current progress in it.
func (s *Service) loadTree(ctx context.Context, userID, treeID string) (*skilltree.Graph, map[string]skilltree.Progress, error) {
	tree, err := s.store.Tree(ctx, treeID)
	if err != nil {
		return nil, nil, fmt.Errorf("load tree: %w", err)
	}
	nodes, err := s.store.Nodes(ctx, treeID)
	if err != nil {
		return nil, nil, fmt.Errorf("load nodes: %w", err)
	}
	g, err := skilltree.NewGraph(tree, nodes)
	if err != nil {
		return nil, nil, fmt.Errorf("build graph for tree %q: %w", treeID, err)
	}
	progress, err := s.store.UserProgress(ctx, userID, treeID)
	if err != nil {
		return nil, nil, fmt.Errorf("load progress: %w", err)
	}
	return g, progress, nil
}

// Statistics aggregates the user's records into the snapshot achievements
// are evaluated against.
func (s *Service) Statistics(ctx context.Context, userID string) (achievement.Statistics, error) {
	stats, _, err := s.snapshot(ctx, userID)
	return stats, err
}

// snapshot returns the user's statistics and the set of achievements they
// have already earned. The underlying record sets are fetched concurrently.
func (s *Service) snapshot(ctx context.Context, userID string) (achievement.Statistics, map[string]bool, error) {
	var in achievement.StatisticsInput

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		trees, err := s.store.Trees(gctx)
		if err != nil {
			return fmt.Errorf("load trees: %w", err)
		}
		nodes, err := s.store.AllNodes(gctx)
		if err != nil {
			return fmt.Errorf("load nodes: %w", err)
		}
		in.Trees, in.Nodes = trees, nodes
		return nil
	})
	g.Go(func() error {
		progress, err := s.store.AllUserProgress(gctx, userID)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		in.Progress = progress
		return nil
	})
	g.Go(func() error {
		lessons, err := s.store.LessonsCompleted(gctx, userID)
		if err != nil {
			return fmt.Errorf("count lessons: %w", err)
		}
		total, err := s.store.TotalXP(gctx, userID)
		if err != nil {
			return fmt.Errorf("sum xp: %w", err)
		}
		in.LessonsCompleted, in.TotalXP = lessons, total
		return nil
	})
	g.Go(func() error {
		earned, err := s.store.UserAchievements(gctx, userID)
		if err != nil {
			return fmt.Errorf("load user achievements: %w", err)
		}
		defs, err := s.store.AchievementDefinitions(gctx, nil)
		if err != nil {
			return fmt.Errorf("load achievements: %w", err)
		}
		in.Earned, in.Definitions = earned, defs
		return nil
	})
	if err := g.Wait(); err != nil {
		return achievement.Statistics{}, nil, err
	}

	return achievement.ComputeStatistics(in, s.cfg.Thresholds), achievement.EarnedSet(in.Earned), nil
}

// Overview is a tree as seen by one user.
type Overview struct {
	Graph    *skilltree.Graph
	Progress map[string]skilltree.Progress
	Percent  int
	Complete bool
}

// TreeOverview returns the tree's graph together with the user's progress.
func (s *Service) TreeOverview(ctx context.Context, userID, treeID string) (*Overview, error) {
	g, progress, err := s.loadTree(ctx, userID, treeID)
	if err != nil {
		return nil, err
	}
	return &Overview{
		Graph:    g,
		Progress: progress,
		Percent:  skilltree.PercentComplete(g, progress),
		Complete: skilltree.IsTreeComplete(g, progress),
	}, nil
}
