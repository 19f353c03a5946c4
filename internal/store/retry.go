package store

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/engineermaster/internal/achievement"
	"github.com/abhisek/engineermaster/internal/skilltree"
)

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig returns the stock retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 50 * time.Millisecond,
		MaxWait:     time.Second,
		Multiplier:  2.0,
	}
}

// RetryStore is a decorator that retries transient errors with exponential
// backoff and jitter. Every write in ProgressStore is an upsert or guarded by
// a unique key, so replaying one is safe.
type RetryStore struct {
	inner  ProgressStore
	config RetryConfig
}

// WithRetry wraps a ProgressStore with retry logic.
func WithRetry(s ProgressStore, cfg RetryConfig) ProgressStore {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryStore{inner: s, config: cfg}
}

func retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	for attempt := range cfg.MaxAttempts {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return zero, err
		}

		// Last attempt: don't sleep, just return the error.
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff(cfg, attempt)):
		}
	}
	return zero, lastErr
}

// retry2 is retry for calls returning two values.
func retry2[A, B any](ctx context.Context, cfg RetryConfig, fn func() (A, B, error)) (A, B, error) {
	type pair struct {
		a A
		b B
	}
	p, err := retry(ctx, cfg, func() (pair, error) {
		a, b, err := fn()
		return pair{a, b}, err
	})
	return p.a, p.b, err
}

func retryErr(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := retry(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// backoff computes the wait duration for the given attempt.
func backoff(cfg RetryConfig, attempt int) time.Duration {
	wait := float64(cfg.InitialWait) * math.Pow(cfg.Multiplier, float64(attempt))
	if wait > float64(cfg.MaxWait) {
		wait = float64(cfg.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

func (r *RetryStore) Trees(ctx context.Context) ([]skilltree.Tree, error) {
	return retry(ctx, r.config, func() ([]skilltree.Tree, error) { return r.inner.Trees(ctx) })
}

func (r *RetryStore) Tree(ctx context.Context, treeID string) (skilltree.Tree, error) {
	return retry(ctx, r.config, func() (skilltree.Tree, error) { return r.inner.Tree(ctx, treeID) })
}

func (r *RetryStore) Nodes(ctx context.Context, treeID string) ([]skilltree.Node, error) {
	return retry(ctx, r.config, func() ([]skilltree.Node, error) { return r.inner.Nodes(ctx, treeID) })
}

func (r *RetryStore) AllNodes(ctx context.Context) ([]skilltree.Node, error) {
	return retry(ctx, r.config, func() ([]skilltree.Node, error) { return r.inner.AllNodes(ctx) })
}

func (r *RetryStore) Node(ctx context.Context, nodeID string) (skilltree.Node, error) {
	return retry(ctx, r.config, func() (skilltree.Node, error) { return r.inner.Node(ctx, nodeID) })
}

func (r *RetryStore) UserProgress(ctx context.Context, userID, treeID string) (map[string]skilltree.Progress, error) {
	return retry(ctx, r.config, func() (map[string]skilltree.Progress, error) {
		return r.inner.UserProgress(ctx, userID, treeID)
	})
}

func (r *RetryStore) AllUserProgress(ctx context.Context, userID string) ([]skilltree.Progress, error) {
	return retry(ctx, r.config, func() ([]skilltree.Progress, error) { return r.inner.AllUserProgress(ctx, userID) })
}

func (r *RetryStore) UpsertUserProgress(ctx context.Context, userID, nodeID string, patch ProgressPatch) (skilltree.Progress, error) {
	return retry(ctx, r.config, func() (skilltree.Progress, error) {
		return r.inner.UpsertUserProgress(ctx, userID, nodeID, patch)
	})
}

func (r *RetryStore) AppendXPEntry(ctx context.Context, entry XPEntry) (XPEntry, bool, error) {
	return retry2(ctx, r.config, func() (XPEntry, bool, error) { return r.inner.AppendXPEntry(ctx, entry) })
}

func (r *RetryStore) HasXPEntry(ctx context.Context, userID string, source XPSource, referenceID string) (bool, error) {
	return retry(ctx, r.config, func() (bool, error) { return r.inner.HasXPEntry(ctx, userID, source, referenceID) })
}

func (r *RetryStore) XPEntries(ctx context.Context, userID string, limit int) ([]XPEntry, error) {
	return retry(ctx, r.config, func() ([]XPEntry, error) { return r.inner.XPEntries(ctx, userID, limit) })
}

func (r *RetryStore) TotalXP(ctx context.Context, userID string) (int, error) {
	return retry(ctx, r.config, func() (int, error) { return r.inner.TotalXP(ctx, userID) })
}

func (r *RetryStore) AchievementDefinitions(ctx context.Context, tier *achievement.Tier) ([]achievement.Achievement, error) {
	return retry(ctx, r.config, func() ([]achievement.Achievement, error) {
		return r.inner.AchievementDefinitions(ctx, tier)
	})
}

func (r *RetryStore) Achievement(ctx context.Context, achievementID string) (achievement.Achievement, error) {
	return retry(ctx, r.config, func() (achievement.Achievement, error) {
		return r.inner.Achievement(ctx, achievementID)
	})
}

func (r *RetryStore) UserAchievements(ctx context.Context, userID string) ([]achievement.UserAchievement, error) {
	return retry(ctx, r.config, func() ([]achievement.UserAchievement, error) {
		return r.inner.UserAchievements(ctx, userID)
	})
}

func (r *RetryStore) AwardAchievement(ctx context.Context, userID, achievementID string, progressData map[string]any) (achievement.UserAchievement, bool, error) {
	return retry2(ctx, r.config, func() (achievement.UserAchievement, bool, error) {
		return r.inner.AwardAchievement(ctx, userID, achievementID, progressData)
	})
}

func (r *RetryStore) RecordLessonCompletion(ctx context.Context, userID, lessonID string) (bool, error) {
	return retry(ctx, r.config, func() (bool, error) { return r.inner.RecordLessonCompletion(ctx, userID, lessonID) })
}

func (r *RetryStore) LessonsCompleted(ctx context.Context, userID string) (int, error) {
	return retry(ctx, r.config, func() (int, error) { return r.inner.LessonsCompleted(ctx, userID) })
}

func (r *RetryStore) SaveTree(ctx context.Context, tree skilltree.Tree) error {
	return retryErr(ctx, r.config, func() error { return r.inner.SaveTree(ctx, tree) })
}

func (r *RetryStore) SaveNode(ctx context.Context, node skilltree.Node) error {
	return retryErr(ctx, r.config, func() error { return r.inner.SaveNode(ctx, node) })
}

func (r *RetryStore) SaveAchievement(ctx context.Context, a achievement.Achievement) error {
	return retryErr(ctx, r.config, func() error { return r.inner.SaveAchievement(ctx, a) })
}

func (r *RetryStore) SetTreeMasteryAchievement(ctx context.Context, treeID, achievementID string) error {
	return retryErr(ctx, r.config, func() error { return r.inner.SetTreeMasteryAchievement(ctx, treeID, achievementID) })
}

func (r *RetryStore) TreeMasteryAchievement(ctx context.Context, treeID string) (string, bool, error) {
	return retry2(ctx, r.config, func() (string, bool, error) { return r.inner.TreeMasteryAchievement(ctx, treeID) })
}
