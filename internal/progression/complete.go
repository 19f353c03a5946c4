package progression

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/abhisek/engineermaster/internal/skilltree"
	"github.com/abhisek/engineermaster/internal/store"
)

// CompletionResult reports everything a CompleteNode call changed.
type CompletionResult struct {
	NodeID string
	TreeID string

	// AlreadyCompleted is set when the node was completed before this call.
	// The derived steps still run, so a retry finishes an interrupted
	// completion.
	AlreadyCompleted bool

	// XPAwarded is the node reward written by this call, 0 if it was
	// already in the ledger.
	XPAwarded int

	// Unlocked lists nodes that became available, sorted by ID.
	Unlocked []string

	TreeCompleted bool
	TreeBonusXP   int

	// Achievements granted directly by the node or by tree mastery.
	Achievements []AwardResult

	// Batch is the criteria pass run afterwards, nil when AwardOnProgress is
	// off.
	Batch *BatchResult
}

// TotalXP sums every XP amount this call wrote.
func (r *CompletionResult) TotalXP() int {
	total := r.XPAwarded + r.TreeBonusXP
	for _, a := range r.Achievements {
		total += a.XPAwarded
	}
	if r.Batch != nil {
		for _, a := range r.Batch.Awarded {
			total += a.XPAwarded
		}
	}
	return total
}

// nodeContext loads a node with its graph and the user's progress in its
// tree, rejecting nodes that are not part of the active graph.
func (s *Service) nodeContext(ctx context.Context, userID, nodeID string) (skilltree.Node, *skilltree.Graph, map[string]skilltree.Progress, error) {
	if userID == "" {
		return skilltree.Node{}, nil, nil, errors.New("user id is required")
	}
	node, err := s.store.Node(ctx, nodeID)
	if err != nil {
		return skilltree.Node{}, nil, nil, fmt.Errorf("load node: %w", err)
	}
	if !node.Active {
		return skilltree.Node{}, nil, nil, fmt.Errorf("node %q: %w", nodeID, ErrNodeInactive)
	}
	g, progress, err := s.loadTree(ctx, userID, node.TreeID)
	if err != nil {
		return skilltree.Node{}, nil, nil, err
	}
	if !g.Tree().Active || !g.Has(nodeID) {
		return skilltree.Node{}, nil, nil, fmt.Errorf("node %q: %w", nodeID, ErrNodeInactive)
	}
	return node, g, progress, nil
}

// ensureUnlocked fails with a LockedError naming the missing prerequisites.
func ensureUnlocked(g *skilltree.Graph, nodeID string, progress map[string]skilltree.Progress) error {
	completed := skilltree.CompletedSet(progress)
	if g.IsUnlocked(nodeID, completed) {
		return nil
	}
	var missing []string
	for _, p := range g.Prerequisites(nodeID) {
		if !completed[p.ID] {
			missing = append(missing, p.ID)
		}
	}
	slices.Sort(missing)
	return &LockedError{NodeID: nodeID, Missing: missing}
}

// CompleteNode marks a node completed for the user and applies the
// consequences: the node reward, unlocking of dependents, the tree bonus
// and mastery achievement, the node's own achievement and finally a
// criteria pass over every achievement.
func (s *Service) CompleteNode(ctx context.Context, userID, nodeID string) (res *CompletionResult, err error) {
	ctx, span := s.startSpan(ctx, "progression.CompleteNode",
		attribute.String("user.id", userID),
		attribute.String("node.id", nodeID),
	)
	defer func() { endSpan(span, err) }()

	node, g, progress, err := s.nodeContext(ctx, userID, nodeID)
	if err != nil {
		return nil, err
	}
	treeID := g.Tree().ID
	now := s.now()
	res = &CompletionResult{NodeID: nodeID, TreeID: treeID}

	if skilltree.StatusOf(progress, nodeID) == skilltree.StatusCompleted {
		res.AlreadyCompleted = true
	} else {
		if err := ensureUnlocked(g, nodeID, progress); err != nil {
			return nil, err
		}
		full := 100
		p, err := s.store.UpsertUserProgress(ctx, userID, nodeID, store.ProgressPatch{
			TreeID:             treeID,
			Status:             skilltree.StatusCompleted,
			ProgressPercentage: &full,
			UnlockedAt:         &now,
			StartedAt:          &now,
			CompletedAt:        &now,
			UpdatedAt:          now,
		})
		if err != nil {
			return nil, fmt.Errorf("complete node %q: %w", nodeID, err)
		}
		progress[nodeID] = p
	}

	if node.XPReward > 0 {
		_, created, err := s.store.AppendXPEntry(ctx, store.XPEntry{
			UserID:      userID,
			Amount:      node.XPReward,
			Source:      store.XPSkillNodeCompletion,
			ReferenceID: nodeID,
			Description: "Completed " + node.Name,
		})
		if err != nil {
			return nil, fmt.Errorf("award node xp: %w", err)
		}
		if created {
			res.XPAwarded = node.XPReward
		}
	}

	res.Unlocked, err = s.persistUnlocks(ctx, g, userID, progress)
	if err != nil {
		return nil, err
	}

	if skilltree.IsTreeComplete(g, progress) {
		res.TreeCompleted = true
		if err := s.completeTree(ctx, userID, g.Tree(), res); err != nil {
			return nil, err
		}
	}

	if node.AchievementID != "" {
		ar, err := s.AwardIfEligible(ctx, userID, node.AchievementID)
		if err != nil {
			return nil, fmt.Errorf("award node achievement: %w", err)
		}
		if ar.Awarded {
			res.Achievements = append(res.Achievements, ar)
		}
	}

	if s.cfg.AwardOnProgress {
		res.Batch, err = s.CheckAndAwardAll(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	s.log.Info("node completed",
		"user", userID,
		"node", nodeID,
		"already_completed", res.AlreadyCompleted,
		"xp", res.TotalXP(),
		"unlocked", len(res.Unlocked),
	)
	return res, nil
}

// persistUnlocks runs the unlock engine and writes every change, updating
// progress in place. It returns the newly available node IDs.
func (s *Service) persistUnlocks(ctx context.Context, g *skilltree.Graph, userID string, progress map[string]skilltree.Progress) ([]string, error) {
	changed := skilltree.RecomputeUnlocks(g, userID, progress, s.now())
	ids := slices.Sorted(maps.Keys(changed))
	for _, id := range ids {
		c := changed[id]
		p, err := s.store.UpsertUserProgress(ctx, userID, id, store.ProgressPatch{
			TreeID:     c.TreeID,
			Status:     skilltree.StatusAvailable,
			UnlockedAt: c.UnlockedAt,
			UpdatedAt:  c.UpdatedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("unlock node %q: %w", id, err)
		}
		progress[id] = p
	}
	return ids, nil
}

// completeTree grants the one-off tree bonus and the tree's mastery
// achievement. Both are keyed so that repeating this is harmless.
func (s *Service) completeTree(ctx context.Context, userID string, tree skilltree.Tree, res *CompletionResult) error {
	if bonus := s.cfg.TreeCompletionBonusXP; bonus > 0 {
		_, created, err := s.store.AppendXPEntry(ctx, store.XPEntry{
			UserID:      userID,
			Amount:      bonus,
			Source:      store.XPTreeCompletion,
			ReferenceID: tree.ID,
			Description: "Completed " + tree.Name,
		})
		if err != nil {
			return fmt.Errorf("award tree bonus: %w", err)
		}
		if created {
			res.TreeBonusXP = bonus
			s.log.Info("tree completed", "user", userID, "tree", tree.ID, "bonus", bonus)
		}
	}

	achID, ok, err := s.store.TreeMasteryAchievement(ctx, tree.ID)
	if err != nil {
		return fmt.Errorf("look up tree mastery: %w", err)
	}
	if !ok {
		return nil
	}
	ar, err := s.AwardIfEligible(ctx, userID, achID)
	if err != nil {
		return fmt.Errorf("award tree mastery: %w", err)
	}
	if ar.Awarded {
		res.Achievements = append(res.Achievements, ar)
	}
	return nil
}

// StartNode moves an available node to in_progress. Nodes already started
// or completed are returned unchanged.
func (s *Service) StartNode(ctx context.Context, userID, nodeID string) (skilltree.Progress, error) {
	_, g, progress, err := s.nodeContext(ctx, userID, nodeID)
	if err != nil {
		return skilltree.Progress{}, err
	}
	switch skilltree.StatusOf(progress, nodeID) {
	case skilltree.StatusInProgress, skilltree.StatusCompleted:
		return progress[nodeID], nil
	}
	if err := ensureUnlocked(g, nodeID, progress); err != nil {
		return skilltree.Progress{}, err
	}

	now := s.now()
	p, err := s.store.UpsertUserProgress(ctx, userID, nodeID, store.ProgressPatch{
		TreeID:     g.Tree().ID,
		Status:     skilltree.StatusInProgress,
		UnlockedAt: &now,
		StartedAt:  &now,
		UpdatedAt:  now,
	})
	if err != nil {
		return skilltree.Progress{}, fmt.Errorf("start node %q: %w", nodeID, err)
	}
	s.log.Debug("node started", "user", userID, "node", nodeID)
	return p, nil
}

// UpdateNodeProgress records partial progress on a node, starting it if
// needed. The percentage is clamped to 0-99; only CompleteNode reaches 100.
// Completed nodes are returned unchanged.
func (s *Service) UpdateNodeProgress(ctx context.Context, userID, nodeID string, percent int) (skilltree.Progress, error) {
	_, g, progress, err := s.nodeContext(ctx, userID, nodeID)
	if err != nil {
		return skilltree.Progress{}, err
	}
	if skilltree.StatusOf(progress, nodeID) == skilltree.StatusCompleted {
		return progress[nodeID], nil
	}
	if err := ensureUnlocked(g, nodeID, progress); err != nil {
		return skilltree.Progress{}, err
	}

	percent = max(0, min(99, percent))
	now := s.now()
	p, err := s.store.UpsertUserProgress(ctx, userID, nodeID, store.ProgressPatch{
		TreeID:             g.Tree().ID,
		Status:             skilltree.StatusInProgress,
		ProgressPercentage: &percent,
		UnlockedAt:         &now,
		StartedAt:          &now,
		UpdatedAt:          now,
	})
	if err != nil {
		return skilltree.Progress{}, fmt.Errorf("update node %q: %w", nodeID, err)
	}
	return p, nil
}

// InitializeTree creates the user's missing progress records for a tree:
// roots available, the rest locked unless their prerequisites are already
// completed. Existing records are never touched.
func (s *Service) InitializeTree(ctx context.Context, userID, treeID string) (map[string]skilltree.Progress, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	g, progress, err := s.loadTree(ctx, userID, treeID)
	if err != nil {
		return nil, err
	}

	initial := skilltree.InitialProgress(g, userID, s.now())
	created := 0
	for _, n := range g.TopologicalOrder() {
		if _, ok := progress[n.ID]; ok {
			continue
		}
		want := initial[n.ID]
		p, err := s.store.UpsertUserProgress(ctx, userID, n.ID, store.ProgressPatch{
			TreeID:     treeID,
			Status:     want.Status,
			UnlockedAt: want.UnlockedAt,
			UpdatedAt:  want.UpdatedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize node %q: %w", n.ID, err)
		}
		progress[n.ID] = p
		created++
	}

	if _, err := s.persistUnlocks(ctx, g, userID, progress); err != nil {
		return nil, err
	}
	s.log.Debug("tree initialized", "user", userID, "tree", treeID, "created", created)
	return progress, nil
}

// LessonResult reports what CompleteLesson changed.
type LessonResult struct {
	LessonID        string
	FirstCompletion bool
	XPAwarded       int
	Batch           *BatchResult
}

// CompleteLesson records a finished lesson and its XP. Repeating it for the
// same lesson writes nothing new.
func (s *Service) CompleteLesson(ctx context.Context, userID, lessonID string, xp int) (res *LessonResult, err error) {
	ctx, span := s.startSpan(ctx, "progression.CompleteLesson",
		attribute.String("user.id", userID),
		attribute.String("lesson.id", lessonID),
	)
	defer func() { endSpan(span, err) }()

	if userID == "" || lessonID == "" {
		return nil, errors.New("user id and lesson id are required")
	}
	if xp < 0 {
		return nil, fmt.Errorf("lesson xp must not be negative, got %d", xp)
	}

	first, err := s.store.RecordLessonCompletion(ctx, userID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("record lesson: %w", err)
	}
	res = &LessonResult{LessonID: lessonID, FirstCompletion: first}

	if xp > 0 {
		_, created, err := s.store.AppendXPEntry(ctx, store.XPEntry{
			UserID:      userID,
			Amount:      xp,
			Source:      store.XPLessonCompletion,
			ReferenceID: lessonID,
			Description: "Completed lesson " + lessonID,
		})
		if err != nil {
			return nil, fmt.Errorf("award lesson xp: %w", err)
		}
		if created {
			res.XPAwarded = xp
		}
	}

	if s.cfg.AwardOnProgress {
		res.Batch, err = s.CheckAndAwardAll(ctx, userID)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}
