package store

import (
	"context"
	"time"

	"github.com/abhisek/engineermaster/internal/achievement"
	"github.com/abhisek/engineermaster/internal/skilltree"
)

// XPSource says why XP was granted.
type XPSource string

const (
	XPLessonCompletion    XPSource = "lesson_completion"
	XPSkillNodeCompletion XPSource = "skill_node_completion"
	XPTreeCompletion      XPSource = "tree_completion"
	XPAchievementEarned   XPSource = "achievement_earned"
)

// XPEntry is one append-only row of the XP ledger.
type XPEntry struct {
	ID          string
	Sequence    int64
	UserID      string
	Amount      int
	Source      XPSource
	ReferenceID string // optional; (UserID, Source, ReferenceID) is unique when set
	Description string
	CreatedAt   time.Time
}

// LessonCompletion records that a user finished a lesson.
type LessonCompletion struct {
	UserID      string
	LessonID    string
	CompletedAt time.Time
}

// ProgressPatch describes a change to one (user, node) progress record.
// Zero fields leave the stored value alone.
type ProgressPatch struct {
	TreeID             string
	Status             skilltree.Status
	ProgressPercentage *int
	UnlockedAt         *time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
	UpdatedAt          time.Time
}

// ApplyPatch merges patch into the current record for (userID, nodeID).
// Status never moves backwards and timestamps that are already set are kept,
// so replaying a patch is harmless.
func ApplyPatch(current skilltree.Progress, exists bool, userID, nodeID string, patch ProgressPatch) skilltree.Progress {
	p := current
	if !exists {
		p = skilltree.Progress{UserID: userID, NodeID: nodeID, Status: skilltree.StatusLocked}
	}
	if p.TreeID == "" {
		p.TreeID = patch.TreeID
	}
	if patch.Status != "" && skilltree.CanTransition(p.Status, patch.Status) {
		p.Status = patch.Status
	}
	if patch.ProgressPercentage != nil {
		p.ProgressPercentage = max(0, min(100, *patch.ProgressPercentage))
	}
	if p.Status == skilltree.StatusCompleted {
		p.ProgressPercentage = 100
	}
	if p.UnlockedAt == nil && patch.UnlockedAt != nil {
		p.UnlockedAt = patch.UnlockedAt
	}
	if p.StartedAt == nil && patch.StartedAt != nil {
		p.StartedAt = patch.StartedAt
	}
	if p.CompletedAt == nil && patch.CompletedAt != nil {
		p.CompletedAt = patch.CompletedAt
	}
	if !patch.UpdatedAt.IsZero() {
		p.UpdatedAt = patch.UpdatedAt
	}
	return p
}

// ProgressStore is the persistence boundary of the progression engine.
type ProgressStore interface {
	// Trees returns the active skill trees ordered by ID.
	Trees(ctx context.Context) ([]skilltree.Tree, error)
	// Tree returns a tree, active or not.
	Tree(ctx context.Context, treeID string) (skilltree.Tree, error)
	// Nodes returns every node of a tree, including inactive ones.
	Nodes(ctx context.Context, treeID string) ([]skilltree.Node, error)
	// AllNodes returns every node of every tree.
	AllNodes(ctx context.Context) ([]skilltree.Node, error)
	Node(ctx context.Context, nodeID string) (skilltree.Node, error)

	// UserProgress returns the user's progress in one tree keyed by node ID.
	UserProgress(ctx context.Context, userID, treeID string) (map[string]skilltree.Progress, error)
	AllUserProgress(ctx context.Context, userID string) ([]skilltree.Progress, error)
	UpsertUserProgress(ctx context.Context, userID, nodeID string, patch ProgressPatch) (skilltree.Progress, error)

	// AppendXPEntry adds an entry to the ledger. It reports false, and
	// returns the existing entry, when an entry with the same
	// (user, source, reference) is already present.
	AppendXPEntry(ctx context.Context, entry XPEntry) (XPEntry, bool, error)
	HasXPEntry(ctx context.Context, userID string, source XPSource, referenceID string) (bool, error)
	// XPEntries returns the user's ledger newest first. limit <= 0 means all.
	XPEntries(ctx context.Context, userID string, limit int) ([]XPEntry, error)
	TotalXP(ctx context.Context, userID string) (int, error)

	// AchievementDefinitions returns active definitions, optionally
	// restricted to one tier.
	AchievementDefinitions(ctx context.Context, tier *achievement.Tier) ([]achievement.Achievement, error)
	Achievement(ctx context.Context, achievementID string) (achievement.Achievement, error)
	UserAchievements(ctx context.Context, userID string) ([]achievement.UserAchievement, error)
	// AwardAchievement records an award once. created is false when the
	// user already had it; the existing record is returned.
	AwardAchievement(ctx context.Context, userID, achievementID string, progressData map[string]any) (ua achievement.UserAchievement, created bool, err error)

	// RecordLessonCompletion reports false when the lesson was already
	// recorded for the user.
	RecordLessonCompletion(ctx context.Context, userID, lessonID string) (bool, error)
	LessonsCompleted(ctx context.Context, userID string) (int, error)

	SaveTree(ctx context.Context, tree skilltree.Tree) error
	SaveNode(ctx context.Context, node skilltree.Node) error
	SaveAchievement(ctx context.Context, a achievement.Achievement) error
	SetTreeMasteryAchievement(ctx context.Context, treeID, achievementID string) error
	// TreeMasteryAchievement reports the achievement granted for completing
	// a tree, if one is configured.
	TreeMasteryAchievement(ctx context.Context, treeID string) (string, bool, error)
}
