package skilltree

import "time"

// NodeType tags a node's place in its tree. The engine only uses it as a
// statistics key; any value is accepted.
type NodeType string

const (
	NodeFoundation     NodeType = "foundation"
	NodeCore           NodeType = "core"
	NodeAdvanced       NodeType = "advanced"
	NodeSpecialization NodeType = "specialization"
)

// AllNodeTypes returns the well-known node types in display order.
func AllNodeTypes() []NodeType {
	return []NodeType{NodeFoundation, NodeCore, NodeAdvanced, NodeSpecialization}
}

// DisplayName returns a human-readable name for a node type.
func (t NodeType) DisplayName() string {
	switch t {
	case NodeFoundation:
		return "Foundation"
	case NodeCore:
		return "Core"
	case NodeAdvanced:
		return "Advanced"
	case NodeSpecialization:
		return "Specialization"
	default:
		return string(t)
	}
}

// Tree is a skill tree for one engineering discipline.
type Tree struct {
	ID          string
	Name        string
	Discipline  string
	Description string
	Active      bool
}

// Node is a single unit of masterable content in a tree.
type Node struct {
	ID            string
	TreeID        string
	Name          string
	Description   string
	Type          NodeType
	RequiredXP    int
	XPReward      int
	Prerequisites []string
	AchievementID string // optional achievement granted on completion
	Active        bool
}

// Status is a node's state relative to one learner.
type Status string

const (
	StatusLocked     Status = "locked"      // One or more prerequisites not yet completed
	StatusAvailable  Status = "available"   // All prerequisites completed; not started
	StatusInProgress Status = "in_progress" // Started, not completed
	StatusCompleted  Status = "completed"   // Terminal
)

// Rank orders statuses along the only allowed direction of travel.
// Unknown statuses rank below locked.
func (s Status) Rank() int {
	switch s {
	case StatusLocked:
		return 0
	case StatusAvailable:
		return 1
	case StatusInProgress:
		return 2
	case StatusCompleted:
		return 3
	default:
		return -1
	}
}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	return s.Rank() >= 0
}

// CanTransition reports whether moving from one status to another keeps
// progress monotonic. Staying in place is allowed.
func CanTransition(from, to Status) bool {
	if !to.Valid() {
		return false
	}
	return to.Rank() >= from.Rank()
}

// Icon returns the display icon for a status.
func (s Status) Icon() string {
	switch s {
	case StatusLocked:
		return "🔒"
	case StatusAvailable:
		return "🔓"
	case StatusInProgress:
		return "📖"
	case StatusCompleted:
		return "✅"
	default:
		return "?"
	}
}

// Label returns the display label for a status.
func (s Status) Label() string {
	switch s {
	case StatusLocked:
		return "Locked"
	case StatusAvailable:
		return "Available"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// Progress is the per-(user, node) state.
type Progress struct {
	UserID             string
	NodeID             string
	TreeID             string
	Status             Status
	ProgressPercentage int
	UnlockedAt         *time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
	UpdatedAt          time.Time
}

// StatusOf returns the status recorded for nodeID, or locked when the map
// has no entry.
func StatusOf(progress map[string]Progress, nodeID string) Status {
	if p, ok := progress[nodeID]; ok && p.Status.Valid() {
		return p.Status
	}
	return StatusLocked
}
