package achievement

import "time"

// Achievement is a definition from the catalog.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Tier        Tier
	XPReward    int
	Criteria    Criterion
	Active      bool
}

// UserAchievement records that a user earned an achievement. ProgressData is
// the statistics snapshot taken at award time.
type UserAchievement struct {
	ID            string
	UserID        string
	AchievementID string
	EarnedAt      time.Time
	ProgressData  map[string]any
}

// EarnedSet returns the achievement IDs in earned.
func EarnedSet(earned []UserAchievement) map[string]bool {
	out := make(map[string]bool, len(earned))
	for _, ua := range earned {
		out[ua.AchievementID] = true
	}
	return out
}
