package progression

import (
	"fmt"

	"github.com/abhisek/engineermaster/internal/achievement"
)

// Config holds the tunable rules of the engine.
type Config struct {
	// TreeCompletionBonusXP is granted once when every active node of a tree
	// is completed. Default: 1000.
	TreeCompletionBonusXP int

	// Thresholds decide when a discipline counts as mastered or founded.
	Thresholds achievement.Thresholds

	// AwardOnProgress runs CheckAndAwardAll after every node or lesson
	// completion so criteria-gated achievements follow progress.
	AwardOnProgress bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TreeCompletionBonusXP: 1000,
		Thresholds:            achievement.DefaultThresholds(),
		AwardOnProgress:       true,
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.TreeCompletionBonusXP < 0 {
		return fmt.Errorf("tree completion bonus must not be negative, got %d", c.TreeCompletionBonusXP)
	}
	if c.Thresholds.MasteryNodes < 1 {
		return fmt.Errorf("mastery threshold must be at least 1, got %d", c.Thresholds.MasteryNodes)
	}
	if c.Thresholds.FoundationNodes < 1 {
		return fmt.Errorf("foundation threshold must be at least 1, got %d", c.Thresholds.FoundationNodes)
	}
	return nil
}
