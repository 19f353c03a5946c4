package progression

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/abhisek/engineermaster/internal/achievement"
	"github.com/abhisek/engineermaster/internal/store"
)

// AwardResult describes one award attempt.
type AwardResult struct {
	AchievementID string
	// Awarded is false when the user already had the achievement or it is
	// retired.
	Awarded         bool
	XPAwarded       int
	UserAchievement achievement.UserAchievement
}

// AwardFailure is an achievement the batch pass could not award.
type AwardFailure struct {
	AchievementID string
	Err           error
}

// BatchResult reports a CheckAndAwardAll run.
type BatchResult struct {
	Awarded  []AwardResult
	Failures []AwardFailure
	// Passes counts the evaluation rounds needed to reach a fixed point.
	Passes int
}

// Err joins the individual failures, nil when there were none.
func (b *BatchResult) Err() error {
	if b == nil || len(b.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(b.Failures))
	for _, f := range b.Failures {
		errs = append(errs, fmt.Errorf("achievement %q: %w", f.AchievementID, f.Err))
	}
	return errors.Join(errs...)
}

// AwardIfEligible grants an achievement directly, without evaluating its
// criteria. The award stores the user's current statistics. Unknown
// achievements fail with store.ErrNotFound.
func (s *Service) AwardIfEligible(ctx context.Context, userID, achievementID string) (AwardResult, error) {
	a, err := s.store.Achievement(ctx, achievementID)
	if err != nil {
		return AwardResult{AchievementID: achievementID}, fmt.Errorf("load achievement: %w", err)
	}
	stats, earned, err := s.snapshot(ctx, userID)
	if err != nil {
		return AwardResult{AchievementID: achievementID}, err
	}
	return s.award(ctx, userID, a, stats, earned)
}

// award writes the achievement's XP and then the award itself. The ledger
// entry is keyed by achievement, so if the award insert fails a retry
// reuses the entry instead of paying twice.
func (s *Service) award(ctx context.Context, userID string, a achievement.Achievement, stats achievement.Statistics, earned map[string]bool) (AwardResult, error) {
	res := AwardResult{AchievementID: a.ID}
	if earned[a.ID] || !a.Active {
		return res, nil
	}

	if a.XPReward > 0 {
		_, created, err := s.store.AppendXPEntry(ctx, store.XPEntry{
			UserID:      userID,
			Amount:      a.XPReward,
			Source:      store.XPAchievementEarned,
			ReferenceID: a.ID,
			Description: "Earned " + a.Name,
		})
		if err != nil {
			return res, fmt.Errorf("award achievement xp: %w", err)
		}
		if created {
			res.XPAwarded = a.XPReward
		}
	}

	ua, created, err := s.store.AwardAchievement(ctx, userID, a.ID, stats.ToMap())
	if err != nil {
		return res, fmt.Errorf("award achievement %q: %w", a.ID, err)
	}
	res.UserAchievement = ua
	res.Awarded = created
	if created {
		earned[a.ID] = true
		s.log.Info("achievement earned", "user", userID, "achievement", a.ID, "tier", string(a.Tier))
	}
	return res, nil
}

// CheckAndAwardAll evaluates every active achievement against the user's
// statistics and awards the satisfied ones. Within a pass, achievements
// whose criteria read other awards are evaluated last, against statistics
// that already include the pass's earlier awards. Evaluation repeats until
// a pass awards nothing, bounded by the number of definitions plus one.
//
// A failure to award one achievement is recorded in the result and does not
// stop the others. Store errors while loading definitions or statistics
// are returned.
func (s *Service) CheckAndAwardAll(ctx context.Context, userID string) (res *BatchResult, err error) {
	ctx, span := s.startSpan(ctx, "progression.CheckAndAwardAll", attribute.String("user.id", userID))
	defer func() { endSpan(span, err) }()

	defs, err := s.store.AchievementDefinitions(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}

	defs = orderForEvaluation(defs)

	res = &BatchResult{}
	failed := make(map[string]bool)
	for pass := 0; pass <= len(defs); pass++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stats, earned, err := s.snapshot(ctx, userID)
		if err != nil {
			return nil, err
		}
		res.Passes++

		awarded := 0
		for _, a := range defs {
			if earned[a.ID] || failed[a.ID] || !achievement.Satisfied(a.Criteria, stats) {
				continue
			}
			ar, err := s.award(ctx, userID, a, stats, earned)
			if err != nil {
				failed[a.ID] = true
				res.Failures = append(res.Failures, AwardFailure{AchievementID: a.ID, Err: err})
				s.log.Warn("achievement award failed", "user", userID, "achievement", a.ID, "error", err)
				continue
			}
			if ar.Awarded {
				res.Awarded = append(res.Awarded, ar)
				awarded++
				stats.AchievementsByTier[a.Tier]++
				stats.TotalXP += ar.XPAwarded
			}
		}
		if awarded == 0 {
			break
		}
	}

	span.SetAttributes(attribute.Int("achievements.awarded", len(res.Awarded)))
	return res, nil
}

// orderForEvaluation moves achievements that depend on other awards behind
// the rest, keeping the store's order within each group.
func orderForEvaluation(defs []achievement.Achievement) []achievement.Achievement {
	out := make([]achievement.Achievement, 0, len(defs))
	var dependent []achievement.Achievement
	for _, a := range defs {
		if achievement.DependsOnAchievements(a.Criteria) {
			dependent = append(dependent, a)
			continue
		}
		out = append(out, a)
	}
	return append(out, dependent...)
}
