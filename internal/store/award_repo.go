package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/engineermaster/internal/achievement"
)

var awardColumns = []string{"id", "user_id", "achievement_id", "earned_at", "progress_data"}

type awardRow struct {
	ID            string    `sql:"id"`
	UserID        string    `sql:"user_id"`
	AchievementID string    `sql:"achievement_id"`
	EarnedAt      time.Time `sql:"earned_at"`
	ProgressData  string    `sql:"progress_data"`
}

func (r awardRow) userAchievement() (achievement.UserAchievement, error) {
	var data map[string]any
	if r.ProgressData != "" {
		if err := json.Unmarshal([]byte(r.ProgressData), &data); err != nil {
			return achievement.UserAchievement{}, fmt.Errorf("decode progress data of %q for user %q: %w", r.AchievementID, r.UserID, err)
		}
	}
	return achievement.UserAchievement{
		ID:            r.ID,
		UserID:        r.UserID,
		AchievementID: r.AchievementID,
		EarnedAt:      r.EarnedAt,
		ProgressData:  data,
	}, nil
}

func (s *Store) UserAchievements(ctx context.Context, userID string) ([]achievement.UserAchievement, error) {
	q := s.builder().Select(awardColumns...).
		From(entsql.Table(tableUserAchievements)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("earned_at", "achievement_id")
	rows, err := queryRows[awardRow](ctx, s.drv, q)
	if err != nil {
		return nil, classify("query user achievements", err)
	}
	out := make([]achievement.UserAchievement, len(rows))
	for i, r := range rows {
		if out[i], err = r.userAchievement(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) AwardAchievement(ctx context.Context, userID, achievementID string, progressData map[string]any) (achievement.UserAchievement, bool, error) {
	data := []byte("{}")
	if progressData != nil {
		var err error
		if data, err = json.Marshal(progressData); err != nil {
			return achievement.UserAchievement{}, false, fmt.Errorf("encode progress data: %w", err)
		}
	}

	ua := achievement.UserAchievement{
		ID:            newID(),
		UserID:        userID,
		AchievementID: achievementID,
		EarnedAt:      s.now().UTC(),
		ProgressData:  progressData,
	}
	q := s.builder().Insert(tableUserAchievements).
		Columns(awardColumns...).
		Values(ua.ID, ua.UserID, ua.AchievementID, ua.EarnedAt, string(data)).
		OnConflict(entsql.ConflictColumns("user_id", "achievement_id"), entsql.DoNothing())
	n, err := execute(ctx, s.drv, q)
	if err != nil {
		return achievement.UserAchievement{}, false, classify("award achievement", err)
	}
	if n > 0 {
		return ua, true, nil
	}

	sel := s.builder().Select(awardColumns...).
		From(entsql.Table(tableUserAchievements)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("achievement_id", achievementID)))
	rows, err := queryRows[awardRow](ctx, s.drv, sel)
	if err != nil {
		return achievement.UserAchievement{}, false, classify("query user achievement", err)
	}
	if len(rows) == 0 {
		return achievement.UserAchievement{}, false, fmt.Errorf("award achievement %q: conflict without existing row", achievementID)
	}
	ua, err = rows[0].userAchievement()
	if err != nil {
		return achievement.UserAchievement{}, false, err
	}
	return ua, false, nil
}
