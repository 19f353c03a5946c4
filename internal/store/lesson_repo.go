package store

import (
	"context"

	entsql "entgo.io/ent/dialect/sql"
)

func (s *Store) RecordLessonCompletion(ctx context.Context, userID, lessonID string) (bool, error) {
	q := s.builder().Insert(tableLessons).
		Columns("user_id", "lesson_id", "completed_at").
		Values(userID, lessonID, s.now().UTC()).
		OnConflict(entsql.ConflictColumns("user_id", "lesson_id"), entsql.DoNothing())
	n, err := execute(ctx, s.drv, q)
	if err != nil {
		return false, classify("record lesson", err)
	}
	return n > 0, nil
}

func (s *Store) LessonsCompleted(ctx context.Context, userID string) (int, error) {
	q := s.builder().Select().Count().
		From(entsql.Table(tableLessons)).
		Where(entsql.EQ("user_id", userID))
	n, err := queryInt(ctx, s.drv, q)
	if err != nil {
		return 0, classify("count lessons", err)
	}
	return n, nil
}
