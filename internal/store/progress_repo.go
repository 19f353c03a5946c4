package store

import (
	"context"
	"database/sql"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/engineermaster/internal/skilltree"
)

var progressColumns = []string{
	"user_id", "node_id", "tree_id", "status", "progress_percentage",
	"unlocked_at", "started_at", "completed_at", "updated_at",
}

type progressRow struct {
	UserID             string     `sql:"user_id"`
	NodeID             string     `sql:"node_id"`
	TreeID             string     `sql:"tree_id"`
	Status             string     `sql:"status"`
	ProgressPercentage int        `sql:"progress_percentage"`
	UnlockedAt         *time.Time `sql:"unlocked_at"`
	StartedAt          *time.Time `sql:"started_at"`
	CompletedAt        *time.Time `sql:"completed_at"`
	UpdatedAt          time.Time  `sql:"updated_at"`
}

func (r progressRow) progress() skilltree.Progress {
	return skilltree.Progress{
		UserID:             r.UserID,
		NodeID:             r.NodeID,
		TreeID:             r.TreeID,
		Status:             skilltree.Status(r.Status),
		ProgressPercentage: r.ProgressPercentage,
		UnlockedAt:         r.UnlockedAt,
		StartedAt:          r.StartedAt,
		CompletedAt:        r.CompletedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func (s *Store) UserProgress(ctx context.Context, userID, treeID string) (map[string]skilltree.Progress, error) {
	q := s.builder().Select(progressColumns...).
		From(entsql.Table(tableUserProgress)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("tree_id", treeID)))
	rows, err := queryRows[progressRow](ctx, s.drv, q)
	if err != nil {
		return nil, classify("query progress", err)
	}
	out := make(map[string]skilltree.Progress, len(rows))
	for _, r := range rows {
		out[r.NodeID] = r.progress()
	}
	return out, nil
}

func (s *Store) AllUserProgress(ctx context.Context, userID string) ([]skilltree.Progress, error) {
	q := s.builder().Select(progressColumns...).
		From(entsql.Table(tableUserProgress)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("tree_id", "node_id")
	rows, err := queryRows[progressRow](ctx, s.drv, q)
	if err != nil {
		return nil, classify("query progress", err)
	}
	out := make([]skilltree.Progress, len(rows))
	for i, r := range rows {
		out[i] = r.progress()
	}
	return out, nil
}

// progressForUpdate selects the (user_id, node_id) record, locking it on
// Postgres. SQLite has no row locks; its single writer serializes instead.
func (s *Store) progressForUpdate(userID, nodeID string) *entsql.Selector {
	q := s.builder().Select(progressColumns...).
		From(entsql.Table(tableUserProgress)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("node_id", nodeID)))
	if s.dialect == dialect.Postgres {
		q.ForUpdate()
	}
	return q
}

// progressTxOptions makes the read-merge-write serializable on Postgres, so
// a concurrent insert of the same record fails with 40001 and is retried
// against the committed state instead of being overwritten.
func (s *Store) progressTxOptions() *sql.TxOptions {
	if s.dialect == dialect.Postgres {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

// UpsertUserProgress reads the current record and writes the merged result
// in one transaction, keyed on (user_id, node_id).
func (s *Store) UpsertUserProgress(ctx context.Context, userID, nodeID string, patch ProgressPatch) (skilltree.Progress, error) {
	if patch.UpdatedAt.IsZero() {
		patch.UpdatedAt = s.now()
	}

	var result skilltree.Progress
	err := s.inTx(ctx, s.progressTxOptions(), func(tx execQuerier) error {
		rows, err := queryRows[progressRow](ctx, tx, s.progressForUpdate(userID, nodeID))
		if err != nil {
			return err
		}

		var current skilltree.Progress
		exists := len(rows) > 0
		if exists {
			current = rows[0].progress()
		}
		result = ApplyPatch(current, exists, userID, nodeID, patch)

		ins := s.builder().Insert(tableUserProgress).
			Columns(progressColumns...).
			Values(result.UserID, result.NodeID, result.TreeID, string(result.Status), result.ProgressPercentage,
				nullTime(result.UnlockedAt), nullTime(result.StartedAt), nullTime(result.CompletedAt), result.UpdatedAt.UTC()).
			OnConflict(entsql.ConflictColumns("user_id", "node_id"), entsql.ResolveWithNewValues())
		_, err = execute(ctx, tx, ins)
		return err
	})
	if err != nil {
		return skilltree.Progress{}, classify("upsert progress", err)
	}
	return result, nil
}
