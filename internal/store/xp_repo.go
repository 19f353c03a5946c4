package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var xpColumns = []string{"id", "sequence", "user_id", "amount", "source", "reference_id", "description", "created_at"}

type xpRow struct {
	ID          string    `sql:"id"`
	Sequence    int64     `sql:"sequence"`
	UserID      string    `sql:"user_id"`
	Amount      int       `sql:"amount"`
	Source      string    `sql:"source"`
	ReferenceID *string   `sql:"reference_id"`
	Description string    `sql:"description"`
	CreatedAt   time.Time `sql:"created_at"`
}

func (r xpRow) entry() XPEntry {
	return XPEntry{
		ID:          r.ID,
		Sequence:    r.Sequence,
		UserID:      r.UserID,
		Amount:      r.Amount,
		Source:      XPSource(r.Source),
		ReferenceID: derefString(r.ReferenceID),
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

func (s *Store) AppendXPEntry(ctx context.Context, entry XPEntry) (XPEntry, bool, error) {
	if entry.UserID == "" {
		return XPEntry{}, false, fmt.Errorf("append xp entry: empty user id")
	}

	seq, err := s.seq.Next(ctx)
	if err != nil {
		return XPEntry{}, false, classify("append xp entry", err)
	}
	if entry.ID == "" {
		entry.ID = newID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	entry.Sequence = seq

	q := s.builder().Insert(tableXPEntries).
		Columns(xpColumns...).
		Values(entry.ID, entry.Sequence, entry.UserID, entry.Amount, string(entry.Source),
			nullString(entry.ReferenceID), entry.Description, entry.CreatedAt.UTC()).
		OnConflict(entsql.ConflictColumns("user_id", "source", "reference_id"), entsql.DoNothing())
	n, err := execute(ctx, s.drv, q)
	if err != nil {
		return XPEntry{}, false, classify("append xp entry", err)
	}
	if n > 0 {
		return entry, true, nil
	}

	existing, err := s.findXPEntry(ctx, entry.UserID, entry.Source, entry.ReferenceID)
	if err != nil {
		return XPEntry{}, false, err
	}
	return existing, false, nil
}

func (s *Store) findXPEntry(ctx context.Context, userID string, source XPSource, referenceID string) (XPEntry, error) {
	q := s.builder().Select(xpColumns...).
		From(entsql.Table(tableXPEntries)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("source", string(source)),
			entsql.EQ("reference_id", referenceID),
		))
	rows, err := queryRows[xpRow](ctx, s.drv, q)
	if err != nil {
		return XPEntry{}, classify("query xp entry", err)
	}
	if len(rows) == 0 {
		return XPEntry{}, &NotFoundError{Kind: "xp entry", ID: fmt.Sprintf("%s/%s/%s", userID, source, referenceID)}
	}
	return rows[0].entry(), nil
}

func (s *Store) HasXPEntry(ctx context.Context, userID string, source XPSource, referenceID string) (bool, error) {
	pred := entsql.And(entsql.EQ("user_id", userID), entsql.EQ("source", string(source)))
	if referenceID != "" {
		pred = entsql.And(pred, entsql.EQ("reference_id", referenceID))
	}
	q := s.builder().Select().Count().
		From(entsql.Table(tableXPEntries)).
		Where(pred)
	n, err := queryInt(ctx, s.drv, q)
	if err != nil {
		return false, classify("count xp entries", err)
	}
	return n > 0, nil
}

func (s *Store) XPEntries(ctx context.Context, userID string, limit int) ([]XPEntry, error) {
	q := s.builder().Select(xpColumns...).
		From(entsql.Table(tableXPEntries)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("sequence"))
	if limit > 0 {
		q = q.Limit(limit)
	}
	rows, err := queryRows[xpRow](ctx, s.drv, q)
	if err != nil {
		return nil, classify("query xp entries", err)
	}
	out := make([]XPEntry, len(rows))
	for i, r := range rows {
		out[i] = r.entry()
	}
	return out, nil
}

func (s *Store) TotalXP(ctx context.Context, userID string) (int, error) {
	q := s.builder().SelectExpr(entsql.Expr("COALESCE(SUM(amount), 0)")).
		From(entsql.Table(tableXPEntries)).
		Where(entsql.EQ("user_id", userID))
	total, err := queryInt(ctx, s.drv, q)
	if err != nil {
		return 0, classify("sum xp", err)
	}
	return total, nil
}
