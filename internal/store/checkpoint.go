package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var checkpointColumns = []string{
	"id", "sequence", "timestamp", "run_id", "items_generated",
	"chars_generated", "cursor", "budget_used", "corpus_entries",
}

// checkpointRepo implements CheckpointRepo on top of the ledger database.
type checkpointRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *checkpointRepo) Save(ctx context.Context, cp *Checkpoint) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	ts := cp.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query, args := builder().Insert(tableCheckpoints).
		Columns(checkpointColumns[1:]...).
		Values(
			seqNum,
			ts.UTC(),
			cp.RunID,
			cp.ItemsGenerated,
			cp.CharsGenerated,
			cp.Cursor,
			cp.BudgetUsed,
			cp.CorpusEntries,
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	cp.Sequence = seqNum
	return nil
}

func (r *checkpointRepo) Latest(ctx context.Context) (*Checkpoint, error) {
	cps, err := r.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(cps) == 0 {
		return nil, nil
	}
	return &cps[0], nil
}

func (r *checkpointRepo) List(ctx context.Context, limit int) ([]Checkpoint, error) {
	sel := builder().Select(checkpointColumns...).
		From(entsql.Table(tableCheckpoints)).
		OrderBy(entsql.Desc("sequence"))
	if limit > 0 {
		sel.Limit(limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query checkpoints: %w", err)
	}
	defer rows.Close()

	var out []Checkpoint
	for rows.Next() {
		var cp Checkpoint
		if err := rows.Scan(
			&cp.ID,
			&cp.Sequence,
			&cp.Timestamp,
			&cp.RunID,
			&cp.ItemsGenerated,
			&cp.CharsGenerated,
			&cp.Cursor,
			&cp.BudgetUsed,
			&cp.CorpusEntries,
		); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}
	return out, nil
}

func (r *checkpointRepo) Prune(ctx context.Context, keep int) error {
	// Find the threshold: the sequence of the (keep+1)th most recent checkpoint.
	query, args := builder().Select("sequence").
		From(entsql.Table(tableCheckpoints)).
		OrderBy(entsql.Desc("sequence")).
		Offset(keep).
		Limit(1).
		Query()

	var threshold int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&threshold)
	if errors.Is(err, sql.ErrNoRows) {
		return nil // fewer than keep checkpoints exist
	}
	if err != nil {
		return fmt.Errorf("query checkpoints for prune: %w", err)
	}

	query, args = builder().Delete(tableCheckpoints).
		Where(entsql.LTE("sequence", threshold)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("prune checkpoints: %w", err)
	}
	return nil
}
