package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// generationEventColumns is the column order used by every event query.
var generationEventColumns = []string{
	"id", "sequence", "timestamp", "run_id", "provider", "model",
	"category", "label", "input_tokens", "output_tokens", "chars",
	"latency_ms", "success", "error_message", "request_body", "response_body",
}

// eventRepo implements EventRepo on top of the ledger database.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *eventRepo) AppendGeneration(ctx context.Context, data GenerationEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder().Insert(tableGenerationEvents).
		Columns(generationEventColumns[1:]...).
		Values(
			seqNum,
			time.Now().UTC(),
			data.RunID,
			data.Provider,
			data.Model,
			data.Category,
			data.Label,
			data.InputTokens,
			data.OutputTokens,
			data.Chars,
			data.LatencyMs,
			data.Success,
			data.ErrorMessage,
			data.RequestBody,
			data.ResponseBody,
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save generation event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryGenerationEvents(ctx context.Context, opts QueryOpts) ([]GenerationEvent, error) {
	sel := builder().Select(generationEventColumns...).
		From(entsql.Table(tableGenerationEvents)).
		OrderBy(entsql.Desc("sequence"))

	if opts.RunID != "" {
		sel.Where(entsql.EQ("run_id", opts.RunID))
	}
	if opts.Category != "" {
		sel.Where(entsql.EQ("category", opts.Category))
	}
	if opts.Failed {
		sel.Where(entsql.EQ("success", false))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query generation events: %w", err)
	}
	defer rows.Close()

	var events []GenerationEvent
	for rows.Next() {
		e, err := scanGenerationEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generation events: %w", err)
	}
	return events, nil
}

func (r *eventRepo) GetGenerationEvent(ctx context.Context, id int) (*GenerationEvent, error) {
	query, args := builder().Select(generationEventColumns...).
		From(entsql.Table(tableGenerationEvents)).
		Where(entsql.EQ("id", id)).
		Query()

	e, err := scanGenerationEvent(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *eventRepo) UsageByCategory(ctx context.Context) ([]CategoryUsage, error) {
	query, args := builder().Select(
		"category",
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As("SUM(CASE WHEN success THEN 0 ELSE 1 END)", "failures"),
		entsql.As(entsql.Sum("chars"), "chars"),
		entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
		entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
		entsql.As("CAST(AVG(latency_ms) AS INTEGER)", "avg_latency_ms"),
	).
		From(entsql.Table(tableGenerationEvents)).
		GroupBy("category").
		OrderBy("category").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query category usage: %w", err)
	}
	defer rows.Close()

	var out []CategoryUsage
	for rows.Next() {
		var u CategoryUsage
		if err := rows.Scan(&u.Category, &u.Calls, &u.Failures, &u.Chars,
			&u.InputTokens, &u.OutputTokens, &u.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan category usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *eventRepo) UsageByModel(ctx context.Context) ([]ModelUsage, error) {
	query, args := builder().Select(
		"model",
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As(entsql.Sum("chars"), "chars"),
		entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
		entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
	).
		From(entsql.Table(tableGenerationEvents)).
		GroupBy("model").
		OrderBy("model").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query model usage: %w", err)
	}
	defer rows.Close()

	var out []ModelUsage
	for rows.Next() {
		var u ModelUsage
		if err := rows.Scan(&u.Model, &u.Calls, &u.Chars, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan model usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanGenerationEvent(row rowScanner) (*GenerationEvent, error) {
	var e GenerationEvent
	err := row.Scan(
		&e.ID,
		&e.Sequence,
		&e.Timestamp,
		&e.RunID,
		&e.Provider,
		&e.Model,
		&e.Category,
		&e.Label,
		&e.InputTokens,
		&e.OutputTokens,
		&e.Chars,
		&e.LatencyMs,
		&e.Success,
		&e.ErrorMessage,
		&e.RequestBody,
		&e.ResponseBody,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan generation event: %w", err)
	}
	return &e, nil
}
