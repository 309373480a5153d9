package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Table names.
const (
	tableGenerationEvents = "generation_events"
	tableCheckpoints      = "checkpoints"
)

// schemaDDL creates the ledger tables. Every row carries the global
// sequence number so events and checkpoints interleave in one order.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS generation_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL UNIQUE,
		timestamp DATETIME NOT NULL,
		run_id TEXT NOT NULL DEFAULT '',
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		label TEXT NOT NULL DEFAULT '',
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		chars INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		success BOOLEAN NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS generation_events_run_id ON generation_events (run_id)`,
	`CREATE INDEX IF NOT EXISTS generation_events_category ON generation_events (category)`,
	`CREATE INDEX IF NOT EXISTS generation_events_success ON generation_events (success)`,
	`CREATE TABLE IF NOT EXISTS checkpoints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL UNIQUE,
		timestamp DATETIME NOT NULL,
		run_id TEXT NOT NULL DEFAULT '',
		items_generated INTEGER NOT NULL,
		chars_generated INTEGER NOT NULL,
		cursor INTEGER NOT NULL,
		budget_used REAL NOT NULL,
		corpus_entries INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS checkpoints_timestamp ON checkpoints (timestamp)`,
}

// migrate creates all ledger tables that do not exist yet.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec schema: %w", err)
		}
	}
	return nil
}
