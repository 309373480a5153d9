package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit    int    // max results (0 = unlimited)
	RunID    string // only events from this run
	Category string // only events for this category
	Failed   bool   // only failed requests
}

// GenerationEventData captures a single generation request.
type GenerationEventData struct {
	RunID        string
	Provider     string
	Model        string
	Category     string
	Label        string
	InputTokens  int
	OutputTokens int
	Chars        int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// GenerationEvent is a stored generation request.
type GenerationEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	GenerationEventData
}

// CategoryUsage aggregates ledger events per catalog category.
type CategoryUsage struct {
	Category     string
	Calls        int
	Failures     int
	Chars        int64
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates ledger events per model.
type ModelUsage struct {
	Model        string
	Calls        int
	Chars        int64
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to generation events.
type EventRepo interface {
	// AppendGeneration records a generation API call.
	AppendGeneration(ctx context.Context, data GenerationEventData) error

	// QueryGenerationEvents returns events, newest first.
	QueryGenerationEvents(ctx context.Context, opts QueryOpts) ([]GenerationEvent, error)

	// GetGenerationEvent returns one event, or nil if it does not exist.
	GetGenerationEvent(ctx context.Context, id int) (*GenerationEvent, error)

	// UsageByCategory aggregates calls, characters and tokens per category.
	UsageByCategory(ctx context.Context) ([]CategoryUsage, error)

	// UsageByModel aggregates successful calls per model.
	UsageByModel(ctx context.Context) ([]ModelUsage, error)
}

// Checkpoint is one persisted save point of a batch run.
type Checkpoint struct {
	ID             int
	Sequence       int64
	Timestamp      time.Time
	RunID          string
	ItemsGenerated int
	CharsGenerated int64
	Cursor         int
	BudgetUsed     float64
	CorpusEntries  int
}

// CheckpointRepo keeps the history of checkpoint saves.
type CheckpointRepo interface {
	// Save stores a new checkpoint record.
	Save(ctx context.Context, cp *Checkpoint) error

	// Latest returns the most recent checkpoint, or nil if none exist.
	Latest(ctx context.Context) (*Checkpoint, error)

	// List returns up to limit checkpoints, newest first (0 = all).
	List(ctx context.Context, limit int) ([]Checkpoint, error)

	// Prune deletes all but the N most recent checkpoints.
	Prune(ctx context.Context, keep int) error
}
