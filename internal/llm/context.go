package llm

import "context"

type contextKey string

const (
	runIDKey contextKey = "llm_run_id"
	topicKey contextKey = "llm_topic"
)

// Topic labels a request with the catalog item it was built from.
type Topic struct {
	Category string
	Label    string
}

// WithRunID attaches the batch run identifier to the context for the ledger.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFrom extracts the run identifier from the context.
func RunIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(runIDKey).(string); ok {
		return v
	}
	return ""
}

// WithTopic attaches the catalog item of a request to the context.
func WithTopic(ctx context.Context, category, label string) context.Context {
	return context.WithValue(ctx, topicKey, Topic{Category: category, Label: label})
}

// TopicFrom extracts the catalog item from the context.
func TopicFrom(ctx context.Context) Topic {
	if v, ok := ctx.Value(topicKey).(Topic); ok {
		return v
	}
	return Topic{Category: "unknown"}
}
