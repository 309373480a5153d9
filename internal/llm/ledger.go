package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abhisek/corpusgen/internal/store"
)

// LedgerProvider is a decorator that records every request in the ledger.
type LedgerProvider struct {
	inner     Provider
	provider  string
	eventRepo store.EventRepo
	logger    *slog.Logger
}

// WithLedger wraps a Provider with ledger recording. A nil repo disables it.
func WithLedger(p Provider, providerName string, repo store.EventRepo, logger *slog.Logger) Provider {
	if repo == nil {
		return p
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerProvider{inner: p, provider: providerName, eventRepo: repo, logger: logger}
}

func (l *LedgerProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	topic := TopicFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	data := store.GenerationEventData{
		RunID:       RunIDFrom(ctx),
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Category:    topic.Category,
		Label:       topic.Label,
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.Chars = utf8.RuneCountInString(strings.TrimSpace(resp.Text))
		data.ResponseBody = resp.Text
	}

	if err != nil {
		data.ErrorMessage = err.Error()
	}

	// Record even when ctx is already cancelled. Ledger failures never
	// fail the request.
	if logErr := l.eventRepo.AppendGeneration(context.WithoutCancel(ctx), data); logErr != nil {
		l.logger.Warn("failed to record generation event", slog.String("error", logErr.Error()))
	}

	return resp, err
}

func (l *LedgerProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		b.WriteString(fmt.Sprintf("[%s]\n", m.Role))
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "[sampling: candidates=%d temperature=%.2f top_p=%.2f max_tokens=%d]\n",
		req.CandidateCount, req.Temperature, req.TopP, req.MaxTokens)

	return b.String()
}
