package llm

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/corpusgen/internal/store"
)

func openLedger(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), store.LedgerFile))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLedgerProvider_RecordsSuccess(t *testing.T) {
	s := openLedger(t)
	mock := NewMockProvider(MockResponse{
		Text:  "  Keep your boost above fifty.  ",
		Usage: Usage{InputTokens: 12, OutputTokens: 7},
	})
	p := WithLedger(mock, "mock", s.EventRepo(), nil)

	ctx := WithTopic(WithRunID(context.Background(), "run-42"), "mechanics", "boost management")
	_, err := p.Generate(ctx, Request{Messages: UserPrompt("tips please"), Temperature: 0.7})
	require.NoError(t, err)

	events, err := s.EventRepo().QueryGenerationEvents(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "run-42", ev.RunID)
	assert.Equal(t, "mock", ev.Provider)
	assert.Equal(t, "mechanics", ev.Category)
	assert.Equal(t, "boost management", ev.Label)
	assert.True(t, ev.Success)
	assert.Equal(t, 12, ev.InputTokens)
	assert.Equal(t, 7, ev.OutputTokens)
	assert.Equal(t, len("Keep your boost above fifty."), ev.Chars)
	assert.Contains(t, ev.RequestBody, "tips please")
	assert.Contains(t, ev.RequestBody, "temperature=0.70")
}

func TestLedgerProvider_RecordsFailure(t *testing.T) {
	s := openLedger(t)
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("boom")}})
	p := WithLedger(mock, "mock", s.EventRepo(), nil)

	_, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x")})
	require.Error(t, err)

	events, err := s.EventRepo().QueryGenerationEvents(context.Background(), store.QueryOpts{Failed: true})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
	assert.Contains(t, events[0].ErrorMessage, "boom")
	assert.Equal(t, "unknown", events[0].Category)
}

func TestLedgerProvider_RecordsAfterCancel(t *testing.T) {
	s := openLedger(t)
	p := WithLedger(slowProvider{}, "slow", s.EventRepo(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Generate(ctx, Request{})
	require.ErrorIs(t, err, context.Canceled)

	events, err := s.EventRepo().QueryGenerationEvents(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestWithLedger_NilRepo(t *testing.T) {
	mock := NewMockProvider()
	assert.Same(t, mock, WithLedger(mock, "mock", nil, nil))
}
