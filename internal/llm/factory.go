package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abhisek/corpusgen/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with timeout and ledger middleware.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *slog.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		base = NewEchoProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller → ledger → timeout → base
	timed := WithTimeout(base, cfg.Timeout)
	return WithLedger(timed, cfg.Provider, eventRepo, logger), nil
}

// NewProviderFromEnv is NewProvider with ConfigFromEnv.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo, logger *slog.Logger) (Provider, error) {
	return NewProvider(ctx, ConfigFromEnv(), eventRepo, logger)
}
