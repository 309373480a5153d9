package llm

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyResponse is returned when the service answers without any text,
// for example when a candidate is blocked by safety filters.
var ErrEmptyResponse = errors.New("LLM returned no text")

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrAuth indicates the credentials were rejected (401/403). Every later
// request would fail the same way, so callers should not keep going.
type ErrAuth struct {
	Err error
}

func (e *ErrAuth) Error() string {
	return fmt.Sprintf("LLM credentials rejected: %v", e.Err)
}

func (e *ErrAuth) Unwrap() error { return e.Err }

// IsFatal reports whether err will recur on every request.
func IsFatal(err error) bool {
	var auth *ErrAuth
	return errors.As(err, &auth)
}
