// Package generation turns a prompt into a corpus entry through an llm.Provider.
package generation

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/corpusgen/internal/llm"
	"github.com/abhisek/corpusgen/internal/topics"
)

// Sampling holds the fixed generation parameters sent with every request.
type Sampling struct {
	CandidateCount  int
	Temperature     float64
	TopP            float64
	MaxOutputTokens int
}

// DefaultSampling returns the sampling used for corpus generation.
func DefaultSampling() Sampling {
	return Sampling{
		CandidateCount:  1,
		Temperature:     0.7,
		TopP:            0.9,
		MaxOutputTokens: 1024,
	}
}

// Result is a single generated entry.
type Result struct {
	// Text is the trimmed response with the entry suffix appended.
	Text string

	// Chars is the length of Text in Unicode code points.
	Chars int64

	Category string
	Label    string
}

// Client sends prompts to a provider with fixed sampling.
type Client struct {
	provider llm.Provider
	sampling Sampling
	suffix   string
}

// New creates a Client. suffix is appended to every non-empty entry.
func New(provider llm.Provider, sampling Sampling, suffix string) *Client {
	return &Client{provider: provider, sampling: sampling, suffix: suffix}
}

// ModelID returns the model the underlying provider talks to.
func (c *Client) ModelID() string {
	return c.provider.ModelID()
}

// Generate requests one entry for item. Surrounding whitespace is trimmed
// from the response; an empty answer is reported as llm.ErrEmptyResponse.
// Errors are returned as-is so callers can classify them.
func (c *Client) Generate(ctx context.Context, item topics.Item, prompt string) (Result, error) {
	ctx = llm.WithTopic(ctx, item.Category, item.Label)

	resp, err := c.provider.Generate(ctx, llm.Request{
		Messages:       llm.UserPrompt(prompt),
		MaxTokens:      c.sampling.MaxOutputTokens,
		Temperature:    c.sampling.Temperature,
		TopP:           c.sampling.TopP,
		CandidateCount: c.sampling.CandidateCount,
	})
	if err != nil {
		return Result{}, err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return Result{}, fmt.Errorf("%s: %w", item, llm.ErrEmptyResponse)
	}
	text += c.suffix

	return Result{
		Text:     text,
		Chars:    int64(utf8.RuneCountInString(text)),
		Category: item.Category,
		Label:    item.Label,
	}, nil
}
