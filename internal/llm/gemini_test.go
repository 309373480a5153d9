package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.0-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-1.5", "gemini-1.5-pro-001"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiConfig(t *testing.T) {
	cfg := buildGeminiConfig(Request{
		MaxTokens:      1024,
		Temperature:    0.7,
		TopP:           0.9,
		CandidateCount: 1,
	})

	if cfg.MaxOutputTokens != 1024 {
		t.Errorf("MaxOutputTokens = %d, want 1024", cfg.MaxOutputTokens)
	}
	if cfg.CandidateCount != 1 {
		t.Errorf("CandidateCount = %d, want 1", cfg.CandidateCount)
	}
	if cfg.Temperature == nil || *cfg.Temperature != float32(0.7) {
		t.Errorf("Temperature = %v, want 0.7", cfg.Temperature)
	}
	if cfg.TopP == nil || *cfg.TopP != float32(0.9) {
		t.Errorf("TopP = %v, want 0.9", cfg.TopP)
	}
	if cfg.SystemInstruction != nil {
		t.Error("expected no system instruction")
	}
}

func TestBuildGeminiConfig_LeavesDefaults(t *testing.T) {
	cfg := buildGeminiConfig(Request{System: "be brief"})
	if cfg.Temperature != nil || cfg.TopP != nil {
		t.Error("zero sampling values should leave service defaults")
	}
	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != "be brief" {
		t.Error("system instruction not set")
	}
}

func TestBuildGeminiContents(t *testing.T) {
	contents := buildGeminiContents([]Message{
		{Role: RoleUser, Content: "q"},
		{Role: RoleAssistant, Content: "a"},
	})
	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	if contents[0].Role != "user" || contents[1].Role != "model" {
		t.Fatalf("unexpected roles %q, %q", contents[0].Role, contents[1].Role)
	}
}

func TestMapGeminiStopReason(t *testing.T) {
	tests := []struct {
		reason genai.FinishReason
		want   string
	}{
		{genai.FinishReasonStop, "end"},
		{genai.FinishReasonMaxTokens, "max_tokens"},
		{genai.FinishReasonSafety, "blocked"},
	}
	for _, tt := range tests {
		result := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: tt.reason}},
		}
		if got := mapGeminiStopReason(result); got != tt.want {
			t.Errorf("mapGeminiStopReason(%s) = %q, want %q", tt.reason, got, tt.want)
		}
	}
}

func TestMapGeminiError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"unauthorized", &genai.APIError{Code: 401}, func(err error) bool {
			var e *ErrAuth
			return errors.As(err, &e)
		}},
		{"forbidden wrapped", fmt.Errorf("call: %w", &genai.APIError{Code: 403}), func(err error) bool {
			var e *ErrAuth
			return errors.As(err, &e)
		}},
		{"rate limited", &genai.APIError{Code: 429}, func(err error) bool {
			var e *ErrRateLimit
			return errors.As(err, &e)
		}},
		{"server error", &genai.APIError{Code: 503}, func(err error) bool {
			var e *ErrProviderUnavailable
			return errors.As(err, &e)
		}},
		{"cancelled", context.Canceled, func(err error) bool {
			return errors.Is(err, context.Canceled)
		}},
		{"network", errors.New("connection reset"), func(err error) bool {
			var e *ErrProviderUnavailable
			return errors.As(err, &e)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapGeminiError(tt.err); !tt.check(got) {
				t.Fatalf("unexpected mapping: %T %v", got, got)
			}
		})
	}
}
