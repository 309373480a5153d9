package llm

import (
	"fmt"
	"os"
	"time"
)

// Gemini backends.
const (
	BackendGeminiAPI = "gemini-api"
	BackendVertexAI  = "vertex"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which provider to use.
	// Values: "gemini", "mock"
	Provider string

	Gemini GeminiConfig

	// Timeout is the maximum duration for a single request. Zero disables it.
	Timeout time.Duration
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"

	// Backend is "gemini-api" (API key) or "vertex" (project + location,
	// application default credentials).
	Backend  string
	Project  string
	Location string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "gemini",
		Gemini: GeminiConfig{
			Model:    "gemini-flash",
			Backend:  BackendGeminiAPI,
			Location: "us-central1",
		},
		Timeout: 2 * time.Minute,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values. The generic GEMINI_API_KEY and
// GOOGLE_API_KEY variables are consulted when CORPUSGEN_GEMINI_API_KEY
// is not set.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("CORPUSGEN_PROVIDER"); p != "" {
		cfg.Provider = p
	}

	for _, key := range []string{"CORPUSGEN_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if k := os.Getenv(key); k != "" {
			cfg.Gemini.APIKey = k
			break
		}
	}
	if m := os.Getenv("CORPUSGEN_GEMINI_MODEL"); m != "" {
		cfg.Gemini.Model = m
	}
	if b := os.Getenv("CORPUSGEN_GEMINI_BACKEND"); b != "" {
		cfg.Gemini.Backend = b
	}
	if p := os.Getenv("CORPUSGEN_GCP_PROJECT"); p != "" {
		cfg.Gemini.Project = p
	} else if p := os.Getenv("GOOGLE_CLOUD_PROJECT"); p != "" {
		cfg.Gemini.Project = p
	}
	if l := os.Getenv("CORPUSGEN_GCP_LOCATION"); l != "" {
		cfg.Gemini.Location = l
	}

	return cfg
}

// Validate checks that the selected provider has what it needs to connect.
func (c Config) Validate() error {
	switch c.Provider {
	case "gemini":
		switch c.Gemini.Backend {
		case BackendGeminiAPI, "":
			if c.Gemini.APIKey == "" {
				return fmt.Errorf("CORPUSGEN_GEMINI_API_KEY (or GEMINI_API_KEY) is required for the gemini provider")
			}
		case BackendVertexAI:
			if c.Gemini.Project == "" {
				return fmt.Errorf("CORPUSGEN_GCP_PROJECT is required for the vertex backend")
			}
			if c.Gemini.Location == "" {
				return fmt.Errorf("CORPUSGEN_GCP_LOCATION is required for the vertex backend")
			}
		default:
			return fmt.Errorf("unknown gemini backend: %q", c.Gemini.Backend)
		}
	case "mock":
		// No credentials needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
