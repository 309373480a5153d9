package llm

import "context"

// Provider is the prompt-in, text-out boundary to the generation service.
type Provider interface {
	// Generate sends a prompt to the model and returns its text.
	// Sampling parameters in the request are passed to the service verbatim.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System is the optional system instruction.
	System string

	// Messages is the conversation. Batch generation sends one user message.
	Messages []Message

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Zero leaves the service default.
	Temperature float64

	// TopP is the nucleus-sampling threshold. Zero leaves the service default.
	TopP float64

	// CandidateCount is the number of candidates to request. Only the
	// first candidate's text is returned.
	CandidateCount int
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt builds a single-turn request for prompt.
func UserPrompt(prompt string) []Message {
	return []Message{{Role: RoleUser, Content: prompt}}
}

// Response holds the model's output.
type Response struct {
	// Text is the generated text of the first candidate, untrimmed.
	Text string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "blocked"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
