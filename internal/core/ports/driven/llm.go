package driven

import (
	"context"
	"time"
)

// LLMService sends assembled prompts to a completion backend.
//
// Implementations may include:
//   - llama.cpp server (native /completion or OpenAI-style /v1/completions)
//   - Ollama (local models)
//
// Implementations classify failures with the domain sentinel errors:
// ErrGenerationTimeout when the deadline elapses, ErrGenerationUnavailable
// when the backend is unreachable, ErrGenerationMalformed when the
// response cannot be parsed. Transient failures are retried internally
// with backoff up to a bounded count; malformed responses never are.
type LLMService interface {
	// Generate produces a text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// Timeout is the per-request deadline. Zero means the adapter default.
	Timeout time.Duration

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
