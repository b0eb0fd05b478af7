// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"fmt"
	"time"

	ollamaembed "github.com/askdocs-labs/askdocs-cli/internal/adapters/driven/embedding/ollama"
	"github.com/askdocs-labs/askdocs-cli/internal/adapters/driven/llm/llamacpp"
	ollamallm "github.com/askdocs-labs/askdocs-cli/internal/adapters/driven/llm/ollama"
	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
	"github.com/askdocs-labs/askdocs-cli/internal/core/ports/driven"
)

// Supported generation backends.
const (
	BackendLlamaCpp = "llamacpp"
	BackendOllama   = "ollama"
)

// LLMConfig selects and configures the generation backend.
type LLMConfig struct {
	// Backend is one of "llamacpp" (default) or "ollama".
	Backend string

	// BaseURL overrides the backend's default endpoint.
	BaseURL string

	// Model is the model name (Ollama) or display label (llama.cpp).
	Model string

	// Timeout is the per-request completion deadline.
	Timeout time.Duration

	// MaxRetries bounds transient-failure retries.
	MaxRetries int
}

// EmbeddingConfig configures the embedding backend.
type EmbeddingConfig struct {
	// BaseURL overrides the Ollama default endpoint.
	BaseURL string

	// Model is the embedding model name.
	Model string

	// Dimensions is the expected vector size.
	Dimensions int

	// RequestsPerSecond throttles batch embedding; zero disables it.
	RequestsPerSecond float64
}

// CreateLLMService builds the configured generation adapter.
func CreateLLMService(cfg LLMConfig) (driven.LLMService, error) {
	switch cfg.Backend {
	case "", BackendLlamaCpp:
		return llamacpp.NewLLMService(llamacpp.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		}), nil
	case BackendOllama:
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown generation backend %q", domain.ErrInvalidInput, cfg.Backend)
	}
}

// CreateEmbeddingService builds the embedding adapter.
func CreateEmbeddingService(cfg EmbeddingConfig) driven.EmbeddingService {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:           cfg.BaseURL,
		Model:             cfg.Model,
		Dimensions:        cfg.Dimensions,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
}
