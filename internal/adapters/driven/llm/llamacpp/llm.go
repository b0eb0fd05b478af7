// Package llamacpp provides an LLM service adapter for a llama.cpp server.
//
// The server exposes either its native /completion endpoint or an
// OpenAI-style /v1/completions endpoint depending on how it was started;
// the adapter probes for whichever is available and remembers it.
package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
	"github.com/askdocs-labs/askdocs-cli/internal/core/ports/driven"
	"github.com/askdocs-labs/askdocs-cli/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = domain.DefaultGenerateTimeout
	DefaultRetries = domain.DefaultGenerateRetries

	nativePath = "/completion"
	openAIPath = "/v1/completions"
)

// Config holds configuration for the llama.cpp LLM service.
type Config struct {
	// BaseURL is the llama.cpp server base URL (default: http://localhost:8000).
	BaseURL string

	// Model is a display label for the loaded model; llama.cpp serves
	// whatever model it was started with.
	Model string

	// Timeout is the default per-request deadline (default: 30s).
	Timeout time.Duration

	// MaxRetries bounds retries of transient failures (default: 2).
	MaxRetries int
}

// LLMService sends completion requests to a llama.cpp server.
type LLMService struct {
	client     *http.Client
	baseURL    string
	model      string
	timeout    time.Duration
	maxRetries int

	mu       sync.Mutex
	endpoint string // resolved path, "" until probed
}

// nativeRequest is the llama.cpp /completion request format.
type nativeRequest struct {
	Prompt      string   `json:"prompt"`
	NPredict    int      `json:"n_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// nativeResponse is the llama.cpp /completion response format.
type nativeResponse struct {
	Content string `json:"content"`
}

// openAIRequest is the /v1/completions request format.
type openAIRequest struct {
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// openAIResponse is the /v1/completions response format.
type openAIResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// NewLLMService creates a new llama.cpp LLM service.
func NewLLMService(cfg Config) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "llama.cpp"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultRetries
	}

	return &LLMService{
		client:     &http.Client{},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
	}
}

// Generate produces a text completion from a prompt. Transient failures
// (unreachable backend, 5xx, 429, elapsed deadline) are retried with
// exponential backoff up to the configured bound; malformed responses are
// surfaced immediately.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.timeout
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff with jitter, as the backend is shared
			// with other local inference work.
			base := time.Duration(attempt*attempt) * 500 * time.Millisecond
			jitter := time.Duration(rand.Int63n(int64(base/2 + 1)))
			backoff := base + jitter
			logger.Warn("generation retry %d/%d after %v: %v", attempt, s.maxRetries, backoff, lastErr)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, ctx.Err())
			case <-time.After(backoff):
			}
		}

		answer, err := s.generateOnce(ctx, prompt, opts, timeout)
		if err == nil {
			return answer, nil
		}
		if errors.Is(err, domain.ErrGenerationMalformed) {
			// Non-transient: retrying cannot help.
			return "", err
		}
		if ctx.Err() != nil {
			// Caller cancelled; stop retrying.
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("giving up after %d retries: %w", s.maxRetries, lastErr)
}

// generateOnce performs a single completion attempt under its own deadline.
func (s *LLMService) generateOnce(ctx context.Context, prompt string, opts driven.GenerateOptions, timeout time.Duration) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint, err := s.resolveEndpoint(attemptCtx)
	if err != nil {
		return "", err
	}

	body, err := s.marshalRequest(endpoint, prompt, opts)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, s.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return "", fmt.Errorf("%w after %v", domain.ErrGenerationTimeout, timeout)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrGenerationUnavailable, resp.StatusCode, string(raw))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}

	return s.parseResponse(endpoint, raw)
}

// marshalRequest builds the payload for the resolved endpoint flavour.
func (s *LLMService) marshalRequest(endpoint, prompt string, opts driven.GenerateOptions) ([]byte, error) {
	if endpoint == nativePath {
		return json.Marshal(nativeRequest{
			Prompt:      prompt,
			NPredict:    opts.MaxTokens,
			Temperature: opts.Temperature,
			Stop:        opts.StopWords,
		})
	}
	return json.Marshal(openAIRequest{
		Prompt:      prompt,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stop:        opts.StopWords,
	})
}

// parseResponse extracts the completion text for the endpoint flavour.
func (s *LLMService) parseResponse(endpoint string, raw []byte) (string, error) {
	if endpoint == nativePath {
		var resp nativeResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrGenerationMalformed, err)
		}
		return strings.TrimSpace(resp.Content), nil
	}

	var resp openAIResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationMalformed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", domain.ErrGenerationMalformed)
	}
	return strings.TrimSpace(resp.Choices[0].Text), nil
}

// resolveEndpoint probes the server for whichever completion endpoint it
// exposes, caching the result for subsequent calls.
func (s *LLMService) resolveEndpoint(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endpoint != "" {
		return s.endpoint, nil
	}

	// Minimal one-token probe accepted by both endpoint flavours.
	probe := []byte(`{"prompt":"test","max_tokens":1,"n_predict":1}`)

	for _, path := range []string{nativePath, openAIPath} {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(probe))
		if err != nil {
			return "", fmt.Errorf("create probe request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return "", fmt.Errorf("%w: probing %s", domain.ErrGenerationTimeout, path)
			}
			// Try the other flavour before giving up.
			continue
		}
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // body drained for connection reuse
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			logger.Debug("llama.cpp endpoint resolved: %s", path)
			s.endpoint = path
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: no completion endpoint responded at %s", domain.ErrGenerationUnavailable, s.baseURL)
}

// ModelName returns the configured model label.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the server is reachable by resolving its endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := s.resolveEndpoint(pingCtx)
	return err
}

// Close releases resources.
func (s *LLMService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
