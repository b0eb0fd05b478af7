package file

import (
	"time"

	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
	"github.com/askdocs-labs/askdocs-cli/internal/core/ports/driven"
)

// Configuration keys recognised in config.toml. Nested TOML tables are
// flattened, so "[retrieval]\ntop_k = 5" resolves as "retrieval.top_k".
const (
	KeyTopK            = "retrieval.top_k"
	KeyOverfetchFactor = "retrieval.overfetch_factor"
	KeyMaxContextChars = "prompt.max_context_chars"
	KeyMaxChunkChars   = "chunking.max_chunk_chars"
	KeyLookback        = "chunking.boundary_lookback"
	KeyCollection      = "store.collection"
	KeyDataDir         = "store.data_dir"
	KeyStoreBackend    = "store.backend"
	KeyMaxTokens       = "generation.max_tokens"
	KeyTemperature     = "generation.temperature"
	KeyTimeoutSeconds  = "generation.timeout_seconds"
	KeyRetries         = "generation.retries"
	KeyLLMBackend      = "generation.backend"
	KeyLLMBaseURL      = "generation.base_url"
	KeyLLMModel        = "generation.model"
	KeyEmbedBaseURL    = "embedding.base_url"
	KeyEmbedModel      = "embedding.model"
	KeyEmbedDimensions = "embedding.dimensions"
	KeyEmbedRPS        = "embedding.requests_per_second"
	KeyDocumentsDir    = "ingest.documents_dir"
)

// LoadSettings resolves pipeline settings from the store, falling back to
// the built-in defaults for any absent key.
func LoadSettings(store driven.ConfigStore) domain.Settings {
	s := domain.DefaultSettings()

	if v := store.GetInt(KeyTopK); v > 0 {
		s.TopK = v
	}
	if v := store.GetInt(KeyOverfetchFactor); v > 0 {
		s.OverfetchFactor = v
	}
	if v := store.GetInt(KeyMaxContextChars); v > 0 {
		s.MaxContextChars = v
	}
	if v := store.GetInt(KeyMaxChunkChars); v > 0 {
		s.MaxChunkChars = v
	}
	if v := store.GetInt(KeyLookback); v > 0 {
		s.BoundaryLookback = v
	}
	if v := store.GetString(KeyCollection); v != "" {
		s.Collection = v
	}
	if v := store.GetInt(KeyMaxTokens); v > 0 {
		s.MaxTokens = v
	}
	if v := store.GetFloat(KeyTemperature); v > 0 {
		s.Temperature = v
	}
	if v := store.GetInt(KeyTimeoutSeconds); v > 0 {
		s.GenerateTimeout = time.Duration(v) * time.Second
	}
	if v := store.GetInt(KeyRetries); v > 0 {
		s.GenerateRetries = v
	}

	return s
}
