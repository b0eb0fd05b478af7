package domain

import "time"

// Default configuration values for the pipeline, overridable via the TOML
// config file.
const (
	// DefaultTopK is the number of chunks retrieved per query.
	DefaultTopK = 3

	// DefaultOverfetchFactor multiplies top-k for the store query, leaving
	// headroom for deduplication.
	DefaultOverfetchFactor = 3

	// DefaultMaxContextChars is the prompt context budget.
	DefaultMaxContextChars = 4000

	// DefaultMaxChunkChars bounds a single chunk's text.
	DefaultMaxChunkChars = 1000

	// DefaultBoundaryLookback is how far the chunker looks back for a
	// sentence or paragraph boundary before hard-cutting.
	DefaultBoundaryLookback = 200

	// DefaultCollection is the vector store collection name.
	DefaultCollection = "rag_collection"

	// DefaultMaxTokens caps generation length.
	DefaultMaxTokens = 200

	// DefaultTemperature is the generation sampling temperature.
	DefaultTemperature = 0.5

	// DefaultGenerateTimeout is the per-request completion deadline.
	DefaultGenerateTimeout = 30 * time.Second

	// DefaultGenerateRetries bounds retries of transient generation
	// failures.
	DefaultGenerateRetries = 2
)

// PromptVariant selects the instruction segment of the prompt template.
type PromptVariant string

const (
	// PromptGrounded instructs the model to answer only from the supplied
	// context and to say so when the context does not contain the answer.
	PromptGrounded PromptVariant = "grounded"

	// PromptNoContext is used when retrieval produced nothing; the model
	// answers from general knowledge instead of an empty context block.
	PromptNoContext PromptVariant = "no-context"
)

// Settings holds the resolved pipeline configuration.
type Settings struct {
	// TopK is the number of chunks retrieved per query.
	TopK int

	// OverfetchFactor controls store over-fetch before deduplication.
	OverfetchFactor int

	// MaxContextChars is the prompt context budget in characters.
	MaxContextChars int

	// MaxChunkChars bounds chunk size in characters.
	MaxChunkChars int

	// BoundaryLookback is the chunker's boundary search window.
	BoundaryLookback int

	// Collection is the vector store collection name.
	Collection string

	// MaxTokens caps generated answer length.
	MaxTokens int

	// Temperature is the sampling temperature (0.0-1.0).
	Temperature float64

	// GenerateTimeout is the completion request deadline.
	GenerateTimeout time.Duration

	// GenerateRetries bounds transient-failure retries.
	GenerateRetries int
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings {
	return Settings{
		TopK:             DefaultTopK,
		OverfetchFactor:  DefaultOverfetchFactor,
		MaxContextChars:  DefaultMaxContextChars,
		MaxChunkChars:    DefaultMaxChunkChars,
		BoundaryLookback: DefaultBoundaryLookback,
		Collection:       DefaultCollection,
		MaxTokens:        DefaultMaxTokens,
		Temperature:      DefaultTemperature,
		GenerateTimeout:  DefaultGenerateTimeout,
		GenerateRetries:  DefaultGenerateRetries,
	}
}
