package domain

import "errors"

// Domain errors represent pipeline stage failures.
// Adapters wrap these with fmt.Errorf("...: %w") so callers can classify
// failures with errors.Is without depending on adapter packages.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExtractionFailure indicates a source file could not be converted
	// to text. The offending document is skipped and logged, not fatal to
	// the whole ingestion run.
	ErrExtractionFailure = errors.New("extraction failure")

	// ErrEmbeddingUnavailable indicates the embedding service cannot be
	// reached or produced an unusable response. Fatal to the current
	// ingest or query call; there is no fallback to zero vectors.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStore indicates a storage failure. Fatal to the current call.
	ErrVectorStore = errors.New("vector store error")

	// ErrDimensionMismatch indicates a vector whose dimension does not
	// match the collection's configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrGenerationTimeout indicates the completion request exceeded its
	// deadline. Retried as transient, then surfaced as "slow response".
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrGenerationUnavailable indicates the completion service is
	// unreachable. Retried as transient, then surfaced as "backend down".
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrGenerationMalformed indicates the completion response could not
	// be parsed into text. Never retried.
	ErrGenerationMalformed = errors.New("malformed generation response")
)
