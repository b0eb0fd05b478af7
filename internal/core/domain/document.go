package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Document represents a single ingested source of text (typically one PDF).
// It is the canonical representation after extraction and normalisation.
type Document struct {
	// ID is the stable identifier, derived from the cleaned content.
	ID string

	// Name is the human-readable source name (usually the file name).
	Name string

	// Content is the full cleaned text before chunking.
	Content string

	// IngestedAt is when the document was committed to the store. It
	// stays zero for documents that were already present and skipped.
	IngestedAt time.Time
}

// NewDocument builds a document with a content-addressed ID.
// Identical content always yields the same ID, which is what makes
// re-ingestion idempotent.
func NewDocument(name, content string) Document {
	return Document{
		ID:      DocumentID(content),
		Name:    name,
		Content: content,
	}
}

// DocumentID derives the stable identifier for cleaned document content.
func DocumentID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:8])
}

// Chunk is a bounded slice of a document's cleaned text, the unit of
// retrieval. Chunks of one document are ordered and non-overlapping.
type Chunk struct {
	// ID is the unique chunk identifier: "<documentID>:<index>".
	ID string

	// DocumentID links back to the parent document.
	DocumentID string

	// Index is the ordinal position within the document.
	Index int

	// Content is the chunk text.
	Content string
}

// ChunkID builds the deterministic identifier for a chunk.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s:%d", documentID, index)
}

// RetrievedResult pairs a chunk with its relevance for one query.
// Scores are only comparable within a single query.
type RetrievedResult struct {
	Chunk Chunk

	// Score is the similarity-derived relevance, higher is better.
	Score float64

	// Distance is the raw store distance the score was derived from.
	Distance float64
}

// PromptContext is the transient per-query selection of chunk texts that
// fit the context budget, in best-first order, plus the template variant
// the selection resolved to.
type PromptContext struct {
	Question string
	Variant  PromptVariant
	Included []Chunk
}

// Answer is the result of one pipeline query.
type Answer struct {
	Text string

	// Sources lists the chunk IDs whose text was included in the prompt,
	// best-first, for traceability.
	Sources []string
}
