package driven

import "context"

// ChunkRecord is the persisted form of a chunk: identifier, source
// back-reference, text, metadata and embedding.
type ChunkRecord struct {
	// ID is the chunk identifier ("<documentID>:<index>").
	ID string

	// DocumentID links to the owning document.
	DocumentID string

	// Content is the chunk text.
	Content string

	// Metadata carries source information (document name, position).
	Metadata map[string]string

	// Embedding is the chunk's vector.
	Embedding []float32
}

// StoreHit is a nearest-neighbour result from the store, ordered by
// ascending distance.
type StoreHit struct {
	Record ChunkRecord

	// Distance is the cosine distance (1 - cosine similarity) between the
	// query vector and the stored vector. Lower is closer.
	Distance float64
}

// VectorStore persists (id, vector, text, metadata) tuples and answers
// nearest-neighbour queries. The store owns all persisted chunk state;
// the core never caches vectors beyond a single call.
//
// Upsert is idempotent by ID and therefore safe to retry. A store pins its
// vector dimension on first write and rejects mismatched vectors with
// domain.ErrDimensionMismatch.
type VectorStore interface {
	// Upsert inserts or replaces a single record.
	Upsert(ctx context.Context, rec ChunkRecord) error

	// UpsertBatch inserts or replaces records atomically: either every
	// record is committed or none are.
	UpsertBatch(ctx context.Context, recs []ChunkRecord) error

	// Query returns up to topK hits nearest to the vector, ascending by
	// distance. An empty store yields an empty slice, not an error.
	Query(ctx context.Context, vector []float32, topK int) ([]StoreHit, error)

	// Exists reports whether a record with the given ID is present.
	Exists(ctx context.Context, id string) (bool, error)

	// Delete removes a single record. Deleting a missing ID is a no-op.
	Delete(ctx context.Context, id string) error

	// DeleteDocument removes every record belonging to a document.
	DeleteDocument(ctx context.Context, documentID string) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Dimensions returns the pinned vector dimension, or 0 before the
	// first write.
	Dimensions() int

	// Close releases resources.
	Close() error
}
