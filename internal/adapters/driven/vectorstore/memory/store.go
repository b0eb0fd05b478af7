// Package memory provides an in-memory vector store for tests and
// ephemeral runs. Contents do not survive the process.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
	"github.com/askdocs-labs/askdocs-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a map-backed vector store. The vector dimension is pinned by
// the first record written.
type Store struct {
	mu      sync.RWMutex
	records map[string]driven.ChunkRecord
	dims    int
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]driven.ChunkRecord),
	}
}

// Upsert inserts or replaces a single record.
func (s *Store) Upsert(_ context.Context, rec driven.ChunkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(rec)
}

// UpsertBatch inserts or replaces records all-or-nothing.
func (s *Store) UpsertBatch(_ context.Context, recs []driven.ChunkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate every record before touching the map so a failure commits
	// nothing.
	dims := s.dims
	for _, rec := range recs {
		if rec.ID == "" {
			return fmt.Errorf("%w: record without ID", domain.ErrInvalidInput)
		}
		if dims == 0 {
			dims = len(rec.Embedding)
		}
		if len(rec.Embedding) != dims {
			return fmt.Errorf("%w: got %d, store has %d",
				domain.ErrDimensionMismatch, len(rec.Embedding), dims)
		}
	}
	for _, rec := range recs {
		if err := s.upsertLocked(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertLocked(rec driven.ChunkRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: record without ID", domain.ErrInvalidInput)
	}
	if s.dims == 0 {
		s.dims = len(rec.Embedding)
	}
	if len(rec.Embedding) != s.dims {
		return fmt.Errorf("%w: got %d, store has %d",
			domain.ErrDimensionMismatch, len(rec.Embedding), s.dims)
	}
	s.records[rec.ID] = rec
	return nil
}

// Query returns up to topK hits nearest to the vector, ascending by
// cosine distance.
func (s *Store) Query(_ context.Context, vector []float32, topK int) ([]driven.StoreHit, error) {
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return nil, nil
	}
	if len(vector) != s.dims {
		return nil, fmt.Errorf("%w: query has %d, store has %d",
			domain.ErrDimensionMismatch, len(vector), s.dims)
	}

	hits := make([]driven.StoreHit, 0, len(s.records))
	for _, rec := range s.records {
		hits = append(hits, driven.StoreHit{
			Record:   rec,
			Distance: cosineDistance(vector, rec.Embedding),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Record.ID < hits[j].Record.ID
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Exists reports whether a record with the given ID is present.
func (s *Store) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[id]
	return ok, nil
}

// Delete removes a single record.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// DeleteDocument removes every record belonging to a document.
func (s *Store) DeleteDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.records {
		if rec.DocumentID == documentID || strings.HasPrefix(id, documentID+":") {
			delete(s.records, id)
		}
	}
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Dimensions returns the pinned vector dimension, or 0 before the first
// write.
func (s *Store) Dimensions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dims
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// cosineDistance returns 1 - cosine similarity. Vectors with zero norm
// are treated as maximally distant.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
