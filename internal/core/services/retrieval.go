package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
	"github.com/askdocs-labs/askdocs-cli/internal/core/ports/driven"
	"github.com/askdocs-labs/askdocs-cli/internal/logger"
)

// RetrievalEngine finds the chunks most similar to a query. It over-fetches
// from the store to leave headroom for deduplication, then re-ranks by
// similarity score.
type RetrievalEngine struct {
	embeddingService driven.EmbeddingService
	store            driven.VectorStore
	overfetchFactor  int
}

// NewRetrievalEngine creates a retrieval engine.
func NewRetrievalEngine(
	embeddingService driven.EmbeddingService,
	store driven.VectorStore,
	overfetchFactor int,
) *RetrievalEngine {
	if overfetchFactor <= 0 {
		overfetchFactor = domain.DefaultOverfetchFactor
	}
	return &RetrievalEngine{
		embeddingService: embeddingService,
		store:            store,
		overfetchFactor:  overfetchFactor,
	}
}

// Retrieve returns up to k chunks ranked by descending similarity score.
// An empty or unseeded store yields an empty result, not an error.
func (r *RetrievalEngine) Retrieve(
	ctx context.Context, queryText string, k int,
) ([]domain.RetrievedResult, error) {
	if k <= 0 {
		return []domain.RetrievedResult{}, nil
	}

	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return []domain.RetrievedResult{}, nil
	}

	logger.Debug("Retrieve: query=%q, k=%d", queryText, k)

	vector, err := r.embeddingService.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.store.Query(ctx, vector, k*r.overfetchFactor)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	logger.Debug("Retrieve: %d raw hits", len(hits))

	// Dedupe by chunk ID, keeping the lowest distance seen for each.
	best := make(map[string]driven.StoreHit, len(hits))
	for _, hit := range hits {
		if prev, ok := best[hit.Record.ID]; !ok || hit.Distance < prev.Distance {
			best[hit.Record.ID] = hit
		}
	}

	results := make([]domain.RetrievedResult, 0, len(best))
	for _, hit := range best {
		results = append(results, domain.RetrievedResult{
			Chunk: domain.Chunk{
				ID:         hit.Record.ID,
				DocumentID: hit.Record.DocumentID,
				Index:      chunkIndex(hit.Record.ID),
				Content:    hit.Record.Content,
			},
			Score:    1 - hit.Distance,
			Distance: hit.Distance,
		})
	}

	// Highest score first; ties broken by chunk ID for determinism.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	if len(results) > k {
		results = results[:k]
	}

	logger.Debug("Retrieve: returning %d results", len(results))
	return results, nil
}

// chunkIndex recovers the ordinal from a "<documentID>:<index>" chunk ID.
// Malformed IDs yield 0.
func chunkIndex(chunkID string) int {
	sep := strings.LastIndex(chunkID, ":")
	if sep < 0 {
		return 0
	}
	var index int
	if _, err := fmt.Sscanf(chunkID[sep+1:], "%d", &index); err != nil {
		return 0
	}
	return index
}
