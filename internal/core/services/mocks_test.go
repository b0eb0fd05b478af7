package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
	"github.com/askdocs-labs/askdocs-cli/internal/core/ports/driven"
)

// mockEmbedder produces deterministic unit vectors derived from the text.
type mockEmbedder struct {
	dims     int
	embedErr error
	batchErr error

	mu    sync.Mutex
	calls int
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{dims: 4}
}

func (m *mockEmbedder) vectorFor(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, m.dims)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(seed%1000)/1000 + 0.001
		norm += float64(vec[i]) * float64(vec[i])
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int            { return m.dims }
func (m *mockEmbedder) ModelName() string          { return "mock-embedder" }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error               { return nil }

// mockStore is an in-memory VectorStore with injectable failures and an
// optional fixed query result.
type mockStore struct {
	mu      sync.Mutex
	records map[string]driven.ChunkRecord

	existsErr error
	upsertErr error
	queryErr  error
	queryHits []driven.StoreHit // overrides the scan when non-nil
	closed    bool
}

func newMockStore() *mockStore {
	return &mockStore{records: make(map[string]driven.ChunkRecord)}
}

func (m *mockStore) Upsert(ctx context.Context, rec driven.ChunkRecord) error {
	return m.UpsertBatch(ctx, []driven.ChunkRecord{rec})
}

func (m *mockStore) UpsertBatch(_ context.Context, recs []driven.ChunkRecord) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		m.records[rec.ID] = rec
	}
	return nil
}

func (m *mockStore) Query(_ context.Context, vector []float32, topK int) ([]driven.StoreHit, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if m.queryHits != nil {
		hits := m.queryHits
		if topK < len(hits) {
			hits = hits[:topK]
		}
		return hits, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	hits := make([]driven.StoreHit, 0, len(m.records))
	for _, rec := range m.records {
		hits = append(hits, driven.StoreHit{Record: rec, Distance: cosineDist(vector, rec.Embedding)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Record.ID < hits[j].Record.ID
	})
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

func (m *mockStore) Exists(_ context.Context, id string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[id]
	return ok, nil
}

func (m *mockStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *mockStore) DeleteDocument(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range m.records {
		if rec.DocumentID == documentID {
			delete(m.records, id)
		}
	}
	return nil
}

func (m *mockStore) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func (m *mockStore) Dimensions() int { return 0 }

func (m *mockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func cosineDist(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// mockLLM records the prompts it receives.
type mockLLM struct {
	generateFn func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
	closed  bool
}

func newMockLLM() *mockLLM {
	return &mockLLM{}
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.generateFn != nil {
		return m.generateFn(prompt)
	}
	return "mock answer", nil
}

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }

func (m *mockLLM) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// hit builds a StoreHit for retrieval tests.
func hit(id, docID, content string, distance float64) driven.StoreHit {
	return driven.StoreHit{
		Record: driven.ChunkRecord{
			ID:         id,
			DocumentID: docID,
			Content:    content,
			Embedding:  []float32{1, 0, 0, 0},
		},
		Distance: distance,
	}
}

// result builds a RetrievedResult for prompt tests.
func result(id, docID, content string, score float64) domain.RetrievedResult {
	return domain.RetrievedResult{
		Chunk: domain.Chunk{
			ID:         id,
			DocumentID: docID,
			Content:    content,
		},
		Score:    score,
		Distance: 1 - score,
	}
}

// sentenceText produces n short numbered sentences for chunking tests.
func sentenceText(n int) string {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "This is sentence number %d with a little padding text. ", i)
	}
	return sb.String()
}
