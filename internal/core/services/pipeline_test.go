package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdocs-labs/askdocs-cli/internal/adapters/driven/llm/llamacpp"
	"github.com/askdocs-labs/askdocs-cli/internal/chunker"
	"github.com/askdocs-labs/askdocs-cli/internal/connectors/filesystem"
	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
	"github.com/askdocs-labs/askdocs-cli/internal/core/ports/driven"
	"github.com/askdocs-labs/askdocs-cli/internal/extractors"
)

type fixture struct {
	pipeline *PipelineService
	embedder *mockEmbedder
	store    *mockStore
	llm      *mockLLM
}

func newFixture(t *testing.T, opts ...chunker.Option) *fixture {
	t.Helper()

	embedder := newMockEmbedder()
	store := newMockStore()
	llm := newMockLLM()
	registry := extractors.NewDefaultRegistry()

	pipeline := NewPipelineService(
		chunker.New(opts...),
		registry,
		func(dir string) driven.FileSource {
			return filesystem.New(dir, registry.Supports)
		},
		embedder,
		store,
		llm,
		domain.DefaultSettings(),
	)

	return &fixture{pipeline: pipeline, embedder: embedder, store: store, llm: llm}
}

func TestIngest_CommitsChunks(t *testing.T) {
	f := newFixture(t, chunker.WithMaxChunkChars(80))
	ctx := context.Background()

	doc, committed, err := f.pipeline.Ingest(ctx, "notes.txt", sentenceText(10))
	require.NoError(t, err)
	assert.True(t, committed)
	assert.NotEmpty(t, doc.ID)

	count, err := f.store.Count(ctx)
	require.NoError(t, err)
	assert.Greater(t, count, 1, "expected multiple chunks")
}

func TestIngest_EmptyDocumentRejected(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.pipeline.Ingest(context.Background(), "empty.txt", "   \n\n  ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestIngest_EmbeddingFailureCommitsNothing(t *testing.T) {
	f := newFixture(t, chunker.WithMaxChunkChars(80))
	f.embedder.batchErr = domain.ErrEmbeddingUnavailable

	_, _, err := f.pipeline.Ingest(context.Background(), "notes.txt", sentenceText(10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))

	count, err := f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count, "failed ingest must leave no partial state")
}

// Double ingest of identical content leaves the store unchanged.
func TestIngest_DoubleIngestIsIdempotent(t *testing.T) {
	f := newFixture(t, chunker.WithMaxChunkChars(80))
	ctx := context.Background()
	text := sentenceText(10)

	doc1, committed, err := f.pipeline.Ingest(ctx, "notes.txt", text)
	require.NoError(t, err)
	require.True(t, committed)

	before, err := f.store.Count(ctx)
	require.NoError(t, err)

	doc2, committed, err := f.pipeline.Ingest(ctx, "notes.txt", text)
	require.NoError(t, err)
	assert.False(t, committed, "second ingest must be skipped")
	assert.Equal(t, doc1.ID, doc2.ID)

	after, err := f.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "store count must not change")
}

func TestIngest_StampsCommitTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	text := sentenceText(3)

	doc, committed, err := f.pipeline.Ingest(ctx, "notes.txt", text)
	require.NoError(t, err)
	require.True(t, committed)
	assert.False(t, doc.IngestedAt.IsZero(), "committed document must carry a commit time")

	skipped, committed, err := f.pipeline.Ingest(ctx, "notes.txt", text)
	require.NoError(t, err)
	require.False(t, committed)
	assert.True(t, skipped.IngestedAt.IsZero(), "skipped document must not be re-stamped")
}

// A renamed file with identical content is still the same document.
func TestIngest_SameContentDifferentNameSkipped(t *testing.T) {
	f := newFixture(t, chunker.WithMaxChunkChars(80))
	ctx := context.Background()
	text := sentenceText(10)

	_, committed, err := f.pipeline.Ingest(ctx, "original.txt", text)
	require.NoError(t, err)
	require.True(t, committed)

	_, committed, err = f.pipeline.Ingest(ctx, "renamed.txt", text)
	require.NoError(t, err)
	assert.False(t, committed)
}

// A multi-chunk document queried with the default top-k produces a prompt
// containing the retrieved chunk texts and the question, and a non-empty
// answer whose sources trace the included chunks.
func TestQuery_GroundedAnswer(t *testing.T) {
	f := newFixture(t, chunker.WithMaxChunkChars(120))
	ctx := context.Background()

	_, committed, err := f.pipeline.Ingest(ctx, "notes.txt", sentenceText(12))
	require.NoError(t, err)
	require.True(t, committed)

	count, err := f.store.Count(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, count, 5, "fixture should produce at least 5 chunks")

	answer, err := f.pipeline.Query(ctx, "what is sentence number 3?")
	require.NoError(t, err)

	assert.NotEmpty(t, answer.Text)
	require.Len(t, answer.Sources, domain.DefaultTopK)

	prompt := f.llm.lastPrompt()
	assert.Contains(t, prompt, "what is sentence number 3?")
	assert.Contains(t, prompt, groundedInstruction)

	// Every source chunk's text appears in the prompt.
	for _, id := range answer.Sources {
		rec, ok := f.store.records[id]
		require.True(t, ok, "source %s not in store", id)
		assert.Contains(t, prompt, rec.Content)
	}
}

// Querying before any ingest falls back to the no-context prompt variant.
func TestQuery_EmptyCorpus(t *testing.T) {
	f := newFixture(t)

	answer, err := f.pipeline.Query(context.Background(), "anything at all?")
	require.NoError(t, err)

	assert.NotEmpty(t, answer.Text)
	assert.Empty(t, answer.Sources)

	prompt := f.llm.lastPrompt()
	assert.Contains(t, prompt, noContextInstruction)
	assert.NotContains(t, prompt, "[source")
}

func TestQuery_EmptyQuestionRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Query(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestQuery_GenerationErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.llm.generateFn = func(string) (string, error) {
		return "", domain.ErrGenerationTimeout
	}

	_, err := f.pipeline.Query(context.Background(), "question?")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrGenerationTimeout))
}

// Two transient backend failures inside the retry budget still produce an
// answer rather than an error.
func TestQuery_TransientGenerationFailuresRecovered(t *testing.T) {
	var posts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/completion" {
			http.NotFound(w, r)
			return
		}
		if posts.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content": "recovered answer"}`))
	}))
	defer server.Close()

	llm := llamacpp.NewLLMService(llamacpp.Config{
		BaseURL:    server.URL,
		MaxRetries: 2,
	})
	defer llm.Close()

	registry := extractors.NewDefaultRegistry()
	pipeline := NewPipelineService(
		chunker.New(),
		registry,
		func(dir string) driven.FileSource {
			return filesystem.New(dir, registry.Supports)
		},
		newMockEmbedder(),
		newMockStore(),
		llm,
		domain.DefaultSettings(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	answer, err := pipeline.Query(ctx, "does retry work?")
	require.NoError(t, err)
	assert.Equal(t, "recovered answer", answer.Text)
	assert.GreaterOrEqual(t, posts.Load(), int32(3))
}

func TestIngestDir(t *testing.T) {
	t.Run("ingests supported files and skips failures", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(sentenceText(5)), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("# Heading\n\nBody text here."), 0o644))
		// Claims to be a PDF but is not parseable.
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o644))
		// Unsupported extension, never visited.
		require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.zip"), []byte("zip"), 0o644))

		f := newFixture(t, chunker.WithMaxChunkChars(200))

		stats, err := f.pipeline.IngestDir(context.Background(), dir)
		require.NoError(t, err)

		assert.NotEmpty(t, stats.RunID)
		assert.Equal(t, 2, stats.Ingested)
		assert.Equal(t, 0, stats.Skipped)
		assert.Equal(t, 1, stats.Failed)
		assert.Greater(t, stats.Chunks, 0)
	})

	t.Run("second run skips everything", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(sentenceText(5)), 0o644))

		f := newFixture(t)

		first, err := f.pipeline.IngestDir(context.Background(), dir)
		require.NoError(t, err)
		require.Equal(t, 1, first.Ingested)

		second, err := f.pipeline.IngestDir(context.Background(), dir)
		require.NoError(t, err)
		assert.Equal(t, 0, second.Ingested)
		assert.Equal(t, 1, second.Skipped)
	})

	t.Run("missing directory is an error", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.pipeline.IngestDir(context.Background(), "/non/existent/path")
		require.Error(t, err)
	})

	t.Run("embedding failure aborts the run", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(sentenceText(5)), 0o644))

		f := newFixture(t)
		f.embedder.batchErr = domain.ErrEmbeddingUnavailable

		_, err := f.pipeline.IngestDir(context.Background(), dir)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
	})
}

func TestIngestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "single.txt")
	require.NoError(t, os.WriteFile(path, []byte(sentenceText(5)), 0o644))

	f := newFixture(t)

	doc, committed, err := f.pipeline.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, committed)
	assert.Equal(t, "single.txt", doc.Name)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, chunker.WithMaxChunkChars(80))
	ctx := context.Background()

	count, err := f.pipeline.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, _, err = f.pipeline.Ingest(ctx, "notes.txt", sentenceText(10))
	require.NoError(t, err)

	count, err = f.pipeline.Status(ctx)
	require.NoError(t, err)
	assert.Greater(t, count, 0)
}

func TestClose_ReleasesAdapters(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.pipeline.Close())
	assert.True(t, f.store.closed)
	assert.True(t, f.llm.closed)
}

// Chunk reconstruction: the whitespace-squashed concatenation of committed
// chunk texts equals the squashed cleaned document.
func TestIngest_ChunksReconstructDocument(t *testing.T) {
	f := newFixture(t, chunker.WithMaxChunkChars(100))
	ctx := context.Background()

	text := sentenceText(8)
	doc, _, err := f.pipeline.Ingest(ctx, "notes.txt", text)
	require.NoError(t, err)

	n := chunker.New(chunker.WithMaxChunkChars(100))
	pieces := n.Split(doc.Content)

	squash := func(s string) string {
		return strings.Join(strings.Fields(s), " ")
	}
	assert.Equal(t, squash(doc.Content), squash(strings.Join(pieces, " ")))

	// Every committed record holds one of those pieces, keyed in order.
	for i, piece := range pieces {
		rec, ok := f.store.records[domain.ChunkID(doc.ID, i)]
		require.True(t, ok)
		assert.Equal(t, piece, rec.Content)
	}
}
