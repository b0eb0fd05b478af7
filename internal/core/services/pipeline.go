package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/askdocs-labs/askdocs-cli/internal/chunker"
	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
	"github.com/askdocs-labs/askdocs-cli/internal/core/ports/driven"
	"github.com/askdocs-labs/askdocs-cli/internal/core/ports/driving"
	"github.com/askdocs-labs/askdocs-cli/internal/logger"
)

// Ensure PipelineService implements the interface.
var _ driving.Pipeline = (*PipelineService)(nil)

// TextExtractor resolves an extractor for a path. Implemented by the
// extractors registry.
type TextExtractor interface {
	For(path string) (driven.Extractor, error)
	Supports(path string) bool
}

// SourceFactory opens a file source rooted at a directory. The filesystem
// connector satisfies this.
type SourceFactory func(dir string) driven.FileSource

// PipelineService wires the full ingest and query flow: extraction,
// chunking, embedding, storage, retrieval, prompting and generation.
type PipelineService struct {
	normalizer       *chunker.Normalizer
	extractors       TextExtractor
	sources          SourceFactory
	embeddingService driven.EmbeddingService
	store            driven.VectorStore
	llmService       driven.LLMService
	retrieval        *RetrievalEngine
	prompts          *PromptBuilder
	settings         domain.Settings
}

// NewPipelineService creates the pipeline orchestrator. The extractors and
// sources parameters may be nil when only pre-extracted text is ingested.
func NewPipelineService(
	normalizer *chunker.Normalizer,
	extractors TextExtractor,
	sources SourceFactory,
	embeddingService driven.EmbeddingService,
	store driven.VectorStore,
	llmService driven.LLMService,
	settings domain.Settings,
) *PipelineService {
	return &PipelineService{
		normalizer:       normalizer,
		extractors:       extractors,
		sources:          sources,
		embeddingService: embeddingService,
		store:            store,
		llmService:       llmService,
		retrieval:        NewRetrievalEngine(embeddingService, store, settings.OverfetchFactor),
		prompts:          NewPromptBuilder(settings.MaxContextChars),
		settings:         settings,
	}
}

// Ingest commits one document. The returned bool is false when the
// document was already present and nothing was written.
//
// Commit is all-or-nothing: chunk embeddings are buffered and stored in a
// single batch, so an embedding failure mid-document leaves no partial
// state behind.
func (p *PipelineService) Ingest(
	ctx context.Context, name, rawText string,
) (domain.Document, bool, error) {
	clean := p.normalizer.Normalize(rawText)
	if clean == "" {
		return domain.Document{}, false, fmt.Errorf("%w: document %q has no text content", domain.ErrInvalidInput, name)
	}

	doc := domain.NewDocument(name, clean)
	logger.Debug("Ingest: %s (id=%s, %d chars)", name, doc.ID, len(clean))

	// Identical content yields an identical first chunk ID, so a single
	// existence probe makes re-ingestion a no-op.
	exists, err := p.store.Exists(ctx, domain.ChunkID(doc.ID, 0))
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("check existing document: %w", err)
	}
	if exists {
		logger.Info("Ingest: %s already present, skipping", name)
		return doc, false, nil
	}

	chunks := p.normalizer.Chunks(doc)
	logger.Debug("Ingest: %s split into %d chunks", name, len(chunks))

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := p.embeddingService.EmbedBatch(ctx, texts)
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("embed chunks of %s: %w", name, err)
	}

	records := make([]driven.ChunkRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = driven.ChunkRecord{
			ID:         chunk.ID,
			DocumentID: chunk.DocumentID,
			Content:    chunk.Content,
			Metadata: map[string]string{
				"source": doc.Name,
			},
			Embedding: vectors[i],
		}
	}

	if err := p.store.UpsertBatch(ctx, records); err != nil {
		return domain.Document{}, false, fmt.Errorf("store chunks of %s: %w", name, err)
	}
	doc.IngestedAt = time.Now()

	logger.Info("Ingest: committed %s (%d chunks)", name, len(records))
	return doc, true, nil
}

// IngestDir extracts and ingests every supported file in dir. Extraction
// failures skip the file and continue; embedding or store failures abort
// the run.
func (p *PipelineService) IngestDir(ctx context.Context, dir string) (driving.IngestStats, error) {
	if p.extractors == nil || p.sources == nil {
		return driving.IngestStats{}, fmt.Errorf("%w: directory ingestion not configured", domain.ErrInvalidInput)
	}

	stats := driving.IngestStats{RunID: uuid.New().String()}
	logger.Section("Ingestion Run " + stats.RunID)
	logger.Info("Ingesting directory: %s", dir)

	src := p.sources(dir)
	defer src.Close()

	// Derived context so an aborted run unblocks the scanner.
	scanCtx, cancelScan := context.WithCancel(ctx)
	defer cancelScan()

	paths, scanErrs := src.Scan(scanCtx)
	for path := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		doc, committed, err := p.IngestFile(ctx, path)
		switch {
		case err != nil && errors.Is(err, domain.ErrExtractionFailure):
			logger.Warn("Skipping %s: %v", path, err)
			stats.Failed++
			continue
		case err != nil && errors.Is(err, domain.ErrInvalidInput):
			logger.Warn("Skipping %s: %v", path, err)
			stats.Failed++
			continue
		case err != nil:
			return stats, err
		case committed:
			stats.Ingested++
			stats.Chunks += chunkCount(doc, p.normalizer)
		default:
			stats.Skipped++
		}
	}

	for err := range scanErrs {
		if err != nil {
			return stats, fmt.Errorf("scan %s: %w", dir, err)
		}
	}

	logger.Info("Run %s: %d ingested, %d skipped, %d failed, %d chunks",
		stats.RunID, stats.Ingested, stats.Skipped, stats.Failed, stats.Chunks)
	return stats, nil
}

// IngestFile extracts one file and feeds it through Ingest.
func (p *PipelineService) IngestFile(ctx context.Context, path string) (domain.Document, bool, error) {
	if p.extractors == nil {
		return domain.Document{}, false, fmt.Errorf("%w: no extractors configured", domain.ErrInvalidInput)
	}

	extractor, err := p.extractors.For(path)
	if err != nil {
		return domain.Document{}, false, err
	}

	text, err := extractor.Extract(ctx, path)
	if err != nil {
		return domain.Document{}, false, err
	}

	return p.Ingest(ctx, fileName(path), text)
}

// Query answers a question grounded in the corpus.
func (p *PipelineService) Query(ctx context.Context, question string) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	logger.Section("Query")
	logger.Debug("Question: %q", question)

	results, err := p.retrieval.Retrieve(ctx, question, p.settings.TopK)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("retrieve: %w", err)
	}
	logger.Info("Retrieved %d chunks", len(results))

	prompt, pctx := p.prompts.Build(question, results)
	logger.Debug("Prompt: %s variant, %d chunks included", pctx.Variant, len(pctx.Included))

	text, err := p.llmService.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   p.settings.MaxTokens,
		Temperature: p.settings.Temperature,
		Timeout:     p.settings.GenerateTimeout,
	})
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate: %w", err)
	}

	sources := make([]string, len(pctx.Included))
	for i, chunk := range pctx.Included {
		sources[i] = chunk.ID
	}

	return domain.Answer{
		Text:    strings.TrimSpace(text),
		Sources: sources,
	}, nil
}

// Status reports the number of stored chunk records.
func (p *PipelineService) Status(ctx context.Context) (int, error) {
	return p.store.Count(ctx)
}

// Close releases the injected adapters.
func (p *PipelineService) Close() error {
	var errs []error
	if p.embeddingService != nil {
		if err := p.embeddingService.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.llmService != nil {
		if err := p.llmService.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// chunkCount re-derives the number of chunks a committed document produced.
func chunkCount(doc domain.Document, n *chunker.Normalizer) int {
	return len(n.Split(doc.Content))
}

// fileName strips the directory from a path for use as the document name.
func fileName(path string) string {
	return filepath.Base(path)
}
