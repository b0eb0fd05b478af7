// Package driving provides interfaces for user-facing entry points (primary/inbound ports).
package driving

import (
	"context"

	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
)

// IngestStats summarises one ingestion run.
type IngestStats struct {
	// RunID tags the run in logs.
	RunID string

	// Ingested counts documents committed to the store.
	Ingested int

	// Skipped counts documents already present (idempotent re-ingest).
	Skipped int

	// Failed counts documents whose extraction failed and were skipped.
	Failed int

	// Chunks counts chunk records committed across the run.
	Chunks int
}

// Pipeline is the RAG entry point: ingestion of documents and grounded
// question answering.
type Pipeline interface {
	// Ingest commits one document: normalise, chunk, embed, upsert.
	// A document whose ID already exists in the store is skipped.
	// Commit is all-or-nothing per document: if any chunk fails to embed,
	// nothing is stored.
	Ingest(ctx context.Context, name, rawText string) (domain.Document, bool, error)

	// IngestDir extracts and ingests every supported file in a directory.
	// Files that fail extraction are skipped and counted, not fatal.
	IngestDir(ctx context.Context, dir string) (IngestStats, error)

	// IngestFile extracts and ingests a single file.
	IngestFile(ctx context.Context, path string) (domain.Document, bool, error)

	// Query answers a question grounded in the corpus. An empty corpus is
	// valid: the prompt switches to its no-context variant and the answer
	// comes from the model's general knowledge.
	Query(ctx context.Context, question string) (domain.Answer, error)

	// Status reports the number of stored chunks.
	Status(ctx context.Context) (int, error)

	// Close releases the injected collaborators.
	Close() error
}
