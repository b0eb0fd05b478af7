// Package sqlite provides the persistent vector store. Vectors are kept
// as little-endian float32 blobs and similarity queries are answered by a
// brute-force scan, which is adequate for a single-user corpus of
// resume-sized documents.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/askdocs-labs/askdocs-cli/internal/adapters/driven/vectorstore/sqlite/migrations"
	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
	"github.com/askdocs-labs/askdocs-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a SQLite-backed vector store scoped to one collection.
type Store struct {
	db         *sql.DB
	path       string
	collection string

	mu   sync.RWMutex
	dims int // pinned on first write, 0 until then
}

// NewStore opens (or creates) the vector store at the given data
// directory for the named collection. If dataDir is empty it defaults to
// ~/.askdocs/data; if collection is empty the default collection is used.
func NewStore(dataDir, collection string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".askdocs", "data")
	}
	if collection == "" {
		collection = domain.DefaultCollection
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:         db,
		path:       dbPath,
		collection: collection,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	// Recover the pinned dimension of an existing collection.
	var dims int
	row := db.QueryRow("SELECT dimensions FROM collections WHERE name = ?", collection)
	if err := row.Scan(&dims); err == nil {
		s.dims = dims
	} else if err != sql.ErrNoRows {
		db.Close()
		return nil, fmt.Errorf("loading collection: %w", err)
	}

	return s, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Upsert inserts or replaces a single record.
func (s *Store) Upsert(ctx context.Context, rec driven.ChunkRecord) error {
	return s.UpsertBatch(ctx, []driven.ChunkRecord{rec})
}

// UpsertBatch inserts or replaces records in one transaction: either every
// record is committed or none are.
func (s *Store) UpsertBatch(ctx context.Context, recs []driven.ChunkRecord) error {
	if len(recs) == 0 {
		return nil
	}

	// Validate the whole batch against the pinned dimension before
	// writing anything.
	s.mu.RLock()
	dims := s.dims
	s.mu.RUnlock()
	pinning := dims == 0
	if pinning {
		dims = len(recs[0].Embedding)
	}
	for _, rec := range recs {
		if rec.ID == "" {
			return fmt.Errorf("%w: record without ID", domain.ErrInvalidInput)
		}
		if len(rec.Embedding) != dims {
			return fmt.Errorf("%w: got %d, collection has %d",
				domain.ErrDimensionMismatch, len(rec.Embedding), dims)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrVectorStore, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if pinning {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO collections (name, dimensions) VALUES (?, ?)
			ON CONFLICT(name) DO NOTHING
		`, s.collection, dims); err != nil {
			return fmt.Errorf("%w: pinning dimensions: %v", domain.ErrVectorStore, err)
		}
	}

	for _, rec := range recs {
		metadataJSON, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO chunks (id, collection, document_id, content, metadata, embedding)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				document_id = excluded.document_id,
				content = excluded.content,
				metadata = excluded.metadata,
				embedding = excluded.embedding
		`, rec.ID, s.collection, rec.DocumentID, rec.Content, string(metadataJSON), encodeVector(rec.Embedding))
		if err != nil {
			return fmt.Errorf("%w: upserting chunk %s: %v", domain.ErrVectorStore, rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrVectorStore, err)
	}

	if pinning {
		s.mu.Lock()
		if s.dims == 0 {
			s.dims = dims
		}
		s.mu.Unlock()
	}
	return nil
}

// Query scans the collection and returns up to topK hits ascending by
// cosine distance.
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]driven.StoreHit, error) {
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	dims := s.dims
	s.mu.RUnlock()
	if dims == 0 {
		// Nothing ever written.
		return nil, nil
	}
	if len(vector) != dims {
		return nil, fmt.Errorf("%w: query has %d, collection has %d",
			domain.ErrDimensionMismatch, len(vector), dims)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, content, metadata, embedding
		FROM chunks WHERE collection = ?
	`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("%w: querying chunks: %v", domain.ErrVectorStore, err)
	}
	defer rows.Close()

	var hits []driven.StoreHit
	for rows.Next() {
		var rec driven.ChunkRecord
		var metadataJSON sql.NullString
		var blob []byte
		if err := rows.Scan(&rec.ID, &rec.DocumentID, &rec.Content, &metadataJSON, &blob); err != nil {
			return nil, fmt.Errorf("%w: scanning chunk: %v", domain.ErrVectorStore, err)
		}
		if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling metadata for %s: %w", rec.ID, err)
			}
		}
		rec.Embedding = decodeVector(blob)
		if len(rec.Embedding) != dims {
			return nil, fmt.Errorf("%w: stored chunk %s has %d dimensions",
				domain.ErrDimensionMismatch, rec.ID, len(rec.Embedding))
		}

		hits = append(hits, driven.StoreHit{
			Record:   rec,
			Distance: cosineDistance(vector, rec.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating chunks: %v", domain.ErrVectorStore, err)
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
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	row := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM chunks WHERE collection = ? AND id = ?", s.collection, id)
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("%w: exists: %v", domain.ErrVectorStore, err)
	}
	return true, nil
}

// Delete removes a single record. Deleting a missing ID is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE collection = ? AND id = ?", s.collection, id)
	if err != nil {
		return fmt.Errorf("%w: deleting chunk: %v", domain.ErrVectorStore, err)
	}
	return nil
}

// DeleteDocument removes every record belonging to a document.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE collection = ? AND document_id = ?", s.collection, documentID)
	if err != nil {
		return fmt.Errorf("%w: deleting document: %v", domain.ErrVectorStore, err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE collection = ?", s.collection)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting chunks: %v", domain.ErrVectorStore, err)
	}
	return n, nil
}

// Dimensions returns the pinned vector dimension, or 0 before the first
// write.
func (s *Store) Dimensions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dims
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// encodeVector serialises a vector as a little-endian float32 blob.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector deserialises a little-endian float32 blob.
func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
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
