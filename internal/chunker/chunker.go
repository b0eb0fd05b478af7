// Package chunker normalises extracted document text and splits it into
// bounded, retrievable chunks.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
)

// DefaultMaxChunkChars is the default chunk size bound in bytes.
const DefaultMaxChunkChars = domain.DefaultMaxChunkChars

// DefaultBoundaryLookback is the default boundary search window.
const DefaultBoundaryLookback = domain.DefaultBoundaryLookback

var (
	// hyphenBreak matches a hyphenated word broken across a line wrap,
	// e.g. "engin-\neering".
	hyphenBreak = regexp.MustCompile(`(\p{L})-[ \t]*\n[ \t]*(\p{L})`)

	// controlChars matches control characters other than newline.
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b-\x1f\x7f]`)

	// spaceRuns matches runs of spaces and tabs.
	spaceRuns = regexp.MustCompile(`[ \t]{2,}`)

	// blankRuns matches three or more consecutive newlines.
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// boundaries are preferred split points, tried in order. Each chunk ends
// just after the boundary text.
var boundaries = []string{"\n\n", ". ", "! ", "? ", "\n"}

// Normalizer cleans raw text and splits it into chunks. The same input
// always yields the same chunk sequence, which the ingestion idempotence
// check depends on.
type Normalizer struct {
	maxChunkChars int
	lookback      int
}

// Option configures the normalizer.
type Option func(*Normalizer)

// WithMaxChunkChars sets the chunk size bound in bytes.
func WithMaxChunkChars(n int) Option {
	return func(c *Normalizer) {
		if n > 0 {
			c.maxChunkChars = n
		}
	}
}

// WithBoundaryLookback sets how far back from the size bound the splitter
// searches for a sentence or paragraph boundary before hard-cutting.
func WithBoundaryLookback(n int) Option {
	return func(c *Normalizer) {
		if n >= 0 {
			c.lookback = n
		}
	}
}

// New creates a normalizer with the given options.
func New(opts ...Option) *Normalizer {
	c := &Normalizer{
		maxChunkChars: DefaultMaxChunkChars,
		lookback:      DefaultBoundaryLookback,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.lookback >= c.maxChunkChars {
		c.lookback = c.maxChunkChars / 4
	}
	return c
}

// Normalize strips extraction artifacts from raw text: control characters,
// hyphenation breaks across line wraps and repeated whitespace.
func (c *Normalizer) Normalize(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = hyphenBreak.ReplaceAllString(text, "$1$2")
	text = controlChars.ReplaceAllString(text, " ")
	text = spaceRuns.ReplaceAllString(text, " ")

	// Trim the edges of every line; extraction tends to leave ragged
	// indentation behind.
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	text = strings.Join(lines, "\n")

	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Split cuts cleaned text into chunks of at most the configured size,
// preferring sentence and paragraph boundaries within the lookback window.
// Empty or whitespace-only input yields nil.
func (c *Normalizer) Split(clean string) []string {
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return nil
	}

	var chunks []string
	rest := clean
	for len(rest) > c.maxChunkChars {
		cut := c.findCut(rest)
		piece := strings.TrimSpace(rest[:cut])
		if piece != "" {
			chunks = append(chunks, piece)
		}
		rest = strings.TrimSpace(rest[cut:])
	}
	if rest != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}

// findCut locates the split position for the next chunk of rest, which is
// known to exceed the size bound.
func (c *Normalizer) findCut(rest string) int {
	limit := c.maxChunkChars
	// Never cut mid-rune.
	for limit > 0 && !utf8.RuneStart(rest[limit]) {
		limit--
	}
	if limit == 0 {
		// Bound smaller than a single rune; take one rune anyway so the
		// splitter always makes progress.
		_, size := utf8.DecodeRuneInString(rest)
		return size
	}

	window := rest[:limit]
	floor := limit - c.lookback
	if floor < 0 {
		floor = 0
	}
	for _, b := range boundaries {
		if idx := strings.LastIndex(window, b); idx >= floor {
			return idx + len(b)
		}
	}
	// No boundary in the window: hard cut at the bound.
	return limit
}

// Chunks normalises a document's content and returns its ordered chunk
// records with deterministic IDs.
func (c *Normalizer) Chunks(doc domain.Document) []domain.Chunk {
	pieces := c.Split(c.Normalize(doc.Content))
	if len(pieces) == 0 {
		return nil
	}
	chunks := make([]domain.Chunk, len(pieces))
	for i, text := range pieces {
		chunks[i] = domain.Chunk{
			ID:         domain.ChunkID(doc.ID, i),
			DocumentID: doc.ID,
			Index:      i,
			Content:    text,
		}
	}
	return chunks
}
