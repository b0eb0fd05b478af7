// Package pdf extracts plain text from PDF files.
package pdf

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
	"github.com/askdocs-labs/askdocs-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor pulls text out of PDFs page by page. Pages that cannot be
// decoded are skipped rather than failing the whole document; a document
// with no decodable text at all is an extraction failure.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name identifies the extractor in logs.
func (e *Extractor) Name() string {
	return "pdf"
}

// Supports reports whether this extractor handles the given path.
func (e *Extractor) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Extract reads the PDF at path and returns its text, pages joined with
// a single space.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %v", domain.ErrExtractionFailure, path, err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip undecodable pages, keep the rest of the document.
			continue
		}

		if cleaned := cleanPageText(text); cleaned != "" {
			pages = append(pages, cleaned)
		}
	}

	if len(pages) == 0 {
		return "", fmt.Errorf("%w: no extractable text in %s", domain.ErrExtractionFailure, path)
	}

	return strings.Join(pages, " "), nil
}

// cleanPageText squeezes doubled spaces and trims each line, the minimum
// tidying needed before the chunker's own normalisation pass.
func cleanPageText(text string) string {
	text = strings.ReplaceAll(text, "  ", " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
