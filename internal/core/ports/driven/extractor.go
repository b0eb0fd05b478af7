package driven

import "context"

// Extractor converts a raw source file into plain text. PDF parsing and
// other format concerns live entirely behind this boundary; the core only
// ever sees (name, text) pairs.
type Extractor interface {
	// Extract reads the file at path and returns its raw text.
	// Failures wrap domain.ErrExtractionFailure.
	Extract(ctx context.Context, path string) (string, error)

	// Supports reports whether this extractor handles the given file path
	// (by extension).
	Supports(path string) bool

	// Name identifies the extractor in logs.
	Name() string
}
