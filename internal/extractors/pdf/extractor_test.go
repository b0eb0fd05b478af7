package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
	"github.com/askdocs-labs/askdocs-cli/internal/core/ports/driven"
)

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Extractor = (*Extractor)(nil)
}

func TestSupports(t *testing.T) {
	e := New()

	assert.True(t, e.Supports("report.pdf"))
	assert.True(t, e.Supports("REPORT.PDF"))
	assert.True(t, e.Supports("/some/dir/cv.Pdf"))
	assert.False(t, e.Supports("notes.txt"))
	assert.False(t, e.Supports("report.pdf.bak"))
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExtractionFailure))
}

func TestExtract_NotAPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("just plain text, no PDF header"), 0o644))

	_, err := New().Extract(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExtractionFailure))
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Extract(ctx, "report.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCleanPageText(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{
			name:     "doubled spaces squeezed",
			in:       "hello  world",
			expected: "hello world",
		},
		{
			name:     "line endings trimmed",
			in:       "  first line  \n  second line  ",
			expected: "first line\nsecond line",
		},
		{
			name:     "whitespace only",
			in:       "   \n   ",
			expected: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, cleanPageText(tc.in))
		})
	}
}
