package extractors

import (
	"fmt"

	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
	"github.com/askdocs-labs/askdocs-cli/internal/core/ports/driven"
)

// Registry holds the available extractors in registration order.
// The first extractor whose Supports returns true for a path wins,
// so format-specific extractors should be registered before fallbacks.
type Registry struct {
	extractors []driven.Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends an extractor to the registry.
func (r *Registry) Register(e driven.Extractor) {
	r.extractors = append(r.extractors, e)
}

// For returns the extractor handling the given path.
// Returns an error wrapping domain.ErrInvalidInput when no extractor matches.
func (r *Registry) For(path string) (driven.Extractor, error) {
	for _, e := range r.extractors {
		if e.Supports(path) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: no extractor for %s", domain.ErrInvalidInput, path)
}

// Supports reports whether any registered extractor handles the path.
func (r *Registry) Supports(path string) bool {
	for _, e := range r.extractors {
		if e.Supports(path) {
			return true
		}
	}
	return false
}

// Names returns the names of all registered extractors.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.extractors))
	for _, e := range r.extractors {
		names = append(names, e.Name())
	}
	return names
}
