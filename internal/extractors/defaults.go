package extractors

import (
	"github.com/askdocs-labs/askdocs-cli/internal/extractors/pdf"
	"github.com/askdocs-labs/askdocs-cli/internal/extractors/plaintext"
)

// RegisterDefaults registers all built-in extractors with the registry.
// Call this during application initialisation. PDF goes first so the
// plaintext fallback never sees binary PDF bytes.
func RegisterDefaults(r *Registry) {
	r.Register(pdf.New())
	r.Register(plaintext.New())
}

// NewDefaultRegistry creates a registry with all built-in extractors.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
