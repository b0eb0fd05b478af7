package driven

import "context"

// ChangeType describes what happened to a watched file.
type ChangeType int

const (
	// ChangeCreated signals a new file appeared.
	ChangeCreated ChangeType = iota
	// ChangeUpdated signals an existing file was rewritten.
	ChangeUpdated
	// ChangeRemoved signals a file disappeared.
	ChangeRemoved
)

// String returns a human-readable change type for logs.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// FileChange is a single change event from a watched source.
type FileChange struct {
	Type ChangeType
	Path string
}

// FileSource enumerates and watches the files backing the corpus.
// Implementations decide which paths qualify; the core never inspects
// extensions itself.
type FileSource interface {
	// Scan streams the paths of all qualifying files. Both channels are
	// closed when the scan completes or the context is cancelled.
	Scan(ctx context.Context) (<-chan string, <-chan error)

	// Watch streams change events until the context is cancelled, at
	// which point the channel is closed.
	Watch(ctx context.Context) (<-chan FileChange, error)

	// Close releases watcher resources.
	Close() error
}
