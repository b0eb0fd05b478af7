// Package filesystem provides a FileSource backed by a local directory.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/askdocs-labs/askdocs-cli/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.FileSource = (*Connector)(nil)

// Filter reports whether a path qualifies for ingestion. The extractor
// registry's Supports method satisfies this signature.
type Filter func(path string) bool

// Connector walks a root directory for qualifying files and can watch it
// for changes. Hidden files and directories are skipped.
type Connector struct {
	rootPath string
	filter   Filter

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// New creates a connector rooted at rootPath. A nil filter accepts
// every regular file.
func New(rootPath string, filter Filter) *Connector {
	if filter == nil {
		filter = func(string) bool { return true }
	}
	return &Connector{
		rootPath: rootPath,
		filter:   filter,
	}
}

// Root returns the directory this connector reads from.
func (c *Connector) Root() string {
	return c.rootPath
}

// Scan streams the paths of all qualifying files under the root, sorted
// for deterministic ingestion order.
func (c *Connector) Scan(ctx context.Context) (<-chan string, <-chan error) {
	paths := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(paths)
		defer close(errs)

		info, err := os.Stat(c.rootPath)
		if err != nil {
			errs <- fmt.Errorf("root path error: %s does not exist", c.rootPath)
			return
		}
		if !info.IsDir() {
			errs <- fmt.Errorf("root path error: %s is not a directory", c.rootPath)
			return
		}

		var found []string
		err = filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			if hidden(d.Name()) && path != c.rootPath {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if c.filter(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			if ctx.Err() == nil {
				errs <- fmt.Errorf("walking %s: %w", c.rootPath, err)
			}
			return
		}

		sort.Strings(found)
		for _, p := range found {
			select {
			case paths <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	return paths, errs
}

// Watch streams change events for qualifying files under the root.
// New subdirectories are added to the watch as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan driven.FileChange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("connector is closed")
	}

	info, err := os.Stat(c.rootPath)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a watchable directory", c.rootPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	// Watch the root and any existing subdirectories.
	err = filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if hidden(d.Name()) && path != c.rootPath {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", c.rootPath, err)
	}

	c.watcher = watcher
	changes := make(chan driven.FileChange)

	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				// Newly created directories join the watch.
				if event.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if !hidden(filepath.Base(event.Name)) {
							watcher.Add(event.Name)
						}
						continue
					}
				}

				change, ok := mapEvent(event)
				if !ok {
					continue
				}
				if hidden(filepath.Base(change.Path)) || !c.filter(change.Path) {
					continue
				}

				select {
				case changes <- change:
				case <-ctx.Done():
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return changes, nil
}

// Close releases the watcher. Safe to call multiple times.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

// mapEvent translates an fsnotify event into a FileChange. Chmod-only
// events carry no content change and are dropped.
func mapEvent(event fsnotify.Event) (driven.FileChange, bool) {
	switch {
	case event.Op.Has(fsnotify.Create):
		return driven.FileChange{Type: driven.ChangeCreated, Path: event.Name}, true
	case event.Op.Has(fsnotify.Write):
		return driven.FileChange{Type: driven.ChangeUpdated, Path: event.Name}, true
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		return driven.FileChange{Type: driven.ChangeRemoved, Path: event.Name}, true
	default:
		return driven.FileChange{}, false
	}
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
