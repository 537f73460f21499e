package ports

import (
	"context"
	"iter"
	"time"

	"go.trai.ch/gild/internal/core/domain"
)

// WatchOp represents the type of file system operation.
type WatchOp uint8

const (
	// OpCreate indicates a file or directory was created.
	OpCreate WatchOp = iota
	// OpWrite indicates a file was modified.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// String returns the lower-case name of the operation.
func (op WatchOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// WatchEvent represents a file system event from the watcher.
type WatchEvent struct {
	// Path is the absolute path of the file or directory that changed.
	Path string
	// Operation is the type of change that occurred.
	Operation WatchOp
}

// Watcher defines the interface for watching file system changes.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start begins watching the given root directory recursively.
	// Directories named in skip are not watched.
	Start(ctx context.Context, root string, skip []string) error
	// Stop stops the watcher and releases all resources.
	Stop() error
	// Events returns an iterator of file system events.
	Events() iter.Seq[WatchEvent]
}

// TriggerFunc runs the named task.
type TriggerFunc func(ctx context.Context, task string) error

// WatchOptions describes what a WatchService observes and runs.
type WatchOptions struct {
	// Root is the directory watched recursively. Globs are relative to it.
	Root string
	// Skip lists root-relative directories that are not watched.
	Skip []string
	// Debounce is the quiet period that ends a burst of changes.
	Debounce time.Duration
	Bindings []domain.WatchBinding
	Trigger  TriggerFunc
}

// WatchService re-runs bound tasks when matching source files change.
type WatchService interface {
	Service
	// Watch starts watching in the background. Changes matching a binding's globs
	// trigger each bound task once per debounced burst. Trigger failures are logged.
	Watch(ctx context.Context, opts WatchOptions) error
}
