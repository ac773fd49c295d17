package ports

import (
	"context"
	"iter"

	"go.trai.ch/press/internal/core/domain"
)

// WatchEvent is a change of a single path below the watched root.
// Renames are reported as an unlink of the old path.
type WatchEvent struct {
	Path string
	Kind domain.ChangeKind
}

// Watcher reports file changes below a directory tree.
//
//go:generate go run go.uber.org/mock/mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start watches root recursively. Directories listed in skip are not
	// watched, nor is anything below them.
	Start(ctx context.Context, root string, skip []string) error
	// Stop releases the watcher.
	Stop() error
	// Events yields changes until the watcher stops.
	Events() iter.Seq[WatchEvent]
}
