// Package watcher implements recursive file system watching for the dev loop.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// toolDirectories are never watched, wherever they appear.
var toolDirectories = map[string]bool{
	".git":              true,
	".jj":               true,
	"node_modules":      true,
	domain.PressDirName: true,
	".sass-cache":       true,
}

const eventChannelBuffer = 100

// Watcher implements ports.Watcher with fsnotify. fsnotify watches single
// directories, so every directory of the tree is added and directories
// created later are added as they appear.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger
	events    chan ports.WatchEvent
	skip      map[string]bool
}

// NewWatcher creates a new file system watcher. Errors reported by the
// underlying notifier are logged as warnings.
func NewWatcher(logger ports.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrWatcherStartFailed.Error())
	}
	return &Watcher{
		fsWatcher: w,
		logger:    logger,
		events:    make(chan ports.WatchEvent, eventChannelBuffer),
		skip:      make(map[string]bool),
	}, nil
}

// Start watches root and every directory below it except tool directories
// and the directories in skip.
func (w *Watcher) Start(ctx context.Context, root string, skip []string) error {
	for _, dir := range skip {
		w.skip[filepath.Clean(dir)] = true
	}

	for dir := range w.directories(root) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrWatcherStartFailed.Error()), "dir", dir)
		}
	}

	go w.loop(ctx)

	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// Events returns an iterator of file changes. It ends when the watcher stops
// or the context passed to Start is cancelled.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

func (w *Watcher) ignored(dir string) bool {
	return toolDirectories[filepath.Base(dir)] || w.skip[filepath.Clean(dir)]
}

// directories yields root and its subdirectories, pruning ignored ones.
func (w *Watcher) directories(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are skipped
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && w.ignored(path) {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			ev, ok := toWatchEvent(event)
			if !ok {
				continue
			}
			if ev.Kind == domain.ChangeAdd && w.follow(ev.Path) {
				continue
			}
			select {
			case w.events <- ev:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(fmt.Sprintf("watcher: file system error: %v", err))
		}
	}
}

// follow adds a newly created directory tree and reports whether path was a
// directory.
func (w *Watcher) follow(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	if w.ignored(path) {
		return true
	}
	for dir := range w.directories(path) {
		_ = w.fsWatcher.Add(dir)
	}
	return true
}

// toWatchEvent maps an fsnotify event to a change kind. Chmod-only events are
// dropped.
func toWatchEvent(event fsnotify.Event) (ports.WatchEvent, bool) {
	switch {
	case event.Has(fsnotify.Write):
		return ports.WatchEvent{Path: event.Name, Kind: domain.ChangeModify}, true
	case event.Has(fsnotify.Create):
		return ports.WatchEvent{Path: event.Name, Kind: domain.ChangeAdd}, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return ports.WatchEvent{Path: event.Name, Kind: domain.ChangeUnlink}, true
	default:
		return ports.WatchEvent{}, false
	}
}
