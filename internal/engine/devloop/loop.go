// Package devloop rebuilds assets when their sources change and tells browsers to reload.
package devloop

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.trai.ch/press/internal/adapters/watcher" //nolint:depguard // Debouncer is shared with the watcher adapter
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/press/internal/engine/pipeline"
	"golang.org/x/sync/errgroup"
)

// State is the lifecycle state of the loop.
type State int32

const (
	// StateIdle is the state before Run.
	StateIdle State = iota
	// StateWatching is the state once the server and the watcher are running.
	StateWatching
)

// String returns the name used in logs.
func (s State) String() string {
	if s == StateWatching {
		return "watching"
	}
	return "idle"
}

const queueSize = 64

// TaskRunner runs a named task of a graph.
type TaskRunner interface {
	Run(ctx context.Context, graph *domain.Graph, name string) ([]domain.BuildInfo, error)
}

// Binding is the reaction to a change in one category.
type Binding struct {
	// Tasks run in sequence.
	Tasks []string
	// Signal is sent to browsers once every task succeeded.
	Signal ports.ReloadKind
}

// Bindings returns the static reaction table. Categories without an entry are ignored.
func Bindings() map[domain.Category]Binding {
	return map[domain.Category]Binding{
		domain.CategorySCSS: {Tasks: []string{pipeline.TaskSass, pipeline.TaskCSS}, Signal: ports.ReloadStyles},
		domain.CategoryJS:   {Tasks: []string{pipeline.TaskJS}, Signal: ports.ReloadPage},
		domain.CategoryHTML: {Tasks: []string{pipeline.TaskCopyHTML}, Signal: ports.ReloadPage},
	}
}

// Deps are the collaborators of a Loop.
type Deps struct {
	Config   *domain.Config
	Graph    *domain.Graph
	Runner   TaskRunner
	Server   ports.DevServer
	Reloader ports.Reloader
	Watcher  ports.Watcher
	Resolver ports.SourceResolver
	Metrics  ports.Metrics
	Logger   ports.Logger
}

// Loop serves the built site and rebuilds on source changes.
// Events are handled one at a time, in arrival order.
type Loop struct {
	deps     Deps
	bindings map[domain.Category]Binding
	state    atomic.Int32
}

// New creates a Loop in the idle state.
func New(deps Deps) *Loop {
	return &Loop{deps: deps, bindings: Bindings()}
}

// State returns the current state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Run starts the server and the watcher, then handles change events until ctx is done.
// A failing rebuild is logged and the loop keeps watching.
func (l *Loop) Run(ctx context.Context) error {
	if !l.state.CompareAndSwap(int32(StateIdle), int32(StateWatching)) {
		return domain.ErrAlreadyWatching
	}

	g, gctx := errgroup.WithContext(ctx)

	root := l.WatchRoot()
	if err := l.deps.Watcher.Start(gctx, root, []string{absolute(l.deps.Config.Paths.DestRoot())}); err != nil {
		return err
	}
	defer func() {
		_ = l.deps.Watcher.Stop()
	}()

	queue := make(chan domain.ChangeEvent, queueSize)

	g.Go(func() error {
		return l.deps.Server.Serve(gctx)
	})
	g.Go(func() error {
		l.consume(gctx, queue)
		return nil
	})
	g.Go(func() error {
		l.produce(gctx, queue)
		return nil
	})

	l.deps.Logger.Info("watching " + root + " for changes")

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// WatchRoot returns the absolute directory holding the source root and the
// base of every source glob.
func (l *Loop) WatchRoot() string {
	paths := l.deps.Config.Paths
	root := absolute(paths.SourceRoot())
	for _, c := range domain.Categories() {
		entry, err := paths.Lookup(c)
		if err != nil {
			continue
		}
		base := absolute(l.deps.Resolver.Base(entry.SourceGlob))
		for !domain.IsWithin(root, base) {
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}
	return root
}

// Classify maps a watch event to the category whose source glob matches it.
// Event paths and globs are compared in absolute form, so a configuration
// loaded from another directory classifies the same events.
// Paths under the destination root never match.
func (l *Loop) Classify(ev ports.WatchEvent) (domain.ChangeEvent, bool) {
	abs := absolute(ev.Path)
	paths := l.deps.Config.Paths
	if domain.IsWithin(absolute(paths.DestRoot()), abs) {
		return domain.ChangeEvent{}, false
	}

	for _, c := range domain.Categories() {
		entry, err := paths.Lookup(c)
		if err != nil {
			continue
		}
		if l.deps.Resolver.Match(absoluteGlob(entry.SourceGlob), abs) {
			return domain.ChangeEvent{Category: c, Path: filepath.Clean(ev.Path), Kind: ev.Kind}, true
		}
	}
	return domain.ChangeEvent{}, false
}

// Handle runs the tasks bound to the event's category and signals browsers.
func (l *Loop) Handle(ctx context.Context, ev domain.ChangeEvent) error {
	l.deps.Metrics.ObserveChange(string(ev.Category))

	b, ok := l.bindings[ev.Category]
	if !ok {
		return nil
	}

	l.deps.Logger.Info(fmt.Sprintf("%s %s: running %s", ev.Kind, ev.Path, strings.Join(b.Tasks, ", ")))

	var hash string
	for _, name := range b.Tasks {
		records, err := l.deps.Runner.Run(ctx, l.deps.Graph, name)
		if err != nil {
			return err
		}
		if n := len(records); n > 0 && records[n-1].OutputHash != "" {
			hash = records[n-1].OutputHash
		}
	}

	l.deps.Reloader.Notify(b.Signal, hash)
	l.deps.Metrics.ObserveReload(b.Signal)
	return nil
}

func (l *Loop) produce(ctx context.Context, queue chan<- domain.ChangeEvent) {
	enqueue := func(ev domain.ChangeEvent) {
		select {
		case queue <- ev:
		case <-ctx.Done():
		}
	}

	var debouncer *watcher.Debouncer
	if window := l.deps.Config.Watch.Debounce; window > 0 {
		debouncer = watcher.NewDebouncer(window, func(paths []string) {
			for _, p := range paths {
				if ev, ok := l.Classify(ports.WatchEvent{Path: p, Kind: settledKind(p)}); ok {
					enqueue(ev)
				}
			}
		})
	}

	for raw := range l.deps.Watcher.Events() {
		ev, ok := l.Classify(raw)
		if !ok {
			continue
		}
		if debouncer != nil {
			debouncer.Add(ev.Path)
			continue
		}
		enqueue(ev)
	}
}

func (l *Loop) consume(ctx context.Context, queue <-chan domain.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-queue:
			if err := l.Handle(ctx, ev); err != nil {
				if ctx.Err() != nil {
					return
				}
				l.deps.Logger.Error(err)
			}
		}
	}
}

// settledKind reports how a debounced path ended up.
func settledKind(name string) domain.ChangeKind {
	if _, err := os.Stat(name); err != nil {
		return domain.ChangeUnlink
	}
	return domain.ChangeModify
}

func absolute(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

func absoluteGlob(pattern string) string {
	if path.IsAbs(pattern) || filepath.IsAbs(pattern) {
		return pattern
	}
	wd, err := os.Getwd()
	if err != nil {
		return pattern
	}
	return path.Join(filepath.ToSlash(wd), pattern)
}
