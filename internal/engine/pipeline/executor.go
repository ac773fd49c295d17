package pipeline

import (
	"context"
	"io"
	"sync"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Executor)(nil)

// Action is the work bound to a task. It returns the files it wrote.
type Action func(ctx context.Context, out io.Writer) ([]string, error)

// Steps holds the transform steps the actions are built from.
type Steps struct {
	Resolver   ports.SourceResolver
	Compiler   ports.StyleCompiler
	Prefixer   ports.Prefixer
	Minifier   ports.Minifier
	Compressor ports.ImageCompressor
}

// Executor implements ports.Executor with a table of actions keyed by task name.
type Executor struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewExecutor creates an Executor with the asset actions bound for cfg.
func NewExecutor(cfg *domain.Config, steps Steps) *Executor {
	a := &assets{cfg: cfg, steps: steps}
	return &Executor{
		actions: map[string]Action{
			TaskClean:    a.clean,
			TaskCopyHTML: a.copyHTML,
			TaskSass:     a.sass,
			TaskCSS:      a.css,
			TaskJS:       a.js,
			TaskImages:   a.images,
			TaskVendors:  a.vendors,
		},
	}
}

// Handle binds action to the named task, replacing any previous binding.
func (e *Executor) Handle(name string, action Action) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.actions[name] = action
}

// Execute runs the action bound to task.
// Tasks without a category may have no action, they succeed without output.
func (e *Executor) Execute(ctx context.Context, task *domain.Task, out io.Writer) ([]string, error) {
	e.mu.RLock()
	action, ok := e.actions[task.Name.String()]
	e.mu.RUnlock()

	if !ok {
		if task.Category != domain.CategoryNone {
			return nil, zerr.With(domain.ErrNoActionBound, "task", task.Name.String())
		}
		return nil, nil
	}

	return action(ctx, out)
}
