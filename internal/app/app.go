// Package app implements the application layer for press.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/press/internal/adapters/detector"
	"go.trai.ch/press/internal/adapters/devserver"
	"go.trai.ch/press/internal/adapters/imaging"
	"go.trai.ch/press/internal/adapters/metrics"
	"go.trai.ch/press/internal/adapters/minify"
	"go.trai.ch/press/internal/adapters/sass"
	"go.trai.ch/press/internal/adapters/telemetry"
	"go.trai.ch/press/internal/adapters/tui"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/press/internal/engine/devloop"
	"go.trai.ch/press/internal/engine/pipeline"
	"go.trai.ch/press/internal/engine/runner"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	commands     ports.CommandRunner
	resolver     ports.SourceResolver
	hasher       ports.Hasher
	store        ports.BuildInfoStore
	prefixer     ports.Prefixer
	watcher      ports.Watcher
	tracer       ports.Tracer
	renderer     ports.Renderer
	metrics      *metrics.Recorder
	teaOptions   []tea.ProgramOption
}

// Deps are the collaborators of an App.
type Deps struct {
	ConfigLoader ports.ConfigLoader
	Logger       ports.Logger
	Commands     ports.CommandRunner
	Resolver     ports.SourceResolver
	Hasher       ports.Hasher
	Store        ports.BuildInfoStore
	Prefixer     ports.Prefixer
	Watcher      ports.Watcher
	Tracer       ports.Tracer
	Renderer     ports.Renderer
	Metrics      *metrics.Recorder
}

// New creates a new App instance.
func New(d Deps) *App {
	return &App{
		configLoader: d.ConfigLoader,
		logger:       d.Logger,
		commands:     d.Commands,
		resolver:     d.Resolver,
		hasher:       d.Hasher,
		store:        d.Store,
		prefixer:     d.Prefixer,
		watcher:      d.Watcher,
		tracer:       d.Tracer,
		renderer:     d.Renderer,
		metrics:      d.Metrics,
	}
}

// WithTeaOptions adds options to the interactive renderer's program.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	// ConfigPath is the project configuration file. A missing file means defaults.
	ConfigPath string
	// Output selects the renderer. Runs that reach the watch task always
	// render linearly.
	Output detector.OutputMode
}

// Run executes the named tasks one after the other.
// A run that reached the watch task and was then cancelled succeeds.
func (a *App) Run(ctx context.Context, targetNames []string, opts RunOptions) error {
	if len(targetNames) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	cfg, err := a.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	graph, err := pipeline.NewGraph()
	if err != nil {
		return err
	}
	for _, name := range targetNames {
		if _, ok := graph.GetTask(name); !ok {
			return zerr.With(domain.ErrTaskNotFound, "task", name)
		}
	}

	renderer, tracer := a.renderer, a.tracer
	if a.interactive(graph, targetNames, opts.Output) {
		optsTea := append([]tea.ProgramOption{tea.WithContext(ctx)}, a.teaOptions...)
		renderer = tui.NewRenderer(tui.NewModel(os.Stdout), optsTea...)
		tracer = telemetry.NewRendererTracer(renderer)
	}

	r, watching := a.assemble(cfg, graph, tracer)

	if err := renderer.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = renderer.Stop()
	}()

	for _, name := range targetNames {
		if _, err := r.Run(ctx, graph, name); err != nil {
			if *watching && errors.Is(err, context.Canceled) {
				return nil
			}
			return errors.Join(domain.ErrBuildExecutionFailed, err)
		}
	}
	return nil
}

// interactive reports whether the run uses the TUI renderer.
func (a *App) interactive(graph *domain.Graph, targetNames []string, requested detector.OutputMode) bool {
	if detector.Resolve(detector.DetectEnvironment(), requested) != detector.ModeTUI {
		return false
	}
	for _, name := range targetNames {
		plan, err := graph.Plan(name)
		if err != nil {
			return false
		}
		if slices.ContainsFunc(plan, func(t domain.Task) bool { return t.Name.String() == pipeline.TaskWatch }) {
			return false
		}
	}
	return true
}

// assemble builds the runner for cfg. The returned flag is set once the watch
// task has started.
func (a *App) assemble(cfg *domain.Config, graph *domain.Graph, tracer ports.Tracer) (*runner.Runner, *bool) {
	minifier := minify.New(cfg.Styles.Compatibility)
	exec := pipeline.NewExecutor(cfg, pipeline.Steps{
		Resolver:   a.resolver,
		Compiler:   sass.NewCompiler(a.commands, cfg.Styles.Command),
		Prefixer:   a.prefixer,
		Minifier:   minifier,
		Compressor: imaging.NewCompressor(minifier, a.commands, cfg.Images),
	})
	r := runner.New(exec, a.hasher, a.store, tracer, a.metrics, a.logger)

	server := devserver.New(cfg.Server, cfg.ServeRoot, a.metrics.Handler(), a.logger)
	loop := devloop.New(devloop.Deps{
		Config:   cfg,
		Graph:    graph,
		Runner:   r,
		Server:   server,
		Reloader: server,
		Watcher:  a.watcher,
		Resolver: a.resolver,
		Metrics:  a.metrics,
		Logger:   a.logger,
	})

	watching := new(bool)
	exec.Handle(pipeline.TaskWatch, func(ctx context.Context, out io.Writer) ([]string, error) {
		*watching = true
		_, _ = fmt.Fprintf(out, "serving %s at %s\n", cfg.ServeRoot, server.URL())
		return nil, loop.Run(ctx)
	})

	return r, watching
}

// Tasks returns the task table in definition order.
func (a *App) Tasks() []domain.Task {
	tasks := pipeline.Tasks()
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		out[i] = *t
	}
	return out
}

// Status returns the last build record of every task.
func (a *App) Status() ([]domain.BuildInfo, error) {
	return a.store.List()
}

// jsonLogger is implemented by loggers that can switch to JSON output.
type jsonLogger interface {
	SetJSON(enable bool)
}

// SetJSONLogs switches the logger to JSON output when it supports it.
func (a *App) SetJSONLogs(enable bool) {
	if l, ok := a.logger.(jsonLogger); ok {
		l.SetJSON(enable)
	}
}
