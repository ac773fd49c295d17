package tui

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/press/internal/core/ports"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer wraps the Bubble Tea program as a ports.Renderer.
type Renderer struct {
	program *tea.Program
	model   *Model

	once    sync.Once
	started bool
	done    chan struct{}
	err     error
}

// NewRenderer creates a renderer for model. The program reads no input so
// interrupts reach the process signal handler.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	opts = append([]tea.ProgramOption{tea.WithInput(nil), tea.WithoutSignalHandler()}, opts...)
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		model:   model,
		done:    make(chan struct{}),
	}
}

// Start launches the program in a background goroutine.
func (r *Renderer) Start(_ context.Context) error {
	r.once.Do(func() {
		r.started = true
		go func() {
			defer close(r.done)
			if _, err := r.program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				r.err = err
			}
		}()
	})
	return nil
}

// Stop renders the final frame and waits for the program to exit.
func (r *Renderer) Stop() error {
	if !r.started {
		return nil
	}
	r.program.Send(msgStop{})
	<-r.done
	return r.err
}

// OnPlanEmit adds a run with the planned tasks.
func (r *Renderer) OnPlanEmit(tasks []string, target string) {
	r.program.Send(msgPlan{tasks: tasks, target: target})
}

// OnTaskStart marks the task as running.
func (r *Renderer) OnTaskStart(spanID, _ /* parentID */, name string, startTime time.Time) {
	r.program.Send(msgTaskStart{spanID: spanID, name: name, startTime: startTime})
}

// OnTaskLog appends output to the task.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.program.Send(msgTaskLog{spanID: spanID, data: data})
}

// OnTaskComplete records the outcome of the task.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.program.Send(msgTaskComplete{spanID: spanID, endTime: endTime, err: err})
}
