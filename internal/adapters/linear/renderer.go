// Package linear provides a synchronous, line-oriented renderer for task progress.
package linear

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/press/internal/ui/output"
	"go.trai.ch/press/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer implements ports.Renderer for logs and pipes.
// Status lines go to stderr. Task output goes to stdout, one line at a time,
// prefixed with the task name.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	out    *termenv.Output

	mu    sync.Mutex
	spans map[string]*span
}

type span struct {
	task    string
	started time.Time
	lines   output.Lines
}

// NewRenderer creates a new Renderer. Nil writers default to the process streams.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		stdout: stdout,
		stderr: stderr,
		out:    output.NewWithProfile(stderr, output.ColorProfileANSI),
		spans:  make(map[string]*span),
	}
}

// Start does nothing; output is written as events arrive.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop prints the unterminated output of tasks that are still running.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.spans {
		r.flushLocked(s)
	}
	return nil
}

// OnPlanEmit prints the execution order of a run.
func (r *Renderer) OnPlanEmit(tasks []string, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.stderr, "Running %s: %s\n", target, strings.Join(tasks, " "+style.Arrow+" "))
}

// OnTaskStart prints a task start message.
func (r *Renderer) OnTaskStart(spanID, _ /* parentID */, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.spans[spanID] = &span{task: name, started: startTime}
	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", r.out.String(prefix(name)).Faint())
}

// OnTaskLog prints the complete lines of data.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.spans[spanID]
	if !ok {
		return
	}
	for _, line := range s.lines.Feed(data) {
		r.printLocked(s.task, line)
	}
}

// OnTaskComplete prints the remaining output and the outcome of the task.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.spans[spanID]
	if !ok {
		return
	}
	delete(r.spans, spanID)
	r.flushLocked(s)

	elapsed := endTime.Sub(s.started).Round(time.Millisecond)
	if err != nil {
		mark := r.out.String(style.Cross).Foreground(termenv.ANSIRed)
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix(s.task), mark, elapsed, err)
		return
	}
	mark := r.out.String(style.Check).Foreground(termenv.ANSIGreen)
	_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n", prefix(s.task), mark, elapsed)
}

func prefix(task string) string {
	return "[" + task + "]"
}

// flushLocked prints the unterminated output of s. r.mu must be held.
func (r *Renderer) flushLocked(s *span) {
	if rest, ok := s.lines.Flush(); ok {
		r.printLocked(s.task, rest)
	}
}

// printLocked writes one task output line. r.mu must be held.
func (r *Renderer) printLocked(task, line string) {
	_, _ = fmt.Fprintf(r.stdout, "%s %s\n", prefix(task), line)
}
