// Package tui renders task progress as an inline Bubble Tea view.
package tui

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/press/internal/ui/output"
)

// TaskStatus represents the current state of a task.
type TaskStatus int

const (
	// StatusPending indicates the task is waiting to start.
	StatusPending TaskStatus = iota
	// StatusRunning indicates the task is currently executing.
	StatusRunning
	// StatusDone indicates the task completed successfully.
	StatusDone
	// StatusError indicates the task failed.
	StatusError
)

// TaskNode is one row of a run.
type TaskNode struct {
	Name      string
	Status    TaskStatus
	StartTime time.Time
	EndTime   time.Time
	// Lines holds the complete output lines of the task.
	Lines []string
	Err   error

	lines output.Lines
}

// LastLine returns the most recent output line, or "".
func (n *TaskNode) LastLine() string {
	if pending := n.lines.Pending(); pending != "" {
		return pending
	}
	if len(n.Lines) == 0 {
		return ""
	}
	return n.Lines[len(n.Lines)-1]
}

func (n *TaskNode) write(data []byte) {
	n.Lines = append(n.Lines, n.lines.Feed(data)...)
}

func (n *TaskNode) flush() {
	if rest, ok := n.lines.Flush(); ok {
		n.Lines = append(n.Lines, rest)
	}
}

// Run groups the tasks planned for one target.
type Run struct {
	Target string
	Tasks  []*TaskNode
}

func (r *Run) find(name string) *TaskNode {
	for _, t := range r.Tasks {
		if t.Name == name && t.Status == StatusPending {
			return t
		}
	}
	return nil
}

// Model is the Bubble Tea model of the progress view.
type Model struct {
	Runs  []*Run
	Width int

	spans   map[string]*TaskNode
	spinner spinner.Model
	styles  styles
	done    bool
}

// NewModel creates an empty model whose colors are chosen for w.
func NewModel(w io.Writer) *Model {
	if w == nil {
		w = os.Stdout
	}
	return &Model{
		spans:   make(map[string]*TaskNode),
		spinner: spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		styles:  newStyles(w),
	}
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles incoming messages and updates the model state.
//
//nolint:cyclop // message dispatch
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.Width = msg.Width

	case msgPlan:
		run := &Run{Target: msg.target, Tasks: make([]*TaskNode, len(msg.tasks))}
		for i, name := range msg.tasks {
			run.Tasks[i] = &TaskNode{Name: name}
		}
		m.Runs = append(m.Runs, run)

	case msgTaskStart:
		node := m.claim(msg.name)
		node.Status = StatusRunning
		node.StartTime = msg.startTime
		m.spans[msg.spanID] = node

	case msgTaskLog:
		if node, ok := m.spans[msg.spanID]; ok {
			node.write(msg.data)
		}

	case msgTaskComplete:
		if node, ok := m.spans[msg.spanID]; ok {
			node.flush()
			node.EndTime = msg.endTime
			node.Status = StatusDone
			if msg.err != nil {
				node.Status = StatusError
				node.Err = msg.err
			}
			delete(m.spans, msg.spanID)
		}

	case msgStop:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// claim returns the pending row for name in the latest run, adding one when
// the task was not planned.
func (m *Model) claim(name string) *TaskNode {
	if len(m.Runs) == 0 {
		m.Runs = append(m.Runs, &Run{})
	}
	run := m.Runs[len(m.Runs)-1]
	if node := run.find(name); node != nil {
		return node
	}
	node := &TaskNode{Name: name}
	run.Tasks = append(run.Tasks, node)
	return node
}
