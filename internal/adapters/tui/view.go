package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/press/internal/ui/style"
)

const pendingIcon = "·"

// View renders every run with one row per task.
func (m *Model) View() string {
	var s strings.Builder

	width := 0
	for _, run := range m.Runs {
		for _, t := range run.Tasks {
			width = max(width, lipgloss.Width(t.Name))
		}
	}
	name := lipgloss.NewStyle().Width(width + 2)

	for _, run := range m.Runs {
		if run.Target != "" {
			s.WriteString(m.styles.header.Render("Running "+run.Target) + "\n")
		}
		for _, t := range run.Tasks {
			s.WriteString("  " + m.icon(t) + " " + name.Render(t.Name) + m.detail(t) + "\n")
			if t.Status == StatusError && t.Err != nil {
				s.WriteString(m.styles.failed.Render("    "+t.Err.Error()) + "\n")
			}
		}
	}

	return s.String()
}

func (m *Model) icon(t *TaskNode) string {
	switch t.Status {
	case StatusRunning:
		if m.done {
			return m.styles.running.Render(pendingIcon)
		}
		return m.styles.running.Render(m.spinner.View())
	case StatusDone:
		return m.styles.done.Render(style.Check)
	case StatusError:
		return m.styles.failed.Render(style.Cross)
	default:
		return m.styles.pending.Render(pendingIcon)
	}
}

func (m *Model) detail(t *TaskNode) string {
	var parts []string
	if t.Status == StatusDone || t.Status == StatusError {
		parts = append(parts, t.EndTime.Sub(t.StartTime).Round(time.Millisecond).String())
	}
	if line := t.LastLine(); line != "" {
		parts = append(parts, m.truncate(line))
	}
	if len(parts) == 0 {
		return ""
	}
	return m.styles.faint.Render(strings.Join(parts, "  "))
}

// truncate shortens line to the terminal width when it is known.
func (m *Model) truncate(line string) string {
	if m.Width <= 0 {
		return line
	}
	limit := m.Width / 2
	if limit < 1 || lipgloss.Width(line) <= limit {
		return line
	}
	r := []rune(line)
	if len(r) <= limit {
		return line
	}
	return string(r[:limit-1]) + "…"
}
