package tui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/press/internal/ui/output"
	"go.trai.ch/press/internal/ui/style"
)

type styles struct {
	header  lipgloss.Style
	pending lipgloss.Style
	running lipgloss.Style
	done    lipgloss.Style
	failed  lipgloss.Style
	faint   lipgloss.Style
}

// newStyles binds the palette to w, honoring NO_COLOR.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(output.ColorProfile())

	return styles{
		header:  r.NewStyle().Bold(true),
		pending: r.NewStyle().Foreground(style.Slate),
		running: r.NewStyle().Foreground(style.Cyan).Bold(true),
		done:    r.NewStyle().Foreground(style.Green),
		failed:  r.NewStyle().Foreground(style.Red),
		faint:   r.NewStyle().Foreground(style.Slate).Faint(true),
	}
}
