package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/ui/style"
)

func (c *CLI) newTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the available tasks",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			tasks := c.app.Tasks()
			width := 0
			for _, t := range tasks {
				width = max(width, len(t.Name.String()))
			}

			name := lipgloss.NewStyle().Width(width + 2)
			dim := lipgloss.NewStyle().Foreground(style.Slate)
			out := cmd.OutOrStdout()
			for _, t := range tasks {
				line := name.Render(t.Name.String()) + t.Description
				if len(t.Dependencies) > 0 {
					deps := make([]string, len(t.Dependencies))
					for i, d := range t.Dependencies {
						deps[i] = d.String()
					}
					line += dim.Render(" (" + strings.Join(deps, ", ") + ")")
				}
				_, _ = fmt.Fprintln(out, line)
			}
		},
	}
}

func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last run of every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := c.app.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				_, _ = fmt.Fprintln(out, "no builds recorded")
				return nil
			}

			width := 0
			for _, r := range records {
				width = max(width, len(r.TaskName))
			}
			name := lipgloss.NewStyle().Width(width + 2)
			for _, r := range records {
				_, _ = fmt.Fprintln(out, name.Render(r.TaskName)+statusLine(r))
			}
			return nil
		},
	}
}

func statusLine(r domain.BuildInfo) string {
	icon := lipgloss.NewStyle().Foreground(style.Green).Render(style.Check)
	if r.Failed {
		icon = lipgloss.NewStyle().Foreground(style.Red).Render(style.Cross)
	}

	line := fmt.Sprintf("%s %s  %d files  %s", icon, r.Timestamp.Format(time.DateTime), r.Outputs, r.Duration.Round(time.Millisecond))
	if r.OutputHash != "" {
		line += "  " + r.OutputHash
	}
	if r.Failed {
		line += "  " + r.Error
	}
	return line
}
