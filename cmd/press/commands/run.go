package commands

import (
	"github.com/spf13/cobra"
)

// newTaskCmd creates a command running a single task.
func (c *CLI) newTaskCmd(task, short string) *cobra.Command {
	return &cobra.Command{
		Use:   task,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd.Context(), task)
		},
	}
}

func (c *CLI) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [tasks...]",
		Short: "Run the given tasks in order",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			return c.run(cmd.Context(), args...)
		},
	}
}
