// Package commands implements the CLI commands for press.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/press/internal/adapters/detector"
	"go.trai.ch/press/internal/app"
	"go.trai.ch/press/internal/build"
	"go.trai.ch/press/internal/core/domain"
)

// CLI represents the command line interface for press.
type CLI struct {
	app     Application
	rootCmd *cobra.Command

	configPath string
	jsonLogs   bool
	output     string
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, targetNames []string, opts app.RunOptions) error
	Tasks() []domain.Task
	Status() ([]domain.BuildInfo, error)
	SetJSONLogs(enable bool)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	c := &CLI{app: a}

	rootCmd := &cobra.Command{
		Use:           "press",
		Short:         "Build and serve static site assets",
		Long:          "press compiles, prefixes, minifies and bundles web assets. Without a command it builds, then watches.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			c.app.SetJSONLogs(c.jsonLogs)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd.Context(), "default")
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", domain.ConfigFileName, "Path to the project configuration")
	rootCmd.PersistentFlags().BoolVar(&c.jsonLogs, "json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().StringVarP(&c.output, "output", "o", detector.FlagAuto, "Progress output: auto, tui or linear")

	c.rootCmd = rootCmd

	rootCmd.AddCommand(c.newTaskCmd("build", "Build every asset from scratch"))
	rootCmd.AddCommand(c.newTaskCmd("watch", "Serve the built site and rebuild on change"))
	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newTasksCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) run(ctx context.Context, targets ...string) error {
	mode, err := detector.ParseMode(c.output)
	if err != nil {
		return err
	}
	return c.app.Run(ctx, targets, app.RunOptions{ConfigPath: c.configPath, Output: mode})
}
