// Package commands implements the CLI commands for the gild asset builder.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/gild/internal/app"
	"go.trai.ch/gild/internal/build"
	"go.trai.ch/gild/internal/core/domain"
)

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, targets []string, opts app.Options) error
	List(ctx context.Context, opts app.Options, w io.Writer) error
}

// Option configures a CLI.
type Option func(*CLI)

// WithJSONLogs registers the function that applies the --json flag.
func WithJSONLogs(fn func(bool)) Option {
	return func(c *CLI) {
		c.setJSON = fn
	}
}

// CLI represents the command line interface for gild.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
	setJSON func(bool)

	configPath string
	env        string
	jobs       int
	json       bool
}

// New creates a new CLI instance with the given app.
func New(a Application, opts ...Option) *CLI {
	c := &CLI{app: a}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd := &cobra.Command{
		Use:   "gild [tasks...]",
		Short: "A task runner for front-end asset builds",
		Long: "gild compiles stylesheets, bundles scripts, optimizes images and serves the result " +
			"with live reload.\nWithout arguments it runs the default task.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if c.setJSON != nil {
				c.setJSON(c.json)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Run(cmd.Context(), args, c.options())
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

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", domain.ConfigFileName, "Configuration file, relative to the working directory")
	flags.StringVarP(&c.env, "env", "e", os.Getenv(domain.EnvVar), "Build environment (defaults to $"+domain.EnvVar+", then dev)")
	flags.IntVarP(&c.jobs, "jobs", "j", 0, "Maximum number of tasks running at once (0 uses the configuration)")
	flags.BoolVar(&c.json, "json", false, "Write logs as JSON")

	c.rootCmd = rootCmd

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newTasksCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

func (c *CLI) options() app.Options {
	return app.Options{
		ConfigPath: c.configPath,
		Env:        c.env,
		Jobs:       c.jobs,
	}
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
