package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/custlist/internal/cmd/alerts"
)

// Execute runs the custlist CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "custlist",
		Short:   "Customer list reconciliation",
		Version: a.version,
		Long: `custlist merges customer rows exported from event workbooks into one
deduplicated master list.

Each run reads a workbook of titled tables, folds repeated rows per person,
and reconciles the people against the master: unknown people get a new
serial, a person seen again at a known event gets a sibling record citing
the earlier one, and a known person at a new event is merged into their
earliest record.

Runs against the same master must not overlap. custlist does not lock the
master; serializing runs is the caller's responsibility.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.SettingsFile, "settings", a.config.SettingsFile, "settings file")
	flags.BoolVarP(&a.config.Verbose, "verbose", "v", a.config.Verbose, "verbose output (shortcut for --loglevel=debug)")
	flags.BoolVarP(&a.config.Quiet, "quiet", "q", a.config.Quiet, "minimal output (shortcut for --loglevel=warn)")
	flags.BoolVar(&a.config.NoColor, "no-color", a.config.NoColor, "disable colored output")
	flags.StringVarP(&a.config.Format, "format", "o", a.config.Format, "output format: table, json, yaml")
	flags.StringVar(&a.config.LogLevel, "loglevel", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	// --log-level is accepted for consistency with other tools.
	flags.StringVar(&a.config.LogLevel, "log-level", "", "")
	_ = flags.MarkHidden("log-level")

	rootCmd.SetVersionTemplate("custlist {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand rebuilds the logger once flags are parsed.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	a.config.UpdateFromFlags(
		mustGetBool(cmd, "verbose"),
		mustGetBool(cmd, "quiet"),
		mustGetBool(cmd, "no-color"),
		mustGetString(cmd, "format"),
		mustGetString(cmd, "loglevel"),
		mustGetString(cmd, "settings"),
	)

	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(a.NewRunCommand())
	rootCmd.AddCommand(a.NewInspectCommand())
	rootCmd.AddCommand(a.NewVersionCommand())
}

// ExitOnError prints an error with a recovery hint and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_ = alerts.NewWriterTo(os.Stderr).WriteAlert(alerts.FromError(err))
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
