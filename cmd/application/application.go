// Package application provides the application interface for custlist commands.
//
// The Application interface defines the contract between the application layer and
// command implementations, enabling dependency injection and testability.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            ctx := logging.WithLogger(cmd.Context(), app.Logger())
//	            summary, err := custlist.Run(ctx, args[0],
//	                custlist.WithSettingsFile(app.SettingsFile()))
//	            // ...
//	        },
//	    }
//	}
//
// Testing with Mocks:
//
//	mock := &application.Mock{
//	    SettingsFileFunc: func() string { return settingsPath },
//	}
//	cmd := run.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/custlist/pkg/logging"
)

// Application provides what commands need from the CLI application.
// The App struct from cmd/custlist/app implements this interface.
type Application interface {
	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// LogConfig returns the configuration the logger was built from.
	LogConfig() *logging.Config

	// OutputFormat returns the configured output format (table, json, yaml).
	// Empty means detect from the terminal.
	OutputFormat() string

	// SettingsFile returns the settings document runs read and update.
	SettingsFile() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
