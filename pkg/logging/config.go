package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// Config describes a logger.
type Config struct {
	// Level is trace, debug, info, warn, error or off.
	Level string

	// Format is json, console or auto. Auto picks console on a terminal.
	Format string

	// Output is stderr, stdout, discard or a file path to append to.
	Output string

	// TimeFormat is kitchen, rfc3339, datetime or a Go layout; console only.
	TimeFormat string

	NoColor bool

	// AddCaller includes file:line. Debug and trace always include it.
	AddCaller bool
}

// DefaultConfig logs info and above to stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:   "info",
		Format:  "auto",
		Output:  "stderr",
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// NewLoggerFromConfig creates a logger from cfg and lowers zerolog's global
// level to match, so the logger's own level is what filters.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	return build(cfg, nil)
}
