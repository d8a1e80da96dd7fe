// Package logging builds the zerolog loggers custlist runs with and carries
// them through a context.Context.
//
//	ctx = logging.WithLogger(ctx, &logger)
//	ctx = logging.WithRunID(ctx, runID)
//	logging.FromContext(ctx).Info().Int("rows", n).Msg("extracted input")
//
// Code that receives a context without a logger still logs warnings and
// errors to stderr.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/agentstation/custlist/pkg/constants"
)

// fallback serves contexts that carry no logger.
var fallback = build(&Config{Level: "warn", Format: "auto", Output: "stderr", NoColor: os.Getenv("NO_COLOR") != ""}, nil)

// build creates the logger described by cfg, teeing into extra when set.
func build(cfg *Config, extra io.Writer) zerolog.Logger {
	level := ParseLevel(cfg.Level)
	w := writer(cfg)
	if extra != nil {
		w = zerolog.MultiLevelWriter(w, extra)
	}
	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	if cfg.AddCaller || level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// writer resolves cfg.Output and cfg.Format. A file output that cannot be
// opened falls back to stderr.
func writer(cfg *Config) io.Writer {
	var out io.Writer
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	case "discard", "none":
		return io.Discard
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
		if err != nil {
			out = os.Stderr
		} else {
			out = f
		}
	}

	console := false
	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		console = true
	case "", "auto":
		f, ok := out.(*os.File)
		console = ok && (f == os.Stderr || f == os.Stdout) && isatty.IsTerminal(f.Fd())
	}
	if !console {
		return out
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: timeLayout(cfg.TimeFormat), NoColor: cfg.NoColor}
}

// ParseLevel maps a level name to a zerolog level. Unknown names yield info.
func ParseLevel(level string) zerolog.Level {
	switch l := strings.ToLower(strings.TrimSpace(level)); l {
	case "", "info":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "off", "none", "disabled":
		return zerolog.Disabled
	default:
		if parsed, err := zerolog.ParseLevel(l); err == nil {
			return parsed
		}
		return zerolog.InfoLevel
	}
}

func timeLayout(name string) string {
	switch strings.ToLower(name) {
	case "", "kitchen":
		return time.Kitchen
	case "rfc3339":
		return time.RFC3339
	case "datetime":
		return time.DateTime
	}
	if strings.Contains(name, "2006") || strings.Contains(name, "15:04") {
		return name
	}
	return time.Kitchen
}
