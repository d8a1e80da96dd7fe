package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type loggerKey struct{}

// WithLogger returns a copy of ctx carrying logger. A nil logger leaves ctx
// with the stderr fallback.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = &fallback
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger carried by ctx, or the stderr fallback.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(*zerolog.Logger); ok && logger != nil {
			return logger
		}
	}
	return &fallback
}

func withStr(ctx context.Context, key, value string) context.Context {
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, &logger)
}

// WithRunID tags every later log line with the run ID.
func WithRunID(ctx context.Context, runID string) context.Context {
	return withStr(ctx, "run_id", runID)
}

// WithInput tags every later log line with the input workbook.
func WithInput(ctx context.Context, path string) context.Context {
	return withStr(ctx, "input", path)
}

// WithOperation tags every later log line with the pipeline stage.
func WithOperation(ctx context.Context, operation string) context.Context {
	return withStr(ctx, "operation", operation)
}

// WithSerial tags every later log line with the serial being handled.
func WithSerial(ctx context.Context, serial string) context.Context {
	return withStr(ctx, "serial", serial)
}
