package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDetermineLogLevel tests the log level precedence logic.
func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{
			name:     "default level when no flags set",
			config:   &Config{},
			expected: "info",
		},
		{
			name:     "verbose flag sets debug",
			config:   &Config{Verbose: true},
			expected: "debug",
		},
		{
			name:     "quiet flag sets warn",
			config:   &Config{Quiet: true},
			expected: "warn",
		},
		{
			name:     "explicit loglevel overrides verbose",
			config:   &Config{LogLevel: "error", Verbose: true},
			expected: "error",
		},
		{
			name:     "explicit loglevel is case-insensitive",
			config:   &Config{LogLevel: "DEBUG"},
			expected: "debug",
		},
		{
			name:     "warning is accepted",
			config:   &Config{LogLevel: "WARNING"},
			expected: "warn",
		},
		{
			name:     "both verbose and quiet uses quiet",
			config:   &Config{Verbose: true, Quiet: true},
			expected: "warn",
		},
		{
			name:     "environment applies without flags",
			config:   &Config{EnvLogLevel: "trace"},
			expected: "trace",
		},
		{
			name:     "flags override environment",
			config:   &Config{EnvLogLevel: "trace", Quiet: true},
			expected: "warn",
		},
		{
			name:     "invalid level falls back to info",
			config:   &Config{LogLevel: "loud"},
			expected: "info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, determineLogLevel(tt.config))
		})
	}
}

func TestNewLogConfigAddsCallerForDebug(t *testing.T) {
	cfg := newLogConfig(&Config{Verbose: true, LogFormat: "json", LogOutput: "stderr"})
	assert.Equal(t, "debug", cfg.Level)
	assert.True(t, cfg.AddCaller)

	cfg = newLogConfig(&Config{LogFormat: "json", LogOutput: "stderr"})
	assert.False(t, cfg.AddCaller)
}
