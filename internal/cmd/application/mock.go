// Package application provides a configurable Application for command tests.
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/custlist/pkg/constants"
	"github.com/agentstation/custlist/pkg/logging"
)

// Mock provides a mock implementation of cmd/application.Application.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default value.
type Mock struct {
	LoggerFunc       func() *zerolog.Logger
	LogConfigFunc    func() *logging.Config
	OutputFormatFunc func() string
	SettingsFileFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	return logging.NewNopLogger()
}

// LogConfig returns a logging config using the mock function or the defaults.
func (m *Mock) LogConfig() *logging.Config {
	if m.LogConfigFunc != nil {
		return m.LogConfigFunc()
	}
	return logging.DefaultConfig()
}

// OutputFormat returns output format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// SettingsFile returns the settings path using the mock function or the default.
func (m *Mock) SettingsFile() string {
	if m.SettingsFileFunc != nil {
		return m.SettingsFileFunc()
	}
	return constants.DefaultSettingsFile
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builder using the mock function or "unknown".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "unknown"
}
