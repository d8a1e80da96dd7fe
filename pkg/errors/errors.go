// Package errors holds the error types custlist reports.
//
// Store-level failures (a locked output, a missing email column, a canceled
// run) abort a run and leave persisted files untouched. Row-level problems
// never surface here; they become warnings on the run summary.
package errors

import (
	"errors"
	"fmt"
)

// New is errors.New, re-exported so callers need a single import.
var New = errors.New

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrMissingColumn = errors.New("missing column")
	ErrLocked        = errors.New("file locked")
	ErrCanceled      = errors.New("operation canceled")
)

// NotFoundError reports a lookup that matched nothing, such as a serial with
// no journaled decisions.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError reports an invalid setting or argument.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError creates a ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError reports a run that cannot proceed with the given settings or input layout.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Component == "" {
		return "configuration error: " + e.Message
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a ConfigError.
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// MissingColumnError is raised when no extracted table exposes a required column.
type MissingColumnError struct {
	Column     string
	Candidates []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %s not found (looked for %v)", e.Column, e.Candidates)
}

func (e *MissingColumnError) Is(target error) bool { return target == ErrMissingColumn }

// LockedError reports an output held by another process, typically a
// workbook left open in a spreadsheet application.
type LockedError struct {
	Path string
	Err  error
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s is locked by another process; close it and run again: %v", e.Path, e.Err)
}

func (e *LockedError) Unwrap() error { return e.Err }

func (e *LockedError) Is(target error) bool { return target == ErrLocked }

// NewLockedError creates a LockedError.
func NewLockedError(path string, err error) *LockedError {
	return &LockedError{Path: path, Err: err}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsMissingColumn reports whether err is a MissingColumnError.
func IsMissingColumn(err error) bool { return errors.Is(err, ErrMissingColumn) }

// IsLocked reports whether err is a LockedError.
func IsLocked(err error) bool { return errors.Is(err, ErrLocked) }

// IsCanceled reports whether err stems from a canceled run.
func IsCanceled(err error) bool { return errors.Is(err, ErrCanceled) }

// ParseError reports unreadable csv, xlsx or yaml content.
type ParseError struct {
	Format  string
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("parse error in %s at %s:%d:%d: %s", e.Format, e.File, e.Line, e.Column, e.Message)
	case e.File != "":
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	default:
		return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// IOError reports a failed filesystem operation on Path.
type IOError struct {
	Operation string
	Path      string
	Message   string
	Err       error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
}

func (e *IOError) Unwrap() error { return e.Err }

// NewIOError creates an IOError.
func NewIOError(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Message: message(err), Err: err}
}

// ResourceError reports a failed operation on one of the run's resources:
// the master, an export, the settings file or the journal.
type ResourceError struct {
	Operation string
	Resource  string
	ID        string
	Message   string
	Err       error
}

func (e *ResourceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
	}
	return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// WrapIO wraps err as an IOError. It returns nil for a nil err.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps err as a ResourceError. It returns nil for a nil err.
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Message: err.Error(), Err: err}
}

// WrapParse wraps err as a ParseError on file. It returns nil for a nil err.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

func message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
