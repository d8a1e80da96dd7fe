// Package alerts prints run outcomes and failures for people at a terminal.
package alerts

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/agentstation/custlist/pkg/errors"
)

// Alert represents a status notification.
type Alert struct {
	Level   Level
	Message string
	Details []string
	Err     error
}

// New creates a new alert with the given level and message.
func New(level Level, message string) *Alert {
	return &Alert{Level: level, Message: message}
}

// NewError creates a new error alert.
func NewError(message string) *Alert {
	return New(LevelError, message)
}

// NewWarning creates a new warning alert.
func NewWarning(message string) *Alert {
	return New(LevelWarning, message)
}

// WithError adds an underlying error to the alert.
func (a *Alert) WithError(err error) *Alert {
	a.Err = err
	return a
}

// WithDetails adds additional context details to the alert.
func (a *Alert) WithDetails(details ...string) *Alert {
	a.Details = append(a.Details, details...)
	return a
}

// String returns the alert on one line.
func (a *Alert) String() string {
	message := a.Level.Icon() + " " + a.Message
	if a.Err != nil {
		message += ": " + a.Err.Error()
	}
	return message
}

// FromError turns a run failure into an alert with a hint on how to recover.
func FromError(err error) *Alert {
	a := NewError("custlist failed").WithError(err)

	var missing *errors.MissingColumnError
	switch {
	case errors.IsLocked(err):
		a.WithDetails("close the master or export in the program holding it and run again")
	case stderrors.As(err, &missing):
		a.WithDetails(fmt.Sprintf("add the %s header to the input or one of its names to columns.%s in the settings file",
			strings.Join(missing.Candidates, " / "), missing.Column))
	case errors.IsCanceled(err):
		a.Message = "custlist interrupted"
		a.WithDetails("no file was changed")
	case errors.IsNotFound(err):
		a.WithDetails("the serial may predate paths.audit_db or belong to another master")
	case errors.IsValidationError(err):
		a.WithDetails("check the settings file")
	}
	return a
}

// Writer handles alert output.
type Writer interface {
	WriteAlert(alert *Alert) error
}

// WriterFunc is an adapter to allow functions to be used as Writers.
type WriterFunc func(*Alert) error

// WriteAlert calls the function.
func (f WriterFunc) WriteAlert(alert *Alert) error {
	return f(alert)
}

// DiscardWriter is a Writer that discards all alerts.
var DiscardWriter Writer = WriterFunc(func(*Alert) error { return nil })

// NewWriterTo creates a Writer that prints alerts and their details to w,
// colored when w is a terminal.
func NewWriterTo(w io.Writer) Writer {
	color := isTerminal(w)
	return WriterFunc(func(alert *Alert) error {
		line := alert.String()
		if color {
			line = alert.Level.Color() + line + resetColor
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		for _, d := range alert.Details {
			if _, err := fmt.Fprintf(w, "   %s\n", d); err != nil {
				return err
			}
		}
		return nil
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
