package store

import (
	"context"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/custlist/pkg/errors"
)

// Styler formats a committed workbook.
type Styler interface {
	Style(ctx context.Context, path string) error
}

type options struct {
	backupDir string
	clock     func() time.Time
	styler    Styler
	encoding  exportEncoding
}

func defaultOptions() *options {
	return &options{
		clock:    func() time.Time { return utc.Now().Time },
		encoding: exportEncoding{EncodingUTF8},
	}
}

// Option configures a Writer.
type Option func(*options) error

// WithBackupDir sets where the previous master is copied before a commit.
// An empty dir disables backups.
func WithBackupDir(dir string) Option {
	return func(o *options) error {
		o.backupDir = dir
		return nil
	}
}

// WithClock sets the time source used to stamp backup names.
func WithClock(clock func() time.Time) Option {
	return func(o *options) error {
		if clock == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.clock = clock
		return nil
	}
}

// WithStyler sets the formatter applied to a committed workbook master.
func WithStyler(s Styler) Option {
	return func(o *options) error {
		o.styler = s
		return nil
	}
}

// WithExportEncoding sets the text encoding of the flat exports.
func WithExportEncoding(name string) Option {
	return func(o *options) error {
		enc, err := parseEncoding(name)
		if err != nil {
			return err
		}
		o.encoding = enc
		return nil
	}
}
