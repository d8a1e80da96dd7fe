package custlist

import (
	"time"

	"github.com/agentstation/custlist/internal/config"
	"github.com/agentstation/custlist/pkg/constants"
	"github.com/agentstation/custlist/pkg/errors"
	"github.com/agentstation/custlist/pkg/logging"
	"github.com/agentstation/custlist/pkg/serial"
)

// Option configures a run.
type Option func(*options) error

type options struct {
	settings     *config.Settings
	settingsFile string
	overwrite    bool
	dryRun       bool
	reportPath   string
	clock        func() time.Time
	logConfig    *logging.Config
	serialOpts   []serial.Option
	runID        string
}

func defaultOptions() *options {
	return &options{
		settingsFile: constants.DefaultSettingsFile,
		clock:        time.Now,
	}
}

func newOptions(opts ...Option) (*options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithSettingsFile reads settings from path. The serial counter is written
// back to the same file after a successful run.
func WithSettingsFile(path string) Option {
	return func(o *options) error {
		o.settingsFile = path
		return nil
	}
}

// WithSettings uses already loaded settings. The counter is still persisted
// to the settings file unless WithSettingsFile("") is also given.
func WithSettings(s *config.Settings) Option {
	return func(o *options) error {
		if s == nil {
			return errors.NewValidationError("settings", nil, "must not be nil")
		}
		o.settings = s
		return nil
	}
}

// WithOverwrite replaces the master instead of reconciling against it.
// Serials already in the old master are still never reissued.
func WithOverwrite(enabled bool) Option {
	return func(o *options) error {
		o.overwrite = enabled
		return nil
	}
}

// WithDryRun reconciles without writing the master, the exports or the counter.
func WithDryRun(enabled bool) Option {
	return func(o *options) error {
		o.dryRun = enabled
		return nil
	}
}

// WithReport writes a markdown run report to path.
func WithReport(path string) Option {
	return func(o *options) error {
		o.reportPath = path
		return nil
	}
}

// WithClock sets the time source for history dates, file stamps and backups.
func WithClock(clock func() time.Time) Option {
	return func(o *options) error {
		if clock == nil {
			return errors.NewValidationError("clock", nil, "must not be nil")
		}
		o.clock = clock
		return nil
	}
}

// WithLogConfig configures the console side of the per-run log file.
func WithLogConfig(cfg *logging.Config) Option {
	return func(o *options) error {
		o.logConfig = cfg
		return nil
	}
}

// WithSerialOptions passes options to the serial issuer.
func WithSerialOptions(opts ...serial.Option) Option {
	return func(o *options) error {
		o.serialOpts = append(o.serialOpts, opts...)
		return nil
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(o *options) error {
		o.runID = id
		return nil
	}
}
