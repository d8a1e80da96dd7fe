package reconcile

import (
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/custlist/pkg/constants"
	"github.com/agentstation/custlist/pkg/errors"
)

// Clock returns the current time. Tests pin it to get stable history notes.
type Clock func() time.Time

type options struct {
	clock      Clock
	dateLayout string
}

func defaultOptions() *options {
	return &options{
		clock:      func() time.Time { return utc.Now().Time },
		dateLayout: constants.DateLayout,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithClock sets the time source used to date merge annotations.
func WithClock(clock Clock) Option {
	return func(o *options) error {
		if clock == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.clock = clock
		return nil
	}
}

// WithDateLayout sets the layout of the date in "<date>:updated" annotations.
func WithDateLayout(layout string) Option {
	return func(o *options) error {
		if layout == "" {
			return &errors.ValidationError{Field: "date_layout", Message: "cannot be empty"}
		}
		o.dateLayout = layout
		return nil
	}
}
