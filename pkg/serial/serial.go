// Package serial issues stable, collision-free customer serials.
//
// A serial is prefix + zero-padded counter + random suffix, e.g. "C000123K7".
// The issuer owns the counter for one run: it is loaded once from settings,
// advanced only through Issue, and read back with Next to be persisted.
package serial

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/agentstation/custlist/pkg/constants"
	"github.com/agentstation/custlist/pkg/errors"
)

// Config describes the serial format and the persisted counter.
type Config struct {
	Prefix       string `mapstructure:"prefix" yaml:"prefix" json:"prefix"`
	Digits       int    `mapstructure:"digits" yaml:"digits" json:"digits"`
	Start        int    `mapstructure:"start" yaml:"start" json:"start"`
	RandomSuffix Suffix `mapstructure:"random_suffix" yaml:"random_suffix" json:"random_suffix"`
}

// Suffix configures the random tail of a serial.
type Suffix struct {
	Charset string `mapstructure:"charset" yaml:"charset" json:"charset"`
	Length  int    `mapstructure:"length" yaml:"length" json:"length"`
}

// DefaultConfig returns the format used when settings omit the serial block.
func DefaultConfig() Config {
	return Config{
		Prefix: constants.DefaultSerialPrefix,
		Digits: constants.DefaultSerialDigits,
		Start:  constants.DefaultSerialStart,
		RandomSuffix: Suffix{
			Charset: constants.DefaultSuffixCharset,
			Length:  constants.DefaultSuffixLength,
		},
	}
}

// Validate checks that the configuration can produce serials.
func (c Config) Validate() error {
	if c.Digits <= 0 {
		return errors.NewValidationError("serial.digits", c.Digits, "must be positive")
	}
	if c.Start < 0 {
		return errors.NewValidationError("serial.start", c.Start, "must not be negative")
	}
	if c.RandomSuffix.Length < 0 {
		return errors.NewValidationError("serial.random_suffix.length", c.RandomSuffix.Length, "must not be negative")
	}
	if c.RandomSuffix.Length > 0 && c.RandomSuffix.Charset == "" {
		return errors.NewValidationError("serial.random_suffix.charset", c.RandomSuffix.Charset, "must not be empty when length is positive")
	}
	return nil
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithRand sets the random source used for suffixes.
func WithRand(r *rand.Rand) Option {
	return func(i *Issuer) {
		i.rng = r
	}
}

// Issuer hands out serials for one run. It is not safe for concurrent use.
type Issuer struct {
	prefix  string
	digits  int
	charset []rune
	length  int

	next   int
	used   map[string]struct{}
	issued []string
	rng    *rand.Rand
}

// NewIssuer returns an issuer that never yields a serial contained in used.
func NewIssuer(cfg Config, used []string, opts ...Option) (*Issuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	i := &Issuer{
		prefix:  cfg.Prefix,
		digits:  cfg.Digits,
		charset: []rune(cfg.RandomSuffix.Charset),
		length:  cfg.RandomSuffix.Length,
		next:    cfg.Start,
		used:    make(map[string]struct{}, len(used)),
	}
	for _, s := range used {
		if s != "" {
			i.used[s] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.rng == nil {
		i.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return i, nil
}

// Issue returns a serial not yet used. The counter advances on every attempt,
// including attempts that collide with an existing serial.
func (i *Issuer) Issue() string {
	for {
		candidate := i.format(i.next)
		i.next++
		if _, taken := i.used[candidate]; taken {
			continue
		}
		i.used[candidate] = struct{}{}
		i.issued = append(i.issued, candidate)
		return candidate
	}
}

// Get issues a fresh serial for a person. It never looks up an earlier serial;
// matching people to existing records is the reconciler's job.
func (i *Issuer) Get(name, email string) string {
	return i.Issue()
}

// Next returns the counter value to persist as the next run's start.
func (i *Issuer) Next() int {
	return i.next
}

// Issued lists the serials issued by this issuer, in issue order.
func (i *Issuer) Issued() []string {
	out := make([]string, len(i.issued))
	copy(out, i.issued)
	return out
}

// Used reports whether s is known to the issuer.
func (i *Issuer) Used(s string) bool {
	_, ok := i.used[s]
	return ok
}

func (i *Issuer) format(n int) string {
	var b strings.Builder
	b.Grow(len(i.prefix) + i.digits + i.length*utf8.UTFMax)
	b.WriteString(i.prefix)
	fmt.Fprintf(&b, "%0*d", i.digits, n)
	for range i.length {
		b.WriteRune(i.charset[i.rng.IntN(len(i.charset))])
	}
	return b.String()
}
