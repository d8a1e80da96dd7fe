package serial

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/custlist/pkg/errors"
)

func plainConfig(start int) Config {
	return Config{Prefix: "C", Digits: 6, Start: start}
}

func TestIssueFormat(t *testing.T) {
	iss, err := NewIssuer(plainConfig(42), nil)
	require.NoError(t, err)

	assert.Equal(t, "C000042", iss.Issue())
	assert.Equal(t, "C000043", iss.Issue())
	assert.Equal(t, 44, iss.Next())
	assert.Equal(t, []string{"C000042", "C000043"}, iss.Issued())
}

func TestIssueSkipsUsedAndAdvancesOnCollision(t *testing.T) {
	iss, err := NewIssuer(plainConfig(1), []string{"C000001", "C000002", ""})
	require.NoError(t, err)

	assert.Equal(t, "C000003", iss.Issue())
	assert.Equal(t, 4, iss.Next(), "counter must advance past collided attempts")
	assert.True(t, iss.Used("C000003"))
}

func TestIssueRandomSuffix(t *testing.T) {
	cfg := DefaultConfig()
	iss, err := NewIssuer(cfg, nil, WithRand(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)

	s := iss.Issue()
	require.Len(t, s, 1+6+2)
	assert.Equal(t, "C000001", s[:7])
	for _, r := range s[7:] {
		assert.Contains(t, cfg.RandomSuffix.Charset, string(r))
	}
}

func TestIssueDeterministicWithSeed(t *testing.T) {
	issue := func() []string {
		iss, err := NewIssuer(DefaultConfig(), nil, WithRand(rand.New(rand.NewPCG(7, 7))))
		require.NoError(t, err)
		return []string{iss.Issue(), iss.Issue(), iss.Issue()}
	}
	assert.Equal(t, issue(), issue())
}

func TestIssueRetriesWhenSuffixCollides(t *testing.T) {
	// A one-letter charset makes every suffix the same, so the only way out
	// of a collision is the counter.
	cfg := Config{Prefix: "X", Digits: 2, Start: 1, RandomSuffix: Suffix{Charset: "A", Length: 1}}
	iss, err := NewIssuer(cfg, []string{"X01A", "X02A"})
	require.NoError(t, err)

	assert.Equal(t, "X03A", iss.Issue())
	assert.Equal(t, 4, iss.Next())
}

func TestGetAlwaysIssuesFresh(t *testing.T) {
	iss, err := NewIssuer(plainConfig(1), nil)
	require.NoError(t, err)

	a := iss.Get("Bob", "b@x.com")
	b := iss.Get("Bob", "b@x.com")
	assert.NotEqual(t, a, b)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"zero digits", Config{Digits: 0}, "serial.digits"},
		{"negative start", Config{Digits: 1, Start: -1}, "serial.start"},
		{"negative length", Config{Digits: 1, RandomSuffix: Suffix{Length: -1}}, "serial.random_suffix.length"},
		{"empty charset", Config{Digits: 1, RandomSuffix: Suffix{Length: 2}}, "serial.random_suffix.charset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
			assert.Contains(t, err.Error(), tt.field)

			_, err = NewIssuer(tt.cfg, nil)
			assert.Error(t, err)
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}
