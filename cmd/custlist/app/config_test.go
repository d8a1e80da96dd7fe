package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/custlist/pkg/constants"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CUSTLIST_SETTINGS", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultSettingsFile, cfg.SettingsFile)
	assert.Equal(t, "auto", cfg.LogFormat)
	assert.Equal(t, "stderr", cfg.LogOutput)
	assert.Empty(t, cfg.LogLevel)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("CUSTLIST_SETTINGS", "/etc/custlist/settings.yaml")
	t.Setenv("CUSTLIST_FORMAT", "yaml")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/etc/custlist/settings.yaml", cfg.SettingsFile)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, "debug", cfg.EnvLogLevel)
	assert.Empty(t, cfg.LogLevel, "LOG_LEVEL does not masquerade as the flag")
}

func TestUpdateFromFlags(t *testing.T) {
	cfg := &Config{Format: "yaml", SettingsFile: "settings.yaml"}
	cfg.UpdateFromFlags(true, false, true, "", "warn", "")

	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "yaml", cfg.Format, "empty flag keeps the environment value")
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "settings.yaml", cfg.SettingsFile)
}
