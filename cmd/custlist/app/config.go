package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/custlist/internal/config"
	"github.com/agentstation/custlist/pkg/constants"
)

// Config holds the application configuration loaded from flags, environment
// variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// SettingsFile is the settings.yaml a run reads and writes the counter to.
	SettingsFile string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string

	// EnvLogLevel is LOG_LEVEL, consulted only when no flag decides the level.
	EnvLogLevel string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (CUSTLIST_SETTINGS, CUSTLIST_FORMAT, LOG_*)
// 3. .env files
// 4. Defaults
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	v.SetDefault("settings", constants.DefaultSettingsFile)

	return &Config{
		Verbose:      v.GetBool("verbose"),
		Quiet:        v.GetBool("quiet"),
		NoColor:      v.GetBool("no-color"),
		Format:       v.GetString("format"),
		SettingsFile: v.GetString("settings"),

		LogFormat:   getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:   getEnvOrDefault("LOG_OUTPUT", "stderr"),
		EnvLogLevel: os.Getenv("LOG_LEVEL"),
	}, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// Flag values take precedence over env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel, settings string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if settings != "" {
		c.SettingsFile = settings
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env; neither overrides the real environment.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
