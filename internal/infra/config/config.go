// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Operator OperatorConfig `yaml:"operator"`
	Storage  StorageConfig  `yaml:"storage"`
	Settings SettingsConfig `yaml:"settings"`
	Lyrics   LyricsConfig   `yaml:"lyrics"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// OperatorConfig controls access to the command boundary.
// An empty token disables the check.
type OperatorConfig struct {
	Token string `yaml:"token"`
}

// StorageConfig represents the bbolt database location.
type StorageConfig struct {
	Path          string `yaml:"path" default:"data/versebox.db" validate:"required"`
	OpenTimeoutMs int    `yaml:"open_timeout_ms" default:"1000" validate:"gte=0,lte=60000"`
}

// SettingsConfig holds first-run values used until settings are saved.
type SettingsConfig struct {
	FontSize    string `yaml:"font_size" default:"32px"`
	GeniusToken string `yaml:"genius_token"`
}

// LyricsConfig lists the lookup providers tried in order by add_searched_song.
type LyricsConfig struct {
	TimeoutSec int              `yaml:"timeout_sec" default:"15" validate:"gte=1,lte=120"`
	Providers  []ProviderConfig `yaml:"providers" validate:"required,min=1,dive"`
}

// ProviderConfig represents a single lyrics provider configuration.
type ProviderConfig struct {
	Type        string         `yaml:"type" validate:"required,oneof=genius library"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("GENIUS_API_TOKEN"); v != "" {
		c.Settings.GeniusToken = v
	}
	if v := os.Getenv("OPERATOR_TOKEN"); v != "" {
		c.Operator.Token = v
	}
	if v := os.Getenv("VERSEBOX_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// OpenTimeout returns the storage open timeout.
func (c *Config) OpenTimeout() time.Duration {
	return time.Duration(c.Storage.OpenTimeoutMs) * time.Millisecond
}

// LookupTimeout returns the per-request timeout for lyrics lookups.
func (c *Config) LookupTimeout() time.Duration {
	return time.Duration(c.Lyrics.TimeoutSec) * time.Second
}
