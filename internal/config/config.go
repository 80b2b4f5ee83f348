// Package config loads and saves the silo client configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied to missing keys.
const (
	DefaultDatabase  = "silo.db"
	DefaultNamespace = "openmicroscopy.org"
	DefaultDelimiter = "|"
)

// Config is the contents of config.yaml.
type Config struct {
	Database    string    `yaml:"database"`
	UserID      int64     `yaml:"user_id"`
	DefaultSilo int64     `yaml:"default_silo,omitempty"`
	Namespace   string    `yaml:"namespace"`
	Delimiter   string    `yaml:"delimiter"`
	Reconnect   Reconnect `yaml:"reconnect"`
}

// Reconnect bounds retries of operations that fail because storage is
// unavailable.
type Reconnect struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`

	// Rate caps reconnect attempts per second.
	Rate float64 `yaml:"rate"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.Delimiter == "" {
		c.Delimiter = DefaultDelimiter
	}
	if c.Reconnect.MaxAttempts == 0 {
		c.Reconnect.MaxAttempts = 3
	}
	if c.Reconnect.BaseDelay == 0 {
		c.Reconnect.BaseDelay = 100 * time.Millisecond
	}
	if c.Reconnect.MaxDelay == 0 {
		c.Reconnect.MaxDelay = 2 * time.Second
	}
	if c.Reconnect.Rate == 0 {
		c.Reconnect.Rate = 5
	}
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if len([]rune(c.Delimiter)) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	if c.Reconnect.MaxAttempts < 1 {
		return fmt.Errorf("reconnect.max_attempts must be at least 1, got %d", c.Reconnect.MaxAttempts)
	}
	if c.Reconnect.BaseDelay < 0 || c.Reconnect.MaxDelay < c.Reconnect.BaseDelay {
		return fmt.Errorf("reconnect delays must satisfy 0 <= base_delay <= max_delay")
	}
	if c.Reconnect.Rate <= 0 {
		return fmt.Errorf("reconnect.rate must be positive, got %g", c.Reconnect.Rate)
	}
	return nil
}

// DelimiterRune returns the CSV delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	return []rune(c.Delimiter)[0]
}

// DefaultPath returns $XDG_CONFIG_HOME/silo/config.yaml or its platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "silo", "config.yaml")
}

// Load reads path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating its directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
