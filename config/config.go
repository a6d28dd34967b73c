// Package config provides configuration loading and management for the
// KeyPilot client.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete KeyPilot client configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
}

// BackendConfig configures the remote proxy/analytics backend.
type BackendConfig struct {
	// BaseURL is the backend root (default: the hosted demo backend).
	BaseURL string `yaml:"base_url"`
	// Timeout is the per-request timeout for data operations; the
	// health probe carries its own shorter bound.
	Timeout time.Duration `yaml:"timeout"`
	// AnalyticsRPS caps client-side playground traffic per second.
	AnalyticsRPS float64 `yaml:"analytics_rps"`
}

// StoreConfig configures the persisted preference store.
type StoreConfig struct {
	// Backend selects the store implementation: "file" or "sqlite".
	Backend string `yaml:"backend"`
	// Path is the store location (default: under the state directory).
	Path string `yaml:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// Store backends.
const (
	StoreBackendFile   = "file"
	StoreBackendSQLite = "sqlite"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:      "https://demo.keypilot.dev",
			Timeout:      30 * time.Second,
			AnalyticsRPS: 2,
		},
		Store: StoreConfig{
			Backend: StoreBackendFile,
			Path:    "", // Resolved against the state directory
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute URL")
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}
	if c.Backend.AnalyticsRPS <= 0 {
		return fmt.Errorf("backend.analytics_rps must be positive")
	}
	switch c.Store.Backend {
	case StoreBackendFile, StoreBackendSQLite:
	default:
		return fmt.Errorf("store.backend must be %q or %q", StoreBackendFile, StoreBackendSQLite)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file, expanding ${VAR}
// references from the environment before parsing.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.Expand(string(data), os.Getenv)

	config := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence
// for non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Backend.BaseURL != "" {
		c.Backend.BaseURL = other.Backend.BaseURL
	}
	if other.Backend.Timeout != 0 {
		c.Backend.Timeout = other.Backend.Timeout
	}
	if other.Backend.AnalyticsRPS != 0 {
		c.Backend.AnalyticsRPS = other.Backend.AnalyticsRPS
	}

	if other.Store.Backend != "" {
		c.Store.Backend = other.Store.Backend
	}
	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}

// StateDir returns the directory holding the preference store and
// other local state.
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".keypilot"), nil
}

// StorePath resolves the preference store path, applying the default
// filename for the selected backend when unset.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}

	dir, err := StateDir()
	if err != nil {
		return "", err
	}

	name := "prefs.json"
	if c.Store.Backend == StoreBackendSQLite {
		name = "prefs.db"
	}
	return filepath.Join(dir, name), nil
}
