// Package config loads the engine's YAML configuration. A missing file
// yields the defaults; an invalid one is an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// StaleAgeDays is the inactivity threshold for stale-project
	// detection, in days.
	StaleAgeDays int `yaml:"stale_age_days"`
	// ExcludedRoots are absolute paths no scan phase descends into.
	ExcludedRoots []string `yaml:"excluded_roots"`
	// DaemonIntervalSeconds overrides the rescan cadence in daemon mode.
	DaemonIntervalSeconds int `yaml:"daemon_interval_seconds"`
	// SigningAlgorithm selects the attestation primitive: "ed25519"
	// (default) or "hmac".
	SigningAlgorithm string `yaml:"signing_algorithm"`
	// StateDir overrides the persistent state location.
	StateDir string `yaml:"state_dir"`
	Verbose  bool   `yaml:"verbose"`

	Notifications NotificationConfig `yaml:"notifications"`
}

// NotificationConfig holds daemon notification settings
type NotificationConfig struct {
	Enabled   bool          `yaml:"enabled"`
	OnSuccess bool          `yaml:"on_success"`
	OnFailure bool          `yaml:"on_failure"`
	Webhook   WebhookConfig `yaml:"webhook"`
	Email     EmailConfig   `yaml:"email"`
}

// WebhookConfig holds webhook notification settings
type WebhookConfig struct {
	URL     string            `yaml:"url"`
	Method  string            `yaml:"method"`
	Headers map[string]string `yaml:"headers"`
}

// EmailConfig holds email notification settings
type EmailConfig struct {
	SMTPHost string   `yaml:"smtp_host"`
	SMTPPort int      `yaml:"smtp_port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// GetDefault returns the default configuration
func GetDefault() *Config {
	return &Config{
		StaleAgeDays:          90,
		DaemonIntervalSeconds: 3600,
		SigningAlgorithm:      "ed25519",
	}
}

// Load loads configuration from a file, returning defaults when the file
// does not exist.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefault()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.StaleAgeDays < 0 {
		return fmt.Errorf("stale age threshold must be >= 0")
	}
	if c.DaemonIntervalSeconds < 0 {
		return fmt.Errorf("daemon interval must be >= 0")
	}
	switch c.SigningAlgorithm {
	case "", "ed25519", "hmac":
	default:
		return fmt.Errorf("unknown signing algorithm: %s", c.SigningAlgorithm)
	}
	for _, path := range c.ExcludedRoots {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("excluded root must be absolute: %s", path)
		}
	}
	if c.StateDir != "" && !filepath.IsAbs(c.StateDir) {
		return fmt.Errorf("state dir must be absolute: %s", c.StateDir)
	}
	return nil
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "storage-intel", "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(GetDefault(), configPath); err != nil {
			return "", err
		}
	}
	return configPath, nil
}

// DefaultStateDir resolves the persistent state directory, honoring
// $XDG_STATE_HOME when set.
func DefaultStateDir() (string, error) {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "storageintel"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "state", "storageintel"), nil
}
