package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StaleAgeDays != 90 {
		t.Errorf("stale age = %d, want 90", cfg.StaleAgeDays)
	}
	if cfg.DaemonIntervalSeconds != 3600 {
		t.Errorf("daemon interval = %d, want 3600", cfg.DaemonIntervalSeconds)
	}
	if cfg.SigningAlgorithm != "ed25519" {
		t.Errorf("signing algorithm = %q", cfg.SigningAlgorithm)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := GetDefault()
	cfg.StaleAgeDays = 30
	cfg.ExcludedRoots = []string{"/Users/t/Secret"}
	cfg.SigningAlgorithm = "hmac"

	if err := Save(cfg, path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.StaleAgeDays != 30 || loaded.SigningAlgorithm != "hmac" {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
	if len(loaded.ExcludedRoots) != 1 || loaded.ExcludedRoots[0] != "/Users/t/Secret" {
		t.Errorf("excluded roots = %v", loaded.ExcludedRoots)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("stale_age_days: 45\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StaleAgeDays != 45 {
		t.Errorf("stale age = %d", cfg.StaleAgeDays)
	}
	if cfg.DaemonIntervalSeconds != 3600 {
		t.Errorf("unset field lost its default: %d", cfg.DaemonIntervalSeconds)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"negative stale age", func(c *Config) { c.StaleAgeDays = -1 }, true},
		{"negative interval", func(c *Config) { c.DaemonIntervalSeconds = -1 }, true},
		{"bad algorithm", func(c *Config) { c.SigningAlgorithm = "rot13" }, true},
		{"relative exclude", func(c *Config) { c.ExcludedRoots = []string{"x/y"} }, true},
		{"relative state dir", func(c *Config) { c.StateDir = "state" }, true},
		{"hmac", func(c *Config) { c.SigningAlgorithm = "hmac" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefault()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("stale_age_days: [broken"), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("invalid YAML must not load")
	}
}
