// ABOUTME: Habits configuration management with backend selection.
// ABOUTME: Handles settings, preferences, and the local storage factory function.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harperreed/habits/internal/storage"
)

// Config stores habits tool configuration.
type Config struct {
	// Backend selects local storage: "sqlite" (default), "badger", or "charm".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for local data and logs.
	// Supports ~ expansion. Defaults to ~/.local/share/habits.
	DataDir string `json:"data_dir,omitempty"`

	// Debug mirrors logs to stderr at debug level.
	Debug bool `json:"debug,omitempty"`

	// CharmAutoSync pushes every write to Charm Cloud when Backend is "charm".
	CharmAutoSync *bool `json:"charm_auto_sync,omitempty"`
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return storage.BackendSQLite
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetCharmAutoSync defaults to true.
func (c *Config) GetCharmAutoSync() bool {
	if c.CharmAutoSync == nil {
		return true
	}
	return *c.CharmAutoSync
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// StoragePath returns where the given backend keeps its data.
func (c *Config) StoragePath(backend string) string {
	switch backend {
	case storage.BackendSQLite:
		return filepath.Join(c.GetDataDir(), "habits.db")
	case storage.BackendBadger:
		return filepath.Join(c.GetDataDir(), "badger")
	}
	return ""
}

// OpenStorage opens the configured backend.
func (c *Config) OpenStorage() (storage.KV, error) {
	return c.OpenBackend(c.GetBackend())
}

// OpenBackend opens a specific backend using this config's paths.
func (c *Config) OpenBackend(backend string) (storage.KV, error) {
	switch backend {
	case storage.BackendSQLite:
		return storage.Open(c.StoragePath(backend))
	case storage.BackendBadger:
		return storage.OpenBadger(c.StoragePath(backend))
	case storage.BackendCharm:
		return storage.OpenCharm(c.GetCharmAutoSync())
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "habits", "config.json")
}

// Load reads config from disk.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
