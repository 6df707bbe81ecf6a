// ABOUTME: Tests for habits configuration management.
// ABOUTME: Covers load, save, defaults, backend selection, and path expansion.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestGetBackendDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetBackend(); got != "sqlite" {
		t.Errorf("GetBackend() = %q, want %q", got, "sqlite")
	}
}

func TestGetBackendExplicit(t *testing.T) {
	cfg := &Config{Backend: "badger"}
	if got := cfg.GetBackend(); got != "badger" {
		t.Errorf("GetBackend() = %q, want %q", got, "badger")
	}
}

func TestGetDataDirDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetDataDir(); got == "" {
		t.Error("GetDataDir() returned empty string")
	}
}

func TestGetDataDirExplicit(t *testing.T) {
	cfg := &Config{DataDir: "/tmp/habits-test"}
	if got := cfg.GetDataDir(); got != "/tmp/habits-test" {
		t.Errorf("GetDataDir() = %q, want %q", got, "/tmp/habits-test")
	}
}

func TestGetDataDirExpandsTilde(t *testing.T) {
	home, _ := os.UserHomeDir()

	cfg := &Config{DataDir: "~/habits-data"}
	want := filepath.Join(home, "habits-data")
	if got := cfg.GetDataDir(); got != want {
		t.Errorf("GetDataDir() = %q, want %q", got, want)
	}
}

func TestGetCharmAutoSync(t *testing.T) {
	cfg := &Config{}
	if !cfg.GetCharmAutoSync() {
		t.Error("GetCharmAutoSync() should default to true")
	}
	off := false
	cfg.CharmAutoSync = &off
	if cfg.GetCharmAutoSync() {
		t.Error("GetCharmAutoSync() should honor explicit false")
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/tmp/foo", "/tmp/foo"},
		{"~", home},
		{"~/data/habits", filepath.Join(home, "data/habits")},
		{"data/habits", "data/habits"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with no config file should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
	if cfg.Backend != "" {
		t.Errorf("Expected empty Backend, got %q", cfg.Backend)
	}
	if cfg.DataDir != "" {
		t.Errorf("Expected empty DataDir, got %q", cfg.DataDir)
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := &Config{
		Backend: "badger",
		DataDir: "/tmp/habits-data",
		Debug:   true,
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.Backend != "badger" {
		t.Errorf("Backend mismatch: got %q, want %q", loaded.Backend, "badger")
	}
	if loaded.DataDir != "/tmp/habits-data" {
		t.Errorf("DataDir mismatch: got %q, want %q", loaded.DataDir, "/tmp/habits-data")
	}
	if !loaded.Debug {
		t.Error("Debug should round trip")
	}

	info, err := os.Stat(GetConfigPath())
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config permissions = %v, want 0600", info.Mode().Perm())
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "nonexistent"))

	cfg := &Config{Backend: "sqlite"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() should create directory: %v", err)
	}

	configDir := filepath.Join(tmpDir, "nonexistent", "habits")
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		t.Error("Expected config directory to be created")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configDir := filepath.Join(tmpDir, "habits")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte("invalid json"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid JSON config")
	}
}

func TestGetConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	want := filepath.Join(tmpDir, "habits", "config.json")
	if got := GetConfigPath(); got != want {
		t.Errorf("GetConfigPath() = %q, want %q", got, want)
	}
}

func TestOpenStorageSQLite(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{Backend: "sqlite", DataDir: tmpDir}

	kv, err := cfg.OpenStorage()
	if err != nil {
		t.Fatalf("OpenStorage() for sqlite failed: %v", err)
	}
	defer kv.Close()

	if err := kv.Set("k", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "habits.db")); os.IsNotExist(err) {
		t.Error("Expected habits.db to be created")
	}
}

func TestOpenStorageBadger(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{Backend: "badger", DataDir: tmpDir}

	kv, err := cfg.OpenStorage()
	if err != nil {
		t.Fatalf("OpenStorage() for badger failed: %v", err)
	}
	defer kv.Close()

	if err := kv.Set("k", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "badger")); os.IsNotExist(err) {
		t.Error("Expected badger directory to be created")
	}
}

func TestOpenStorageDefaultBackend(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{DataDir: tmpDir}

	kv, err := cfg.OpenStorage()
	if err != nil {
		t.Fatalf("OpenStorage() with default backend failed: %v", err)
	}
	defer kv.Close()

	if _, err := os.Stat(filepath.Join(tmpDir, "habits.db")); os.IsNotExist(err) {
		t.Error("Expected habits.db for default backend")
	}
}

func TestOpenStorageInvalidBackend(t *testing.T) {
	cfg := &Config{Backend: "invalid", DataDir: "/tmp"}
	if _, err := cfg.OpenStorage(); err == nil {
		t.Error("Expected error for invalid backend")
	}
}

func TestConfigJSONOmitsEmpty(t *testing.T) {
	data, err := json.Marshal(&Config{})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("Expected empty JSON object, got %s", string(data))
	}
}
