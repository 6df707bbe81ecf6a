// ABOUTME: Tests for remote sync settings from the environment and .env files.
// ABOUTME: Covers provider inference, validation, and the backend factory.
package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/habits/internal/remote"
)

var remoteEnv = []string{
	"HABITS_REMOTE",
	"HABITS_SUPABASE_URL",
	"HABITS_SUPABASE_ANON_KEY",
	"HABITS_SUPABASE_TABLE",
	"HABITS_POSTGRES_DSN",
	"HABITS_REMOTE_TIMEOUT",
}

// clearRemoteEnv blanks every remote variable for the test.
func clearRemoteEnv(t *testing.T) {
	t.Helper()
	for _, k := range remoteEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadRemoteDefaults(t *testing.T) {
	clearRemoteEnv(t)

	r, err := LoadRemote(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadRemote() failed: %v", err)
	}
	if r.IsRemoteConfigured() {
		t.Error("expected remote to be unconfigured")
	}
	if r.SupabaseTable != "sync_data" {
		t.Errorf("SupabaseTable = %q, want sync_data", r.SupabaseTable)
	}
	if r.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", r.Timeout)
	}
}

func TestLoadRemoteFromEnv(t *testing.T) {
	clearRemoteEnv(t)
	t.Setenv("HABITS_SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("HABITS_SUPABASE_ANON_KEY", "anon")
	t.Setenv("HABITS_REMOTE_TIMEOUT", "5s")

	r, err := LoadRemote(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadRemote() failed: %v", err)
	}
	if got := r.ResolvedProvider(); got != ProviderSupabase {
		t.Errorf("ResolvedProvider() = %q, want %q", got, ProviderSupabase)
	}
	if r.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", r.Timeout)
	}
}

func TestLoadRemoteFromDotEnv(t *testing.T) {
	clearRemoteEnv(t)

	envFile := filepath.Join(t.TempDir(), ".env")
	content := "HABITS_POSTGRES_DSN=postgres://user:pw@localhost:5432/habits\n"
	if err := os.WriteFile(envFile, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	r, err := LoadRemote(envFile)
	if err != nil {
		t.Fatalf("LoadRemote() failed: %v", err)
	}
	if got := r.ResolvedProvider(); got != ProviderPostgres {
		t.Errorf("ResolvedProvider() = %q, want %q", got, ProviderPostgres)
	}
}

func TestResolvedProvider(t *testing.T) {
	tests := []struct {
		name string
		r    Remote
		want string
	}{
		{"nothing", Remote{}, ""},
		{"supabase inferred", Remote{SupabaseURL: "u", SupabaseAnonKey: "k"}, ProviderSupabase},
		{"supabase missing key", Remote{SupabaseURL: "u"}, ""},
		{"postgres inferred", Remote{PostgresDSN: "dsn"}, ProviderPostgres},
		{"supabase preferred", Remote{SupabaseURL: "u", SupabaseAnonKey: "k", PostgresDSN: "dsn"}, ProviderSupabase},
		{"postgres forced", Remote{Provider: "postgres", SupabaseURL: "u", SupabaseAnonKey: "k", PostgresDSN: "dsn"}, ProviderPostgres},
		{"forced but incomplete", Remote{Provider: "postgres", SupabaseURL: "u", SupabaseAnonKey: "k"}, ""},
		{"unknown provider", Remote{Provider: "firebase", PostgresDSN: "dsn"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.ResolvedProvider(); got != tt.want {
				t.Errorf("ResolvedProvider() = %q, want %q", got, tt.want)
			}
			if got := tt.r.IsRemoteConfigured(); got != (tt.want != "") {
				t.Errorf("IsRemoteConfigured() = %v", got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := (&Remote{}).Validate(); err != nil {
		t.Errorf("empty remote should validate: %v", err)
	}
	if err := (&Remote{Provider: "firebase"}).Validate(); err == nil {
		t.Error("expected error for unknown provider")
	}
	if err := (&Remote{Provider: "supabase"}).Validate(); err == nil {
		t.Error("expected error for incomplete provider")
	}
}

func TestOpenRemoteNotConfigured(t *testing.T) {
	b, closeFn, err := (&Remote{}).OpenRemote(context.Background())
	defer closeFn()
	if !errors.Is(err, ErrRemoteNotConfigured) {
		t.Errorf("OpenRemote() error = %v, want ErrRemoteNotConfigured", err)
	}
	if b != nil {
		t.Error("expected nil backend")
	}
}

func TestOpenRemoteSupabase(t *testing.T) {
	r := &Remote{SupabaseURL: "https://example.supabase.co", SupabaseAnonKey: "anon", SupabaseTable: "sync_data", Timeout: time.Second}
	b, closeFn, err := r.OpenRemote(context.Background())
	defer closeFn()
	if err != nil {
		t.Fatalf("OpenRemote() failed: %v", err)
	}
	if _, ok := b.(*remote.SupabaseBackend); !ok {
		t.Errorf("backend type = %T, want *remote.SupabaseBackend", b)
	}
	if _, ok := b.CurrentSession(); ok {
		t.Error("new backend should not be signed in")
	}
}
