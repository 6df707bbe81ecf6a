// ABOUTME: Remote sync settings read from HABITS_* environment variables.
// ABOUTME: An optional .env file is loaded first; the backend factory lives here.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/habits/internal/logger"
	"github.com/harperreed/habits/internal/remote"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Remote providers.
const (
	ProviderSupabase = "supabase"
	ProviderPostgres = "postgres"
)

// Remote holds the remote sync settings.
// Variables are prefixed with HABITS_, e.g. HABITS_SUPABASE_URL.
type Remote struct {
	// Provider forces a provider; empty infers one from what is set.
	Provider string `envconfig:"REMOTE" default:""`

	SupabaseURL     string `envconfig:"SUPABASE_URL" default:""`
	SupabaseAnonKey string `envconfig:"SUPABASE_ANON_KEY" default:""`
	SupabaseTable   string `envconfig:"SUPABASE_TABLE" default:"sync_data"`

	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	Timeout time.Duration `envconfig:"REMOTE_TIMEOUT" default:"30s"`
}

// LoadRemote loads .env files that exist and then parses the environment.
// With no files given, ./.env is tried.
func LoadRemote(envFiles ...string) (*Remote, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var r Remote
	if err := envconfig.Process("HABITS", &r); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	return &r, nil
}

// ResolvedProvider returns the provider to use, or "" when none is usable.
func (r *Remote) ResolvedProvider() string {
	switch r.Provider {
	case ProviderSupabase:
		if r.SupabaseURL != "" && r.SupabaseAnonKey != "" {
			return ProviderSupabase
		}
		return ""
	case ProviderPostgres:
		if r.PostgresDSN != "" {
			return ProviderPostgres
		}
		return ""
	case "":
	default:
		return ""
	}

	if r.SupabaseURL != "" && r.SupabaseAnonKey != "" {
		return ProviderSupabase
	}
	if r.PostgresDSN != "" {
		return ProviderPostgres
	}
	return ""
}

// IsRemoteConfigured reports whether sync can reach a remote.
func (r *Remote) IsRemoteConfigured() bool {
	return r.ResolvedProvider() != ""
}

// Validate reports settings that name an unknown or incomplete provider.
func (r *Remote) Validate() error {
	switch r.Provider {
	case "", ProviderSupabase, ProviderPostgres:
	default:
		return fmt.Errorf("unknown remote provider: %q", r.Provider)
	}
	if r.Provider != "" && !r.IsRemoteConfigured() {
		return fmt.Errorf("remote provider %q is missing settings", r.Provider)
	}
	return nil
}

// ErrRemoteNotConfigured is returned by OpenRemote when nothing is set.
var ErrRemoteNotConfigured = errors.New("remote sync is not configured (set HABITS_SUPABASE_URL and HABITS_SUPABASE_ANON_KEY, or HABITS_POSTGRES_DSN)")

// OpenRemote builds the configured backend. The returned close function
// is always safe to call.
func (r *Remote) OpenRemote(ctx context.Context) (remote.Backend, func(), error) {
	noop := func() {}
	if err := r.Validate(); err != nil {
		return nil, noop, err
	}

	switch r.ResolvedProvider() {
	case ProviderSupabase:
		logger.Debug("using supabase remote", "url", r.SupabaseURL, "table", r.SupabaseTable)
		b := remote.NewSupabase(r.SupabaseURL, r.SupabaseAnonKey,
			remote.WithTable(r.SupabaseTable), remote.WithTimeout(r.Timeout))
		return b, noop, nil
	case ProviderPostgres:
		logger.Debug("using postgres remote")
		ctx, cancel := context.WithTimeout(ctx, r.Timeout)
		defer cancel()
		b, err := remote.OpenPostgres(ctx, r.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		return b, b.Close, nil
	default:
		return nil, noop, ErrRemoteNotConfigured
	}
}
