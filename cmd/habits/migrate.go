// ABOUTME: CLI command for migrating habit data between storage backends.
// ABOUTME: Copies every stored blob from one backend (sqlite, badger, charm) to another.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/habits/internal/config"
	"github.com/harperreed/habits/internal/logger"
	"github.com/harperreed/habits/internal/storage"
	"github.com/spf13/cobra"
)

var (
	migrateFrom   string
	migrateTo     string
	migrateDryRun bool
	migrateForce  bool
	migrateSwitch bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy habit data between storage backends",
	Long: `Copy habit data from one local storage backend to another.

BACKENDS:

  sqlite   ~/.local/share/habits/habits.db (default)
  badger   ~/.local/share/habits/badger
  charm    Charm KV, synced with your SSH key

IMPORTANT:

  - The destination must be empty unless --force is given
  - Run with --dry-run first to see what would be copied
  - --switch saves the destination as the configured backend

USAGE:

  habits migrate --to badger --dry-run
  habits migrate --from sqlite --to charm --switch`,
	Annotations: map[string]string{skipStore: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		from := migrateFrom
		if from == "" {
			from = cfg.GetBackend()
		}
		if migrateTo == "" {
			return fmt.Errorf("--to is required")
		}
		if from == migrateTo {
			return fmt.Errorf("source and destination are both %s", from)
		}

		out := cmd.OutOrStdout()

		src, err := cfg.OpenBackend(from)
		if err != nil {
			return fmt.Errorf("open %s: %w", from, err)
		}
		defer src.Close()

		keys, err := src.Keys()
		if err != nil {
			return fmt.Errorf("list %s keys: %w", from, err)
		}

		if migrateDryRun {
			color.New(color.FgYellow).Fprintln(out, "Dry run mode - no changes will be made")
			fmt.Fprintf(out, "Would copy %d keys from %s to %s:\n", len(keys), from, migrateTo)
			for _, k := range keys {
				fmt.Fprintf(out, "  %s\n", k)
			}
			return nil
		}

		if !migrateForce {
			if err := checkDestinationEmpty(migrateTo); err != nil {
				return err
			}
		}

		dst, err := cfg.OpenBackend(migrateTo)
		if err != nil {
			return fmt.Errorf("open %s: %w", migrateTo, err)
		}
		defer dst.Close()

		if !migrateForce {
			existing, err := dst.Keys()
			if err != nil {
				return fmt.Errorf("list %s keys: %w", migrateTo, err)
			}
			if len(existing) > 0 {
				return fmt.Errorf("%s already holds %d keys (use --force to overwrite)", migrateTo, len(existing))
			}
		}

		summary, err := storage.MigrateData(src, dst)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("migrated storage", "from", from, "to", migrateTo, "keys", summary.Keys, "bytes", summary.Bytes)

		color.New(color.FgGreen).Fprintf(out, "✓ Copied %d keys (%d bytes) from %s to %s\n", summary.Keys, summary.Bytes, from, migrateTo)

		if migrateSwitch {
			saved, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			saved.Backend = migrateTo
			if err := saved.Save(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(out, "  Backend set to %s in %s\n", migrateTo, config.GetConfigPath())
		}
		return nil
	},
}

// checkDestinationEmpty refuses to copy into a badger directory that
// already has data, before opening it.
func checkDestinationEmpty(backend string) error {
	if backend != storage.BackendBadger {
		return nil
	}
	path := cfg.StoragePath(backend)
	nonEmpty, err := storage.IsDirNonEmpty(path)
	if err != nil {
		return err
	}
	if nonEmpty {
		return fmt.Errorf("%s is not empty (use --force to overwrite)", path)
	}
	return nil
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "", "source backend (default: configured backend)")
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "destination backend")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "preview migration without making changes")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "overwrite existing destination data")
	migrateCmd.Flags().BoolVar(&migrateSwitch, "switch", false, "make the destination the configured backend")
	rootCmd.AddCommand(migrateCmd)
}
