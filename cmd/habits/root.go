// ABOUTME: Root Cobra command for habits CLI.
// ABOUTME: Loads config, starts logging, and opens the habit store via PersistentPre/PostRunE.
package main

import (
	"fmt"

	"github.com/harperreed/habits/internal/config"
	"github.com/harperreed/habits/internal/habits"
	"github.com/harperreed/habits/internal/logger"
	"github.com/harperreed/habits/internal/storage"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	kvStore storage.KV
	store   *habits.Store

	dataDirFlag string
	backendFlag string
	debugFlag   bool
)

// skipStore marks commands that manage storage themselves or need none.
const skipStore = "skip-store"

var rootCmd = &cobra.Command{
	Use:   "habits",
	Short: "Daily habit tracker with scores and encrypted sync",
	Long: `Habits tracks good habits you want to do and bad habits you want to avoid.

SCORING:

  Good habit done             +points
  Bad habit indulged          -points
  Bad habit avoided           +40% of points (past days with any log)

  A day with nothing logged scores 0.

QUICK START:

  $ habits add Exercise --points 20 --emoji 💪   # A good habit
  $ habits add Smoking --type bad --points 25     # A bad habit
  $ habits done exercise                          # Mark done today
  $ habits indulge smoking --date 2024-01-09      # Log a slip
  $ habits today                                  # Today's checklist and score
  $ habits summary                                # Totals, streak, best day

LIFECYCLE:

  $ habits archive <habit>     # Hide from today, keep history
  $ habits delete <habit>      # Soft delete, still scored on past days
  $ habits restore <habit>     # Back to active
  $ habits purge <habit>       # Remove habit and logs for good

SYNC:

  Habits and logs are encrypted with your password before upload.
  Configure a remote with HABITS_SUPABASE_URL and HABITS_SUPABASE_ANON_KEY,
  or HABITS_POSTGRES_DSN (a .env file in the working directory is read).

  $ habits sync signup you@example.com
  $ habits sync push
  $ habits sync pull

MCP INTEGRATION:

  Run 'habits mcp' to start the Model Context Protocol server:

  {
    "mcpServers": {
      "habits": { "command": "habits", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  Local data lives in ~/.local/share/habits (habits.db for SQLite).
  Choose a backend in ~/.config/habits/config.json: sqlite, badger, or charm.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if dataDirFlag != "" {
			cfg.DataDir = dataDirFlag
		}
		if backendFlag != "" {
			cfg.Backend = backendFlag
		}

		if err := logger.Init(logger.Config{Debug: debugFlag || cfg.Debug, Dir: cfg.GetDataDir()}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if cmd.Annotations[skipStore] == "true" {
			return nil
		}

		// PostRun is skipped when a command fails.
		if kvStore != nil {
			_ = kvStore.Close()
		}
		kvStore, err = cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open %s storage: %w", cfg.GetBackend(), err)
		}
		store = habits.Open(kvStore)
		logger.Debug("store opened", "backend", cfg.GetBackend(), "dir", cfg.GetDataDir())
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		store = nil
		if kvStore != nil {
			err := kvStore.Close()
			kvStore = nil
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend: sqlite, badger, or charm (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "log debug output to stderr")
}
