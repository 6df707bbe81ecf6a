// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server, with sync tools when a remote is configured.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harperreed/habits/internal/config"
	"github.com/harperreed/habits/internal/logger"
	"github.com/harperreed/habits/internal/mcp"
	habitsync "github.com/harperreed/habits/internal/sync"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var mcpMetricsAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout.

CLAUDE DESKTOP CONFIGURATION:

  {
    "mcpServers": {
      "habits": {
        "command": "habits",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  add_habit          Create a good or bad habit
  list_habits        List habits by status
  toggle_habit       Toggle done/indulged for a day
  update_habit       Change name, emoji, or points
  set_habit_status   Archive, delete, or restore
  purge_habit        Remove a habit and its logs
  day_details        Score and counts for a day
  score_range        Daily scores over a range
  get_summary        Totals, streak, best and worst days

  With a remote configured (see 'habits sync --help'):

  sync_status        Remote sync state
  sync_signin        Sign in for this server session
  sync_push          Upload encrypted habits and logs
  sync_pull          Replace local data with the remote copy

AVAILABLE RESOURCES:

  habits://today     Today's habits and score
  habits://habits    Every habit grouped by status
  habits://summary   Score dashboard with the last 7 days

METRICS:

  --metrics-addr :9090 serves Prometheus sync metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		var opts []mcp.Option
		r, err := config.LoadRemote()
		if err != nil {
			return err
		}
		if r.IsRemoteConfigured() {
			backend, closeBackend, err := r.OpenRemote(ctx)
			if err != nil {
				return err
			}
			defer closeBackend()

			reg := prometheus.NewRegistry()
			coord := habitsync.NewCoordinator(backend, habitsync.WithMetrics(habitsync.NewMetrics(reg)))
			opts = append(opts, mcp.WithSync(coord))

			if mcpMetricsAddr != "" {
				stop := serveMetrics(mcpMetricsAddr, reg)
				defer stop()
			}
			logger.Info("mcp sync enabled", "provider", r.ResolvedProvider())
		}

		server, err := mcp.NewServer(store, opts...)
		if err != nil {
			return err
		}
		return server.Serve(ctx)
	},
}

// serveMetrics exposes reg over HTTP until the returned stop is called.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func init() {
	mcpCmd.Flags().StringVar(&mcpMetricsAddr, "metrics-addr", "", "serve Prometheus sync metrics on this address")
	rootCmd.AddCommand(mcpCmd)
}
