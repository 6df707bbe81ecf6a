// ABOUTME: CLI commands for exporting and importing habit data.
// ABOUTME: Supports JSON, YAML, and Markdown export formats and JSON import.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportSince  string
	importYes    bool
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export habit data",
	Long: `Export habits and logs in various formats.

FORMATS:

  json       Full JSON export (suitable for backup/restore)
  yaml       YAML export grouped by status, with per-day scores
  markdown   Markdown tables (for documentation/sharing)

OPTIONS:

  --output, -o   Write to file instead of stdout
  --since        Only include days since this date (markdown only)

EXAMPLES:

  habits export json                          # Export all data as JSON
  habits export json -o backup.json           # Save to file
  habits export yaml                          # Export as YAML
  habits export markdown --since 2024-01-01   # Days from 2024 onward`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml", "markdown"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format := args[0]

		var data []byte
		var err error

		switch format {
		case "json":
			data, err = store.ExportJSON()
		case "yaml":
			data, err = store.ExportYAML()
		case "markdown", "md":
			var md string
			md, err = store.ExportMarkdown(exportSince)
			data = []byte(md)
		default:
			return fmt.Errorf("unknown format: %s (use json, yaml, or markdown)", format)
		}

		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		out := cmd.OutOrStdout()
		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.New(color.FgGreen).Fprintf(out, "✓ Exported to %s\n", exportOutput)
		} else {
			fmt.Fprintln(out, string(data))
		}

		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import habit data from JSON",
	Long: `Import habits and logs from a JSON backup made with 'habits export json'.

CAUTION:

  Import replaces every local habit and log. You are asked to confirm
  unless --yes is given.

EXAMPLES:

  habits import backup.json
  habits import backup.json --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		out := cmd.OutOrStdout()
		if !importYes {
			ok, err := confirm(cmd.InOrStdin(), out, "Replace all local habits and logs?")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "Canceled.")
				return nil
			}
		}

		if err := store.ImportJSON(data); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		snap := store.Export()
		color.New(color.FgGreen).Fprintf(out, "✓ Imported %d habits and %d logs from %s\n", len(snap.Habits), len(snap.Logs), filename)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "only include days since date (YYYY-MM-DD)")
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "skip confirmation")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
