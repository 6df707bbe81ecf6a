// ABOUTME: CLI commands for managing habits.
// ABOUTME: Covers add, list, edit, and the archive/delete/restore/purge lifecycle.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/habits/internal/habits"
	"github.com/harperreed/habits/internal/models"
	"github.com/spf13/cobra"
)

var (
	addType   string
	addPoints int
	addEmoji  string

	listStatus string
	listAll    bool

	editName  string
	editEmoji string

	purgeYes bool
)

var addCmd = &cobra.Command{
	Use:     "add <name>",
	Aliases: []string{"a", "new"},
	Short:   "Add a habit",
	Long: `Add a good habit to build or a bad habit to avoid.

Recommended point values: 5, 10, 15, 20, 25, 50.

EXAMPLES:

  habits add Exercise --points 20 --emoji 💪
  habits add "Junk food" --type bad --points 10 --emoji 🍔
  habits add Read -p 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := models.ParseHabitType(addType)
		if err != nil {
			return err
		}

		h, err := store.AddHabit(strings.Join(args, " "), t, addPoints, addEmoji)
		if err != nil {
			return fmt.Errorf("failed to add habit: %w", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "✓ Added %s habit\n", h.Type)
		fmt.Fprintf(out, "  %s %s (%d points)\n", faint.Sprint(h.ShortID()), habitLabel(h), h.Points)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List habits",
	Long: `List habits. Active habits are shown by default.

OUTPUT FORMAT:

  Each line shows: ID  TYPE  POINTS  NAME  [STATUS]

  The ID is an 8-character prefix. Any command taking <habit> accepts the
  full ID, a unique prefix, or the habit name (case-insensitive).

EXAMPLES:

  habits list                   # Active habits
  habits list --status archived # Archived habits
  habits list --all             # Every habit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var list []models.Habit
		switch {
		case listAll:
			list = store.Habits()
		default:
			status := models.Status(strings.ToLower(listStatus))
			if !status.IsValid() {
				return fmt.Errorf("unknown status: %s (use active, archived, or deleted)", listStatus)
			}
			list = store.HabitsByStatus(status)
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No habits found.")
			return nil
		}

		for _, h := range list {
			status := ""
			if h.Status != models.StatusActive {
				status = faint.Sprintf(" [%s]", h.Status)
			}
			typ := color.New(color.FgGreen).Sprint(padRight(string(h.Type), 4))
			if h.Type == models.HabitBad {
				typ = color.New(color.FgRed).Sprint(padRight(string(h.Type), 4))
			}
			fmt.Fprintf(out, "%s %s %4d  %s%s\n",
				faint.Sprint(h.ShortID()),
				typ,
				h.Points,
				truncate(habitLabel(h), 40),
				status)
		}
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <habit>",
	Short: "Rename a habit or change its emoji",
	Long: `Rename a habit or change its emoji. Only the flags you pass change.

Type and points are fixed when a habit is created so past scores stay put.
To change them, archive the habit and add a new one.

EXAMPLES:

  habits edit exercise --name Gym
  habits edit read --name "Read fiction" --emoji 📖`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := store.FindHabit(args[0])
		if err != nil {
			return err
		}

		var patch habits.HabitPatch
		if cmd.Flags().Changed("name") {
			patch.Name = &editName
		}
		if cmd.Flags().Changed("emoji") {
			patch.Emoji = &editEmoji
		}
		if patch == (habits.HabitPatch{}) {
			return fmt.Errorf("nothing to change (use --name or --emoji)")
		}

		updated, err := store.UpdateHabit(h.ID, patch)
		if err != nil {
			return fmt.Errorf("failed to update habit: %w", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintln(out, "✓ Updated habit")
		fmt.Fprintf(out, "  %s %s (%d points)\n", faint.Sprint(updated.ShortID()), habitLabel(updated), updated.Points)
		return nil
	},
}

// lifecycleCmd builds a command that applies one status transition.
func lifecycleCmd(use string, aliases []string, short, long, verb string, apply func(*habits.Store, string) error) *cobra.Command {
	return &cobra.Command{
		Use:     use + " <habit>",
		Aliases: aliases,
		Short:   short,
		Long:    long,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := store.FindHabit(args[0])
			if err != nil {
				return err
			}
			if err := apply(store, h.ID); err != nil {
				return err
			}
			color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, habitLabel(h))
			return nil
		},
	}
}

var archiveCmd = lifecycleCmd("archive", nil,
	"Archive a habit",
	`Archive an active habit. Archived habits are hidden from every day and
left out of day counts, but their logs still score.`,
	"Archived", (*habits.Store).ArchiveHabit)

var deleteCmd = lifecycleCmd("delete", []string{"del", "rm"},
	"Soft-delete a habit",
	`Soft-delete an active habit. It disappears from today but still shows on
past days. Use 'habits restore' to undo or 'habits purge' to remove it for good.`,
	"Deleted", (*habits.Store).DeleteHabit)

var restoreCmd = lifecycleCmd("restore", []string{"unarchive", "undelete"},
	"Restore an archived or deleted habit",
	`Return an archived or soft-deleted habit to active.`,
	"Restored", (*habits.Store).RestoreHabit)

var purgeCmd = &cobra.Command{
	Use:   "purge <habit>",
	Short: "Permanently remove a habit and its logs",
	Long: `Permanently remove a habit and every log recorded for it.

CAUTION:

  There is no undo. Past day scores change. You are asked to confirm
  unless --yes is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := store.FindHabit(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !purgeYes {
			ok, err := confirm(cmd.InOrStdin(), out, fmt.Sprintf("Permanently remove %s and all its logs?", h.Name))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "Canceled.")
				return nil
			}
		}

		if err := store.PermanentlyDeleteHabit(h.ID); err != nil {
			return fmt.Errorf("failed to purge habit: %w", err)
		}
		color.New(color.FgRed).Fprintf(out, "✗ Purged %s\n", habitLabel(h))
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addType, "type", "t", "good", "habit type: good or bad")
	addCmd.Flags().IntVarP(&addPoints, "points", "p", 10, "points earned or lost")
	addCmd.Flags().StringVarP(&addEmoji, "emoji", "e", "", "emoji shown next to the name")

	listCmd.Flags().StringVarP(&listStatus, "status", "s", "active", "filter by status: active, archived, or deleted")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "show every habit")

	editCmd.Flags().StringVar(&editName, "name", "", "new name")
	editCmd.Flags().StringVar(&editEmoji, "emoji", "", "new emoji")

	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "skip confirmation")

	rootCmd.AddCommand(addCmd, listCmd, editCmd, archiveCmd, deleteCmd, restoreCmd, purgeCmd)
}
