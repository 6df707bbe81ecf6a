// ABOUTME: CLI commands for logging habits on a day.
// ABOUTME: done and indulge toggle the log; the day score is printed after each change.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/habits/internal/habits"
	"github.com/spf13/cobra"
)

var trackDate string

// toggleCmd builds a command that toggles one habit's log for a day.
func toggleCmd(use string, aliases []string, short, long string, toggle func(*habits.Store, string, string) (bool, error)) *cobra.Command {
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
			date, err := resolveDate(trackDate, store.Now())
			if err != nil {
				return err
			}

			logged, err := toggle(store, h.ID, date)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if logged {
				color.New(color.FgGreen).Fprintf(out, "✓ %s %s on %s\n", habitLabel(h), h.Action(), date)
			} else {
				color.New(color.FgYellow).Fprintf(out, "○ Cleared %s for %s on %s\n", h.Action(), habitLabel(h), date)
			}

			score := store.CalculateDayScore(date)
			fmt.Fprintf(out, "  Day score: %s (%s)\n", levelColor(score).Sprintf("%+d", score), habits.ScoreLevel(score))
			return nil
		},
	}
}

var doneCmd = toggleCmd("done", []string{"d", "did"},
	"Toggle a good habit as done",
	`Mark a good habit done for a day, or clear it if it is already done.

EXAMPLES:

  habits done exercise
  habits done read --date yesterday
  habits done 3f2a --date 2024-01-09`,
	(*habits.Store).ToggleGoodHabit)

var indulgeCmd = toggleCmd("indulge", []string{"slip", "i"},
	"Toggle a bad habit as indulged",
	`Log that you indulged a bad habit on a day, or clear the log.

Bad habits you do not indulge earn an avoidance bonus on past days.

EXAMPLES:

  habits indulge smoking
  habits indulge "junk food" --date -2`,
	(*habits.Store).ToggleBadHabit)

var toggleAnyCmd = toggleCmd("toggle", []string{"t"},
	"Toggle a habit's log for its type",
	`Toggle done for a good habit or indulged for a bad habit.`,
	(*habits.Store).ToggleHabit)

func init() {
	for _, c := range []*cobra.Command{doneCmd, indulgeCmd, toggleAnyCmd} {
		c.Flags().StringVar(&trackDate, "date", "", "day to log: YYYY-MM-DD, today, yesterday, or -N (default today)")
		rootCmd.AddCommand(c)
	}
}
