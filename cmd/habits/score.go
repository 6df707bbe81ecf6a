// ABOUTME: CLI commands for viewing scores.
// ABOUTME: today/day shows a checklist, score shows totals and ranges, summary shows the overview.
package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/harperreed/habits/internal/habits"
	"github.com/harperreed/habits/internal/models"
	"github.com/spf13/cobra"
)

var (
	scoreFrom string
	scoreTo   string
	scoreDays int
)

var dayCmd = &cobra.Command{
	Use:     "day [date]",
	Aliases: []string{"today", "show"},
	Short:   "Show a day's habits and score",
	Long: `Show each habit for a day with its log state, then the day's score.

Soft-deleted habits appear on past days only; archived habits never appear.

EXAMPLES:

  habits today
  habits day yesterday
  habits day 2024-01-09`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := ""
		if len(args) == 1 {
			arg = args[0]
		}
		date, err := resolveDate(arg, store.Now())
		if err != nil {
			return err
		}

		logged := make(map[string]bool)
		for _, l := range store.LogsForDate(date) {
			logged[l.HabitID] = true
		}

		out := cmd.OutOrStdout()
		color.New(color.Bold).Fprintln(out, date)

		list := store.HabitsForDay(date)
		if len(list) == 0 {
			fmt.Fprintln(out, "No habits for this day.")
		}
		for _, h := range list {
			mark := "[ ]"
			switch {
			case logged[h.ID] && h.Type == models.HabitGood:
				mark = color.New(color.FgGreen).Sprint("[✓]")
			case logged[h.ID]:
				mark = color.New(color.FgRed).Sprint("[✗]")
			}
			sign := "+"
			if h.Type == models.HabitBad {
				sign = "-"
			}
			fmt.Fprintf(out, "%s %s %s\n", mark, padRight(habitLabel(h), 30), faint.Sprintf("%s%d", sign, h.Points))
		}

		d := store.DayDetails(date)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Score: %s (%s)\n", levelColor(d.Score).Sprintf("%+d", d.Score), d.Level)
		fmt.Fprintf(out, "  Good done: %d  Bad indulged: %d  Bad avoided: %d\n", d.GoodDone, d.BadIndulged, d.BadAvoided)
		return nil
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Show the total score or scores over a range",
	Long: `Show the all-time total score, or per-day scores over a range.

EXAMPLES:

  habits score                                   # All-time total
  habits score --days 7                          # Last 7 days including today
  habits score --from 2024-01-01 --to 2024-01-31 # A fixed range`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if scoreFrom == "" && scoreTo == "" && scoreDays <= 0 {
			total := store.TotalScore()
			fmt.Fprintf(out, "Total score: %s\n", levelColor(total).Sprintf("%d", total))
			return nil
		}

		now := store.Now()
		to, err := resolveDate(scoreTo, now)
		if err != nil {
			return err
		}
		from := scoreFrom
		if from == "" {
			days := scoreDays
			if days <= 0 {
				days = 7
			}
			end, _ := models.ParseDate(to)
			from = models.FormatDate(end.AddDate(0, 0, -(days - 1)))
		} else if from, err = resolveDate(from, now); err != nil {
			return err
		}

		scores, err := store.ScoresInRange(from, to)
		if err != nil {
			return err
		}

		total := 0
		for _, ds := range scores {
			total += ds.Score
			fmt.Fprintf(out, "%s %s %s\n", ds.Date, levelColor(ds.Score).Sprint(padRight(fmt.Sprintf("%+d", ds.Score), 6)), faint.Sprint(ds.Level))
		}
		fmt.Fprintf(out, "\nPeriod score: %s\n", levelColor(total).Sprintf("%d", total))
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:     "summary",
	Aliases: []string{"stats"},
	Short:   "Show totals, streak, and best and worst days",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := store.Summary()
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Total score:    %s\n", levelColor(s.TotalScore).Sprintf("%d", s.TotalScore))
		fmt.Fprintf(out, "Days logged:    %d\n", s.ActiveDays)
		fmt.Fprintf(out, "Current streak: %d\n", s.CurrentStreak)
		printDay(out, "Best day:      ", s.BestDay)
		printDay(out, "Worst day:     ", s.WorstDay)
		fmt.Fprintf(out, "Habits:         %d active, %d archived, %d deleted\n", s.ActiveHabits, s.Archived, s.Deleted)
		return nil
	},
}

func printDay(out io.Writer, label string, d *habits.DayScore) {
	if d == nil {
		fmt.Fprintf(out, "%s  -\n", label)
		return
	}
	fmt.Fprintf(out, "%s  %s %s (%s)\n", label, d.Date, levelColor(d.Score).Sprintf("%+d", d.Score), d.Level)
}

func init() {
	scoreCmd.Flags().StringVar(&scoreFrom, "from", "", "first day of the range")
	scoreCmd.Flags().StringVar(&scoreTo, "to", "", "last day of the range (default today)")
	scoreCmd.Flags().IntVarP(&scoreDays, "days", "n", 0, "number of days ending at --to")

	rootCmd.AddCommand(dayCmd, scoreCmd, summaryCmd)
}
