// ABOUTME: Shared CLI helpers for dates, padding, and confirmations.
// ABOUTME: Used by habit, tracking, score, and sync commands.
package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/habits/internal/models"
)

var faint = color.New(color.Faint)

// resolveDate accepts YYYY-MM-DD, "today", "yesterday", or a negative day
// offset such as -3. Empty means today.
func resolveDate(s string, now time.Time) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return models.Today(now), nil
	case "yesterday":
		return models.Today(now.AddDate(0, 0, -1)), nil
	}

	if strings.HasPrefix(s, "-") {
		var n int
		if _, err := fmt.Sscanf(s, "-%d", &n); err == nil && n >= 0 && fmt.Sprintf("-%d", n) == s {
			return models.Today(now.AddDate(0, 0, -n)), nil
		}
	}

	if _, err := models.ParseDate(s); err != nil {
		return "", fmt.Errorf("invalid date: %s (use YYYY-MM-DD, today, yesterday, or -N)", s)
	}
	return s, nil
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func padRight(s string, length int) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return s + strings.Repeat(" ", length-n)
}

// confirm asks a yes/no question on in and reports whether the answer was yes.
// A *bufio.Reader is read directly so earlier buffered answers are kept.
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	r, ok := in.(*bufio.Reader)
	if !ok {
		r = bufio.NewReader(in)
	}
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	response, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// levelColor picks a color for a score level.
func levelColor(score int) *color.Color {
	switch {
	case score > 0:
		return color.New(color.FgGreen)
	case score < 0:
		return color.New(color.FgRed)
	default:
		return color.New(color.Faint)
	}
}

// habitLabel renders emoji and name.
func habitLabel(h models.Habit) string {
	if h.Emoji == "" {
		return h.Name
	}
	return h.Emoji + " " + h.Name
}
