// ABOUTME: HabitLog model recording a done or indulged event on a calendar day.
// ABOUTME: Also holds the YYYY-MM-DD date helpers shared by scoring code.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar date format used for log dates.
const DateLayout = "2006-01-02"

// Action is what a log records.
type Action string

const (
	ActionDone     Action = "done"
	ActionIndulged Action = "indulged"
)

// ActionFor returns the action that pairs with a habit type.
func ActionFor(t HabitType) Action {
	if t == HabitBad {
		return ActionIndulged
	}
	return ActionDone
}

// HabitLog records that a habit happened on a day. HabitID is a reference,
// not ownership: logs survive archive and soft delete of their habit.
type HabitLog struct {
	ID        string    `json:"id" yaml:"id"`
	Date      string    `json:"date" yaml:"date"`
	HabitID   string    `json:"habitId" yaml:"habit_id"`
	Action    Action    `json:"action" yaml:"action"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewHabitLog creates a log with a generated ID stamped with at.
func NewHabitLog(habitID, date string, action Action, at time.Time) *HabitLog {
	return &HabitLog{
		ID:        uuid.New().String(),
		Date:      date,
		HabitID:   habitID,
		Action:    action,
		Timestamp: at,
	}
}

// Matches reports whether the log is for the given habit, date and action.
func (l *HabitLog) Matches(habitID, date string, action Action) bool {
	return l.HabitID == habitID && l.Date == date && l.Action == action
}

// ParseDate validates a YYYY-MM-DD date in local time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
	}
	return t, nil
}

// FormatDate formats t as a local calendar date.
func FormatDate(t time.Time) string {
	return t.In(time.Local).Format(DateLayout)
}

// Today returns the local calendar date of now.
func Today(now time.Time) string {
	return FormatDate(now)
}
