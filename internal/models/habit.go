// ABOUTME: Habit model with HabitType and Status enums for habit tracking.
// ABOUTME: Status is a tagged variant with explicit lifecycle transitions.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HabitType distinguishes rewarded habits from penalized ones.
type HabitType string

const (
	HabitGood HabitType = "good"
	HabitBad  HabitType = "bad"
)

// IsValid reports whether t is a known habit type.
func (t HabitType) IsValid() bool {
	return t == HabitGood || t == HabitBad
}

// ParseHabitType parses a habit type from user input.
func ParseHabitType(s string) (HabitType, error) {
	t := HabitType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown habit type: %q (use good or bad)", s)
	}
	return t, nil
}

// Status is the lifecycle state of a habit.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDeleted  Status = "deleted"
)

// AllStatuses lists every lifecycle state.
var AllStatuses = []Status{StatusActive, StatusArchived, StatusDeleted}

// ErrInvalidTransition is returned when a lifecycle change is not allowed
// from the habit's current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusArchived, StatusDeleted:
		return true
	}
	return false
}

// Archive moves an active habit to archived.
func (s Status) Archive() (Status, error) {
	if s != StatusActive {
		return s, fmt.Errorf("%w: archive from %s", ErrInvalidTransition, s)
	}
	return StatusArchived, nil
}

// Delete soft-deletes an active habit.
func (s Status) Delete() (Status, error) {
	if s != StatusActive {
		return s, fmt.Errorf("%w: delete from %s", ErrInvalidTransition, s)
	}
	return StatusDeleted, nil
}

// Restore returns an archived or soft-deleted habit to active.
func (s Status) Restore() (Status, error) {
	if s != StatusArchived && s != StatusDeleted {
		return s, fmt.Errorf("%w: restore from %s", ErrInvalidTransition, s)
	}
	return StatusActive, nil
}

// RecommendedPoints are the point values offered when creating a habit.
// Other positive values are accepted.
var RecommendedPoints = []int{5, 10, 15, 20, 25, 50}

// Habit is a tracked behavior. Type and Points are fixed at creation;
// Emoji is display-only.
type Habit struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Type      HabitType `json:"type" yaml:"type"`
	Points    int       `json:"points" yaml:"points"`
	Emoji     string    `json:"emoji" yaml:"emoji"`
	Status    Status    `json:"status" yaml:"status"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at,omitempty"`
}

// NewHabit creates an active Habit with a generated ID, created at at.
func NewHabit(name string, habitType HabitType, points int, emoji string, at time.Time) *Habit {
	return &Habit{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Type:      habitType,
		Points:    points,
		Emoji:     emoji,
		Status:    StatusActive,
		CreatedAt: at,
	}
}

// Action returns the log action that records this habit happening.
func (h *Habit) Action() Action {
	return ActionFor(h.Type)
}

// ShortID returns the first 8 characters of the ID for display.
func (h *Habit) ShortID() string {
	if len(h.ID) > 8 {
		return h.ID[:8]
	}
	return h.ID
}

// Validate checks the fields required for a habit to be stored.
func (h *Habit) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return errors.New("name must not be empty")
	}
	if !h.Type.IsValid() {
		return fmt.Errorf("unknown habit type: %q", h.Type)
	}
	if h.Points <= 0 {
		return fmt.Errorf("points must be positive, got %d", h.Points)
	}
	return nil
}
