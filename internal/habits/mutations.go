// ABOUTME: Habit Store mutations: add, toggle, edit, and lifecycle transitions.
// ABOUTME: Every mutation writes the changed collection through to persistence.
package habits

import (
	"fmt"
	"strings"

	"github.com/harperreed/habits/internal/logger"
	"github.com/harperreed/habits/internal/models"
)

// AddHabit validates and appends a new active habit.
func (s *Store) AddHabit(name string, habitType models.HabitType, points int, emoji string) (models.Habit, error) {
	h := models.NewHabit(name, habitType, points, strings.TrimSpace(emoji), s.now())
	if err := h.Validate(); err != nil {
		return models.Habit{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.habits = append(s.habits, *h)
	logger.Debug("habit added", "id", h.ID, "name", h.Name, "type", h.Type, "points", h.Points)
	return *h, s.saveHabits()
}

// ToggleGoodHabit adds or removes the done log for a good habit on date.
func (s *Store) ToggleGoodHabit(habitID, date string) (bool, error) {
	return s.toggle(habitID, date, models.HabitGood)
}

// ToggleBadHabit adds or removes the indulged log for a bad habit on date.
func (s *Store) ToggleBadHabit(habitID, date string) (bool, error) {
	return s.toggle(habitID, date, models.HabitBad)
}

// ToggleHabit toggles whichever action matches the habit's type.
func (s *Store) ToggleHabit(habitID, date string) (bool, error) {
	h, err := s.Habit(habitID)
	if err != nil {
		return false, err
	}
	return s.toggle(habitID, date, h.Type)
}

// toggle reports whether the log exists after the call.
func (s *Store) toggle(habitID, date string, want models.HabitType) (bool, error) {
	if _, err := models.ParseDate(date); err != nil {
		return false, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(habitID)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrHabitNotFound, habitID)
	}
	h := s.habits[i]
	if h.Type != want {
		return false, fmt.Errorf("%w: %s is a %s habit", ErrTypeMismatch, h.Name, h.Type)
	}

	action := models.ActionFor(want)
	for j := range s.logs {
		if s.logs[j].Matches(habitID, date, action) {
			s.logs = append(s.logs[:j], s.logs[j+1:]...)
			logger.Debug("log removed", "habit", h.Name, "date", date, "action", action)
			return false, s.saveLogs()
		}
	}

	s.logs = append(s.logs, *models.NewHabitLog(habitID, date, action, s.now()))
	logger.Debug("log added", "habit", h.Name, "date", date, "action", action)
	return true, s.saveLogs()
}

// HabitPatch holds optional edits to a habit. Nil fields are left alone.
// Type and points are fixed at creation so past day scores never move.
type HabitPatch struct {
	Name  *string
	Emoji *string
}

// UpdateHabit renames a habit or changes its emoji.
func (s *Store) UpdateHabit(id string, patch HabitPatch) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Habit{}, fmt.Errorf("%w: %s", ErrHabitNotFound, id)
	}

	updated := s.habits[i]
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Emoji != nil {
		updated.Emoji = strings.TrimSpace(*patch.Emoji)
	}
	if err := updated.Validate(); err != nil {
		return models.Habit{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	s.habits[i] = updated
	return updated, s.saveHabits()
}

// ArchiveHabit hides an active habit from day views. Its logs still score.
func (s *Store) ArchiveHabit(id string) error {
	return s.transition(id, models.Status.Archive)
}

// DeleteHabit soft-deletes an active habit. It stays visible on past days.
func (s *Store) DeleteHabit(id string) error {
	return s.transition(id, models.Status.Delete)
}

// RestoreHabit returns an archived or deleted habit to active.
func (s *Store) RestoreHabit(id string) error {
	return s.transition(id, models.Status.Restore)
}

// UnarchiveHabit is RestoreHabit under its older name.
func (s *Store) UnarchiveHabit(id string) error {
	return s.RestoreHabit(id)
}

func (s *Store) transition(id string, next func(models.Status) (models.Status, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrHabitNotFound, id)
	}

	status, err := next(s.habits[i].Status)
	if err != nil {
		return err
	}
	logger.Debug("habit status changed", "id", id, "from", s.habits[i].Status, "to", status)
	s.habits[i].Status = status
	return s.saveHabits()
}

// PermanentlyDeleteHabit removes the habit and every log that references it.
// Any status is accepted.
func (s *Store) PermanentlyDeleteHabit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrHabitNotFound, id)
	}
	s.habits = append(s.habits[:i], s.habits[i+1:]...)

	kept := s.logs[:0]
	removed := 0
	for _, l := range s.logs {
		if l.HabitID == id {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	s.logs = kept
	logger.Info("habit permanently deleted", "id", id, "logs_removed", removed)

	herr := s.saveHabits()
	lerr := s.saveLogs()
	if herr != nil {
		return herr
	}
	return lerr
}
