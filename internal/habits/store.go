// ABOUTME: Habit Store owning the canonical habit and log collections.
// ABOUTME: Loads and saves whole-collection JSON blobs through a KV collaborator.
package habits

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/harperreed/habits/internal/logger"
	"github.com/harperreed/habits/internal/models"
	"github.com/harperreed/habits/internal/storage"
)

// Persistence keys. The suffix versions the blob format.
const (
	HabitsKey = "habits.v1"
	LogsKey   = "logs.v1"
)

var (
	// ErrValidation is returned when input is rejected without changing state.
	ErrValidation = errors.New("validation failed")
	// ErrHabitNotFound is returned when no habit matches an id or reference.
	ErrHabitNotFound = errors.New("habit not found")
	// ErrAmbiguousRef is returned when a reference matches several habits.
	ErrAmbiguousRef = errors.New("ambiguous habit reference")
	// ErrTypeMismatch is returned when toggling a habit with the wrong action.
	ErrTypeMismatch = errors.New("action does not match habit type")
	// ErrPersistence wraps failures writing to the local store.
	ErrPersistence = errors.New("persistence failed")
)

// Persistence is the local get/set collaborator. storage.KV satisfies it.
type Persistence interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// Store holds habits and logs in memory and writes through on mutation.
// A failed write is returned to the caller; the in-memory change is kept.
type Store struct {
	mu     sync.RWMutex
	p      Persistence
	habits []models.Habit
	logs   []models.HabitLog
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open loads state from p. Load failures never propagate: unreadable
// habits fall back to DefaultHabits and unreadable logs to an empty list.
func Open(p Persistence, opts ...Option) *Store {
	s := &Store{p: p, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.load()
	return s
}

// DefaultHabits is the starter set used on first run or when the stored
// habits cannot be read, created at at.
func DefaultHabits(at time.Time) []models.Habit {
	defaults := []struct {
		name   string
		typ    models.HabitType
		points int
		emoji  string
	}{
		{"Exercise", models.HabitGood, 20, "💪"},
		{"Read", models.HabitGood, 10, "📚"},
		{"Meditate", models.HabitGood, 10, "🧘"},
		{"Smoking", models.HabitBad, 25, "🚬"},
		{"Junk food", models.HabitBad, 10, "🍔"},
	}

	habits := make([]models.Habit, 0, len(defaults))
	for _, d := range defaults {
		habits = append(habits, *models.NewHabit(d.name, d.typ, d.points, d.emoji, at))
	}
	return habits
}

func (s *Store) load() {
	habits, err := loadCollection[models.Habit](s.p, HabitsKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.Debug("no stored habits, seeding defaults")
		s.habits = DefaultHabits(s.now())
		// Persist so default ids stay stable for logs written later.
		if err := s.saveHabits(); err != nil {
			logger.Warn("seed default habits failed", "error", err)
		}
		habits = s.habits
	case err != nil:
		logger.Warn("load habits failed, using defaults", "error", err)
		habits = DefaultHabits(s.now())
	}
	s.habits = migrateLegacy(habits)

	logs, err := loadCollection[models.HabitLog](s.p, LogsKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("load logs failed, starting empty", "error", err)
		}
		logs = []models.HabitLog{}
	}
	s.logs = logs
}

func loadCollection[T any](p Persistence, key string) ([]T, error) {
	if p == nil {
		return nil, storage.ErrNotFound
	}
	data, err := p.Get(key)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// migrateLegacy defaults a missing status to active.
func migrateLegacy(habits []models.Habit) []models.Habit {
	out := make([]models.Habit, 0, len(habits))
	for _, h := range habits {
		if h.Status == "" {
			h.Status = models.StatusActive
		}
		out = append(out, h)
	}
	return out
}

func (s *Store) saveHabits() error {
	return s.save(HabitsKey, s.habits)
}

func (s *Store) saveLogs() error {
	return s.save(LogsKey, s.logs)
}

func (s *Store) save(key string, v any) error {
	if s.p == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrPersistence, key, err)
	}
	if err := s.p.Set(key, data); err != nil {
		logger.Error("save failed", "key", key, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrPersistence, key, err)
	}
	return nil
}

func (s *Store) today() string {
	return models.Today(s.now())
}

// Today returns the store's current local date.
func (s *Store) Today() string {
	return s.today()
}

func (s *Store) indexOf(id string) int {
	for i := range s.habits {
		if s.habits[i].ID == id {
			return i
		}
	}
	return -1
}

// Habit returns the habit with the given id.
func (s *Store) Habit(id string) (models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Habit{}, fmt.Errorf("%w: %s", ErrHabitNotFound, id)
	}
	return s.habits[i], nil
}

// Habits returns every habit regardless of status.
func (s *Store) Habits() []models.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Habit(nil), s.habits...)
}

// HabitsByStatus returns habits with the given status.
func (s *Store) HabitsByStatus(status models.Status) []models.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Habit
	for _, h := range s.habits {
		if h.Status == status {
			out = append(out, h)
		}
	}
	return out
}

// HabitsForDay returns the habits shown for a day: active habits, plus
// soft-deleted ones when the day is in the past. Archived habits are hidden.
func (s *Store) HabitsForDay(date string) []models.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	past := date < s.today()
	var out []models.Habit
	for _, h := range s.habits {
		if h.Status == models.StatusActive || (past && h.Status == models.StatusDeleted) {
			out = append(out, h)
		}
	}
	return out
}

// Logs returns every log.
func (s *Store) Logs() []models.HabitLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.HabitLog(nil), s.logs...)
}

// LogsForDate returns the logs recorded on date.
func (s *Store) LogsForDate(date string) []models.HabitLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.HabitLog
	for _, l := range s.logs {
		if l.Date == date {
			out = append(out, l)
		}
	}
	return out
}

// FindHabit resolves ref as an exact id, a unique id prefix, or a unique
// case-insensitive name.
func (s *Store) FindHabit(ref string) (models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Habit{}, fmt.Errorf("%w: empty reference", ErrHabitNotFound)
	}
	if i := s.indexOf(ref); i >= 0 {
		return s.habits[i], nil
	}

	match := func(pred func(h models.Habit) bool) (models.Habit, int) {
		var found models.Habit
		n := 0
		for _, h := range s.habits {
			if pred(h) {
				found = h
				n++
			}
		}
		return found, n
	}

	if h, n := match(func(h models.Habit) bool { return strings.HasPrefix(h.ID, ref) }); n == 1 {
		return h, nil
	} else if n > 1 {
		return models.Habit{}, fmt.Errorf("%w: %s matches %d habits", ErrAmbiguousRef, ref, n)
	}

	if h, n := match(func(h models.Habit) bool { return strings.EqualFold(h.Name, ref) }); n == 1 {
		return h, nil
	} else if n > 1 {
		return models.Habit{}, fmt.Errorf("%w: %s matches %d habits", ErrAmbiguousRef, ref, n)
	}

	return models.Habit{}, fmt.Errorf("%w: %s", ErrHabitNotFound, ref)
}
