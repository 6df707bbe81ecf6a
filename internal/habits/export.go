// ABOUTME: Snapshot export/import for sync plus file export formats.
// ABOUTME: Supports JSON, YAML, and Markdown export and JSON import.
package habits

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/habits/internal/logger"
	"github.com/harperreed/habits/internal/models"
	"gopkg.in/yaml.v3"
)

// Snapshot is the full synchronized state. Its JSON form is the sync payload.
type Snapshot struct {
	Habits []models.Habit    `json:"habits" yaml:"habits"`
	Logs   []models.HabitLog `json:"logs" yaml:"logs"`
}

// Export returns a copy of the current state.
func (s *Store) Export() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Habits: append([]models.Habit{}, s.habits...),
		Logs:   append([]models.HabitLog{}, s.logs...),
	}
}

// Import replaces all local state with snap and persists both collections.
// There is no merge.
func (s *Store) Import(snap Snapshot) error {
	habits := migrateLegacy(snap.Habits)
	logs := append([]models.HabitLog{}, snap.Logs...)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.habits = habits
	s.logs = logs
	logger.Info("state replaced", "habits", len(habits), "logs", len(logs))

	herr := s.saveHabits()
	lerr := s.saveLogs()
	if herr != nil {
		return herr
	}
	return lerr
}

// ExportData is the file export envelope.
type ExportData struct {
	Version    string            `json:"version" yaml:"version"`
	ExportedAt time.Time         `json:"exported_at" yaml:"exported_at"`
	Tool       string            `json:"tool" yaml:"tool"`
	Habits     []models.Habit    `json:"habits" yaml:"habits"`
	Logs       []models.HabitLog `json:"logs" yaml:"logs"`
}

func (s *Store) exportData() ExportData {
	snap := s.Export()
	return ExportData{
		Version:    "1.0",
		ExportedAt: s.now(),
		Tool:       "habits",
		Habits:     snap.Habits,
		Logs:       snap.Logs,
	}
}

// ExportJSON exports all data as indented JSON.
func (s *Store) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(s.exportData(), "", "  ")
}

// ImportJSON replaces state from a JSON export. A bare sync payload with
// only habits and logs is accepted too.
func (s *Store) ImportJSON(data []byte) error {
	var exportData ExportData
	if err := json.Unmarshal(data, &exportData); err != nil {
		return fmt.Errorf("%w: unmarshal JSON: %v", ErrValidation, err)
	}
	for i := range exportData.Habits {
		h := exportData.Habits[i]
		if h.Status == "" {
			h.Status = models.StatusActive
		}
		if err := h.Validate(); err != nil {
			return fmt.Errorf("%w: habit %s: %v", ErrValidation, h.ID, err)
		}
		if !h.Status.IsValid() {
			return fmt.Errorf("%w: habit %s: unknown status %q", ErrValidation, h.ID, h.Status)
		}
	}
	return s.Import(Snapshot{Habits: exportData.Habits, Logs: exportData.Logs})
}

// ExportYAML exports habits grouped by status with per-day scores.
func (s *Store) ExportYAML() ([]byte, error) {
	data := s.exportData()

	yamlData := struct {
		Version    string                 `yaml:"version"`
		ExportedAt string                 `yaml:"exported_at"`
		Tool       string                 `yaml:"tool"`
		TotalScore int                    `yaml:"total_score"`
		Habits     map[string][]yamlHabit `yaml:"habits"`
		Days       []yamlDay              `yaml:"days"`
	}{
		Version:    data.Version,
		ExportedAt: data.ExportedAt.Format(time.RFC3339),
		Tool:       data.Tool,
		TotalScore: s.TotalScore(),
		Habits:     make(map[string][]yamlHabit),
	}

	names := make(map[string]string, len(data.Habits))
	for _, h := range data.Habits {
		names[h.ID] = h.Name
		yamlData.Habits[string(h.Status)] = append(yamlData.Habits[string(h.Status)], yamlHabit{
			ID:     h.ShortID(),
			Name:   h.Name,
			Type:   string(h.Type),
			Points: h.Points,
			Emoji:  h.Emoji,
		})
	}

	byDate := make(map[string][]string)
	for _, l := range data.Logs {
		name := names[l.HabitID]
		if name == "" {
			name = l.HabitID
		}
		byDate[l.Date] = append(byDate[l.Date], fmt.Sprintf("%s %s", l.Action, name))
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	for _, d := range dates {
		entries := byDate[d]
		sort.Strings(entries)
		yamlData.Days = append(yamlData.Days, yamlDay{
			Date:    d,
			Score:   s.CalculateDayScore(d),
			Entries: entries,
		})
	}

	return yaml.Marshal(yamlData)
}

type yamlHabit struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Points int    `yaml:"points"`
	Emoji  string `yaml:"emoji,omitempty"`
}

type yamlDay struct {
	Date    string   `yaml:"date"`
	Score   int      `yaml:"score"`
	Entries []string `yaml:"entries"`
}

// ExportMarkdown renders habits and day scores as Markdown. When since is
// non-empty only days on or after it are listed.
func (s *Store) ExportMarkdown(since string) (string, error) {
	if since != "" {
		if _, err := models.ParseDate(since); err != nil {
			return "", fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	data := s.exportData()
	now := data.ExportedAt

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Habits Export - %s\n\n", models.FormatDate(now)))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Total score: %d\n\n", s.TotalScore()))

	for _, status := range models.AllStatuses {
		var rows []models.Habit
		for _, h := range data.Habits {
			if h.Status == status {
				rows = append(rows, h)
			}
		}
		if len(rows) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("## %s habits\n\n", titleCase(string(status))))
		sb.WriteString("| Habit | Type | Points |\n")
		sb.WriteString("|-------|------|--------|\n")
		for _, h := range rows {
			sb.WriteString(fmt.Sprintf("| %s %s | %s | %d |\n", h.Emoji, h.Name, h.Type, h.Points))
		}
		sb.WriteString("\n")
	}

	seen := map[string]bool{}
	var dates []string
	for _, l := range data.Logs {
		if since != "" && l.Date < since {
			continue
		}
		if !seen[l.Date] {
			seen[l.Date] = true
			dates = append(dates, l.Date)
		}
	}
	sort.Strings(dates)

	if len(dates) > 0 {
		sb.WriteString("## Days\n\n")
		sb.WriteString("| Date | Score | Level | Good | Indulged | Avoided |\n")
		sb.WriteString("|------|-------|-------|------|----------|---------|\n")
		for _, d := range dates {
			det := s.DayDetails(d)
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %d | %d | %d |\n",
				d, det.Score, det.Level, det.GoodDone, det.BadIndulged, det.BadAvoided))
		}
	}

	return sb.String(), nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
