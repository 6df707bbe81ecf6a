// ABOUTME: Scoring engine: day scores, totals, score levels, and day details.
// ABOUTME: Also range and streak statistics built on the day score.
package habits

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/harperreed/habits/internal/models"
)

// AvoidanceRate is the share of a bad habit's points earned for not
// indulging on a past day.
const AvoidanceRate = 0.4

// AvoidanceBonus returns floor(points * AvoidanceRate).
func AvoidanceBonus(points int) int {
	return int(math.Floor(float64(points) * AvoidanceRate))
}

// Level is a qualitative band for a day score.
type Level string

const (
	LevelExcellent   Level = "excellent"
	LevelGreat       Level = "great"
	LevelGood        Level = "good"
	LevelOK          Level = "ok"
	LevelNeutral     Level = "neutral"
	LevelSlightlyBad Level = "slightly-bad"
	LevelBad         Level = "bad"
	LevelVeryBad     Level = "very-bad"
)

// ScoreLevel maps a score to its band.
func ScoreLevel(score int) Level {
	switch {
	case score >= 40:
		return LevelExcellent
	case score >= 20:
		return LevelGreat
	case score >= 10:
		return LevelGood
	case score > 0:
		return LevelOK
	case score == 0:
		return LevelNeutral
	case score > -10:
		return LevelSlightlyBad
	case score > -20:
		return LevelBad
	default:
		return LevelVeryBad
	}
}

// DayDetails counts what happened on a day among non-archived habits.
type DayDetails struct {
	Date        string `json:"date"`
	GoodDone    int    `json:"goodDone"`
	BadIndulged int    `json:"badIndulged"`
	BadAvoided  int    `json:"badAvoided"`
	Score       int    `json:"score"`
	Level       Level  `json:"level"`
}

// DayScore pairs a date with its score.
type DayScore struct {
	Date  string `json:"date"`
	Score int    `json:"score"`
	Level Level  `json:"level"`
}

// dayIndex is the set of (habit, action) pairs logged on one date.
type dayIndex map[string]map[models.Action]bool

func (s *Store) indexDay(date string) dayIndex {
	idx := dayIndex{}
	for _, l := range s.logs {
		if l.Date != date {
			continue
		}
		if idx[l.HabitID] == nil {
			idx[l.HabitID] = map[models.Action]bool{}
		}
		idx[l.HabitID][l.Action] = true
	}
	return idx
}

func (idx dayIndex) has(habitID string, action models.Action) bool {
	return idx[habitID][action]
}

// CalculateDayScore scores date across every habit regardless of status.
// A date with no logs scores 0. Avoidance bonuses only apply to dates
// strictly before today.
func (s *Store) CalculateDayScore(date string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dayScore(date, s.today())
}

func (s *Store) dayScore(date, today string) int {
	idx := s.indexDay(date)
	if len(idx) == 0 {
		return 0
	}
	past := date < today

	score := 0
	for _, h := range s.habits {
		switch h.Type {
		case models.HabitGood:
			if idx.has(h.ID, models.ActionDone) {
				score += h.Points
			}
		case models.HabitBad:
			if idx.has(h.ID, models.ActionIndulged) {
				score -= h.Points
			} else if past {
				score += AvoidanceBonus(h.Points)
			}
		}
	}
	return score
}

// TotalScore sums the day score over every distinct date that has a log.
func (s *Store) TotalScore() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	today := s.today()
	total := 0
	for _, date := range s.loggedDates() {
		total += s.dayScore(date, today)
	}
	return total
}

// loggedDates returns the distinct log dates in ascending order.
func (s *Store) loggedDates() []string {
	seen := map[string]bool{}
	var dates []string
	for _, l := range s.logs {
		if !seen[l.Date] {
			seen[l.Date] = true
			dates = append(dates, l.Date)
		}
	}
	sort.Strings(dates)
	return dates
}

// DayDetails reports counts for date. Archived habits are excluded from
// the counts; Score is the full day score.
func (s *Store) DayDetails(date string) DayDetails {
	s.mu.RLock()
	defer s.mu.RUnlock()

	today := s.today()
	d := DayDetails{Date: date, Score: s.dayScore(date, today)}
	d.Level = ScoreLevel(d.Score)

	idx := s.indexDay(date)
	past := date < today && len(idx) > 0
	for _, h := range s.habits {
		if h.Status == models.StatusArchived {
			continue
		}
		switch h.Type {
		case models.HabitGood:
			if idx.has(h.ID, models.ActionDone) {
				d.GoodDone++
			}
		case models.HabitBad:
			if idx.has(h.ID, models.ActionIndulged) {
				d.BadIndulged++
			} else if past {
				d.BadAvoided++
			}
		}
	}
	return d
}

// ScoresInRange returns the score for each day from from to to inclusive.
func (s *Store) ScoresInRange(from, to string) ([]DayScore, error) {
	days, err := dateRange(from, to)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	today := s.today()
	out := make([]DayScore, 0, len(days))
	for _, date := range days {
		score := s.dayScore(date, today)
		out = append(out, DayScore{Date: date, Score: score, Level: ScoreLevel(score)})
	}
	return out, nil
}

// PeriodScore sums day scores from from to to inclusive.
func (s *Store) PeriodScore(from, to string) (int, error) {
	scores, err := s.ScoresInRange(from, to)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, ds := range scores {
		total += ds.Score
	}
	return total, nil
}

// maxRangeDays bounds ScoresInRange.
const maxRangeDays = 3660

func dateRange(from, to string) ([]string, error) {
	start, err := models.ParseDate(from)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	end, err := models.ParseDate(to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: range ends before it starts", ErrValidation)
	}

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if len(days) >= maxRangeDays {
			return nil, fmt.Errorf("%w: range longer than %d days", ErrValidation, maxRangeDays)
		}
		days = append(days, models.FormatDate(d))
	}
	return days, nil
}

// Summary is an overview of the whole history.
type Summary struct {
	TotalScore    int       `json:"totalScore"`
	ActiveDays    int       `json:"activeDays"`
	BestDay       *DayScore `json:"bestDay,omitempty"`
	WorstDay      *DayScore `json:"worstDay,omitempty"`
	CurrentStreak int       `json:"currentStreak"`
	ActiveHabits  int       `json:"activeHabits"`
	Archived      int       `json:"archivedHabits"`
	Deleted       int       `json:"deletedHabits"`
}

// Summary computes totals, best and worst days, and the current streak of
// consecutive positive days. Today only counts toward the streak once it
// is positive.
func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	today := s.today()
	var sum Summary
	for _, date := range s.loggedDates() {
		score := s.dayScore(date, today)
		sum.TotalScore += score
		sum.ActiveDays++
		ds := DayScore{Date: date, Score: score, Level: ScoreLevel(score)}
		if sum.BestDay == nil || score > sum.BestDay.Score {
			best := ds
			sum.BestDay = &best
		}
		if sum.WorstDay == nil || score < sum.WorstDay.Score {
			worst := ds
			sum.WorstDay = &worst
		}
	}

	for _, h := range s.habits {
		switch h.Status {
		case models.StatusActive:
			sum.ActiveHabits++
		case models.StatusArchived:
			sum.Archived++
		case models.StatusDeleted:
			sum.Deleted++
		}
	}

	sum.CurrentStreak = s.streak(today)
	return sum
}

func (s *Store) streak(today string) int {
	day, err := models.ParseDate(today)
	if err != nil {
		return 0
	}
	if s.dayScore(today, today) <= 0 {
		day = day.AddDate(0, 0, -1)
	}

	n := 0
	for {
		date := models.FormatDate(day)
		if s.dayScore(date, today) <= 0 {
			return n
		}
		n++
		day = day.AddDate(0, 0, -1)
	}
}

// Now returns the current time from the store clock.
func (s *Store) Now() time.Time {
	return s.now()
}
