// ABOUTME: Tests for day scoring, score levels, day details, and statistics.
// ABOUTME: Dates are relative to a fixed clock of 2024-01-10.
package habits

import (
	"testing"

	"github.com/harperreed/habits/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayScoreScenario(t *testing.T) {
	s, _ := newEmptyStore(t)

	exercise, err := s.AddHabit("Exercise", models.HabitGood, 20, "💪")
	require.NoError(t, err)
	_, err = s.ToggleGoodHabit(exercise.ID, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 20, s.CalculateDayScore("2024-01-01"))

	smoking, err := s.AddHabit("Smoking", models.HabitBad, 25, "🚬")
	require.NoError(t, err)
	assert.Equal(t, 30, s.CalculateDayScore("2024-01-01"))

	_, err = s.ToggleBadHabit(smoking.ID, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, -5, s.CalculateDayScore("2024-01-01"))
	assert.Equal(t, LevelSlightlyBad, ScoreLevel(-5))
}

func TestDayScoreNoLogsIsZero(t *testing.T) {
	s, _ := newEmptyStore(t)
	_, err := s.AddHabit("Smoking", models.HabitBad, 25, "")
	require.NoError(t, err)

	assert.Equal(t, 0, s.CalculateDayScore("2024-01-01"))
	assert.Equal(t, 0, s.CalculateDayScore("2024-01-10"))
	assert.Equal(t, 0, s.CalculateDayScore("2024-01-11"))
	assert.Equal(t, 0, s.CalculateDayScore("2099-12-31"))
	assert.Equal(t, 0, s.CalculateDayScore("not-a-date"))
}

func TestUpdateHabitKeepsPastScores(t *testing.T) {
	s, _ := newEmptyStore(t)
	exercise, err := s.AddHabit("Exercise", models.HabitGood, 20, "💪")
	require.NoError(t, err)
	_, err = s.ToggleGoodHabit(exercise.ID, "2024-01-01")
	require.NoError(t, err)
	before := s.TotalScore()

	name, emoji := "Gym", "🏋️"
	_, err = s.UpdateHabit(exercise.ID, HabitPatch{Name: &name, Emoji: &emoji})
	require.NoError(t, err)

	assert.Equal(t, 20, s.CalculateDayScore("2024-01-01"))
	assert.Equal(t, before, s.TotalScore())
}

func TestDayScoreNoAvoidanceBonusToday(t *testing.T) {
	s, _ := newEmptyStore(t)
	read, err := s.AddHabit("Read", models.HabitGood, 10, "")
	require.NoError(t, err)
	_, err = s.AddHabit("Smoking", models.HabitBad, 25, "")
	require.NoError(t, err)

	for _, d := range []string{"2024-01-09", "2024-01-10", "2024-01-11"} {
		_, err := s.ToggleGoodHabit(read.ID, d)
		require.NoError(t, err)
	}

	assert.Equal(t, 20, s.CalculateDayScore("2024-01-09"))
	assert.Equal(t, 10, s.CalculateDayScore("2024-01-10"))
	assert.Equal(t, 10, s.CalculateDayScore("2024-01-11"))
}

func TestDayScoreCountsEveryStatus(t *testing.T) {
	s, _ := newEmptyStore(t)
	read, err := s.AddHabit("Read", models.HabitGood, 10, "")
	require.NoError(t, err)
	walk, err := s.AddHabit("Walk", models.HabitGood, 5, "")
	require.NoError(t, err)
	soda, err := s.AddHabit("Soda", models.HabitBad, 15, "")
	require.NoError(t, err)

	_, err = s.ToggleGoodHabit(read.ID, "2024-01-05")
	require.NoError(t, err)
	_, err = s.ToggleGoodHabit(walk.ID, "2024-01-05")
	require.NoError(t, err)

	before := s.CalculateDayScore("2024-01-05")
	assert.Equal(t, 10+5+6, before)

	require.NoError(t, s.ArchiveHabit(walk.ID))
	require.NoError(t, s.DeleteHabit(soda.ID))
	assert.Equal(t, before, s.CalculateDayScore("2024-01-05"))

	require.NoError(t, s.PermanentlyDeleteHabit(walk.ID))
	assert.Equal(t, 10+6, s.CalculateDayScore("2024-01-05"))
}

func TestAvoidanceBonus(t *testing.T) {
	tests := []struct {
		points int
		want   int
	}{
		{5, 2},
		{10, 4},
		{15, 6},
		{20, 8},
		{25, 10},
		{50, 20},
		{1, 0},
		{3, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AvoidanceBonus(tt.points), "points=%d", tt.points)
	}
}

func TestScoreLevel(t *testing.T) {
	tests := []struct {
		score int
		want  Level
	}{
		{45, LevelExcellent},
		{40, LevelExcellent},
		{39, LevelGreat},
		{20, LevelGreat},
		{19, LevelGood},
		{10, LevelGood},
		{9, LevelOK},
		{1, LevelOK},
		{0, LevelNeutral},
		{-1, LevelSlightlyBad},
		{-5, LevelSlightlyBad},
		{-9, LevelSlightlyBad},
		{-10, LevelBad},
		{-19, LevelBad},
		{-20, LevelVeryBad},
		{-100, LevelVeryBad},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScoreLevel(tt.score), "score=%d", tt.score)
	}
}

func TestTotalScore(t *testing.T) {
	s, _ := newEmptyStore(t)
	read, err := s.AddHabit("Read", models.HabitGood, 10, "")
	require.NoError(t, err)
	smoking, err := s.AddHabit("Smoking", models.HabitBad, 25, "")
	require.NoError(t, err)

	_, err = s.ToggleGoodHabit(read.ID, "2024-01-01")
	require.NoError(t, err)
	_, err = s.ToggleBadHabit(smoking.ID, "2024-01-02")
	require.NoError(t, err)
	_, err = s.ToggleGoodHabit(read.ID, "2024-01-02")
	require.NoError(t, err)

	want := s.CalculateDayScore("2024-01-01") + s.CalculateDayScore("2024-01-02")
	assert.Equal(t, 20+(-15), want)
	assert.Equal(t, want, s.TotalScore())
}

func TestTotalScoreEmpty(t *testing.T) {
	s, _ := newEmptyStore(t)
	assert.Equal(t, 0, s.TotalScore())
}

func TestDayDetails(t *testing.T) {
	s, _ := newEmptyStore(t)
	read, err := s.AddHabit("Read", models.HabitGood, 10, "")
	require.NoError(t, err)
	walk, err := s.AddHabit("Walk", models.HabitGood, 5, "")
	require.NoError(t, err)
	smoking, err := s.AddHabit("Smoking", models.HabitBad, 25, "")
	require.NoError(t, err)
	_, err = s.AddHabit("Soda", models.HabitBad, 10, "")
	require.NoError(t, err)

	_, err = s.ToggleGoodHabit(read.ID, "2024-01-05")
	require.NoError(t, err)
	_, err = s.ToggleGoodHabit(walk.ID, "2024-01-05")
	require.NoError(t, err)
	_, err = s.ToggleBadHabit(smoking.ID, "2024-01-05")
	require.NoError(t, err)

	d := s.DayDetails("2024-01-05")
	assert.Equal(t, 2, d.GoodDone)
	assert.Equal(t, 1, d.BadIndulged)
	assert.Equal(t, 1, d.BadAvoided)
	assert.Equal(t, 10+5-25+4, d.Score)

	require.NoError(t, s.ArchiveHabit(walk.ID))
	d = s.DayDetails("2024-01-05")
	assert.Equal(t, 1, d.GoodDone)
	assert.Equal(t, 10+5-25+4, d.Score, "archived habits still score")
}

func TestDayDetailsTodayHasNoAvoided(t *testing.T) {
	s, _ := newEmptyStore(t)
	read, err := s.AddHabit("Read", models.HabitGood, 10, "")
	require.NoError(t, err)
	_, err = s.AddHabit("Smoking", models.HabitBad, 25, "")
	require.NoError(t, err)

	_, err = s.ToggleGoodHabit(read.ID, "2024-01-10")
	require.NoError(t, err)

	d := s.DayDetails("2024-01-10")
	assert.Equal(t, 1, d.GoodDone)
	assert.Equal(t, 0, d.BadAvoided)
	assert.Equal(t, 10, d.Score)
}

func TestScoresInRangeAndPeriod(t *testing.T) {
	s, _ := newEmptyStore(t)
	read, err := s.AddHabit("Read", models.HabitGood, 10, "")
	require.NoError(t, err)
	_, err = s.ToggleGoodHabit(read.ID, "2024-01-02")
	require.NoError(t, err)
	_, err = s.ToggleGoodHabit(read.ID, "2024-01-04")
	require.NoError(t, err)

	scores, err := s.ScoresInRange("2024-01-01", "2024-01-05")
	require.NoError(t, err)
	require.Len(t, scores, 5)
	assert.Equal(t, "2024-01-01", scores[0].Date)
	assert.Equal(t, 0, scores[0].Score)
	assert.Equal(t, 10, scores[1].Score)
	assert.Equal(t, LevelGood, scores[1].Level)
	assert.Equal(t, "2024-01-05", scores[4].Date)

	total, err := s.PeriodScore("2024-01-01", "2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, 20, total)

	_, err = s.ScoresInRange("2024-01-05", "2024-01-01")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.ScoresInRange("yesterday", "2024-01-01")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSummary(t *testing.T) {
	s, _ := newEmptyStore(t)
	read, err := s.AddHabit("Read", models.HabitGood, 10, "")
	require.NoError(t, err)
	smoking, err := s.AddHabit("Smoking", models.HabitBad, 25, "")
	require.NoError(t, err)

	// 2024-01-03 is negative, 01-08 and 01-09 positive, today untouched.
	_, err = s.ToggleBadHabit(smoking.ID, "2024-01-03")
	require.NoError(t, err)
	_, err = s.ToggleGoodHabit(read.ID, "2024-01-08")
	require.NoError(t, err)
	_, err = s.ToggleGoodHabit(read.ID, "2024-01-09")
	require.NoError(t, err)

	sum := s.Summary()
	assert.Equal(t, -25+20+20, sum.TotalScore)
	assert.Equal(t, 3, sum.ActiveDays)
	require.NotNil(t, sum.BestDay)
	assert.Equal(t, "2024-01-08", sum.BestDay.Date)
	require.NotNil(t, sum.WorstDay)
	assert.Equal(t, "2024-01-03", sum.WorstDay.Date)
	assert.Equal(t, 2, sum.CurrentStreak)
	assert.Equal(t, 2, sum.ActiveHabits)

	_, err = s.ToggleGoodHabit(read.ID, "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Summary().CurrentStreak)
}
