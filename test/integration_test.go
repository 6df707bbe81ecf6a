// ABOUTME: Integration tests for habits.
// ABOUTME: Builds the CLI for a full workflow and syncs two devices through an in-memory remote.
package test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/habits/internal/habits"
	"github.com/harperreed/habits/internal/models"
	"github.com/harperreed/habits/internal/remote"
	"github.com/harperreed/habits/internal/storage"
	habitsync "github.com/harperreed/habits/internal/sync"
)

func TestFullWorkflow(t *testing.T) {
	projectRoot, _ := filepath.Abs("..")
	habitsBinary := filepath.Join(t.TempDir(), "habits")

	buildCmd := exec.Command("go", "build", "-o", habitsBinary, "./cmd/habits")
	buildCmd.Dir = projectRoot
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build: %v\n%s", err, output)
	}

	dataDir := t.TempDir()
	configDir := t.TempDir()

	run := func(args ...string) (string, error) {
		fullArgs := append([]string{"--data-dir", dataDir}, args...)
		cmd := exec.Command(habitsBinary, fullArgs...)
		cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+configDir, "NO_COLOR=1")
		output, err := cmd.CombinedOutput()
		return string(output), err
	}

	output, err := run("add", "Stretch", "--points", "15")
	if err != nil {
		t.Fatalf("Failed to add habit: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Added good habit") {
		t.Errorf("Expected 'Added good habit' in output, got: %s", output)
	}

	output, err = run("done", "stretch", "--date", "2024-01-09")
	if err != nil {
		t.Fatalf("Failed to mark done: %v\n%s", err, output)
	}
	// Stretch +15, Smoking avoided +10, Junk food avoided +4.
	if !strings.Contains(output, "Day score: +29") {
		t.Errorf("Expected day score +29, got: %s", output)
	}

	output, err = run("indulge", "smoking", "--date", "2024-01-09")
	if err != nil {
		t.Fatalf("Failed to indulge: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Day score: -6") {
		t.Errorf("Expected day score -6, got: %s", output)
	}

	output, err = run("list")
	if err != nil {
		t.Fatalf("Failed to list: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Stretch") || !strings.Contains(output, "Exercise") {
		t.Errorf("Expected habits in list output, got: %s", output)
	}

	output, err = run("summary")
	if err != nil {
		t.Fatalf("Failed to summarize: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Total score:    -6") {
		t.Errorf("Expected total -6 in summary, got: %s", output)
	}

	output, err = run("export", "json")
	if err != nil {
		t.Fatalf("Failed to export: %v\n%s", err, output)
	}
	if !strings.Contains(output, `"tool": "habits"`) || !strings.Contains(output, `"Stretch"`) {
		t.Errorf("Unexpected export output: %s", output)
	}
}

func openDevice(t *testing.T) *habits.Store {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "habits.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Set(habits.HabitsKey, []byte("[]")); err != nil {
		t.Fatal(err)
	}
	return habits.Open(db)
}

func TestTwoDeviceSync(t *testing.T) {
	ctx := context.Background()
	service := remote.NewMemoryBackend()

	laptop := openDevice(t)
	phone := openDevice(t)
	laptopSync := habitsync.NewCoordinator(service)
	phoneSync := habitsync.NewCoordinator(service.Client())

	day := models.FormatDate(time.Now().AddDate(0, 0, -1))
	exercise, err := laptop.AddHabit("Exercise", models.HabitGood, 20, "💪")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := laptop.AddHabit("Smoking", models.HabitBad, 25, "🚬"); err != nil {
		t.Fatal(err)
	}
	if _, err := laptop.ToggleGoodHabit(exercise.ID, day); err != nil {
		t.Fatal(err)
	}
	if got := laptop.CalculateDayScore(day); got != 30 {
		t.Fatalf("laptop day score = %d, want 30", got)
	}

	if err := laptopSync.SignUp(ctx, "alice@example.com", "correct-horse", laptop.Export()); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	if _, err := phoneSync.SignIn(ctx, "alice@example.com", "wrong-horse"); err == nil {
		t.Fatal("Expected sign in with the wrong password to fail")
	}

	snap, err := phoneSync.SignIn(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if snap == nil {
		t.Fatal("Expected a remote snapshot")
	}
	if err := phone.Import(*snap); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if got := phone.CalculateDayScore(day); got != 30 {
		t.Errorf("phone day score = %d, want 30", got)
	}

	// The phone logs a slip and pushes; the laptop pulls it.
	smoking, err := phone.FindHabit("smoking")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := phone.ToggleBadHabit(smoking.ID, day); err != nil {
		t.Fatal(err)
	}
	if err := phoneSync.PushSession(ctx, phone.Export()); err != nil {
		t.Fatalf("PushSession failed: %v", err)
	}

	pulled, err := laptopSync.PullSession(ctx)
	if err != nil {
		t.Fatalf("PullSession failed: %v", err)
	}
	if err := laptop.Import(*pulled); err != nil {
		t.Fatal(err)
	}
	if got := laptop.CalculateDayScore(day); got != -5 {
		t.Errorf("laptop day score after pull = %d, want -5", got)
	}
	if laptop.TotalScore() != phone.TotalScore() {
		t.Errorf("total scores differ: laptop %d, phone %d", laptop.TotalScore(), phone.TotalScore())
	}

	if _, err := laptopSync.Pull(ctx, "wrong-horse"); err == nil {
		t.Error("Expected pull with the wrong password to fail")
	}
}
