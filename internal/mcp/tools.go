// ABOUTME: MCP tool implementations for habits.
// ABOUTME: Provides habit CRUD, daily toggles, scoring queries, and sync.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/habits/internal/habits"
	"github.com/harperreed/habits/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_habit",
		Description: "Create a habit. Good habits earn points when done; bad habits lose points when indulged.",
	}, s.handleAddHabit)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_habits",
		Description: "List habits, optionally filtered by status (active, archived, deleted)",
	}, s.handleListHabits)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "toggle_habit",
		Description: "Toggle a habit's log for a day: done for good habits, indulged for bad habits",
	}, s.handleToggleHabit)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "update_habit",
		Description: "Rename a habit or change its emoji. Type and points are fixed at creation.",
	}, s.handleUpdateHabit)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "set_habit_status",
		Description: "Archive, delete (soft), or restore a habit",
	}, s.handleSetHabitStatus)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "purge_habit",
		Description: "Permanently remove a habit and all of its logs",
	}, s.handlePurgeHabit)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "day_details",
		Description: "Score and counts for one day (defaults to today)",
	}, s.handleDayDetails)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "score_range",
		Description: "Daily scores and the period total between two dates, inclusive",
	}, s.handleScoreRange)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_summary",
		Description: "Total score, streak, best and worst days, and habit counts",
	}, s.handleGetSummary)

	if s.sync != nil {
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        "sync_status",
			Description: "Show the remote sync state",
		}, s.handleSyncStatus)

		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        "sync_signin",
			Description: "Sign in to the remote account so push and pull can run; local data is not changed. " +
				"The password passes through this client and may appear in its transcript; prefer `habits sync` in a terminal. " +
				"Call sync_signout when done so the server forgets it.",
		}, s.handleSyncSignIn)

		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        "sync_signout",
			Description: "Sign out of the remote account and wipe the cached password",
		}, s.handleSyncSignOut)

		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        "sync_push",
			Description: "Encrypt and upload all habits and logs using the signed-in session",
		}, s.handleSyncPush)

		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        "sync_pull",
			Description: "Download and decrypt the remote copy, replacing local habits and logs",
		}, s.handleSyncPull)
	}
}

// Tool input/output types

type addHabitInput struct {
	Name   string `json:"name" jsonschema:"Habit name"`
	Type   string `json:"type" jsonschema:"good or bad"`
	Points int    `json:"points" jsonschema:"Points earned or lost, at least 1"`
	Emoji  string `json:"emoji,omitempty" jsonschema:"Optional emoji"`
}

type habitOutput struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Points  int    `json:"points"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type listHabitsInput struct {
	Status string `json:"status,omitempty" jsonschema:"Filter by status: active, archived, or deleted"`
}

type habitRefInput struct {
	Habit string `json:"habit" jsonschema:"Habit ID, ID prefix, or name"`
}

type toggleHabitInput struct {
	Habit string `json:"habit" jsonschema:"Habit ID, ID prefix, or name"`
	Date  string `json:"date,omitempty" jsonschema:"Day as YYYY-MM-DD, defaults to today"`
}

type toggleOutput struct {
	HabitID  string `json:"habit_id"`
	Date     string `json:"date"`
	Logged   bool   `json:"logged"`
	DayScore int    `json:"day_score"`
	Message  string `json:"message"`
}

type updateHabitInput struct {
	Habit string  `json:"habit" jsonschema:"Habit ID, ID prefix, or name"`
	Name  *string `json:"name,omitempty" jsonschema:"New name"`
	Emoji *string `json:"emoji,omitempty" jsonschema:"New emoji"`
}

type setHabitStatusInput struct {
	Habit  string `json:"habit" jsonschema:"Habit ID, ID prefix, or name"`
	Action string `json:"action" jsonschema:"archive, delete, or restore"`
}

type purgeHabitInput struct {
	Habit   string `json:"habit" jsonschema:"Habit ID, ID prefix, or name"`
	Confirm bool   `json:"confirm" jsonschema:"Must be true; removal cannot be undone"`
}

type dayInput struct {
	Date string `json:"date,omitempty" jsonschema:"Day as YYYY-MM-DD, defaults to today"`
}

type scoreRangeInput struct {
	From string `json:"from" jsonschema:"First day as YYYY-MM-DD"`
	To   string `json:"to" jsonschema:"Last day as YYYY-MM-DD"`
}

type scoreRangeOutput struct {
	From  string            `json:"from"`
	To    string            `json:"to"`
	Total int               `json:"total"`
	Days  []habits.DayScore `json:"days"`
}

type syncSignInInput struct {
	Email    string `json:"email" jsonschema:"Account email"`
	Password string `json:"password" jsonschema:"Account password, also used to encrypt the synced data"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

func toHabitOutput(h models.Habit, msg string) habitOutput {
	return habitOutput{
		ID:      h.ShortID(),
		Name:    h.Name,
		Type:    string(h.Type),
		Points:  h.Points,
		Status:  string(h.Status),
		Message: msg,
	}
}

// dateOrToday validates date, or returns the store's today when empty.
func (s *Server) dateOrToday(date string) (string, error) {
	if date == "" {
		return s.store.Today(), nil
	}
	if _, err := models.ParseDate(date); err != nil {
		return "", err
	}
	return date, nil
}

// Tool handlers

func (s *Server) handleAddHabit(ctx context.Context, req *mcp.CallToolRequest, input addHabitInput) (*mcp.CallToolResult, habitOutput, error) {
	t, err := models.ParseHabitType(input.Type)
	if err != nil {
		return nil, habitOutput{}, err
	}

	h, err := s.store.AddHabit(input.Name, t, input.Points, input.Emoji)
	if err != nil {
		return nil, habitOutput{}, fmt.Errorf("failed to add habit: %w", err)
	}

	return nil, toHabitOutput(h, fmt.Sprintf("Added %s habit %q worth %d points (ID: %s)", h.Type, h.Name, h.Points, h.ShortID())), nil
}

func (s *Server) handleListHabits(ctx context.Context, req *mcp.CallToolRequest, input listHabitsInput) (*mcp.CallToolResult, any, error) {
	var list []models.Habit
	if input.Status == "" {
		list = s.store.Habits()
	} else {
		status := models.Status(strings.ToLower(input.Status))
		if !status.IsValid() {
			return nil, nil, fmt.Errorf("unknown status: %s", input.Status)
		}
		list = s.store.HabitsByStatus(status)
	}

	if len(list) == 0 {
		return nil, map[string]interface{}{"message": "No habits found."}, nil
	}

	return nil, map[string]interface{}{"habits": list}, nil
}

func (s *Server) handleToggleHabit(ctx context.Context, req *mcp.CallToolRequest, input toggleHabitInput) (*mcp.CallToolResult, toggleOutput, error) {
	h, err := s.store.FindHabit(input.Habit)
	if err != nil {
		return nil, toggleOutput{}, err
	}
	date, err := s.dateOrToday(input.Date)
	if err != nil {
		return nil, toggleOutput{}, err
	}

	logged, err := s.store.ToggleHabit(h.ID, date)
	if err != nil {
		return nil, toggleOutput{}, fmt.Errorf("failed to toggle habit: %w", err)
	}

	verb := "Cleared"
	if logged {
		verb = "Logged"
	}
	score := s.store.CalculateDayScore(date)

	return nil, toggleOutput{
		HabitID:  h.ShortID(),
		Date:     date,
		Logged:   logged,
		DayScore: score,
		Message:  fmt.Sprintf("%s %s for %s on %s (day score %d)", verb, h.Action(), h.Name, date, score),
	}, nil
}

func (s *Server) handleUpdateHabit(ctx context.Context, req *mcp.CallToolRequest, input updateHabitInput) (*mcp.CallToolResult, habitOutput, error) {
	h, err := s.store.FindHabit(input.Habit)
	if err != nil {
		return nil, habitOutput{}, err
	}

	updated, err := s.store.UpdateHabit(h.ID, habits.HabitPatch{
		Name:  input.Name,
		Emoji: input.Emoji,
	})
	if err != nil {
		return nil, habitOutput{}, fmt.Errorf("failed to update habit: %w", err)
	}

	return nil, toHabitOutput(updated, fmt.Sprintf("Updated %s", updated.Name)), nil
}

func (s *Server) handleSetHabitStatus(ctx context.Context, req *mcp.CallToolRequest, input setHabitStatusInput) (*mcp.CallToolResult, habitOutput, error) {
	h, err := s.store.FindHabit(input.Habit)
	if err != nil {
		return nil, habitOutput{}, err
	}

	var apply func(string) error
	switch strings.ToLower(input.Action) {
	case "archive":
		apply = s.store.ArchiveHabit
	case "delete":
		apply = s.store.DeleteHabit
	case "restore":
		apply = s.store.RestoreHabit
	default:
		return nil, habitOutput{}, fmt.Errorf("unknown action: %s (use archive, delete, or restore)", input.Action)
	}

	if err := apply(h.ID); err != nil {
		return nil, habitOutput{}, err
	}

	updated, err := s.store.Habit(h.ID)
	if err != nil {
		return nil, habitOutput{}, err
	}
	return nil, toHabitOutput(updated, fmt.Sprintf("%s is now %s", updated.Name, updated.Status)), nil
}

func (s *Server) handlePurgeHabit(ctx context.Context, req *mcp.CallToolRequest, input purgeHabitInput) (*mcp.CallToolResult, simpleOutput, error) {
	if !input.Confirm {
		return nil, simpleOutput{}, errors.New("purge requires confirm=true")
	}
	h, err := s.store.FindHabit(input.Habit)
	if err != nil {
		return nil, simpleOutput{}, err
	}
	if err := s.store.PermanentlyDeleteHabit(h.ID); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to purge habit: %w", err)
	}

	return nil, simpleOutput{
		Message: fmt.Sprintf("Permanently removed %s and its logs", h.Name),
	}, nil
}

func (s *Server) handleDayDetails(ctx context.Context, req *mcp.CallToolRequest, input dayInput) (*mcp.CallToolResult, habits.DayDetails, error) {
	date, err := s.dateOrToday(input.Date)
	if err != nil {
		return nil, habits.DayDetails{}, err
	}
	return nil, s.store.DayDetails(date), nil
}

func (s *Server) handleScoreRange(ctx context.Context, req *mcp.CallToolRequest, input scoreRangeInput) (*mcp.CallToolResult, scoreRangeOutput, error) {
	days, err := s.store.ScoresInRange(input.From, input.To)
	if err != nil {
		return nil, scoreRangeOutput{}, err
	}

	total := 0
	for _, d := range days {
		total += d.Score
	}
	return nil, scoreRangeOutput{From: input.From, To: input.To, Total: total, Days: days}, nil
}

func (s *Server) handleGetSummary(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, habits.Summary, error) {
	return nil, s.store.Summary(), nil
}

func (s *Server) handleSyncStatus(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	st := s.sync.Status()
	return nil, st, nil
}

func (s *Server) handleSyncSignIn(ctx context.Context, req *mcp.CallToolRequest, input syncSignInInput) (*mcp.CallToolResult, simpleOutput, error) {
	snap, err := s.sync.SignIn(ctx, input.Email, input.Password)
	if err != nil {
		return nil, simpleOutput{}, fmt.Errorf("sign in failed: %w", err)
	}
	if snap == nil {
		return nil, simpleOutput{Message: fmt.Sprintf("Signed in as %s; no remote data yet", input.Email)}, nil
	}
	return nil, simpleOutput{
		Message: fmt.Sprintf("Signed in as %s; remote has %d habits and %d logs", input.Email, len(snap.Habits), len(snap.Logs)),
	}, nil
}

func (s *Server) handleSyncSignOut(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, simpleOutput, error) {
	if !s.sync.Status().SignedIn {
		return nil, simpleOutput{Message: "Not signed in."}, nil
	}
	if err := s.sync.SignOut(ctx); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("sign out failed: %w", err)
	}
	return nil, simpleOutput{Message: "Signed out; the cached password was wiped."}, nil
}

func (s *Server) handleSyncPush(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, simpleOutput, error) {
	snap := s.store.Export()
	if err := s.sync.PushSession(ctx, snap); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("push failed: %w", err)
	}
	return nil, simpleOutput{
		Message: fmt.Sprintf("Pushed %d habits and %d logs", len(snap.Habits), len(snap.Logs)),
	}, nil
}

func (s *Server) handleSyncPull(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, simpleOutput, error) {
	snap, err := s.sync.PullSession(ctx)
	if err != nil {
		return nil, simpleOutput{}, fmt.Errorf("pull failed: %w", err)
	}
	if snap == nil {
		return nil, simpleOutput{Message: "No remote data yet."}, nil
	}
	if err := s.store.Import(*snap); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to apply pulled data: %w", err)
	}
	return nil, simpleOutput{
		Message: fmt.Sprintf("Pulled %d habits and %d logs", len(snap.Habits), len(snap.Logs)),
	}, nil
}
