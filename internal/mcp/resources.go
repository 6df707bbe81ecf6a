// ABOUTME: MCP resource implementations for habits.
// ABOUTME: Provides habits://today, habits://habits, and habits://summary resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/habits/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerResources() {
	// habits://today - each habit for today with whether it is logged
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "habits://today",
		Name:        "Today's Habits",
		Description: "Habits shown for today, their log state, and the day score",
		MIMEType:    "application/json",
	}, s.handleTodayResource)

	// habits://habits - every habit grouped by status
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "habits://habits",
		Name:        "All Habits",
		Description: "Every habit grouped by active, archived, and deleted",
		MIMEType:    "application/json",
	}, s.handleHabitsResource)

	// habits://summary - score dashboard
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "habits://summary",
		Name:        "Habit Score Summary",
		Description: "Total score, streak, best and worst days, and the last 7 days",
		MIMEType:    "application/json",
	}, s.handleSummaryResource)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

type todayHabit struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Emoji  string `json:"emoji,omitempty"`
	Type   string `json:"type"`
	Points int    `json:"points"`
	Logged bool   `json:"logged"`
}

// Resource handlers

func (s *Server) handleTodayResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	today := s.store.Today()

	logged := make(map[string]bool)
	for _, l := range s.store.LogsForDate(today) {
		logged[l.HabitID] = true
	}

	items := []todayHabit{}
	for _, h := range s.store.HabitsForDay(today) {
		items = append(items, todayHabit{
			ID:     h.ShortID(),
			Name:   h.Name,
			Emoji:  h.Emoji,
			Type:   string(h.Type),
			Points: h.Points,
			Logged: logged[h.ID],
		})
	}

	return jsonResource("habits://today", map[string]interface{}{
		"date":    today,
		"habits":  items,
		"details": s.store.DayDetails(today),
	})
}

func (s *Server) handleHabitsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	grouped := make(map[string][]models.Habit, len(models.AllStatuses))
	for _, st := range models.AllStatuses {
		list := s.store.HabitsByStatus(st)
		if list == nil {
			list = []models.Habit{}
		}
		grouped[string(st)] = list
	}
	return jsonResource("habits://habits", grouped)
}

func (s *Server) handleSummaryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	now := s.store.Now()
	from := models.FormatDate(now.AddDate(0, 0, -6))
	to := models.FormatDate(now)

	week, err := s.store.ScoresInRange(from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to score last week: %w", err)
	}

	return jsonResource("habits://summary", map[string]interface{}{
		"generated_at": now.Format(time.RFC3339),
		"summary":      s.store.Summary(),
		"last_7_days":  week,
	})
}
