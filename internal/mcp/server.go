// ABOUTME: MCP server setup for the habit tracker.
// ABOUTME: Wraps the MCP server with the habit Store and an optional sync coordinator.
package mcp

import (
	"context"
	"errors"

	"github.com/harperreed/habits/internal/habits"
	habitsync "github.com/harperreed/habits/internal/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with habit store access.
type Server struct {
	mcpServer *mcp.Server
	store     *habits.Store
	sync      *habitsync.Coordinator
}

// Option configures a Server.
type Option func(*Server)

// WithSync exposes sync status and session push/pull through the coordinator.
func WithSync(c *habitsync.Coordinator) Option {
	return func(s *Server) {
		s.sync = c
	}
}

// NewServer creates a new MCP server over the given store.
func NewServer(store *habits.Store, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, errors.New("habit store is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "habits",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		store:     store,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
