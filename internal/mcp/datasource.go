package mcp

import (
	"context"
	"time"

	"github.com/claude/workoutkit/internal/client"
	"github.com/claude/workoutkit/internal/storage"
	"github.com/claude/workoutkit/internal/workout"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and *client.Client (remote via REST API) satisfy this interface.
type DataSource interface {
	QueryWorkouts(ctx context.Context, start, end time.Time, activity string) ([]workout.Record, error)
}

// Compile-time checks.
var (
	_ DataSource = (*storage.DB)(nil)
	_ DataSource = (*client.Client)(nil)
)
