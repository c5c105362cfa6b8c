// Package mcp exposes workout history and duplicate detection as Model
// Context Protocol tools.
package mcp

import (
	"log/slog"

	"github.com/claude/workoutkit/internal/dedup"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Options configures the duplicate search defaults. A nil ThresholdMinutes
// selects dedup.DefaultThresholdMinutes; zero means exact matches only.
type Options struct {
	AppSource        string
	ThresholdMinutes *int
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, opts Options, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("workoutkit", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("workoutkit workout history server. Query recorded workouts, per-activity totals, and workouts recorded twice by different sources."),
	)

	h := newHandlers(ds, opts, log)

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetWorkouts, Handler: h.getWorkouts},
		server.ServerTool{Tool: toolGetWorkoutTotals, Handler: h.getWorkoutTotals},
		server.ServerTool{Tool: toolFindDuplicates, Handler: h.findDuplicates},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
		server.ServerResource{Resource: resActivityTypes, Handler: h.activityTypes},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds        DataSource
	opts      Options
	threshold int
	log       *slog.Logger
}

func newHandlers(ds DataSource, opts Options, log *slog.Logger) *handlers {
	threshold := dedup.DefaultThresholdMinutes
	if opts.ThresholdMinutes != nil {
		threshold = *opts.ThresholdMinutes
	}
	return &handlers{ds: ds, opts: opts, threshold: threshold, log: log}
}

// --- Resource definitions ---

var resRecentWorkouts = mcp.NewResource(
	"workoutkit://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("Workouts from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resActivityTypes = mcp.NewResource(
	"workoutkit://activity_types",
	"Activity Types",
	mcp.WithResourceDescription("Supported activity types with their HealthKit names and Health Connect exercise codes"),
	mcp.WithMIMEType("application/json"),
)
