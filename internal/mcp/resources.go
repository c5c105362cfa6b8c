package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/claude/workoutkit/internal/platform"
	"github.com/claude/workoutkit/internal/workout"
	"github.com/mark3labs/mcp-go/mcp"
)

type activityTypeEntry struct {
	Name              string `json:"name"`
	HealthKitName     string `json:"healthkit_name"`
	HealthConnectCode int    `json:"health_connect_code"`
}

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -14)

	workouts, err := h.ds.QueryWorkouts(ctx, start, end, "")
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, workouts)
}

func (h *handlers) activityTypes(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	types := workout.ActivityTypes()
	entries := make([]activityTypeEntry, 0, len(types))
	for _, t := range types {
		entries = append(entries, activityTypeEntry{
			Name:              t.String(),
			HealthKitName:     platform.HealthKitName(t),
			HealthConnectCode: platform.HealthConnectCode(t),
		})
	}
	return jsonResource(req.Params.URI, entries)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
