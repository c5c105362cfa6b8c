package haetcp

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/workoutkit/internal/models"
)

// Chunk is one window of a Fetch.
type Chunk struct {
	Start, End time.Time
	Payload    *models.HAEPayload
}

// Fetch queries [start, end) in windows of chunk and hands each non-empty
// result to fn. Large ranges are split because the app builds the whole
// response in memory. A window that keeps failing is skipped and counted.
func (c *Client) Fetch(ctx context.Context, start, end time.Time, chunk time.Duration, fn func(Chunk) error) (skipped int, err error) {
	if chunk <= 0 {
		return 0, fmt.Errorf("chunk must be positive, got %s", chunk)
	}
	for cs := start; cs.Before(end); cs = cs.Add(chunk) {
		ce := cs.Add(chunk)
		if ce.After(end) {
			ce = end
		}

		payload, err := c.QueryWorkoutsWithRetry(ctx, cs, ce)
		if err != nil {
			if ctx.Err() != nil {
				return skipped, ctx.Err()
			}
			c.log.Warn("failed to query workouts, skipping",
				"from", cs.Format("2006-01-02"), "to", ce.Format("2006-01-02"), "error", err)
			skipped++
			continue
		}
		if len(payload.Data.Workouts) == 0 {
			continue
		}
		if err := fn(Chunk{Start: cs, End: ce, Payload: payload}); err != nil {
			return skipped, err
		}
	}
	return skipped, nil
}
