// Package hae ingests Health Auto Export (HealthKit) workout payloads.
package hae

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/workoutkit/internal/ingest"
	"github.com/claude/workoutkit/internal/models"
	"github.com/claude/workoutkit/internal/platform"
	"github.com/claude/workoutkit/internal/workout"
	"github.com/google/uuid"
)

// DefaultOrigin is the data origin used when the request names none.
const DefaultOrigin = "Health Auto Export"

// Provider processes Health Auto Export REST API payloads.
type Provider struct {
	db  ingest.Writer
	log *slog.Logger
}

// NewProvider creates a new HAE ingest provider.
func NewProvider(db ingest.Writer, log *slog.Logger) *Provider {
	return &Provider{db: db, log: log}
}

// Ingest converts and stores every workout in the payload. origin tags the
// records' data origin.
func (p *Provider) Ingest(ctx context.Context, payload *models.HAEPayload, origin string) (*ingest.Result, error) {
	if origin == "" {
		origin = DefaultOrigin
	}
	result := &ingest.Result{}

	for _, w := range payload.Data.Workouts {
		result.WorkoutsReceived++

		rec, err := ConvertWorkout(w, origin)
		if err != nil {
			p.log.Warn("skipping workout", "id", w.ID, "error", err)
			result.WorkoutsRejected++
			continue
		}
		if rec.ActivityType == workout.ActivityOther {
			if _, known := platform.FromHealthKit(w.Name); !known {
				result.NoteUnknownType(w.Name)
			}
		}
		if err := result.Store(ctx, p.db, rec); err != nil {
			return result, fmt.Errorf("storing workout %s: %w", rec.ID, err)
		}
	}

	if len(result.UnknownTypes) > 0 {
		result.Message = fmt.Sprintf("Unrecognized workout names were stored as Other: %v", result.UnknownTypes)
	}
	return result, nil
}

// ConvertWorkout maps one HAE workout to a record. HealthKit exports carry
// no pause history, so active time is the whole span.
func ConvertWorkout(w models.HAEWorkout, origin string) (workout.Record, error) {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return workout.Record{}, fmt.Errorf("invalid UUID %q: %w", w.ID, err)
	}
	if w.Start.IsZero() {
		return workout.Record{}, fmt.Errorf("workout %s has no start", w.ID)
	}

	activity, _ := platform.FromHealthKit(w.Name)
	rec := workout.Record{
		ID:           id.String(),
		ActivityType: activity,
		Title:        w.Name,
		DataOrigin:   origin,
		StartTime:    w.Start.Time,
	}
	if !w.End.IsZero() {
		if w.End.Before(w.Start.Time) {
			return workout.Record{}, fmt.Errorf("workout %s ends before it starts", w.ID)
		}
		end := w.End.Time
		rec.EndTime = &end
		rec.ActiveDurationSeconds = end.Sub(rec.StartTime).Seconds()
	}

	if w.ActiveEnergyBurned != nil {
		rec.EnergyBurned = &w.ActiveEnergyBurned.Qty
	}
	if w.Distance != nil {
		rec.Distance = &w.Distance.Qty
	}
	if w.HeartRate != nil {
		rec.MinHeartRate = &w.HeartRate.Min.Qty
		rec.AverageHeartRate = &w.HeartRate.Avg.Qty
		rec.MaxHeartRate = &w.HeartRate.Max.Qty
	}
	if rec.AverageHeartRate == nil && w.AvgHR != nil {
		rec.AverageHeartRate = &w.AvgHR.Qty
	}
	if rec.MaxHeartRate == nil && w.MaxHR != nil {
		rec.MaxHeartRate = &w.MaxHR.Qty
	}
	return rec, nil
}
