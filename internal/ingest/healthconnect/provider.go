// Package healthconnect ingests Health Connect exercise session exports.
package healthconnect

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/claude/workoutkit/internal/ingest"
	"github.com/claude/workoutkit/internal/models"
	"github.com/claude/workoutkit/internal/platform"
	"github.com/claude/workoutkit/internal/workout"
)

// Provider processes Health Connect exercise session payloads.
type Provider struct {
	db  ingest.Writer
	log *slog.Logger
}

// NewProvider creates a new Health Connect ingest provider.
func NewProvider(db ingest.Writer, log *slog.Logger) *Provider {
	return &Provider{db: db, log: log}
}

// Ingest converts and stores every session in the payload. Each record's
// data origin is the package name of the app that wrote it.
func (p *Provider) Ingest(ctx context.Context, payload *models.HCPayload) (*ingest.Result, error) {
	result := &ingest.Result{}

	for _, s := range payload.ExerciseSessions {
		result.WorkoutsReceived++

		rec, err := ConvertSession(s)
		if err != nil {
			p.log.Warn("skipping exercise session", "id", s.Metadata.ID, "error", err)
			result.WorkoutsRejected++
			continue
		}
		if _, known := platform.FromHealthConnect(s.ExerciseType); !known {
			result.NoteUnknownType(strconv.Itoa(s.ExerciseType))
		}
		if err := result.Store(ctx, p.db, rec); err != nil {
			return result, fmt.Errorf("storing session %s: %w", rec.ID, err)
		}
	}

	if len(result.UnknownTypes) > 0 {
		result.Message = fmt.Sprintf("Unrecognized exercise types were stored as Other: %v", result.UnknownTypes)
	}
	return result, nil
}

// ConvertSession maps one exercise session to a record.
func ConvertSession(s models.HCExerciseSession) (workout.Record, error) {
	if s.Metadata.ID == "" {
		return workout.Record{}, fmt.Errorf("session has no id")
	}
	if s.Metadata.DataOrigin.PackageName == "" {
		return workout.Record{}, fmt.Errorf("session %s has no data origin", s.Metadata.ID)
	}
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return workout.Record{}, fmt.Errorf("session %s is missing start or end", s.Metadata.ID)
	}
	if s.EndTime.Before(s.StartTime) {
		return workout.Record{}, fmt.Errorf("session %s ends before it starts", s.Metadata.ID)
	}

	activity, _ := platform.FromHealthConnect(s.ExerciseType)
	end := s.EndTime
	rec := workout.Record{
		ID:                    s.Metadata.ID,
		ActivityType:          activity,
		Title:                 s.Title,
		DataOrigin:            s.Metadata.DataOrigin.PackageName,
		StartTime:             s.StartTime,
		EndTime:               &end,
		ActiveDurationSeconds: end.Sub(s.StartTime).Seconds(),
		Metrics: workout.Metrics{
			EnergyBurned: s.TotalCaloriesBurned,
			Distance:     s.Distance,
		},
	}
	if s.HeartRate != nil {
		rec.MinHeartRate = s.HeartRate.Min
		rec.AverageHeartRate = s.HeartRate.Avg
		rec.MaxHeartRate = s.HeartRate.Max
	}
	return rec, nil
}
