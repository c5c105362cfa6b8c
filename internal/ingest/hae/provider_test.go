package hae

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/workoutkit/internal/models"
	"github.com/claude/workoutkit/internal/workout"
)

type memWriter struct {
	records []workout.Record
}

func (m *memWriter) InsertWorkout(_ context.Context, rec workout.Record) (bool, error) {
	for _, r := range m.records {
		if r.ID == rec.ID {
			return false, nil
		}
	}
	m.records = append(m.records, rec)
	return true, nil
}

func haeTime(t *testing.T, s string) models.HAETime {
	t.Helper()
	var ht models.HAETime
	if err := ht.Parse(s); err != nil {
		t.Fatal(err)
	}
	return ht
}

// TestConvertWorkout verifies name mapping, span and heart rate summary handling.
func TestConvertWorkout(t *testing.T) {
	w := models.HAEWorkout{
		ID:                 "550e8400-e29b-41d4-a716-446655440000",
		Name:               "Outdoor Run",
		Start:              haeTime(t, "2024-02-06 07:00:00 -0800"),
		End:                haeTime(t, "2024-02-06 07:30:00 -0800"),
		ActiveEnergyBurned: &models.HAEQuantity{Qty: 350, Units: "kcal"},
		HeartRate: &models.HAEHeartRateSummary{
			Min: models.HAEQuantity{Qty: 98},
			Avg: models.HAEQuantity{Qty: 150},
			Max: models.HAEQuantity{Qty: 175},
		},
		MaxHR: &models.HAEQuantity{Qty: 999},
	}
	rec, err := ConvertWorkout(w, "Apple Watch")
	if err != nil {
		t.Fatal(err)
	}
	if rec.ActivityType != workout.ActivityRunning {
		t.Errorf("activity = %v, want Running", rec.ActivityType)
	}
	if rec.DataOrigin != "Apple Watch" {
		t.Errorf("origin = %q", rec.DataOrigin)
	}
	if rec.ActiveDurationSeconds != 1800 {
		t.Errorf("active = %v, want 1800", rec.ActiveDurationSeconds)
	}
	if rec.EndTime == nil || rec.EndTime.Sub(rec.StartTime) != 30*time.Minute {
		t.Errorf("end = %v", rec.EndTime)
	}
	if rec.MaxHeartRate == nil || *rec.MaxHeartRate != 175 {
		t.Errorf("max hr = %v, want summary value 175", rec.MaxHeartRate)
	}
	if rec.EnergyBurned == nil || *rec.EnergyBurned != 350 {
		t.Errorf("energy = %v", rec.EnergyBurned)
	}
	if rec.Distance != nil {
		t.Errorf("distance = %v, want nil", *rec.Distance)
	}
}

// TestConvertWorkoutInvalid verifies bad IDs and reversed spans are rejected.
func TestConvertWorkoutInvalid(t *testing.T) {
	if _, err := ConvertWorkout(models.HAEWorkout{ID: "nope", Start: haeTime(t, "2024-02-06")}, "x"); err == nil {
		t.Error("expected error for invalid UUID")
	}
	w := models.HAEWorkout{
		ID:    "550e8400-e29b-41d4-a716-446655440000",
		Start: haeTime(t, "2024-02-06 08:00:00 +0000"),
		End:   haeTime(t, "2024-02-06 07:00:00 +0000"),
	}
	if _, err := ConvertWorkout(w, "x"); err == nil {
		t.Error("expected error for end before start")
	}
}

// TestIngest verifies counting of inserted, skipped, rejected and unknown workouts.
func TestIngest(t *testing.T) {
	db := &memWriter{}
	p := NewProvider(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	payload := &models.HAEPayload{Data: models.HAEData{Workouts: []models.HAEWorkout{
		{ID: "550e8400-e29b-41d4-a716-446655440000", Name: "Yoga", Start: haeTime(t, "2024-02-06 07:00:00 +0000")},
		{ID: "550e8400-e29b-41d4-a716-446655440000", Name: "Yoga", Start: haeTime(t, "2024-02-06 07:00:00 +0000")},
		{ID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8", Name: "Curling", Start: haeTime(t, "2024-02-07 07:00:00 +0000")},
		{ID: "bad", Name: "Yoga"},
	}}}

	result, err := p.Ingest(context.Background(), payload, "")
	if err != nil {
		t.Fatal(err)
	}
	if result.WorkoutsReceived != 4 || result.WorkoutsInserted != 2 || result.WorkoutsSkipped != 1 || result.WorkoutsRejected != 1 {
		t.Errorf("result = %+v", result)
	}
	if len(result.UnknownTypes) != 1 || result.UnknownTypes[0] != "Curling" {
		t.Errorf("unknown = %v, want [Curling]", result.UnknownTypes)
	}
	if db.records[0].DataOrigin != DefaultOrigin {
		t.Errorf("origin = %q, want %q", db.records[0].DataOrigin, DefaultOrigin)
	}
	if db.records[1].ActivityType != workout.ActivityOther {
		t.Errorf("curling activity = %v, want Other", db.records[1].ActivityType)
	}
}
