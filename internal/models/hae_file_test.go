package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestAppleTimestampToTime(t *testing.T) {
	got := AppleTimestampToTime(0)
	want := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// TestHAEFileWorkoutParse verifies parsing a workout .hae file and converting
// it to the REST form.
func TestHAEFileWorkoutParse(t *testing.T) {
	raw := `{
		"id": "585BDA5C-5A64-4D5A-A432-6BCA6C7BCDBE",
		"name": "Cycling",
		"start": 787833106.40769,
		"end": 787835103.202923,
		"duration": 1996.795,
		"activeEnergy": 235.264,
		"location": "indoor"
	}`
	var w HAEFileWorkout
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := w.ToHAEWorkout()
	if got.ID != w.ID || got.Name != "Cycling" {
		t.Errorf("id/name = %q/%q", got.ID, got.Name)
	}
	wantStart := time.Date(2025, 12, 19, 10, 31, 46, 0, time.UTC)
	if got.Start.Truncate(time.Second) != wantStart {
		t.Errorf("start = %v, want %v", got.Start.Time, wantStart)
	}
	wantEnd := time.Date(2025, 12, 19, 11, 5, 3, 0, time.UTC)
	if got.End.Truncate(time.Second) != wantEnd {
		t.Errorf("end = %v, want %v", got.End.Time, wantEnd)
	}
	if got.ActiveEnergyBurned == nil || math.Abs(got.ActiveEnergyBurned.Qty-235.264) > 0.001 {
		t.Errorf("activeEnergyBurned = %+v", got.ActiveEnergyBurned)
	}
	if got.Distance != nil {
		t.Errorf("distance = %+v, want nil", got.Distance)
	}
	if got.Location != "indoor" {
		t.Errorf("location = %q", got.Location)
	}
}

func TestHAEFileWorkoutMissingEnd(t *testing.T) {
	w := HAEFileWorkout{ID: "x", Name: "Walking", Start: 787833106}
	if got := w.ToHAEWorkout(); !got.End.IsZero() {
		t.Errorf("end = %v, want zero", got.End.Time)
	}
}
