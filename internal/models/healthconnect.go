package models

import "time"

// HCPayload is a Health Connect export of exercise sessions.
type HCPayload struct {
	ExerciseSessions []HCExerciseSession `json:"exerciseSessions"`
}

// HCExerciseSession mirrors ExerciseSessionRecord plus the aggregates a
// client reads for the session window.
type HCExerciseSession struct {
	Metadata     HCMetadata `json:"metadata"`
	ExerciseType int        `json:"exerciseType"`
	Title        string     `json:"title,omitempty"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      time.Time  `json:"endTime"`

	TotalCaloriesBurned *float64          `json:"totalCaloriesBurned,omitempty"`
	Distance            *float64          `json:"distance,omitempty"`
	HeartRate           *HCHeartRateStats `json:"heartRate,omitempty"`
}

// HCMetadata identifies a record and the app that wrote it.
type HCMetadata struct {
	ID         string       `json:"id"`
	DataOrigin HCDataOrigin `json:"dataOrigin"`
}

// HCDataOrigin is the writing app's package.
type HCDataOrigin struct {
	PackageName string `json:"packageName"`
}

// HCHeartRateStats are the BPM aggregates over a session.
type HCHeartRateStats struct {
	Min *float64 `json:"min,omitempty"`
	Avg *float64 `json:"avg,omitempty"`
	Max *float64 `json:"max,omitempty"`
}
