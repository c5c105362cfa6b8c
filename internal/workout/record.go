package workout

import "time"

// Metrics are sensor measurements supplied by the health store. The session
// never computes them.
type Metrics struct {
	EnergyBurned     *float64 `json:"energy_burned,omitempty"`
	Distance         *float64 `json:"distance,omitempty"`
	AverageHeartRate *float64 `json:"average_heart_rate,omitempty"`
	MaxHeartRate     *float64 `json:"max_heart_rate,omitempty"`
	MinHeartRate     *float64 `json:"min_heart_rate,omitempty"`
}

// IsEmpty reports whether no measurement is set.
func (m Metrics) IsEmpty() bool {
	return m.EnergyBurned == nil && m.Distance == nil &&
		m.AverageHeartRate == nil && m.MaxHeartRate == nil && m.MinHeartRate == nil
}

// Record is a finalized workout, produced locally or read back from a
// health store.
type Record struct {
	ID           string       `json:"id"`
	ActivityType ActivityType `json:"activity_type"`
	Title        string       `json:"title,omitempty"`
	DataOrigin   string       `json:"data_origin"`
	StartTime    time.Time    `json:"start_time"`
	EndTime      *time.Time   `json:"end_time,omitempty"`

	Metrics

	ActiveDurationSeconds float64        `json:"active_duration_seconds"`
	PausedDurationSeconds float64        `json:"paused_duration_seconds"`
	PauseCount            int            `json:"pause_count"`
	PauseIntervals        []TimeInterval `json:"pause_intervals,omitempty"`
}
