package models

import "time"

// AppleEpochOffset is the number of seconds between the Unix epoch and 2001-01-01 UTC.
const AppleEpochOffset int64 = 978307200

// AppleTimestampToTime converts an Apple Core Data timestamp (seconds since 2001-01-01)
// to a Go time.Time in UTC.
func AppleTimestampToTime(appleTS float64) time.Time {
	sec := int64(appleTS)
	nsec := int64((appleTS - float64(sec)) * 1e9)
	return time.Unix(sec+AppleEpochOffset, nsec).UTC()
}

// HAEFileWorkout is the JSON structure of an AutoSync workout .hae file.
// Energy is in kcal and distance in km.
type HAEFileWorkout struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Start         float64  `json:"start"`
	End           float64  `json:"end"`
	Duration      float64  `json:"duration"`
	ActiveEnergy  *float64 `json:"activeEnergy,omitempty"`
	TotalDistance *float64 `json:"totalDistance,omitempty"`
	AvgHeartRate  *float64 `json:"avgHeartRate,omitempty"`
	MaxHeartRate  *float64 `json:"maxHeartRate,omitempty"`
	Location      string   `json:"location,omitempty"`
}

// ToHAEWorkout rewrites the file form into the REST API form so both go
// through the same conversion.
func (w HAEFileWorkout) ToHAEWorkout() HAEWorkout {
	out := HAEWorkout{
		ID:       w.ID,
		Name:     w.Name,
		Duration: w.Duration,
		Location: w.Location,
	}
	if w.Start > 0 {
		out.Start = HAETime{AppleTimestampToTime(w.Start)}
	}
	if w.End > 0 {
		out.End = HAETime{AppleTimestampToTime(w.End)}
	}
	if w.ActiveEnergy != nil {
		out.ActiveEnergyBurned = &HAEQuantity{Qty: *w.ActiveEnergy, Units: "kcal"}
	}
	if w.TotalDistance != nil {
		out.Distance = &HAEQuantity{Qty: *w.TotalDistance, Units: "km"}
	}
	if w.AvgHeartRate != nil {
		out.AvgHR = &HAEQuantity{Qty: *w.AvgHeartRate, Units: "bpm"}
	}
	if w.MaxHeartRate != nil {
		out.MaxHR = &HAEQuantity{Qty: *w.MaxHeartRate, Units: "bpm"}
	}
	return out
}
