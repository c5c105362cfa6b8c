// Package platform translates vendor workout codes to and from
// workout.ActivityType. Each vendor gets one table; unknown vendor values
// collapse to workout.ActivityOther.
package platform

import (
	"strings"

	"github.com/claude/workoutkit/internal/workout"
)

// healthKitNames maps lowercased HealthKit activity names, as exported by
// Health Auto Export and the HKWorkoutActivityType identifiers, to activity
// types. Several names share a type.
var healthKitNames = map[string]workout.ActivityType{
	"running":         workout.ActivityRunning,
	"outdoor run":     workout.ActivityRunning,
	"indoor run":      workout.ActivityRunning,
	"treadmill run":   workout.ActivityRunning,
	"trail run":       workout.ActivityRunning,
	"walking":         workout.ActivityWalking,
	"outdoor walk":    workout.ActivityWalking,
	"indoor walk":     workout.ActivityWalking,
	"hiking":          workout.ActivityHiking,
	"hike":            workout.ActivityHiking,
	"cycling":         workout.ActivityCycling,
	"outdoor cycling": workout.ActivityCycling,
	"indoor cycling":  workout.ActivityCycling,
	"handcycling":     workout.ActivityCycling,
	"swimming":        workout.ActivitySwimming,
	"pool swim":       workout.ActivitySwimming,
	"open water swim": workout.ActivitySwimming,

	"traditional strength training": workout.ActivityStrengthTraining,
	"traditionalstrengthtraining":   workout.ActivityStrengthTraining,
	"functional strength training":  workout.ActivityStrengthTraining,
	"functionalstrengthtraining":    workout.ActivityStrengthTraining,
	"strength training":             workout.ActivityStrengthTraining,
	"core training":                 workout.ActivityStrengthTraining,

	"high intensity interval training": workout.ActivityHighIntensityIntervalTraining,
	"highintensityintervaltraining":    workout.ActivityHighIntensityIntervalTraining,
	"hiit":                             workout.ActivityHighIntensityIntervalTraining,

	"yoga":           workout.ActivityYoga,
	"pilates":        workout.ActivityPilates,
	"rowing":         workout.ActivityRowing,
	"indoor rowing":  workout.ActivityRowing,
	"outdoor rowing": workout.ActivityRowing,
	"elliptical":     workout.ActivityElliptical,
	"dance":          workout.ActivityDancing,
	"dancing":        workout.ActivityDancing,
	"cardio dance":   workout.ActivityDancing,
	"cardiodance":    workout.ActivityDancing,
	"social dance":   workout.ActivityDancing,
	"socialdance":    workout.ActivityDancing,
	"other":          workout.ActivityOther,
}

// healthKitCanonical is the name written back to HealthKit per type.
var healthKitCanonical = map[workout.ActivityType]string{
	workout.ActivityOther:                         "Other",
	workout.ActivityRunning:                       "Running",
	workout.ActivityWalking:                       "Walking",
	workout.ActivityHiking:                        "Hiking",
	workout.ActivityCycling:                       "Cycling",
	workout.ActivitySwimming:                      "Swimming",
	workout.ActivityStrengthTraining:              "Traditional Strength Training",
	workout.ActivityHighIntensityIntervalTraining: "High Intensity Interval Training",
	workout.ActivityYoga:                          "Yoga",
	workout.ActivityPilates:                       "Pilates",
	workout.ActivityRowing:                        "Rowing",
	workout.ActivityElliptical:                    "Elliptical",
	workout.ActivityDancing:                       "Cardio Dance",
}

// FromHealthKit maps a HealthKit workout name, case-insensitively.
// ok is false for names the table does not know.
func FromHealthKit(name string) (workout.ActivityType, bool) {
	t, ok := healthKitNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return workout.ActivityOther, false
	}
	return t, true
}

// HealthKitName returns the HealthKit name written for t.
func HealthKitName(t workout.ActivityType) string {
	if n, ok := healthKitCanonical[t]; ok {
		return n
	}
	return healthKitCanonical[workout.ActivityOther]
}
