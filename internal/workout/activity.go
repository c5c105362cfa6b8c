package workout

import "strings"

// ActivityType is the closed set of workout kinds. Vendor codes are
// translated to and from it by the platform package.
type ActivityType int

const (
	ActivityOther ActivityType = iota
	ActivityRunning
	ActivityWalking
	ActivityHiking
	ActivityCycling
	ActivitySwimming
	ActivityStrengthTraining
	ActivityHighIntensityIntervalTraining
	ActivityYoga
	ActivityPilates
	ActivityRowing
	ActivityElliptical
	ActivityDancing
)

var activityNames = [...]string{
	ActivityOther:                         "Other",
	ActivityRunning:                       "Running",
	ActivityWalking:                       "Walking",
	ActivityHiking:                        "Hiking",
	ActivityCycling:                       "Cycling",
	ActivitySwimming:                      "Swimming",
	ActivityStrengthTraining:              "StrengthTraining",
	ActivityHighIntensityIntervalTraining: "HighIntensityIntervalTraining",
	ActivityYoga:                          "Yoga",
	ActivityPilates:                       "Pilates",
	ActivityRowing:                        "Rowing",
	ActivityElliptical:                    "Elliptical",
	ActivityDancing:                       "Dancing",
}

// ActivityTypes lists every activity type in declaration order.
func ActivityTypes() []ActivityType {
	out := make([]ActivityType, len(activityNames))
	for i := range activityNames {
		out[i] = ActivityType(i)
	}
	return out
}

func (a ActivityType) String() string {
	if a < 0 || int(a) >= len(activityNames) {
		return activityNames[ActivityOther]
	}
	return activityNames[a]
}

// ParseActivityType matches an enumeration name case-insensitively.
// Unknown names return ActivityOther and false.
func ParseActivityType(name string) (ActivityType, bool) {
	name = strings.TrimSpace(name)
	for i, n := range activityNames {
		if strings.EqualFold(n, name) {
			return ActivityType(i), true
		}
	}
	return ActivityOther, false
}

func (a ActivityType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an activity name. Names this build does not know
// decode as ActivityOther so records from newer producers still load.
func (a *ActivityType) UnmarshalText(text []byte) error {
	*a, _ = ParseActivityType(string(text))
	return nil
}
