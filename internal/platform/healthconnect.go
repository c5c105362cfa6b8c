package platform

import "github.com/claude/workoutkit/internal/workout"

// Health Connect ExerciseSessionRecord exercise type codes.
const (
	HCOtherWorkout                  = 0
	HCBiking                        = 8
	HCBikingStationary              = 9
	HCBootCamp                      = 10
	HCCalisthenics                  = 13
	HCDancing                       = 16
	HCElliptical                    = 25
	HCHighIntensityIntervalTraining = 36
	HCHiking                        = 37
	HCPilates                       = 48
	HCRowing                        = 53
	HCRowingMachine                 = 54
	HCRunning                       = 56
	HCRunningTreadmill              = 57
	HCStrengthTraining              = 70
	HCSwimmingOpenWater             = 73
	HCSwimmingPool                  = 74
	HCWalking                       = 79
	HCWeightlifting                 = 81
	HCYoga                          = 83
)

var healthConnectCodes = map[int]workout.ActivityType{
	HCOtherWorkout:                  workout.ActivityOther,
	HCBiking:                        workout.ActivityCycling,
	HCBikingStationary:              workout.ActivityCycling,
	HCBootCamp:                      workout.ActivityHighIntensityIntervalTraining,
	HCCalisthenics:                  workout.ActivityStrengthTraining,
	HCDancing:                       workout.ActivityDancing,
	HCElliptical:                    workout.ActivityElliptical,
	HCHighIntensityIntervalTraining: workout.ActivityHighIntensityIntervalTraining,
	HCHiking:                        workout.ActivityHiking,
	HCPilates:                       workout.ActivityPilates,
	HCRowing:                        workout.ActivityRowing,
	HCRowingMachine:                 workout.ActivityRowing,
	HCRunning:                       workout.ActivityRunning,
	HCRunningTreadmill:              workout.ActivityRunning,
	HCStrengthTraining:              workout.ActivityStrengthTraining,
	HCSwimmingOpenWater:             workout.ActivitySwimming,
	HCSwimmingPool:                  workout.ActivitySwimming,
	HCWalking:                       workout.ActivityWalking,
	HCWeightlifting:                 workout.ActivityStrengthTraining,
	HCYoga:                          workout.ActivityYoga,
}

var healthConnectCanonical = map[workout.ActivityType]int{
	workout.ActivityOther:                         HCOtherWorkout,
	workout.ActivityRunning:                       HCRunning,
	workout.ActivityWalking:                       HCWalking,
	workout.ActivityHiking:                        HCHiking,
	workout.ActivityCycling:                       HCBiking,
	workout.ActivitySwimming:                      HCSwimmingPool,
	workout.ActivityStrengthTraining:              HCStrengthTraining,
	workout.ActivityHighIntensityIntervalTraining: HCHighIntensityIntervalTraining,
	workout.ActivityYoga:                          HCYoga,
	workout.ActivityPilates:                       HCPilates,
	workout.ActivityRowing:                        HCRowing,
	workout.ActivityElliptical:                    HCElliptical,
	workout.ActivityDancing:                       HCDancing,
}

// FromHealthConnect maps an exercise type code. ok is false for codes the
// table does not know.
func FromHealthConnect(code int) (workout.ActivityType, bool) {
	t, ok := healthConnectCodes[code]
	if !ok {
		return workout.ActivityOther, false
	}
	return t, true
}

// HealthConnectCode returns the exercise type code written for t.
func HealthConnectCode(t workout.ActivityType) int {
	if c, ok := healthConnectCanonical[t]; ok {
		return c
	}
	return HCOtherWorkout
}
