package dedup

import (
	"fmt"
	"strings"
)

// Preference selects which side of a duplicate group survives cleanup.
type Preference int

const (
	// PreferExternal keeps the wearable or third-party records.
	PreferExternal Preference = iota
	// PreferApp keeps the record written by the app source.
	PreferApp
)

func (p Preference) String() string {
	if p == PreferApp {
		return "app"
	}
	return "external"
}

// ParsePreference accepts "external" or "app". Empty means external.
func ParsePreference(s string) (Preference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "external":
		return PreferExternal, nil
	case "app":
		return PreferApp, nil
	default:
		return 0, fmt.Errorf("unknown preference %q (want external or app)", s)
	}
}

// Plan lists record IDs to keep and to delete.
type Plan struct {
	Keep    []string `json:"keep"`
	Discard []string `json:"discard"`
	Skipped int      `json:"skipped_groups"`
}

// PlanCleanup decides, per group, which records to delete. Groups without an
// app record are skipped since there is nothing to reconcile against.
func PlanCleanup(groups []DuplicateGroup, pref Preference) Plan {
	plan := Plan{Keep: []string{}, Discard: []string{}}
	for _, g := range groups {
		app, ok := g.AppWorkout()
		if !ok {
			plan.Skipped++
			continue
		}
		ext := g.ExternalWorkouts()
		switch pref {
		case PreferApp:
			plan.Keep = append(plan.Keep, app.ID)
			for _, w := range ext {
				plan.Discard = append(plan.Discard, w.ID)
			}
		default:
			plan.Discard = append(plan.Discard, app.ID)
			for _, w := range ext {
				plan.Keep = append(plan.Keep, w.ID)
			}
		}
	}
	return plan
}
