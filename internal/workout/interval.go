package workout

import (
	"fmt"
	"time"
)

// TimeInterval is a span that is open (End == nil) while ongoing.
type TimeInterval struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// IsOpen reports whether the interval has no end yet.
func (i TimeInterval) IsOpen() bool {
	return i.End == nil
}

// Duration returns the span length. Open intervals are measured against now.
func (i TimeInterval) Duration(now time.Time) time.Duration {
	end := now
	if i.End != nil {
		end = *i.End
	}
	return end.Sub(i.Start)
}

// Close returns a copy of the interval ending at end.
func (i TimeInterval) Close(end time.Time) (TimeInterval, error) {
	if i.End != nil {
		return i, ErrIntervalClosed
	}
	if end.Before(i.Start) {
		return i, fmt.Errorf("closing at %s: %w", end.Format(time.RFC3339), ErrIntervalBackwards)
	}
	return TimeInterval{Start: i.Start, End: &end}, nil
}

func (i TimeInterval) valid() bool {
	return i.End == nil || !i.End.Before(i.Start)
}

func copyIntervals(in []TimeInterval) []TimeInterval {
	if len(in) == 0 {
		return nil
	}
	out := make([]TimeInterval, len(in))
	for n, iv := range in {
		out[n] = TimeInterval{Start: iv.Start}
		if iv.End != nil {
			end := *iv.End
			out[n].End = &end
		}
	}
	return out
}
