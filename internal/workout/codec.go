package workout

import (
	"encoding/json"
	"time"
)

// ToRecord finalizes s into a Record at endTime. A zero endTime means the
// session's own end time if it has ended, otherwise time.Now(). Paused and
// active totals are both derived from that single instant and any open
// pause is closed at it. An endTime earlier than the start or than any
// recorded pause boundary is moved forward to the latest of them. The
// session itself is not modified.
func ToRecord(s Session, endTime time.Time, m Metrics) Record {
	if endTime.IsZero() {
		if end, ok := s.EndTime(); ok {
			endTime = end
		} else {
			endTime = time.Now()
		}
	}

	pauses := s.PauseIntervals()
	endTime = notBefore(endTime, s.StartTime())
	for _, p := range pauses {
		endTime = notBefore(endTime, p.Start)
		if p.End != nil {
			endTime = notBefore(endTime, *p.End)
		}
	}

	var paused time.Duration
	for i, p := range pauses {
		paused += p.Duration(endTime)
		if p.IsOpen() {
			end := endTime
			pauses[i].End = &end
		}
	}
	active := endTime.Sub(s.StartTime()) - paused

	end := endTime
	return Record{
		ID:                    s.ID(),
		ActivityType:          s.ActivityType(),
		Title:                 s.Title(),
		DataOrigin:            s.DataOrigin(),
		StartTime:             s.StartTime(),
		EndTime:               &end,
		Metrics:               m,
		ActiveDurationSeconds: active.Seconds(),
		PausedDurationSeconds: paused.Seconds(),
		PauseCount:            len(pauses),
		PauseIntervals:        pauses,
	}
}

func notBefore(t, floor time.Time) time.Time {
	if t.Before(floor) {
		return floor
	}
	return t
}

// OverlayRecord re-finalizes s while keeping the measurements already
// present on existing.
func OverlayRecord(s Session, existing Record, endTime time.Time) Record {
	return ToRecord(s, endTime, existing.Metrics)
}

// ToSession reconstructs a session from a record. Record carries no state
// field, so the state is inferred: records without an end time come back
// Running, or Paused when their trailing pause interval has no end. A
// record written by ToRecord always has an end time and so never restores
// as Paused.
// Records with an end time come back Ended with every pause closed. Pause
// data that does not hold together is dropped. ok is false when the record
// lacks an id or start time.
func ToSession(rec Record) (Session, bool) {
	if rec.ID == "" || rec.StartTime.IsZero() {
		return Session{}, false
	}

	pauses := copyIntervals(rec.PauseIntervals)
	s := Session{
		id:           rec.ID,
		activityType: rec.ActivityType,
		title:        rec.Title,
		dataOrigin:   rec.DataOrigin,
		startTime:    rec.StartTime,
		state:        StateRunning,
	}

	if rec.EndTime != nil {
		end := *rec.EndTime
		for i, p := range pauses {
			if p.IsOpen() {
				pauses[i].End = &end
			}
		}
		if checkPauses(pauses, false) != nil {
			pauses = nil
		}
		s.state = StateEnded
		s.endTime = &end
		s.pauseIntervals = pauses
		return s, true
	}

	trailingOpen := len(pauses) > 0 && pauses[len(pauses)-1].IsOpen()
	if checkPauses(pauses, trailingOpen) != nil {
		return s, true
	}
	if trailingOpen {
		s.state = StatePaused
	}
	s.pauseIntervals = pauses
	return s, true
}

type wireInterval struct {
	Start *int64 `json:"start"`
	End   *int64 `json:"end,omitempty"`
}

// EncodePauseIntervals renders intervals as a compact JSON array of
// {"start":ms,"end":ms} objects, end omitted while open.
func EncodePauseIntervals(intervals []TimeInterval) string {
	wire := make([]wireInterval, len(intervals))
	for i, iv := range intervals {
		start := iv.Start.UnixMilli()
		wire[i].Start = &start
		if iv.End != nil {
			end := iv.End.UnixMilli()
			wire[i].End = &end
		}
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// DecodePauseIntervals parses the output of EncodePauseIntervals. Empty,
// unparsable or inconsistent input yields an empty list, never an error.
// Times come back in UTC at millisecond precision.
func DecodePauseIntervals(data string) []TimeInterval {
	if data == "" {
		return []TimeInterval{}
	}
	var wire []wireInterval
	if err := json.Unmarshal([]byte(data), &wire); err != nil {
		return []TimeInterval{}
	}
	out := make([]TimeInterval, 0, len(wire))
	for _, w := range wire {
		if w.Start == nil {
			return []TimeInterval{}
		}
		iv := TimeInterval{Start: time.UnixMilli(*w.Start).UTC()}
		if w.End != nil {
			end := time.UnixMilli(*w.End).UTC()
			iv.End = &end
		}
		if !iv.valid() {
			return []TimeInterval{}
		}
		out = append(out, iv)
	}
	return out
}
