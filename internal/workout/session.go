package workout

import (
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle position of a session.
type State int

const (
	StateRunning State = iota
	StatePaused
	StateEnded
)

var stateNames = [...]string{
	StateRunning: "Running",
	StatePaused:  "Paused",
	StateEnded:   "Ended",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// ParseState is the inverse of State.String, case-insensitive.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if strings.EqualFold(n, name) {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("unknown session state %q", name)
}

// Session is a workout being tracked. It is a value: transitions return a
// new Session and leave the receiver untouched, so a rejected transition
// never modifies anything.
type Session struct {
	id             string
	activityType   ActivityType
	title          string
	dataOrigin     string
	startTime      time.Time
	state          State
	pauseIntervals []TimeInterval
	endTime        *time.Time
}

// Start begins a Running session at now.
func Start(id string, activity ActivityType, title, dataOrigin string, now time.Time) Session {
	return Session{
		id:           id,
		activityType: activity,
		title:        title,
		dataOrigin:   dataOrigin,
		startTime:    now,
		state:        StateRunning,
	}
}

// Restore rebuilds a live session from persisted fields. Only Running and
// Paused sessions can be restored; the pause list must agree with the state.
func Restore(id string, activity ActivityType, title, dataOrigin string, start time.Time, state State, pauses []TimeInterval) (Session, error) {
	if id == "" || start.IsZero() {
		return Session{}, fmt.Errorf("missing id or start time: %w", ErrMalformedPersistedSession)
	}
	if state != StateRunning && state != StatePaused {
		return Session{}, fmt.Errorf("cannot restore %s session: %w", state, ErrMalformedPersistedSession)
	}
	if err := checkPauses(pauses, state == StatePaused); err != nil {
		return Session{}, fmt.Errorf("%v: %w", err, ErrMalformedPersistedSession)
	}
	return Session{
		id:             id,
		activityType:   activity,
		title:          title,
		dataOrigin:     dataOrigin,
		startTime:      start,
		state:          state,
		pauseIntervals: copyIntervals(pauses),
	}, nil
}

// checkPauses enforces that at most the trailing interval is open, and that
// it is open exactly when the session is paused.
func checkPauses(pauses []TimeInterval, paused bool) error {
	for i, p := range pauses {
		if !p.valid() {
			return fmt.Errorf("pause %d ends before it starts", i)
		}
		if p.IsOpen() && i != len(pauses)-1 {
			return fmt.Errorf("pause %d is open but not last", i)
		}
	}
	trailingOpen := len(pauses) > 0 && pauses[len(pauses)-1].IsOpen()
	if paused != trailingOpen {
		return fmt.Errorf("paused=%t but trailing pause open=%t", paused, trailingOpen)
	}
	return nil
}

func (s Session) ID() string                 { return s.id }
func (s Session) ActivityType() ActivityType { return s.activityType }
func (s Session) Title() string              { return s.title }
func (s Session) DataOrigin() string         { return s.dataOrigin }
func (s Session) StartTime() time.Time       { return s.startTime }
func (s Session) State() State               { return s.state }

// EndTime returns the time the session ended, if it has.
func (s Session) EndTime() (time.Time, bool) {
	if s.endTime == nil {
		return time.Time{}, false
	}
	return *s.endTime, true
}

// PauseIntervals returns a copy of the pause history.
func (s Session) PauseIntervals() []TimeInterval {
	return copyIntervals(s.pauseIntervals)
}

// PauseCount is the number of pauses taken, including an ongoing one.
func (s Session) PauseCount() int {
	return len(s.pauseIntervals)
}

// Pause moves a Running session to Paused and opens a pause interval at now.
func (s Session) Pause(now time.Time) (Session, error) {
	if s.state != StateRunning {
		return s, &StateError{Op: "pause", State: s.state}
	}
	next := s.clone()
	next.state = StatePaused
	next.pauseIntervals = append(next.pauseIntervals, TimeInterval{Start: now})
	return next, nil
}

// Resume moves a Paused session to Running and closes the open pause at now.
func (s Session) Resume(now time.Time) (Session, error) {
	if s.state != StatePaused {
		return s, &StateError{Op: "resume", State: s.state}
	}
	next := s.clone()
	if err := next.closeTrailingPause(now); err != nil {
		return s, fmt.Errorf("resuming session %s: %w", s.id, err)
	}
	next.state = StateRunning
	return next, nil
}

// End freezes the session at now. A Paused session has its open pause
// closed at the same instant.
func (s Session) End(now time.Time) (Session, error) {
	if s.state == StateEnded {
		return s, &StateError{Op: "end", State: s.state}
	}
	next := s.clone()
	if s.state == StatePaused {
		if err := next.closeTrailingPause(now); err != nil {
			return s, fmt.Errorf("ending session %s: %w", s.id, err)
		}
	}
	next.state = StateEnded
	next.endTime = &now
	return next, nil
}

// TotalPaused sums every pause, measuring an open one against now.
// Ended sessions are measured at their end time regardless of now.
func (s Session) TotalPaused(now time.Time) time.Duration {
	now = s.clamp(now)
	var total time.Duration
	for _, p := range s.pauseIntervals {
		total += p.Duration(now)
	}
	return total
}

// Elapsed is the wall time since the session started.
func (s Session) Elapsed(now time.Time) time.Duration {
	return s.clamp(now).Sub(s.startTime)
}

// ActiveDuration is Elapsed minus TotalPaused for the same now, so the two
// always add up to Elapsed.
func (s Session) ActiveDuration(now time.Time) time.Duration {
	return s.Elapsed(now) - s.TotalPaused(now)
}

func (s Session) clamp(now time.Time) time.Time {
	if s.endTime != nil {
		return *s.endTime
	}
	return now
}

func (s Session) clone() Session {
	next := s
	next.pauseIntervals = copyIntervals(s.pauseIntervals)
	if s.endTime != nil {
		end := *s.endTime
		next.endTime = &end
	}
	return next
}

func (s *Session) closeTrailingPause(end time.Time) error {
	last := len(s.pauseIntervals) - 1
	if last < 0 || !s.pauseIntervals[last].IsOpen() {
		return fmt.Errorf("no open pause interval: %w", ErrInvalidSessionState)
	}
	closed, err := s.pauseIntervals[last].Close(end)
	if err != nil {
		return err
	}
	s.pauseIntervals[last] = closed
	return nil
}
