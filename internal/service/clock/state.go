package clock

import (
	"workforce/backend/internal/entity"
	"workforce/backend/internal/pkg/apperr"
)

// State is the clock session state of a staff member. It is always derived
// from the event history and never stored.
type State string

const (
	StateOut     State = "OUT"
	StateIn      State = "IN"
	StateOnBreak State = "ON_BREAK"
)

var transitions = map[State]map[entity.EventKind]State{
	StateOut: {
		entity.ClockIn: StateIn,
	},
	StateIn: {
		entity.ClockOut:   StateOut,
		entity.BreakStart: StateOnBreak,
	},
	StateOnBreak: {
		entity.BreakEnd: StateIn,
		entity.ClockOut: StateOut,
	},
}

// Next returns the state reached by applying kind to current, or the rule
// error describing why the transition is not allowed.
func Next(current State, kind entity.EventKind) (State, error) {
	if next, ok := transitions[current][kind]; ok {
		return next, nil
	}

	switch kind {
	case entity.ClockIn:
		return current, apperr.New(apperr.AlreadyClockedIn, "staff is already clocked in (%s)", current)
	case entity.ClockOut, entity.BreakStart, entity.BreakEnd:
		if current == StateOut {
			return current, apperr.New(apperr.NotClockedIn, "staff is not clocked in")
		}
		if kind == entity.BreakStart {
			return current, apperr.New(apperr.AlreadyOnBreak, "staff is already on break")
		}
		return current, apperr.New(apperr.NotOnBreak, "staff is not on break")
	}

	return current, apperr.New(apperr.InvalidArgument, "event kind %q does not affect the clock", kind)
}

// resultOf is the state produced by a clock-affecting event kind.
func resultOf(kind entity.EventKind) State {
	switch kind {
	case entity.ClockIn, entity.BreakEnd:
		return StateIn
	case entity.BreakStart:
		return StateOnBreak
	}
	return StateOut
}

// DeriveState returns the state produced by the most recent clock-affecting
// event, ordered by occurrence time with ties broken by event id. Events of
// other kinds are ignored. An empty history yields StateOut.
func DeriveState(events []entity.AttendanceEvent) State {
	var last *entity.AttendanceEvent
	for i := range events {
		e := &events[i]
		if !e.Kind.ClockAffecting() {
			continue
		}
		if last == nil || e.OccurredAt.After(last.OccurredAt) ||
			(e.OccurredAt.Equal(last.OccurredAt) && e.ID > last.ID) {
			last = e
		}
	}

	if last == nil {
		return StateOut
	}
	return resultOf(last.Kind)
}

// duplicateKind is the debounce error kind for an event kind.
func duplicateKind(kind entity.EventKind) apperr.Kind {
	switch kind {
	case entity.ClockIn:
		return apperr.DuplicateClockIn
	case entity.ClockOut:
		return apperr.DuplicateClockOut
	case entity.BreakStart:
		return apperr.DuplicateBreakStart
	}
	return apperr.DuplicateBreakEnd
}
