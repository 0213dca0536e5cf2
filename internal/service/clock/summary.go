package clock

import (
	"time"

	"workforce/backend/internal/entity"
)

// DaySummary is the worked time of one clock-in day. A session that runs
// past midnight counts toward the day it started.
type DaySummary struct {
	WorkDay     time.Time  `json:"work_day"`
	ComeTime    *time.Time `json:"come_time,omitempty"`
	LeaveTime   *time.Time `json:"leave_time,omitempty"`
	WorkedHours float64    `json:"worked_hours"`
	BreakHours  float64    `json:"break_hours"`
	Open        bool       `json:"open"`
}

// Summarize folds an ordered event history into per-day totals. Events that
// are not valid transitions from the running state are skipped, so override
// corrections do not double count.
func Summarize(events []entity.AttendanceEvent) []DaySummary {
	var (
		out        []DaySummary
		state      = StateOut
		cur        *DaySummary
		segStart   time.Time
		breakStart time.Time
	)

	for _, e := range events {
		if !e.Kind.ClockAffecting() {
			continue
		}
		next, err := Next(state, e.Kind)
		if err != nil {
			continue
		}
		at := e.OccurredAt.UTC()

		switch e.Kind {
		case entity.ClockIn:
			out = append(out, DaySummary{WorkDay: dayOf(at), ComeTime: &at, Open: true})
			cur = &out[len(out)-1]
			segStart = at
		case entity.BreakStart:
			cur.WorkedHours += hoursBetween(segStart, at)
			breakStart = at
		case entity.BreakEnd:
			cur.BreakHours += hoursBetween(breakStart, at)
			segStart = at
		case entity.ClockOut:
			if state == StateOnBreak {
				cur.BreakHours += hoursBetween(breakStart, at)
			} else {
				cur.WorkedHours += hoursBetween(segStart, at)
			}
			cur.LeaveTime = &at
			cur.Open = false
		}
		state = next
	}

	return out
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func hoursBetween(from, to time.Time) float64 {
	if to.Before(from) {
		return 0
	}
	return to.Sub(from).Hours()
}
