package roster

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"workforce/backend/internal/entity"
	"workforce/backend/internal/pkg/apperr"
)

const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time in minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay accepts "15:04" and "15:04:05". Seconds are dropped.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, apperr.New(apperr.InvalidShift, "time %q must be HH:MM", s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, apperr.New(apperr.InvalidShift, "time %q has invalid hour", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, apperr.New(apperr.InvalidShift, "time %q has invalid minute", s)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, apperr.New(apperr.InvalidShift, "time %q has invalid second", s)
		}
	}

	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Interval is a half-open [Start, End) range in minutes. After
// normalization End may exceed a day for shifts that cross midnight.
type Interval struct {
	Start int
	End   int
}

// Normalize builds the interval of a shift. An end before the start means
// the shift crosses midnight. Equal start and end is rejected.
func Normalize(start, end TimeOfDay) (Interval, error) {
	if start == end {
		return Interval{}, apperr.New(apperr.InvalidShift, "shift start and end are both %s", start)
	}

	iv := Interval{Start: int(start), End: int(end)}
	if end < start {
		iv.End += minutesPerDay
	}
	return iv, nil
}

func (i Interval) shift(minutes int) Interval {
	return Interval{Start: i.Start + minutes, End: i.End + minutes}
}

func (i Interval) intersects(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

// Overlaps reports whether two intervals of the same roster date collide.
// Each interval is also compared against the other moved one day later so
// that the after-midnight tail of an overnight shift collides with an early
// shift on the same date. Back-to-back intervals do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.intersects(o) ||
		i.intersects(o.shift(minutesPerDay)) ||
		i.shift(minutesPerDay).intersects(o)
}

// Hours is the length of the interval in hours.
func (i Interval) Hours() float64 {
	return float64(i.End-i.Start) / 60
}

// Duration returns (end - start) mod 24h in hours.
func Duration(start, end TimeOfDay) (float64, error) {
	iv, err := Normalize(start, end)
	if err != nil {
		return 0, err
	}
	return iv.Hours(), nil
}

// Slot is the part of a shift the detector looks at.
type Slot struct {
	ID      int
	StaffID int
	WorkDay time.Time
	Start   TimeOfDay
	End     TimeOfDay
}

// SlotOf converts a stored shift.
func SlotOf(s entity.Shift) (Slot, error) {
	start, err := ParseTimeOfDay(s.StartTime)
	if err != nil {
		return Slot{}, err
	}
	end, err := ParseTimeOfDay(s.EndTime)
	if err != nil {
		return Slot{}, err
	}

	return Slot{ID: s.ID, StaffID: s.StaffID, WorkDay: s.WorkDay, Start: start, End: end}, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FindOverlap returns the first existing slot that collides with candidate.
// Slots of other staff or dates, slots with the candidate's own id and slots
// that cannot be normalized are skipped.
func FindOverlap(candidate Slot, existing []Slot) (Slot, bool, error) {
	civ, err := Normalize(candidate.Start, candidate.End)
	if err != nil {
		return Slot{}, false, err
	}

	for _, s := range existing {
		if s.StaffID != candidate.StaffID || !sameDay(s.WorkDay, candidate.WorkDay) {
			continue
		}
		if candidate.ID != 0 && s.ID == candidate.ID {
			continue
		}

		siv, err := Normalize(s.Start, s.End)
		if err != nil {
			continue
		}
		if civ.Overlaps(siv) {
			return s, true, nil
		}
	}

	return Slot{}, false, nil
}

// HasOverlap reports whether candidate collides with any existing slot.
func HasOverlap(candidate Slot, existing []Slot) (bool, error) {
	_, found, err := FindOverlap(candidate, existing)
	return found, err
}
