package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// EventKind is the kind of an attendance event.
type EventKind string

const (
	ClockIn        EventKind = "CLOCK_IN"
	ClockOut       EventKind = "CLOCK_OUT"
	BreakStart     EventKind = "BREAK_START"
	BreakEnd       EventKind = "BREAK_END"
	ManualOverride EventKind = "MANUAL_OVERRIDE"
)

// ClockAffecting reports whether events of this kind move the clock session.
func (k EventKind) ClockAffecting() bool {
	switch k {
	case ClockIn, ClockOut, BreakStart, BreakEnd:
		return true
	}
	return false
}

// AttendanceEvent is an immutable clock event. Overrides carry AdminID and
// store the effective clock kind.
type AttendanceEvent struct {
	bun.BaseModel `bun:"table:attendance_event"`

	ID         int       `json:"id"                  bun:"id,pk,autoincrement"`
	StaffID    int       `json:"staff_id"            bun:"staff_id"`
	Kind       EventKind `json:"kind"                bun:"kind"`
	OccurredAt time.Time `json:"occurred_at"         bun:"occurred_at"`
	Reason     *string   `json:"reason,omitempty"    bun:"reason"`
	DeviceID   *string   `json:"device_id,omitempty" bun:"device_id"`
	AdminID    *int      `json:"admin_id,omitempty"  bun:"admin_id"`
	CreatedAt  time.Time `json:"created_at"          bun:"created_at,nullzero,default:current_timestamp"`
}

// IsOverride reports whether the event was written by an administrator
// override.
func (e AttendanceEvent) IsOverride() bool {
	return e.AdminID != nil
}
