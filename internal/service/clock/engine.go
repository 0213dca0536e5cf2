// Package clock implements the clock-session rules: state derivation from
// attendance history, the transition table, the duplicate-submission window
// and the audited administrator override.
package clock

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/pkg/errors"

	"workforce/backend/internal/entity"
	"workforce/backend/internal/pkg/apperr"
	"workforce/backend/internal/service/audit"
)

// EventStore reads and appends attendance events.
type EventStore interface {
	// RecentEvents returns the staff member's events with occurred_at >= since,
	// ordered by occurred_at then id.
	RecentEvents(ctx context.Context, staffID int, since time.Time) ([]entity.AttendanceEvent, error)
	// LatestClockEvent returns the most recent clock-affecting event, or nil.
	LatestClockEvent(ctx context.Context, staffID int) (*entity.AttendanceEvent, error)
	Append(ctx context.Context, event *entity.AttendanceEvent) error
}

// StaffDirectory reports staff existence.
type StaffDirectory interface {
	Exists(ctx context.Context, staffID int) (exists bool, active bool, err error)
}

// Auditor records audit entries on a best-effort basis.
type Auditor interface {
	Record(ctx context.Context, entry entity.AuditLog) bool
}

// maxClockSkew is how far past the server clock a device may stamp an event.
const maxClockSkew = 5 * time.Minute

// Engine applies the clock-session rules on top of the event store.
type Engine struct {
	log      *log.Logger
	events   EventStore
	staff    StaffDirectory
	auditor  Auditor
	debounce time.Duration
	now      func() time.Time
}

func NewEngine(log *log.Logger, events EventStore, staff StaffDirectory, auditor Auditor, debounce time.Duration) *Engine {
	return &Engine{
		log:      log,
		events:   events,
		staff:    staff,
		auditor:  auditor,
		debounce: debounce,
		now:      time.Now,
	}
}

// RecordRequest is a clock event submitted by or for a staff member. A zero
// OccurredAt means now.
type RecordRequest struct {
	StaffID    int
	Kind       entity.EventKind
	OccurredAt time.Time
	Reason     *string
	DeviceID   *string
}

// OverrideRequest is an administrator clock-in or clock-out with a reason.
type OverrideRequest struct {
	StaffID    int
	AdminID    int
	Kind       entity.EventKind
	Reason     string
	OccurredAt time.Time
}

// OverrideResult is the stored override and whether its audit entry was
// written.
type OverrideResult struct {
	Event         entity.AttendanceEvent `json:"event"`
	AuditRecorded bool                   `json:"audit_recorded"`
}

// RecordEvent validates and appends a clock event for a staff member.
func (e *Engine) RecordEvent(ctx context.Context, req RecordRequest) (entity.AttendanceEvent, error) {
	if err := e.ensureStaff(ctx, req.StaffID); err != nil {
		return entity.AttendanceEvent{}, err
	}

	if !req.Kind.ClockAffecting() {
		return entity.AttendanceEvent{}, apperr.New(apperr.InvalidArgument, "event kind %q is not accepted here", req.Kind)
	}

	occurredAt := e.occurredAt(req.OccurredAt)
	if limit := e.now().UTC().Add(maxClockSkew); occurredAt.After(limit) {
		return entity.AttendanceEvent{}, apperr.New(apperr.InvalidArgument, "event time %s is in the future", occurredAt.Format(time.RFC3339))
	}

	if err := e.checkDuplicate(ctx, req.StaffID, req.Kind, occurredAt); err != nil {
		return entity.AttendanceEvent{}, err
	}

	last, err := e.events.LatestClockEvent(ctx, req.StaffID)
	if err != nil {
		return entity.AttendanceEvent{}, errors.Wrap(err, "reading latest clock event")
	}

	// The history ordered by occurrence time must replay through the
	// transition table, so an event may not land before the latest one.
	current := StateOut
	if last != nil {
		if occurredAt.Before(last.OccurredAt) {
			return entity.AttendanceEvent{}, apperr.New(apperr.OutOfOrderEvent, "event time %s is before the latest %s at %s",
				occurredAt.Format(time.RFC3339), last.Kind, last.OccurredAt.Format(time.RFC3339))
		}
		current = resultOf(last.Kind)
	}

	if _, err := Next(current, req.Kind); err != nil {
		return entity.AttendanceEvent{}, err
	}

	event := entity.AttendanceEvent{
		StaffID:    req.StaffID,
		Kind:       req.Kind,
		OccurredAt: occurredAt,
		Reason:     req.Reason,
		DeviceID:   req.DeviceID,
	}

	if err := e.events.Append(ctx, &event); err != nil {
		return entity.AttendanceEvent{}, errors.Wrap(err, "appending attendance event")
	}

	return event, nil
}

// Override appends an administrator clock-in or clock-out without state or
// duplicate checks and then records an audit entry. A failed audit write is
// reported through OverrideResult.AuditRecorded, never as an error.
func (e *Engine) Override(ctx context.Context, req OverrideRequest) (OverrideResult, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return OverrideResult{}, apperr.New(apperr.ReasonRequired, "override requires a reason")
	}

	if req.Kind != entity.ClockIn && req.Kind != entity.ClockOut {
		return OverrideResult{}, apperr.New(apperr.InvalidArgument, "override kind must be %s or %s", entity.ClockIn, entity.ClockOut)
	}

	if err := e.ensureStaff(ctx, req.StaffID); err != nil {
		return OverrideResult{}, err
	}

	adminID := req.AdminID
	event := entity.AttendanceEvent{
		StaffID:    req.StaffID,
		Kind:       req.Kind,
		OccurredAt: e.occurredAt(req.OccurredAt),
		Reason:     &reason,
		AdminID:    &adminID,
	}

	if err := e.events.Append(ctx, &event); err != nil {
		return OverrideResult{}, errors.Wrap(err, "appending override event")
	}

	e.log.Printf("clock : override : staff[%d] admin[%d] kind[%s] event[%d]", req.StaffID, req.AdminID, req.Kind, event.ID)

	recorded := e.auditor.Record(ctx, entity.AuditLog{
		TableName: "attendance_event",
		Operation: audit.OpOverride,
		RecordID:  event.ID,
		ActorID:   req.AdminID,
		Detail:    reason,
	})

	return OverrideResult{Event: event, AuditRecorded: recorded}, nil
}

// CurrentState derives the staff member's clock state from the latest
// clock-affecting event.
func (e *Engine) CurrentState(ctx context.Context, staffID int) (State, error) {
	last, err := e.events.LatestClockEvent(ctx, staffID)
	if err != nil {
		return StateOut, errors.Wrap(err, "reading latest clock event")
	}

	if last == nil {
		return StateOut, nil
	}
	return DeriveState([]entity.AttendanceEvent{*last}), nil
}

// StaffState is CurrentState for an existing, active staff member.
func (e *Engine) StaffState(ctx context.Context, staffID int) (State, error) {
	if err := e.ensureStaff(ctx, staffID); err != nil {
		return StateOut, err
	}
	return e.CurrentState(ctx, staffID)
}

// History returns the staff member's events since the given time.
func (e *Engine) History(ctx context.Context, staffID int, since time.Time) ([]entity.AttendanceEvent, error) {
	if err := e.ensureStaff(ctx, staffID); err != nil {
		return nil, err
	}

	events, err := e.events.RecentEvents(ctx, staffID, since)
	if err != nil {
		return nil, errors.Wrap(err, "reading attendance history")
	}
	return events, nil
}

func (e *Engine) ensureStaff(ctx context.Context, staffID int) error {
	exists, active, err := e.staff.Exists(ctx, staffID)
	if err != nil {
		return errors.Wrap(err, "checking staff")
	}
	if !exists || !active {
		return apperr.New(apperr.StaffNotFound, "staff %d not found or inactive", staffID)
	}
	return nil
}

// checkDuplicate rejects an event when one of the same kind occurred within
// the debounce window before occurredAt.
func (e *Engine) checkDuplicate(ctx context.Context, staffID int, kind entity.EventKind, occurredAt time.Time) error {
	if e.debounce <= 0 {
		return nil
	}

	recent, err := e.events.RecentEvents(ctx, staffID, occurredAt.Add(-e.debounce))
	if err != nil {
		return errors.Wrap(err, "reading recent events")
	}

	for _, prev := range recent {
		if prev.Kind != kind || prev.OccurredAt.After(occurredAt) {
			continue
		}
		if occurredAt.Sub(prev.OccurredAt) < e.debounce {
			return apperr.New(duplicateKind(kind), "%s already recorded at %s", kind, prev.OccurredAt.Format(time.RFC3339))
		}
	}

	return nil
}

func (e *Engine) occurredAt(t time.Time) time.Time {
	if t.IsZero() {
		t = e.now()
	}
	return t.UTC()
}
