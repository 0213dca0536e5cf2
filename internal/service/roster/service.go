// Package roster detects shift conflicts and performs conflict-checked
// shift writes.
package roster

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pkg/errors"

	"workforce/backend/internal/entity"
	"workforce/backend/internal/pkg/apperr"
	"workforce/backend/internal/service/audit"
)

// ShiftStore reads and writes persisted shifts.
type ShiftStore interface {
	// ShiftsFor returns the non-deleted shifts of a staff member on a date,
	// leaving out excludeID when it is not zero.
	ShiftsFor(ctx context.Context, staffID int, day time.Time, excludeID int) ([]entity.Shift, error)
	GetByID(ctx context.Context, id int) (entity.Shift, error)
	Upsert(ctx context.Context, shift *entity.Shift) error
	Delete(ctx context.Context, id int, actorID int) error
	List(ctx context.Context, filter Filter) ([]entity.Shift, error)
}

// StaffDirectory reports staff existence.
type StaffDirectory interface {
	Exists(ctx context.Context, staffID int) (exists bool, active bool, err error)
}

// Locker serializes check-and-write sequences for a key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Auditor records audit entries on a best-effort basis.
type Auditor interface {
	Record(ctx context.Context, entry entity.AuditLog) bool
}

type Filter struct {
	StaffID *int
	From    time.Time
	To      time.Time
}

type ShiftRequest struct {
	ID        int
	StaffID   int
	WorkDay   time.Time
	StartTime string
	EndTime   string
	ActorID   int
}

type Service struct {
	log     *log.Logger
	shifts  ShiftStore
	staff   StaffDirectory
	locker  Locker
	auditor Auditor
}

func NewService(log *log.Logger, shifts ShiftStore, staff StaffDirectory, locker Locker, auditor Auditor) *Service {
	return &Service{
		log:     log,
		shifts:  shifts,
		staff:   staff,
		locker:  locker,
		auditor: auditor,
	}
}

// CreateShift validates and stores a new shift if it does not overlap any
// other shift of the same staff member on the same date.
func (s *Service) CreateShift(ctx context.Context, req ShiftRequest) (entity.Shift, error) {
	req.ID = 0
	return s.write(ctx, req, audit.OpCreate)
}

// UpdateShift rewrites an existing shift under the same overlap rule,
// ignoring the shift's own current version.
func (s *Service) UpdateShift(ctx context.Context, req ShiftRequest) (entity.Shift, error) {
	if req.ID == 0 {
		return entity.Shift{}, apperr.New(apperr.InvalidArgument, "shift id is required")
	}

	current, err := s.shifts.GetByID(ctx, req.ID)
	if err != nil {
		return entity.Shift{}, err
	}

	if req.StaffID == 0 {
		req.StaffID = current.StaffID
	}
	if req.WorkDay.IsZero() {
		req.WorkDay = current.WorkDay
	}
	if req.StartTime == "" {
		req.StartTime = current.StartTime
	}
	if req.EndTime == "" {
		req.EndTime = current.EndTime
	}

	return s.write(ctx, req, audit.OpUpdate)
}

func (s *Service) write(ctx context.Context, req ShiftRequest, op string) (entity.Shift, error) {
	if req.WorkDay.IsZero() {
		return entity.Shift{}, apperr.New(apperr.InvalidShift, "work day is required")
	}

	start, err := ParseTimeOfDay(req.StartTime)
	if err != nil {
		return entity.Shift{}, err
	}
	end, err := ParseTimeOfDay(req.EndTime)
	if err != nil {
		return entity.Shift{}, err
	}

	hours, err := Duration(start, end)
	if err != nil {
		return entity.Shift{}, err
	}

	exists, active, err := s.staff.Exists(ctx, req.StaffID)
	if err != nil {
		return entity.Shift{}, errors.Wrap(err, "checking staff")
	}
	if !exists || !active {
		return entity.Shift{}, apperr.New(apperr.StaffNotFound, "staff %d not found or inactive", req.StaffID)
	}

	day := truncateDay(req.WorkDay)

	unlock, err := s.locker.Lock(ctx, LockKey(req.StaffID, day))
	if err != nil {
		return entity.Shift{}, err
	}
	defer unlock()

	others, err := s.shifts.ShiftsFor(ctx, req.StaffID, day, req.ID)
	if err != nil {
		return entity.Shift{}, errors.Wrap(err, "selecting shifts for overlap check")
	}

	slots := make([]Slot, 0, len(others))
	for _, o := range others {
		slot, err := SlotOf(o)
		if err != nil {
			s.log.Printf("roster : skipping unreadable shift[%d] : %v", o.ID, err)
			continue
		}
		slots = append(slots, slot)
	}

	candidate := Slot{ID: req.ID, StaffID: req.StaffID, WorkDay: day, Start: start, End: end}
	if hit, found, err := FindOverlap(candidate, slots); err != nil {
		return entity.Shift{}, err
	} else if found {
		return entity.Shift{}, apperr.New(apperr.OverlapConflict, "shift %s-%s overlaps shift %d (%s-%s) on %s",
			start, end, hit.ID, hit.Start, hit.End, day.Format("2006-01-02"))
	}

	shift := entity.Shift{
		StaffID:       req.StaffID,
		WorkDay:       day,
		StartTime:     start.String(),
		EndTime:       end.String(),
		DurationHours: hours,
	}
	shift.ID = req.ID
	actor := req.ActorID
	if req.ID == 0 {
		shift.CreatedBy = &actor
	} else {
		now := time.Now().UTC()
		shift.UpdatedAt = &now
		shift.UpdatedBy = &actor
	}

	if err := s.shifts.Upsert(ctx, &shift); err != nil {
		return entity.Shift{}, errors.Wrap(err, "saving shift")
	}

	s.auditor.Record(ctx, entity.AuditLog{
		TableName: "shift",
		Operation: op,
		RecordID:  shift.ID,
		ActorID:   req.ActorID,
		Detail:    fmt.Sprintf("staff %d %s %s-%s", shift.StaffID, day.Format("2006-01-02"), shift.StartTime, shift.EndTime),
	})

	return shift, nil
}

// DeleteShift soft deletes a shift. Deletion takes no lock.
func (s *Service) DeleteShift(ctx context.Context, id int, actorID int) error {
	if err := s.shifts.Delete(ctx, id, actorID); err != nil {
		return err
	}

	s.auditor.Record(ctx, entity.AuditLog{
		TableName: "shift",
		Operation: audit.OpDelete,
		RecordID:  id,
		ActorID:   actorID,
	})

	return nil
}

// ListShifts returns shifts in [From, To], optionally for one staff member.
func (s *Service) ListShifts(ctx context.Context, filter Filter) ([]entity.Shift, error) {
	if filter.From.IsZero() || filter.To.IsZero() {
		return nil, apperr.New(apperr.InvalidArgument, "from and to are required")
	}
	filter.From = truncateDay(filter.From)
	filter.To = truncateDay(filter.To)
	if filter.To.Before(filter.From) {
		return nil, apperr.New(apperr.InvalidArgument, "to is before from")
	}

	list, err := s.shifts.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "selecting shifts")
	}
	return list, nil
}

// LockKey is the lock name guarding writes for one staff member and date.
func LockKey(staffID int, day time.Time) string {
	return fmt.Sprintf("shift:lock:%d:%s", staffID, day.Format("2006-01-02"))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
