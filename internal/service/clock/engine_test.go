package clock

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce/backend/internal/entity"
	"workforce/backend/internal/pkg/apperr"
	"workforce/backend/internal/service/audit"
)

type memEvents struct {
	mu     sync.Mutex
	nextID int
	events []entity.AttendanceEvent
}

func (m *memEvents) RecentEvents(_ context.Context, staffID int, since time.Time) ([]entity.AttendanceEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []entity.AttendanceEvent
	for _, e := range m.events {
		if e.StaffID == staffID && !e.OccurredAt.Before(since) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out, nil
}

func (m *memEvents) LatestClockEvent(_ context.Context, staffID int) (*entity.AttendanceEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var own []entity.AttendanceEvent
	for _, e := range m.events {
		if e.StaffID == staffID && e.Kind.ClockAffecting() {
			own = append(own, e)
		}
	}
	if len(own) == 0 {
		return nil, nil
	}
	sort.Slice(own, func(i, j int) bool {
		if own[i].OccurredAt.Equal(own[j].OccurredAt) {
			return own[i].ID < own[j].ID
		}
		return own[i].OccurredAt.Before(own[j].OccurredAt)
	})
	last := own[len(own)-1]
	return &last, nil
}

func (m *memEvents) Append(_ context.Context, event *entity.AttendanceEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	event.ID = m.nextID
	event.CreatedAt = time.Now().UTC()
	m.events = append(m.events, *event)
	return nil
}

func (m *memEvents) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

type memStaff map[int]bool

func (m memStaff) Exists(_ context.Context, staffID int) (bool, bool, error) {
	active, ok := m[staffID]
	return ok, active, nil
}

type memAuditor struct {
	mu      sync.Mutex
	entries []entity.AuditLog
	fail    bool
}

func (m *memAuditor) Record(_ context.Context, entry entity.AuditLog) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return false
	}
	m.entries = append(m.entries, entry)
	return true
}

var (
	t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	// tNow is the engine clock; events in the tests happen earlier that day.
	tNow = t0.Add(12 * time.Hour)
)

func newTestEngine() (*Engine, *memEvents, *memAuditor) {
	events := &memEvents{}
	auditor := &memAuditor{}
	staff := memStaff{1001: true, 1002: true, 1003: false}
	e := NewEngine(log.New(&bytes.Buffer{}, "", 0), events, staff, auditor, 60*time.Second)
	e.now = func() time.Time { return tNow }
	return e, events, auditor
}

func record(t *testing.T, e *Engine, staffID int, kind entity.EventKind, at time.Time) entity.AttendanceEvent {
	t.Helper()
	ev, err := e.RecordEvent(context.Background(), RecordRequest{StaffID: staffID, Kind: kind, OccurredAt: at})
	require.NoError(t, err)
	return ev
}

func TestNext_TransitionTable(t *testing.T) {
	tests := []struct {
		from State
		kind entity.EventKind
		to   State
		err  apperr.Kind
	}{
		{StateOut, entity.ClockIn, StateIn, ""},
		{StateOut, entity.ClockOut, StateOut, apperr.NotClockedIn},
		{StateOut, entity.BreakStart, StateOut, apperr.NotClockedIn},
		{StateOut, entity.BreakEnd, StateOut, apperr.NotClockedIn},
		{StateIn, entity.ClockIn, StateIn, apperr.AlreadyClockedIn},
		{StateIn, entity.ClockOut, StateOut, ""},
		{StateIn, entity.BreakStart, StateOnBreak, ""},
		{StateIn, entity.BreakEnd, StateIn, apperr.NotOnBreak},
		{StateOnBreak, entity.ClockIn, StateOnBreak, apperr.AlreadyClockedIn},
		{StateOnBreak, entity.ClockOut, StateOut, ""},
		{StateOnBreak, entity.BreakStart, StateOnBreak, apperr.AlreadyOnBreak},
		{StateOnBreak, entity.BreakEnd, StateIn, ""},
		{StateIn, entity.ManualOverride, StateIn, apperr.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s", tt.from, tt.kind), func(t *testing.T) {
			next, err := Next(tt.from, tt.kind)
			assert.Equal(t, tt.to, next)
			if tt.err == "" {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.err, apperr.KindOf(err))
			}
		})
	}
}

func TestDeriveState(t *testing.T) {
	assert.Equal(t, StateOut, DeriveState(nil))

	history := []entity.AttendanceEvent{
		{ID: 1, Kind: entity.ClockIn, OccurredAt: t0},
		{ID: 2, Kind: entity.BreakStart, OccurredAt: t0.Add(time.Hour)},
		{ID: 3, Kind: entity.ManualOverride, OccurredAt: t0.Add(2 * time.Hour)},
	}
	assert.Equal(t, StateOnBreak, DeriveState(history))

	// Same timestamp: the higher id wins regardless of slice order.
	tied := []entity.AttendanceEvent{
		{ID: 5, Kind: entity.ClockOut, OccurredAt: t0},
		{ID: 4, Kind: entity.ClockIn, OccurredAt: t0},
	}
	assert.Equal(t, StateOut, DeriveState(tied))
}

func TestDeriveState_PureFunctionOfHistory(t *testing.T) {
	history := []entity.AttendanceEvent{
		{ID: 1, Kind: entity.ClockIn, OccurredAt: t0},
		{ID: 2, Kind: entity.BreakStart, OccurredAt: t0.Add(time.Hour)},
		{ID: 3, Kind: entity.BreakEnd, OccurredAt: t0.Add(90 * time.Minute)},
	}

	first := DeriveState(history)
	second := DeriveState(history)
	assert.Equal(t, first, second)
	assert.Equal(t, StateIn, first)
}

func TestEngine_RecordEvent_FullCycle(t *testing.T) {
	e, events, _ := newTestEngine()
	ctx := context.Background()

	record(t, e, 1001, entity.ClockIn, t0)
	record(t, e, 1001, entity.BreakStart, t0.Add(2*time.Hour))
	record(t, e, 1001, entity.BreakEnd, t0.Add(150*time.Minute))
	record(t, e, 1001, entity.BreakStart, t0.Add(5*time.Hour))
	record(t, e, 1001, entity.ClockOut, t0.Add(6*time.Hour))

	state, err := e.CurrentState(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, StateOut, state)
	assert.Equal(t, 5, events.count())
}

func TestEngine_RecordEvent_TransitionTotality(t *testing.T) {
	setups := map[State][]entity.EventKind{
		StateOut:     nil,
		StateIn:      {entity.ClockIn},
		StateOnBreak: {entity.ClockIn, entity.BreakStart},
	}
	kinds := []entity.EventKind{entity.ClockIn, entity.ClockOut, entity.BreakStart, entity.BreakEnd}

	for state, prefix := range setups {
		for _, kind := range kinds {
			if _, ok := transitions[state][kind]; ok {
				continue
			}

			t.Run(fmt.Sprintf("%s_%s", state, kind), func(t *testing.T) {
				e, events, _ := newTestEngine()
				at := t0
				for _, k := range prefix {
					record(t, e, 1001, k, at)
					at = at.Add(10 * time.Minute)
				}
				before := events.count()

				_, err := e.RecordEvent(context.Background(), RecordRequest{StaffID: 1001, Kind: kind, OccurredAt: at.Add(time.Hour)})
				require.Error(t, err)

				_, want := Next(state, kind)
				assert.Equal(t, apperr.KindOf(want), apperr.KindOf(err))
				assert.Equal(t, before, events.count(), "rejected event must not be appended")
			})
		}
	}
}

func TestEngine_RecordEvent_Debounce(t *testing.T) {
	e, events, _ := newTestEngine()

	record(t, e, 1001, entity.ClockIn, t0)

	_, err := e.RecordEvent(context.Background(), RecordRequest{StaffID: 1001, Kind: entity.ClockIn, OccurredAt: t0.Add(30 * time.Second)})
	assert.Equal(t, apperr.DuplicateClockIn, apperr.KindOf(err))
	assert.Equal(t, 1, events.count())

	record(t, e, 1001, entity.ClockOut, t0.Add(10*time.Minute))

	_, err = e.RecordEvent(context.Background(), RecordRequest{StaffID: 1001, Kind: entity.ClockOut, OccurredAt: t0.Add(10*time.Minute + 59*time.Second)})
	assert.Equal(t, apperr.DuplicateClockOut, apperr.KindOf(err))
}

func TestEngine_RecordEvent_DebounceExpires(t *testing.T) {
	e, _, _ := newTestEngine()

	record(t, e, 1001, entity.ClockIn, t0)
	record(t, e, 1001, entity.ClockOut, t0.Add(10*time.Second))

	_, err := e.RecordEvent(context.Background(), RecordRequest{StaffID: 1001, Kind: entity.ClockIn, OccurredAt: t0.Add(30 * time.Second)})
	assert.Equal(t, apperr.DuplicateClockIn, apperr.KindOf(err))

	ev := record(t, e, 1001, entity.ClockIn, t0.Add(61*time.Second))
	assert.Equal(t, entity.ClockIn, ev.Kind)
}

func TestEngine_RecordEvent_DebounceIsPerStaff(t *testing.T) {
	e, _, _ := newTestEngine()

	record(t, e, 1001, entity.ClockIn, t0)
	record(t, e, 1002, entity.ClockIn, t0.Add(5*time.Second))
}

func TestEngine_RecordEvent_StaffNotFound(t *testing.T) {
	e, events, _ := newTestEngine()

	for _, id := range []int{4242, 1003} {
		_, err := e.RecordEvent(context.Background(), RecordRequest{StaffID: id, Kind: entity.ClockIn, OccurredAt: t0})
		assert.Equal(t, apperr.StaffNotFound, apperr.KindOf(err), "staff %d", id)
	}
	assert.Equal(t, 0, events.count())
}

func TestEngine_RecordEvent_RejectsOverrideKind(t *testing.T) {
	e, _, _ := newTestEngine()

	_, err := e.RecordEvent(context.Background(), RecordRequest{StaffID: 1001, Kind: entity.ManualOverride, OccurredAt: t0})
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
}

func TestEngine_RecordEvent_DefaultsOccurredAtToNow(t *testing.T) {
	e, _, _ := newTestEngine()

	ev, err := e.RecordEvent(context.Background(), RecordRequest{StaffID: 1001, Kind: entity.ClockIn})
	require.NoError(t, err)
	assert.Equal(t, tNow, ev.OccurredAt)
}

func TestEngine_RecordEvent_RejectsBackdatedEvent(t *testing.T) {
	e, events, _ := newTestEngine()
	ctx := context.Background()

	record(t, e, 1001, entity.ClockIn, t0)

	for _, back := range []time.Duration{time.Hour, 2 * time.Hour, 3 * time.Hour} {
		_, err := e.RecordEvent(ctx, RecordRequest{StaffID: 1001, Kind: entity.ClockOut, OccurredAt: t0.Add(-back)})
		assert.Equal(t, apperr.OutOfOrderEvent, apperr.KindOf(err), "clock out %s before clock in", back)
	}
	assert.Equal(t, 1, events.count())

	state, err := e.CurrentState(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, StateIn, state)

	record(t, e, 1001, entity.BreakStart, t0.Add(2*time.Hour))
	_, err = e.RecordEvent(ctx, RecordRequest{StaffID: 1001, Kind: entity.BreakEnd, OccurredAt: t0.Add(time.Hour)})
	assert.Equal(t, apperr.OutOfOrderEvent, apperr.KindOf(err))
	record(t, e, 1001, entity.ClockOut, t0.Add(3*time.Hour))

	// The stored history replays through the transition table.
	stored, err := e.History(ctx, 1001, t0.Add(-24*time.Hour))
	require.NoError(t, err)
	replayed := StateOut
	for _, ev := range stored {
		replayed, err = Next(replayed, ev.Kind)
		require.NoError(t, err, "%s at %s", ev.Kind, ev.OccurredAt)
	}
	assert.Equal(t, StateOut, replayed)
}

func TestEngine_RecordEvent_SameInstantIsInOrder(t *testing.T) {
	e, _, _ := newTestEngine()

	record(t, e, 1001, entity.ClockIn, t0)
	record(t, e, 1001, entity.BreakStart, t0)

	state, err := e.CurrentState(context.Background(), 1001)
	require.NoError(t, err)
	assert.Equal(t, StateOnBreak, state)
}

func TestEngine_RecordEvent_RejectsFutureEvent(t *testing.T) {
	e, events, _ := newTestEngine()
	ctx := context.Background()

	_, err := e.RecordEvent(ctx, RecordRequest{StaffID: 1001, Kind: entity.ClockIn, OccurredAt: tNow.Add(time.Hour)})
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
	assert.Equal(t, 0, events.count())

	record(t, e, 1001, entity.ClockIn, tNow.Add(4*time.Minute))
	record(t, e, 1001, entity.ClockOut, tNow.Add(5*time.Minute))

	state, err := e.CurrentState(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, StateOut, state)
}

func TestEngine_Override_AllowsBackdating(t *testing.T) {
	e, events, auditor := newTestEngine()

	record(t, e, 1001, entity.ClockIn, t0)

	_, err := e.Override(context.Background(), OverrideRequest{
		StaffID:    1001,
		AdminID:    9000,
		Kind:       entity.ClockOut,
		Reason:     "left early, forgot to clock out",
		OccurredAt: t0.Add(-30 * time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, events.count())
	assert.Len(t, auditor.entries, 1)
}

func TestEngine_Override_BypassesStateAndAudits(t *testing.T) {
	e, events, auditor := newTestEngine()

	record(t, e, 1001, entity.ClockIn, t0)

	res, err := e.Override(context.Background(), OverrideRequest{
		StaffID:    1001,
		AdminID:    9000,
		Kind:       entity.ClockIn,
		Reason:     "badge reader offline",
		OccurredAt: t0.Add(10 * time.Second),
	})
	require.NoError(t, err)

	assert.True(t, res.AuditRecorded)
	assert.Equal(t, entity.ClockIn, res.Event.Kind)
	require.NotNil(t, res.Event.AdminID)
	assert.Equal(t, 9000, *res.Event.AdminID)
	assert.True(t, res.Event.IsOverride())
	assert.Equal(t, 2, events.count())

	require.Len(t, auditor.entries, 1)
	entry := auditor.entries[0]
	assert.Equal(t, audit.OpOverride, entry.Operation)
	assert.Equal(t, "attendance_event", entry.TableName)
	assert.Equal(t, 9000, entry.ActorID)
	assert.Equal(t, res.Event.ID, entry.RecordID)
	assert.Equal(t, "badge reader offline", entry.Detail)
}

func TestEngine_Override_Validation(t *testing.T) {
	e, events, auditor := newTestEngine()
	ctx := context.Background()

	_, err := e.Override(ctx, OverrideRequest{StaffID: 1001, AdminID: 9000, Kind: entity.ClockOut, Reason: "   "})
	assert.Equal(t, apperr.ReasonRequired, apperr.KindOf(err))

	_, err = e.Override(ctx, OverrideRequest{StaffID: 1001, AdminID: 9000, Kind: entity.BreakStart, Reason: "x"})
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))

	_, err = e.Override(ctx, OverrideRequest{StaffID: 4242, AdminID: 9000, Kind: entity.ClockOut, Reason: "x"})
	assert.Equal(t, apperr.StaffNotFound, apperr.KindOf(err))

	assert.Equal(t, 0, events.count())
	assert.Empty(t, auditor.entries)
}

func TestEngine_Override_AuditFailureDoesNotFail(t *testing.T) {
	e, events, auditor := newTestEngine()
	auditor.fail = true

	res, err := e.Override(context.Background(), OverrideRequest{StaffID: 1001, AdminID: 9000, Kind: entity.ClockOut, Reason: "forgot to clock out"})
	require.NoError(t, err)
	assert.False(t, res.AuditRecorded)
	assert.Equal(t, 1, events.count())
}

func TestEngine_Override_AffectsDerivedState(t *testing.T) {
	e, _, _ := newTestEngine()
	ctx := context.Background()

	_, err := e.Override(ctx, OverrideRequest{StaffID: 1001, AdminID: 9000, Kind: entity.ClockIn, Reason: "no roster entry", OccurredAt: t0})
	require.NoError(t, err)

	state, err := e.CurrentState(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, StateIn, state)

	record(t, e, 1001, entity.ClockOut, t0.Add(8*time.Hour))
}

type failingEvents struct{ memEvents }

func (f *failingEvents) Append(context.Context, *entity.AttendanceEvent) error {
	return errors.New("connection reset")
}

func TestEngine_RecordEvent_StoreFailure(t *testing.T) {
	e := NewEngine(log.New(&bytes.Buffer{}, "", 0), &failingEvents{}, memStaff{1001: true}, &memAuditor{}, time.Minute)

	_, err := e.RecordEvent(context.Background(), RecordRequest{StaffID: 1001, Kind: entity.ClockIn, OccurredAt: t0})
	require.Error(t, err)
	assert.Equal(t, apperr.Kind(""), apperr.KindOf(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestEngine_RecordEvent_ConcurrentStaffIndependent(t *testing.T) {
	events := &memEvents{}
	staff := memStaff{}
	for id := 1000; id < 1050; id++ {
		staff[id] = true
	}
	e := NewEngine(log.New(&bytes.Buffer{}, "", 0), events, staff, &memAuditor{}, time.Minute)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for id := 1000; id < 1050; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := e.RecordEvent(context.Background(), RecordRequest{StaffID: id, Kind: entity.ClockIn, OccurredAt: t0})
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 50, events.count())
}

func TestEngine_History(t *testing.T) {
	e, _, _ := newTestEngine()

	record(t, e, 1001, entity.ClockIn, t0)
	record(t, e, 1001, entity.ClockOut, t0.Add(8*time.Hour))

	all, err := e.History(context.Background(), 1001, t0.Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	later, err := e.History(context.Background(), 1001, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, entity.ClockOut, later[0].Kind)
}

func TestEngine_StaffState(t *testing.T) {
	e, _, _ := newTestEngine()
	ctx := context.Background()

	state, err := e.StaffState(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, StateOut, state)

	record(t, e, 1001, entity.ClockIn, t0)
	record(t, e, 1001, entity.BreakStart, t0.Add(time.Hour))

	state, err = e.StaffState(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, StateOnBreak, state)

	_, err = e.StaffState(ctx, 4242)
	assert.Equal(t, apperr.StaffNotFound, apperr.KindOf(err))
}
