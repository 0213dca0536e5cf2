package audit

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"workforce/backend/internal/entity"
)

type sinkFunc func(ctx context.Context, entry *entity.AuditLog) error

func (f sinkFunc) Record(ctx context.Context, entry *entity.AuditLog) error {
	return f(ctx, entry)
}

func TestDispatcher_Record_Success(t *testing.T) {
	var got []entity.AuditLog
	d := NewDispatcher(log.New(&bytes.Buffer{}, "", 0), sinkFunc(func(_ context.Context, e *entity.AuditLog) error {
		got = append(got, *e)
		return nil
	}))

	ok := d.Record(context.Background(), entity.AuditLog{TableName: "shift", Operation: OpCreate, RecordID: 7, ActorID: 9000})
	assert.True(t, ok)
	assert.Len(t, got, 1)
	assert.Equal(t, OpCreate, got[0].Operation)
}

func TestDispatcher_Record_FailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(log.New(&buf, "", 0), sinkFunc(func(context.Context, *entity.AuditLog) error {
		return errors.New("audit_log unavailable")
	}))

	ok := d.Record(context.Background(), entity.AuditLog{TableName: "attendance_event", Operation: OpOverride, RecordID: 1, ActorID: 9000})
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "audit_log unavailable")
}

func TestDispatcher_Record_IgnoresCallerCancellation(t *testing.T) {
	d := NewDispatcher(log.New(&bytes.Buffer{}, "", 0), sinkFunc(func(ctx context.Context, _ *entity.AuditLog) error {
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, d.Record(ctx, entity.AuditLog{Operation: OpOverride}))
}

func TestDispatcher_NilSink(t *testing.T) {
	var d *Dispatcher
	assert.False(t, d.Record(context.Background(), entity.AuditLog{}))
}
