// Package audit dispatches audit entries after the primary write has
// committed. Sink failures are logged and never returned to the caller.
package audit

import (
	"context"
	"log"
	"time"

	"workforce/backend/internal/entity"
)

// Operations recorded by the services.
const (
	OpOverride = "OVERRIDE"
	OpCreate   = "CREATE"
	OpUpdate   = "UPDATE"
	OpDelete   = "DELETE"
)

// Sink persists audit entries.
type Sink interface {
	Record(ctx context.Context, entry *entity.AuditLog) error
}

type Dispatcher struct {
	sink    Sink
	log     *log.Logger
	timeout time.Duration
}

func NewDispatcher(log *log.Logger, sink Sink) *Dispatcher {
	return &Dispatcher{sink: sink, log: log, timeout: 3 * time.Second}
}

// Record writes one entry and reports whether it was stored. It detaches from
// the caller's cancellation so an entry for a committed write is not lost
// when the request finishes first.
func (d *Dispatcher) Record(ctx context.Context, entry entity.AuditLog) bool {
	if d == nil || d.sink == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	if err := d.sink.Record(ctx, &entry); err != nil {
		d.log.Printf("audit : %s %s record[%d] actor[%d] : %v", entry.Operation, entry.TableName, entry.RecordID, entry.ActorID, err)
		return false
	}

	return true
}
