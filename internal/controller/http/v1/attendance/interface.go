package attendance

import (
	"context"
	"time"

	"workforce/backend/internal/entity"
	"workforce/backend/internal/service/clock"
)

type Engine interface {
	RecordEvent(ctx context.Context, req clock.RecordRequest) (entity.AttendanceEvent, error)
	Override(ctx context.Context, req clock.OverrideRequest) (clock.OverrideResult, error)
	StaffState(ctx context.Context, staffID int) (clock.State, error)
	History(ctx context.Context, staffID int, since time.Time) ([]entity.AttendanceEvent, error)
}
