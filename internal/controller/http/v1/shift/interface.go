package shift

import (
	"context"

	"workforce/backend/internal/entity"
	"workforce/backend/internal/service/roster"
)

type Roster interface {
	CreateShift(ctx context.Context, req roster.ShiftRequest) (entity.Shift, error)
	UpdateShift(ctx context.Context, req roster.ShiftRequest) (entity.Shift, error)
	DeleteShift(ctx context.Context, id int, actorID int) error
	ListShifts(ctx context.Context, filter roster.Filter) ([]entity.Shift, error)
}

type StaffNames interface {
	Names(ctx context.Context, ids []int) (map[int]string, error)
}
