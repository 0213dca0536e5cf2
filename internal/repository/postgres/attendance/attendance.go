package attendance

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"workforce/backend/internal/entity"
	"workforce/backend/internal/pkg/repository/postgresql"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

var clockKinds = []entity.EventKind{entity.ClockIn, entity.ClockOut, entity.BreakStart, entity.BreakEnd}

func (r Repository) RecentEvents(ctx context.Context, staffID int, since time.Time) ([]entity.AttendanceEvent, error) {
	var list []entity.AttendanceEvent

	err := r.NewSelect().
		Model(&list).
		Where("staff_id = ?", staffID).
		Where("occurred_at >= ?", since.UTC()).
		Order("occurred_at ASC", "id ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(err, "selecting attendance events")
	}

	return list, nil
}

func (r Repository) LatestClockEvent(ctx context.Context, staffID int) (*entity.AttendanceEvent, error) {
	var detail entity.AttendanceEvent

	err := r.NewSelect().
		Model(&detail).
		Where("staff_id = ?", staffID).
		Where("kind IN (?)", bun.In(clockKinds)).
		Order("occurred_at DESC", "id DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "selecting latest clock event")
	}

	return &detail, nil
}

func (r Repository) Append(ctx context.Context, event *entity.AttendanceEvent) error {
	event.CreatedAt = time.Now().UTC()

	_, err := r.NewInsert().Model(event).Returning("id").Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "creating attendance event")
	}

	return nil
}
