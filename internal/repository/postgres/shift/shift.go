package shift

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"workforce/backend/internal/entity"
	"workforce/backend/internal/pkg/apperr"
	"workforce/backend/internal/pkg/repository/postgresql"
	"workforce/backend/internal/service/roster"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

func (r Repository) ShiftsFor(ctx context.Context, staffID int, day time.Time, excludeID int) ([]entity.Shift, error) {
	var list []entity.Shift

	q := r.NewSelect().
		Model(&list).
		Where("staff_id = ?", staffID).
		Where("work_day = ?", day.Format("2006-01-02")).
		Where("deleted_at IS NULL")
	if excludeID != 0 {
		q.Where("id != ?", excludeID)
	}

	if err := q.Order("start_time ASC").Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(err, "selecting shifts")
	}

	return list, nil
}

func (r Repository) GetByID(ctx context.Context, id int) (entity.Shift, error) {
	var detail entity.Shift

	err := r.NewSelect().Model(&detail).Where("id = ? AND deleted_at IS NULL", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Shift{}, apperr.New(apperr.NotFound, "shift %d not found", id)
	}
	if err != nil {
		return entity.Shift{}, errors.Wrap(err, "selecting shift detail")
	}

	return detail, nil
}

func (r Repository) Upsert(ctx context.Context, shift *entity.Shift) error {
	if shift.ID == 0 {
		shift.CreatedAt = time.Now().UTC()
		if _, err := r.NewInsert().Model(shift).Returning("id").Exec(ctx); err != nil {
			return errors.Wrap(err, "creating shift")
		}
		return nil
	}

	res, err := r.NewUpdate().
		Table("shift").
		Set("staff_id = ?", shift.StaffID).
		Set("work_day = ?", shift.WorkDay.Format("2006-01-02")).
		Set("start_time = ?", shift.StartTime).
		Set("end_time = ?", shift.EndTime).
		Set("duration_hours = ?", shift.DurationHours).
		Set("updated_at = ?", shift.UpdatedAt).
		Set("updated_by = ?", shift.UpdatedBy).
		Where("id = ? AND deleted_at IS NULL", shift.ID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "updating shift")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.New(apperr.NotFound, "shift %d not found", shift.ID)
	}

	return nil
}

func (r Repository) Delete(ctx context.Context, id int, actorID int) error {
	err := r.DeleteRow(ctx, "shift", id, actorID)
	if errors.Is(err, postgresql.ErrNoRows) {
		return apperr.New(apperr.NotFound, "shift %d not found", id)
	}
	return err
}

func (r Repository) List(ctx context.Context, filter roster.Filter) ([]entity.Shift, error) {
	var list []entity.Shift

	q := r.NewSelect().
		Model(&list).
		Where("deleted_at IS NULL").
		Where("work_day BETWEEN ? AND ?", filter.From.Format("2006-01-02"), filter.To.Format("2006-01-02"))
	if filter.StaffID != nil {
		q.Where("staff_id = ?", *filter.StaffID)
	}

	if err := q.Order("work_day ASC", "staff_id ASC", "start_time ASC").Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(err, "selecting shift list")
	}

	return list, nil
}
