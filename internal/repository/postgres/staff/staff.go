package staff

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"workforce/backend/internal/entity"
	"workforce/backend/internal/pkg/apperr"
	"workforce/backend/internal/pkg/repository/postgresql"
	"workforce/backend/internal/service/staffid"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

// Exists reports whether a staff row exists and is active. Soft-deleted
// rows count as missing.
func (r Repository) Exists(ctx context.Context, staffID int) (bool, bool, error) {
	var active bool

	err := r.QueryRowContext(ctx, `
		SELECT active
		FROM staff
		WHERE id = ? AND deleted_at IS NULL
	`, staffID).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, errors.Wrap(err, "selecting staff")
	}

	return true, active, nil
}

// MaxIdentifierInRange includes soft-deleted rows so their identifiers are
// never handed out again.
func (r Repository) MaxIdentifierInRange(ctx context.Context, min, max int) (int, bool, error) {
	var id sql.NullInt64

	err := r.QueryRowContext(ctx, `
		SELECT max(id)
		FROM staff
		WHERE id BETWEEN ? AND ?
	`, min, max).Scan(&id)
	if err != nil {
		return 0, false, errors.Wrap(err, "selecting max staff id")
	}

	if !id.Valid {
		return 0, false, nil
	}
	return int(id.Int64), true, nil
}

func (r Repository) TryReserve(ctx context.Context, staff *entity.Staff) error {
	staff.CreatedAt = time.Now().UTC()

	_, err := r.NewInsert().Model(staff).Exec(ctx)
	if postgresql.IsUniqueViolation(err) {
		return staffid.ErrIdentifierTaken
	}
	if err != nil {
		return errors.Wrap(err, "creating staff")
	}

	return nil
}

func (r Repository) GetByID(ctx context.Context, id int) (entity.Staff, error) {
	var detail entity.Staff

	err := r.NewSelect().Model(&detail).Where("id = ? AND deleted_at IS NULL", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Staff{}, apperr.New(apperr.StaffNotFound, "staff %d not found", id)
	}
	if err != nil {
		return entity.Staff{}, errors.Wrap(err, "selecting staff detail")
	}

	return detail, nil
}

// Names returns full names keyed by staff id for the given ids.
func (r Repository) Names(ctx context.Context, ids []int) (map[int]string, error) {
	names := make(map[int]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := r.QueryContext(ctx, `SELECT id, full_name FROM staff WHERE id IN (?)`, bun.In(ids))
	if err != nil {
		return nil, errors.Wrap(err, "selecting staff names")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, errors.Wrap(err, "scanning staff names")
		}
		names[id] = name
	}

	return names, rows.Err()
}
