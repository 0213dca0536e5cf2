package audit

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"workforce/backend/internal/entity"
	"workforce/backend/internal/pkg/repository/postgresql"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

// Record inserts one audit entry outside any other transaction.
func (r Repository) Record(ctx context.Context, entry *entity.AuditLog) error {
	entry.CreatedAt = time.Now().UTC()

	if _, err := r.NewInsert().Model(entry).Returning("id").Exec(ctx); err != nil {
		return errors.Wrap(err, "creating audit entry")
	}

	return nil
}
