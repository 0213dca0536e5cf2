package staff

import (
	"context"

	"workforce/backend/internal/entity"
	"workforce/backend/internal/service/staffid"
)

type Staff interface {
	CreateStaff(ctx context.Context, req staffid.CreateRequest) (entity.Staff, error)
	GetStaff(ctx context.Context, id int) (entity.Staff, error)
}
