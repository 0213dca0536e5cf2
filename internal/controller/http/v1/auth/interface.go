package auth

import (
	"context"

	"workforce/backend/internal/auth"
	"workforce/backend/internal/entity"
)

type Staff interface {
	Authenticate(ctx context.Context, id int, password string) (entity.Staff, error)
	GetStaff(ctx context.Context, id int) (entity.Staff, error)
}

type Tokens interface {
	GenerateToken(userID int, role string) (string, string, error)
	ValidateRefreshToken(tokenStr string) (auth.Claims, error)
}
