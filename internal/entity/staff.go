package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Staff is keyed by its allocated identifier. Soft-deleted rows keep the
// identifier reserved.
type Staff struct {
	bun.BaseModel `bun:"table:staff"`

	ID        int        `json:"id"         bun:"id,pk"`
	Role      string     `json:"role"       bun:"role"`
	FullName  string     `json:"full_name"  bun:"full_name"`
	Password  *string    `json:"-"          bun:"password"`
	Phone     *string    `json:"phone"      bun:"phone"`
	Email     *string    `json:"email"      bun:"email"`
	Active    bool       `json:"active"     bun:"active"`
	CreatedAt time.Time  `json:"created_at" bun:"created_at,nullzero,default:current_timestamp"`
	CreatedBy *int       `json:"-"          bun:"created_by"`
	DeletedAt *time.Time `json:"-"          bun:"deleted_at"`
	DeletedBy *int       `json:"-"          bun:"deleted_by"`
}
