package entity

import (
	"time"

	"github.com/uptrace/bun"
)

type AuditLog struct {
	bun.BaseModel `bun:"table:audit_log"`

	ID        int       `json:"id"         bun:"id,pk,autoincrement"`
	TableName string    `json:"table_name" bun:"table_name"`
	Operation string    `json:"operation"  bun:"operation"`
	RecordID  int       `json:"record_id"  bun:"record_id"`
	ActorID   int       `json:"actor_id"   bun:"actor_id"`
	Detail    string    `json:"detail"     bun:"detail"`
	CreatedAt time.Time `json:"created_at" bun:"created_at,nullzero,default:current_timestamp"`
}
