package entity

import (
	"time"

	"github.com/uptrace/bun"
)

type Shift struct {
	bun.BaseModel `bun:"table:shift"`

	BasicEntity
	StaffID       int       `json:"staff_id"       bun:"staff_id"`
	WorkDay       time.Time `json:"work_day"       bun:"work_day,type:date"`
	StartTime     string    `json:"start_time"     bun:"start_time"`
	EndTime       string    `json:"end_time"       bun:"end_time"`
	DurationHours float64   `json:"duration_hours" bun:"duration_hours"`
}
