package attendance

import (
	"time"

	"github.com/Azure/go-autorest/autorest/date"

	"workforce/backend/internal/entity"
	"workforce/backend/internal/service/clock"
)

type Filter struct {
	StaffID int
	From    *date.Date
	To      *date.Date
}

type RecordRequest struct {
	StaffID    int        `json:"staff_id"    form:"staff_id"`
	Badge      string     `json:"badge"       form:"badge"`
	Kind       string     `json:"kind"        form:"kind"`
	OccurredAt *time.Time `json:"occurred_at" form:"occurred_at"`
	Reason     *string    `json:"reason"      form:"reason"`
	DeviceID   *string    `json:"device_id"   form:"device_id"`
}

type OverrideRequest struct {
	StaffID    int        `json:"staff_id"    form:"staff_id"`
	Kind       string     `json:"kind"        form:"kind"`
	Reason     string     `json:"reason"      form:"reason"`
	OccurredAt *time.Time `json:"occurred_at" form:"occurred_at"`
}

type StateResponse struct {
	StaffID int    `json:"staff_id"`
	State   string `json:"state"`
}

type HistoryResponse struct {
	Events  []entity.AttendanceEvent `json:"events"`
	Summary []clock.DaySummary       `json:"summary"`
}
