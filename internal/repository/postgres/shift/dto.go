package shift

import (
	"github.com/Azure/go-autorest/autorest/date"
)

type Filter struct {
	StaffID *int
	From    *date.Date
	To      *date.Date
}

type CreateRequest struct {
	StaffID   int        `json:"staff_id"   form:"staff_id"`
	WorkDay   *date.Date `json:"work_day"   form:"work_day"`
	StartTime string     `json:"start_time" form:"start_time"`
	EndTime   string     `json:"end_time"   form:"end_time"`
}

type UpdateRequest struct {
	ID        int        `json:"-"          form:"-"`
	StaffID   int        `json:"staff_id"   form:"staff_id"`
	WorkDay   *date.Date `json:"work_day"   form:"work_day"`
	StartTime string     `json:"start_time" form:"start_time"`
	EndTime   string     `json:"end_time"   form:"end_time"`
}
