package shift

import (
	"bytes"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/pkg/errors"

	"workforce/backend/foundation/web"
	"workforce/backend/internal/auth"
	"workforce/backend/internal/pkg/apperr"
	"workforce/backend/internal/repository/postgres/shift"
	"workforce/backend/internal/service/export"
	"workforce/backend/internal/service/roster"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Controller struct {
	roster Roster
	staff  StaffNames
}

func NewController(roster Roster, staff StaffNames) *Controller {
	return &Controller{roster: roster, staff: staff}
}

func (uc Controller) Create(c *web.Context) error {
	var request shift.CreateRequest
	if err := c.BindFunc(&request, "StaffID", "WorkDay", "StartTime", "EndTime"); err != nil {
		return c.RespondError(err)
	}

	req := roster.ShiftRequest{
		StaffID:   request.StaffID,
		StartTime: request.StartTime,
		EndTime:   request.EndTime,
		ActorID:   actorID(c),
	}
	if request.WorkDay != nil {
		req.WorkDay = request.WorkDay.ToTime()
	}

	response, err := uc.roster.CreateShift(c.Ctx, req)
	if err != nil {
		return c.RespondError(apperr.ToRequestError(err))
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) Update(c *web.Context) error {
	var request shift.UpdateRequest
	if err := c.BindFunc(&request); err != nil {
		return c.RespondError(err)
	}

	request.ID = c.GetParam(reflect.Int, "id").(int)
	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	req := roster.ShiftRequest{
		ID:        request.ID,
		StaffID:   request.StaffID,
		StartTime: request.StartTime,
		EndTime:   request.EndTime,
		ActorID:   actorID(c),
	}
	if request.WorkDay != nil {
		req.WorkDay = request.WorkDay.ToTime()
	}

	response, err := uc.roster.UpdateShift(c.Ctx, req)
	if err != nil {
		return c.RespondError(apperr.ToRequestError(err))
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) Delete(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)
	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	if err := uc.roster.DeleteShift(c.Ctx, id, actorID(c)); err != nil {
		return c.RespondError(apperr.ToRequestError(err))
	}

	return c.Respond(map[string]interface{}{
		"data":   "success!",
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetList(c *web.Context) error {
	filter, err := uc.filter(c)
	if err != nil {
		return c.RespondError(err)
	}

	list, err := uc.roster.ListShifts(c.Ctx, filter)
	if err != nil {
		return c.RespondError(apperr.ToRequestError(err))
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"results": list,
			"count":   len(list),
		},
		"status": true,
	}, http.StatusOK)
}

// Export streams the filtered roster as an xlsx workbook.
func (uc Controller) Export(c *web.Context) error {
	filter, err := uc.filter(c)
	if err != nil {
		return c.RespondError(err)
	}

	list, err := uc.roster.ListShifts(c.Ctx, filter)
	if err != nil {
		return c.RespondError(apperr.ToRequestError(err))
	}

	ids := make([]int, 0, len(list))
	seen := map[int]bool{}
	for _, s := range list {
		if !seen[s.StaffID] {
			seen[s.StaffID] = true
			ids = append(ids, s.StaffID)
		}
	}

	names, err := uc.staff.Names(c.Ctx, ids)
	if err != nil {
		return c.RespondError(err)
	}

	var buf bytes.Buffer
	if err := export.Roster(&buf, list, names); err != nil {
		return c.RespondError(err)
	}

	fileName := fmt.Sprintf("roster_%s_%s.xlsx", filter.From.Format("20060102"), filter.To.Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	c.GetValues().StatusCode = http.StatusOK

	return nil
}

// filter reads staff_id, from and to. Without dates the current week,
// Monday to Sunday, is used.
func (uc Controller) filter(c *web.Context) (roster.Filter, error) {
	var query shift.Filter
	if staffID, ok := c.GetQueryFunc(reflect.Int, "staff_id").(*int); ok {
		query.StaffID = staffID
	}
	query.From = c.GetDateQuery("from")
	query.To = c.GetDateQuery("to")
	if err := c.ValidQuery(); err != nil {
		return roster.Filter{}, err
	}

	filter := roster.Filter{StaffID: query.StaffID}
	if query.From != nil {
		filter.From = query.From.ToTime()
	} else {
		filter.From = weekStart(time.Now().UTC())
	}
	if query.To != nil {
		filter.To = query.To.ToTime()
	} else {
		filter.To = filter.From.AddDate(0, 0, 6)
	}

	if filter.To.Before(filter.From) {
		return roster.Filter{}, web.NewRequestError(errors.New("to is before from"), http.StatusBadRequest)
	}

	return filter, nil
}

func actorID(c *web.Context) int {
	claims, _ := auth.ClaimsFrom(c.Ctx)
	return claims.UserId
}

func weekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
