package attendance

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/pkg/errors"

	"workforce/backend/foundation/web"
	"workforce/backend/internal/auth"
	"workforce/backend/internal/entity"
	"workforce/backend/internal/pkg/apperr"
	"workforce/backend/internal/repository/postgres/attendance"
	"workforce/backend/internal/service/badge"
	"workforce/backend/internal/service/clock"
)

const defaultHistoryDays = 7

type Controller struct {
	engine Engine
}

func NewController(engine Engine) *Controller {
	return &Controller{engine: engine}
}

// RecordEvent accepts a clock event for the caller, for a scanned badge or,
// for managers and admins, for any staff id.
func (uc Controller) RecordEvent(c *web.Context) error {
	var request attendance.RecordRequest
	if err := c.BindFunc(&request, "Kind"); err != nil {
		return c.RespondError(err)
	}

	claims, err := claimsOf(c)
	if err != nil {
		return c.RespondError(err)
	}

	staffID := request.StaffID
	if request.Badge != "" {
		if staffID, err = badge.ParsePayload(request.Badge); err != nil {
			return c.RespondError(apperr.ToRequestError(err))
		}
	}
	if staffID == 0 {
		staffID = claims.UserId
	}
	if err := canActFor(claims, staffID); err != nil {
		return c.RespondError(err)
	}

	req := clock.RecordRequest{
		StaffID:  staffID,
		Kind:     entity.EventKind(strings.ToUpper(request.Kind)),
		Reason:   request.Reason,
		DeviceID: request.DeviceID,
	}
	if request.OccurredAt != nil {
		req.OccurredAt = *request.OccurredAt
	}

	event, err := uc.engine.RecordEvent(c.Ctx, req)
	if err != nil {
		return c.RespondError(apperr.ToRequestError(err))
	}

	return c.Respond(map[string]interface{}{
		"data":   event,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) Override(c *web.Context) error {
	var request attendance.OverrideRequest
	if err := c.BindFunc(&request, "StaffID", "Kind"); err != nil {
		return c.RespondError(err)
	}

	claims, err := claimsOf(c)
	if err != nil {
		return c.RespondError(err)
	}

	req := clock.OverrideRequest{
		StaffID: request.StaffID,
		AdminID: claims.UserId,
		Kind:    entity.EventKind(strings.ToUpper(request.Kind)),
		Reason:  request.Reason,
	}
	if request.OccurredAt != nil {
		req.OccurredAt = *request.OccurredAt
	}

	result, err := uc.engine.Override(c.Ctx, req)
	if err != nil {
		return c.RespondError(apperr.ToRequestError(err))
	}

	return c.Respond(map[string]interface{}{
		"data":   result,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetState(c *web.Context) error {
	staffID := c.GetParam(reflect.Int, "staff_id").(int)
	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	claims, err := claimsOf(c)
	if err != nil {
		return c.RespondError(err)
	}
	if err := canActFor(claims, staffID); err != nil {
		return c.RespondError(err)
	}

	state, err := uc.engine.StaffState(c.Ctx, staffID)
	if err != nil {
		return c.RespondError(apperr.ToRequestError(err))
	}

	return c.Respond(map[string]interface{}{
		"data":   attendance.StateResponse{StaffID: staffID, State: string(state)},
		"status": true,
	}, http.StatusOK)
}

// GetHistory lists events in [from, to] (dates, UTC, inclusive) with per-day
// totals. Without from the last seven days are returned.
func (uc Controller) GetHistory(c *web.Context) error {
	filter := attendance.Filter{
		StaffID: c.GetParam(reflect.Int, "staff_id").(int),
	}
	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	filter.From = c.GetDateQuery("from")
	filter.To = c.GetDateQuery("to")
	if err := c.ValidQuery(); err != nil {
		return c.RespondError(err)
	}

	claims, err := claimsOf(c)
	if err != nil {
		return c.RespondError(err)
	}
	if err := canActFor(claims, filter.StaffID); err != nil {
		return c.RespondError(err)
	}

	to := startOfDay(time.Now().UTC())
	if filter.To != nil {
		to = filter.To.ToTime()
	}
	from := to.AddDate(0, 0, -(defaultHistoryDays - 1))
	if filter.From != nil {
		from = filter.From.ToTime()
	}
	if to.Before(from) {
		return c.RespondError(web.NewRequestError(errors.New("to is before from"), http.StatusBadRequest))
	}
	until := to.AddDate(0, 0, 1)

	events, err := uc.engine.History(c.Ctx, filter.StaffID, from)
	if err != nil {
		return c.RespondError(apperr.ToRequestError(err))
	}

	inRange := make([]entity.AttendanceEvent, 0, len(events))
	for _, e := range events {
		if e.OccurredAt.Before(until) {
			inRange = append(inRange, e)
		}
	}

	return c.Respond(map[string]interface{}{
		"data": attendance.HistoryResponse{
			Events:  inRange,
			Summary: clock.Summarize(inRange),
		},
		"status": true,
	}, http.StatusOK)
}

func claimsOf(c *web.Context) (auth.Claims, error) {
	claims, ok := auth.ClaimsFrom(c.Ctx)
	if !ok {
		return auth.Claims{}, web.NewRequestError(errors.New("claims missing from context"), http.StatusUnauthorized)
	}
	return claims, nil
}

// canActFor lets staff touch only their own records.
func canActFor(claims auth.Claims, staffID int) error {
	if claims.Authorized(auth.RoleAdmin, auth.RoleManager) || claims.UserId == staffID {
		return nil
	}
	return web.NewRequestError(errors.New("attempted action is not allowed"), http.StatusForbidden)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
