package staff

import (
	"bytes"
	"fmt"
	"net/http"
	"reflect"

	"workforce/backend/foundation/web"
	"workforce/backend/internal/auth"
	"workforce/backend/internal/entity"
	"workforce/backend/internal/pkg/apperr"
	"workforce/backend/internal/repository/postgres/staff"
	"workforce/backend/internal/service/badge"
	"workforce/backend/internal/service/staffid"
)

type Controller struct {
	staff Staff
}

func NewController(staff Staff) *Controller {
	return &Controller{staff: staff}
}

func (uc Controller) Create(c *web.Context) error {
	var request staff.CreateRequest
	if err := c.BindFunc(&request, "Role", "FullName", "Password"); err != nil {
		return c.RespondError(err)
	}

	claims, _ := auth.ClaimsFrom(c.Ctx)

	response, err := uc.staff.CreateStaff(c.Ctx, staffid.CreateRequest{
		Role:     request.Role,
		FullName: request.FullName,
		Password: request.Password,
		Phone:    request.Phone,
		Email:    request.Email,
		ActorID:  claims.UserId,
	})
	if err != nil {
		return c.RespondError(apperr.ToRequestError(err))
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetDetailById(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)
	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.staff.GetStaff(c.Ctx, id)
	if err != nil {
		return c.RespondError(apperr.ToRequestError(err))
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

// GetBadge returns the staff QR code as PNG, or a printable card with
// ?format=pdf.
func (uc Controller) GetBadge(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)
	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	detail, err := uc.staff.GetStaff(c.Ctx, id)
	if err != nil {
		return c.RespondError(apperr.ToRequestError(err))
	}

	if c.Query("format") == "pdf" {
		var buf bytes.Buffer
		if err := badge.PDF(&buf, []entity.Staff{detail}); err != nil {
			return c.RespondError(apperr.ToRequestError(err))
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"badge_%d.pdf\"", id))
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
		c.GetValues().StatusCode = http.StatusOK
		return nil
	}

	png, err := badge.QRCode(id, 256)
	if err != nil {
		return c.RespondError(err)
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"badge_%d.png\"", id))
	c.Data(http.StatusOK, "image/png", png)
	c.GetValues().StatusCode = http.StatusOK
	return nil
}
