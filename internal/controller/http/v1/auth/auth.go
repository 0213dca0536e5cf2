package auth

import (
	"net/http"

	"github.com/pkg/errors"

	"workforce/backend/foundation/web"
	"workforce/backend/internal/repository/postgres/staff"
)

type Controller struct {
	staff  Staff
	tokens Tokens
}

func NewController(staff Staff, tokens Tokens) *Controller {
	return &Controller{staff: staff, tokens: tokens}
}

func (uc Controller) SignIn(c *web.Context) error {
	var data staff.SignInRequest

	err := c.BindFunc(&data, "StaffID", "Password")
	if err != nil {
		return c.RespondError(err)
	}

	detail, err := uc.staff.Authenticate(c.Ctx, data.StaffID, data.Password)
	if err != nil {
		return c.RespondError(web.NewRequestError(errors.New("incorrect staff id or password"), http.StatusUnauthorized))
	}

	accessToken, refreshToken, err := uc.tokens.GenerateToken(detail.ID, detail.Role)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status": true,
		"data": staff.TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			StaffID:      detail.ID,
			Role:         detail.Role,
		},
	}, http.StatusOK)
}

// RefreshToken issues a new token pair for a still active staff member.
func (uc Controller) RefreshToken(c *web.Context) error {
	var data staff.RefreshTokenRequest

	err := c.BindFunc(&data, "RefreshToken")
	if err != nil {
		return c.RespondError(err)
	}

	claims, err := uc.tokens.ValidateRefreshToken(data.RefreshToken)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusUnauthorized))
	}

	detail, err := uc.staff.GetStaff(c.Ctx, claims.UserId)
	if err != nil || !detail.Active {
		return c.RespondError(web.NewRequestError(errors.New("staff is no longer active"), http.StatusUnauthorized))
	}

	accessToken, refreshToken, err := uc.tokens.GenerateToken(claims.UserId, claims.Role)
	if err != nil {
		return c.RespondError(web.NewRequestError(errors.Wrap(err, "generating new tokens"), http.StatusInternalServerError))
	}

	return c.Respond(map[string]interface{}{
		"status": true,
		"data": staff.TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			StaffID:      claims.UserId,
			Role:         claims.Role,
		},
	}, http.StatusOK)
}
