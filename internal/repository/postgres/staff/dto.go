package staff

type SignInRequest struct {
	StaffID  int    `json:"staff_id" form:"staff_id"`
	Password string `json:"password" form:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

type CreateRequest struct {
	Role     string  `json:"role"      form:"role"`
	FullName string  `json:"full_name" form:"full_name"`
	Password string  `json:"password"  form:"password"`
	Phone    *string `json:"phone"     form:"phone"`
	Email    *string `json:"email"     form:"email"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	StaffID      int    `json:"staff_id"`
	Role         string `json:"role"`
}
