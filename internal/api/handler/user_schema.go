package handler

import "strings"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// --- Request / Response types ---

type createUserRequest struct {
	Username    string `json:"username"    validate:"required,min=3,max=50"`
	Password    string `json:"password"    validate:"required,min=6"`
	Role        string `json:"role"        validate:"omitempty,role"`
	Name        string `json:"name"        validate:"omitempty,max=100"`
	Email       string `json:"email"       validate:"omitempty,email"`
	Address     string `json:"address"     validate:"omitempty,max=200"`
	Bio         string `json:"bio"         validate:"omitempty,max=500"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,phone"`
}

// updateUserRequest distinguishes absent fields (nil) from present ones.
type updateUserRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=2,max=100"`
	Email       *string `json:"email"       validate:"omitempty,email"`
	Bio         *string `json:"bio"         validate:"omitempty,max=500"`
	Address     *string `json:"address"     validate:"omitempty,max=200"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=20,phone"`
	Avatar      *string `json:"avatar"      validate:"omitempty,url"`
	Role        *string `json:"role"        validate:"omitempty,role"`
	Status      *string `json:"status"      validate:"omitempty,max=30"`
}

// normalize trims the free-text fields so validation sees the stored value.
// Passwords are taken verbatim.
func (r *createUserRequest) normalize() {
	for _, f := range []*string{&r.Username, &r.Role, &r.Name, &r.Email, &r.Address, &r.Bio, &r.PhoneNumber} {
		*f = strings.TrimSpace(*f)
	}
}

// normalize trims every present field; a blank name becomes "" and then
// fails its length rule instead of silently clearing the stored name.
func (r *updateUserRequest) normalize() {
	for _, f := range []*string{r.Name, r.Email, r.Bio, r.Address, r.PhoneNumber, r.Avatar, r.Role, r.Status} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

type userResponse struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	Name        string  `json:"name,omitempty"`
	Email       string  `json:"email,omitempty"`
	Address     string  `json:"address,omitempty"`
	PhoneNumber string  `json:"phoneNumber,omitempty"`
	Bio         string  `json:"bio,omitempty"`
	Role        string  `json:"role"`
	Status      string  `json:"status,omitempty"`
	LastLogin   *string `json:"lastLogin,omitempty" example:"2025-03-14"`
	Avatar      string  `json:"avatar,omitempty"`
}

type userStatsResponse struct {
	TotalUsers    int64 `json:"totalUsers"`
	ActiveUsers   int64 `json:"activeUsers"`
	AdherantUsers int64 `json:"adherantUsers"`
	AdminUsers    int64 `json:"adminUsers"`
}
