package rest

import (
	"time"

	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/dmitrijs2005/otpauth/internal/server/services"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required"`
	FullName string `json:"full_name" validate:"max=255"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type resetPasswordRequest struct {
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginSuccessResponse struct {
	Message string `json:"message"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type accessResponse struct {
	Access string `json:"access"`
}

type resetTokenResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"reset_token"`
}

type imageResponse struct {
	Message      string `json:"message"`
	ProfileImage string `json:"profile_image"`
}

type profileResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Phone        *string   `json:"phone"`
	Role         string    `json:"role"`
	Is2FAEnabled bool      `json:"is_2fa_enabled"`
	ProfileImage *string   `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newProfileResponse(p *services.Profile) profileResponse {
	return profileResponse{
		ID:           p.User.ID,
		Email:        p.User.Email,
		FullName:     p.User.FullName,
		Phone:        p.User.Phone,
		Role:         p.User.Role,
		Is2FAEnabled: p.User.Is2FAEnabled,
		ProfileImage: p.ImageURL,
		CreatedAt:    p.User.CreatedAt,
		UpdatedAt:    p.User.UpdatedAt,
	}
}

type loginActivityResponse struct {
	ID        string    `json:"id"`
	IPAddress string    `json:"ip_address"`
	City      *string   `json:"city"`
	Region    *string   `json:"region"`
	Country   *string   `json:"country"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Device    string    `json:"device"`
	CreatedAt time.Time `json:"created_at"`
}

func newLoginActivityResponses(items []*models.LoginActivity) []loginActivityResponse {
	out := make([]loginActivityResponse, 0, len(items))
	for _, a := range items {
		out = append(out, loginActivityResponse{
			ID:        a.ID,
			IPAddress: a.IPAddress,
			City:      a.City,
			Region:    a.Region,
			Country:   a.Country,
			Latitude:  a.Latitude,
			Longitude: a.Longitude,
			Device:    a.Device,
			CreatedAt: a.CreatedAt,
		})
	}
	return out
}

// adminUserResponse mirrors the admin listing, which exposes pending codes.
type adminUserResponse struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	IsStaff      bool       `json:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser"`
	Is2FAEnabled bool       `json:"is_2fa_enabled"`
	OTP          *string    `json:"otp"`
	OTPCreatedAt *time.Time `json:"otp_created_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

func newAdminUserResponses(users []*models.User) []adminUserResponse {
	out := make([]adminUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserResponse{
			ID:           u.ID,
			Email:        u.Email,
			FullName:     u.FullName,
			Role:         u.Role,
			IsActive:     u.IsActive,
			IsStaff:      u.IsStaff,
			IsSuperuser:  u.IsSuperuser,
			Is2FAEnabled: u.Is2FAEnabled,
			OTP:          u.OTP,
			OTPCreatedAt: u.OTPCreatedAt,
			CreatedAt:    u.CreatedAt,
		})
	}
	return out
}
