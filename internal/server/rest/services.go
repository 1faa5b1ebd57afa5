package rest

import (
	"context"
	"io"

	"github.com/dmitrijs2005/otpauth/internal/server/auth"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/dmitrijs2005/otpauth/internal/server/services"
)

// AuthService is the part of services.AuthService the handlers call.
type AuthService interface {
	Register(ctx context.Context, p services.RegisterParams) (*models.User, error)
	Login(ctx context.Context, email, password string) error
	VerifyOTP(ctx context.Context, p services.VerifyOTPParams) (*auth.TokenPair, error)
	Logout(ctx context.Context, userID, refreshToken string) error
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
	LoginHistory(ctx context.Context, userID string) ([]*models.LoginActivity, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	ListUsers(ctx context.Context) ([]*models.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyPasswordResetOTP(ctx context.Context, email, code string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}

type ProfileService interface {
	Get(ctx context.Context, userID string) (*services.Profile, error)
	Update(ctx context.Context, userID string, upd services.ProfileUpdate) (*services.Profile, error)
	UploadImage(ctx context.Context, userID string, body io.ReadSeeker, size int64, contentType string) (string, error)
	DeleteImage(ctx context.Context, userID string) error
}
