package otps

import (
	"context"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/server/models"
)

// Repository persists forgot-password codes.
type Repository interface {
	Create(ctx context.Context, otp *models.PasswordResetOTP) (*models.PasswordResetOTP, error)
	// FindLatestActive returns the newest unused code for email that has not
	// expired at now, or common.ErrorNotFound.
	FindLatestActive(ctx context.Context, email string, now time.Time) (*models.PasswordResetOTP, error)
	GetByID(ctx context.Context, id string) (*models.PasswordResetOTP, error)
	// MarkUsed flips used to true; a code that is already used yields
	// common.ErrorNotFound.
	MarkUsed(ctx context.Context, id string) error
}
