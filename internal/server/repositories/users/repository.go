package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/server/models"
)

// Repository persists identities. Lookups of missing rows and conditional
// updates that match nothing return common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)

	SetOTP(ctx context.Context, id string, code string, issuedAt time.Time) error
	// ClearOTP removes the pending code only while it still equals code.
	ClearOTP(ctx context.Context, id string, code string) error

	UpdateProfile(ctx context.Context, id string, fullName string, phone *string) (*models.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	SetProfileImage(ctx context.Context, id string, key *string) error
}
