package loginactivities

import (
	"context"

	"github.com/dmitrijs2005/otpauth/internal/server/models"
)

// Repository is the append-only login history.
type Repository interface {
	Create(ctx context.Context, a *models.LoginActivity) (*models.LoginActivity, error)
	// ListByUser returns the user's activities, newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.LoginActivity, error)
}
