// Package blacklist keeps revoked refresh tokens, identified by jti, until
// they expire naturally. Two backends are provided: PostgreSQL and Redis.
package blacklist

import (
	"context"

	"github.com/dmitrijs2005/otpauth/internal/server/models"
)

type Store interface {
	// Add revokes token.JTI until token.ExpiresAt. Revoking the same jti
	// twice yields common.ErrorAlreadyExists.
	Add(ctx context.Context, token *models.BlacklistedToken) error
	Contains(ctx context.Context, jti string) (bool, error)
}
