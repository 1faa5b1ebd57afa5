package services

import (
	"context"
	"io"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/server/auth"
)

// TokenAuthority signs, validates and revokes the JWTs handed to clients.
// *auth.TokenAuthority is the production implementation.
type TokenAuthority interface {
	IssuePair(userID string) (*auth.TokenPair, error)
	IssueAccess(userID string) (string, error)
	ParseAccess(token string) (*auth.Claims, error)
	ParseRefresh(ctx context.Context, token string) (*auth.Claims, error)
	Revoke(ctx context.Context, claims *auth.Claims) error
	IssuePasswordResetProof(email, otpID string, expiresAt time.Time) (string, error)
	ParsePasswordResetProof(token string) (*auth.Claims, error)
}

// ImageStorage keeps profile image objects. *storage.S3Storage is the
// production implementation.
type ImageStorage interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
}
