// Package auth issues and validates the HS256 JWTs used by the server:
// access/refresh pairs for sessions and short-lived password-reset proofs.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/blacklist"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Values of the token_type claim.
const (
	TokenTypeAccess        = "access"
	TokenTypeRefresh       = "refresh"
	TokenTypePasswordReset = "password_reset"
)

// Claims extends the registered claims with the owning user and the kind
// of token. Refresh tokens carry a unique ID (jti) used for revocation.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id,omitempty"`
	TokenType string `json:"token_type"`
}

type TokenPair struct {
	Access  string
	Refresh string
}

// TokenAuthority signs and verifies tokens with a single HMAC secret and
// consults a blacklist.Store for revoked refresh tokens.
type TokenAuthority struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	blacklist  blacklist.Store
	now        func() time.Time
}

func NewTokenAuthority(secret []byte, accessTTL, refreshTTL time.Duration, bl blacklist.Store) *TokenAuthority {
	return &TokenAuthority{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		blacklist:  bl,
		now:        time.Now,
	}
}

func (a *TokenAuthority) sign(claims *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *TokenAuthority) newClaims(userID, tokenType string, ttl time.Duration) *Claims {
	now := a.now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID,
		TokenType: tokenType,
	}
}

// parse verifies signature, expiry and token_type. Expired tokens map to
// common.ErrTokenExpired, everything else to common.ErrInvalidToken.
func (a *TokenAuthority) parse(tokenString, tokenType string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.TokenType != tokenType {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

func (a *TokenAuthority) IssueAccess(userID string) (string, error) {
	return a.sign(a.newClaims(userID, TokenTypeAccess, a.accessTTL))
}

func (a *TokenAuthority) IssuePair(userID string) (*TokenPair, error) {
	access, err := a.IssueAccess(userID)
	if err != nil {
		return nil, err
	}

	refresh, err := a.sign(a.newClaims(userID, TokenTypeRefresh, a.refreshTTL))
	if err != nil {
		return nil, err
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (a *TokenAuthority) ParseAccess(tokenString string) (*Claims, error) {
	claims, err := a.parse(tokenString, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// ParseRefresh validates a refresh token and rejects it with
// common.ErrTokenRevoked once its jti is blacklisted.
func (a *TokenAuthority) ParseRefresh(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := a.parse(tokenString, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}

	revoked, err := a.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("blacklist lookup: %w", err)
	}
	if revoked {
		return nil, common.ErrTokenRevoked
	}

	return claims, nil
}

// Revoke blacklists the refresh token described by claims until its expiry.
func (a *TokenAuthority) Revoke(ctx context.Context, claims *Claims) error {
	if claims.ID == "" || claims.ExpiresAt == nil {
		return common.ErrInvalidToken
	}

	err := a.blacklist.Add(ctx, &models.BlacklistedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	})
	if errors.Is(err, common.ErrorAlreadyExists) {
		return common.ErrTokenRevoked
	}
	return err
}

// IssuePasswordResetProof signs a proof that email verified the reset code
// otpID. The proof expires together with the code.
func (a *TokenAuthority) IssuePasswordResetProof(email, otpID string, expiresAt time.Time) (string, error) {
	return a.sign(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        otpID,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(a.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenType: TokenTypePasswordReset,
	})
}

func (a *TokenAuthority) ParsePasswordResetProof(tokenString string) (*Claims, error) {
	claims, err := a.parse(tokenString, TokenTypePasswordReset)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
