package models

import "time"

// BlacklistedToken is a revoked refresh token, identified by its jti and
// kept until the token would have expired anyway.
type BlacklistedToken struct {
	JTI           string
	UserID        string
	ExpiresAt     time.Time
	BlacklistedAt time.Time
}
