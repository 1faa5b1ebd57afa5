package models

import "time"

// PasswordResetOTP is a single-use code issued by the forgot-password flow.
// It is keyed by email rather than by user.
type PasswordResetOTP struct {
	ID        string
	Email     string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// Valid reports whether the code is unused and not yet expired at now.
func (o *PasswordResetOTP) Valid(now time.Time) bool {
	return !o.Used && now.Before(o.ExpiresAt)
}
