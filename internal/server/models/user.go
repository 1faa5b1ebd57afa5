// Package models defines server-side data models persisted in the database.
package models

import "time"

// Roles an identity can hold.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleAuthor = "author"
	RoleReader = "reader"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleEditor, RoleAuthor, RoleReader:
		return true
	}
	return false
}

// User is an identity that can log in. OTP and OTPCreatedAt are either both
// nil (no pending login) or both set.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	Phone        *string
	Role         string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	Is2FAEnabled bool
	OTP          *string
	OTPCreatedAt *time.Time
	// ProfileImage is the object-storage key of the avatar, not a URL.
	ProfileImage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPendingOTP reports whether a login code is waiting to be verified.
func (u *User) HasPendingOTP() bool {
	return u.OTP != nil && u.OTPCreatedAt != nil
}

// OTPFresh reports whether the pending code was issued less than ttl before now.
func (u *User) OTPFresh(now time.Time, ttl time.Duration) bool {
	if !u.HasPendingOTP() {
		return false
	}
	return now.Before(u.OTPCreatedAt.Add(ttl))
}
