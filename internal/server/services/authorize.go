package services

import (
	"slices"

	"github.com/dmitrijs2005/otpauth/internal/server/models"
)

// Authorize reports whether user holds one of roles. An empty role list
// admits any active user.
func Authorize(user *models.User, roles ...string) bool {
	if user == nil || !user.IsActive {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	return slices.Contains(roles, user.Role)
}
