package validation

import (
	"testing"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,phone"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(signup{Email: "alice@example.com", Password: "Secr3t!"}))
	require.NoError(t, Struct(signup{Email: "alice@example.com", Password: "x", Phone: "+15551234567"}))

	err := Struct(signup{Email: "not-an-email"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.Contains(t, err.Error(), "email must be a valid email address")
	assert.Contains(t, err.Error(), "password is a required field")

	err = Struct(signup{Email: "alice@example.com", Password: "x", Phone: "call me"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phone must be a phone number")
}

func TestVar_Phone(t *testing.T) {
	valid := []string{"+15551234567", "5551234", "123456789012345"}
	invalid := []string{"+1234567890123456", "1234567890123456", "555-1234", "abc", "+"}

	for _, p := range valid {
		assert.NoError(t, Var(p, "phone"), p)
	}
	for _, p := range invalid {
		assert.Error(t, Var(p, "phone"), p)
	}
}

func TestVar_Email(t *testing.T) {
	assert.NoError(t, Var("alice@example.com", "required,email"))
	assert.Error(t, Var("", "required,email"))
	assert.Error(t, Var("alice@", "required,email"))
}
