package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_KindMatching(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{"validation", NewValidationError("bad email"), ErrorValidation, "bad email"},
		{"auth", NewAuthError("Invalid OTP."), ErrorUnauthorized, "Invalid OTP."},
		{"not found", NewNotFoundError("User not found."), ErrorNotFound, "User not found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("verify otp: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.kind)
			assert.Equal(t, tt.msg, tt.err.Error())
			assert.Equal(t, tt.msg, Message(wrapped, "fallback"))
		})
	}
}

func TestMessage_Fallback(t *testing.T) {
	assert.Equal(t, "fallback", Message(errors.New("boom"), "fallback"))
	assert.Equal(t, "fallback", Message(ErrorNotFound, "fallback"))
}
