// Package common defines shared constants and sentinel errors used across
// repositories, services and the HTTP layer. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

// Error is a domain error carrying a message that is safe to return to API
// clients. Kind is one of the sentinels above, so errors.Is(err, ErrorNotFound)
// works on wrapped *Error values.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func NewValidationError(msg string) error {
	return &Error{Kind: ErrorValidation, Message: msg}
}

// NewAuthError reports rejected credentials, codes or tokens.
func NewAuthError(msg string) error {
	return &Error{Kind: ErrorUnauthorized, Message: msg}
}

func NewNotFoundError(msg string) error {
	return &Error{Kind: ErrorNotFound, Message: msg}
}

// Message returns the client-facing message carried by err, or fallback
// when err is not (and does not wrap) an *Error.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return fallback
}
