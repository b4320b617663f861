// Package domain defines domain-level errors for the auth feature.
//
// Each error type maps to one HTTP status in the transport layer:
// ValidationError → 400, AuthError → 401, TokenError → 400.
package domain

import (
	"errors"
	"strings"
)

// Messages shared by several operations. Login and session failures use a
// single message regardless of the cause so that accounts cannot be enumerated.
const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgNotAuthorized      = "Not authorized to access this route"
	MsgInvalidResetToken  = "Invalid or expired token"
	MsgDuplicateEmail     = "Duplicate field value entered"
)

// ValidationError indicates malformed input or a duplicate email.
type ValidationError struct {
	Messages []string
}

// NewValidationError creates a ValidationError with the given messages.
func NewValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Messages: msgs}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// AuthError indicates bad credentials or a missing/invalid session.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// TokenError indicates an invalid or expired password reset token.
type TokenError struct {
	Message string
}

func (e *TokenError) Error() string { return e.Message }

var (
	// ErrInvalidCredentials is returned by login for unknown email or wrong password.
	ErrInvalidCredentials = &AuthError{Message: MsgInvalidCredentials}

	// ErrUnauthenticated is returned when no valid session accompanies the request.
	ErrUnauthenticated = &AuthError{Message: MsgNotAuthorized}

	// ErrInvalidResetToken is returned when the reset token does not match or has expired.
	ErrInvalidResetToken = &TokenError{Message: MsgInvalidResetToken}
)

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
