// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered user in the system.
// It contains authentication credentials and the pending password reset, if any.
type User struct {
	// ID is the unique identifier for the user (UUID string).
	ID string

	// Name is the user's display name.
	Name string

	// Email is the user's email address used for authentication.
	// It is stored lowercase and must be unique across all users.
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never store plaintext passwords.
	PasswordHash string

	// Role is either RoleUser or RoleAdmin.
	Role string

	// ResetPasswordTokenHash is the SHA-256 digest of the pending reset token.
	// It is set together with ResetPasswordExpire, or both are nil.
	ResetPasswordTokenHash *string

	// ResetPasswordExpire is when the pending reset token stops being valid.
	ResetPasswordExpire *time.Time

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time
}

// SetResetToken records a pending password reset, replacing any earlier one.
func (u *User) SetResetToken(hash string, expiresAt time.Time) {
	u.ResetPasswordTokenHash = &hash
	u.ResetPasswordExpire = &expiresAt
}

// ClearResetToken removes the pending password reset.
func (u *User) ClearResetToken() {
	u.ResetPasswordTokenHash = nil
	u.ResetPasswordExpire = nil
}

// HasPendingReset reports whether a reset token has been issued and not cleared.
func (u *User) HasPendingReset() bool {
	return u.ResetPasswordTokenHash != nil && u.ResetPasswordExpire != nil
}

// ResetTokenValid reports whether hash matches the pending token and it has not expired at now.
func (u *User) ResetTokenValid(hash string, now time.Time) bool {
	if !u.HasPendingReset() {
		return false
	}
	return *u.ResetPasswordTokenHash == hash && now.Before(*u.ResetPasswordExpire)
}

// PublicUser is the view of a User that may leave the service.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public returns the sanitized view of u, without credentials.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
