package entity

import "time"

// Session represents a user's authenticated session.
// The signed session token carried in the cookie references it by ID.
type Session struct {
	ID        string     `json:"id"`                   // Session ID (UUID)
	UserID    string     `json:"user_id"`              // Associated user ID
	UserAgent string     `json:"user_agent"`           // Client's User-Agent header
	IPAddress string     `json:"ip_address"`           // Client's IP address
	CreatedAt time.Time  `json:"created_at"`           // Session creation time
	ExpiresAt time.Time  `json:"expires_at"`           // Session expiration time
	RevokedAt *time.Time `json:"revoked_at,omitempty"` // Revocation time (nil if active)
}

// IsExpired returns true if the session has passed its expiration time at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// IsRevoked returns true if the session has been revoked.
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// IsValid returns true if the session is neither expired nor revoked at now.
func (s *Session) IsValid(now time.Time) bool {
	return !s.IsExpired(now) && !s.IsRevoked()
}
