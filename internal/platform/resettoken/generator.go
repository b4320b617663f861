// Package resettoken generates password reset tokens.
//
// The raw token is handed to the user (by email) and never stored. Only its
// SHA-256 digest is persisted, so a leaked database cannot be used to reset
// passwords.
package resettoken

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"auth_backend/internal/platform/clock"
)

const (
	// TokenBytes is the number of random bytes in a raw token (256 bits).
	TokenBytes = 32
	// DefaultTTL is how long a reset token stays valid.
	DefaultTTL = 10 * time.Minute
)

// Generator produces reset tokens with a fixed validity window.
type Generator struct {
	ttl   time.Duration
	clock clock.Clock
}

// NewGenerator creates a Generator. A non-positive ttl uses DefaultTTL.
func NewGenerator(ttl time.Duration, clk clock.Clock) *Generator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Generator{ttl: ttl, clock: clk}
}

// TTL returns the validity window.
func (g *Generator) TTL() time.Duration { return g.ttl }

// Generate returns a new raw token, its hash and its expiry time.
func (g *Generator) Generate() (raw, hash string, expiresAt time.Time, err error) {
	b := make([]byte, TokenBytes)
	if _, err = rand.Read(b); err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to read random bytes: %w", err)
	}
	raw = hex.EncodeToString(b)
	return raw, Hash(raw), g.clock.Now().Add(g.ttl), nil
}

// Hash returns the hex SHA-256 digest of a raw token.
func (g *Generator) Hash(raw string) string { return Hash(raw) }

// Hash returns the hex SHA-256 digest of a raw token.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether raw hashes to hash, in constant time.
func Verify(raw, hash string) bool {
	if raw == "" || hash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Hash(raw)), []byte(hash)) == 1
}
