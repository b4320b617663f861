// Package sessioncookie writes and clears the session cookie.
package sessioncookie

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"auth_backend/internal/platform/clock"
	jwtmw "auth_backend/internal/platform/jwt"
)

// clearedValue replaces the token on logout; the cookie then expires shortly after.
const (
	clearedValue = "none"
	clearedTTL   = 10 * time.Second
)

// Issuer sets the session cookie with HttpOnly and SameSite=Strict.
// Secure is set when ForceSecure is true or the request arrived over TLS.
type Issuer struct {
	ForceSecure bool
	Domain      string
	clock       clock.Clock
}

// NewIssuer creates an Issuer. A nil clock uses the wall clock.
func NewIssuer(forceSecure bool, domain string, clk clock.Clock) *Issuer {
	if clk == nil {
		clk = clock.Real()
	}
	return &Issuer{ForceSecure: forceSecure, Domain: domain, clock: clk}
}

// Set writes token as the session cookie, expiring at expiresAt.
func (i *Issuer) Set(c *gin.Context, token string, expiresAt time.Time) {
	i.write(c, token, expiresAt)
}

// Clear overwrites the session cookie with a short-lived placeholder.
func (i *Issuer) Clear(c *gin.Context) {
	i.write(c, clearedValue, i.clock.Now().Add(clearedTTL))
}

func (i *Issuer) write(c *gin.Context, value string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(i.clock.Now()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(jwtmw.CookieName, value, maxAge, "/", i.Domain, i.secure(c.Request), true)
}

func (i *Issuer) secure(r *http.Request) bool {
	if i.ForceSecure {
		return true
	}
	return r != nil && (r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https")
}
