// Package jwtmw issues and verifies signed session tokens and extracts them from requests.
package jwtmw

import (
	"net/http"
	"strings"
)

// CookieName is the name of the session cookie.
const CookieName = "token"

// ExtractToken returns the session token from the "Authorization: Bearer" header,
// falling back to the session cookie.
func ExtractToken(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if tok := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")); tok != "" {
			return tok, true
		}
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" && c.Value != "none" {
		return c.Value, true
	}
	return "", false
}
