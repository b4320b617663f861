package sessioncookie

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth_backend/internal/platform/clock"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func serve(t *testing.T, issuer *Issuer, req *http.Request, fn func(*Issuer, *gin.Context)) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	fn(issuer, c)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestIssuer_Set(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer(false, "", clock.NewFake(baseTime))
	ck := serve(t, issuer, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil), func(i *Issuer, c *gin.Context) {
		i.Set(c, "signed-token", baseTime.Add(24*time.Hour))
	})

	assert.Equal(t, "token", ck.Name)
	assert.Equal(t, "signed-token", ck.Value)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	assert.False(t, ck.Secure)
	assert.Equal(t, 24*60*60, ck.MaxAge)
	assert.Equal(t, "/", ck.Path)
}

func TestIssuer_Secure(t *testing.T) {
	t.Parallel()

	tlsReq := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	tlsReq.TLS = &tls.ConnectionState{}

	proxied := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	proxied.Header.Set("X-Forwarded-Proto", "https")

	tests := []struct {
		name  string
		force bool
		req   *http.Request
		want  bool
	}{
		{"forced", true, httptest.NewRequest(http.MethodPost, "/", nil), true},
		{"tls", false, tlsReq, true},
		{"behind tls proxy", false, proxied, true},
		{"plain http", false, httptest.NewRequest(http.MethodPost, "/", nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			issuer := NewIssuer(tt.force, "", clock.NewFake(baseTime))
			ck := serve(t, issuer, tt.req, func(i *Issuer, c *gin.Context) {
				i.Set(c, "tok", baseTime.Add(time.Hour))
			})
			assert.Equal(t, tt.want, ck.Secure)
		})
	}
}

func TestIssuer_Clear(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer(false, "example.com", clock.NewFake(baseTime))
	ck := serve(t, issuer, httptest.NewRequest(http.MethodGet, "/api/auth/logout", nil), func(i *Issuer, c *gin.Context) {
		i.Clear(c)
	})

	assert.Equal(t, "none", ck.Value)
	assert.Equal(t, 10, ck.MaxAge)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, "example.com", ck.Domain)
}
