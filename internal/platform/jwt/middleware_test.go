package jwtmw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		cookie string
		want   string
		wantOK bool
	}{
		{name: "bearer header", header: "Bearer abc", want: "abc", wantOK: true},
		{name: "cookie", cookie: "def", want: "def", wantOK: true},
		{name: "header wins over cookie", header: "Bearer abc", cookie: "def", want: "abc", wantOK: true},
		{name: "non-bearer header falls back to cookie", header: "Basic xyz", cookie: "def", want: "def", wantOK: true},
		{name: "cleared cookie", cookie: "none"},
		{name: "nothing"},
		{name: "empty bearer", header: "Bearer "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			got, ok := ExtractToken(req)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
