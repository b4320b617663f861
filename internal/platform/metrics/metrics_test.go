package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordOperation("login", OutcomeSuccess)
	m.RecordOperation("login", OutcomeFailure)
	m.RecordOperation("login", OutcomeFailure)
	m.RateLimited("login")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("login", OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("login", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited.WithLabelValues("login")))
}

func TestMetrics_HandlerAndMiddleware(t *testing.T) {
	t.Parallel()

	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/auth/me", func(c *gin.Context) { c.Status(http.StatusUnauthorized) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `http_request_duration_seconds_count{method="GET",route="/api/auth/me",status="401"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
