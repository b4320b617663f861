package ratelimiter

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Recorder is notified when a request is rejected.
type Recorder interface {
	RateLimited(limiter string)
}

// LimitedResponse is the JSON body returned with 429.
type LimitedResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Middleware returns a Gin middleware enforcing rl per client IP.
// It sets the RateLimit-* headers on every response. If the store fails the
// request is let through.
func Middleware(rl *RateLimiter, rec Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := rl.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			slog.Warn("rate limiter store failed", "limiter", rl.rule.Name, "error", err)
			c.Next()
			return
		}

		resetIn := int(math.Ceil(res.ResetIn.Seconds()))
		c.Header("RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("RateLimit-Reset", strconv.Itoa(resetIn))

		if !res.Allowed {
			slog.Warn("rate limit exceeded", "limiter", rl.rule.Name, "remote_addr", c.ClientIP())
			if rec != nil {
				rec.RateLimited(rl.rule.Name)
			}
			c.Header("Retry-After", strconv.Itoa(resetIn))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, LimitedResponse{
				Success: false,
				Error:   rl.rule.Message,
			})
			return
		}
		c.Next()
	}
}
