package di

import (
	"github.com/redis/go-redis/v9"

	"auth_backend/internal/feature/auth/usecase"
	"auth_backend/internal/platform/clock"
	"auth_backend/internal/platform/session"
)

// NewSessionRepository creates a SessionRepository implementation.
// If Redis is available, it returns a Redis-backed implementation.
// Otherwise, it falls back to the primary store.
func NewSessionRepository(rdb redis.Cmdable, fallback usecase.SessionRepository, clk clock.Clock) usecase.SessionRepository {
	if rdb != nil {
		return session.NewSessionRedis(rdb, session.DefaultPrefix, clk)
	}
	return fallback
}
