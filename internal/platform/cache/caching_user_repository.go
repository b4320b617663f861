// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/usecase"
)

// DefaultTTL is used when no positive TTL is given.
const DefaultTTL = 5 * time.Minute

// CachingUserRepository decorates a UserRepository with a Redis cache for
// lookups by ID, which every authenticated request performs.
// Writes go to the underlying repository and then evict the cached entry.
type CachingUserRepository struct {
	inner     usecase.UserRepository
	rdb       redis.Cmdable
	ttl       time.Duration
	namespace string
}

var _ usecase.UserRepository = (*CachingUserRepository)(nil)

// NewCachingUserRepository decorates a UserRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "users".
func NewCachingUserRepository(rdb redis.Cmdable, ttl time.Duration, inner usecase.UserRepository, namespace string) *CachingUserRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = "users"
	}
	return &CachingUserRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

func (c *CachingUserRepository) Create(ctx context.Context, u *entity.User) error {
	return c.inner.Create(ctx, u)
}

func (c *CachingUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return c.inner.FindByEmail(ctx, email)
}

func (c *CachingUserRepository) FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*entity.User, error) {
	return c.inner.FindByResetTokenHash(ctx, hash, now)
}

// FindByID checks the cache first then falls back to the underlying repository.
func (c *CachingUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if c.rdb == nil {
		return c.inner.FindByID(ctx, id)
	}

	key := c.cacheKey(id)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var u entity.User
		if err := json.Unmarshal(b, &u); err == nil {
			return &u, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	u, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(u); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return u, nil
}

// SetResetToken stores the token and evicts the cached copy.
func (c *CachingUserRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt, now time.Time) error {
	if err := c.inner.SetResetToken(ctx, userID, tokenHash, expiresAt, now); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

// ClearResetToken clears the token and evicts the cached copy.
func (c *CachingUserRepository) ClearResetToken(ctx context.Context, userID, tokenHash string) error {
	if err := c.inner.ClearResetToken(ctx, userID, tokenHash); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

// ConsumeResetToken consumes the token and evicts the cached copy.
func (c *CachingUserRepository) ConsumeResetToken(ctx context.Context, userID, tokenHash string, now time.Time, passwordHash string) error {
	if err := c.inner.ConsumeResetToken(ctx, userID, tokenHash, now, passwordHash); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

func (c *CachingUserRepository) evict(ctx context.Context, id string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, c.cacheKey(id)).Err(); err != nil {
		slog.WarnContext(ctx, "failed to evict cached user", "user_id", id, "error", err)
	}
}

// cacheKey generates a cache key for a user ID.
func (c *CachingUserRepository) cacheKey(id string) string {
	return fmt.Sprintf("%s:id:%s", c.namespace, id)
}
