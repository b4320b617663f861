package ratelimiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_Increment_FirstHitSetsTTL(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	key := "ratelimit:login:10.0.0.1"
	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpireNX(key, 15*time.Minute).SetVal(true)
	mock.ExpectPTTL(key).SetVal(15 * time.Minute)
	mock.ExpectTxPipelineExec()

	s := NewRedisStore(rdb, "")
	count, resetAt, err := s.Increment(context.Background(), "login:10.0.0.1", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), resetAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Increment_LaterHitKeepsWindow(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	key := "rl:login:ip"
	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetVal(3)
	mock.ExpectExpireNX(key, time.Minute).SetVal(false)
	mock.ExpectPTTL(key).SetVal(20 * time.Second)
	mock.ExpectTxPipelineExec()

	s := NewRedisStore(rdb, "rl")
	count, resetAt, err := s.Increment(context.Background(), "login:ip", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.WithinDuration(t, time.Now().Add(20*time.Second), resetAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Increment_Error(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectTxPipeline()
	mock.ExpectIncr("ratelimit:k").SetErr(errors.New("connection refused"))

	s := NewRedisStore(rdb, "ratelimit")
	_, _, err := s.Increment(context.Background(), "k", time.Minute)
	assert.Error(t, err)
}

func TestRedisStore_WithMiniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	rl := NewRateLimiter(Rule{Name: "register", Limit: 3, Window: time.Hour}, NewRedisStore(client, "ratelimit"), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := rl.Allow(ctx, "10.0.0.9")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := rl.Allow(ctx, "10.0.0.9")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	// 2回目以降のヒットでウィンドウは延長されない
	assert.Equal(t, time.Hour, mr.TTL("ratelimit:register:10.0.0.9"))

	mr.FastForward(time.Hour)

	res, err = rl.Allow(ctx, "10.0.0.9")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
}
