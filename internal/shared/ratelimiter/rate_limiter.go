// Package ratelimiter はクライアント単位の固定ウィンドウ・レートリミットを提供します。
package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"auth_backend/internal/platform/clock"
)

// Rule はエンドポイントごとのレートリミット設定です。
type Rule struct {
	Name    string        // カウンタのキー接頭辞 (例: "login")
	Limit   int           // ウィンドウあたりの上限
	Window  time.Duration // どの単位でリセットするか
	Message string        // 上限超過時にクライアントへ返すメッセージ
}

// Store はウィンドウごとのカウンタを保持します。
// Increment は原子的にカウンタを1進め、加算後の値とウィンドウのリセット時刻を返します。
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Result は1リクエスト分の判定結果です。
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// ResetIn はウィンドウがリセットされるまでの残り時間です（0以上）。
	ResetIn time.Duration
}

// RateLimiter は Rule と Store を組み合わせて判定を行います。
type RateLimiter struct {
	rule  Rule
	store Store
	clock clock.Clock
}

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
// clk はリセットまでの残り時間の計算に使います。nilの場合は実時間です。
func NewRateLimiter(rule Rule, store Store, clk clock.Clock) *RateLimiter {
	if clk == nil {
		clk = clock.Real()
	}
	return &RateLimiter{rule: rule, store: store, clock: clk}
}

// Rule returns the limiter's configuration.
func (rl *RateLimiter) Rule() Rule { return rl.rule }

// Allow はclientKeyからのリクエストを1件カウントし、上限内かどうかを返します。
func (rl *RateLimiter) Allow(ctx context.Context, clientKey string) (Result, error) {
	key := fmt.Sprintf("%s:%s", rl.rule.Name, clientKey)
	count, resetAt, err := rl.store.Increment(ctx, key, rl.rule.Window)
	if err != nil {
		return Result{Allowed: true, Limit: rl.rule.Limit, Remaining: rl.rule.Limit}, err
	}

	remaining := max(rl.rule.Limit-int(count), 0)
	return Result{
		Allowed:   count <= int64(rl.rule.Limit),
		Limit:     rl.rule.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
		ResetIn:   max(resetAt.Sub(rl.clock.Now()), 0),
	}, nil
}
