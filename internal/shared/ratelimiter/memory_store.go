package ratelimiter

import (
	"context"
	"sync"
	"time"

	"auth_backend/internal/platform/clock"
)

// sweepInterval bounds how often stale windows are dropped from memory.
const sweepInterval = time.Minute

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryStore keeps counters in process memory. Suitable for a single instance.
type MemoryStore struct {
	mu        sync.Mutex
	clock     clock.Clock
	windows   map[string]*window
	nextSweep time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory Store using clk for time.
func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &MemoryStore{
		clock:   clk,
		windows: make(map[string]*window),
	}
}

// Increment counts one hit for key in the current window.
func (s *MemoryStore) Increment(_ context.Context, key string, win time.Duration) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.sweep(now)

	w, ok := s.windows[key]
	// interval を過ぎたらカウントリセット
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(win)}
		s.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt, nil
}

// Len returns the number of tracked windows.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// sweep drops expired windows. Caller must hold s.mu.
func (s *MemoryStore) sweep(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	for k, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, k)
		}
	}
	s.nextSweep = now.Add(sweepInterval)
}
