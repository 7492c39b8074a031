// Package ratelimit counts requests per client in fixed windows.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ariefcatur/go-giftshop/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// Limiter reports whether one more request from key fits the current window,
// and how long until the window resets.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

type Config struct {
	Scope  string
	Max    int
	Window time.Duration
}

func windowStart(now time.Time, w time.Duration) time.Time {
	return now.Truncate(w)
}

// Memory is a process-local fixed window, used when Redis is unavailable and in tests.
type Memory struct {
	cfg Config
	now func() time.Time

	mu     sync.Mutex
	window time.Time
	counts map[string]int
}

func NewMemory(cfg Config) *Memory {
	return &Memory{cfg: cfg, now: time.Now, counts: map[string]int{}}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := m.now()
	start := windowStart(now, m.cfg.Window)
	reset := start.Add(m.cfg.Window).Sub(now)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !start.Equal(m.window) {
		m.window = start
		m.counts = map[string]int{}
	}
	if m.counts[key] >= m.cfg.Max {
		return false, reset, nil
	}
	m.counts[key]++
	return true, reset, nil
}

// Redis shares the window across API replicas with INCR and EXPIRE.
type Redis struct {
	cfg Config
	rdb redis.Cmdable
	now func() time.Time
}

func NewRedis(rdb redis.Cmdable, cfg Config) *Redis {
	return &Redis{cfg: cfg, rdb: rdb, now: time.Now}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := r.now()
	start := windowStart(now, r.cfg.Window)
	reset := start.Add(r.cfg.Window).Sub(now)
	k := fmt.Sprintf(redisx.KeyRateLimit, r.cfg.Scope, key, start.Unix())

	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, r.cfg.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, reset, fmt.Errorf("rate limit: %w", err)
	}
	return incr.Val() <= int64(r.cfg.Max), reset, nil
}
