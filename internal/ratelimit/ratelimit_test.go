package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ariefcatur/go-giftshop/internal/redisx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMemoryFixedWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemory(Config{Scope: "api", Max: 3, Window: time.Minute})
	m.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := m.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, ok, "request %d", i+1)
	}
	ok, reset, err := m.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, time.Minute, reset)

	ok, _, _ = m.Allow(ctx, "5.6.7.8")
	require.True(t, ok, "other clients have their own budget")

	now = now.Add(time.Minute)
	ok, _, _ = m.Allow(ctx, "1.2.3.4")
	require.True(t, ok, "new window resets the count")
}

func TestRedisFixedWindow(t *testing.T) {
	addr := os.Getenv("GIFTSHOP_TEST_REDIS")
	if addr == "" {
		t.Skip("GIFTSHOP_TEST_REDIS not set")
	}
	rdb := redisx.New(addr, "")
	t.Cleanup(func() { _ = rdb.Close() })

	l := NewRedis(rdb, Config{Scope: "test", Max: 2, Window: time.Minute})
	ctx := context.Background()
	key := uuid.NewString()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, _, err := l.Allow(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)
}
