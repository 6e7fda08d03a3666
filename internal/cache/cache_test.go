package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"Recharted/internal/model"
)

func entry(symbol string) *Entry {
	return &Entry{
		Series:     &model.PriceSeries{Symbol: symbol, Prices: []float64{1}, Volumes: []float64{1}, Timestamps: []string{"2025-01-01T00:00:00.000Z"}},
		Provider:   "codex",
		Step:       "primary",
		ResolvedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestKey(t *testing.T) {
	tweet := time.Date(2025, 5, 1, 10, 30, 45, 0, time.UTC)
	assert.Equal(t, "bitcoin|1h|recent", Key("  Bitcoin ", model.Timeframe1h, time.Time{}))
	assert.Equal(t, "bitcoin|1h|202505011030", Key("bitcoin", model.Timeframe1h, tweet))
	assert.Equal(t, Key("x", "4h", tweet), Key("x", "4h", tweet.Add(10*time.Second)))
	assert.NotEqual(t, Key("x", "4h", tweet), Key("x", "1d", tweet))
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryStore(time.Minute)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "a", entry("A")))
	got, ok := m.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "A", got.Series.Symbol)

	_, ok = m.Get(ctx, "missing")
	assert.False(t, ok)

	now = now.Add(59 * time.Second)
	require.NoError(t, m.Set(ctx, "b", entry("B")))
	now = now.Add(time.Second)

	_, ok = m.Get(ctx, "a")
	assert.False(t, ok, "entry must expire after ttl")
	_, ok = m.Get(ctx, "b")
	assert.True(t, ok)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 1, m.Prune(ctx))
	assert.Equal(t, 1, m.Len())
}

func TestMemoryStore_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, NewMemoryStore(0).ttl)
}

func TestRedisStore_FallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	s := newRedisStore(rdb, time.Minute, zaptest.NewLogger(t))
	defer s.Close()

	require.NoError(t, s.Set(ctx, "k", entry("K")))
	got, ok := s.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "K", got.Series.Symbol)
	assert.Equal(t, 0, s.Prune(ctx))
}

func TestNewRedisStore_PingFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := NewRedisStore(ctx, "127.0.0.1:1", "", 0, time.Minute, nil)
	assert.Error(t, err)
}
