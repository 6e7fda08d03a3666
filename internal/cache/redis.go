package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "recharted:series:"

// RedisStore keeps entries in Redis as JSON with an expiry. When Redis is
// unavailable it falls back to an in-memory store.
type RedisStore struct {
	rdb *redis.Client
	mem *MemoryStore
	ttl time.Duration
	log *zap.Logger
}

// NewRedisStore connects to Redis and pings it.
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration, log *zap.Logger) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisStore(rdb, ttl, log), nil
}

func newRedisStore(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisStore{rdb: rdb, mem: NewMemoryStore(ttl), ttl: ttl, log: log}
}

func (r *RedisStore) Get(ctx context.Context, key string) (*Entry, bool) {
	b, err := r.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return r.mem.Get(ctx, key)
	}
	if err != nil {
		r.log.Warn("redis get failed, using memory cache", zap.String("key", key), zap.Error(err))
		return r.mem.Get(ctx, key)
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		r.log.Warn("corrupt cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &e, true
}

func (r *RedisStore) Set(ctx context.Context, key string, e *Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := r.rdb.Set(ctx, keyPrefix+key, b, r.ttl).Err(); err != nil {
		r.log.Warn("redis set failed, using memory cache", zap.String("key", key), zap.Error(err))
		return r.mem.Set(ctx, key, e)
	}
	return nil
}

// Prune only touches the memory fallback; Redis expires keys itself.
func (r *RedisStore) Prune(ctx context.Context) int {
	return r.mem.Prune(ctx)
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
