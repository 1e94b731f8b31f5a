package cache

import (
	"context"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Cache stores raw API response bodies keyed by request URL. GET responses
// for slow-moving resources (workspaces, monitors) are cached with short
// TTLs so a dashboard render does not re-fetch the same documents.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, val []byte, ttl time.Duration)
}

type memory struct {
	mu sync.Mutex
	m  map[string]entry
}

type entry struct {
	b   []byte
	exp time.Time
}

// NewMemory returns an in-process cache with per-entry expiry.
func NewMemory() Cache { return &memory{m: make(map[string]entry)} }

func (c *memory) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok || (!e.exp.IsZero() && time.Now().After(e.exp)) {
		delete(c.m, key)
		return nil, false
	}
	return e.b, true
}

func (c *memory) Set(key string, val []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := entry{b: append([]byte(nil), val...)}
	if ttl > 0 {
		e.exp = time.Now().Add(ttl)
	}
	c.m[key] = e
}

// redisCache shares cached responses across processes. Redis errors degrade
// to cache misses; the caller falls through to the API.
type redisCache struct {
	r       redis.UniversalClient
	timeout time.Duration
}

// NewRedis wraps an existing redis client as a Cache.
func NewRedis(client redis.UniversalClient) Cache {
	return &redisCache{r: client, timeout: 500 * time.Millisecond}
}

// NewAuto returns a redis-backed cache when addr is set, otherwise the
// in-process cache.
func NewAuto(addr string) Cache {
	if addr != "" {
		return NewRedis(redis.NewClient(&redis.Options{Addr: addr}))
	}
	return NewMemory()
}

func (r *redisCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	v, err := r.r.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return v, true
}

func (r *redisCache) Set(key string, val []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	_ = r.r.Set(ctx, key, val, ttl).Err()
}
