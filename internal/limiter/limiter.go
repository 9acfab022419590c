package limiter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/xxxsen/issuetracker/internal/config"
)

// Limiter admits at most one hit per key inside its window. Release gives a
// claimed window back, for callers whose guarded work failed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type memoryLimiter struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, struct{}]
}

// NewMemory bounds memory use by evicting the least recently hit keys once
// size is reached.
func NewMemory(size int, window time.Duration) Limiter {
	if size <= 0 {
		size = 1024
	}
	return &memoryLimiter{cache: expirable.NewLRU[string, struct{}](size, nil, window)}
}

func (l *memoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.cache.Get(key); ok {
		return false, nil
	}
	l.cache.Add(key, struct{}{})
	return true, nil
}

func (l *memoryLimiter) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache.Remove(key)
	return nil
}

type redisLimiter struct {
	client *redis.Client
	prefix string
	window time.Duration
}

func NewRedis(client *redis.Client, prefix string, window time.Duration) Limiter {
	return &redisLimiter{client: client, prefix: prefix, window: window}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+key, 1, l.window).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (l *redisLimiter) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// ConnectRedis parses the url and pings the server once.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// New builds one limiter per window from the shared limiter config. The redis
// client is nil for the memory backend.
func New(cfg config.LimiterConfig, client *redis.Client, name string, window time.Duration) Limiter {
	if cfg.Type == "redis" && client != nil {
		return NewRedis(client, "issuetracker:"+name+":", window)
	}
	return NewMemory(cfg.Size, window)
}
