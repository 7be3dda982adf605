package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores computed reports keyed by their query parameters. Entries
// expire after the configured TTL, so stale reports age out instead of
// living for the whole process lifetime.
type Cache interface {
	Get(ctx context.Context, key string) (*Report, bool)
	Set(ctx context.Context, key string, report *Report)
}

// CacheKey derives the cache key for a report query.
func CacheKey(start, end time.Time, minReviews int) string {
	return fmt.Sprintf("stats:report:%s:%s:%d",
		start.Format("2006-01-02"), end.Format("2006-01-02"), minReviews)
}

// RedisCache backs the report cache with Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Report, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("stats cache get failed: %v", err)
		}
		return nil, false
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		log.Printf("stats cache entry corrupt, discarding: %v", err)
		return nil, false
	}
	return &report, true
}

func (c *RedisCache) Set(ctx context.Context, key string, report *Report) {
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("stats cache set failed: %v", err)
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// MemoryCache is a mutex-guarded in-process cache used in tests and in
// deployments running without Redis.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	report    *Report
	expiresAt time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (*Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.report, true
}

func (c *MemoryCache) Set(ctx context.Context, key string, report *Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		report:    report,
		expiresAt: time.Now().Add(c.ttl),
	}
}
