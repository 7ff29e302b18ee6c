package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "registry:graphq"

// RedisCache is a Redis-backed result cache. The epoch is baked into every
// key, so InvalidateAll never touches Redis: entries of dead generations
// stop being addressable and age out through the TTL.
//
// The epoch counter lives in-process. The registry is a single-writer
// system, so the process that publishes is the process that invalidates.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	epoch  atomic.Uint64

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) redisKey(epoch uint64, key Key) string {
	return fmt.Sprintf("%s:%d:%s", redisKeyPrefix, epoch, key.String())
}

// Get fetches the payload for the current epoch's generation. Redis errors
// are surfaced so the caller can fall through to a fresh computation.
func (c *RedisCache) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.redisKey(c.epoch.Load(), key)).Bytes()
	if err == redis.Nil {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		c.misses.Add(1)
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}
	c.hits.Add(1)
	return data, true, nil
}

// Put stores the payload under the generation it was computed against, with
// the configured TTL. A fill racing an invalidation writes into the dead
// generation's keyspace and is never addressable at the new epoch.
func (c *RedisCache) Put(ctx context.Context, key Key, payload []byte, epoch uint64) error {
	if err := c.client.Set(ctx, c.redisKey(epoch, key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateAll advances the epoch. O(1): no keys are deleted.
func (c *RedisCache) InvalidateAll() uint64 {
	return c.epoch.Add(1)
}

// Epoch returns the current epoch.
func (c *RedisCache) Epoch() uint64 {
	return c.epoch.Load()
}

// Stats reports in-process hit/miss counters. Entry counts are not tracked
// for the Redis backend; sizing lives on the Redis side.
func (c *RedisCache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	return Stats{
		Hits:       hits,
		Misses:     misses,
		Epoch:      c.epoch.Load(),
		HitRatePct: hitRatePct(hits, misses),
	}
}

// Client exposes the underlying connection for health checks.
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
