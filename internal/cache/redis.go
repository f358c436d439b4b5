package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sparkvine/matchcore/internal/config"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes the Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.Client.Incr(ctx, key).Result()
}

func (c *RedisCache) Decr(ctx context.Context, key string) (int64, error) {
	return c.Client.Decr(ctx, key).Result()
}

// --- like counters ---

// KeyForLikeCount generates the Redis key for a user's liker count.
func (c *RedisCache) KeyForLikeCount(userID uint64) string {
	return fmt.Sprintf("likes:count:%d", userID)
}

func (c *RedisCache) UpdateLikeCount(ctx context.Context, userID uint64, count int64) error {
	// Always refresh TTL when updating
	return c.Client.Set(ctx, c.KeyForLikeCount(userID), count, time.Hour).Err()
}

// DecrLikeCount decrements the counter only while the key is live. A
// blind decrement after expiry would materialize the key at -1 and
// that negative would be served as a count until the next refresh.
func (c *RedisCache) DecrLikeCount(ctx context.Context, userID uint64) error {
	key := c.KeyForLikeCount(userID)
	exists, err := c.Client.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return err
	}
	return c.Client.Decr(ctx, key).Err()
}

func (c *RedisCache) GetLikeCount(ctx context.Context, userID uint64) (int64, bool, error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, time.Hour).Err()
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

// --- queue freshness ---

// KeyForQueueFreshness marks a user's queue as recently rebuilt.
// Rebuilds are debounced through this key's TTL.
func (c *RedisCache) KeyForQueueFreshness(userID uint64) string {
	return fmt.Sprintf("queue:fresh:%d", userID)
}

func (c *RedisCache) MarkQueueFresh(ctx context.Context, userID uint64, ttl time.Duration) error {
	return c.Client.Set(ctx, c.KeyForQueueFreshness(userID), "1", ttl).Err()
}

func (c *RedisCache) QueueIsFresh(ctx context.Context, userID uint64) (bool, error) {
	_, err := c.Client.Get(ctx, c.KeyForQueueFreshness(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) InvalidateQueue(ctx context.Context, userID uint64) error {
	return c.Client.Del(ctx, c.KeyForQueueFreshness(userID)).Err()
}

// --- daily swipe counters ---

// KeyForDailySwipes generates the key for a user's swipe count on a
// given UTC day.
func (c *RedisCache) KeyForDailySwipes(userID uint64, day time.Time) string {
	return fmt.Sprintf("swipes:daily:%d:%s", userID, day.UTC().Format("2006-01-02"))
}

// IncrDailySwipes bumps the user's counter for today and returns the new
// value. The key expires shortly after the UTC day ends.
func (c *RedisCache) IncrDailySwipes(ctx context.Context, userID uint64, now time.Time) (int64, error) {
	key := c.KeyForDailySwipes(userID, now)
	n, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		endOfDay := now.UTC().Truncate(24 * time.Hour).Add(25 * time.Hour)
		_ = c.Client.ExpireAt(ctx, key, endOfDay).Err()
	}
	return n, nil
}

func (c *RedisCache) GetDailySwipes(ctx context.Context, userID uint64, now time.Time) (int64, error) {
	val, err := c.Client.Get(ctx, c.KeyForDailySwipes(userID, now)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}
