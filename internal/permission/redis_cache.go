package permission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisCache shares permission sets between service instances.
//
// Keys:
//
//	<prefix>:generation             INCR on Clear
//	<prefix>:perm:<gen>:<userID>    JSON Permissions, with TTL
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if prefix == "" {
		prefix = "emstrack:acl"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

var _ Cache = (*RedisCache)(nil)

func (c *RedisCache) generationKey() string {
	return c.prefix + ":generation"
}

func (c *RedisCache) entryPrefix(gen int64) string {
	return fmt.Sprintf("%s:perm:%d:", c.prefix, gen)
}

func (c *RedisCache) entryKey(gen, userID int64) string {
	return c.entryPrefix(gen) + strconv.FormatInt(userID, 10)
}

func (c *RedisCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

func (c *RedisCache) Get(ctx context.Context, gen int64, userID int64) (*Permissions, error) {
	raw, err := c.client.Get(ctx, c.entryKey(gen, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cached permissions: %w", err)
	}

	p := NewPermissions()
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached permissions: %w", err)
	}
	return p, nil
}

func (c *RedisCache) Set(ctx context.Context, gen int64, userID int64, p *Permissions) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}
	if err := c.client.Set(ctx, c.entryKey(gen, userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cached permissions: %w", err)
	}
	return nil
}

// Clear bumps the generation, then deletes entries of older generations.
// The deletion is best effort; leftovers expire through their TTL.
func (c *RedisCache) Clear(ctx context.Context) error {
	gen, err := c.client.Incr(ctx, c.generationKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}

	keys, err := c.scanKeys(ctx, c.prefix+":perm:*")
	if err != nil {
		c.logger.Warn("Failed to scan stale permission entries", zap.Error(err))
		return nil
	}
	current := c.entryPrefix(gen)
	stale := keys[:0]
	for _, k := range keys {
		if !strings.HasPrefix(k, current) {
			stale = append(stale, k)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, stale...).Err(); err != nil {
		c.logger.Warn("Failed to delete stale permission entries",
			zap.Int("count", len(stale)),
			zap.Error(err),
		)
	}
	return nil
}

func (c *RedisCache) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		k, next, err := c.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
