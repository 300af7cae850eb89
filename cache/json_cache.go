package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ArtistStudio/logger"

	"github.com/redis/go-redis/v9"
)

// JSONCache stores JSON encoded values under a key prefix.
type JSONCache struct {
	client *redis.Client
	prefix string
}

// NewJSONCache 创建 JSON 缓存
func NewJSONCache(client *redis.Client, prefix string) *JSONCache {
	return &JSONCache{client: client, prefix: prefix}
}

func (c *JSONCache) key(k string) string {
	return c.prefix + ":" + k
}

// Get decodes the cached value into dst. A miss returns (false, nil).
func (c *JSONCache) Get(ctx context.Context, k string, dst interface{}) (bool, error) {
	data, err := c.client.Get(ctx, c.key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Debug("缓存未命中", logger.String("key", c.key(k)))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cache %s: %w", c.key(k), err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode cache %s: %w", c.key(k), err)
	}
	return true, nil
}

// Set encodes v and stores it for ttl.
func (c *JSONCache) Set(ctx context.Context, k string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache %s: %w", c.key(k), err)
	}
	if err := c.client.Set(ctx, c.key(k), data, ttl).Err(); err != nil {
		logger.Error("设置缓存失败",
			logger.String("key", c.key(k)),
			logger.Int("dataSize", len(data)),
			logger.ErrorField(err))
		return err
	}
	return nil
}

// Delete 删除缓存
func (c *JSONCache) Delete(ctx context.Context, k string) error {
	return c.client.Del(ctx, c.key(k)).Err()
}
