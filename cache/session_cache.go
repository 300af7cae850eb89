package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	selectedArtistKey = "studio:selected_artist:%d" // String: artist id
	revokedTokenKey   = "studio:revoked_token:%s"   // String: "1", TTL = token lifetime
	selectedArtistTTL = 30 * 24 * time.Hour
)

// SessionCache 会话相关的 Redis 状态
type SessionCache struct {
	client *redis.Client
}

// NewSessionCache 创建会话缓存
func NewSessionCache(client *redis.Client) *SessionCache {
	return &SessionCache{client: client}
}

// SetSelectedArtist 记录用户当前选中的艺人
func (c *SessionCache) SetSelectedArtist(ctx context.Context, userID int64, artistID string) error {
	key := fmt.Sprintf(selectedArtistKey, userID)
	if err := c.client.Set(ctx, key, artistID, selectedArtistTTL).Err(); err != nil {
		return fmt.Errorf("failed to set selected artist: %w", err)
	}
	return nil
}

// GetSelectedArtist 返回当前选中的艺人，未选择时返回空字符串
func (c *SessionCache) GetSelectedArtist(ctx context.Context, userID int64) (string, error) {
	val, err := c.client.Get(ctx, fmt.Sprintf(selectedArtistKey, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get selected artist: %w", err)
	}
	return val, nil
}

// ClearSelectedArtist 清除选中的艺人
func (c *SessionCache) ClearSelectedArtist(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, fmt.Sprintf(selectedArtistKey, userID)).Err()
}

// RevokeToken 将 jti 加入黑名单直到 token 过期
func (c *SessionCache) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired
	}
	if err := c.client.Set(ctx, fmt.Sprintf(revokedTokenKey, tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked 检查 jti 是否在黑名单中
func (c *SessionCache) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.client.Exists(ctx, fmt.Sprintf(revokedTokenKey, tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token denylist: %w", err)
	}
	return n > 0, nil
}
