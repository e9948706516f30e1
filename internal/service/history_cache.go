package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// historyTTL 用户消息缓存过期时间
const historyTTL = 24 * time.Hour

// HistoryCache 用户最近消息的 Redis 缓存，供跨会话上下文回看
type HistoryCache struct {
	rdb *redis.Client
}

// NewHistoryCache 创建历史缓存
func NewHistoryCache(rdb *redis.Client) *HistoryCache {
	return &HistoryCache{rdb: rdb}
}

func historyKey(userID int64) string {
	return fmt.Sprintf("chat_history:%d", userID)
}

// Append 追加一条消息并续期
func (c *HistoryCache) Append(ctx context.Context, userID int64, content string) error {
	key := historyKey(userID)
	if err := c.rdb.RPush(ctx, key, content).Err(); err != nil {
		return fmt.Errorf("写入历史缓存失败: %w", err)
	}
	// 只保留最近 50 条
	if err := c.rdb.LTrim(ctx, key, -50, -1).Err(); err != nil {
		return fmt.Errorf("裁剪历史缓存失败: %w", err)
	}
	return c.rdb.Expire(ctx, key, historyTTL).Err()
}

// Recent 读取最近 n 条消息
func (c *HistoryCache) Recent(ctx context.Context, userID int64, n int64) ([]string, error) {
	entries, err := c.rdb.LRange(ctx, historyKey(userID), -n, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("读取历史缓存失败: %w", err)
	}
	return entries, nil
}

// Clear 清空用户历史
func (c *HistoryCache) Clear(ctx context.Context, userID int64) error {
	return c.rdb.Del(ctx, historyKey(userID)).Err()
}
