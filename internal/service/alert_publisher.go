package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mindcare/mindcare-go/internal/model"
	"github.com/redis/go-redis/v9"
)

// AlertChannel 预警广播使用的 Redis 频道
const AlertChannel = "mindcare:alerts"

// RedisAlertPublisher 通过 Redis 发布/订阅广播预警事件
type RedisAlertPublisher struct {
	rdb *redis.Client
}

// NewRedisAlertPublisher 创建 Redis 预警发布器
func NewRedisAlertPublisher(rdb *redis.Client) *RedisAlertPublisher {
	return &RedisAlertPublisher{rdb: rdb}
}

// Publish 把事件序列化后发布到预警频道
func (p *RedisAlertPublisher) Publish(ctx context.Context, event model.AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化预警事件失败: %w", err)
	}
	if err := p.rdb.Publish(ctx, AlertChannel, payload).Err(); err != nil {
		return fmt.Errorf("发布预警事件失败: %w", err)
	}
	return nil
}
