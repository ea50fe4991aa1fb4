package consumer

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// ConsumeOnce 暴露单轮消费供测试使用
func (c *StreamConsumer) ConsumeOnce(ctx context.Context) error {
	return c.consumeOnce(ctx)
}

// CreateConsumerGroup 暴露消费者组创建供测试使用
func CreateConsumerGroup(ctx context.Context, client *redis.Client, stream, group string) error {
	return createConsumerGroup(ctx, client, stream, group)
}
