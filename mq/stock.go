package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"kondapalli/models"

	"github.com/redis/go-redis/v9"
)

// StockChannel is the Redis pub/sub channel carrying models.StockEvent.
const StockChannel = "stock-events"

type RedisStockPublisher struct {
	client *redis.Client
}

func NewRedisStockPublisher(client *redis.Client) *RedisStockPublisher {
	return &RedisStockPublisher{client: client}
}

func (p *RedisStockPublisher) PublishStock(ctx context.Context, event models.StockEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal stock event: %w", err)
	}
	if err := p.client.Publish(ctx, StockChannel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", StockChannel, err)
	}
	return nil
}
