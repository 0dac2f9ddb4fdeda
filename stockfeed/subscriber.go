package stockfeed

import (
	"context"

	"kondapalli/mq"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Subscribe relays the Redis stock channel into the hub until ctx is done.
func Subscribe(ctx context.Context, client *redis.Client, hub *Hub, logger *zap.Logger) {
	sub := client.Subscribe(ctx, mq.StockChannel)
	defer sub.Close()

	ch := sub.Channel()
	logger.Info("listening for stock events", zap.String("channel", mq.StockChannel))
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			hub.Broadcast([]byte(msg.Payload))
		}
	}
}
