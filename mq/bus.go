package mq

import (
	"context"
	"time"

	"kondapalli/models"

	"go.uber.org/zap"
)

type OrderPublisher interface {
	PublishOrder(ctx context.Context, event models.OrderEvent) error
}

type StockPublisher interface {
	PublishStock(ctx context.Context, event models.StockEvent) error
}

// Bus fans domain events out to the configured brokers. Either side may be
// nil when its broker is not configured. Publish failures are logged and
// never returned; callers emit only after their write has committed.
type Bus struct {
	orders OrderPublisher
	stock  StockPublisher
	logger *zap.Logger
	now    func() time.Time
}

func NewBus(orders OrderPublisher, stock StockPublisher, logger *zap.Logger) *Bus {
	return &Bus{orders: orders, stock: stock, logger: logger, now: time.Now}
}

// Nop returns a Bus that drops every event.
func Nop() *Bus {
	return NewBus(nil, nil, zap.NewNop())
}

func (b *Bus) OrderCreated(ctx context.Context, o *models.Order) {
	b.publishOrder(ctx, models.EventOrderCreated, o)
}

func (b *Bus) OrderStatusChanged(ctx context.Context, o *models.Order) {
	b.publishOrder(ctx, models.EventOrderStatusChanged, o)
}

func (b *Bus) publishOrder(ctx context.Context, eventType string, o *models.Order) {
	if b.orders == nil {
		return
	}
	event := models.OrderEvent{
		EventType:   eventType,
		OrderID:     o.ID.Hex(),
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		Total:       o.Total,
		Email:       o.Customer.Email,
		OccurredAt:  b.now(),
	}
	if err := b.orders.PublishOrder(ctx, event); err != nil {
		b.logger.Warn("order event not published",
			zap.String("event_type", eventType),
			zap.String("order_number", o.OrderNumber),
			zap.Error(err),
		)
	}
}

func (b *Bus) StockChanged(ctx context.Context, productID string, stock int) {
	if b.stock == nil {
		return
	}
	event := models.StockEvent{ProductID: productID, Stock: stock, At: b.now()}
	if err := b.stock.PublishStock(ctx, event); err != nil {
		b.logger.Warn("stock event not published", zap.String("product_id", productID), zap.Error(err))
	}
}
