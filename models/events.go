package models

import "time"

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is published on the order topic after a committed change.
type OrderEvent struct {
	EventType   string      `json:"event_type"`
	OrderID     string      `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	Status      OrderStatus `json:"status"`
	Total       float64     `json:"total"`
	Email       string      `json:"email"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// StockEvent announces the stock level of a product after it changed.
type StockEvent struct {
	ProductID string    `json:"product_id"`
	Stock     int       `json:"stock"`
	At        time.Time `json:"at"`
}

// IdempotencyRecord stores the first response produced for an Idempotency-Key.
type IdempotencyRecord struct {
	Key         string                 `bson:"key" json:"key"`
	Method      string                 `bson:"method" json:"method"`
	Path        string                 `bson:"path" json:"path"`
	UserID      string                 `bson:"userId" json:"userId"`
	RequestHash string                 `bson:"requestHash" json:"requestHash"`
	Response    map[string]interface{} `bson:"response,omitempty" json:"response,omitempty"`
	CreatedAt   time.Time              `bson:"createdAt" json:"createdAt"`
	ExpiresAt   time.Time              `bson:"expiresAt" json:"expiresAt"`
}
