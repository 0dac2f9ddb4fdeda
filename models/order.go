package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PayBankTransfer  PaymentMethod = "bank_transfer"
	PayUPI           PaymentMethod = "upi"
	PayDigitalWallet PaymentMethod = "digital_wallet"
	PayCOD           PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PayBankTransfer, PayUPI, PayDigitalWallet, PayCOD:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Customer is copied into the order at checkout time.
type Customer struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
	Phone string `json:"phone" bson:"phone"`
}

// OrderItem is an immutable snapshot of a product line.
type OrderItem struct {
	Product  primitive.ObjectID `json:"product" bson:"product"`
	Quantity int                `json:"quantity" bson:"quantity"`
	Price    float64            `json:"price" bson:"price"`
	Title    string             `json:"title" bson:"title"`
	Image    string             `json:"image" bson:"image"`
}

type ShippingAddress struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
	Pincode string `json:"pincode" bson:"pincode"`
	Country string `json:"country" bson:"country"`
}

type Order struct {
	ID                 primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	OrderNumber        string             `json:"orderNumber" bson:"orderNumber"`
	Customer           Customer           `json:"customer" bson:"customer"`
	Items              []OrderItem        `json:"items" bson:"items"`
	Subtotal           float64            `json:"subtotal" bson:"subtotal"`
	ShippingCost       float64            `json:"shippingCost" bson:"shippingCost"`
	Discount           float64            `json:"discount" bson:"discount"`
	Total              float64            `json:"total" bson:"total"`
	Status             OrderStatus        `json:"status" bson:"status"`
	ShippingAddress    ShippingAddress    `json:"shippingAddress" bson:"shippingAddress"`
	PaymentMethod      PaymentMethod      `json:"paymentMethod" bson:"paymentMethod"`
	PaymentStatus      PaymentStatus      `json:"paymentStatus" bson:"paymentStatus"`
	Notes              string             `json:"notes,omitempty" bson:"notes,omitempty"`
	EstimatedDelivery  *time.Time         `json:"estimatedDelivery,omitempty" bson:"estimatedDelivery,omitempty"`
	TrackingNumber     string             `json:"trackingNumber,omitempty" bson:"trackingNumber,omitempty"`
	IsCustomOrder      bool               `json:"isCustomOrder" bson:"isCustomOrder"`
	CustomRequirements string             `json:"customRequirements,omitempty" bson:"customRequirements,omitempty"`
	CreatedAt          time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// OrderSummary is the compact shape returned after checkout.
type OrderSummary struct {
	ID          primitive.ObjectID `json:"id"`
	OrderNumber string             `json:"orderNumber"`
	Total       float64            `json:"total"`
	Status      OrderStatus        `json:"status"`
}

func (o *Order) Summary() OrderSummary {
	return OrderSummary{ID: o.ID, OrderNumber: o.OrderNumber, Total: o.Total, Status: o.Status}
}

// OrderFilter fields are ANDed; empty fields are ignored.
type OrderFilter struct {
	Status      OrderStatus
	Email       string
	OrderNumber string
}

// OrderStatusUpdate carries the admin-editable fields of an order.
type OrderStatusUpdate struct {
	Status            OrderStatus
	TrackingNumber    *string
	EstimatedDelivery *time.Time
	Notes             *string
}

// OrderTotals aggregates a window of orders. Revenue skips cancelled orders.
type OrderTotals struct {
	Count   int64   `json:"count" bson:"count"`
	Revenue float64 `json:"revenue" bson:"revenue"`
}
