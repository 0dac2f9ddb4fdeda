package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kondapalli/db"
	"kondapalli/middleware"
	"kondapalli/models"
	"kondapalli/utils"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("kondapalli/orders")

type ProductStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Reserve(ctx context.Context, id primitive.ObjectID, qty int) (stock int, ok bool, err error)
	Release(ctx context.Context, id primitive.ObjectID, qty int) (int, error)
}

type OrderStore interface {
	Insert(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByNumber(ctx context.Context, number string) (*models.Order, error)
	Find(ctx context.Context, f models.OrderFilter, skip, limit int64) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from models.OrderStatus, u models.OrderStatusUpdate) (*models.Order, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
	Totals(ctx context.Context, from, to time.Time) (models.OrderTotals, error)
	StatusCounts(ctx context.Context) (map[string]int64, error)
}

// Events receives committed order and stock changes.
type Events interface {
	OrderCreated(ctx context.Context, o *models.Order)
	OrderStatusChanged(ctx context.Context, o *models.Order)
	StockChanged(ctx context.Context, productID string, stock int)
}

// Pricing holds the shipping rule: free at or above the threshold, flat otherwise.
type Pricing struct {
	FreeShippingThreshold float64
	FlatShippingCost      float64
}

func (p Pricing) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(decimal.NewFromFloat(p.FreeShippingThreshold)) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(p.FlatShippingCost)
}

type ItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CreateRequest struct {
	Customer           *models.Customer       `json:"customer"`
	Items              []ItemRequest          `json:"items"`
	ShippingAddress    models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod      models.PaymentMethod   `json:"paymentMethod"`
	Notes              string                 `json:"notes"`
	IsCustomOrder      bool                   `json:"isCustomOrder"`
	CustomRequirements string                 `json:"customRequirements"`
}

func (r *CreateRequest) validate() error {
	if r.Customer == nil || len(r.Items) == 0 {
		return utils.BadRequest("Customer details and items are required")
	}
	r.Customer.Name = strings.TrimSpace(r.Customer.Name)
	r.Customer.Email = strings.ToLower(strings.TrimSpace(r.Customer.Email))
	r.Customer.Phone = strings.TrimSpace(r.Customer.Phone)
	if r.Customer.Name == "" || r.Customer.Email == "" || r.Customer.Phone == "" {
		return utils.BadRequest("Customer name, email and phone are required")
	}
	for _, it := range r.Items {
		if it.Quantity < 1 {
			return utils.BadRequestf("Quantity for product %s must be at least 1", it.ProductID)
		}
	}
	if !r.PaymentMethod.Valid() {
		return utils.BadRequest("Invalid payment method")
	}
	if r.ShippingAddress.Country == "" {
		r.ShippingAddress.Country = "India"
	}
	return nil
}

type reservation struct {
	id  primitive.ObjectID
	qty int
}

type Service struct {
	products ProductStore
	orders   OrderStore
	seq      *Sequencer
	events   Events
	pricing  Pricing
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(products ProductStore, orders OrderStore, counters CounterStore, events Events, pricing Pricing, loc *time.Location, logger *zap.Logger) *Service {
	return &Service{
		products: products,
		orders:   orders,
		seq:      NewSequencer(counters, orders, loc),
		events:   events,
		pricing:  pricing,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Create assembles and stores an order. Stock for every line is taken with a
// conditional decrement; if any line or the final insert fails, everything
// taken so far is given back and no order is stored.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "orders.create")
	defer span.End()

	if err := req.validate(); err != nil {
		middleware.RecordOrderFailure("validation")
		return nil, err
	}

	var reserved []reservation
	fail := func(reason string, err error) (*models.Order, error) {
		s.release(ctx, reserved)
		middleware.RecordOrderFailure(reason)
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		return nil, err
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(req.Items))
	stockAfter := make(map[primitive.ObjectID]int, len(req.Items))

	for _, it := range req.Items {
		id, err := primitive.ObjectIDFromHex(it.ProductID)
		if err != nil {
			return fail("product_not_found", utils.BadRequestf("Product with ID %s not found", it.ProductID))
		}
		p, err := s.products.FindByID(ctx, id)
		if errors.Is(err, db.ErrNotFound) {
			return fail("product_not_found", utils.BadRequestf("Product with ID %s not found", it.ProductID))
		}
		if err != nil {
			return fail("store", fmt.Errorf("load product %s: %w", it.ProductID, err))
		}
		if p.Stock < it.Quantity {
			return fail("insufficient_stock", insufficient(p.Title, p.Stock))
		}

		subtotal = subtotal.Add(decimal.NewFromFloat(p.SalePrice).Mul(decimal.NewFromInt(int64(it.Quantity))))
		items = append(items, models.OrderItem{
			Product:  p.ID,
			Quantity: it.Quantity,
			Price:    p.SalePrice,
			Title:    p.Title,
			Image:    p.FirstImage(),
		})

		left, ok, err := s.products.Reserve(ctx, id, it.Quantity)
		if err != nil {
			return fail("store", fmt.Errorf("reserve product %s: %w", it.ProductID, err))
		}
		if !ok {
			// another order took the stock between the read and the decrement
			available := 0
			if cur, err := s.products.FindByID(ctx, id); err == nil {
				available = cur.Stock
			}
			return fail("insufficient_stock", insufficient(p.Title, available))
		}
		reserved = append(reserved, reservation{id: id, qty: it.Quantity})
		stockAfter[id] = left
	}

	shipping := s.pricing.Shipping(subtotal)
	discount := decimal.Zero
	total := subtotal.Add(shipping).Sub(discount)

	now := s.now()
	order := &models.Order{
		Customer:           *req.Customer,
		Items:              items,
		Subtotal:           subtotal.InexactFloat64(),
		ShippingCost:       shipping.InexactFloat64(),
		Discount:           discount.InexactFloat64(),
		Total:              total.InexactFloat64(),
		Status:             models.OrderPending,
		ShippingAddress:    req.ShippingAddress,
		PaymentMethod:      req.PaymentMethod,
		PaymentStatus:      models.PaymentPending,
		Notes:              req.Notes,
		IsCustomOrder:      req.IsCustomOrder,
		CustomRequirements: req.CustomRequirements,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.insert(ctx, order); err != nil {
		return fail("store", err)
	}

	span.SetAttributes(
		attribute.String("order.number", order.OrderNumber),
		attribute.Float64("order.total", order.Total),
	)
	middleware.RecordOrderCreated()
	s.logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.Int("items", len(order.Items)),
		zap.Float64("total", order.Total),
	)

	s.events.OrderCreated(ctx, order)
	for id, left := range stockAfter {
		s.events.StockChanged(ctx, id.Hex(), left)
	}
	return order, nil
}

// insert numbers the order immediately before storing it. A number clash
// can only come from a counter that lags stored data, so the next number
// is tried.
func (s *Service) insert(ctx context.Context, order *models.Order) error {
	const attempts = 3
	for i := 0; i < attempts; i++ {
		number, err := s.seq.Next(ctx)
		if err != nil {
			return err
		}
		order.OrderNumber = number
		err = s.orders.Insert(ctx, order)
		if !errors.Is(err, db.ErrDuplicate) {
			if err != nil {
				return fmt.Errorf("insert order %s: %w", number, err)
			}
			return nil
		}
		s.logger.Warn("order number already taken", zap.String("order_number", number))
	}
	return fmt.Errorf("insert order: no free order number after %d attempts", attempts)
}

func (s *Service) release(ctx context.Context, reserved []reservation) {
	// the request may already be cancelled; stock must still go back
	ctx = context.WithoutCancel(ctx)
	for _, r := range reserved {
		left, err := s.products.Release(ctx, r.id, r.qty)
		if err != nil {
			s.logger.Error("stock not released",
				zap.String("product_id", r.id.Hex()),
				zap.Int("quantity", r.qty),
				zap.Error(err),
			)
			continue
		}
		s.events.StockChanged(ctx, r.id.Hex(), left)
	}
}

func insufficient(title string, available int) error {
	return utils.BadRequestf("Insufficient stock for %s. Available: %d", title, available)
}

func parseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, utils.BadRequest("Invalid order ID")
	}
	return id, nil
}

// List returns one page of orders, newest first.
func (s *Service) List(ctx context.Context, f models.OrderFilter, page, limit int) ([]models.Order, utils.Pagination, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, utils.Pagination{}, utils.BadRequest("Invalid order status")
	}
	orders, total, err := s.orders.Find(ctx, f, utils.Skip(page, limit), int64(limit))
	if err != nil {
		return nil, utils.Pagination{}, fmt.Errorf("list orders: %w", err)
	}
	return orders, utils.Paginate(page, limit, total), nil
}

// MyOrders lists the orders placed with email.
func (s *Service) MyOrders(ctx context.Context, email string, status models.OrderStatus, page, limit int) ([]models.Order, utils.Pagination, error) {
	if email == "" {
		return nil, utils.Pagination{}, utils.BadRequest("User email is required")
	}
	return s.List(ctx, models.OrderFilter{Email: strings.ToLower(email), Status: status}, page, limit)
}

func (s *Service) Get(ctx context.Context, idHex string) (*models.Order, error) {
	id, err := parseID(idHex)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, utils.NotFound("Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", idHex, err)
	}
	return o, nil
}

func (s *Service) Track(ctx context.Context, number string) (*models.Order, error) {
	o, err := s.orders.FindByNumber(ctx, strings.TrimSpace(number))
	if errors.Is(err, db.ErrNotFound) {
		return nil, utils.NotFound("Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("track order %s: %w", number, err)
	}
	return o, nil
}

// transitions lists the statuses reachable from each status. Delivered and
// cancelled orders are final.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:    {models.OrderConfirmed, models.OrderProcessing, models.OrderCancelled},
	models.OrderConfirmed:  {models.OrderProcessing, models.OrderShipped, models.OrderCancelled},
	models.OrderProcessing: {models.OrderShipped, models.OrderCancelled},
	models.OrderShipped:    {models.OrderDelivered},
}

// CanTransition reports whether an order may move from one status to
// another. Staying in place is always allowed so tracking details can be
// edited.
func CanTransition(from, to models.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type StatusRequest struct {
	Status            models.OrderStatus `json:"status"`
	TrackingNumber    string             `json:"trackingNumber"`
	EstimatedDelivery string             `json:"estimatedDelivery"`
	AdminNotes        string             `json:"adminNotes"`
}

// UpdateStatus moves an order along its lifecycle. Cancelling returns the
// order's items to stock.
func (s *Service) UpdateStatus(ctx context.Context, idHex string, req StatusRequest) (*models.Order, error) {
	id, err := parseID(idHex)
	if err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, utils.BadRequest("Invalid order status")
	}

	update := models.OrderStatusUpdate{Status: req.Status}
	if req.TrackingNumber != "" {
		update.TrackingNumber = &req.TrackingNumber
	}
	if req.EstimatedDelivery != "" {
		d, ok := utils.ParseDate(req.EstimatedDelivery, s.loc)
		if !ok {
			return nil, utils.BadRequest("Invalid estimated delivery date")
		}
		update.EstimatedDelivery = &d
	}
	if req.AdminNotes != "" {
		update.Notes = &req.AdminNotes
	}

	current, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, utils.NotFound("Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", idHex, err)
	}
	if !CanTransition(current.Status, req.Status) {
		return nil, utils.BadRequestf("Cannot change order status from %s to %s", current.Status, req.Status)
	}

	updated, err := s.orders.UpdateStatus(ctx, id, current.Status, update)
	if errors.Is(err, db.ErrNotFound) {
		return nil, utils.Conflict("Order was updated by someone else. Please retry.")
	}
	if err != nil {
		return nil, fmt.Errorf("update order %s: %w", idHex, err)
	}

	if updated.Status != current.Status {
		if updated.Status == models.OrderCancelled {
			s.restock(ctx, updated)
		}
		s.logger.Info("order status changed",
			zap.String("order_number", updated.OrderNumber),
			zap.String("from", string(current.Status)),
			zap.String("to", string(updated.Status)),
		)
		s.events.OrderStatusChanged(ctx, updated)
	}
	return updated, nil
}

func (s *Service) restock(ctx context.Context, o *models.Order) {
	items := make([]reservation, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, reservation{id: it.Product, qty: it.Quantity})
	}
	s.release(ctx, items)
}

type Stats struct {
	TotalOrders      int64            `json:"totalOrders"`
	TotalRevenue     float64          `json:"totalRevenue"`
	TodayOrders      int64            `json:"todayOrders"`
	TodayRevenue     float64          `json:"todayRevenue"`
	ThisMonthOrders  int64            `json:"thisMonthOrders"`
	ThisMonthRevenue float64          `json:"thisMonthRevenue"`
	StatusCounts     map[string]int64 `json:"statusCounts"`
}

// Stats summarises all orders, today's and this month's. Revenue leaves out
// cancelled orders.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now()
	today, _ := utils.DayBounds(now, s.loc)
	month := utils.MonthStart(now, s.loc)

	all, err := s.orders.Totals(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("order totals: %w", err)
	}
	day, err := s.orders.Totals(ctx, today, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("today's order totals: %w", err)
	}
	monthly, err := s.orders.Totals(ctx, month, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("month's order totals: %w", err)
	}
	counts, err := s.orders.StatusCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("order status counts: %w", err)
	}

	return &Stats{
		TotalOrders:      all.Count,
		TotalRevenue:     all.Revenue,
		TodayOrders:      day.Count,
		TodayRevenue:     day.Revenue,
		ThisMonthOrders:  monthly.Count,
		ThisMonthRevenue: monthly.Revenue,
		StatusCounts:     counts,
	}, nil
}
