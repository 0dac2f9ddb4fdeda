package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"kondapalli/db"
	"kondapalli/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memProducts struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*models.Product
}

func newMemProducts(ps ...*models.Product) *memProducts {
	m := &memProducts{products: map[primitive.ObjectID]*models.Product{}}
	for _, p := range ps {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		m.products[p.ID] = p
	}
	return m
}

func (m *memProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) Reserve(_ context.Context, id primitive.ObjectID, qty int) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.Stock < qty {
		return 0, false, nil
	}
	p.Stock -= qty
	return p.Stock, true, nil
}

func (m *memProducts) Release(_ context.Context, id primitive.ObjectID, qty int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return 0, db.ErrNotFound
	}
	p.Stock += qty
	return p.Stock, nil
}

func (m *memProducts) stock(id primitive.ObjectID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

type memOrders struct {
	mu        sync.Mutex
	orders    []*models.Order
	insertErr error
}

func (m *memOrders) Insert(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, existing := range m.orders {
		if existing.OrderNumber == o.OrderNumber {
			return db.ErrDuplicate
		}
	}
	o.ID = primitive.NewObjectID()
	cp := *o
	m.orders = append(m.orders, &cp)
	return nil
}

func (m *memOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memOrders) FindByNumber(_ context.Context, number string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.OrderNumber == number {
			cp := *o
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memOrders) Find(_ context.Context, f models.OrderFilter, skip, limit int64) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []models.Order
	for _, o := range m.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Email != "" && o.Customer.Email != f.Email {
			continue
		}
		if f.OrderNumber != "" && o.OrderNumber != f.OrderNumber {
			continue
		}
		matched = append(matched, *o)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	if skip > total {
		skip = total
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return matched[skip:end], total, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id primitive.ObjectID, from models.OrderStatus, u models.OrderStatusUpdate) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID != id || o.Status != from {
			continue
		}
		o.Status = u.Status
		if u.TrackingNumber != nil {
			o.TrackingNumber = *u.TrackingNumber
		}
		if u.EstimatedDelivery != nil {
			o.EstimatedDelivery = u.EstimatedDelivery
		}
		if u.Notes != nil {
			o.Notes = *u.Notes
		}
		cp := *o
		return &cp, nil
	}
	return nil, db.ErrNotFound
}

func (m *memOrders) CountCreatedBetween(_ context.Context, from, to time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, o := range m.orders {
		if !o.CreatedAt.Before(from) && o.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (m *memOrders) Totals(_ context.Context, from, to time.Time) (models.OrderTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var t models.OrderTotals
	for _, o := range m.orders {
		if !from.IsZero() && o.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !o.CreatedAt.Before(to) {
			continue
		}
		t.Count++
		if o.Status != models.OrderCancelled {
			t.Revenue += o.Total
		}
	}
	return t, nil
}

func (m *memOrders) StatusCounts(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, o := range m.orders {
		counts[string(o.Status)]++
	}
	return counts, nil
}

type memCounters struct {
	mu  sync.Mutex
	seq map[string]int64
}

func newMemCounters() *memCounters {
	return &memCounters{seq: map[string]int64{}}
}

func (m *memCounters) Increment(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.seq[key]
	if !ok {
		return 0, db.ErrNotFound
	}
	m.seq[key] = v + 1
	return v + 1, nil
}

func (m *memCounters) Init(_ context.Context, key string, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seq[key]; !ok {
		m.seq[key] = value
	}
	return nil
}

type recordedEvents struct {
	mu      sync.Mutex
	created []string
	changed []models.OrderStatus
	stock   map[string]int
}

func newRecordedEvents() *recordedEvents {
	return &recordedEvents{stock: map[string]int{}}
}

func (e *recordedEvents) OrderCreated(_ context.Context, o *models.Order) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.created = append(e.created, o.OrderNumber)
}

func (e *recordedEvents) OrderStatusChanged(_ context.Context, o *models.Order) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.changed = append(e.changed, o.Status)
}

func (e *recordedEvents) StockChanged(_ context.Context, productID string, stock int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stock[productID] = stock
}
