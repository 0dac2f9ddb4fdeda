package orders

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"kondapalli/models"
	"kondapalli/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"
)

var testNow = time.Date(2025, 10, 18, 14, 30, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	products *memProducts
	orders   *memOrders
	counters *memCounters
	events   *recordedEvents
}

func newFixture(t *testing.T, ps ...*models.Product) *fixture {
	f := &fixture{
		products: newMemProducts(ps...),
		orders:   &memOrders{},
		counters: newMemCounters(),
		events:   newRecordedEvents(),
	}
	f.svc = NewService(f.products, f.orders, f.counters, f.events,
		Pricing{FreeShippingThreshold: 499, FlatShippingCost: 100},
		time.UTC, zaptest.NewLogger(t))
	f.setNow(testNow)
	return f
}

func (f *fixture) setNow(now time.Time) {
	f.svc.now = func() time.Time { return now }
	f.svc.seq.now = f.svc.now
}

func product(title string, price float64, stock int) *models.Product {
	return &models.Product{
		ID:        primitive.NewObjectID(),
		Title:     title,
		SalePrice: price,
		Stock:     stock,
		Images:    []string{"/static/" + title + ".jpg", "/static/alt.jpg"},
	}
}

func request(items ...ItemRequest) CreateRequest {
	return CreateRequest{
		Customer:      &models.Customer{Name: "Lakshmi", Email: "Lakshmi@Example.com", Phone: "9876543210"},
		Items:         items,
		PaymentMethod: models.PayUPI,
		ShippingAddress: models.ShippingAddress{
			Street: "12 Temple Road", City: "Vijayawada", State: "AP", Pincode: "520001",
		},
	}
}

func item(p *models.Product, qty int) ItemRequest {
	return ItemRequest{ProductID: p.ID.Hex(), Quantity: qty}
}

func TestCreateOrderComputesTotalsAndTakesStock(t *testing.T) {
	elephant := product("Ambari Elephant", 1000, 5)
	f := newFixture(t, elephant)

	order, err := f.svc.Create(context.Background(), request(item(elephant, 3)))
	require.NoError(t, err)

	assert.Equal(t, "KO251018001", order.OrderNumber)
	assert.Equal(t, 3000.0, order.Subtotal)
	assert.Equal(t, 0.0, order.ShippingCost)
	assert.Equal(t, 0.0, order.Discount)
	assert.Equal(t, 3000.0, order.Total)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, "lakshmi@example.com", order.Customer.Email)
	assert.Equal(t, "India", order.ShippingAddress.Country)
	assert.Equal(t, 2, f.products.stock(elephant.ID))

	require.Len(t, order.Items, 1)
	assert.Equal(t, models.OrderItem{
		Product:  elephant.ID,
		Quantity: 3,
		Price:    1000,
		Title:    "Ambari Elephant",
		Image:    "/static/Ambari Elephant.jpg",
	}, order.Items[0])

	assert.Equal(t, []string{"KO251018001"}, f.events.created)
	assert.Equal(t, 2, f.events.stock[elephant.ID.Hex()])
}

func TestShippingThreshold(t *testing.T) {
	cases := []struct {
		price    float64
		shipping float64
		total    float64
	}{
		{498, 100, 598},
		{499, 0, 499},
		{499.99, 0, 499.99},
		{120, 100, 220},
	}
	for _, tc := range cases {
		p := product("Parrot", tc.price, 10)
		f := newFixture(t, p)
		order, err := f.svc.Create(context.Background(), request(item(p, 1)))
		require.NoError(t, err)
		assert.Equal(t, tc.shipping, order.ShippingCost, "price %v", tc.price)
		assert.Equal(t, tc.total, order.Total, "price %v", tc.price)
	}
}

func TestPricingShippingUsesExactDecimals(t *testing.T) {
	p := Pricing{FreeShippingThreshold: 499, FlatShippingCost: 100}
	// 0.1 + 0.2 style drift must not push a subtotal under the threshold
	sub := decimal.NewFromFloat(166.33).Mul(decimal.NewFromInt(3)).Add(decimal.NewFromFloat(0.01))
	assert.True(t, p.Shipping(sub).IsZero())
	assert.True(t, p.Shipping(decimal.NewFromFloat(498.99)).Equal(decimal.NewFromInt(100)))
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	horse := product("Dancing Horse", 700, 2)
	f := newFixture(t, horse)

	_, err := f.svc.Create(context.Background(), request(item(horse, 3)))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
	assert.Equal(t, "Insufficient stock for Dancing Horse. Available: 2", err.Error())
	assert.Equal(t, 2, f.products.stock(horse.ID))
	assert.Empty(t, f.orders.orders)
}

func TestCreateOrderUnknownProductReleasesEarlierItems(t *testing.T) {
	doll := product("Bride Doll", 350, 4)
	f := newFixture(t, doll)
	missing := primitive.NewObjectID().Hex()

	_, err := f.svc.Create(context.Background(), request(
		item(doll, 2),
		ItemRequest{ProductID: missing, Quantity: 1},
	))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
	assert.Equal(t, "Product with ID "+missing+" not found", err.Error())
	assert.Equal(t, 4, f.products.stock(doll.ID))
	assert.Empty(t, f.orders.orders)
	assert.Equal(t, 4, f.events.stock[doll.ID.Hex()])
}

func TestCreateOrderMalformedProductID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), request(ItemRequest{ProductID: "not-an-id", Quantity: 1}))
	assert.Equal(t, "Product with ID not-an-id not found", err.Error())
}

func TestCreateOrderInsertFailureReleasesStock(t *testing.T) {
	cart := product("Bullock Cart", 900, 3)
	f := newFixture(t, cart)
	f.orders.insertErr = errors.New("connection reset")

	_, err := f.svc.Create(context.Background(), request(item(cart, 2)))
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, utils.StatusOf(err))
	assert.Equal(t, 3, f.products.stock(cart.ID))
}

func TestCreateOrderValidation(t *testing.T) {
	p := product("Peacock", 250, 5)
	f := newFixture(t, p)

	noItems := request()
	_, err := f.svc.Create(context.Background(), noItems)
	assert.EqualError(t, err, "Customer details and items are required")

	noCustomer := request(item(p, 1))
	noCustomer.Customer = nil
	_, err = f.svc.Create(context.Background(), noCustomer)
	assert.EqualError(t, err, "Customer details and items are required")

	zeroQty := request(item(p, 0))
	_, err = f.svc.Create(context.Background(), zeroQty)
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))

	badPay := request(item(p, 1))
	badPay.PaymentMethod = "barter"
	_, err = f.svc.Create(context.Background(), badPay)
	assert.EqualError(t, err, "Invalid payment method")

	assert.Equal(t, 5, f.products.stock(p.ID))
}

func TestOrderNumberFollowsTodaysCount(t *testing.T) {
	p := product("Ganesha", 600, 100)
	f := newFixture(t, p)

	yesterday := testNow.AddDate(0, 0, -1)
	for i, at := range []time.Time{yesterday, testNow.Add(-3 * time.Hour), testNow.Add(-2 * time.Hour), testNow.Add(-time.Hour)} {
		f.orders.orders = append(f.orders.orders, &models.Order{
			ID:          primitive.NewObjectID(),
			OrderNumber: FormatOrderNumber(at, int64(i)),
			CreatedAt:   at,
		})
	}

	first, err := f.svc.Create(context.Background(), request(item(p, 1)))
	require.NoError(t, err)
	second, err := f.svc.Create(context.Background(), request(item(p, 1)))
	require.NoError(t, err)

	assert.Equal(t, "KO251018004", first.OrderNumber)
	assert.Equal(t, "KO251018005", second.OrderNumber)

	f.setNow(testNow.AddDate(0, 0, 1))
	next, err := f.svc.Create(context.Background(), request(item(p, 1)))
	require.NoError(t, err)
	assert.Equal(t, "KO251019001", next.OrderNumber)
}

func TestOrderNumberSkipsTakenNumber(t *testing.T) {
	p := product("Ganesha", 600, 10)
	f := newFixture(t, p)
	// the counter lags behind an order that already holds 001
	require.NoError(t, f.counters.Init(context.Background(), "orders:251018", 0))
	f.orders.orders = append(f.orders.orders, &models.Order{
		ID:          primitive.NewObjectID(),
		OrderNumber: "KO251018001",
		CreatedAt:   testNow.AddDate(0, 0, -1),
	})

	order, err := f.svc.Create(context.Background(), request(item(p, 1)))
	require.NoError(t, err)
	assert.Equal(t, "KO251018002", order.OrderNumber)
}

func TestItemSnapshotsSurviveProductEdits(t *testing.T) {
	p := product("Krishna", 800, 5)
	f := newFixture(t, p)

	order, err := f.svc.Create(context.Background(), request(item(p, 1)))
	require.NoError(t, err)

	f.products.mu.Lock()
	f.products.products[p.ID].SalePrice = 950
	f.products.products[p.ID].Title = "Krishna (large)"
	f.products.mu.Unlock()

	stored, err := f.svc.Get(context.Background(), order.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 800.0, stored.Items[0].Price)
	assert.Equal(t, "Krishna", stored.Items[0].Title)
}

func TestConcurrentOrdersForLastUnit(t *testing.T) {
	last := product("Dasavatharam Set", 2500, 1)
	f := newFixture(t, last)

	const buyers = 8
	var wg sync.WaitGroup
	errs := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), request(item(last, 1)))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.products.stock(last.ID))
	assert.Len(t, f.orders.orders, 1)
}

func TestCanTransition(t *testing.T) {
	allowed := map[models.OrderStatus][]models.OrderStatus{
		models.OrderPending:    {models.OrderPending, models.OrderConfirmed, models.OrderProcessing, models.OrderCancelled},
		models.OrderConfirmed:  {models.OrderConfirmed, models.OrderProcessing, models.OrderShipped, models.OrderCancelled},
		models.OrderProcessing: {models.OrderProcessing, models.OrderShipped, models.OrderCancelled},
		models.OrderShipped:    {models.OrderShipped, models.OrderDelivered},
		models.OrderDelivered:  {models.OrderDelivered},
		models.OrderCancelled:  {models.OrderCancelled},
	}
	for _, from := range models.OrderStatuses {
		for _, to := range models.OrderStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	p := product("Village Set", 1200, 4)
	f := newFixture(t, p)
	order, err := f.svc.Create(context.Background(), request(item(p, 2)))
	require.NoError(t, err)
	id := order.ID.Hex()

	updated, err := f.svc.UpdateStatus(context.Background(), id, StatusRequest{
		Status:            models.OrderShipped,
		TrackingNumber:    "IP123456789IN",
		EstimatedDelivery: "2025-10-24",
	})
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err), "pending cannot jump to shipped")
	assert.Nil(t, updated)

	updated, err = f.svc.UpdateStatus(context.Background(), id, StatusRequest{Status: models.OrderConfirmed, AdminNotes: "gift wrap"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, updated.Status)
	assert.Equal(t, "gift wrap", updated.Notes)

	updated, err = f.svc.UpdateStatus(context.Background(), id, StatusRequest{
		Status:            models.OrderShipped,
		TrackingNumber:    "IP123456789IN",
		EstimatedDelivery: "2025-10-24",
	})
	require.NoError(t, err)
	assert.Equal(t, "IP123456789IN", updated.TrackingNumber)
	require.NotNil(t, updated.EstimatedDelivery)
	assert.Equal(t, time.Date(2025, 10, 24, 0, 0, 0, 0, time.UTC), *updated.EstimatedDelivery)

	_, err = f.svc.UpdateStatus(context.Background(), id, StatusRequest{Status: models.OrderCancelled})
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err), "shipped orders cannot be cancelled")

	assert.Equal(t, []models.OrderStatus{models.OrderConfirmed, models.OrderShipped}, f.events.changed)
}

func TestUpdateStatusCancelRestocks(t *testing.T) {
	p := product("Village Set", 1200, 4)
	f := newFixture(t, p)
	order, err := f.svc.Create(context.Background(), request(item(p, 3)))
	require.NoError(t, err)
	require.Equal(t, 1, f.products.stock(p.ID))

	_, err = f.svc.UpdateStatus(context.Background(), order.ID.Hex(), StatusRequest{Status: models.OrderCancelled})
	require.NoError(t, err)
	assert.Equal(t, 4, f.products.stock(p.ID))

	// a repeated cancel is a no-op
	_, err = f.svc.UpdateStatus(context.Background(), order.ID.Hex(), StatusRequest{Status: models.OrderCancelled})
	require.NoError(t, err)
	assert.Equal(t, 4, f.products.stock(p.ID))
}

func TestUpdateStatusErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateStatus(context.Background(), "xyz", StatusRequest{Status: models.OrderConfirmed})
	assert.EqualError(t, err, "Invalid order ID")

	_, err = f.svc.UpdateStatus(context.Background(), primitive.NewObjectID().Hex(), StatusRequest{Status: "lost"})
	assert.EqualError(t, err, "Invalid order status")

	_, err = f.svc.UpdateStatus(context.Background(), primitive.NewObjectID().Hex(), StatusRequest{Status: models.OrderConfirmed})
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestGetAndTrack(t *testing.T) {
	p := product("Garuda", 450, 3)
	f := newFixture(t, p)
	order, err := f.svc.Create(context.Background(), request(item(p, 1)))
	require.NoError(t, err)

	got, err := f.svc.Track(context.Background(), order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.svc.Track(context.Background(), "KO000000999")
	assert.EqualError(t, err, "Order not found")

	_, err = f.svc.Get(context.Background(), primitive.NewObjectID().Hex())
	assert.EqualError(t, err, "Order not found")

	_, err = f.svc.Get(context.Background(), "bad")
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
}

func TestListPagination(t *testing.T) {
	p := product("Toy Top", 600, 100)
	f := newFixture(t, p)
	for i := 0; i < 25; i++ {
		f.setNow(testNow.Add(time.Duration(i) * time.Minute))
		_, err := f.svc.Create(context.Background(), request(item(p, 1)))
		require.NoError(t, err)
	}

	orders, page, err := f.svc.List(context.Background(), models.OrderFilter{}, 3, 10)
	require.NoError(t, err)
	assert.Len(t, orders, 5)
	assert.Equal(t, utils.Paginate(3, 10, 25), page)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.HasNextPage)
	assert.True(t, page.HasPrevPage)

	first, _, err := f.svc.List(context.Background(), models.OrderFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "KO251018025", first[0].OrderNumber, "newest first")

	_, _, err = f.svc.List(context.Background(), models.OrderFilter{Status: "lost"}, 1, 10)
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))

	mine, page, err := f.svc.MyOrders(context.Background(), "LAKSHMI@example.com", "", 1, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 10)
	assert.Equal(t, int64(25), page.Total)

	_, _, err = f.svc.MyOrders(context.Background(), "", "", 1, 10)
	assert.EqualError(t, err, "User email is required")
}

func TestStats(t *testing.T) {
	p := product("Lion", 1000, 100)
	f := newFixture(t, p)

	f.orders.orders = append(f.orders.orders,
		&models.Order{ID: primitive.NewObjectID(), OrderNumber: "old", Total: 500, Status: models.OrderDelivered, CreatedAt: testNow.AddDate(0, -2, 0)},
		&models.Order{ID: primitive.NewObjectID(), OrderNumber: "month", Total: 700, Status: models.OrderShipped, CreatedAt: testNow.AddDate(0, 0, -5)},
		&models.Order{ID: primitive.NewObjectID(), OrderNumber: "gone", Total: 900, Status: models.OrderCancelled, CreatedAt: testNow.Add(-time.Hour)},
	)
	_, err := f.svc.Create(context.Background(), request(item(p, 1)))
	require.NoError(t, err)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalOrders)
	assert.Equal(t, 2200.0, stats.TotalRevenue)
	assert.Equal(t, int64(2), stats.TodayOrders)
	assert.Equal(t, 1000.0, stats.TodayRevenue)
	assert.Equal(t, int64(3), stats.ThisMonthOrders)
	assert.Equal(t, 1700.0, stats.ThisMonthRevenue)
	assert.Equal(t, map[string]int64{"delivered": 1, "shipped": 1, "cancelled": 1, "pending": 1}, stats.StatusCounts)
}
