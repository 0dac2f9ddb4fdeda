package products

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"kondapalli/db"
	"kondapalli/models"
	"kondapalli/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"
)

type memStore struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*models.Product
	lastFind models.ProductFilter
}

func newMemStore(ps ...*models.Product) *memStore {
	m := &memStore{products: map[primitive.ObjectID]*models.Product{}}
	for _, p := range ps {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		m.products[p.ID] = p
	}
	return m
}

func (m *memStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) Find(_ context.Context, f models.ProductFilter, skip, limit int64) ([]models.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFind = f
	wanted := map[primitive.ObjectID]bool{}
	for _, id := range f.IDs {
		wanted[id] = true
	}
	var out []models.Product
	for _, p := range m.products {
		if f.Featured && !p.IsFeatured || f.FlashSale && !p.IsFlashSale {
			continue
		}
		if len(wanted) > 0 && !wanted[p.ID] {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if skip > total {
		skip = total
	}
	end := total
	if limit > 0 && skip+limit < total {
		end = skip + limit
	}
	return out[skip:end], total, nil
}

func (m *memStore) Insert(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now()
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memStore) Replace(_ context.Context, p *models.Product) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	m.products[p.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memStore) AppendImage(_ context.Context, id primitive.ObjectID, url string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	p.Images = append(p.Images, url)
	cp := *p
	return &cp, nil
}

func (m *memStore) Categories(context.Context) ([]models.CategoryCount, error) {
	return []models.CategoryCount{{Name: "Animals", Count: 2}}, nil
}

type stockLog map[string]int

func (s stockLog) StockChanged(_ context.Context, productID string, stock int) {
	s[productID] = stock
}

func toy(title string, stock int) *models.Product {
	return &models.Product{
		Title:         title,
		Description:   "Hand carved from tella poniki wood",
		OriginalPrice: 1200,
		SalePrice:     999,
		Discount:      17,
		Images:        []string{"/uploads/products/a.jpg"},
		Category:      "Animals",
		Rating:        4.5,
		Stock:         stock,
		CreatedAt:     time.Now(),
	}
}

func newService(t *testing.T, ps ...*models.Product) (*Service, *memStore, stockLog) {
	store := newMemStore(ps...)
	events := stockLog{}
	return NewService(store, events, zaptest.NewLogger(t)), store, events
}

func TestValidate(t *testing.T) {
	cases := map[string]func(p *models.Product){
		"Product title is required":          func(p *models.Product) { p.Title = "  " },
		"Product description is required":    func(p *models.Product) { p.Description = "" },
		"At least one image is required":     func(p *models.Product) { p.Images = nil },
		"Invalid category: Furniture":        func(p *models.Product) { p.Category = "Furniture" },
		"Price cannot be negative":           func(p *models.Product) { p.SalePrice = -1 },
		"Discount must be between 0 and 100": func(p *models.Product) { p.Discount = 101 },
		"Rating must be between 0 and 5":     func(p *models.Product) { p.Rating = 5.5 },
		"Stock cannot be negative":           func(p *models.Product) { p.Stock = -2 },
	}
	for msg, mutate := range cases {
		p := toy("Elephant", 1)
		mutate(p)
		err := Validate(p)
		require.Error(t, err, msg)
		assert.Equal(t, msg, err.Error())
		assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
	}

	p := toy("  Elephant  ", 1)
	require.NoError(t, Validate(p))
	assert.Equal(t, "Elephant", p.Title)
	require.NotNil(t, p.ShippingInfo)
	require.NotNil(t, p.ShippingInfo.Fragile)
	assert.True(t, *p.ShippingInfo.Fragile)
}

func TestListDefaultsToFeaturedSort(t *testing.T) {
	svc, store, _ := newService(t, toy("A", 1), toy("B", 1), toy("C", 1))

	products, p, err := svc.List(context.Background(), models.ProductFilter{}, 1, 2)
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, models.SortFeatured, store.lastFind.Sort)
	assert.Equal(t, int64(3), p.Total)
	assert.Equal(t, 2, p.TotalPages)

	_, _, err = svc.List(context.Background(), models.ProductFilter{Sort: models.SortPriceLow}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.SortPriceLow, store.lastFind.Sort)
}

func TestFeaturedAndFlashSaleLimits(t *testing.T) {
	var ps []*models.Product
	for i := 0; i < 10; i++ {
		p := toy("Toy", 1)
		p.IsFeatured = true
		p.IsFlashSale = true
		ps = append(ps, p)
	}
	svc, _, _ := newService(t, ps...)

	featured, err := svc.Featured(context.Background())
	require.NoError(t, err)
	assert.Len(t, featured, 8)

	flash, err := svc.FlashSale(context.Background())
	require.NoError(t, err)
	assert.Len(t, flash, 6)
}

func TestByIDs(t *testing.T) {
	a, b := toy("A", 1), toy("B", 1)
	svc, _, _ := newService(t, a, b, toy("C", 1))

	products, err := svc.ByIDs(context.Background(), []string{a.ID.Hex(), b.ID.Hex()})
	require.NoError(t, err)
	assert.Len(t, products, 2)

	_, err = svc.ByIDs(context.Background(), []string{"nope"})
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
}

func TestGetErrors(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Get(context.Background(), "bad")
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))

	_, err = svc.Get(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.Equal(t, "Product not found", err.Error())
}

func TestCreate(t *testing.T) {
	svc, store, _ := newService(t)

	p, err := svc.Create(context.Background(), toy("Dancing Doll", 4))
	require.NoError(t, err)
	assert.False(t, p.ID.IsZero())
	assert.Len(t, store.products, 1)

	bad := toy("Doll", 1)
	bad.Category = "Vehicles"
	_, err = svc.Create(context.Background(), bad)
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
	assert.Len(t, store.products, 1)
}

func TestUpdatePatchesFieldsAndPublishesStock(t *testing.T) {
	p := toy("Elephant", 5)
	created := p.CreatedAt
	svc, _, events := newService(t, p)

	updated, err := svc.Update(context.Background(), p.ID.Hex(), []byte(`{"stock": 9, "salePrice": 899}`))
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Stock)
	assert.Equal(t, 899.0, updated.SalePrice)
	assert.Equal(t, "Elephant", updated.Title)
	assert.True(t, created.Equal(updated.CreatedAt))
	assert.Equal(t, 9, events[p.ID.Hex()])

	delete(events, p.ID.Hex())
	_, err = svc.Update(context.Background(), p.ID.Hex(), []byte(`{"title": "Royal Elephant"}`))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUpdateRejects(t *testing.T) {
	p := toy("Elephant", 5)
	svc, store, _ := newService(t, p)

	_, err := svc.Update(context.Background(), p.ID.Hex(), []byte(`{"colour": "red"}`))
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))

	_, err = svc.Update(context.Background(), p.ID.Hex(), []byte(`{"discount": 150}`))
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
	assert.Equal(t, 17.0, store.products[p.ID].Discount)

	_, err = svc.Update(context.Background(), primitive.NewObjectID().Hex(), []byte(`{}`))
	assert.Equal(t, http.StatusNotFound, utils.StatusOf(err))
}

func TestDeleteAndAddImage(t *testing.T) {
	p := toy("Elephant", 5)
	svc, store, _ := newService(t, p)

	got, err := svc.AddImage(context.Background(), p.ID.Hex(), "/uploads/products/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/products/a.jpg", "/uploads/products/b.jpg"}, got.Images)

	require.NoError(t, svc.Delete(context.Background(), p.ID.Hex()))
	assert.Empty(t, store.products)

	err = svc.Delete(context.Background(), p.ID.Hex())
	assert.Equal(t, http.StatusNotFound, utils.StatusOf(err))
}
