package products

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"kondapalli/db"
	"kondapalli/models"
	"kondapalli/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	featuredLimit  = 8
	flashSaleLimit = 6
)

type Store interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Find(ctx context.Context, f models.ProductFilter, skip, limit int64) ([]models.Product, int64, error)
	Insert(ctx context.Context, p *models.Product) error
	Replace(ctx context.Context, p *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AppendImage(ctx context.Context, id primitive.ObjectID, url string) (*models.Product, error)
	Categories(ctx context.Context) ([]models.CategoryCount, error)
}

// StockEvents is told about stock levels set by hand.
type StockEvents interface {
	StockChanged(ctx context.Context, productID string, stock int)
}

type Service struct {
	store  Store
	events StockEvents
	logger *zap.Logger
}

func NewService(store Store, events StockEvents, logger *zap.Logger) *Service {
	return &Service{store: store, events: events, logger: logger}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, utils.BadRequest("Invalid product ID")
	}
	return oid, nil
}

func notFound(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return utils.NotFound("Product not found")
	}
	return err
}

// List returns one page of the catalogue. An empty sort orders featured
// products first.
func (s *Service) List(ctx context.Context, f models.ProductFilter, page, limit int) ([]models.Product, utils.Pagination, error) {
	if f.Sort == "" {
		f.Sort = models.SortFeatured
	}
	products, total, err := s.store.Find(ctx, f, utils.Skip(page, limit), int64(limit))
	if err != nil {
		return nil, utils.Pagination{}, fmt.Errorf("list products: %w", err)
	}
	return products, utils.Paginate(page, limit, total), nil
}

// ByIDs loads every product in ids with no paging.
func (s *Service) ByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	f := models.ProductFilter{Sort: models.SortNewest}
	for _, id := range ids {
		oid, err := parseID(id)
		if err != nil {
			return nil, err
		}
		f.IDs = append(f.IDs, oid)
	}
	products, _, err := s.store.Find(ctx, f, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("products by id: %w", err)
	}
	return products, nil
}

func (s *Service) Featured(ctx context.Context) ([]models.Product, error) {
	products, _, err := s.store.Find(ctx, models.ProductFilter{Featured: true, Sort: models.SortNewest}, 0, featuredLimit)
	if err != nil {
		return nil, fmt.Errorf("featured products: %w", err)
	}
	return products, nil
}

func (s *Service) FlashSale(ctx context.Context) ([]models.Product, error) {
	products, _, err := s.store.Find(ctx, models.ProductFilter{FlashSale: true, Sort: models.SortNewest}, 0, flashSaleLimit)
	if err != nil {
		return nil, fmt.Errorf("flash sale products: %w", err)
	}
	return products, nil
}

func (s *Service) Categories(ctx context.Context) ([]models.CategoryCount, error) {
	cats, err := s.store.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("product categories: %w", err)
	}
	return cats, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.store.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// Validate checks the fields a product must carry before it is stored.
func Validate(p *models.Product) error {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	switch {
	case p.Title == "":
		return utils.BadRequest("Product title is required")
	case len(p.Title) > 100:
		return utils.BadRequest("Title cannot exceed 100 characters")
	case p.Description == "":
		return utils.BadRequest("Product description is required")
	case len(p.Description) > 2000:
		return utils.BadRequest("Description cannot exceed 2000 characters")
	case len(p.Images) == 0:
		return utils.BadRequest("At least one image is required")
	case !models.ValidCategory(p.Category):
		return utils.BadRequestf("Invalid category: %s", p.Category)
	case p.OriginalPrice < 0 || p.SalePrice < 0:
		return utils.BadRequest("Price cannot be negative")
	case p.Discount < 0 || p.Discount > 100:
		return utils.BadRequest("Discount must be between 0 and 100")
	case p.Rating < 0 || p.Rating > 5:
		return utils.BadRequest("Rating must be between 0 and 5")
	case p.Reviews < 0:
		return utils.BadRequest("Reviews cannot be negative")
	case p.Stock < 0:
		return utils.BadRequest("Stock cannot be negative")
	}
	if p.ShippingInfo == nil {
		p.ShippingInfo = &models.ShippingInfo{}
	}
	if p.ShippingInfo.Fragile == nil {
		fragile := true
		p.ShippingInfo.Fragile = &fragile
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	p.ID = primitive.NilObjectID
	if err := Validate(p); err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	s.logger.Info("product created", zap.String("id", p.ID.Hex()), zap.String("title", p.Title))
	return p, nil
}

// Update applies a JSON patch body onto the stored product. Fields absent
// from the body keep their current values.
func (s *Service) Update(ctx context.Context, id string, body []byte) (*models.Product, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *current
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		return nil, utils.BadRequestf("Invalid request body: %v", err)
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt

	if err := Validate(&next); err != nil {
		return nil, err
	}
	updated, err := s.store.Replace(ctx, &next)
	if err != nil {
		return nil, notFound(err)
	}
	if updated.Stock != current.Stock {
		s.events.StockChanged(ctx, updated.ID.Hex(), updated.Stock)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, oid); err != nil {
		return notFound(err)
	}
	s.logger.Info("product deleted", zap.String("id", id))
	return nil
}

func (s *Service) AddImage(ctx context.Context, id, url string) (*models.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.store.AppendImage(ctx, oid, url)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}
