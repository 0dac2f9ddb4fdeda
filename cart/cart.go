package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"kondapalli/db"
	"kondapalli/models"
	"kondapalli/orders"
	"kondapalli/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ProductFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

// Checker compares a submitted cart with live prices and stock. It never
// writes anything.
type Checker struct {
	products ProductFinder
	pricing  orders.Pricing
}

func NewChecker(products ProductFinder, pricing orders.Pricing) *Checker {
	return &Checker{products: products, pricing: pricing}
}

func (c *Checker) Validate(ctx context.Context, lines []models.CartLine) (*models.CartCheck, error) {
	if len(lines) == 0 {
		return nil, utils.BadRequest("Items are required")
	}

	// A product listed on several lines must cover their combined quantity.
	wanted := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.Quantity > 0 {
			wanted[strings.ToLower(line.ProductID)] += line.Quantity
		}
	}

	check := &models.CartCheck{Items: make([]models.CartLineCheck, 0, len(lines)), Valid: true}
	subtotal := decimal.Zero
	for _, line := range lines {
		lc, err := c.line(ctx, line, wanted[strings.ToLower(line.ProductID)])
		if err != nil {
			return nil, err
		}
		if lc.OK {
			subtotal = subtotal.Add(decimal.NewFromFloat(lc.Price).Mul(decimal.NewFromInt(int64(lc.Requested))))
		} else {
			check.Valid = false
		}
		check.Items = append(check.Items, lc)
	}

	shipping := c.pricing.Shipping(subtotal)
	if subtotal.IsZero() {
		shipping = decimal.Zero
	}
	check.Subtotal = subtotal.InexactFloat64()
	check.ShippingCost = shipping.InexactFloat64()
	check.Total = subtotal.Add(shipping).InexactFloat64()
	return check, nil
}

func (c *Checker) line(ctx context.Context, line models.CartLine, wanted int) (models.CartLineCheck, error) {
	lc := models.CartLineCheck{Requested: line.Quantity}
	id, err := primitive.ObjectIDFromHex(line.ProductID)
	if err != nil {
		lc.Reason = "Invalid product ID"
		return lc, nil
	}
	lc.ProductID = id
	if line.Quantity < 1 {
		lc.Reason = "Quantity must be at least 1"
		return lc, nil
	}

	p, err := c.products.FindByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		lc.Reason = "Product not found"
		return lc, nil
	}
	if err != nil {
		return lc, fmt.Errorf("load product %s: %w", line.ProductID, err)
	}

	lc.Title = p.Title
	lc.Image = p.FirstImage()
	lc.Price = p.SalePrice
	lc.Available = p.Stock
	switch {
	case p.Stock == 0:
		lc.Reason = "Out of stock"
	case p.Stock < wanted:
		lc.Reason = fmt.Sprintf("Only %d left in stock", p.Stock)
	default:
		lc.OK = true
	}
	return lc, nil
}

type Handler struct {
	checker *Checker
	logger  *zap.Logger
	debug   bool
}

func NewHandler(checker *Checker, logger *zap.Logger, debug bool) *Handler {
	return &Handler{checker: checker, logger: logger, debug: debug}
}

// POST /api/cart/validate
func (h *Handler) ValidateCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body struct {
		Items []models.CartLine `json:"items"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithErr(w, h.logger, err, h.debug)
		return
	}
	check, err := h.checker.Validate(ctx, body.Items)
	if err != nil {
		utils.RespondWithErr(w, h.logger, err, h.debug)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, check)
}
