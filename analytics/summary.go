package analytics

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"kondapalli/models"
	"kondapalli/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultDays = 30
	maxDays     = 365
	recentLimit = 5
	topLimit    = 5
)

type OrderStats interface {
	Totals(ctx context.Context, from, to time.Time) (models.OrderTotals, error)
	Recent(ctx context.Context, n int64) ([]models.Order, error)
}

type ProductStats interface {
	Count(ctx context.Context) (int64, error)
	TopRated(ctx context.Context, n int64) ([]models.Product, error)
}

type UserStats interface {
	Count(ctx context.Context) (int64, error)
}

type Service struct {
	orders   OrderStats
	products ProductStats
	users    UserStats
	now      func() time.Time
}

func NewService(orders OrderStats, products ProductStats, users UserStats) *Service {
	return &Service{orders: orders, products: products, users: users, now: time.Now}
}

type TopProduct struct {
	ID        string  `json:"_id"`
	Title     string  `json:"title"`
	Image     string  `json:"image"`
	SalePrice float64 `json:"salePrice"`
	Rating    float64 `json:"rating"`
}

type Summary struct {
	TotalUsers        int64          `json:"totalUsers"`
	TotalProducts     int64          `json:"totalProducts"`
	TotalOrders       int64          `json:"totalOrders"`
	TotalRevenue      float64        `json:"totalRevenue"`
	RecentOrders      []models.Order `json:"recentOrders"`
	TopProducts       []TopProduct   `json:"topProducts"`
	MonthlyRevenue    float64        `json:"monthlyRevenue"`
	OrderGrowth       float64        `json:"orderGrowth"`
	RevenueGrowth     float64        `json:"revenueGrowth"`
	AverageOrderValue float64        `json:"averageOrderValue"`
	Days              int            `json:"days"`
}

// Growth is the percentage change from prev to cur rounded to one decimal.
// A window that grows from nothing counts as 100%.
func Growth(cur, prev float64) float64 {
	if prev == 0 {
		if cur > 0 {
			return 100
		}
		return 0
	}
	return math.Round((cur-prev)/prev*1000) / 10
}

// Summary compares the last days days with the window before it.
func (s *Service) Summary(ctx context.Context, days int) (*Summary, error) {
	now := s.now()
	start := now.AddDate(0, 0, -days)
	prevStart := start.AddDate(0, 0, -days)

	out := &Summary{Days: days}
	var all, cur, prev models.OrderTotals
	var top []models.Product

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TotalUsers, err = s.users.Count(gctx)
		return wrap("count users", err)
	})
	g.Go(func() (err error) {
		out.TotalProducts, err = s.products.Count(gctx)
		return wrap("count products", err)
	})
	g.Go(func() (err error) {
		all, err = s.orders.Totals(gctx, time.Time{}, time.Time{})
		return wrap("order totals", err)
	})
	g.Go(func() (err error) {
		cur, err = s.orders.Totals(gctx, start, time.Time{})
		return wrap("current window totals", err)
	})
	g.Go(func() (err error) {
		prev, err = s.orders.Totals(gctx, prevStart, start)
		return wrap("previous window totals", err)
	})
	g.Go(func() (err error) {
		out.RecentOrders, err = s.orders.Recent(gctx, recentLimit)
		return wrap("recent orders", err)
	})
	g.Go(func() (err error) {
		top, err = s.products.TopRated(gctx, topLimit)
		return wrap("top products", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.TotalOrders = all.Count
	out.TotalRevenue = all.Revenue
	out.MonthlyRevenue = cur.Revenue
	out.OrderGrowth = Growth(float64(cur.Count), float64(prev.Count))
	out.RevenueGrowth = Growth(cur.Revenue, prev.Revenue)
	if all.Count > 0 {
		out.AverageOrderValue = decimal.NewFromFloat(all.Revenue).
			Div(decimal.NewFromInt(all.Count)).
			Round(2).
			InexactFloat64()
	}

	out.TopProducts = make([]TopProduct, 0, len(top))
	for _, p := range top {
		out.TopProducts = append(out.TopProducts, TopProduct{
			ID:        p.ID.Hex(),
			Title:     p.Title,
			Image:     p.FirstImage(),
			SalePrice: p.SalePrice,
			Rating:    p.Rating,
		})
	}
	if out.RecentOrders == nil {
		out.RecentOrders = []models.Order{}
	}
	return out, nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

type Handler struct {
	svc    *Service
	logger *zap.Logger
	debug  bool
}

func NewHandler(svc *Service, logger *zap.Logger, debug bool) *Handler {
	return &Handler{svc: svc, logger: logger, debug: debug}
}

// GET /api/analytics/summary?days=30
// GET /api/orders/dashboard-summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days < 1 {
		days = defaultDays
	}
	if days > maxDays {
		days = maxDays
	}

	summary, err := h.svc.Summary(ctx, days)
	if err != nil {
		utils.RespondWithErr(w, h.logger, err, h.debug)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, summary)
}
