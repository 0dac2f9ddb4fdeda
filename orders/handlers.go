package orders

import (
	"context"
	"net/http"
	"strings"
	"time"

	"kondapalli/models"
	"kondapalli/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

type Handler struct {
	svc     *Service
	baseURL string
	logger  *zap.Logger
	debug   bool
}

// NewHandler serves the order routes. baseURL is the storefront address used
// in invoice tracking links; debug exposes raw errors in 500 responses.
func NewHandler(svc *Service, baseURL string, logger *zap.Logger, debug bool) *Handler {
	return &Handler{svc: svc, baseURL: baseURL, logger: logger, debug: debug}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	utils.RespondWithErr(w, h.logger, err, h.debug)
}

// POST /api/orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req CreateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	order, err := h.svc.Create(ctx, req)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Order created successfully",
		"order":   order.Summary(),
	})
}

func orderFilter(r *http.Request) models.OrderFilter {
	q := r.URL.Query()
	return models.OrderFilter{
		Status:      models.OrderStatus(q.Get("status")),
		Email:       strings.ToLower(strings.TrimSpace(q.Get("email"))),
		OrderNumber: strings.TrimSpace(q.Get("orderNumber")),
	}
}

func respondPage(w http.ResponseWriter, orders []models.Order, p utils.Pagination) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"orders":     orders,
		"pagination": p.Body("totalOrders"),
	})
}

// GET /api/orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	page, limit := utils.ParsePage(r, 10)
	orders, p, err := h.svc.List(ctx, orderFilter(r), page, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondPage(w, orders, p)
}

// GET /api/orders/my-orders
func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	email := utils.GetEmailFromRequest(r)
	if q := r.URL.Query().Get("email"); q != "" && utils.IsAdminRequest(r) {
		email = q
	}

	page, limit := utils.ParsePage(r, 10)
	status := models.OrderStatus(r.URL.Query().Get("status"))
	orders, p, err := h.svc.MyOrders(ctx, email, status, page, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondPage(w, orders, p)
}

// GET /api/orders/track/:orderNumber
func (h *Handler) TrackOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	order, err := h.svc.Track(ctx, ps.ByName("orderNumber"))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, order)
}

// GET /api/orders/:id
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	order, err := h.svc.Get(ctx, ps.ByName("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, order)
}

// PUT /api/orders/:id/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req StatusRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	order, err := h.svc.UpdateStatus(ctx, ps.ByName("id"), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, order)
}

// GET /api/orders/stats/summary
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	stats, err := h.svc.Stats(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, stats)
}

// GET /api/orders/:id/invoice
func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	order, err := h.svc.Get(ctx, ps.ByName("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	if !utils.IsAdminRequest(r) && !strings.EqualFold(order.Customer.Email, utils.GetEmailFromRequest(r)) {
		utils.RespondWithError(w, http.StatusForbidden, "Access denied")
		return
	}

	pdf, err := RenderInvoice(order, TrackingURL(h.baseURL, order.OrderNumber), h.svc.loc)
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+utils.SanitizeFilename("invoice-"+order.OrderNumber+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
