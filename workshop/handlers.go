package workshop

import (
	"context"
	"net/http"
	"time"

	"kondapalli/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

type Handler struct {
	svc    *Service
	logger *zap.Logger
	debug  bool
}

func NewHandler(svc *Service, logger *zap.Logger, debug bool) *Handler {
	return &Handler{svc: svc, logger: logger, debug: debug}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	utils.RespondWithErr(w, h.logger, err, h.debug)
}

// POST /api/workshop-visits
func (h *Handler) CreateVisit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req CreateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	v, err := h.svc.Create(ctx, req)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Workshop visit request submitted successfully",
		"visit": utils.M{
			"id":            v.ID,
			"name":          v.Name,
			"preferredDate": v.PreferredDate,
			"preferredTime": v.PreferredTime,
			"status":        v.Status,
		},
	})
}

// GET /api/workshop-visits
func (h *Handler) ListVisits(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	f, err := h.svc.Filter(q.Get("status"), q.Get("email"), q.Get("date"))
	if err != nil {
		h.fail(w, err)
		return
	}
	page, limit := utils.ParsePage(r, 10)
	visits, p, err := h.svc.List(ctx, f, page, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"visits":     visits,
		"pagination": p.Body("totalVisits"),
	})
}

// GET /api/workshop-visits/:id
func (h *Handler) GetVisit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	v, err := h.svc.Get(ctx, ps.ByName("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, v)
}

// PUT /api/workshop-visits/:id/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req StatusRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	v, err := h.svc.UpdateStatus(ctx, ps.ByName("id"), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, v)
}

// GET /api/workshop-visits/available-slots/:date
// GET /api/workshop-visits/schedule/available?date=
func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	date := ps.ByName("date")
	if date == "" {
		date = r.URL.Query().Get("date")
	}
	out, err := h.svc.AvailableSlots(ctx, date)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// GET /api/workshop-visits/stats/summary
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	st, err := h.svc.Stats(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, st)
}
