package products

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kondapalli/models"
	"kondapalli/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

type Handler struct {
	svc    *Service
	images *ImageStore
	logger *zap.Logger
	debug  bool
}

func NewHandler(svc *Service, images *ImageStore, logger *zap.Logger, debug bool) *Handler {
	return &Handler{svc: svc, images: images, logger: logger, debug: debug}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	utils.RespondWithErr(w, h.logger, err, h.debug)
}

func productFilter(r *http.Request) models.ProductFilter {
	q := r.URL.Query()
	f := models.ProductFilter{
		Category: q.Get("category"),
		Search:   strings.TrimSpace(q.Get("search")),
		Sort:     models.ProductSort(q.Get("sortBy")),
	}
	if v, ok := utils.ParseFloat(q.Get("minPrice")); ok {
		f.MinPrice = &v
	}
	if v, ok := utils.ParseFloat(q.Get("maxPrice")); ok {
		f.MaxPrice = &v
	}
	f.Featured, _ = strconv.ParseBool(q.Get("featured"))
	f.FlashSale, _ = strconv.ParseBool(q.Get("flashSale"))
	switch f.Sort {
	case models.SortNewest, models.SortPriceLow, models.SortPriceHigh, models.SortRating, models.SortFeatured:
	default:
		f.Sort = ""
	}
	return f
}

// GET /api/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if ids := utils.SplitCSV(r.URL.Query().Get("ids")); len(ids) > 0 {
		products, err := h.svc.ByIDs(ctx, ids)
		if err != nil {
			h.fail(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"products": products})
		return
	}

	page, limit := utils.ParsePage(r, 12)
	products, p, err := h.svc.List(ctx, productFilter(r), page, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"products":   products,
		"pagination": p.Body("totalProducts"),
	})
}

// GET /api/products/featured
func (h *Handler) Featured(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	products, err := h.svc.Featured(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, products)
}

// GET /api/products/flash-sale
func (h *Handler) FlashSale(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	products, err := h.svc.FlashSale(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, products)
}

// GET /api/products/categories
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cats, err := h.svc.Categories(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, cats)
}

// GET /api/products/:id
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := h.svc.Get(ctx, ps.ByName("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

// POST /api/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var p models.Product
	if err := utils.DecodeJSON(r, &p); err != nil {
		h.fail(w, err)
		return
	}
	created, err := h.svc.Create(ctx, &p)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, created)
}

// PUT /api/products/:id
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	updated, err := h.svc.Update(ctx, ps.ByName("id"), body)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// DELETE /api/products/:id
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.Delete(ctx, ps.ByName("id")); err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Product deleted successfully"})
}

// POST /api/products/:id/images
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if _, err := h.svc.Get(ctx, ps.ByName("id")); err != nil {
		h.fail(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "File too large or invalid form data")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Image file is required")
		return
	}
	defer file.Close()

	saved, err := h.images.Save(file)
	switch {
	case errors.Is(err, ErrInvalidMIME):
		utils.RespondWithError(w, http.StatusBadRequest, "Only JPEG, PNG and GIF images are allowed")
		return
	case errors.Is(err, ErrFileTooLarge):
		utils.RespondWithError(w, http.StatusBadRequest, "Image exceeds 10MB")
		return
	case errors.Is(err, ErrBadImage):
		h.logger.Warn("image upload rejected", zap.Error(err))
		utils.RespondWithError(w, http.StatusBadRequest, "Could not process image")
		return
	case err != nil:
		h.fail(w, err)
		return
	}

	p, err := h.svc.AddImage(ctx, ps.ByName("id"), saved.URL)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Image uploaded successfully",
		"image":   saved,
		"product": p,
	})
}
