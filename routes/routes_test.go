package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kondapalli/admin"
	"kondapalli/analytics"
	"kondapalli/auth"
	"kondapalli/cart"
	"kondapalli/middleware"
	"kondapalli/orders"
	"kondapalli/products"
	"kondapalli/ratelim"
	"kondapalli/stockfeed"
	"kondapalli/workshop"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// newTestRouter wires handlers without stores. Only paths that answer before
// touching storage are exercised.
func newTestRouter(t *testing.T) (*httprouter.Router, *middleware.Tokens) {
	logger := zaptest.NewLogger(t)
	tokens := middleware.NewTokens([]byte("test-secret"), time.Hour)
	pricing := orders.Pricing{FreeShippingThreshold: 499, FlatShippingCost: 100}

	orderSvc := orders.NewService(nil, nil, nil, nil, pricing, time.UTC, logger)
	router := New(Deps{
		Tokens:    tokens,
		Limiter:   ratelim.NewRateLimiter(600, 100),
		Hub:       stockfeed.NewHub(),
		Logger:    logger,
		UploadDir: t.TempDir(),
		Products:  products.NewHandler(products.NewService(nil, nil, logger), products.NewImageStore(t.TempDir(), "/uploads"), logger, false),
		Orders:    orders.NewHandler(orderSvc, "https://shop.example", logger, false),
		Cart:      cart.NewHandler(cart.NewChecker(nil, pricing), logger, false),
		Workshop:  workshop.NewHandler(workshop.NewService(nil, time.UTC, logger), logger, false),
		Auth:      auth.NewHandler(auth.NewService(nil, tokens, logger), logger, false),
		Users:     admin.NewHandler(admin.NewUsers(nil, logger), logger, false),
		Analytics: analytics.NewHandler(analytics.NewService(nil, nil, nil), logger, false),
	})
	return router, tokens
}

func serve(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"OK"`)
	assert.Contains(t, rec.Body.String(), `"timestamp"`)
}

func TestUnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/nothing-here"},
		{http.MethodGet, "/api/orders/abc/nope"},
		{http.MethodPut, "/api/orders/abc/nope"},
		{http.MethodGet, "/api/orders/stats/other"},
		{http.MethodGet, "/api/workshop-visits/abc/def"},
		{http.MethodPost, "/api/products/abc/other"},
		{http.MethodPatch, "/api/orders"},
	} {
		rec := serve(router, tc.method, tc.path, "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
		assert.JSONEq(t, `{"message":"Route not found"}`, rec.Body.String(), tc.path)
	}
}

func TestAuthGates(t *testing.T) {
	router, tokens := newTestRouter(t)
	customer, err := tokens.Issue("u1", "lakshmi@example.com", "customer")
	require.NoError(t, err)

	for _, tc := range []struct {
		method, path, token string
		status              int
		message             string
	}{
		{http.MethodGet, "/api/orders", "", http.StatusUnauthorized, "No token provided"},
		{http.MethodGet, "/api/orders", "garbage", http.StatusUnauthorized, "Invalid token"},
		{http.MethodGet, "/api/orders", customer, http.StatusForbidden, "Access denied. Admin privileges required."},
		{http.MethodGet, "/api/orders/my-orders", "", http.StatusUnauthorized, "No token provided"},
		{http.MethodGet, "/api/orders/dashboard-summary", customer, http.StatusForbidden, "Access denied. Admin privileges required."},
		{http.MethodGet, "/api/orders/stats/summary", customer, http.StatusForbidden, "Access denied. Admin privileges required."},
		{http.MethodGet, "/api/orders/abc/invoice", "", http.StatusUnauthorized, "No token provided"},
		{http.MethodPut, "/api/orders/abc/status", customer, http.StatusForbidden, "Access denied. Admin privileges required."},
		{http.MethodPost, "/api/products", customer, http.StatusForbidden, "Access denied. Admin privileges required."},
		{http.MethodDelete, "/api/products/abc", "", http.StatusUnauthorized, "No token provided"},
		{http.MethodPost, "/api/products/abc/images", "", http.StatusUnauthorized, "No token provided"},
		{http.MethodGet, "/api/workshop-visits", customer, http.StatusForbidden, "Access denied. Admin privileges required."},
		{http.MethodGet, "/api/workshop-visits/stats/summary", "", http.StatusUnauthorized, "No token provided"},
		{http.MethodPut, "/api/workshop-visits/abc/status", "", http.StatusUnauthorized, "No token provided"},
		{http.MethodGet, "/api/auth/profile", "", http.StatusUnauthorized, "No token provided"},
		{http.MethodGet, "/api/auth/users", customer, http.StatusForbidden, "Access denied. Admin privileges required."},
		{http.MethodGet, "/api/analytics/summary", customer, http.StatusForbidden, "Access denied. Admin privileges required."},
	} {
		rec := serve(router, tc.method, tc.path, "", tc.token)
		assert.Equal(t, tc.status, rec.Code, tc.method+" "+tc.path)
		assert.JSONEq(t, `{"message":"`+tc.message+`"}`, rec.Body.String(), tc.method+" "+tc.path)
	}
}

func TestPublicRoutesReachHandlers(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/api/products/not-an-id", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid product ID"}`, rec.Body.String())

	rec = serve(router, http.MethodPost, "/api/orders", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Customer details and items are required"}`, rec.Body.String())

	rec = serve(router, http.MethodPost, "/api/cart/validate", `{"items":[]}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Items are required"}`, rec.Body.String())

	rec = serve(router, http.MethodPost, "/api/auth/logout", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWorkshopSlotRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{
		"/api/workshop-visits/available-slots/2025-10-19",
		"/api/workshop-visits/schedule/available?date=2025-10-19",
	} {
		rec := serve(router, http.MethodGet, path, "", "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "Workshop is closed on Sundays", path)
		assert.Contains(t, rec.Body.String(), `"date":"2025-10-19"`, path)
	}

	rec := serve(router, http.MethodGet, "/api/workshop-visits/schedule/available", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Date is required"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	serve(router, http.MethodGet, "/api/health", "", "")

	rec := serve(router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestAlias(t *testing.T) {
	var got string
	h := alias("sub", "date", func(_ http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
		got = ps.ByName("date")
	})
	ps := httprouter.Params{{Key: "id", Value: "available-slots"}, {Key: "sub", Value: "2025-10-20"}}
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), ps)
	assert.Equal(t, "2025-10-20", got)
	assert.Len(t, ps, 2)
}
