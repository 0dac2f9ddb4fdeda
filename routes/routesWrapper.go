package routes

import (
	"net/http"
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
	"kondapalli/utils"
	"kondapalli/workshop"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Deps is everything the route table needs. Handlers are built in main.
type Deps struct {
	Tokens      *middleware.Tokens
	Limiter     *ratelim.RateLimiter
	Idempotency middleware.IdempotencyStore
	Hub         *stockfeed.Hub
	Logger      *zap.Logger
	UploadDir   string

	Products  *products.Handler
	Orders    *orders.Handler
	Cart      *cart.Handler
	Workshop  *workshop.Handler
	Auth      *auth.Handler
	Users     *admin.Handler
	Analytics *analytics.Handler
}

// New builds the router with every API route registered.
func New(d Deps) *httprouter.Router {
	router := httprouter.New()
	RoutesWrapper(router, d)
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondWithError(w, http.StatusNotFound, "Route not found")
	})
	router.HandleMethodNotAllowed = false
	return router
}

func RoutesWrapper(router *httprouter.Router, d Deps) {
	AddHealthRoutes(router, d)
	AddStaticRoutes(router, d)
	AddProductRoutes(router, d)
	AddOrderRoutes(router, d)
	AddCartRoutes(router, d)
	AddWorkshopRoutes(router, d)
	AddAuthRoutes(router, d)
	AddAnalyticsRoutes(router, d)
	AddStockFeedRoutes(router, d)
}

// GET /api/health
func health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"status":    "OK",
		"timestamp": time.Now().UTC(),
	})
}

func notFound(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	utils.RespondWithError(w, http.StatusNotFound, "Route not found")
}

type segments map[string]httprouter.Handle

// dispatch routes on the value of a path parameter. httprouter does not let a
// static segment share a position with a wildcard, so /orders/my-orders and
// /orders/:id are both registered as /orders/:id and split here.
func dispatch(param string, named segments, fallback httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if h, ok := named[ps.ByName(param)]; ok {
			h(w, r, ps)
			return
		}
		fallback(w, r, ps)
	}
}

// alias exposes the value of param from under the name the handler reads.
func alias(from, to string, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		out := make(httprouter.Params, 0, len(ps)+1)
		out = append(out, ps...)
		next(w, r, append(out, httprouter.Param{Key: to, Value: ps.ByName(from)}))
	}
}
