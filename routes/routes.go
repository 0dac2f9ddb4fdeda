package routes

import (
	"net/http"

	"kondapalli/middleware"
	"kondapalli/stockfeed"

	"github.com/julienschmidt/httprouter"
)

var instrument = middleware.Instrument

func AddHealthRoutes(router *httprouter.Router, _ Deps) {
	router.GET("/api/health", instrument("/api/health", health))
	router.Handler(http.MethodGet, "/metrics", middleware.PrometheusHandler())
}

func AddStaticRoutes(router *httprouter.Router, d Deps) {
	router.ServeFiles("/uploads/*filepath", http.Dir(d.UploadDir))
}

func AddProductRoutes(router *httprouter.Router, d Deps) {
	h, admin := d.Products, d.Tokens.Admin

	router.GET("/api/products", instrument("/api/products", h.ListProducts))
	router.POST("/api/products", instrument("/api/products", admin(h.CreateProduct)))
	router.GET("/api/products/:id", dispatch("id", segments{
		"featured":   instrument("/api/products/featured", h.Featured),
		"flash-sale": instrument("/api/products/flash-sale", h.FlashSale),
		"categories": instrument("/api/products/categories", h.Categories),
	}, instrument("/api/products/:id", h.GetProduct)))
	router.PUT("/api/products/:id", instrument("/api/products/:id", admin(h.UpdateProduct)))
	router.DELETE("/api/products/:id", instrument("/api/products/:id", admin(h.DeleteProduct)))
	router.POST("/api/products/:id/:sub", dispatch("sub", segments{
		"images": instrument("/api/products/:id/images", admin(h.UploadImage)),
	}, notFound))
}

func AddOrderRoutes(router *httprouter.Router, d Deps) {
	h, admin, authed := d.Orders, d.Tokens.Admin, d.Tokens.Authenticate
	idempotent := middleware.Idempotent(d.Idempotency, d.Logger)

	router.POST("/api/orders", instrument("/api/orders",
		d.Limiter.Limit(d.Tokens.OptionalAuth(idempotent(h.CreateOrder)))))
	router.GET("/api/orders", instrument("/api/orders", admin(h.ListOrders)))

	router.GET("/api/orders/:id", dispatch("id", segments{
		"my-orders":         instrument("/api/orders/my-orders", authed(h.MyOrders)),
		"dashboard-summary": instrument("/api/orders/dashboard-summary", admin(d.Analytics.Summary)),
	}, instrument("/api/orders/:id", h.GetOrder)))

	router.GET("/api/orders/:id/:sub", dispatch("id", segments{
		"track": instrument("/api/orders/track/:orderNumber", alias("sub", "orderNumber", h.TrackOrder)),
		"stats": dispatch("sub", segments{
			"summary": instrument("/api/orders/stats/summary", admin(h.Stats)),
		}, notFound),
	}, dispatch("sub", segments{
		"invoice": instrument("/api/orders/:id/invoice", authed(h.Invoice)),
	}, notFound)))

	router.PUT("/api/orders/:id/:sub", dispatch("sub", segments{
		"status": instrument("/api/orders/:id/status", admin(h.UpdateStatus)),
	}, notFound))
}

func AddCartRoutes(router *httprouter.Router, d Deps) {
	router.POST("/api/cart/validate", instrument("/api/cart/validate", d.Cart.ValidateCart))
}

func AddWorkshopRoutes(router *httprouter.Router, d Deps) {
	h, admin := d.Workshop, d.Tokens.Admin
	slots := instrument("/api/workshop-visits/available-slots", h.AvailableSlots)

	router.POST("/api/workshop-visits", instrument("/api/workshop-visits", d.Limiter.Limit(h.CreateVisit)))
	router.GET("/api/workshop-visits", instrument("/api/workshop-visits", admin(h.ListVisits)))
	router.GET("/api/workshop-visits/:id", instrument("/api/workshop-visits/:id", admin(h.GetVisit)))

	router.GET("/api/workshop-visits/:id/:sub", dispatch("id", segments{
		"available-slots": alias("sub", "date", slots),
		"schedule":        dispatch("sub", segments{"available": slots}, notFound),
		"stats": dispatch("sub", segments{
			"summary": instrument("/api/workshop-visits/stats/summary", admin(h.Stats)),
		}, notFound),
	}, notFound))

	router.PUT("/api/workshop-visits/:id/:sub", dispatch("sub", segments{
		"status": instrument("/api/workshop-visits/:id/status", admin(h.UpdateStatus)),
	}, notFound))
}

func AddAuthRoutes(router *httprouter.Router, d Deps) {
	h, limit, authed := d.Auth, d.Limiter.Limit, d.Tokens.Authenticate

	router.POST("/api/auth/register", instrument("/api/auth/register", limit(h.Register)))
	router.POST("/api/auth/login", instrument("/api/auth/login", limit(h.Login)))
	router.POST("/api/auth/logout", instrument("/api/auth/logout", h.Logout))
	router.GET("/api/auth/profile", instrument("/api/auth/profile", authed(h.Profile)))
	router.PUT("/api/auth/profile", instrument("/api/auth/profile", authed(h.UpdateProfile)))
	router.POST("/api/auth/change-password", instrument("/api/auth/change-password", limit(authed(h.ChangePassword))))
	router.POST("/api/auth/forgot-password", instrument("/api/auth/forgot-password", limit(h.ForgotPassword)))
	router.POST("/api/auth/reset-password", instrument("/api/auth/reset-password", limit(h.ResetPassword)))

	u, admin := d.Users, d.Tokens.Admin
	router.GET("/api/auth/users", instrument("/api/auth/users", admin(u.ListUsers)))
	router.GET("/api/auth/users/:id", instrument("/api/auth/users/:id", admin(u.GetUser)))
	router.PUT("/api/auth/users/:id", instrument("/api/auth/users/:id", admin(u.UpdateUser)))
	router.DELETE("/api/auth/users/:id", instrument("/api/auth/users/:id", admin(u.DeleteUser)))
}

func AddAnalyticsRoutes(router *httprouter.Router, d Deps) {
	summary := d.Tokens.Admin(d.Analytics.Summary)
	router.GET("/api/analytics", instrument("/api/analytics", summary))
	router.GET("/api/analytics/summary", instrument("/api/analytics/summary", summary))
}

func AddStockFeedRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/ws/stock", instrument("/api/ws/stock", stockfeed.HandleWS(d.Hub, d.Logger)))
}
