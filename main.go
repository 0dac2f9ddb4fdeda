package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kondapalli/admin"
	"kondapalli/analytics"
	"kondapalli/auth"
	"kondapalli/cart"
	"kondapalli/config"
	"kondapalli/db"
	"kondapalli/middleware"
	"kondapalli/mq"
	"kondapalli/orders"
	"kondapalli/products"
	"kondapalli/ratelim"
	"kondapalli/rdx"
	"kondapalli/routes"
	"kondapalli/stockfeed"
	"kondapalli/utils"
	"kondapalli/workshop"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := middleware.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := middleware.InitTracing("kondapalli", cfg.JaegerEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	store, err := db.Connect(startCtx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())
	if err := store.EnsureIndexes(startCtx); err != nil {
		return err
	}
	logger.Info("connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	if err := utils.EnsureDir(cfg.UploadDir); err != nil {
		return err
	}

	hub := stockfeed.NewHub()
	go hub.Run(ctx)

	var stockPub mq.StockPublisher = hub
	if cfg.RedisAddr != "" {
		client, err := rdx.NewClient(startCtx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer client.Close()
		stockPub = mq.NewRedisStockPublisher(client)
		go stockfeed.Subscribe(ctx, client, hub, logger)
		logger.Info("stock events relayed through Redis", zap.String("addr", cfg.RedisAddr))
	}

	var orderPub mq.OrderPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := mq.NewKafkaProducer(cfg.KafkaBrokers, logger)
		if err != nil {
			return err
		}
		kafka := mq.NewKafkaPublisher(producer, cfg.KafkaTopic, logger)
		defer kafka.Close()
		orderPub = kafka
		logger.Info("order events published to Kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	bus := mq.NewBus(orderPub, stockPub, logger)

	tokens := middleware.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	authSvc := auth.NewService(store.Users, tokens, logger)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authSvc.EnsureAdmin(startCtx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
	}

	limiter := ratelim.NewRateLimiter(60, 20)
	go limiter.Run(ctx)

	debug := !cfg.Production()
	pricing := orders.Pricing{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		FlatShippingCost:      cfg.FlatShippingCost,
	}
	orderSvc := orders.NewService(store.Products, store.Orders, store.Counters, bus, pricing, cfg.Location, logger)

	router := routes.New(routes.Deps{
		Tokens:      tokens,
		Limiter:     limiter,
		Idempotency: store.Idempotency,
		Hub:         hub,
		Logger:      logger,
		UploadDir:   cfg.UploadDir,
		Products: products.NewHandler(
			products.NewService(store.Products, bus, logger),
			products.NewImageStore(cfg.UploadDir, "/uploads"),
			logger, debug),
		Orders:    orders.NewHandler(orderSvc, cfg.PublicBaseURL, logger, debug),
		Cart:      cart.NewHandler(cart.NewChecker(store.Products, pricing), logger, debug),
		Workshop:  workshop.NewHandler(workshop.NewService(store.Visits, cfg.Location, logger), logger, debug),
		Auth:      auth.NewHandler(authSvc, logger, debug),
		Users:     admin.NewHandler(admin.NewUsers(store.Users, logger), logger, debug),
		Analytics: analytics.NewHandler(analytics.NewService(store.Orders, store.Products, store.Users), logger, debug),
	})

	// CORS → recovery → security headers → logging → router
	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Idempotency-Key", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(middleware.Recover(logger)(middleware.SecurityHeaders(middleware.RequestLogger(logger)(router))))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr()), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received; shutting down gracefully")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped cleanly")
	return nil
}
