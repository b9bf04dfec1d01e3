package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/verdantrow/storefront-backend/api/controllers"
	"github.com/verdantrow/storefront-backend/api/routes"
	"github.com/verdantrow/storefront-backend/internal/cart"
	"github.com/verdantrow/storefront-backend/internal/catalog"
	"github.com/verdantrow/storefront-backend/internal/checkout"
	"github.com/verdantrow/storefront-backend/pkg/config"
	"github.com/verdantrow/storefront-backend/pkg/db"
	"github.com/verdantrow/storefront-backend/pkg/logger"
	"github.com/verdantrow/storefront-backend/pkg/metrics"
	"github.com/verdantrow/storefront-backend/pkg/money"
	"github.com/verdantrow/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if cfg.DB.AutoMigrate && !cfg.App.IsProd() {
		if err := catalog.AutoMigrate(dbClient.DB()); err != nil {
			logg.Error(context.Background(), "failed to run dev migrations", err)
			os.Exit(1)
		}
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	store, err := cart.NewStore(redisClient, cfg.Cart.StorageKey, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create snapshot store", err)
		os.Exit(1)
	}

	platformStatus, err := checkout.NewHTTPStatusClient(cfg.Checkout.PlatformBaseURL, cfg.Checkout.StatusTimeout)
	if err != nil {
		logg.Error(context.Background(), "failed to create platform checkout client", err)
		os.Exit(1)
	}
	subscriptionStatus, err := checkout.NewHTTPStatusClient(cfg.Checkout.SubscriptionBaseURL, cfg.Checkout.StatusTimeout)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription checkout client", err)
		os.Exit(1)
	}
	inspector, err := checkout.NewInspector(platformStatus, subscriptionStatus)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout inspector", err)
		os.Exit(1)
	}

	shippingThreshold, err := money.New(cfg.Cart.ShippingThresholdAmount, cfg.Cart.CurrencyCode)
	if err != nil {
		logg.Error(context.Background(), "invalid shipping threshold config", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cartMetrics := metrics.NewCartMetrics(registry)

	cartService, err := cart.NewService(cart.ServiceParams{
		Store:             store,
		Fetcher:           catalog.NewRepository(dbClient.DB()),
		Inspector:         inspector,
		Logger:            logg,
		Metrics:           cartMetrics,
		ShippingThreshold: shippingThreshold,
		FetchTimeout:      cfg.Cart.VariantFetchTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	if err := cartService.Start(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to restore cart", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:      cfg,
			Logger:      logg,
			CartService: cartService,
			CartMetrics: cartMetrics,
			Registry:    registry,
			Pingers: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
