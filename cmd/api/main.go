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
	"go.uber.org/multierr"

	"github.com/aurevo/storefront/api/controllers"
	"github.com/aurevo/storefront/api/routes"
	"github.com/aurevo/storefront/internal/catalog"
	"github.com/aurevo/storefront/internal/checkout"
	"github.com/aurevo/storefront/internal/notifications"
	"github.com/aurevo/storefront/internal/orders"
	"github.com/aurevo/storefront/internal/sessions"
	"github.com/aurevo/storefront/internal/storage"
	"github.com/aurevo/storefront/pkg/config"
	"github.com/aurevo/storefront/pkg/db"
	"github.com/aurevo/storefront/pkg/enums"
	"github.com/aurevo/storefront/pkg/logger"
	"github.com/aurevo/storefront/pkg/metrics"
	"github.com/aurevo/storefront/pkg/migrate"
	"github.com/aurevo/storefront/pkg/orderapi"
	"github.com/aurevo/storefront/pkg/redis"
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

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeAutoRun(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var redisClient *redis.Client
	ready := controllers.ReadyDeps{DB: dbClient}
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
		ready.Redis = redisClient
	}

	backend, err := storage.OpenBackend(cfg.Storage, storage.Deps{DB: dbClient, Redis: redisClient})
	if err != nil {
		return err
	}
	store := storage.NewStore(backend, logg)
	if !store.IsAvailable(ctx) {
		logg.Warn(logg.WithField(ctx, "storage_kind", cfg.Storage.Kind), "cart storage unavailable, carts will not persist")
	}
	ready.Storage = store

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(promRegistry)

	orderClient, err := orderapi.NewClient(cfg.Checkout.EndpointURL,
		orderapi.WithBreaker(cfg.Breaker.ConsecutiveFailures, cfg.Breaker.OpenTimeout),
		orderapi.WithStateListener(func(from, to orderapi.BreakerState) {
			checkoutMetrics.SetBreakerState(int(to))
			logg.Warn(logg.WithFields(context.Background(), map[string]any{
				"breaker_from": from.String(),
				"breaker_to":   to.String(),
			}), "order endpoint breaker state changed")
		}),
	)
	if err != nil {
		return err
	}
	ready.Orders = orderClient

	validator, err := checkout.NewValidator(checkout.ValidatorConfig{
		ValidPINs:        cfg.Checkout.ValidPINs,
		DeliveryLocation: cfg.Checkout.DeliveryLocation,
	})
	if err != nil {
		return err
	}

	paymentMethod, err := enums.ParsePaymentMethod(cfg.Checkout.PaymentMethod)
	if err != nil {
		return err
	}

	submitter, err := checkout.NewSubmitter(checkout.SubmitterParams{
		Sender:     orderClient,
		MaxRetries: cfg.Checkout.MaxRetries,
		BaseDelay:  cfg.Checkout.RetryBaseDelay,
		Timeout:    cfg.Checkout.RequestTimeout,
		Metrics:    checkoutMetrics,
		Logger:     logg,
	})
	if err != nil {
		return err
	}

	ordersRepo := orders.NewRepository(dbClient.DB())

	sessionRegistry, err := sessions.NewRegistry(sessions.Params{
		Store:        store,
		CartKey:      cfg.Storage.CartKey,
		Validator:    validator,
		Assembler:    checkout.NewAssembler(checkout.AssemblerConfig{OrderIDPrefix: cfg.Checkout.OrderIDPrefix, PaymentMethod: paymentMethod}),
		Submitter:    submitter,
		Ledger:       ordersRepo,
		Renderer:     notifications.NewLogRenderer(logg),
		CartMetrics:  checkoutMetrics,
		Rejections:   checkoutMetrics,
		Logger:       logg,
		IdleTTL:      cfg.Sessions.IdleTTL,
		FeedCapacity: cfg.Sessions.NotificationFeed,
	})
	if err != nil {
		return err
	}
	go sessionRegistry.Run(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"storage_kind": cfg.Storage.Kind,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			Sessions: sessionRegistry,
			Catalog:  catalog.Default(),
			Orders:   ordersRepo,
			Receipt:  orders.DefaultReceipt,
			Ready:    ready,
			Gatherer: promRegistry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	// checkout handlers submit synchronously, so draining them finishes any in-flight order
	shutdownTimeout := cfg.ShutdownTimeout()
	logg.Info(logg.WithField(logCtx, "drain_timeout", shutdownTimeout.String()), "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
