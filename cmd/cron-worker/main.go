package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aurevo/storefront/internal/cart"
	"github.com/aurevo/storefront/internal/cron"
	"github.com/aurevo/storefront/internal/orders"
	"github.com/aurevo/storefront/internal/storage"
	"github.com/aurevo/storefront/pkg/config"
	"github.com/aurevo/storefront/pkg/db"
	"github.com/aurevo/storefront/pkg/logger"
	"github.com/aurevo/storefront/pkg/metrics"
	"github.com/aurevo/storefront/pkg/migrate"
	"github.com/aurevo/storefront/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run every job a single time and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	if err := migrate.MaybeAutoRun(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run migrations", err)
		os.Exit(1)
	}

	var lock cron.Lock = &cron.LocalLock{}
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisLock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Cron.Interval)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
		lock = redisLock
	}

	registry := cron.NewRegistry()

	staleOrders, err := cron.NewStaleOrderJob(cron.StaleOrderJobParams{
		Logger: logg,
		Orders: orders.NewRepository(dbClient.DB()),
		After:  cfg.Cron.StaleOrderAfter,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stale order job", err)
		os.Exit(1)
	}
	registry.Register(staleOrders)

	// only sql storage keeps carts where the worker can reach them
	if strings.EqualFold(strings.TrimSpace(cfg.Storage.Kind), config.StorageKindSQL) {
		cartRetention, err := cron.NewCartRetentionJob(cron.CartRetentionJobParams{
			Logger:    logg,
			DB:        dbClient,
			Carts:     storage.NewSQLBackend(dbClient.DB()),
			KeyPrefix: cartKeyPrefix(cfg.Storage.CartKey),
			Retention: cfg.Cron.CartRetention,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create cart retention job", err)
			os.Exit(1)
		}
		registry.Register(cartRetention)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"jobs":     registry.Names(),
		"interval": cfg.Cron.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	if *once {
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron run failed", err)
			os.Exit(1)
		}
		return
	}

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("cron-worker:%s", env)
}

// cartKeyPrefix matches session-scoped cart keys only.
func cartKeyPrefix(key string) string {
	if strings.TrimSpace(key) == "" {
		key = cart.DefaultKey
	}
	return key + ":"
}
