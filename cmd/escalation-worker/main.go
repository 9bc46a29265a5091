package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/truckbite/truckbite-backend/internal/catalog"
	"github.com/truckbite/truckbite-backend/internal/escalation"
	"github.com/truckbite/truckbite-backend/internal/inventory"
	"github.com/truckbite/truckbite-backend/internal/notifications"
	"github.com/truckbite/truckbite-backend/internal/orders"
	"github.com/truckbite/truckbite-backend/internal/sequence"
	"github.com/truckbite/truckbite-backend/internal/tenants"
	"github.com/truckbite/truckbite-backend/pkg/config"
	"github.com/truckbite/truckbite-backend/pkg/db"
	"github.com/truckbite/truckbite-backend/pkg/logger"
	"github.com/truckbite/truckbite-backend/pkg/metrics"
	"github.com/truckbite/truckbite-backend/pkg/migrate"
	"github.com/truckbite/truckbite-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "escalation-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "escalation-worker"

	logg = logger.New(logger.Options{
		ServiceName: "escalation-worker",
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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

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

	orderMetrics := metrics.NewOrderMetrics(prometheus.DefaultRegisterer)

	tenantsService, err := tenants.NewService(tenants.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create tenants service", err)
		os.Exit(1)
	}
	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}
	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}
	inventoryService, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), notificationsService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}
	sequenceService, err := sequence.NewService(sequence.NewRepository(dbClient.DB()), cfg.Orders, logg, orderMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create sequence service", err)
		os.Exit(1)
	}

	// The monitor only reads orders; payments and escalation side effects
	// stay with the API process.
	ordersService, err := orders.NewService(orders.Deps{
		Repo:      orders.NewRepository(dbClient.DB()),
		Tx:        dbClient,
		Tenants:   tenantsService,
		Catalog:   catalogService,
		Inventory: inventoryService,
		Sequence:  sequenceService,
		Notifier:  notificationsService,
		OrdersCfg: cfg.Orders,
		FeesCfg:   cfg.Fees,
		SquareCfg: cfg.Square,
		Logger:    logg,
		Metrics:   orderMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	monitor, err := escalation.NewMonitor(
		escalation.NewRepository(dbClient.DB()),
		ordersService,
		notificationsService,
		redisClient,
		cfg.Escalation,
		logg,
		orderMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create escalation monitor", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting escalation worker")

	if err := monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "escalation worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "escalation worker shutting down gracefully")
}
