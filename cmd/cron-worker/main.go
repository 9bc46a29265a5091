package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/truckbite/truckbite-backend/internal/catalog"
	"github.com/truckbite/truckbite-backend/internal/cron"
	"github.com/truckbite/truckbite-backend/internal/escalation"
	"github.com/truckbite/truckbite-backend/internal/inventory"
	"github.com/truckbite/truckbite-backend/internal/locations"
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

const lockKeyFormat = "tb:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

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
	escalationService, err := escalation.NewService(escalation.NewRepository(dbClient.DB()), cfg.Escalation, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create escalation service", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(orders.Deps{
		Repo:        orders.NewRepository(dbClient.DB()),
		Tx:          dbClient,
		Tenants:     tenantsService,
		Catalog:     catalogService,
		Inventory:   inventoryService,
		Sequence:    sequenceService,
		Notifier:    notificationsService,
		Escalations: escalationService,
		OrdersCfg:   cfg.Orders,
		FeesCfg:     cfg.Fees,
		SquareCfg:   cfg.Square,
		Logger:      logg,
		Metrics:     orderMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	locationsService, err := locations.NewService(locations.NewRepository(dbClient.DB()), ordersService, notificationsService, cfg.Location, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create locations service", err)
		os.Exit(1)
	}

	sweepJob, err := cron.NewLocationSweepJob(cron.LocationSweepJobParams{
		Logger:  logg,
		Sweeper: locationsService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create location sweep job", err)
		os.Exit(1)
	}
	retentionJob, err := cron.NewAlertRetentionJob(cron.AlertRetentionJobParams{
		Logger: logg,
		Purger: escalationService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create alert retention job", err)
		os.Exit(1)
	}
	staleReportJob, err := cron.NewStaleOrderReportJob(cron.StaleOrderReportJobParams{
		Logger:   logg,
		Orders:   ordersService,
		Notifier: notificationsService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stale order report job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob, retentionJob, staleReportJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Location.SweepInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
