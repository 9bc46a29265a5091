package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/truckbite/truckbite-backend/api/controllers"
	"github.com/truckbite/truckbite-backend/api/routes"
	"github.com/truckbite/truckbite-backend/internal/catalog"
	"github.com/truckbite/truckbite-backend/internal/escalation"
	"github.com/truckbite/truckbite-backend/internal/inventory"
	"github.com/truckbite/truckbite-backend/internal/locations"
	"github.com/truckbite/truckbite-backend/internal/notifications"
	"github.com/truckbite/truckbite-backend/internal/orders"
	"github.com/truckbite/truckbite-backend/internal/payments"
	"github.com/truckbite/truckbite-backend/internal/sequence"
	"github.com/truckbite/truckbite-backend/internal/tenants"
	"github.com/truckbite/truckbite-backend/pkg/config"
	"github.com/truckbite/truckbite-backend/pkg/db"
	"github.com/truckbite/truckbite-backend/pkg/logger"
	"github.com/truckbite/truckbite-backend/pkg/metrics"
	"github.com/truckbite/truckbite-backend/pkg/migrate"
	"github.com/truckbite/truckbite-backend/pkg/redis"
	"github.com/truckbite/truckbite-backend/pkg/square"
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

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap square client", err)
		os.Exit(1)
	}

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
	feeSchedule, err := payments.NewFeeSchedule(cfg.Fees)
	if err != nil {
		logg.Error(context.Background(), "failed to build fee schedule", err)
		os.Exit(1)
	}
	paymentsService, err := payments.NewService(payments.NewRepository(dbClient.DB()), squareClient, feeSchedule, logg, orderMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
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
		Payments:    paymentsService,
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

	router := routes.NewRouter(cfg, logg, redisClient,
		controllers.ReadinessProbes{
			"database": dbClient,
			"redis":    redisClient,
		},
		routes.Services{
			Tenants:       tenantsService,
			Catalog:       catalogService,
			Inventory:     inventoryService,
			Orders:        ordersService,
			Payments:      paymentsService,
			Locations:     locationsService,
			Escalation:    escalationService,
			Notifications: notificationsService,
		},
	)

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
