package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/truckbite/truckbite-backend/api/controllers"
	"github.com/truckbite/truckbite-backend/api/middleware"
	"github.com/truckbite/truckbite-backend/internal/catalog"
	"github.com/truckbite/truckbite-backend/internal/escalation"
	"github.com/truckbite/truckbite-backend/internal/inventory"
	"github.com/truckbite/truckbite-backend/internal/locations"
	"github.com/truckbite/truckbite-backend/internal/notifications"
	"github.com/truckbite/truckbite-backend/internal/orders"
	"github.com/truckbite/truckbite-backend/internal/payments"
	"github.com/truckbite/truckbite-backend/internal/tenants"
	"github.com/truckbite/truckbite-backend/pkg/config"
	"github.com/truckbite/truckbite-backend/pkg/logger"
	"github.com/truckbite/truckbite-backend/pkg/redis"
)

// Services bundles everything the router hands to controllers.
type Services struct {
	Tenants       tenants.Service
	Catalog       catalog.Service
	Inventory     inventory.Service
	Orders        orders.Service
	Payments      payments.Service
	Locations     locations.Service
	Escalation    escalation.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	probes controllers.ReadinessProbes,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, probes))
	})

	r.Route("/api/v1/tenants", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Post("/", controllers.CreateTenant(svcs.Tenants, logg))

		r.Route("/{tenantId}", func(r chi.Router) {
			r.Use(middleware.TenantContext(logg))

			r.Get("/", controllers.GetTenant(svcs.Tenants, logg))
			r.Post("/open", controllers.SetTenantOpen(svcs.Tenants, logg))

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.CreateProduct(svcs.Catalog, logg))
				r.Get("/", controllers.ListProducts(svcs.Catalog, logg))
				r.Get("/{productId}", controllers.GetProduct(svcs.Catalog, logg))
				r.Post("/{productId}/availability", controllers.SetProductAvailability(svcs.Catalog, logg))
			})

			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", controllers.ListStock(svcs.Inventory, logg))
				r.Put("/{productId}", controllers.UpsertInventoryItem(svcs.Inventory, logg))
				r.Get("/{productId}", controllers.GetStock(svcs.Inventory, logg))
				r.Get("/{productId}/movements", controllers.ListMovements(svcs.Inventory, logg))
				r.Post("/movements", controllers.RecordMovement(svcs.Inventory, logg))
				r.Post("/reconcile", controllers.ReconcileInventory(svcs.Inventory, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.CreateOrder(svcs.Orders, logg))
				r.Get("/", controllers.ListOrders(svcs.Orders, logg))
				r.Route("/{orderId}", func(r chi.Router) {
					r.Get("/", controllers.GetOrder(svcs.Orders, logg))
					r.Post("/status", controllers.TransitionOrder(svcs.Orders, logg))
					r.Get("/alerts", controllers.ListOrderAlerts(svcs.Escalation, logg))
					r.Route("/payment", func(r chi.Router) {
						r.Get("/", controllers.GetOrderPayment(svcs.Payments, logg))
						r.Post("/tip", controllers.AddOrderTip(svcs.Payments, logg))
						r.Post("/refund", controllers.RefundOrderPayment(svcs.Payments, logg))
					})
				})
			})

			r.Route("/locations", func(r chi.Router) {
				r.Post("/", controllers.CreateLocation(svcs.Locations, logg))
				r.Get("/", controllers.ListLocations(svcs.Locations, logg))
				r.Route("/{locationId}", func(r chi.Router) {
					r.Get("/", controllers.GetLocation(svcs.Locations, logg))
					r.Post("/report", controllers.ReportLocationPosition(svcs.Locations, logg))
					r.Post("/verify", controllers.VerifyLocation(svcs.Locations, logg))
				})
			})

			r.Post("/alerts/{alertId}/ack", controllers.AckAlert(svcs.Escalation, logg))

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			})
		})
	})

	return r
}
