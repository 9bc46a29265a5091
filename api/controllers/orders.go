package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/truckbite/truckbite-backend/api/responses"
	"github.com/truckbite/truckbite-backend/api/validators"
	internalorders "github.com/truckbite/truckbite-backend/internal/orders"
	"github.com/truckbite/truckbite-backend/pkg/enums"
	pkgerrors "github.com/truckbite/truckbite-backend/pkg/errors"
	"github.com/truckbite/truckbite-backend/pkg/logger"
	"github.com/truckbite/truckbite-backend/pkg/types"
)

type orderLineRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Qty       int             `json:"qty" validate:"required,min=1"`
	Modifiers types.Modifiers `json:"modifiers"`
}

type createOrderRequest struct {
	LocationID      *uuid.UUID         `json:"location_id"`
	ServiceType     string             `json:"service_type" validate:"required"`
	CustomerName    string             `json:"customer_name" validate:"required"`
	CustomerPhone   string             `json:"customer_phone" validate:"required"`
	CustomerEmail   *string            `json:"customer_email" validate:"omitempty,email"`
	Items           []orderLineRequest `json:"items" validate:"required,min=1,dive"`
	DiscountCents   int                `json:"discount_cents" validate:"min=0"`
	TipCents        int                `json:"tip_cents" validate:"min=0"`
	ScheduledAt     *time.Time         `json:"scheduled_at"`
	PaymentSourceID string             `json:"payment_source_id"`
}

// CreateOrder places a new order: number, stock reservation and totals land
// in one transaction, payment authorization follows best-effort.
func CreateOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		serviceType, err := enums.ParseServiceType(req.ServiceType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid service type"))
			return
		}

		items := make([]internalorders.LineInput, 0, len(req.Items))
		for _, line := range req.Items {
			items = append(items, internalorders.LineInput{
				ProductID: line.ProductID,
				Qty:       line.Qty,
				Modifiers: line.Modifiers,
			})
		}

		order, err := svc.Create(r.Context(), internalorders.CreateOrderInput{
			TenantID:        tenantID,
			LocationID:      req.LocationID,
			ServiceType:     serviceType,
			CustomerName:    req.CustomerName,
			CustomerPhone:   req.CustomerPhone,
			CustomerEmail:   req.CustomerEmail,
			Items:           items,
			DiscountCents:   req.DiscountCents,
			TipCents:        req.TipCents,
			ScheduledAt:     req.ScheduledAt,
			PaymentSourceID: req.PaymentSourceID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func ListOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 100, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.OrderStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		orders, err := svc.List(r.Context(), tenantID, status, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

func GetOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), tenantID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type transitionRequest struct {
	Target string `json:"target" validate:"required"`
	Reason string `json:"reason"`
}

// TransitionOrder advances an order along the state machine. Cancellations
// require a reason; completion captures the payment first.
func TransitionOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(req.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		order, err := svc.Transition(r.Context(), internalorders.TransitionInput{
			TenantID: tenantID,
			OrderID:  orderID,
			Target:   target,
			Reason:   req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
