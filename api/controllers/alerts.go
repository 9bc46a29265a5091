package controllers

import (
	"net/http"

	"github.com/truckbite/truckbite-backend/api/responses"
	"github.com/truckbite/truckbite-backend/internal/escalation"
	pkgerrors "github.com/truckbite/truckbite-backend/pkg/errors"
	"github.com/truckbite/truckbite-backend/pkg/logger"
)

func ListOrderAlerts(svc escalation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escalation service unavailable"))
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

		alerts, err := svc.ListByOrder(r.Context(), tenantID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, alerts)
	}
}

// AckAlert marks a fired escalation alert as seen by the operator.
func AckAlert(svc escalation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escalation service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		alertID, err := parseUUIDParam(r, "alertId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Ack(r.Context(), tenantID, alertID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"acknowledged": true})
	}
}
