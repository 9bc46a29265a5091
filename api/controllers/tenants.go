package controllers

import (
	"net/http"
	"time"

	"github.com/truckbite/truckbite-backend/api/responses"
	"github.com/truckbite/truckbite-backend/api/validators"
	"github.com/truckbite/truckbite-backend/internal/tenants"
	pkgerrors "github.com/truckbite/truckbite-backend/pkg/errors"
	"github.com/truckbite/truckbite-backend/pkg/logger"
)

type createTenantRequest struct {
	Name         string     `json:"name" validate:"required"`
	PhonePattern string     `json:"phone_pattern"`
	Currency     string     `json:"currency"`
	VATPickupBps int        `json:"vat_pickup_bps" validate:"min=0,max=10000"`
	VATTableBps  int        `json:"vat_table_bps" validate:"min=0,max=10000"`
	TrialStart   *time.Time `json:"trial_start"`
}

func CreateTenant(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenants service unavailable"))
			return
		}

		var req createTenantRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tenant, err := svc.CreateTenant(r.Context(), tenants.TenantInput{
			Name:         req.Name,
			PhonePattern: req.PhonePattern,
			Currency:     req.Currency,
			VATPickupBps: req.VATPickupBps,
			VATTableBps:  req.VATTableBps,
			TrialStart:   req.TrialStart,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, tenant)
	}
}

func GetTenant(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenants service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tenant, err := svc.GetTenant(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tenant)
	}
}

type setOpenRequest struct {
	Open *bool `json:"open" validate:"required"`
}

// SetTenantOpen flips the accepting-orders switch for a truck.
func SetTenantOpen(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenants service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setOpenRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetOpen(r.Context(), tenantID, *req.Open); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"open": *req.Open})
	}
}
