package controllers

import (
	"context"
	"net/http"

	"github.com/truckbite/truckbite-backend/api/responses"
	"github.com/truckbite/truckbite-backend/pkg/config"
	"github.com/truckbite/truckbite-backend/pkg/logger"
)

type readinessProbe interface {
	Ping(ctx context.Context) error
}

// ReadinessProbes names each dependency checked by the readiness endpoint.
type ReadinessProbes map[string]readinessProbe

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Truckbite-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, probes ReadinessProbes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Truckbite-Env", cfg.App.Env)

		status := map[string]string{}
		healthy := true
		for name, probe := range probes {
			if probe == nil {
				status[name] = "skipped"
				continue
			}
			if err := probe.Ping(r.Context()); err != nil {
				status[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(r.Context(), "readiness probe failed: "+name, err)
				}
				continue
			}
			status[name] = "ok"
		}

		if !healthy {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
