package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/harvestconnect/harvestcart/api/responses"
	"github.com/harvestconnect/harvestcart/pkg/config"
	pkgerrors "github.com/harvestconnect/harvestcart/pkg/errors"
	"github.com/harvestconnect/harvestcart/pkg/logger"
)

const readinessTimeout = 2 * time.Second

const envHeader = "X-Harvest-Env"

// Pinger is implemented by storage backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the cart storage backend.
func HealthReady(cfg *config.Config, logg *logger.Logger, backend Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		if backend != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()
			if err := backend.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart storage not ready").
					WithDetails(map[string]any{"backend": cfg.Cart.NormalizedBackend()}))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{
			"status":  "ready",
			"backend": cfg.Cart.NormalizedBackend(),
		})
	}
}
