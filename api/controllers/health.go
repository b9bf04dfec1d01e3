package controllers

import (
	"context"
	"net/http"

	"github.com/verdantrow/storefront-backend/api/responses"
	"github.com/verdantrow/storefront-backend/pkg/config"
	pkgerrors "github.com/verdantrow/storefront-backend/pkg/errors"
	"github.com/verdantrow/storefront-backend/pkg/logger"
)

// Pinger is a dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithField(ctx, "dependency", name)
					logg.Error(ctx, "readiness check failed", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
