package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/aurevo/storefront/api/responses"
	"github.com/aurevo/storefront/pkg/config"
	pkgerrors "github.com/aurevo/storefront/pkg/errors"
	"github.com/aurevo/storefront/pkg/logger"
	"github.com/aurevo/storefront/pkg/orderapi"
)

const envHeader = "X-Aurevo-Env"

type Pinger interface {
	Ping(ctx context.Context) error
}

// StorageProbe reports whether the cart store round-trips.
type StorageProbe interface {
	IsAvailable(ctx context.Context) bool
}

// BreakerReporter exposes the order endpoint breaker state.
type BreakerReporter interface {
	State() orderapi.BreakerState
}

// ReadyDeps are the dependencies checked by the readiness probe. Nil entries are skipped.
type ReadyDeps struct {
	Storage StorageProbe
	DB      Pinger
	Redis   Pinger
	Orders  BreakerReporter
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady fails only when the order ledger or redis is unreachable. An
// unavailable cart store is reported as degraded since carts fall back to memory.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ReadyDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		status := "ready"

		if deps.DB != nil {
			if err := deps.DB.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
			checks["database"] = "ok"
		}
		if deps.Redis != nil {
			if err := deps.Redis.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
			checks["redis"] = "ok"
		}
		if deps.Storage != nil {
			checks["storage"] = "ok"
			if !deps.Storage.IsAvailable(ctx) {
				checks["storage"] = "unavailable"
				status = "degraded"
			}
		}
		if deps.Orders != nil {
			state := deps.Orders.State()
			checks["orderEndpoint"] = state.String()
			if state == orderapi.BreakerOpen {
				status = "degraded"
			}
		}

		responses.WriteSuccess(w, map[string]any{"status": status, "checks": checks})
	}
}
