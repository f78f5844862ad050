package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/pharmacy-inventory/api/responses"
	"github.com/angelmondragon/pharmacy-inventory/pkg/config"
	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
	"github.com/angelmondragon/pharmacy-inventory/pkg/logger"
)

const readinessTimeout = 3 * time.Second

// ReadinessCheck is a named dependency probe.
type ReadinessCheck struct {
	Name  string
	Check func(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Pharmacy-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every dependency answers.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Pharmacy-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := map[string]string{}
		var errs error
		for _, c := range checks {
			if c.Check == nil {
				continue
			}
			if err := c.Check(ctx); err != nil {
				status[c.Name] = "down"
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", c.Name, err))
				continue
			}
			status[c.Name] = "up"
		}

		if errs != nil {
			typed := pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "dependency unavailable").WithDetails(status)
			responses.WriteError(r.Context(), logg, w, typed)
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": status})
	}
}
