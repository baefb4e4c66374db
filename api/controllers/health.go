package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/nyumbahq/nyumba-backend/api/responses"
	"github.com/nyumbahq/nyumba-backend/pkg/config"
	"github.com/nyumbahq/nyumba-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Nyumba-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each dependency with a short deadline. Any failure marks
// the instance not ready; the per-dependency checks are reported so a bad
// dependency is visible from the probe output.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP, gcsP, pubsubP pinger) http.HandlerFunc {
	deps := []struct {
		name string
		dep  pinger
	}{
		{"db", dbP},
		{"redis", redisP},
		{"gcs", gcsP},
		{"pubsub", pubsubP},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Nyumba-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		ready := true
		for _, entry := range deps {
			name, dep := entry.name, entry.dep
			if dep == nil {
				checks[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				ready = false
				checks[name] = "down"
				if logg != nil {
					logg.Error(logg.WithField(r.Context(), "dependency", name), "readiness check failed", err)
				}
				continue
			}
			checks[name] = "up"
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": state,
			"checks": checks,
		})
	}
}
