package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/checkman123/OpenTelemetry/internal/logging"
)

var startedAt = time.Now()

// HealthHandler is the liveness probe.
func HealthHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":     "ok",
			"service":    service,
			"started_at": startedAt.Format(time.RFC3339),
			"uptime_sec": int(time.Since(startedAt).Seconds()),
		})
	}
}

type ReadinessCheck func(ctx context.Context) error

// ReadyHandler runs every check with a short timeout; any failure is a 503.
func ReadyHandler(checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		code := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logging.LogErrorCtx(ctx, "readiness: "+name+" not ready", err, logrus.Fields{"check": name})
				status[name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		writeJSON(w, code, map[string]any{"ready": code == http.StatusOK, "checks": status})
	}
}
