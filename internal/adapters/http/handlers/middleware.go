package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/checkman123/OpenTelemetry/internal/logging"
)

// RequestLogger logs one line per request: error for 5xx, warning for 4xx,
// info otherwise.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logging.LogCtx(r.Context(), levelFor(status),
			fmt.Sprintf("HTTP %s %s responded %d", r.Method, r.URL.Path, status),
			logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     status,
				"elapsed_ms": float64(time.Since(start).Microseconds()) / 1000,
				"request_id": middleware.GetReqID(r.Context()),
				"bytes":      ww.BytesWritten(),
			})
	})
}

func levelFor(status int) logrus.Level {
	switch {
	case status >= 500:
		return logrus.ErrorLevel
	case status >= 400:
		return logrus.WarnLevel
	}
	return logrus.InfoLevel
}
