package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/checkman123/OpenTelemetry/internal/logging"
)

type RouterConfig struct {
	Service       string
	GraphQL       http.Handler
	Observations  *ObservationHandlers
	Readiness     map[string]ReadinessCheck
	TraceProvider trace.TracerProvider
}

// NewRouter mounts /healthz, /readyz, /graphql and, when configured,
// /observations/{entityId}. The whole router is wrapped in an otelhttp
// server span so incoming traceparent headers are continued.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", HealthHandler(cfg.Service))
	r.Get("/readyz", ReadyHandler(cfg.Readiness))
	if cfg.GraphQL != nil {
		r.Handle("/graphql", cfg.GraphQL)
	}
	if cfg.Observations != nil {
		r.Get("/observations/{entityId}", cfg.Observations.GetHandler)
	}

	return otelhttp.NewHandler(r, cfg.Service,
		otelhttp.WithTracerProvider(cfg.TraceProvider),
		otelhttp.WithPropagators(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		)),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		logging.LogInfo("HTTP server listening", logrus.Fields{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.LogError("HTTP server shutdown failed", err, logrus.Fields{"addr": srv.Addr})
		return err
	}
	logging.LogInfo("HTTP server stopped", logrus.Fields{"addr": srv.Addr})
	return nil
}
