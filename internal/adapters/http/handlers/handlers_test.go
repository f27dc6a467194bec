package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/checkman123/OpenTelemetry/internal/adapters/cache"
	"github.com/checkman123/OpenTelemetry/internal/logging"
)

type fakeObservations struct {
	obs map[string][]cache.Observation
	err error
}

func (f fakeObservations) Observations(_ context.Context, id string) ([]cache.Observation, error) {
	if f.err != nil {
		return nil, f.err
	}
	o, ok := f.obs[id]
	if !ok {
		return nil, cache.ErrNotFound
	}
	return o, nil
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler("inventory-service")(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "inventory-service", body["service"])
}

func TestReadyHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	rec := httptest.NewRecorder()
	ReadyHandler(map[string]ReadinessCheck{"postgres": ok})(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	ReadyHandler(map[string]ReadinessCheck{"postgres": ok, "redis": down})(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")

	rec = httptest.NewRecorder()
	ReadyHandler(nil)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestObservationHandlers(t *testing.T) {
	known := uuid.NewString()
	src := fakeObservations{obs: map[string][]cache.Observation{
		known: {{EntityID: known, EventType: "InventoryItemAdded", Topic: "inventory-events", Offset: 4}},
	}}
	router := NewRouter(RouterConfig{Service: "inventory-service", Observations: NewObservationHandlers(src)})

	cases := []struct {
		name string
		id   string
		code int
	}{
		{"found", known, http.StatusOK},
		{"upper-case id", strings.ToUpper(known), http.StatusOK},
		{"urn id", "urn:uuid:" + known, http.StatusOK},
		{"unknown entity", uuid.NewString(), http.StatusNotFound},
		{"bad id", "not-a-uuid", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/observations/"+tc.id, nil))
			assert.Equal(t, tc.code, rec.Code)
		})
	}

	t.Run("backend failure", func(t *testing.T) {
		r := NewRouter(RouterConfig{Observations: NewObservationHandlers(fakeObservations{err: errors.New("redis down")})})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/observations/"+known, nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/observations/"+known, nil))
	var got []cache.Observation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "InventoryItemAdded", got[0].EventType)
}

func TestRequestLoggerLevels(t *testing.T) {
	logging.InitLogger("gateway", "debug")
	hook := test.NewLocal(logging.Logger)

	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte("ok"))
		}
	}))

	cases := map[string]logrus.Level{
		"/fine":    logrus.InfoLevel,
		"/missing": logrus.WarnLevel,
		"/broken":  logrus.ErrorLevel,
	}
	for path, level := range cases {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, level, entry.Level, path)
		assert.True(t, strings.HasPrefix(entry.Message, "HTTP GET "+path+" responded "), entry.Message)
		assert.Contains(t, entry.Data, "elapsed_ms")
	}
}

func TestRouterContinuesIncomingTrace(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	router := NewRouter(RouterConfig{Service: "gateway", TraceProvider: tp})

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, traceID, spans[0].SpanContext().TraceID().String())
	assert.True(t, spans[0].Parent().IsRemote())
	assert.Equal(t, "GET /healthz", spans[0].Name())
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, time.Second) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
