package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/checkman123/OpenTelemetry/internal/adapters/cache"
	"github.com/checkman123/OpenTelemetry/internal/adapters/kafka"
	"github.com/checkman123/OpenTelemetry/internal/domain/event"
)

func message(t *testing.T, e event.DomainEvent, offset int64) kafka.Message {
	t.Helper()
	b, err := json.Marshal(e)
	require.NoError(t, err)
	return kafka.Message{Topic: "user-events", Partition: 1, Offset: offset, Key: e.Key(), Value: b}
}

func TestObserveRecordsEvent(t *testing.T) {
	log := cache.NewLRU(10, 0)
	o := NewEventObserver(log)
	observedAt := time.Date(2026, 3, 1, 9, 0, 5, 0, time.UTC)
	o.now = func() time.Time { return observedAt }

	id := uuid.New()
	e, err := event.New(event.TypeUserCreated, id, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), event.Attr("name", "Bob"))
	require.NoError(t, err)

	ctx, span := sdktrace.NewTracerProvider().Tracer("test").Start(context.Background(), "user-events receive")
	defer span.End()

	require.NoError(t, o.Observe(ctx, message(t, e, 3)))
	// redelivery of the same record
	require.NoError(t, o.Observe(ctx, message(t, e, 3)))

	got, err := o.Observations(context.Background(), id.String())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, cache.Observation{
		EntityID:   id.String(),
		EventType:  event.TypeUserCreated,
		Topic:      "user-events",
		Partition:  1,
		Offset:     3,
		TraceID:    span.SpanContext().TraceID().String(),
		OccurredAt: e.OccurredAt(),
		ObservedAt: observedAt,
	}, got[0])
}

func TestObserveRejectsForeignPayload(t *testing.T) {
	o := NewEventObserver(cache.NewLRU(10, 0))

	err := o.Observe(context.Background(), kafka.Message{Topic: "user-events", Value: []byte(`{"hello":"world"}`)})
	assert.Error(t, err)
}
