package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/checkman123/OpenTelemetry/internal/adapters/cache"
	"github.com/checkman123/OpenTelemetry/internal/adapters/kafka"
	"github.com/checkman123/OpenTelemetry/internal/logging"
)

// EventObserver records every consumed domain event in the observation log.
type EventObserver struct {
	log cache.Cache
	now func() time.Time
}

func NewEventObserver(log cache.Cache) *EventObserver {
	return &EventObserver{log: log, now: time.Now}
}

// Observe is a kafka.Handler. Records that are not domain events are
// rejected with an error; the subscriber logs it and moves on.
func (o *EventObserver) Observe(ctx context.Context, msg kafka.Message) error {
	e, err := msg.Event()
	if err != nil {
		return err
	}

	obs := cache.Observation{
		EntityID:   e.EntityID().String(),
		EventType:  e.EventType(),
		Topic:      msg.Topic,
		Partition:  msg.Partition,
		Offset:     msg.Offset,
		OccurredAt: e.OccurredAt(),
		ObservedAt: o.now().UTC(),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		obs.TraceID = sc.TraceID().String()
	}

	if err := o.log.Record(ctx, obs); err != nil {
		return fmt.Errorf("record observation: %w", err)
	}

	logging.LogInfoCtx(ctx, "event observed", logrus.Fields{
		"event_type": obs.EventType,
		"entity_id":  obs.EntityID,
		"topic":      obs.Topic,
		"partition":  obs.Partition,
		"offset":     obs.Offset,
	})
	return nil
}

func (o *EventObserver) Observations(ctx context.Context, entityID string) ([]cache.Observation, error) {
	return o.log.Get(ctx, entityID)
}
