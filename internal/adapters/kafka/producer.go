package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	kgo "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/checkman123/OpenTelemetry/internal/domain/event"
	"github.com/checkman123/OpenTelemetry/internal/faults"
	"github.com/checkman123/OpenTelemetry/internal/logging"
	"github.com/checkman123/OpenTelemetry/internal/tracing"
)

var errMissingAck = errors.New("broker acknowledged without partition/offset")

type ProducerConfig struct {
	Brokers                []string
	ClientID               string
	Topic                  string
	BatchTimeout           time.Duration // 10 * time.Millisecond
	WriteTimeout           time.Duration // 5 * time.Second
	FlushTimeout           time.Duration // 5 * time.Second
	Compression            kgo.Compression
	AllowAutoTopicCreation bool
}

// Publisher sends DomainEvents to one topic. It is safe for concurrent use.
type Publisher struct {
	cfg       ProducerConfig
	w         syncWriter
	tracer    trace.Tracer
	bootstrap string
}

func NewPublisher(cfg ProducerConfig, tp trace.TracerProvider) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka publisher requires a topic")
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return newPublisher(cfg, newAckWriter(cfg), tp), nil
}

func newPublisher(cfg ProducerConfig, w syncWriter, tp trace.TracerProvider) *Publisher {
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = 5 * time.Second
	}
	return &Publisher{
		cfg:       cfg,
		w:         w,
		tracer:    tp.Tracer(tracing.InstrumentationName),
		bootstrap: strings.Join(cfg.Brokers, ","),
	}
}

func (p *Publisher) Topic() string { return p.cfg.Topic }

// Publish writes e and waits for the acknowledgment of all in-sync replicas.
// Any broker or network failure is returned as *faults.TransportError; the
// event is then not confirmed.
func (p *Publisher) Publish(ctx context.Context, e event.DomainEvent) (event.PublishResult, error) {
	ctx, span := p.tracer.Start(ctx, p.cfg.Topic+" publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			tracing.MessagingSystem.String("kafka"),
			tracing.MessagingDestination.String(p.cfg.Topic),
			tracing.MessagingDestinationKind.String("topic"),
			tracing.KafkaBootstrapServers.String(p.bootstrap),
			tracing.EventType.String(e.EventType()),
		),
	)
	defer span.End()

	fields := logrus.Fields{
		"topic":      p.cfg.Topic,
		"event_type": e.EventType(),
		"entity_id":  e.EntityID().String(),
	}

	value, err := json.Marshal(e)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode event")
		logging.LogErrorCtx(ctx, "kafka publish failed: event not encodable", err, fields)
		return event.PublishResult{}, fmt.Errorf("encode event: %w", err)
	}

	msg := kgo.Message{
		Topic: p.cfg.Topic,
		Key:   e.Key(),
		Value: value,
		Time:  e.OccurredAt(),
		Headers: []kgo.Header{
			{Key: HeaderContentType, Value: []byte(contentTypeJSON)},
			{Key: HeaderEventType, Value: []byte(e.EventType())},
		},
	}
	tracing.InjectContext(ctx, tracing.NewHeaderCarrier(&msg.Headers))

	written, err := p.w.WriteMessage(ctx, msg)
	if err == nil && (written.Partition < 0 || written.Offset < 0) {
		err = errMissingAck
	}
	if err != nil {
		terr := &faults.TransportError{Op: "publish", Target: p.cfg.Topic, Err: err}
		span.RecordError(terr)
		span.SetStatus(codes.Error, terr.Error())
		logging.LogErrorCtx(ctx, "kafka publish failed", err, fields)
		return event.PublishResult{}, terr
	}

	span.SetAttributes(
		tracing.KafkaPartition.Int(written.Partition),
		tracing.KafkaOffset.Int64(written.Offset),
		tracing.MessagingMessageID.String(headerValue(written.Headers, HeaderMessageID)),
	)
	fields["partition"] = written.Partition
	fields["offset"] = written.Offset
	logging.LogInfoCtx(ctx, "event published", fields)

	return event.PublishResult{Partition: written.Partition, Offset: written.Offset}, nil
}

// Close flushes buffered messages, giving up after FlushTimeout.
func (p *Publisher) Close() error {
	done := make(chan error, 1)
	go func() { done <- p.w.Close() }()

	timer := time.NewTimer(p.cfg.FlushTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		logging.LogWarn("kafka producer flush timed out", nil, logrus.Fields{
			"topic":   p.cfg.Topic,
			"timeout": p.cfg.FlushTimeout.String(),
		})
		return nil
	}
}
