package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	kgo "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/checkman123/OpenTelemetry/internal/domain/event"
	"github.com/checkman123/OpenTelemetry/internal/logging"
	"github.com/checkman123/OpenTelemetry/internal/tracing"
)

var ErrAlreadyStarted = errors.New("subscriber already started")

type State int32

const (
	StateCreated State = iota
	StateSubscribed
	StatePolling
	StateObserving
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSubscribed:
		return "subscribed"
	case StatePolling:
		return "polling"
	case StateObserving:
		return "observing"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Message is a consumed kafka record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Headers   map[string]string
	Value     []byte
	Time      time.Time
}

// Event decodes the record value as a DomainEvent.
func (m Message) Event() (event.DomainEvent, error) {
	var e event.DomainEvent
	if err := json.Unmarshal(m.Value, &e); err != nil {
		return event.DomainEvent{}, fmt.Errorf("decode %s@%d/%d: %w", m.Topic, m.Partition, m.Offset, err)
	}
	return e, nil
}

type Handler func(ctx context.Context, msg Message) error

type ConsumerConfig struct {
	Brokers           []string
	ClientID          string
	Topic             string
	GroupID           string
	MinBytes          int           // 1
	MaxBytes          int           // 10 << 20
	MaxWait           time.Duration // 500 * time.Millisecond
	SessionTimeout    time.Duration // 10 * time.Second
	RebalanceTimeout  time.Duration // 10 * time.Second
	HeartbeatInterval time.Duration // 3 * time.Second
	CommitInterval    time.Duration // 1 * time.Second
	Backoff           time.Duration // 1 * time.Second
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kgo.Message, error)
	Close() error
}

// Subscriber consumes one topic with a single goroutine. Offsets are
// committed periodically by the group reader, so a crash may redeliver.
type Subscriber struct {
	cfg       ConsumerConfig
	handler   Handler
	tracer    trace.Tracer
	bootstrap string
	newReader func(ConsumerConfig) messageReader
	sleep     func(ctx context.Context, d time.Duration) error

	state atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSubscriber(cfg ConsumerConfig, handler Handler, tp trace.TracerProvider) (*Subscriber, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka subscriber requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka subscriber requires a topic")
	}
	if cfg.GroupID == "" {
		return nil, fmt.Errorf("kafka subscriber requires a group id")
	}
	if handler == nil {
		return nil, fmt.Errorf("kafka subscriber requires a handler")
	}
	return newSubscriber(cfg, handler, tp, newGroupReader), nil
}

func newSubscriber(cfg ConsumerConfig, handler Handler, tp trace.TracerProvider, newReader func(ConsumerConfig) messageReader) *Subscriber {
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.CommitInterval <= 0 {
		cfg.CommitInterval = time.Second
	}
	return &Subscriber{
		cfg:       cfg,
		handler:   handler,
		tracer:    tp.Tracer(tracing.InstrumentationName),
		bootstrap: strings.Join(cfg.Brokers, ","),
		newReader: newReader,
		sleep:     sleepCtx,
		done:      make(chan struct{}),
	}
}

func newGroupReader(cfg ConsumerConfig) messageReader {
	minBytes, maxBytes, maxWait := cfg.MinBytes, cfg.MaxBytes, cfg.MaxWait
	if minBytes <= 0 {
		minBytes = 1
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	if maxWait <= 0 {
		maxWait = 500 * time.Millisecond
	}
	return kgo.NewReader(kgo.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		Topic:             cfg.Topic,
		MinBytes:          minBytes,
		MaxBytes:          maxBytes,
		MaxWait:           maxWait,
		StartOffset:       kgo.FirstOffset,
		CommitInterval:    cfg.CommitInterval,
		SessionTimeout:    cfg.SessionTimeout,
		RebalanceTimeout:  cfg.RebalanceTimeout,
		HeartbeatInterval: cfg.HeartbeatInterval,
		Dialer: &kgo.Dialer{
			ClientID:  cfg.ClientID,
			Timeout:   10 * time.Second,
			DualStack: true,
		},
		ErrorLogger: kgo.LoggerFunc(func(msg string, args ...interface{}) {
			logging.LogWarn("kafka reader error: "+fmt.Sprintf(msg, args...), nil, logrus.Fields{
				"topic": cfg.Topic, "group": cfg.GroupID,
			})
		}),
	})
}

func (s *Subscriber) State() State { return State(s.state.Load()) }

func (s *Subscriber) setState(st State) { s.state.Store(int32(st)) }

// Done is closed once the consume loop has fully stopped.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Start runs the consume loop in its own goroutine until ctx is cancelled or
// Stop is called.
func (s *Subscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil || s.State() != StateCreated {
		return ErrAlreadyStarted
	}
	ctx, s.cancel = context.WithCancel(ctx)
	go func() {
		_ = s.Run(ctx)
	}()
	return nil
}

// Stop cancels the loop and waits for it to close, or for ctx to expire.
func (s *Subscriber) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run consumes until ctx is cancelled. Read errors are logged and retried after
// the configured backoff; they never end the loop. Run returns nil on
// cancellation.
func (s *Subscriber) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateSubscribed)) {
		return ErrAlreadyStarted
	}
	defer close(s.done)

	fields := logrus.Fields{"topic": s.cfg.Topic, "group": s.cfg.GroupID, "brokers": s.bootstrap}
	r := s.newReader(s.cfg)
	logging.LogInfo("kafka consumer subscribed", fields)
	defer s.close(r, fields)

	for {
		s.setState(StatePolling)
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logging.LogWarn("error consuming kafka message, retrying", err, logrus.Fields{
				"topic":   s.cfg.Topic,
				"group":   s.cfg.GroupID,
				"backoff": s.cfg.Backoff.String(),
			})
			if s.sleep(ctx, s.cfg.Backoff) != nil {
				return nil
			}
			continue
		}

		s.setState(StateObserving)
		s.observe(ctx, m)
	}
}

func (s *Subscriber) observe(ctx context.Context, m kgo.Message) {
	headers := m.Headers
	parent := tracing.Extract(ctx, tracing.NewHeaderCarrier(&headers))
	ctx, span := s.tracer.Start(parent, m.Topic+" receive",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			tracing.MessagingSystem.String("kafka"),
			tracing.MessagingDestination.String(m.Topic),
			tracing.MessagingDestinationKind.String("topic"),
			tracing.KafkaBootstrapServers.String(s.bootstrap),
			tracing.KafkaConsumerGroup.String(s.cfg.GroupID),
			tracing.KafkaPartition.Int(m.Partition),
			tracing.KafkaOffset.Int64(m.Offset),
			tracing.KafkaMessageKey.String(string(m.Key)),
			tracing.MessagingMessageID.String(headerValue(m.Headers, HeaderMessageID)),
		),
	)
	defer span.End()

	fields := logrus.Fields{
		"topic":     m.Topic,
		"partition": m.Partition,
		"offset":    m.Offset,
		"key":       string(m.Key),
	}
	logging.LogInfoCtx(ctx, "consumed kafka message", fields)

	if err := s.handler(ctx, toMessage(m)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.LogWarnCtx(ctx, "kafka message observation failed", err, fields)
	}
}

func (s *Subscriber) close(r messageReader, fields logrus.Fields) {
	s.setState(StateClosing)
	if err := r.Close(); err != nil {
		logging.LogWarn("error closing kafka consumer", err, fields)
	} else {
		logging.LogInfo("kafka consumer closed", fields)
	}
	s.setState(StateClosed)
}

func toMessage(m kgo.Message) Message {
	return Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Headers:   headerMap(m.Headers),
		Value:     m.Value,
		Time:      m.Time,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
