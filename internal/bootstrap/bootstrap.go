// Package bootstrap holds the wiring shared by the service binaries.
package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	kgo "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/checkman123/OpenTelemetry/internal/adapters/cache"
	"github.com/checkman123/OpenTelemetry/internal/adapters/http/handlers"
	"github.com/checkman123/OpenTelemetry/internal/adapters/kafka"
	"github.com/checkman123/OpenTelemetry/internal/config"
	"github.com/checkman123/OpenTelemetry/internal/logging"
	"github.com/checkman123/OpenTelemetry/internal/services"
	"github.com/checkman123/OpenTelemetry/internal/tracing"
)

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Init loads config, sets up logging and the tracer provider, exiting on
// failure.
func Init(ctx context.Context, service string) (config.Config, *sdktrace.TracerProvider) {
	cfg, err := config.Load(service)
	if err != nil {
		logging.InitLogger(service, "info")
		logging.LogError("config load failed", err, logrus.Fields{})
		os.Exit(1)
	}
	logging.InitLogger(cfg.App.ServiceName, cfg.App.LogLevel)

	tp, err := tracing.Setup(ctx, tracing.Config{
		ServiceName: cfg.App.ServiceName,
		Version:     cfg.App.Version,
		Environment: cfg.App.Env,
		Exporter:    cfg.Telemetry.Exporter,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		logging.LogError("tracing setup failed", err, logrus.Fields{"exporter": cfg.Telemetry.Exporter})
		os.Exit(1)
	}

	logging.LogInfo("starting "+cfg.App.ServiceName, logrus.Fields{
		"pid":      os.Getpid(),
		"port":     cfg.HTTP.Port,
		"env":      cfg.App.Env,
		"exporter": cfg.Telemetry.Exporter,
	})
	return cfg, tp
}

// ShutdownTracing flushes pending spans.
func ShutdownTracing(tp *sdktrace.TracerProvider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		logging.LogError("tracer provider shutdown failed", err, logrus.Fields{})
	}
}

// MustPG opens the pgx pool and applies migrations.
func MustPG(ctx context.Context, cfg config.Config, migrate func(*pgxpool.Pool) error) *pgxpool.Pool {
	pcfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		logging.LogError("invalid database dsn", err, logrus.Fields{})
		os.Exit(1)
	}
	if cfg.DB.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.DB.MaxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		logging.LogError("pgxpool.New failed", err, logrus.Fields{"host": pcfg.ConnConfig.Host})
		os.Exit(1)
	}
	if err := migrate(pool); err != nil {
		logging.LogError("database migration failed", err, logrus.Fields{})
		pool.Close()
		os.Exit(1)
	}
	logging.LogInfo("pgx pool created", logrus.Fields{
		"host":      pcfg.ConnConfig.Host,
		"db_name":   pcfg.ConnConfig.Database,
		"max_conns": pcfg.MaxConns,
	})
	return pool
}

// MustPublisher builds the event publisher for topic.
func MustPublisher(cfg config.Config, topic string, tp trace.TracerProvider) *kafka.Publisher {
	p, err := kafka.NewPublisher(kafka.ProducerConfig{
		Brokers:                cfg.Kafka.Brokers,
		ClientID:               cfg.App.ServiceName,
		Topic:                  topic,
		FlushTimeout:           cfg.Kafka.FlushTimeout,
		Compression:            kgo.Snappy,
		AllowAutoTopicCreation: true,
	}, tp)
	if err != nil {
		logging.LogError("kafka publisher", err, logrus.Fields{"topic": topic})
		os.Exit(1)
	}
	logging.LogInfo("kafka publisher created", logrus.Fields{"brokers": cfg.Kafka.Brokers, "topic": topic})
	return p
}

// ObservationLog picks the observation backend and returns a readiness check
// for it (nil for the in-process log).
func ObservationLog(cfg config.Config) (cache.Cache, handlers.ReadinessCheck, func()) {
	if cfg.Observations.Backend == "redis" {
		rc := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Redis.TTL,
		})
		logging.LogInfo("redis observation log enabled", logrus.Fields{"addr": cfg.Redis.Addr, "ttl": cfg.Redis.TTL.String()})
		return rc, rc.Ping, func() { _ = rc.Close() }
	}
	logging.LogInfo("lru observation log enabled", logrus.Fields{"capacity": cfg.Observations.Capacity})
	return cache.NewLRU(cfg.Observations.Capacity, cache.DefaultPerEntity), nil, func() {}
}

// StartObserver subscribes to topic and records every event in log.
func StartObserver(ctx context.Context, cfg config.Config, topic string, log cache.Cache, tp trace.TracerProvider) (*kafka.Subscriber, *services.EventObserver) {
	obs := services.NewEventObserver(log)
	sub, err := kafka.NewSubscriber(kafka.ConsumerConfig{
		Brokers:           cfg.Kafka.Brokers,
		ClientID:          cfg.App.ServiceName,
		Topic:             topic,
		GroupID:           cfg.Kafka.Group,
		MinBytes:          1,
		MaxBytes:          10 << 20,
		MaxWait:           250 * time.Millisecond,
		SessionTimeout:    10 * time.Second,
		RebalanceTimeout:  10 * time.Second,
		HeartbeatInterval: 3 * time.Second,
		CommitInterval:    cfg.Kafka.CommitInterval,
		Backoff:           cfg.Kafka.Backoff,
	}, obs.Observe, tp)
	if err != nil {
		logging.LogError("kafka subscriber", err, logrus.Fields{"topic": topic})
		os.Exit(1)
	}
	if err := sub.Start(ctx); err != nil {
		logging.LogError("kafka subscriber start", err, logrus.Fields{"topic": topic})
		os.Exit(1)
	}
	logging.LogInfo("kafka subscriber started", logrus.Fields{
		"topic": topic, "group": cfg.Kafka.Group, "brokers": cfg.Kafka.Brokers,
	})
	return sub, obs
}

// StopObserver cancels the subscriber and waits for its loop to finish.
func StopObserver(sub *kafka.Subscriber) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sub.Stop(ctx); err != nil {
		logging.LogError("kafka subscriber stop failed", err, logrus.Fields{})
	}
}

// HTTPServer returns a server on the configured port.
func HTTPServer(cfg config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
