package main

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/checkman123/OpenTelemetry/internal/adapters/http/handlers"
	"github.com/checkman123/OpenTelemetry/internal/adapters/repo"
	"github.com/checkman123/OpenTelemetry/internal/app/inventory"
	"github.com/checkman123/OpenTelemetry/internal/bootstrap"
	"github.com/checkman123/OpenTelemetry/internal/logging"
)

func main() {
	ctx, stop := bootstrap.SignalContext()
	defer stop()

	cfg, tp := bootstrap.Init(ctx, "inventory-service")
	defer bootstrap.ShutdownTracing(tp)

	checks := map[string]handlers.ReadinessCheck{}

	var store inventory.Repo
	if cfg.Store.Backend == "postgres" {
		pool := bootstrap.MustPG(ctx, cfg, repo.Migrate)
		defer pool.Close()
		checks["postgres"] = pool.Ping
		store = repo.NewInventoryPG(pool)
	} else {
		store = repo.NewInventoryMemory()
	}
	logging.LogInfo("inventory store ready", logrus.Fields{"backend": cfg.Store.Backend})

	pub := bootstrap.MustPublisher(cfg, cfg.Kafka.InventoryTopic, tp)
	defer pub.Close()

	obsLog, obsCheck, closeLog := bootstrap.ObservationLog(cfg)
	defer closeLog()
	if obsCheck != nil {
		checks["redis"] = obsCheck
	}

	sub, observer := bootstrap.StartObserver(ctx, cfg, cfg.Kafka.InventoryTopic, obsLog, tp)
	defer bootstrap.StopObserver(sub)

	svc := inventory.NewService(store, pub)
	router := handlers.NewRouter(handlers.RouterConfig{
		Service:       cfg.App.ServiceName,
		GraphQL:       handlers.InventorySchema(svc, tp),
		Observations:  handlers.NewObservationHandlers(observer),
		Readiness:     checks,
		TraceProvider: tp,
	})

	if err := handlers.Serve(ctx, bootstrap.HTTPServer(cfg, router), 10*time.Second); err != nil {
		logging.LogError("http server failed", err, logrus.Fields{"port": cfg.HTTP.Port})
	}
	logging.LogInfo("bye", logrus.Fields{})
}
