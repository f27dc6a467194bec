package main

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/checkman123/OpenTelemetry/internal/adapters/http/handlers"
	"github.com/checkman123/OpenTelemetry/internal/adapters/repo"
	"github.com/checkman123/OpenTelemetry/internal/app/users"
	"github.com/checkman123/OpenTelemetry/internal/bootstrap"
	"github.com/checkman123/OpenTelemetry/internal/logging"
)

func main() {
	ctx, stop := bootstrap.SignalContext()
	defer stop()

	cfg, tp := bootstrap.Init(ctx, "user-service")
	defer bootstrap.ShutdownTracing(tp)

	checks := map[string]handlers.ReadinessCheck{}

	var store users.Repo
	if cfg.Store.Backend == "postgres" {
		// Schema is owned by the pgx migrations; gorm only maps rows.
		pool := bootstrap.MustPG(ctx, cfg, repo.Migrate)
		pool.Close()

		db, err := repo.OpenGorm(ctx, cfg.DB.DSN(), cfg.DB.MaxConns)
		if err != nil {
			logging.LogError("gorm open failed", err, logrus.Fields{})
			os.Exit(1)
		}
		sqlDB, err := db.DB()
		if err != nil {
			logging.LogError("gorm sql handle", err, logrus.Fields{})
			os.Exit(1)
		}
		defer sqlDB.Close()
		checks["postgres"] = func(ctx context.Context) error { return sqlDB.PingContext(ctx) }
		store = repo.NewUserGorm(db)
	} else {
		store = repo.NewUserMemory()
	}
	logging.LogInfo("user store ready", logrus.Fields{"backend": cfg.Store.Backend})

	pub := bootstrap.MustPublisher(cfg, cfg.Kafka.UserTopic, tp)
	defer pub.Close()

	obsLog, obsCheck, closeLog := bootstrap.ObservationLog(cfg)
	defer closeLog()
	if obsCheck != nil {
		checks["redis"] = obsCheck
	}

	sub, observer := bootstrap.StartObserver(ctx, cfg, cfg.Kafka.UserTopic, obsLog, tp)
	defer bootstrap.StopObserver(sub)

	svc := users.NewService(store, pub, tp)
	router := handlers.NewRouter(handlers.RouterConfig{
		Service:       cfg.App.ServiceName,
		GraphQL:       handlers.UserSchema(svc, tp),
		Observations:  handlers.NewObservationHandlers(observer),
		Readiness:     checks,
		TraceProvider: tp,
	})

	if err := handlers.Serve(ctx, bootstrap.HTTPServer(cfg, router), 10*time.Second); err != nil {
		logging.LogError("http server failed", err, logrus.Fields{"port": cfg.HTTP.Port})
	}
	logging.LogInfo("bye", logrus.Fields{})
}
