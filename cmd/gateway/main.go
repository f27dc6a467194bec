package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/checkman123/OpenTelemetry/internal/adapters/downstream"
	"github.com/checkman123/OpenTelemetry/internal/adapters/http/handlers"
	"github.com/checkman123/OpenTelemetry/internal/app/gateway"
	"github.com/checkman123/OpenTelemetry/internal/bootstrap"
	"github.com/checkman123/OpenTelemetry/internal/logging"
)

func main() {
	ctx, stop := bootstrap.SignalContext()
	defer stop()

	cfg, tp := bootstrap.Init(ctx, "gateway")
	defer bootstrap.ShutdownTracing(tp)

	endpoints := make(map[string]downstream.EndpointConfig, len(cfg.Downstream))
	for name, d := range cfg.Downstream {
		endpoints[name] = downstream.EndpointConfig{URL: d.URL, Timeout: d.Timeout}
	}
	factory, err := downstream.NewFactory(endpoints)
	if err != nil {
		logging.LogError("downstream factory", err, logrus.Fields{})
		os.Exit(1)
	}
	logging.LogInfo("downstream endpoints configured", logrus.Fields{"endpoints": factory.Names()})

	svc := gateway.NewService(downstream.NewClient(factory, tp))
	router := handlers.NewRouter(handlers.RouterConfig{
		Service:       cfg.App.ServiceName,
		GraphQL:       handlers.GatewaySchema(svc, tp),
		TraceProvider: tp,
	})

	if err := handlers.Serve(ctx, bootstrap.HTTPServer(cfg, router), 10*time.Second); err != nil {
		logging.LogError("http server failed", err, logrus.Fields{"port": cfg.HTTP.Port})
	}
	logging.LogInfo("bye", logrus.Fields{})
}
