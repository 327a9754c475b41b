package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"nobra-gateway/calculator"
	"nobra-gateway/internal/bootstrap"
	"nobra-gateway/internal/config"
	"nobra-gateway/internal/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config error")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	limiter, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("rate limiter setup failed")
	}
	defer func() { _ = limiter.Close() }()

	api := calculator.NewHandler(calculator.Default(), log).Routes()
	servers := []*http.Server{bootstrap.NewServer(cfg.Server.ListenAddr, limiter.Wrap(api))}

	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", limiter.MetricsHandler())
		servers = append(servers, bootstrap.NewServer(cfg.Server.MetricsAddr, mux))
	}

	if err := bootstrap.Serve(ctx, log, servers...); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
