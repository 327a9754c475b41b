package main

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os/signal"
	"syscall"

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

	if cfg.Server.UpstreamURL == "" {
		log.Fatal("UPSTREAM_URL is required")
	}
	target, err := url.Parse(cfg.Server.UpstreamURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		log.WithField("upstream", cfg.Server.UpstreamURL).Fatal("invalid UPSTREAM_URL")
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("proxy error")
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	limiter, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("rate limiter setup failed")
	}
	defer func() { _ = limiter.Close() }()

	servers := []*http.Server{bootstrap.NewServer(cfg.Server.ListenAddr, limiter.Wrap(proxy))}
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", limiter.MetricsHandler())
		servers = append(servers, bootstrap.NewServer(cfg.Server.MetricsAddr, mux))
	}

	log.WithField("upstream", target.String()).Info("gateway proxying")
	if err := bootstrap.Serve(ctx, log, servers...); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
