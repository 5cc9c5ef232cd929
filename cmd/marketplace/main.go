package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"CampusMart/internal/access"
	"CampusMart/internal/auth"
	"CampusMart/internal/config"
	"CampusMart/internal/listing"
	"CampusMart/internal/market"
	"CampusMart/pkg/kit"
)

func main() {
	service := "marketplace"

	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger(service, "info").Fatal("config load failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("config invalid", zap.Error(err))
	}

	ctx := context.Background()

	store, closeStore, err := listing.Open(ctx, cfg.DatabaseURL, cfg.SeedDemo)
	if err != nil {
		log.Fatal("store open failed", zap.Error(err))
	}
	defer func() { _ = closeStore() }()

	svc := access.NewService(store, access.Options{
		Latency: cfg.Latency(),
		Gate:    cfg.Gate(),
		Log:     log.Named("access"),
	})

	s := &market.Server{
		Access:   svc,
		Tokens:   auth.NewTokenMaker(cfg.JWTSecret),
		Log:      log,
		TokenTTL: cfg.TokenTTL,
		Timeout:  cfg.RequestTimeout,
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	h := market.NewHandler(s, market.HTTPDeps{
		Log:             log,
		Service:         service,
		Registry:        reg,
		MetricsEnabled:  cfg.MetricsEnabled,
		MetricsToken:    cfg.MetricsToken,
		LoginRatePerMin: cfg.LoginRatePerMin,
	})

	log.Info("marketplace configured",
		zap.Bool("postgres", cfg.DatabaseURL != ""),
		zap.String("email_domain", cfg.EmailDomain),
		zap.Duration("request_timeout", cfg.RequestTimeout),
	)

	if err := kit.RunHTTPServer(ctx, cfg.HTTPAddr, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
