package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"CampusMart/internal/access"
	"CampusMart/internal/cli"
	"CampusMart/internal/config"
	"CampusMart/internal/listing"
	"CampusMart/internal/market"
	"CampusMart/internal/session"
	"CampusMart/pkg/kit"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "campusmart:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := kit.NewLogger("campusmart", cfg.CLILogLevel)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	var backend session.Backend
	if cfg.ServerURL != "" {
		backend = market.NewClient(cfg.ServerURL)
		log.Info("using marketplace service", zap.String("url", cfg.ServerURL))
	} else {
		store, closeStore, err := listing.Open(ctx, cfg.DatabaseURL, cfg.SeedDemo)
		if err != nil {
			return err
		}
		defer func() { _ = closeStore() }()

		backend = access.NewService(store, access.Options{
			Latency: cfg.Latency(),
			Gate:    cfg.Gate(),
			Log:     log.Named("access"),
		})
	}

	ctrl := session.New(backend, session.Options{
		Log:         log.Named("session"),
		EmailDomain: cfg.EmailDomain,
	})

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	return cli.New(ctrl, os.Stdin, os.Stdout, interactive).Run(ctx)
}
