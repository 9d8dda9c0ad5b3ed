package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"productcatalog/internal/accounts"
	"productcatalog/internal/catalog"
	"productcatalog/internal/config"
	"productcatalog/internal/db"
	"productcatalog/internal/logger"
	"productcatalog/internal/migrate"
	"productcatalog/internal/server"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "catalog"})

	// .env is looked up in the current dir and its parents, so the binary can
	// be started from the repo root or from cmd/server.
	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		if wd, wdErr := os.Getwd(); wdErr == nil {
			logg.Warn(logg.WithField(context.Background(), "cwd", wd), "check that .env is reachable from here")
		}
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "catalog",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"driver": cfg.DB.Driver,
	})

	client := db.MustOpen(ctx, cfg.DB, logg)

	if err := migrate.Prepare(ctx, cfg.DB, client, logg); err != nil {
		logg.Error(ctx, "failed to migrate database", err)
		_ = client.Close()
		os.Exit(1)
	}

	accts := accounts.NewService(client, logg, accounts.CreateProfile)
	products := catalog.NewService(client, logg)

	if cfg.Admin.Enabled() {
		u, err := accts.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap admin user", err)
			_ = client.Close()
			os.Exit(1)
		}
		logg.Info(logg.WithUserID(ctx, u.ID), "admin user ready")
	}

	srv := server.New(server.Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       client,
		Accounts: accts,
		Catalog:  products,
	})

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(runCtx); err != nil {
		logg.Error(ctx, "server stopped with error", err)
		os.Exit(1)
	}
}
