package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"productcatalog/internal/config"
	"productcatalog/internal/db"
	"productcatalog/internal/logger"
	"productcatalog/internal/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	cmd := flag.String("cmd", "up", "goose command: up|down|status|version|redo|reset|up-to|down-to")
	version := flag.String("version", "", "target version for up-to and down-to")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
	})

	if cfg.DB.Driver != config.DriverPostgres {
		fmt.Fprintf(os.Stderr, "goose migrations target postgres; DB_DRIVER is %q (sqlite uses AUTO_MIGRATE)\n", cfg.DB.Driver)
		os.Exit(1)
	}

	client, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer client.Close()

	sqlDB, err := client.SQL()
	requireResource(ctx, logg, "sql database", err)

	var args []string
	switch *cmd {
	case "up-to", "down-to":
		if *version == "" {
			fmt.Fprintf(os.Stderr, "missing -version for %s\n", *cmd)
			os.Exit(1)
		}
		args = append(args, *version)
	}

	logg.Info(ctx, "migrate ready")
	if err := migrate.Run(ctx, sqlDB, *cmd, args...); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
