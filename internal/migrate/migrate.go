package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"productcatalog/internal/config"
	"productcatalog/internal/db"
	"productcatalog/internal/logger"
)

const Dir = "migrations"

//go:embed migrations/*.sql
var FS embed.FS

// Run executes a goose command (up, down, status, version, redo, reset)
// against the embedded Postgres migrations.
func Run(ctx context.Context, sqlDB *sql.DB, command string, args ...string) error {
	if sqlDB == nil {
		return fmt.Errorf("db is required")
	}
	goose.SetBaseFS(FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, sqlDB, Dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Prepare brings the schema up to date at startup when AUTO_MIGRATE is set.
// SQLite databases are created from the models; Postgres runs goose up.
func Prepare(ctx context.Context, cfg config.DBConfig, client *db.Client, logg *logger.Logger) error {
	if !cfg.AutoMigrate {
		return nil
	}
	ctx = logg.WithField(ctx, "driver", cfg.Driver)

	if cfg.Driver == config.DriverSQLite {
		logg.Info(ctx, "auto-migrating sqlite schema")
		return client.AutoMigrate(ctx)
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	logg.Info(ctx, "running goose migrations")
	if err := Run(ctx, sqlDB, "up"); err != nil {
		return err
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}
