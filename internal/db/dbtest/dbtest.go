// Package dbtest opens isolated in-memory SQLite databases for package tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"productcatalog/internal/db"
)

// Open returns a migrated client over a fresh in-memory database with
// foreign keys enforced, so cascades behave as they do on Postgres.
func Open(t *testing.T) *db.Client {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	client := db.Wrap(conn)
	if err := client.AutoMigrate(context.Background()); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

// Count returns the number of rows of model matching the optional condition.
func Count(t *testing.T, client *db.Client, model any, query string, args ...any) int64 {
	t.Helper()
	q := client.DB(context.Background()).Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
