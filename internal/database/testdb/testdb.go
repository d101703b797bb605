// Package testdb opens an in-memory sqlite database with the storefront schema
// for repository and service tests.
package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-storefront/internal/models"
)

var allModels = []interface{}{
	(*models.User)(nil),
	(*models.Category)(nil),
	(*models.Product)(nil),
	(*models.Event)(nil),
	(*models.Order)(nil),
	(*models.OrderItem)(nil),
	(*models.Ticket)(nil),
	(*models.Setting)(nil),
	(*models.CartItem)(nil),
}

// New returns a fresh database private to t. It is closed on cleanup.
func New(t *testing.T) *bun.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	// One connection keeps the in-memory database alive and serialises
	// transactions the way row locks would on Postgres.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	ctx := context.Background()
	for _, m := range allModels {
		if err := db.ResetModel(ctx, m); err != nil {
			t.Fatalf("Failed to create table for %T: %v", m, err)
		}
	}

	t.Cleanup(func() { db.Close() })
	return db
}
