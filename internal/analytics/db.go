package analytics

import (
	"context"

	"github.com/uptrace/bun"

	"ms-storefront/internal/database"
	"ms-storefront/internal/models"
)

// DB runs the aggregate queries behind the admin dashboard.
type DB struct {
	Bun *bun.DB
}

func NewDB(db *bun.DB) *DB {
	return &DB{Bun: db}
}

type StatusCount struct {
	Status string `bun:"status" json:"status"`
	Orders int    `bun:"orders" json:"orders"`
	Amount int64  `bun:"amount" json:"amount"`
}

// OrdersByStatus counts orders and sums their totals per status.
func (d *DB) OrdersByStatus(ctx context.Context) ([]StatusCount, error) {
	var out []StatusCount
	err := d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Column("status").
		ColumnExpr("COUNT(*) AS orders").
		ColumnExpr("COALESCE(SUM(total_amount), 0) AS amount").
		Group("status").
		Order("status ASC").
		Scan(ctx, &out)
	if err != nil {
		return nil, database.Translate(err, "Order")
	}
	return out, nil
}

type TypeCount struct {
	OrderType string `bun:"order_type" json:"orderType"`
	Orders    int    `bun:"orders" json:"orders"`
}

func (d *DB) OrdersByType(ctx context.Context) ([]TypeCount, error) {
	var out []TypeCount
	err := d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Column("order_type").
		ColumnExpr("COUNT(*) AS orders").
		Group("order_type").
		Order("order_type ASC").
		Scan(ctx, &out)
	if err != nil {
		return nil, database.Translate(err, "Order")
	}
	return out, nil
}

// DailySalesData is one day of non-cancelled orders.
type DailySalesData struct {
	Day     string `bun:"day" json:"day"`
	Orders  int    `bun:"orders" json:"orders"`
	Revenue int64  `bun:"revenue" json:"revenue"`
}

// DailySales returns the most recent days with orders, newest first.
func (d *DB) DailySales(ctx context.Context, days int) ([]DailySalesData, error) {
	var out []DailySalesData
	err := d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		ColumnExpr("CAST(DATE(created_at) AS TEXT) AS day").
		ColumnExpr("COUNT(*) AS orders").
		ColumnExpr("COALESCE(SUM(total_amount), 0) AS revenue").
		Where("status <> ?", models.OrderStatusCancelled).
		GroupExpr("CAST(DATE(created_at) AS TEXT)").
		OrderExpr("day DESC").
		Limit(days).
		Scan(ctx, &out)
	if err != nil {
		return nil, database.Translate(err, "Order")
	}
	return out, nil
}
