package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/database"
	"ms-storefront/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// RunInTx runs fn in one transaction; fn's error rolls everything back.
func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return d.Bun.RunInTx(ctx, nil, fn)
}

func (d *DB) CreateOrder(ctx context.Context, idb bun.IDB, o *models.Order) error {
	_, err := idb.NewInsert().Model(o).Returning("*").Exec(ctx)
	return database.Translate(err, "Order")
}

func (d *DB) CreateItems(ctx context.Context, idb bun.IDB, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	_, err := idb.NewInsert().Model(&items).Returning("*").Exec(ctx)
	return database.Translate(err, "Order item")
}

func (d *DB) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var o models.Order
	if err := d.Bun.NewSelect().Model(&o).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, database.Translate(err, "Order")
	}
	return &o, nil
}

func (d *DB) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	var o models.Order
	if err := d.Bun.NewSelect().Model(&o).Where("order_number = ?", number).Limit(1).Scan(ctx); err != nil {
		return nil, database.Translate(err, "Order")
	}
	return &o, nil
}

func (d *DB) List(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	if err := d.Bun.NewSelect().Model(&out).Order("created_at DESC", "id DESC").Scan(ctx); err != nil {
		return nil, database.Translate(err, "Order")
	}
	return out, nil
}

func (d *DB) ListByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	var out []models.Order
	err := d.Bun.NewSelect().
		Model(&out).
		Where("user_id = ?", userID).
		Order("created_at DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, database.Translate(err, "Order")
	}
	return out, nil
}

func (d *DB) Items(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var out []models.OrderItem
	err := d.Bun.NewSelect().
		Model(&out).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, database.Translate(err, "Order item")
	}
	return out, nil
}

func (d *DB) UpdateStatus(ctx context.Context, id int64, status string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return database.Translate(err, "Order")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("Order not found")
	}
	return nil
}
