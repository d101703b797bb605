package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/database"
	"ms-storefront/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := d.Bun.NewSelect().
		Model(&out).
		Order("display_order ASC", "name ASC").
		Scan(ctx)
	if err != nil {
		return nil, database.Translate(err, "Category")
	}
	return out, nil
}

func (d *DB) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	if err := d.Bun.NewSelect().Model(&c).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, database.Translate(err, "Category")
	}
	return &c, nil
}

// CreateCategory appends c after the last category.
func (d *DB) CreateCategory(ctx context.Context, c *models.Category) error {
	var maxOrder sql.NullInt64
	if err := d.Bun.NewSelect().
		Model((*models.Category)(nil)).
		ColumnExpr("MAX(display_order)").
		Scan(ctx, &maxOrder); err != nil {
		return database.Translate(err, "Category")
	}
	if maxOrder.Valid {
		c.DisplayOrder = int(maxOrder.Int64) + 1
	}
	_, err := d.Bun.NewInsert().Model(c).Returning("*").Exec(ctx)
	return database.Translate(err, "Category")
}

// UpdateCategory applies the given column values.
func (d *DB) UpdateCategory(ctx context.Context, id int64, values map[string]interface{}) error {
	return updateColumns(ctx, d.Bun, "categories", id, values, "Category")
}

func (d *DB) DeleteCategory(ctx context.Context, id int64) error {
	return deleteByID(ctx, d.Bun, (*models.Category)(nil), id, "Category")
}

// ReorderCategory moves a category to newOrder, shifting the ones in between
// by one place.
func (d *DB) ReorderCategory(ctx context.Context, id int64, newOrder int) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var c models.Category
		if err := tx.NewSelect().Model(&c).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
			return database.Translate(err, "Category")
		}
		oldOrder := c.DisplayOrder
		if oldOrder == newOrder {
			return nil
		}

		q := tx.NewUpdate().Model((*models.Category)(nil)).Where("id <> ?", id)
		if oldOrder < newOrder {
			q = q.Set("display_order = display_order - 1").
				Where("display_order > ? AND display_order <= ?", oldOrder, newOrder)
		} else {
			q = q.Set("display_order = display_order + 1").
				Where("display_order >= ? AND display_order < ?", newOrder, oldOrder)
		}
		if _, err := q.Exec(ctx); err != nil {
			return database.Translate(err, "Category")
		}

		_, err := tx.NewUpdate().
			Model((*models.Category)(nil)).
			Set("display_order = ?", newOrder).
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", id).
			Exec(ctx)
		return database.Translate(err, "Category")
	})
}

func updateColumns(ctx context.Context, idb bun.IDB, table string, id int64, values map[string]interface{}, what string) error {
	if len(values) == 0 {
		return nil
	}
	values["updated_at"] = time.Now().UTC()
	res, err := idb.NewUpdate().
		Model(&values).
		TableExpr(table).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return database.Translate(err, what)
	}
	return requireAffected(res, what)
}

func deleteByID(ctx context.Context, idb bun.IDB, model interface{}, id int64, what string) error {
	res, err := idb.NewDelete().Model(model).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return database.Translate(err, what)
	}
	return requireAffected(res, what)
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return database.Translate(err, what)
	}
	if n == 0 {
		return apperr.NotFound(what + " not found")
	}
	return nil
}
