package db

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/database"
	"ms-storefront/internal/models"
)

// Owner identifies a cart: a signed-in user, else a guest session.
type Owner struct {
	UserID    *int64
	SessionID string
}

func (o Owner) Empty() bool {
	return o.UserID == nil && o.SessionID == ""
}

// where returns the condition selecting the owner's rows.
func (o Owner) where() (string, interface{}) {
	if o.UserID != nil {
		return "user_id = ?", *o.UserID
	}
	return "session_id = ?", o.SessionID
}

type DB struct {
	Bun *bun.DB
}

func (d *DB) List(ctx context.Context, owner Owner) ([]models.CartItem, error) {
	var out []models.CartItem
	q := d.Bun.NewSelect().Model(&out).Where(owner.where()).Order("id ASC")
	if err := q.Scan(ctx); err != nil {
		return nil, database.Translate(err, "Cart item")
	}
	return out, nil
}

// Add stores item, merging it into an existing line for the same product,
// size and color.
func (d *DB) Add(ctx context.Context, owner Owner, item *models.CartItem) error {
	item.UserID = owner.UserID
	if owner.UserID == nil {
		item.SessionID = owner.SessionID
	} else {
		item.SessionID = ""
	}

	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var existing models.CartItem
		q := tx.NewSelect().
			Model(&existing).
			Where("product_id = ?", item.ProductID).
			Where("COALESCE(size, '') = ?", item.Size).
			Where("COALESCE(color, '') = ?", item.Color).
			Where(owner.where()).
			Limit(1)
		err := q.Scan(ctx)
		if err == nil {
			existing.Quantity += item.Quantity
			existing.UpdatedAt = time.Now().UTC()
			if _, err := tx.NewUpdate().
				Model(&existing).
				Column("quantity", "updated_at").
				WherePK().
				Exec(ctx); err != nil {
				return database.Translate(err, "Cart item")
			}
			*item = existing
			return nil
		}
		if err := database.Translate(err, "Cart item"); !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		_, err = tx.NewInsert().Model(item).Returning("*").Exec(ctx)
		return database.Translate(err, "Cart item")
	})
}

func (d *DB) UpdateQuantity(ctx context.Context, owner Owner, id int64, quantity int) error {
	q := d.Bun.NewUpdate().
		Model((*models.CartItem)(nil)).
		Set("quantity = ?", quantity).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where(owner.where())
	res, err := q.Exec(ctx)
	if err != nil {
		return database.Translate(err, "Cart item")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("Cart item not found")
	}
	return nil
}

func (d *DB) Remove(ctx context.Context, owner Owner, id int64) error {
	q := d.Bun.NewDelete().Model((*models.CartItem)(nil)).Where("id = ?", id).Where(owner.where())
	res, err := q.Exec(ctx)
	if err != nil {
		return database.Translate(err, "Cart item")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("Cart item not found")
	}
	return nil
}

func (d *DB) Clear(ctx context.Context, owner Owner) error {
	_, err := d.Bun.NewDelete().Model((*models.CartItem)(nil)).Where(owner.where()).Exec(ctx)
	return database.Translate(err, "Cart item")
}
