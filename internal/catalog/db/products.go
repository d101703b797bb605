package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-storefront/internal/database"
	"ms-storefront/internal/models"
)

const FeaturedProductsLimit = 8

func (d *DB) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	var out []models.Product
	q := d.Bun.NewSelect().Model(&out).Order("created_at DESC", "id DESC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, database.Translate(err, "Product")
	}
	return out, nil
}

func (d *DB) FeaturedProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := d.Bun.NewSelect().
		Model(&out).
		Where("featured = ?", true).
		Where("active = ?", true).
		Order("created_at DESC", "id DESC").
		Limit(FeaturedProductsLimit).
		Scan(ctx)
	if err != nil {
		return nil, database.Translate(err, "Product")
	}
	return out, nil
}

func (d *DB) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return d.getProduct(ctx, d.Bun, "id = ?", id)
}

func (d *DB) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return d.getProduct(ctx, d.Bun, "slug = ?", slug)
}

func (d *DB) getProduct(ctx context.Context, idb bun.IDB, where string, arg interface{}) (*models.Product, error) {
	var p models.Product
	if err := idb.NewSelect().Model(&p).Where(where, arg).Limit(1).Scan(ctx); err != nil {
		return nil, database.Translate(err, "Product")
	}
	return &p, nil
}

func (d *DB) ProductsByCategory(ctx context.Context, categoryID int64) ([]models.Product, error) {
	var out []models.Product
	err := d.Bun.NewSelect().
		Model(&out).
		Where("category_id = ?", categoryID).
		Where("active = ?", true).
		Order("created_at DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, database.Translate(err, "Product")
	}
	return out, nil
}

// SearchProducts matches active products whose name contains term.
func (d *DB) SearchProducts(ctx context.Context, term string) ([]models.Product, error) {
	var out []models.Product
	err := d.Bun.NewSelect().
		Model(&out).
		Where("name LIKE ?", "%"+term+"%").
		Where("active = ?", true).
		Order("created_at DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, database.Translate(err, "Product")
	}
	return out, nil
}

func (d *DB) CreateProduct(ctx context.Context, p *models.Product) error {
	_, err := d.Bun.NewInsert().Model(p).Returning("*").Exec(ctx)
	return database.Translate(err, "Product")
}

func (d *DB) UpdateProduct(ctx context.Context, id int64, values map[string]interface{}) error {
	return updateColumns(ctx, d.Bun, "products", id, values, "Product")
}

func (d *DB) DeleteProduct(ctx context.Context, id int64) error {
	return deleteByID(ctx, d.Bun, (*models.Product)(nil), id, "Product")
}
