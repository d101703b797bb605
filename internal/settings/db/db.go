package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"ms-storefront/internal/database"
	"ms-storefront/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) Get(ctx context.Context, key string) (*models.Setting, error) {
	var s models.Setting
	err := d.Bun.NewSelect().
		Model(&s).
		Where("? = ?", bun.Ident("key"), key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, database.Translate(err, "Setting")
	}
	return &s, nil
}

func (d *DB) List(ctx context.Context) ([]models.Setting, error) {
	var settings []models.Setting
	err := d.Bun.NewSelect().
		Model(&settings).
		OrderExpr("? ASC", bun.Ident("key")).
		Scan(ctx)
	if err != nil {
		return nil, database.Translate(err, "Setting")
	}
	return settings, nil
}

// Upsert writes value for key. An empty description leaves the stored one alone.
func (d *DB) Upsert(ctx context.Context, key, value, description string) error {
	s := &models.Setting{Key: key, Value: value, Description: description, UpdatedAt: time.Now().UTC()}
	q := d.Bun.NewInsert().
		Model(s).
		On(`CONFLICT ("key") DO UPDATE`).
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at")
	if description != "" {
		q = q.Set("description = EXCLUDED.description")
	}
	_, err := q.Exec(ctx)
	return database.Translate(err, "Setting")
}
