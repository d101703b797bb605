package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/database"
	"ms-storefront/internal/models"
)

const FeaturedEventsLimit = 6

type DB struct {
	Bun *bun.DB
}

func (d *DB) List(ctx context.Context, activeOnly bool) ([]models.Event, error) {
	var out []models.Event
	q := d.Bun.NewSelect().Model(&out).Order("event_date ASC", "id ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, database.Translate(err, "Event")
	}
	return out, nil
}

func (d *DB) Featured(ctx context.Context) ([]models.Event, error) {
	var out []models.Event
	err := d.Bun.NewSelect().
		Model(&out).
		Where("featured = ?", true).
		Where("active = ?", true).
		Order("event_date ASC", "id ASC").
		Limit(FeaturedEventsLimit).
		Scan(ctx)
	if err != nil {
		return nil, database.Translate(err, "Event")
	}
	return out, nil
}

func (d *DB) Get(ctx context.Context, id int64) (*models.Event, error) {
	return d.Find(ctx, d.Bun, id)
}

// Find loads an event through idb so callers can read inside a transaction.
func (d *DB) Find(ctx context.Context, idb bun.IDB, id int64) (*models.Event, error) {
	var e models.Event
	if err := idb.NewSelect().Model(&e).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, database.Translate(err, "Event")
	}
	return &e, nil
}

func (d *DB) GetBySlug(ctx context.Context, slug string) (*models.Event, error) {
	var e models.Event
	if err := d.Bun.NewSelect().Model(&e).Where("slug = ?", slug).Limit(1).Scan(ctx); err != nil {
		return nil, database.Translate(err, "Event")
	}
	return &e, nil
}

func (d *DB) Create(ctx context.Context, e *models.Event) error {
	_, err := d.Bun.NewInsert().Model(e).Returning("*").Exec(ctx)
	return database.Translate(err, "Event")
}

func (d *DB) Update(ctx context.Context, id int64, values map[string]interface{}) error {
	if len(values) == 0 {
		return nil
	}
	values["updated_at"] = time.Now().UTC()
	res, err := d.Bun.NewUpdate().
		Model(&values).
		TableExpr("events").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return database.Translate(err, "Event")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("Event not found")
	}
	return nil
}

func (d *DB) Delete(ctx context.Context, id int64) error {
	res, err := d.Bun.NewDelete().Model((*models.Event)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return database.Translate(err, "Event")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("Event not found")
	}
	return nil
}

// Resize sets the event capacity to total and moves availability by the same
// amount, in one statement so it cannot race a concurrent decrement. Sold
// tickets are total_tickets - available_tickets and must still fit.
func (d *DB) Resize(ctx context.Context, id int64, total int) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("available_tickets = ? - (total_tickets - available_tickets)", total).
		Set("total_tickets = ?", total).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("total_tickets - available_tickets <= ?", total).
		Exec(ctx)
	if err != nil {
		return database.Translate(err, "Event")
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	exists, err := d.Bun.NewSelect().Model((*models.Event)(nil)).Where("id = ?", id).Exists(ctx)
	if err != nil {
		return database.Translate(err, "Event")
	}
	if !exists {
		return apperr.NotFound("Event not found")
	}
	return apperr.Validation("totalTickets cannot be less than the tickets already sold")
}

// DecrementTickets takes qty tickets from the event in one conditional
// update. No matching row means the event lacks capacity.
func (d *DB) DecrementTickets(ctx context.Context, idb bun.IDB, id int64, qty int) error {
	res, err := idb.NewUpdate().
		Model((*models.Event)(nil)).
		Set("available_tickets = available_tickets - ?", qty).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("available_tickets >= ?", qty).
		Exec(ctx)
	if err != nil {
		return database.Translate(err, "Event")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return database.Translate(err, "Event")
	}
	if n == 0 {
		return apperr.Capacity("Not enough tickets available")
	}
	return nil
}
