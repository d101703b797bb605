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

// CreateTickets inserts the batch through idb so issuance can share the order
// transaction. IDs are filled in on return.
func (d *DB) CreateTickets(ctx context.Context, idb bun.IDB, tickets []models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	_, err := idb.NewInsert().Model(&tickets).Returning("*").Exec(ctx)
	return database.Translate(err, "Ticket")
}

func (d *DB) GetByNumber(ctx context.Context, number string) (*models.Ticket, error) {
	var t models.Ticket
	err := d.Bun.NewSelect().
		Model(&t).
		Where("ticket_number = ?", number).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, database.Translate(err, "Ticket")
	}
	return &t, nil
}

func (d *DB) ListAll(ctx context.Context) ([]models.Ticket, error) {
	var out []models.Ticket
	if err := d.Bun.NewSelect().Model(&out).Order("created_at DESC", "id DESC").Scan(ctx); err != nil {
		return nil, database.Translate(err, "Ticket")
	}
	return out, nil
}

func (d *DB) ListByOrder(ctx context.Context, orderID int64) ([]models.Ticket, error) {
	var out []models.Ticket
	err := d.Bun.NewSelect().
		Model(&out).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, database.Translate(err, "Ticket")
	}
	return out, nil
}

func (d *DB) ListByEvent(ctx context.Context, eventID int64) ([]models.Ticket, error) {
	var out []models.Ticket
	err := d.Bun.NewSelect().
		Model(&out).
		Where("event_id = ?", eventID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, database.Translate(err, "Ticket")
	}
	return out, nil
}

// MarkUsed moves a valid ticket to used. It reports false when the ticket
// was not valid at the time of the update, so only one scan can win.
func (d *DB) MarkUsed(ctx context.Context, number string, at time.Time) (bool, error) {
	return d.transition(ctx, number, models.TicketStatusUsed, &at)
}

// Cancel moves a valid ticket to cancelled, with the same guard as MarkUsed.
func (d *DB) Cancel(ctx context.Context, number string) (bool, error) {
	return d.transition(ctx, number, models.TicketStatusCancelled, nil)
}

func (d *DB) transition(ctx context.Context, number, status string, usedAt *time.Time) (bool, error) {
	q := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("ticket_number = ?", number).
		Where("status = ?", models.TicketStatusValid)
	if usedAt != nil {
		q = q.Set("used_at = ?", usedAt.UTC())
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return false, database.Translate(err, "Ticket")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, database.Translate(err, "Ticket")
	}
	return n == 1, nil
}
