package db

import (
	"context"

	"ms-storefront/internal/database"
	"ms-storefront/internal/models"
)

// EventTicketCount summarises one event's tickets by status.
type EventTicketCount struct {
	EventID   int64  `bun:"event_id" json:"eventId"`
	EventName string `bun:"event_name" json:"eventName"`
	Issued    int    `bun:"issued" json:"issued"`
	Used      int    `bun:"used" json:"used"`
	Cancelled int    `bun:"cancelled" json:"cancelled"`
}

// CountTickets returns the number of tickets ever issued.
func (d *DB) CountTickets(ctx context.Context) (int, error) {
	n, err := d.Bun.NewSelect().Model((*models.Ticket)(nil)).Count(ctx)
	if err != nil {
		return 0, database.Translate(err, "Ticket")
	}
	return n, nil
}

// CountsByEvent groups tickets per event, ordered by event id.
func (d *DB) CountsByEvent(ctx context.Context) ([]EventTicketCount, error) {
	var out []EventTicketCount
	err := d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Column("event_id").
		ColumnExpr("MAX(event_name) AS event_name").
		ColumnExpr("COUNT(*) AS issued").
		ColumnExpr("SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS used", models.TicketStatusUsed).
		ColumnExpr("SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS cancelled", models.TicketStatusCancelled).
		Group("event_id").
		Order("event_id ASC").
		Scan(ctx, &out)
	if err != nil {
		return nil, database.Translate(err, "Ticket")
	}
	return out, nil
}
