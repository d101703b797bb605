package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event is a ticketed happening. AvailableTickets stays within [0, TotalTickets];
// it only ever decreases.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID               int64      `bun:"id,pk,autoincrement" json:"id"`
	Name             string     `bun:"name,notnull" json:"name"`
	Slug             string     `bun:"slug,unique,notnull" json:"slug"`
	Description      string     `bun:"description,nullzero" json:"description,omitempty"`
	Venue            string     `bun:"venue,notnull" json:"venue"`
	Address          string     `bun:"address,nullzero" json:"address,omitempty"`
	EventDate        time.Time  `bun:"event_date,notnull" json:"eventDate"`
	EventEndDate     *time.Time `bun:"event_end_date" json:"eventEndDate,omitempty"`
	ImageURL         string     `bun:"image_url,nullzero" json:"imageUrl,omitempty"`
	TicketPrice      int64      `bun:"ticket_price,notnull" json:"ticketPrice"`
	TotalTickets     int        `bun:"total_tickets,notnull" json:"totalTickets"`
	AvailableTickets int        `bun:"available_tickets,notnull" json:"availableTickets"`
	Featured         bool       `bun:"featured,notnull,default:false" json:"featured"`
	Active           bool       `bun:"active,notnull,default:true" json:"active"`
	CreatedAt        time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt        time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

func (e *Event) SoldOut() bool {
	return e.AvailableTickets <= 0
}
