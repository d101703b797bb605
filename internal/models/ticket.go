package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	TicketStatusValid     = "valid"
	TicketStatusUsed      = "used"
	TicketStatusCancelled = "cancelled"
)

// Ticket is one admission. Quantity is always 1; Price is the order total
// divided by the ticket count, rounded down.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	TicketNumber  string     `bun:"ticket_number,unique,notnull" json:"ticketNumber"`
	OrderID       int64      `bun:"order_id,notnull" json:"orderId"`
	EventID       int64      `bun:"event_id,notnull" json:"eventId"`
	EventName     string     `bun:"event_name,notnull" json:"eventName"`
	CustomerName  string     `bun:"customer_name,notnull" json:"customerName"`
	CustomerEmail string     `bun:"customer_email,notnull" json:"customerEmail"`
	Quantity      int        `bun:"quantity,notnull,default:1" json:"quantity"`
	Price         int64      `bun:"price,notnull" json:"price"`
	QRCode        string     `bun:"qr_code,nullzero" json:"qrCode,omitempty"`
	Status        string     `bun:"status,notnull,default:'valid'" json:"status"`
	UsedAt        *time.Time `bun:"used_at" json:"usedAt,omitempty"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}
