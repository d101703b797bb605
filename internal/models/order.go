package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	OrderTypeClothing = "clothing"
	OrderTypeEvent    = "event"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func ValidOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Order amounts are in cents.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID              int64     `bun:"id,pk,autoincrement" json:"id"`
	OrderNumber     string    `bun:"order_number,unique,notnull" json:"orderNumber"`
	UserID          *int64    `bun:"user_id" json:"userId,omitempty"`
	CustomerName    string    `bun:"customer_name,notnull" json:"customerName"`
	CustomerEmail   string    `bun:"customer_email,notnull" json:"customerEmail"`
	CustomerPhone   string    `bun:"customer_phone,notnull" json:"customerPhone"`
	ShippingAddress string    `bun:"shipping_address,nullzero" json:"shippingAddress,omitempty"`
	City            string    `bun:"city,nullzero" json:"city,omitempty"`
	State           string    `bun:"state,nullzero" json:"state,omitempty"`
	ZipCode         string    `bun:"zip_code,nullzero" json:"zipCode,omitempty"`
	Country         string    `bun:"country,nullzero" json:"country,omitempty"`
	OrderType       string    `bun:"order_type,notnull" json:"orderType"`
	TotalAmount     int64     `bun:"total_amount,notnull" json:"totalAmount"`
	Status          string    `bun:"status,notnull,default:'pending'" json:"status"`
	Notes           string    `bun:"notes,nullzero" json:"notes,omitempty"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// OrderItem snapshots the product at purchase time.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	OrderID      int64     `bun:"order_id,notnull" json:"orderId"`
	ProductID    *int64    `bun:"product_id" json:"productId,omitempty"`
	ProductName  string    `bun:"product_name,notnull" json:"productName"`
	ProductImage string    `bun:"product_image,nullzero" json:"productImage,omitempty"`
	Size         string    `bun:"size,nullzero" json:"size,omitempty"`
	Color        string    `bun:"color,nullzero" json:"color,omitempty"`
	Quantity     int       `bun:"quantity,notnull" json:"quantity"`
	Price        int64     `bun:"price,notnull" json:"price"`
	Subtotal     int64     `bun:"subtotal,notnull" json:"subtotal"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// OrderWithTickets is what the admin live feed carries.
type OrderWithTickets struct {
	Order   Order    `json:"order"`
	EventID *int64   `json:"eventId,omitempty"`
	Tickets []string `json:"tickets,omitempty"`
}
