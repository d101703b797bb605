package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CartItem belongs either to a signed-in user or to a guest session.
type CartItem struct {
	bun.BaseModel `bun:"table:cart_items"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    *int64    `bun:"user_id" json:"userId,omitempty"`
	SessionID string    `bun:"session_id,nullzero" json:"sessionId,omitempty"`
	ProductID int64     `bun:"product_id,notnull" json:"productId"`
	Quantity  int       `bun:"quantity,notnull" json:"quantity"`
	Size      string    `bun:"size,nullzero" json:"size,omitempty"`
	Color     string    `bun:"color,nullzero" json:"color,omitempty"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}
