package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Product prices are in cents. Images, sizes and colors are stored as JSON text.
type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	Name           string    `bun:"name,notnull" json:"name"`
	Slug           string    `bun:"slug,unique,notnull" json:"slug"`
	Description    string    `bun:"description,nullzero" json:"description,omitempty"`
	Price          int64     `bun:"price,notnull" json:"price"`
	CompareAtPrice *int64    `bun:"compare_at_price" json:"compareAtPrice,omitempty"`
	CategoryID     *int64    `bun:"category_id" json:"categoryId,omitempty"`
	Images         []string  `bun:"images,type:text" json:"images"`
	Sizes          []string  `bun:"sizes,type:text" json:"sizes"`
	Colors         []string  `bun:"colors,type:text" json:"colors"`
	Stock          int       `bun:"stock,notnull,default:0" json:"stock"`
	Featured       bool      `bun:"featured,notnull,default:false" json:"featured"`
	Active         bool      `bun:"active,notnull,default:true" json:"active"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}
