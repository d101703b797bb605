package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Category struct {
	bun.BaseModel `bun:"table:categories"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	Name         string    `bun:"name,notnull" json:"name"`
	Slug         string    `bun:"slug,unique,notnull" json:"slug"`
	Description  string    `bun:"description,nullzero" json:"description,omitempty"`
	ImageURL     string    `bun:"image_url,nullzero" json:"imageUrl,omitempty"`
	DisplayOrder int       `bun:"display_order,notnull,default:0" json:"displayOrder"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}
