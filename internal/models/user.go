package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	OpenID       string    `bun:"open_id,unique,notnull" json:"openId"`
	Name         string    `bun:"name,nullzero" json:"name,omitempty"`
	Email        string    `bun:"email,nullzero" json:"email,omitempty"`
	LoginMethod  string    `bun:"login_method,nullzero" json:"loginMethod,omitempty"`
	Role         string    `bun:"role,notnull,default:'user'" json:"role"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
	LastSignedIn time.Time `bun:"last_signed_in,nullzero,notnull,default:current_timestamp" json:"lastSignedIn"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
