package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	SettingWhatsAppNumber   = "whatsapp_number"
	SettingAdminEmail       = "admin_email"
	SettingSupportEmail     = "support_email"
	SettingSupportPhone     = "support_phone"
	SettingSupportWhatsApp  = "support_whatsapp"
	SettingSupportFacebook  = "support_facebook"
	SettingSupportInstagram = "support_instagram"
	SettingSupportTwitter   = "support_twitter"
)

// SupportSettingKeys are the keys exposed on the public contact endpoint.
var SupportSettingKeys = []string{
	SettingSupportEmail,
	SettingSupportPhone,
	SettingSupportWhatsApp,
	SettingSupportFacebook,
	SettingSupportInstagram,
	SettingSupportTwitter,
}

type Setting struct {
	bun.BaseModel `bun:"table:settings"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Key         string    `bun:"key,unique,notnull" json:"key"`
	Value       string    `bun:"value,notnull" json:"value"`
	Description string    `bun:"description,nullzero" json:"description,omitempty"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}
