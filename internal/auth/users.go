package auth

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"ms-storefront/internal/database"
	"ms-storefront/internal/models"
)

type UserStore interface {
	// Upsert records a sign-in for u.OpenID and returns the stored user.
	Upsert(ctx context.Context, u *models.User) (*models.User, error)
}

type UserDB struct {
	Bun *bun.DB
}

func (d *UserDB) Upsert(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	u.LastSignedIn = now
	u.UpdatedAt = now

	q := d.Bun.NewInsert().
		Model(u).
		On("CONFLICT (open_id) DO UPDATE").
		Set("last_signed_in = EXCLUDED.last_signed_in").
		Set("updated_at = EXCLUDED.updated_at")
	if u.Name != "" {
		q = q.Set("name = EXCLUDED.name")
	}
	if u.Email != "" {
		q = q.Set("email = EXCLUDED.email")
	}
	if u.LoginMethod != "" {
		q = q.Set("login_method = EXCLUDED.login_method")
	}
	// Only promotion is written on conflict; demotion is a manual operation.
	if u.Role == models.RoleAdmin {
		q = q.Set("role = EXCLUDED.role")
	}
	if _, err := q.Exec(ctx); err != nil {
		return nil, database.Translate(err, "User")
	}

	var stored models.User
	if err := d.Bun.NewSelect().Model(&stored).Where("open_id = ?", u.OpenID).Limit(1).Scan(ctx); err != nil {
		return nil, database.Translate(err, "User")
	}
	return &stored, nil
}
