package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/database/testdb"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/settings/db"
)

func newService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc := NewService(&db.DB{Bun: testdb.New(t)}, NewRedisCache(client, time.Minute), logger.NewNopLogger())
	return svc, mr
}

func TestValueReadsThroughCache(t *testing.T) {
	svc, mr := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Upsert(ctx, models.SettingWhatsAppNumber, "+1 555 0100", ""))
	assert.Equal(t, "+1 555 0100", svc.WhatsAppNumber(ctx))

	cached, err := mr.Get("settings:" + models.SettingWhatsAppNumber)
	require.NoError(t, err)
	assert.Equal(t, "+1 555 0100", cached)
}

func TestUpsertInvalidatesCache(t *testing.T) {
	svc, mr := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Upsert(ctx, models.SettingAdminEmail, "old@example.com", ""))
	assert.Equal(t, "old@example.com", svc.AdminEmail(ctx))

	require.NoError(t, svc.Upsert(ctx, models.SettingAdminEmail, "new@example.com", ""))
	assert.False(t, mr.Exists("settings:"+models.SettingAdminEmail))
	assert.Equal(t, "new@example.com", svc.AdminEmail(ctx))
}

func TestMissingSettingIsEmpty(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	assert.Equal(t, "", svc.WhatsAppNumber(ctx))
	s, err := svc.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestValueSurvivesCacheOutage(t *testing.T) {
	svc, mr := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Upsert(ctx, models.SettingSupportPhone, "123", ""))

	mr.Close()
	assert.Equal(t, "123", svc.Value(ctx, models.SettingSupportPhone))
}

func TestUpsertRequiresKey(t *testing.T) {
	svc, _ := newService(t)
	err := svc.Upsert(context.Background(), "  ", "x", "")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestContactOmitsEmptyValues(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Upsert(ctx, models.SettingSupportEmail, "help@lionsvogue.com", ""))
	require.NoError(t, svc.Upsert(ctx, models.SettingSupportTwitter, "", ""))

	assert.Equal(t, map[string]string{models.SettingSupportEmail: "help@lionsvogue.com"}, svc.Contact(ctx))
}

type downRepo struct{}

func (downRepo) Get(context.Context, string) (*models.Setting, error) {
	return nil, apperr.Unavailable("Database not available", nil)
}
func (downRepo) List(context.Context) ([]models.Setting, error) {
	return nil, apperr.Unavailable("Database not available", nil)
}
func (downRepo) Upsert(context.Context, string, string, string) error {
	return apperr.Unavailable("Database not available", nil)
}

func TestReadsDegradeWhenDatabaseDown(t *testing.T) {
	svc := NewService(downRepo{}, nil, logger.NewNopLogger())
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, "", svc.WhatsAppNumber(ctx))

	err = svc.Upsert(ctx, "k", "v", "")
	assert.True(t, errors.Is(err, apperr.ErrUnavailable))
}
