package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/database/testdb"
	"ms-storefront/internal/settings/db"
)

func TestUpsertIsLastWriteWins(t *testing.T) {
	store := &db.DB{Bun: testdb.New(t)}
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "whatsapp_number", "+15550001", "Owner WhatsApp"))
	require.NoError(t, store.Upsert(ctx, "whatsapp_number", "+15550002", ""))

	s, err := store.Get(ctx, "whatsapp_number")
	require.NoError(t, err)
	assert.Equal(t, "+15550002", s.Value)
	assert.Equal(t, "Owner WhatsApp", s.Description, "empty description keeps the stored one")

	require.NoError(t, store.Upsert(ctx, "whatsapp_number", "+15550003", "Changed"))
	s, err = store.Get(ctx, "whatsapp_number")
	require.NoError(t, err)
	assert.Equal(t, "Changed", s.Description)
}

func TestGetMissingSetting(t *testing.T) {
	store := &db.DB{Bun: testdb.New(t)}

	s, err := store.Get(context.Background(), "admin_email")
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestListOrdersByKey(t *testing.T) {
	store := &db.DB{Bun: testdb.New(t)}
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "support_phone", "1", ""))
	require.NoError(t, store.Upsert(ctx, "admin_email", "a@b.co", ""))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "admin_email", list[0].Key)
	assert.Equal(t, "support_phone", list[1].Key)
}
