package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/cart/db"
	catalogdb "ms-storefront/internal/catalog/db"
	"ms-storefront/internal/database/testdb"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
)

type fixture struct {
	svc     *Service
	product *models.Product
}

func setup(t *testing.T) *fixture {
	t.Helper()
	bunDB := testdb.New(t)
	products := &catalogdb.DB{Bun: bunDB}
	p := &models.Product{Name: "Lion Tee", Slug: "lion-tee", Price: 2500, Images: []string{}, Sizes: []string{"M"}, Colors: []string{}, Active: true}
	require.NoError(t, products.CreateProduct(context.Background(), p))

	return &fixture{
		svc:     NewService(&db.DB{Bun: bunDB}, products, logger.NewNopLogger()),
		product: p,
	}
}

func TestEmptyOwnerHasEmptyCart(t *testing.T) {
	f := setup(t)
	items, err := f.svc.Get(context.Background(), db.Owner{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestAddMergesSameLine(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	guest := db.Owner{SessionID: "sess-1"}

	_, err := f.svc.Add(ctx, guest, AddInput{ProductID: f.product.ID, Quantity: 1, Size: "M"})
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, guest, AddInput{ProductID: f.product.ID, Quantity: 2, Size: "M"})
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, guest, AddInput{ProductID: f.product.ID, Quantity: 1, Size: "L"})
	require.NoError(t, err)

	items, err := f.svc.Get(ctx, guest)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "L", items[1].Size)
}

func TestUserCartWinsOverSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	uid := int64(7)

	_, err := f.svc.Add(ctx, db.Owner{SessionID: "sess-1"}, AddInput{ProductID: f.product.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, db.Owner{UserID: &uid, SessionID: "sess-1"}, AddInput{ProductID: f.product.ID, Quantity: 5})
	require.NoError(t, err)

	items, err := f.svc.Get(ctx, db.Owner{UserID: &uid, SessionID: "sess-1"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Empty(t, items[0].SessionID)
}

func TestOwnersCannotTouchOtherCarts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mine := db.Owner{SessionID: "mine"}
	theirs := db.Owner{SessionID: "theirs"}

	item, err := f.svc.Add(ctx, mine, AddInput{ProductID: f.product.ID, Quantity: 1})
	require.NoError(t, err)

	assert.True(t, errors.Is(f.svc.UpdateQuantity(ctx, theirs, item.ID, 4), apperr.ErrNotFound))
	assert.True(t, errors.Is(f.svc.Remove(ctx, theirs, item.ID), apperr.ErrNotFound))
	require.NoError(t, f.svc.Clear(ctx, theirs))

	require.NoError(t, f.svc.UpdateQuantity(ctx, mine, item.ID, 4))
	items, err := f.svc.Get(ctx, mine)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)

	require.NoError(t, f.svc.Remove(ctx, mine, item.ID))
	items, err = f.svc.Get(ctx, mine)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAddValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	guest := db.Owner{SessionID: "s"}

	_, err := f.svc.Add(ctx, guest, AddInput{ProductID: f.product.ID, Quantity: 0})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = f.svc.Add(ctx, db.Owner{}, AddInput{ProductID: f.product.ID, Quantity: 1})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = f.svc.Add(ctx, guest, AddInput{ProductID: 999, Quantity: 1})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	assert.True(t, errors.Is(f.svc.UpdateQuantity(ctx, guest, 1, 0), apperr.ErrValidation))
}

func TestClearEmptiesCart(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	guest := db.Owner{SessionID: "s"}
	_, err := f.svc.Add(ctx, guest, AddInput{ProductID: f.product.ID, Quantity: 1, Color: "black"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Clear(ctx, guest))
	items, err := f.svc.Get(ctx, guest)
	require.NoError(t, err)
	assert.Empty(t, items)
}
