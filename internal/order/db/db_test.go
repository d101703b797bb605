package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/database/testdb"
	"ms-storefront/internal/models"
	"ms-storefront/internal/order/db"
)

func newOrder(number string, userID *int64) *models.Order {
	return &models.Order{
		OrderNumber:   number,
		UserID:        userID,
		CustomerName:  "Ada Obi",
		CustomerEmail: "ada@example.com",
		CustomerPhone: "+234800",
		OrderType:     models.OrderTypeClothing,
		TotalAmount:   9000,
		Status:        models.OrderStatusPending,
	}
}

func TestCreateOrderWithItems(t *testing.T) {
	bunDB := testdb.New(t)
	orderDB := &db.DB{Bun: bunDB}
	ctx := context.Background()

	o := newOrder("LV1", nil)
	err := orderDB.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := orderDB.CreateOrder(ctx, tx, o); err != nil {
			return err
		}
		return orderDB.CreateItems(ctx, tx, []models.OrderItem{
			{OrderID: o.ID, ProductName: "Lion Tee", Quantity: 2, Price: 3000, Subtotal: 6000},
			{OrderID: o.ID, ProductName: "Cap", Quantity: 1, Price: 3000, Subtotal: 3000},
		})
	})
	require.NoError(t, err)
	require.NotZero(t, o.ID)

	got, err := orderDB.GetByNumber(ctx, "LV1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)

	items, err := orderDB.Items(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Lion Tee", items[0].ProductName)
	assert.Equal(t, int64(6000), items[0].Subtotal)
}

func TestRollbackLeavesNothing(t *testing.T) {
	bunDB := testdb.New(t)
	orderDB := &db.DB{Bun: bunDB}
	ctx := context.Background()

	err := orderDB.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := orderDB.CreateOrder(ctx, tx, newOrder("LV1", nil)); err != nil {
			return err
		}
		return apperr.Capacity("Not enough tickets available")
	})
	assert.ErrorIs(t, err, apperr.ErrCapacity)

	list, err := orderDB.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDuplicateOrderNumber(t *testing.T) {
	bunDB := testdb.New(t)
	orderDB := &db.DB{Bun: bunDB}
	ctx := context.Background()

	require.NoError(t, orderDB.CreateOrder(ctx, bunDB, newOrder("LV1", nil)))
	err := orderDB.CreateOrder(ctx, bunDB, newOrder("LV1", nil))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestListByUserAndStatus(t *testing.T) {
	bunDB := testdb.New(t)
	orderDB := &db.DB{Bun: bunDB}
	ctx := context.Background()

	uid := int64(42)
	mine := newOrder("LV1", &uid)
	require.NoError(t, orderDB.CreateOrder(ctx, bunDB, mine))
	require.NoError(t, orderDB.CreateOrder(ctx, bunDB, newOrder("LV2", nil)))
	require.NoError(t, orderDB.CreateOrder(ctx, bunDB, newOrder("LV3", &uid)))

	list, err := orderDB.ListByUser(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "LV3", list[0].OrderNumber, "newest first")

	all, err := orderDB.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, orderDB.UpdateStatus(ctx, mine.ID, models.OrderStatusShipped))
	got, err := orderDB.GetByID(ctx, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, got.Status)

	err = orderDB.UpdateStatus(ctx, 999, models.OrderStatusShipped)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = orderDB.GetByID(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
