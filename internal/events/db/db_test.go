package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/database/testdb"
	"ms-storefront/internal/models"
)

func createEvent(t *testing.T, d *DB, slug string, total int, date time.Time) *models.Event {
	t.Helper()
	e := &models.Event{
		Name:             "Event " + slug,
		Slug:             slug,
		Venue:            "Lions Hall",
		EventDate:        date,
		TicketPrice:      2500,
		TotalTickets:     total,
		AvailableTickets: total,
		Active:           true,
	}
	require.NoError(t, d.Create(context.Background(), e))
	return e
}

func TestDecrementTickets(t *testing.T) {
	d := &DB{Bun: testdb.New(t)}
	ctx := context.Background()
	e := createEvent(t, d, "gala", 10, time.Now().Add(48*time.Hour))

	require.NoError(t, d.DecrementTickets(ctx, d.Bun, e.ID, 7))
	got, err := d.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AvailableTickets)

	require.NoError(t, d.DecrementTickets(ctx, d.Bun, e.ID, 2))
	err = d.DecrementTickets(ctx, d.Bun, e.ID, 2)
	assert.True(t, errors.Is(err, apperr.ErrCapacity))

	got, err = d.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableTickets, "failed decrement leaves the counter alone")
}

func TestDecrementUnknownEventIsCapacity(t *testing.T) {
	d := &DB{Bun: testdb.New(t)}
	err := d.DecrementTickets(context.Background(), d.Bun, 42, 1)
	assert.True(t, errors.Is(err, apperr.ErrCapacity))
}

func TestDecrementRollsBackWithTransaction(t *testing.T) {
	d := &DB{Bun: testdb.New(t)}
	ctx := context.Background()
	e := createEvent(t, d, "gala", 5, time.Now())

	boom := errors.New("boom")
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := d.DecrementTickets(ctx, tx, e.ID, 3); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := d.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.AvailableTickets)
}

func TestConcurrentDecrementsNeverOversell(t *testing.T) {
	d := &DB{Bun: testdb.New(t)}
	ctx := context.Background()
	const capacity = 10
	e := createEvent(t, d, "rush", capacity, time.Now())

	var wg sync.WaitGroup
	var mu sync.Mutex
	sold := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				return d.DecrementTickets(ctx, tx, e.ID, 1)
			})
			if err == nil {
				mu.Lock()
				sold++
				mu.Unlock()
			} else {
				assert.True(t, errors.Is(err, apperr.ErrCapacity), "unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := d.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, capacity, sold)
	assert.Equal(t, 0, got.AvailableTickets)
}

func TestResizeKeepsSoldTickets(t *testing.T) {
	d := &DB{Bun: testdb.New(t)}
	ctx := context.Background()
	e := createEvent(t, d, "resize", 10, time.Now().Add(48*time.Hour))
	require.NoError(t, d.DecrementTickets(ctx, d.Bun, e.ID, 7))

	err := d.Resize(ctx, e.ID, 6)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	require.NoError(t, d.Resize(ctx, e.ID, 20))
	got, err := d.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.TotalTickets)
	assert.Equal(t, 13, got.AvailableTickets)

	require.NoError(t, d.Resize(ctx, e.ID, 7))
	got, err = d.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableTickets)
	assert.True(t, got.SoldOut())

	assert.True(t, errors.Is(d.Resize(ctx, 404, 1), apperr.ErrNotFound))
}

func TestListOrderingAndFeatured(t *testing.T) {
	d := &DB{Bun: testdb.New(t)}
	ctx := context.Background()
	base := time.Date(2026, 12, 1, 18, 0, 0, 0, time.UTC)

	for i := 7; i >= 0; i-- {
		e := createEvent(t, d, fmt.Sprintf("e-%d", i), 10, base.Add(time.Duration(i)*24*time.Hour))
		require.NoError(t, d.Update(ctx, e.ID, map[string]interface{}{"featured": true}))
	}
	hidden := createEvent(t, d, "hidden", 10, base.Add(-time.Hour))
	require.NoError(t, d.Update(ctx, hidden.ID, map[string]interface{}{"active": false}))

	active, err := d.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 8)
	assert.Equal(t, "e-0", active[0].Slug)
	assert.Equal(t, "e-7", active[7].Slug)

	all, err := d.List(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "hidden", all[0].Slug)

	featured, err := d.Featured(ctx)
	require.NoError(t, err)
	assert.Len(t, featured, FeaturedEventsLimit)
	assert.Equal(t, "e-0", featured[0].Slug)
}

func TestGetBySlugAndDelete(t *testing.T) {
	d := &DB{Bun: testdb.New(t)}
	ctx := context.Background()
	e := createEvent(t, d, "launch", 3, time.Now())

	got, err := d.GetBySlug(ctx, "launch")
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	require.NoError(t, d.Delete(ctx, e.ID))
	assert.True(t, errors.Is(d.Delete(ctx, e.ID), apperr.ErrNotFound))
	_, err = d.GetBySlug(ctx, "launch")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
