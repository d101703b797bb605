package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/config"
	"ms-storefront/internal/database"
	"ms-storefront/internal/database/migrations"
	"ms-storefront/internal/logger"
)

func startPostgres(t *testing.T) *bun.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping Postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "storefront",
				"POSTGRES_PASSWORD": "storefront",
				"POSTGRES_DB":       "storefront",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithDeadline(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { pg.Terminate(context.Background()) })

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		DSN:          fmt.Sprintf("postgres://storefront:storefront@%s:%s/storefront?sslmode=disable", host, port.Port()),
		MaxOpenConns: 25,
		MaxIdleConns: 25,
		MaxLifetime:  time.Minute,
		ConnRetries:  5,
	}
	log := logger.NewNopLogger()

	migrationDB, err := sql.Open("postgres", cfg.DSN)
	require.NoError(t, err)
	runner := migrations.NewRunner(migrationDB, migrations.Options{SeedData: false}, log)
	require.NoError(t, runner.RunMigrations())
	require.NoError(t, runner.Close())

	sqldb, err := database.OpenPostgres(cfg, log)
	require.NoError(t, err)
	db := database.NewBun(sqldb)
	t.Cleanup(func() { db.Close() })
	return db
}

// Every buyer reads enough availability before any of them writes, so only
// the conditional UPDATE stands between them and an oversell.
func TestPostgresConcurrentPurchasesNeverOversell(t *testing.T) {
	d := &DB{Bun: startPostgres(t)}
	ctx := context.Background()
	const capacity, buyers = 5, 20
	e := createEvent(t, d, "pg-rush", capacity, time.Now().Add(time.Hour))

	var checked, done sync.WaitGroup
	checked.Add(buyers)
	var mu sync.Mutex
	sold, rejected := 0, 0
	for i := 0; i < buyers; i++ {
		done.Add(1)
		go func() {
			defer done.Done()
			err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				ev, err := d.Find(ctx, tx, e.ID)
				checked.Done()
				if err != nil {
					return err
				}
				if ev.AvailableTickets < 1 {
					return apperr.Capacity("Not enough tickets available")
				}
				checked.Wait()
				return d.DecrementTickets(ctx, tx, e.ID, 1)
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				sold++
				return
			}
			assert.True(t, errors.Is(err, apperr.ErrCapacity), "unexpected error: %v", err)
			rejected++
		}()
	}
	done.Wait()

	assert.Equal(t, capacity, sold)
	assert.Equal(t, buyers-capacity, rejected)

	got, err := d.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableTickets)
}

func TestPostgresResizeKeepsSoldTickets(t *testing.T) {
	d := &DB{Bun: startPostgres(t)}
	ctx := context.Background()
	e := createEvent(t, d, "pg-resize", 10, time.Now().Add(time.Hour))
	require.NoError(t, d.DecrementTickets(ctx, d.Bun, e.ID, 7))

	assert.True(t, errors.Is(d.Resize(ctx, e.ID, 5), apperr.ErrValidation))
	require.NoError(t, d.Resize(ctx, e.ID, 8))

	got, err := d.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.TotalTickets)
	assert.Equal(t, 1, got.AvailableTickets)
}
