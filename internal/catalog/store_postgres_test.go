//go:build integration

package catalog_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/netgram/netgram/internal/catalog"
	"github.com/netgram/netgram/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// connectPostgres spawns a throwaway postgres container and
// returns a migrated database manager connected to it.
func connectPostgres(t *testing.T) database.Manager {
	ctx := context.Background()
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:14.1-alpine"),
		postgres.WithDatabase("netgram"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db := database.New()
	require.NoError(t, db.Connect(database.DatabaseConfig{Driver: "postgres", URL: dsn, ConnectAttempts: 5, RetryInterval: time.Second}))
	t.Cleanup(func() { db.Close() })

	return db
}

func Test_Postgres_StoreBehavesLikeSqlite(t *testing.T) {
	db := connectPostgres(t)
	store := catalog.NewStoreWithClock(steppingClock())
	ctx := context.Background()

	insert := func(record *catalog.Record) bool {
		var inserted bool
		require.NoError(t, db.WrapTx(ctx, func(tx *sqlx.Tx) error {
			var err error
			inserted, err = store.InsertIfAbsent(ctx, tx, record)
			return err
		}))
		return inserted
	}

	for i := 1; i <= 25; i++ {
		record := newRecord(fmt.Sprintf("Movie %d", i), 2000, int64(i))
		record.Genres = []string{"Drama"}
		require.True(t, insert(record))
	}
	assert.False(t, insert(newRecord("Movie 1", 2000, 99)))

	count, err := store.Count(ctx, db.GetSqlxDb())
	require.NoError(t, err)
	assert.Equal(t, 25, count)

	first, err := store.List(ctx, db.GetSqlxDb(), catalog.ListOptions{Filter: catalog.Filter{Genre: "Drama"}, Limit: 20})
	require.NoError(t, err)
	second, err := store.List(ctx, db.GetSqlxDb(), catalog.ListOptions{Filter: catalog.Filter{Genre: "Drama"}, Offset: 20, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, first, 20)
	assert.Len(t, second, 5)
	assert.NotContains(t, fingerprints(second), first[19].Fingerprint)

	found, err := store.SearchByTitle(ctx, db.GetSqlxDb(), "MOVIE 2", 0, 20)
	require.NoError(t, err)
	assert.Len(t, found, 7) // 2, 20..25
}
