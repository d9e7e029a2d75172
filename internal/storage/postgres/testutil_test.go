package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container for testing and applies migrations.
// Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	// Migrations are embedded; applying them here keeps the test schema in
	// lockstep with production.
	applySchema(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// applySchema creates the sale_events table. Mirrors the embedded migration
// in internal/storage/migrations/postgres/001_sale_events.sql; duplicated
// here to avoid an import cycle between the migrations and postgres packages.
func applySchema(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	const schema = `
		CREATE TABLE IF NOT EXISTS sale_events (
			event_id     TEXT PRIMARY KEY,
			seq          BIGINT NOT NULL,
			kind         TEXT NOT NULL,
			actor        TEXT NOT NULL,
			beneficiary  TEXT NOT NULL DEFAULT '',
			base_amount  BIGINT NOT NULL DEFAULT 0,
			token_amount BIGINT NOT NULL DEFAULT 0,
			ref_id       BIGINT NOT NULL DEFAULT -1,
			timestamp    BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sale_events_seq ON sale_events (seq);
		CREATE INDEX IF NOT EXISTS idx_sale_events_kind ON sale_events (kind);
		CREATE INDEX IF NOT EXISTS idx_sale_events_actor ON sale_events (actor);
	`

	_, err := pool.Exec(ctx, schema)
	require.NoError(t, err, "failed to apply schema")
}
