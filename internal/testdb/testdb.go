//go:build integration

// Package testdb starts a disposable Postgres for repository integration tests.
package testdb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"emporia/internal/db"
	"emporia/internal/migrate"
)

// New returns a migrated pool. TEST_DB_DSN points at an existing database;
// otherwise a postgres container is started for the test.
func New(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("emporia_test"),
			tcpostgres.WithUsername("emporia"),
			tcpostgres.WithPassword("emporia"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		require.NoError(t, err, "start postgres container")
		t.Cleanup(func() {
			_ = testcontainers.TerminateContainer(container)
		})

		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err, "container dsn")
	}

	pool, err := db.Connect(ctx, dsn)
	require.NoError(t, err, "connect db")
	t.Cleanup(pool.Close)

	require.NoError(t, migrate.Apply(ctx, pool), "apply migrations")
	Reset(t, pool)
	return pool
}

// Reset truncates every table and restarts identities.
func Reset(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `TRUNCATE order_items, orders, cart_items, shopping_carts, products, categories, access_tokens, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "truncate tables")
}

// InsertUser adds a user row and returns its id.
func InsertUser(t *testing.T, pool *pgxpool.Pool, userName, role string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `
INSERT INTO users (email, user_name, password_hash, role)
VALUES ($1 || '@example.com', $1, 'x', $2)
RETURNING id
`, userName, role).Scan(&id)
	require.NoError(t, err, "insert user")
	return id
}
