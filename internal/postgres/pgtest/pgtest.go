// Package pgtest opens a migrated, empty database for repository integration tests.
package pgtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ariefcatur/go-giftshop/internal/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

const EnvDSN = "GIFTSHOP_TEST_DSN"

var tables = []string{
	"review_helpful_votes", "reviews", "order_status_history", "order_items", "orders",
	"products", "categories", "wallet_transactions", "users", "coupons",
}

// Open skips the test unless GIFTSHOP_TEST_DSN is set, then returns a pool on a
// migrated database with every table truncated.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s not set", EnvDSN)
	}
	require.NoError(t, postgres.Migrate(dsn))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	Reset(t, pool)
	return pool
}

func Reset(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	for _, tbl := range tables {
		_, err := pool.Exec(context.Background(), "TRUNCATE "+tbl+" CASCADE")
		require.NoError(t, err)
	}
}

// SeedUser inserts a minimal active user.
func SeedUser(t *testing.T, pool *pgxpool.Pool, id, email string) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users(id, name, email, password_hash) VALUES ($1, $1, $2, 'x')`, id, email)
	require.NoError(t, err)
}

func SeedCategory(t *testing.T, pool *pgxpool.Pool, id, slug string) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO categories(id, name, slug) VALUES ($1, $2, $2)`, id, slug)
	require.NoError(t, err)
}

// SeedProduct inserts an active product with the given price and stock.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, id, categoryID, price string, stock int) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO products(id, name, slug, price, stock, category_id, addons)
		VALUES ($1, $1, $1, $2::numeric, $3, $4, '[{"name":"card","price":"10"}]')`,
		id, price, stock, categoryID)
	require.NoError(t, err)
}
