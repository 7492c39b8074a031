package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type LowStock struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

type RecentOrder struct {
	ID        string          `json:"id"`
	Number    string          `json:"orderNumber"`
	Customer  string          `json:"customer"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (r *Repo) CountUsers(ctx context.Context) (int, error)    { return r.count(ctx, "users") }
func (r *Repo) CountProducts(ctx context.Context) (int, error) { return r.count(ctx, "products") }
func (r *Repo) CountOrders(ctx context.Context) (int, error)   { return r.count(ctx, "orders") }

// Revenue sums totals of orders that were not cancelled or returned.
func (r *Repo) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var v decimal.Decimal
	err := r.DB.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0) FROM orders WHERE status NOT IN ('cancelled', 'returned')`).Scan(&v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("revenue: %w", err)
	}
	return v, nil
}

func (r *Repo) OrdersByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("orders by status: %w", err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

func (r *Repo) LowStock(ctx context.Context, threshold, limit int) ([]LowStock, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, stock FROM products
		WHERE is_active AND stock <= $1 ORDER BY stock, name LIMIT $2`, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[LowStock])
}

func (r *Repo) RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT o.id, o.order_number,
			COALESCE(u.name, NULLIF(o.shipping_address->>'fullName', ''), o.guest_email),
			o.status, o.total, o.created_at
		FROM orders o LEFT JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[RecentOrder])
}
