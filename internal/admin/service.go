// Package admin builds the back-office dashboard.
package admin

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	lowStockThreshold = 5
	dashboardLimit    = 10
)

type Store interface {
	CountUsers(ctx context.Context) (int, error)
	CountProducts(ctx context.Context) (int, error)
	CountOrders(ctx context.Context) (int, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
	OrdersByStatus(ctx context.Context) (map[string]int, error)
	LowStock(ctx context.Context, threshold, limit int) ([]LowStock, error)
	RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error)
}

type Stats struct {
	Users          int             `json:"totalUsers"`
	Products       int             `json:"totalProducts"`
	Orders         int             `json:"totalOrders"`
	Revenue        decimal.Decimal `json:"totalRevenue"`
	OrdersByStatus map[string]int  `json:"ordersByStatus"`
	LowStock       []LowStock      `json:"lowStockProducts"`
	RecentOrders   []RecentOrder   `json:"recentOrders"`
}

type Service struct{ store Store }

func NewService(store Store) *Service { return &Service{store: store} }

// Dashboard runs the independent aggregate queries concurrently.
func (s *Service) Dashboard(ctx context.Context) (*Stats, error) {
	var st Stats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { st.Users, err = s.store.CountUsers(ctx); return })
	g.Go(func() (err error) { st.Products, err = s.store.CountProducts(ctx); return })
	g.Go(func() (err error) { st.Orders, err = s.store.CountOrders(ctx); return })
	g.Go(func() (err error) { st.Revenue, err = s.store.Revenue(ctx); return })
	g.Go(func() (err error) { st.OrdersByStatus, err = s.store.OrdersByStatus(ctx); return })
	g.Go(func() (err error) {
		st.LowStock, err = s.store.LowStock(ctx, lowStockThreshold, dashboardLimit)
		return
	})
	g.Go(func() (err error) { st.RecentOrders, err = s.store.RecentOrders(ctx, dashboardLimit); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &st, nil
}
