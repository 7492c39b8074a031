package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestActive(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	tests := []struct {
		name string
		c    Coupon
		want bool
	}{
		{"open ended", Coupon{IsActive: true}, true},
		{"disabled", Coupon{IsActive: false}, false},
		{"not started", Coupon{IsActive: true, StartsAt: &after}, false},
		{"expired", Coupon{IsActive: true, EndsAt: &before}, false},
		{"ends exactly now", Coupon{IsActive: true, EndsAt: &now}, false},
		{"in window", Coupon{IsActive: true, StartsAt: &before, EndsAt: &after}, true},
		{"used up", Coupon{IsActive: true, UsageLimit: 3, UsedCount: 3}, false},
		{"uses left", Coupon{IsActive: true, UsageLimit: 3, UsedCount: 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.c.Active(now))
		})
	}
}

func TestInputApply(t *testing.T) {
	c := &Coupon{}
	maxOff := decimal.NewFromInt(50)
	err := Input{Code: " eid25 ", DiscountType: Percentage, Value: decimal.NewFromInt(25), MaxDiscount: &maxOff}.apply(c)
	require.NoError(t, err)
	require.Equal(t, "EID25", c.Code)
	require.True(t, c.MaxDiscount.Valid)
	require.Equal(t, []string{}, c.Products)

	err = Input{Code: "BIG", DiscountType: Percentage, Value: decimal.NewFromInt(150)}.apply(&Coupon{})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	start := time.Now()
	end := start.Add(-time.Minute)
	err = Input{Code: "WIN", DiscountType: Fixed, Value: decimal.NewFromInt(10), StartsAt: &start, EndsAt: &end}.apply(&Coupon{})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

type memStore struct{ coupons map[string]*Coupon }

func (m *memStore) List(_ context.Context, _ paging.Params) ([]Coupon, int, error) {
	out := []Coupon{}
	for _, c := range m.coupons {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *memStore) Get(_ context.Context, id string) (*Coupon, error) {
	for _, c := range m.coupons {
		if c.ID == id || c.Code == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperr.NotFound(apperr.MsgCouponNotFound)
}

func (m *memStore) Create(_ context.Context, c *Coupon) error {
	for _, e := range m.coupons {
		if e.Code == c.Code {
			return apperr.Business(apperr.MsgCouponTaken)
		}
	}
	cp := *c
	m.coupons[c.ID] = &cp
	return nil
}

func (m *memStore) Update(_ context.Context, c *Coupon) error {
	cp := *c
	m.coupons[c.ID] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	if _, ok := m.coupons[id]; !ok {
		return apperr.NotFound(apperr.MsgCouponNotFound)
	}
	delete(m.coupons, id)
	return nil
}

func TestServiceCRUD(t *testing.T) {
	svc := NewService(&memStore{coupons: map[string]*Coupon{}})
	ctx := context.Background()

	v, err := svc.Create(ctx, Input{Code: "gift10", DiscountType: Fixed, Value: decimal.NewFromInt(10)})
	require.NoError(t, err)
	require.True(t, v.Redeemable)

	_, err = svc.Create(ctx, Input{Code: "GIFT10", DiscountType: Fixed, Value: decimal.NewFromInt(5)})
	require.Equal(t, apperr.KindBusiness, apperr.KindOf(err))

	off := false
	v, err = svc.Update(ctx, v.ID, Input{Code: "GIFT10", DiscountType: Fixed, Value: decimal.NewFromInt(15), IsActive: &off})
	require.NoError(t, err)
	require.False(t, v.Redeemable)
	require.True(t, v.Value.Equal(decimal.NewFromInt(15)))

	list, meta, err := svc.List(ctx, paging.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 1, meta.Total)

	require.NoError(t, svc.Delete(ctx, v.ID))
	_, err = svc.Get(ctx, "GIFT10")
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
