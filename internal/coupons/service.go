package coupons

import (
	"context"
	"time"

	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Store interface {
	List(ctx context.Context, p paging.Params) ([]Coupon, int, error)
	Get(ctx context.Context, idOrCode string) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// View adds the computed redeemability to a coupon.
type View struct {
	Coupon
	Redeemable bool `json:"redeemable"`
}

func (s *Service) view(c Coupon) View {
	return View{Coupon: c, Redeemable: c.Active(s.now())}
}

func (s *Service) List(ctx context.Context, p paging.Params) ([]View, paging.Meta, error) {
	items, total, err := s.store.List(ctx, p)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	out := make([]View, len(items))
	for i, c := range items {
		out[i] = s.view(c)
	}
	return out, p.Meta(total), nil
}

func (s *Service) Get(ctx context.Context, idOrCode string) (*View, error) {
	c, err := s.store.Get(ctx, idOrCode)
	if err != nil {
		return nil, err
	}
	v := s.view(*c)
	return &v, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*View, error) {
	c := &Coupon{ID: uuid.NewString(), IsActive: true}
	if err := in.apply(c); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("coupon", c.Code).Msg("coupon created")
	v := s.view(*c)
	return &v, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*View, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(c); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, c); err != nil {
		return nil, err
	}
	v := s.view(*c)
	return &v, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
