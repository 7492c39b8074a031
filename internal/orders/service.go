package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/auth"
	"github.com/ariefcatur/go-giftshop/internal/events"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/ariefcatur/go-giftshop/internal/redisx"
	"github.com/rs/zerolog"
)

type Store interface {
	// Create returns the existing order and replayed=true when
	// in.IdempotencyKey already names an order.
	Create(ctx context.Context, in PlaceInput, gen NumberGenerator) (*Order, bool, error)
	Get(ctx context.Context, id string) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	List(ctx context.Context, f ListFilter, p paging.Params) ([]Order, int, error)
	Cancel(ctx context.Context, id, note, by string, authorize func(*Order) error) (*Order, error)
	UpdateStatus(ctx context.Context, id string, to Status, note, by string) (*Order, error)
}

// Cache is satisfied by *redisx.JSONCache.
type Cache interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Service struct {
	store  Store
	cache  Cache
	events *events.Emitter
	gen    NumberGenerator
}

func NewService(store Store, cache Cache, em *events.Emitter) *Service {
	return &Service{store: store, cache: cache, events: em, gen: DefaultNumberGenerator()}
}

// Place creates an order. With a non-empty idempotency key a replay returns the
// order created by the first call and reports replayed=true. The store enforces
// one order per owner and key; Redis only short-circuits repeats.
func (s *Service) Place(ctx context.Context, in PlaceInput, idemKey string) (o *Order, replayed bool, err error) {
	if in.UserID == "" && strings.TrimSpace(in.GuestEmail) == "" && strings.TrimSpace(in.GuestPhone) == "" {
		return nil, false, apperr.Validation(apperr.MsgGuestContact, map[string]string{"guestEmail": apperr.MsgGuestContact})
	}
	log := zerolog.Ctx(ctx)

	var idem string
	in.IdempotencyKey = ""
	if idemKey != "" {
		owner := in.UserID
		if owner == "" {
			owner = "guest:" + strings.ToLower(in.GuestEmail) + in.GuestPhone
		}
		in.IdempotencyKey = owner + ":" + idemKey
		idem = fmt.Sprintf(redisx.KeyIdemOrderCreate, in.IdempotencyKey)
		var id string
		if ok, err := s.cache.Get(ctx, idem, &id); err != nil {
			log.Warn().Err(err).Msg("idempotency lookup failed")
		} else if ok {
			o, err := s.store.Get(ctx, id)
			if err == nil {
				return o, true, nil
			}
			if !apperr.Is(err, apperr.KindNotFound) {
				return nil, false, err
			}
		}
	}

	o, replayed, err = s.store.Create(ctx, in, s.gen)
	if err != nil {
		return nil, false, err
	}
	if idem != "" {
		if err := s.cache.Set(ctx, idem, o.ID, redisx.TTLIdempotency); err != nil {
			log.Warn().Err(err).Msg("idempotency store failed")
		}
	}
	if replayed {
		log.Info().Str("order_id", o.ID).Msg("order replayed")
		return o, true, nil
	}
	log.Info().Str("order_id", o.ID).Str("order_number", o.Number).Str("total", o.Total.String()).Msg("order placed")

	s.primeTracking(ctx, o)
	s.emit(ctx, events.EventOrderPlaced, o)
	return o, false, nil
}

// Get returns an order to its owner or to an admin.
func (s *Service) Get(ctx context.Context, id string, caller *auth.Claims) (*Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(caller)(o); err != nil {
		return nil, err
	}
	return o, nil
}

// Track serves the public tracking view by order number, cached briefly.
func (s *Service) Track(ctx context.Context, number string) (*Tracking, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if !ValidNumber(number) {
		return nil, apperr.NotFound(apperr.MsgOrderNotFound)
	}
	key := fmt.Sprintf(redisx.KeyOrderTrack, number)
	var t Tracking
	if ok, err := s.cache.Get(ctx, key, &t); err == nil && ok {
		return &t, nil
	}
	o, err := s.store.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	s.primeTracking(ctx, o)
	t = o.Tracking()
	return &t, nil
}

func (s *Service) ListMine(ctx context.Context, userID, status string, p paging.Params) ([]Order, paging.Meta, error) {
	if status != "" && !ValidStatus(status) {
		return nil, paging.Meta{}, apperr.Validation(apperr.MsgInvalidInput, map[string]string{"status": "حالة غير معروفة"})
	}
	items, total, err := s.store.List(ctx, ListFilter{UserID: userID, Status: status}, p)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	return items, p.Meta(total), nil
}

func (s *Service) AdminList(ctx context.Context, f ListFilter, p paging.Params) ([]Order, paging.Meta, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, paging.Meta{}, apperr.Validation(apperr.MsgInvalidInput, map[string]string{"status": "حالة غير معروفة"})
	}
	items, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	return items, p.Meta(total), nil
}

// Cancel cancels an order on behalf of its owner or an admin.
func (s *Service) Cancel(ctx context.Context, id, reason string, caller *auth.Claims) (*Order, error) {
	by := ""
	if caller != nil {
		by = caller.UserID
	}
	o, err := s.store.Cancel(ctx, id, reason, by, authorizeOwner(caller))
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("order_id", o.ID).Str("by", by).Msg("order cancelled")
	s.dropTracking(ctx, o.Number)
	s.emit(ctx, events.EventOrderCancelled, o)
	return o, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, to Status, note, by string) (*Order, error) {
	if !ValidStatus(string(to)) {
		return nil, apperr.Validation(apperr.MsgInvalidInput, map[string]string{"status": "حالة غير معروفة"})
	}
	o, err := s.store.UpdateStatus(ctx, id, to, note, by)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("order_id", o.ID).Str("status", string(to)).Str("by", by).Msg("order status changed")
	s.dropTracking(ctx, o.Number)
	if to == StatusCancelled {
		s.emit(ctx, events.EventOrderCancelled, o)
	} else {
		s.emit(ctx, events.EventOrderStatusChanged, o)
	}
	return o, nil
}

func authorizeOwner(caller *auth.Claims) func(*Order) error {
	return func(o *Order) error {
		if caller.IsAdmin() {
			return nil
		}
		if caller == nil || !o.OwnedBy(caller.UserID) {
			return apperr.Forbidden(apperr.MsgForbidden)
		}
		return nil
	}
}

func (s *Service) primeTracking(ctx context.Context, o *Order) {
	key := fmt.Sprintf(redisx.KeyOrderTrack, o.Number)
	if err := s.cache.Set(ctx, key, o.Tracking(), redisx.TTLTrackCache); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("order_number", o.Number).Msg("tracking cache set failed")
	}
}

func (s *Service) dropTracking(ctx context.Context, number string) {
	if err := s.cache.Del(ctx, fmt.Sprintf(redisx.KeyOrderTrack, number)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("order_number", number).Msg("tracking cache drop failed")
	}
}

func (s *Service) emit(ctx context.Context, eventType string, o *Order) {
	uid := ""
	if o.UserID != nil {
		uid = *o.UserID
	}
	s.events.Emit(ctx, eventType, o.ID, events.OrderPayload{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		UserID:      uid,
		Status:      string(o.Status),
		Total:       o.Total.String(),
		ProductIDs:  o.ProductIDs(),
	})
}
