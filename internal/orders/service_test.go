package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/auth"
	"github.com/ariefcatur/go-giftshop/internal/catalog"
	"github.com/ariefcatur/go-giftshop/internal/events"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	products map[string]catalog.Product
	orders   map[string]*Order
	keys     map[string]string
	creates  int
	// delay widens the window between the key check and the write.
	delay time.Duration
}

func newMemStore(ps ...catalog.Product) *memStore {
	return &memStore{products: catalogOf(ps...), orders: map[string]*Order{}, keys: map[string]string{}}
}

func (m *memStore) Create(_ context.Context, in PlaceInput, gen NumberGenerator) (*Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.keys[in.IdempotencyKey]; ok && in.IdempotencyKey != "" {
		cp := *m.orders[id]
		return &cp, true, nil
	}
	time.Sleep(m.delay)
	o, err := Build(in, m.products)
	if err != nil {
		return nil, false, err
	}
	m.creates++
	o.ID = fmt.Sprintf("o-%d", m.creates)
	gen.Assign(o)
	o.StatusHistory = []StatusEntry{{Status: StatusPending, Date: time.Now()}}
	for _, it := range o.Items {
		p := m.products[it.ProductID]
		p.Stock -= it.Quantity
		p.SalesCount += it.Quantity
		m.products[p.ID] = p
	}
	cp := *o
	m.orders[o.ID] = &cp
	if in.IdempotencyKey != "" {
		m.keys[in.IdempotencyKey] = o.ID
	}
	return o, false, nil
}

func (m *memStore) Get(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.NotFound(apperr.MsgOrderNotFound)
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) GetByNumber(_ context.Context, number string) (*Order, error) {
	for _, o := range m.orders {
		if o.Number == number {
			cp := *o
			return &cp, nil
		}
	}
	return nil, apperr.NotFound(apperr.MsgOrderNotFound)
}

func (m *memStore) List(_ context.Context, f ListFilter, _ paging.Params) ([]Order, int, error) {
	var out []Order
	for _, o := range m.orders {
		if f.UserID != "" && !o.OwnedBy(f.UserID) {
			continue
		}
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (m *memStore) Cancel(_ context.Context, id, note, by string, authorize func(*Order) error) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.NotFound(apperr.MsgOrderNotFound)
	}
	if err := authorize(o); err != nil {
		return nil, err
	}
	if !CanCancel(o.Status) {
		return nil, apperr.Business(apperr.MsgOrderNotCancelable)
	}
	o.Status = StatusCancelled
	o.StatusHistory = append(o.StatusHistory, StatusEntry{Status: StatusCancelled, Note: note, UpdatedBy: by})
	for _, it := range o.Items {
		p := m.products[it.ProductID]
		p.Stock += it.Quantity
		p.SalesCount -= it.Quantity
		m.products[p.ID] = p
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id string, to Status, note, by string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.NotFound(apperr.MsgOrderNotFound)
	}
	if o.Status == to {
		return nil, apperr.Business(apperr.MsgOrderSameStatus)
	}
	if to == StatusCancelled {
		return m.Cancel(ctx, id, note, by, func(*Order) error { return nil })
	}
	o.Status = to
	if to == StatusDelivered && o.PaymentMethod == PaymentCashOnDelivery {
		o.PaymentStatus = PaymentPaid
	}
	o.StatusHistory = append(o.StatusHistory, StatusEntry{Status: to, Note: note, UpdatedBy: by})
	cp := *o
	return &cp, nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *memCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(v)
	c.data[key] = b
	return err
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type recorder struct {
	mu    sync.Mutex
	types []string
}

func (r *recorder) Publish(_, _ []byte, headers ...kafkago.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, string(headers[0].Value))
}

func newTestService(ps ...catalog.Product) (*Service, *memStore, *memCache, *recorder) {
	store := newMemStore(ps...)
	cache := newMemCache()
	rec := &recorder{}
	return NewService(store, cache, events.NewEmitter(rec, "test")), store, cache, rec
}

var (
	owner = &auth.Claims{UserID: "u-1", Role: auth.RoleUser}
	other = &auth.Claims{UserID: "u-2", Role: auth.RoleUser}
	admin = &auth.Claims{UserID: "a-1", Role: auth.RoleAdmin}
)

func TestPlaceDecrementsStockAndEmits(t *testing.T) {
	svc, store, cache, rec := newTestService(giftBox())
	ctx := context.Background()

	o, replayed, err := svc.Place(ctx, baseInput(ItemInput{ProductID: "p-box", Quantity: 2, Addons: []string{"card"}}), "")
	require.NoError(t, err)
	require.False(t, replayed)
	require.True(t, o.Total.Equal(d(240)))
	require.True(t, ValidNumber(o.Number))

	require.Equal(t, 3, store.products["p-box"].Stock)
	require.Equal(t, 2, store.products["p-box"].SalesCount)
	require.Equal(t, []string{events.EventOrderPlaced}, rec.types)
	require.Contains(t, cache.data, "order_track:"+o.Number)
}

func TestPlaceIdempotencyKeyReplays(t *testing.T) {
	svc, store, _, rec := newTestService(giftBox())
	ctx := context.Background()
	in := baseInput(ItemInput{ProductID: "p-box", Quantity: 1})

	first, _, err := svc.Place(ctx, in, "key-1")
	require.NoError(t, err)

	again, replayed, err := svc.Place(ctx, in, "key-1")
	require.NoError(t, err)
	require.True(t, replayed)
	require.Equal(t, first.ID, again.ID)
	require.Equal(t, 1, store.creates)
	require.Equal(t, 4, store.products["p-box"].Stock)
	require.Len(t, rec.types, 1)

	// same key from another user is a different request
	in.UserID = "u-2"
	_, replayed, err = svc.Place(ctx, in, "key-1")
	require.NoError(t, err)
	require.False(t, replayed)
	require.Equal(t, 2, store.creates)
}

func TestPlaceConcurrentSameKeyPlacesOnce(t *testing.T) {
	svc, store, _, rec := newTestService(giftBox())
	store.delay = 50 * time.Millisecond
	ctx := context.Background()
	in := baseInput(ItemInput{ProductID: "p-box", Quantity: 1})

	var wg sync.WaitGroup
	placed := make([]*Order, 2)
	replays := make([]bool, 2)
	errs := make([]error, 2)
	for i := range placed {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			placed[i], replays[i], errs[i] = svc.Place(ctx, in, "same-key")
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Equal(t, placed[0].ID, placed[1].ID)
	require.ElementsMatch(t, []bool{false, true}, replays)
	require.Equal(t, 1, store.creates)
	require.Equal(t, 4, store.products["p-box"].Stock)
	require.Equal(t, []string{events.EventOrderPlaced}, rec.types)
}

func TestPlaceReplayFromStoreWhenCacheMissing(t *testing.T) {
	svc, store, cache, rec := newTestService(giftBox())
	ctx := context.Background()
	in := baseInput(ItemInput{ProductID: "p-box", Quantity: 1})

	first, _, err := svc.Place(ctx, in, "key-1")
	require.NoError(t, err)
	cache.data = map[string][]byte{}

	again, replayed, err := svc.Place(ctx, in, "key-1")
	require.NoError(t, err)
	require.True(t, replayed)
	require.Equal(t, first.ID, again.ID)
	require.Equal(t, 1, store.creates)
	require.Len(t, rec.types, 1)
	require.Contains(t, cache.data, "idem:order:create:u-1:key-1")
}

func TestPlaceWalletRequiresAccount(t *testing.T) {
	svc, store, _, _ := newTestService(giftBox())
	in := baseInput(ItemInput{ProductID: "p-box", Quantity: 1})
	in.UserID = ""
	in.GuestEmail = "guest@example.com"
	in.PaymentMethod = PaymentWallet

	_, _, err := svc.Place(context.Background(), in, "")
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	require.Equal(t, 0, store.creates)
}

func TestPlaceGuestNeedsContact(t *testing.T) {
	svc, _, _, _ := newTestService(giftBox())
	in := baseInput(ItemInput{ProductID: "p-box", Quantity: 1})
	in.UserID = ""

	_, _, err := svc.Place(context.Background(), in, "")
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	in.GuestPhone = "0555555555"
	o, _, err := svc.Place(context.Background(), in, "")
	require.NoError(t, err)
	require.Nil(t, o.UserID)
}

func TestPlaceInsufficientStockLeavesStock(t *testing.T) {
	svc, store, _, rec := newTestService(giftBox())
	_, _, err := svc.Place(context.Background(), baseInput(ItemInput{ProductID: "p-box", Quantity: 9}), "")
	require.Equal(t, apperr.KindBusiness, apperr.KindOf(err))
	require.Equal(t, 5, store.products["p-box"].Stock)
	require.Empty(t, rec.types)
}

func TestGetOwnership(t *testing.T) {
	svc, _, _, _ := newTestService(giftBox())
	ctx := context.Background()
	o, _, err := svc.Place(ctx, baseInput(ItemInput{ProductID: "p-box", Quantity: 1}), "")
	require.NoError(t, err)

	_, err = svc.Get(ctx, o.ID, owner)
	require.NoError(t, err)
	_, err = svc.Get(ctx, o.ID, admin)
	require.NoError(t, err)
	_, err = svc.Get(ctx, o.ID, other)
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = svc.Get(ctx, o.ID, nil)
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestCancelRestoresStock(t *testing.T) {
	svc, store, cache, rec := newTestService(giftBox())
	ctx := context.Background()
	o, _, err := svc.Place(ctx, baseInput(ItemInput{ProductID: "p-box", Quantity: 2}), "")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, o.ID, "", other)
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	got, err := svc.Cancel(ctx, o.ID, "changed my mind", owner)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, got.Status)
	require.Equal(t, 5, store.products["p-box"].Stock)
	require.Equal(t, 0, store.products["p-box"].SalesCount)
	require.NotContains(t, cache.data, "order_track:"+o.Number)
	require.Equal(t, []string{events.EventOrderPlaced, events.EventOrderCancelled}, rec.types)

	_, err = svc.Cancel(ctx, o.ID, "", owner)
	require.Equal(t, apperr.KindBusiness, apperr.KindOf(err))
}

func TestCancelAfterShippingRejected(t *testing.T) {
	svc, store, _, _ := newTestService(giftBox())
	ctx := context.Background()
	o, _, err := svc.Place(ctx, baseInput(ItemInput{ProductID: "p-box", Quantity: 1}), "")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, o.ID, StatusShipped, "", admin.UserID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, o.ID, "", admin)
	require.Equal(t, apperr.KindBusiness, apperr.KindOf(err))
	require.Equal(t, 4, store.products["p-box"].Stock)
}

func TestUpdateStatus(t *testing.T) {
	svc, _, _, rec := newTestService(giftBox())
	ctx := context.Background()
	o, _, err := svc.Place(ctx, baseInput(ItemInput{ProductID: "p-box", Quantity: 1}), "")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, o.ID, "lost", "", admin.UserID)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.UpdateStatus(ctx, o.ID, StatusPending, "", admin.UserID)
	require.Equal(t, apperr.KindBusiness, apperr.KindOf(err))

	got, err := svc.UpdateStatus(ctx, o.ID, StatusDelivered, "تم التسليم", admin.UserID)
	require.NoError(t, err)
	require.Equal(t, PaymentPaid, got.PaymentStatus)
	last := got.StatusHistory[len(got.StatusHistory)-1]
	require.Equal(t, StatusDelivered, last.Status)
	require.Equal(t, "a-1", last.UpdatedBy)
	require.Equal(t, events.EventOrderStatusChanged, rec.types[len(rec.types)-1])
}

func TestTrackUsesCache(t *testing.T) {
	svc, store, _, _ := newTestService(giftBox())
	ctx := context.Background()
	o, _, err := svc.Place(ctx, baseInput(ItemInput{ProductID: "p-box", Quantity: 2}), "")
	require.NoError(t, err)

	delete(store.orders, o.ID)
	tr, err := svc.Track(ctx, o.Number)
	require.NoError(t, err)
	require.Equal(t, 2, tr.ItemCount)

	_, err = svc.Track(ctx, "not-a-number")
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListMineFiltersByOwner(t *testing.T) {
	svc, _, _, _ := newTestService(giftBox())
	ctx := context.Background()
	_, _, err := svc.Place(ctx, baseInput(ItemInput{ProductID: "p-box", Quantity: 1}), "")
	require.NoError(t, err)
	in := baseInput(ItemInput{ProductID: "p-box", Quantity: 1})
	in.UserID = "u-2"
	_, _, err = svc.Place(ctx, in, "")
	require.NoError(t, err)

	items, meta, err := svc.ListMine(ctx, "u-1", "", paging.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 1, meta.Total)

	_, _, err = svc.ListMine(ctx, "u-1", "bogus", paging.Params{Page: 1, Limit: 10})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
