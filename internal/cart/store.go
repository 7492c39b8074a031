package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/ariefcatur/go-giftshop/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// Store persists carts. Load returns an empty cart for unknown owners.
type Store interface {
	Load(ctx context.Context, owner string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, owner string) error
}

type RedisStore struct {
	cache *redisx.JSONCache
}

func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{cache: redisx.NewJSONCache(rdb)}
}

func (s *RedisStore) Load(ctx context.Context, owner string) (*Cart, error) {
	c := &Cart{}
	ok, err := s.cache.Get(ctx, fmt.Sprintf(redisx.KeyCart, owner), c)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if !ok || c.Lines == nil {
		c.Lines = []Line{}
	}
	c.Owner = owner
	return c, nil
}

// Save writes the cart and refreshes its expiry.
func (s *RedisStore) Save(ctx context.Context, c *Cart) error {
	if err := s.cache.Set(ctx, fmt.Sprintf(redisx.KeyCart, c.Owner), c, redisx.TTLCart); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, owner string) error {
	return s.cache.Del(ctx, fmt.Sprintf(redisx.KeyCart, owner))
}

type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]Cart
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{carts: map[string]Cart{}} }

func (s *MemoryStore) Load(_ context.Context, owner string) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[owner]
	if !ok {
		return &Cart{Owner: owner, Lines: []Line{}}, nil
	}
	c.Lines = append([]Line{}, c.Lines...)
	return &c, nil
}

func (s *MemoryStore) Save(_ context.Context, c *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	cp.Lines = append([]Line(nil), c.Lines...)
	s.carts[c.Owner] = cp
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, owner)
	return nil
}
