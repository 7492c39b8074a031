package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/events"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	products   map[string]*Product
	categories map[string]*Category
	lastFilter ListFilter
}

func newMemStore() *memStore {
	return &memStore{products: map[string]*Product{}, categories: map[string]*Category{}}
}

func (m *memStore) ListProducts(_ context.Context, f ListFilter) ([]Product, int, error) {
	m.lastFilter = f
	var out []Product
	for _, p := range m.products {
		if f.Category != "" && p.CategoryID != f.Category {
			continue
		}
		if f.ExcludeID != "" && p.ID == f.ExcludeID {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *memStore) GetProduct(_ context.Context, id string) (*Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, apperr.NotFound(apperr.MsgProductNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetProductBySlug(_ context.Context, slug string) (*Product, error) {
	for _, p := range m.products {
		if p.Slug == slug {
			p.ViewCount++
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperr.NotFound(apperr.MsgProductNotFound)
}

func (m *memStore) ProductsByIDs(_ context.Context, ids []string) (map[string]Product, error) {
	out := map[string]Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = *p
		}
	}
	return out, nil
}

func (m *memStore) CreateProduct(_ context.Context, p *Product) error {
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memStore) UpdateProduct(_ context.Context, p *Product) error {
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memStore) DeleteProduct(_ context.Context, id string) (bool, error) {
	delete(m.products, id)
	return true, nil
}

func (m *memStore) ListCategories(_ context.Context, includeInactive bool) ([]Category, error) {
	var out []Category
	for _, c := range m.categories {
		if c.IsActive || includeInactive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) GetCategory(_ context.Context, idOrSlug string) (*Category, error) {
	for _, c := range m.categories {
		if c.ID == idOrSlug || c.Slug == idOrSlug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperr.NotFound(apperr.MsgCategoryNotFound)
}

func (m *memStore) CreateCategory(_ context.Context, c *Category) error {
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *memStore) UpdateCategory(_ context.Context, c *Category) error {
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *memStore) DeleteCategory(_ context.Context, id string) error {
	delete(m.categories, id)
	return nil
}

type capture struct{ envs []events.Envelope }

func (c *capture) Publish(_, value []byte, _ ...kafkago.Header) {
	var env events.Envelope
	_ = json.Unmarshal(value, &env)
	c.envs = append(c.envs, env)
}

func validInput() ProductInput {
	return ProductInput{
		Name:       "Red Rose Box",
		Price:      decimal.NewFromInt(120),
		CategoryID: "flowers",
		Occasions:  []string{"birthday"},
		Addons:     []Addon{{Name: "card", Price: decimal.NewFromInt(10)}},
	}
}

func TestCreateProductDerivesSlugAndEmits(t *testing.T) {
	store := newMemStore()
	rec := &capture{}
	svc := NewService(store, events.NewEmitter(rec, "test"))

	p, err := svc.CreateProduct(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, "red-rose-box", p.Slug)
	require.True(t, p.IsActive)
	require.Equal(t, []string{}, p.Tags)
	require.Len(t, rec.envs, 1)
	require.Equal(t, events.EventProductCreated, rec.envs[0].EventType)
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	in := validInput()
	in.Price = decimal.Zero
	in.Occasions = []string{"halloween"}

	_, err := svc.CreateProduct(context.Background(), in)
	require.True(t, apperr.Is(err, apperr.KindValidation))
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	require.Contains(t, ae.Fields, "price")
	require.Contains(t, ae.Fields, "occasions")
}

func TestUpdateProductCategoryMoveEmitsBoth(t *testing.T) {
	store := newMemStore()
	rec := &capture{}
	svc := NewService(store, events.NewEmitter(rec, "test"))

	p, err := svc.CreateProduct(context.Background(), validInput())
	require.NoError(t, err)

	in := validInput()
	in.CategoryID = "chocolate"
	_, err = svc.UpdateProduct(context.Background(), p.ID, in)
	require.NoError(t, err)

	require.Len(t, rec.envs, 2)
	var payload events.ProductPayload
	require.NoError(t, json.Unmarshal(rec.envs[1].Payload, &payload))
	require.ElementsMatch(t, []string{"flowers", "chocolate"}, payload.CategoryIDs)
}

func TestProductHidesInactive(t *testing.T) {
	store := newMemStore()
	store.products["p1"] = &Product{ID: "p1", IsActive: false}
	svc := NewService(store, nil)

	_, err := svc.Product(context.Background(), "p1")
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRelatedExcludesSelf(t *testing.T) {
	store := newMemStore()
	store.products["p1"] = &Product{ID: "p1", CategoryID: "c1", IsActive: true}
	store.products["p2"] = &Product{ID: "p2", CategoryID: "c1", IsActive: true}
	store.products["p3"] = &Product{ID: "p3", CategoryID: "c2", IsActive: true}
	svc := NewService(store, nil)

	items, err := svc.Related(context.Background(), "p1", 4)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "p2", items[0].ID)
	require.Equal(t, SortRating, store.lastFilter.Sort)
	require.Equal(t, 4, store.lastFilter.Limit)
}

func TestShelvesSetFilters(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil)

	_, err := svc.Featured(context.Background(), 0)
	require.NoError(t, err)
	require.NotNil(t, store.lastFilter.Featured)
	require.Equal(t, shelfLimit, store.lastFilter.Limit)

	_, err = svc.Bestsellers(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, SortPopular, store.lastFilter.Sort)
}

func TestByOccasion(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	_, _, err := svc.ByOccasion(context.Background(), "halloween", paging.Params{Page: 1, Limit: 10})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	_, meta, err := svc.ByOccasion(context.Background(), "eid", paging.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 0, meta.Total)
}

func TestUpdateCategoryRejectsSelfParent(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil)
	c, err := svc.CreateCategory(context.Background(), CategoryInput{Name: "Flowers"})
	require.NoError(t, err)
	require.Equal(t, "flowers", c.Slug)

	_, err = svc.UpdateCategory(context.Background(), c.ID, CategoryInput{Name: "Flowers", ParentID: &c.ID})
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateCategoryRejectsParentCycle(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil)
	ctx := context.Background()
	a, err := svc.CreateCategory(ctx, CategoryInput{Name: "A"})
	require.NoError(t, err)
	b, err := svc.CreateCategory(ctx, CategoryInput{Name: "B", ParentID: &a.ID})
	require.NoError(t, err)
	c, err := svc.CreateCategory(ctx, CategoryInput{Name: "C", ParentID: &b.ID})
	require.NoError(t, err)

	_, err = svc.UpdateCategory(ctx, a.ID, CategoryInput{Name: "A", ParentID: &b.ID})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = svc.UpdateCategory(ctx, a.ID, CategoryInput{Name: "A", ParentID: &c.ID})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	require.Nil(t, store.categories[a.ID].ParentID)

	// moving within a branch is fine
	_, err = svc.UpdateCategory(ctx, c.ID, CategoryInput{Name: "C", ParentID: &a.ID})
	require.NoError(t, err)
	require.Equal(t, a.ID, *store.categories[c.ID].ParentID)

	cats, err := store.ListCategories(ctx, true)
	require.NoError(t, err)
	require.Len(t, BuildTree(cats), 1)
}
