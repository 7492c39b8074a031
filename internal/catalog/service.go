package catalog

import (
	"context"
	"strings"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/events"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Store interface {
	ListProducts(ctx context.Context, f ListFilter) ([]Product, int, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*Product, error)
	ProductsByIDs(ctx context.Context, ids []string) (map[string]Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) (bool, error)

	ListCategories(ctx context.Context, includeInactive bool) ([]Category, error)
	GetCategory(ctx context.Context, idOrSlug string) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id string) error
}

const shelfLimit = 8

type Service struct {
	store  Store
	events *events.Emitter
}

func NewService(store Store, em *events.Emitter) *Service {
	return &Service{store: store, events: em}
}

func (s *Service) ListProducts(ctx context.Context, f ListFilter) ([]Product, paging.Meta, error) {
	items, total, err := s.store.ListProducts(ctx, f)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	return items, f.Params.Meta(total), nil
}

func (s *Service) shelf(ctx context.Context, f ListFilter, limit int) ([]Product, error) {
	if limit <= 0 || limit > paging.MaxLimit {
		limit = shelfLimit
	}
	f.Params = paging.Params{Page: 1, Limit: limit}
	items, _, err := s.store.ListProducts(ctx, f)
	return items, err
}

func (s *Service) Featured(ctx context.Context, limit int) ([]Product, error) {
	yes := true
	return s.shelf(ctx, ListFilter{Featured: &yes, Sort: SortNewest}, limit)
}

func (s *Service) Bestsellers(ctx context.Context, limit int) ([]Product, error) {
	return s.shelf(ctx, ListFilter{Sort: SortPopular}, limit)
}

func (s *Service) NewArrivals(ctx context.Context, limit int) ([]Product, error) {
	return s.shelf(ctx, ListFilter{Sort: SortNewest}, limit)
}

func (s *Service) ProductBySlug(ctx context.Context, slug string) (*Product, error) {
	return s.store.GetProductBySlug(ctx, slug)
}

// Product returns an active product; inactive ones are hidden from the storefront.
func (s *Service) Product(ctx context.Context, id string) (*Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperr.NotFound(apperr.MsgProductNotFound)
	}
	return p, nil
}

func (s *Service) Related(ctx context.Context, id string, limit int) ([]Product, error) {
	p, err := s.Product(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.shelf(ctx, ListFilter{Category: p.CategoryID, ExcludeID: p.ID, Sort: SortRating}, limit)
}

func (s *Service) ByOccasion(ctx context.Context, occasion string, p paging.Params) ([]Product, paging.Meta, error) {
	if !ValidOccasion(occasion) {
		return nil, paging.Meta{}, apperr.Validation(apperr.MsgInvalidInput, map[string]string{"occasion": "مناسبة غير معروفة"})
	}
	return s.ListProducts(ctx, ListFilter{Occasion: occasion, Sort: SortNewest, Params: p})
}

func (s *Service) ByRecipient(ctx context.Context, recipient string, p paging.Params) ([]Product, paging.Meta, error) {
	if !ValidRecipient(recipient) {
		return nil, paging.Meta{}, apperr.Validation(apperr.MsgInvalidInput, map[string]string{"recipient": "فئة مستلم غير معروفة"})
	}
	return s.ListProducts(ctx, ListFilter{Recipient: recipient, Sort: SortNewest, Params: p})
}

func (s *Service) ProductsByIDs(ctx context.Context, ids []string) (map[string]Product, error) {
	return s.store.ProductsByIDs(ctx, ids)
}

// Admin

func (s *Service) AdminProduct(ctx context.Context, id string) (*Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	p := &Product{ID: uuid.NewString(), IsActive: true}
	if err := applyProductInput(p, in); err != nil {
		return nil, err
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("product_id", p.ID).Msg("product created")
	s.events.Emit(ctx, events.EventProductCreated, p.ID, events.ProductPayload{ProductID: p.ID, CategoryIDs: []string{p.CategoryID}})
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	prevCategory := p.CategoryID
	if err := applyProductInput(p, in); err != nil {
		return nil, err
	}
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	cats := []string{p.CategoryID}
	if prevCategory != p.CategoryID {
		cats = append(cats, prevCategory)
	}
	s.events.Emit(ctx, events.EventProductUpdated, p.ID, events.ProductPayload{ProductID: p.ID, CategoryIDs: cats})
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.store.DeleteProduct(ctx, id)
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("product_id", id).Bool("deleted", deleted).Msg("product removed")
	s.events.Emit(ctx, events.EventProductDeleted, id, events.ProductPayload{ProductID: id, CategoryIDs: []string{p.CategoryID}})
	return nil
}

func applyProductInput(p *Product, in ProductInput) error {
	fields := map[string]string{}
	if !in.Price.IsPositive() {
		fields["price"] = "السعر يجب أن يكون أكبر من صفر"
	}
	if in.OldPrice != nil && in.OldPrice.IsNegative() {
		fields["oldPrice"] = "قيمة السعر غير صالحة"
	}
	for _, o := range in.Occasions {
		if !ValidOccasion(o) {
			fields["occasions"] = "مناسبة غير معروفة: " + o
		}
	}
	for _, r := range in.Recipients {
		if !ValidRecipient(r) {
			fields["recipients"] = "فئة مستلم غير معروفة: " + r
		}
	}
	for _, a := range in.Addons {
		if a.Price.IsNegative() || strings.TrimSpace(a.Name) == "" {
			fields["addons"] = "إضافة غير صالحة"
		}
	}
	if len(fields) > 0 {
		return apperr.Validation(apperr.MsgInvalidInput, fields)
	}

	p.Name = strings.TrimSpace(in.Name)
	p.Slug = in.Slug
	if p.Slug == "" {
		p.Slug = Slugify(in.Name)
	}
	if p.Slug == "" {
		p.Slug = uuid.NewString()[:8]
	}
	p.Description = in.Description
	p.Price = in.Price
	p.OldPrice = decimal.NullDecimal{}
	if in.OldPrice != nil {
		p.OldPrice = decimal.NewNullDecimal(*in.OldPrice)
	}
	p.Stock = in.Stock
	p.CategoryID = in.CategoryID
	p.Images = orEmpty(in.Images)
	p.Tags = orEmpty(in.Tags)
	p.Occasions = orEmpty(in.Occasions)
	p.Recipients = orEmpty(in.Recipients)
	p.Sizes = orEmpty(in.Sizes)
	p.Colors = in.Colors
	if p.Colors == nil {
		p.Colors = []Color{}
	}
	p.Addons = in.Addons
	if p.Addons == nil {
		p.Addons = []Addon{}
	}
	p.IsFeatured = in.IsFeatured
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Categories

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.store.ListCategories(ctx, false)
}

func (s *Service) AdminCategories(ctx context.Context) ([]Category, error) {
	return s.store.ListCategories(ctx, true)
}

func (s *Service) CategoryTree(ctx context.Context) ([]*CategoryNode, error) {
	cats, err := s.store.ListCategories(ctx, false)
	if err != nil {
		return nil, err
	}
	return BuildTree(cats), nil
}

func (s *Service) Category(ctx context.Context, idOrSlug string) (*Category, error) {
	c, err := s.store.GetCategory(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, apperr.NotFound(apperr.MsgCategoryNotFound)
	}
	return c, nil
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	c := &Category{ID: uuid.NewString(), IsActive: true}
	applyCategoryInput(c, in)
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.events.Emit(ctx, events.EventCategoryChanged, c.ID, events.CategoryPayload{CategoryID: c.ID})
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.ParentID != nil && *in.ParentID == c.ID {
		return nil, apperr.Validation(apperr.MsgInvalidInput, map[string]string{"parentId": "لا يمكن أن يكون التصنيف أباً لنفسه"})
	}
	if in.ParentID != nil && *in.ParentID != "" {
		if err := s.checkAncestry(ctx, c.ID, *in.ParentID); err != nil {
			return nil, err
		}
	}
	applyCategoryInput(c, in)
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.events.Emit(ctx, events.EventCategoryChanged, c.ID, events.CategoryPayload{CategoryID: c.ID})
	return c, nil
}

// checkAncestry rejects parentID when id already appears among its ancestors.
func (s *Service) checkAncestry(ctx context.Context, id, parentID string) error {
	seen := map[string]bool{}
	for cur := parentID; cur != "" && !seen[cur]; {
		if cur == id {
			return apperr.Validation(apperr.MsgCategoryCycle, map[string]string{"parentId": apperr.MsgCategoryCycle})
		}
		seen[cur] = true
		p, err := s.store.GetCategory(ctx, cur)
		if apperr.Is(err, apperr.KindNotFound) {
			// the store reports an unknown parent on write
			return nil
		}
		if err != nil {
			return err
		}
		cur = ""
		if p.ParentID != nil {
			cur = *p.ParentID
		}
	}
	return nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.store.DeleteCategory(ctx, id)
}

func applyCategoryInput(c *Category, in CategoryInput) {
	c.Name = strings.TrimSpace(in.Name)
	c.Slug = in.Slug
	if c.Slug == "" {
		c.Slug = Slugify(in.Name)
	}
	if c.Slug == "" {
		c.Slug = uuid.NewString()[:8]
	}
	c.Description = in.Description
	c.Image = in.Image
	c.ParentID = in.ParentID
	if c.ParentID != nil && *c.ParentID == "" {
		c.ParentID = nil
	}
	c.DisplayOrder = in.DisplayOrder
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
}
