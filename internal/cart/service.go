package cart

import (
	"context"
	"time"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/catalog"
	"github.com/ariefcatur/go-giftshop/internal/orders"
	"github.com/shopspring/decimal"
)

// Products resolves live product data; *catalog.Service satisfies it.
type Products interface {
	ProductsByIDs(ctx context.Context, ids []string) (map[string]catalog.Product, error)
}

type Service struct {
	store    Store
	products Products
	now      func() time.Time
}

func NewService(store Store, products Products) *Service {
	return &Service{store: store, products: products, now: time.Now}
}

// Owner derives the cart key from the caller: the user id when signed in,
// otherwise the guest session id.
func Owner(userID, session string) (string, error) {
	if userID != "" {
		return "user:" + userID, nil
	}
	if session != "" && len(session) <= 64 {
		return "session:" + session, nil
	}
	return "", apperr.Validation(apperr.MsgCartSession, map[string]string{"X-Cart-Session": apperr.MsgCartSession})
}

type AddInput struct {
	ProductID     string   `json:"productId" validate:"required"`
	Quantity      int      `json:"quantity" validate:"required,gte=1,lte=100"`
	SelectedSize  string   `json:"selectedSize" validate:"max=60"`
	SelectedColor string   `json:"selectedColor" validate:"max=60"`
	Addons        []string `json:"addons" validate:"max=20,dive,required"`
	GiftWrap      bool     `json:"giftWrap"`
}

// PricedLine is a cart line priced from the current catalog.
type PricedLine struct {
	Line
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Image       string          `json:"image"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	AddonTotal  decimal.Decimal `json:"addonTotal"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	GiftWrapFee decimal.Decimal `json:"giftWrapFee"`
	Stock       int             `json:"stock"`
	Available   bool            `json:"available"`
}

type View struct {
	Lines         []PricedLine    `json:"lines"`
	ItemCount     int             `json:"itemCount"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	GiftWrapTotal decimal.Decimal `json:"giftWrapTotal"`
	ShippingCost  decimal.Decimal `json:"shippingCost"`
	Total         decimal.Decimal `json:"total"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (s *Service) Get(ctx context.Context, owner string) (*View, error) {
	c, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, c)
}

// price mirrors the storefront totals: line subtotals, a flat fee per
// gift-wrapped line and the standard shipping schedule.
func (s *Service) price(ctx context.Context, c *Cart) (*View, error) {
	ids := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		ids = append(ids, l.ProductID)
	}
	found, err := s.products.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	v := &View{Lines: make([]PricedLine, 0, len(c.Lines)), UpdatedAt: c.UpdatedAt,
		Subtotal: decimal.Zero, GiftWrapTotal: decimal.Zero}
	for _, l := range c.Lines {
		pl := PricedLine{Line: l, UnitPrice: decimal.Zero, AddonTotal: decimal.Zero, Subtotal: decimal.Zero, GiftWrapFee: decimal.Zero}
		p, ok := found[l.ProductID]
		if ok && p.IsActive {
			pl.Name, pl.Slug, pl.Image = p.Name, p.Slug, p.MainImage()
			pl.UnitPrice = p.Price
			pl.Stock = p.Stock
			prices := make([]decimal.Decimal, 0, len(l.Addons))
			for _, name := range l.Addons {
				if a, ok := p.AddonByName(name); ok {
					prices = append(prices, a.Price)
					pl.AddonTotal = pl.AddonTotal.Add(a.Price)
				}
			}
			pl.Subtotal = orders.LineSubtotal(p.Price, l.Quantity, prices...)
			if l.GiftWrap {
				pl.GiftWrapFee = orders.GiftWrapFee
			}
			pl.Available = l.Quantity <= p.Stock
			v.Subtotal = v.Subtotal.Add(pl.Subtotal)
			v.GiftWrapTotal = v.GiftWrapTotal.Add(pl.GiftWrapFee)
			v.ItemCount += l.Quantity
		}
		v.Lines = append(v.Lines, pl)
	}
	v.ShippingCost = decimal.Zero
	if v.ItemCount > 0 {
		v.ShippingCost = orders.ShippingCost(orders.DeliveryStandard, v.Subtotal)
	}
	v.Total = v.Subtotal.Add(v.GiftWrapTotal).Add(v.ShippingCost)
	return v, nil
}

func (s *Service) Add(ctx context.Context, owner string, in AddInput) (*View, error) {
	if in.Quantity < 1 {
		return nil, apperr.Validation(apperr.MsgInvalidInput, map[string]string{"quantity": "الكمية يجب أن تكون 1 على الأقل"})
	}
	found, err := s.products.ProductsByIDs(ctx, []string{in.ProductID})
	if err != nil {
		return nil, err
	}
	p, ok := found[in.ProductID]
	if !ok || !p.IsActive {
		return nil, apperr.NotFound(apperr.MsgProductNotFound)
	}
	if in.SelectedSize != "" && len(p.Sizes) > 0 && !p.HasSize(in.SelectedSize) {
		return nil, apperr.Validation(apperr.MsgInvalidInput, map[string]string{"selectedSize": "المقاس غير متوفر لهذا المنتج"})
	}
	if in.SelectedColor != "" && len(p.Colors) > 0 && !p.HasColor(in.SelectedColor) {
		return nil, apperr.Validation(apperr.MsgInvalidInput, map[string]string{"selectedColor": "اللون غير متوفر لهذا المنتج"})
	}
	for _, a := range in.Addons {
		if _, ok := p.AddonByName(a); !ok {
			return nil, apperr.Validation(apperr.MsgInvalidInput, map[string]string{"addons": "إضافة غير متوفرة: " + a})
		}
	}

	c, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if c.QuantityOf(p.ID)+in.Quantity > p.Stock {
		return nil, apperr.Business(stockMessage(p))
	}
	c.Add(Line{
		ProductID:     p.ID,
		Quantity:      in.Quantity,
		SelectedSize:  in.SelectedSize,
		SelectedColor: in.SelectedColor,
		Addons:        in.Addons,
		GiftWrap:      in.GiftWrap,
	}, s.now())
	return s.save(ctx, c)
}

func (s *Service) SetQuantity(ctx context.Context, owner, lineID string, qty int) (*View, error) {
	c, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	i := c.find(lineID)
	if i < 0 {
		return nil, apperr.NotFound(apperr.MsgCartNotFound)
	}
	if qty > c.Lines[i].Quantity {
		productID := c.Lines[i].ProductID
		found, err := s.products.ProductsByIDs(ctx, []string{productID})
		if err != nil {
			return nil, err
		}
		p, ok := found[productID]
		if !ok || !p.IsActive {
			return nil, apperr.NotFound(apperr.MsgProductNotFound)
		}
		if c.QuantityOf(productID)-c.Lines[i].Quantity+qty > p.Stock {
			return nil, apperr.Business(stockMessage(p))
		}
	}
	if err := c.SetQuantity(lineID, qty, s.now()); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

func (s *Service) Remove(ctx context.Context, owner, lineID string) (*View, error) {
	c, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := c.Remove(lineID, s.now()); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

func (s *Service) Clear(ctx context.Context, owner string) error {
	return s.store.Delete(ctx, owner)
}

// Merge moves a guest cart into a signed-in user's cart and drops the guest cart.
func (s *Service) Merge(ctx context.Context, from, to string) (*View, error) {
	src, err := s.store.Load(ctx, from)
	if err != nil {
		return nil, err
	}
	dst, err := s.store.Load(ctx, to)
	if err != nil {
		return nil, err
	}
	if len(src.Lines) == 0 {
		return s.price(ctx, dst)
	}
	now := s.now()
	for _, l := range src.Lines {
		dst.Add(l, now)
	}
	v, err := s.save(ctx, dst)
	if err != nil {
		return nil, err
	}
	return v, s.store.Delete(ctx, from)
}

// Items returns the cart as checkout lines.
func (s *Service) Items(ctx context.Context, owner string) ([]orders.ItemInput, error) {
	c, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return c.ItemInputs(), nil
}

func (s *Service) save(ctx context.Context, c *Cart) (*View, error) {
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.price(ctx, c)
}

func stockMessage(p catalog.Product) string {
	return "الكمية المطلوبة من " + p.Name + " غير متوفرة"
}
