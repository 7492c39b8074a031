package orders

import (
	"fmt"
	"strings"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/catalog"
	"github.com/shopspring/decimal"
)

// Build validates the requested lines against live products and prices the order.
// It performs no writes; the caller persists the result and adjusts stock.
func Build(in PlaceInput, products map[string]catalog.Product) (*Order, error) {
	if len(in.Items) == 0 {
		return nil, apperr.Validation(apperr.MsgEmptyOrder, map[string]string{"items": apperr.MsgEmptyOrder})
	}
	if in.PaymentMethod == PaymentWallet && in.UserID == "" {
		return nil, apperr.Validation(apperr.MsgWalletGuest, map[string]string{"paymentMethod": apperr.MsgWalletGuest})
	}

	requested := map[string]int{}
	items := make([]Item, 0, len(in.Items))
	lines := make([]decimal.Decimal, 0, len(in.Items))

	for i, it := range in.Items {
		p, ok := products[it.ProductID]
		if !ok || !p.IsActive {
			return nil, apperr.NotFound(fmt.Sprintf("المنتج %s غير موجود", it.ProductID))
		}
		if it.Quantity < 1 {
			return nil, apperr.Validation(apperr.MsgInvalidInput, map[string]string{
				fmt.Sprintf("items[%d].quantity", i): "الكمية يجب أن تكون 1 على الأقل",
			})
		}
		requested[p.ID] += it.Quantity
		if requested[p.ID] > p.Stock {
			return nil, apperr.Business(fmt.Sprintf("الكمية المطلوبة من %s غير متوفرة، المتوفر %d فقط", p.Name, p.Stock))
		}
		if it.SelectedSize != "" && len(p.Sizes) > 0 && !p.HasSize(it.SelectedSize) {
			return nil, apperr.Validation(apperr.MsgInvalidInput, map[string]string{
				fmt.Sprintf("items[%d].selectedSize", i): "المقاس غير متوفر لهذا المنتج",
			})
		}
		if it.SelectedColor != "" && len(p.Colors) > 0 && !p.HasColor(it.SelectedColor) {
			return nil, apperr.Validation(apperr.MsgInvalidInput, map[string]string{
				fmt.Sprintf("items[%d].selectedColor", i): "اللون غير متوفر لهذا المنتج",
			})
		}

		addons := make([]catalog.Addon, 0, len(it.Addons))
		prices := make([]decimal.Decimal, 0, len(it.Addons))
		for _, name := range it.Addons {
			a, ok := p.AddonByName(strings.TrimSpace(name))
			if !ok {
				return nil, apperr.Validation(apperr.MsgInvalidInput, map[string]string{
					fmt.Sprintf("items[%d].addons", i): "إضافة غير متوفرة: " + name,
				})
			}
			addons = append(addons, a)
			prices = append(prices, a.Price)
		}

		sub := LineSubtotal(p.Price, it.Quantity, prices...)
		lines = append(lines, sub)
		items = append(items, Item{
			ProductID:     p.ID,
			Name:          p.Name,
			Image:         p.MainImage(),
			Price:         p.Price,
			Quantity:      it.Quantity,
			SelectedSize:  it.SelectedSize,
			SelectedColor: it.SelectedColor,
			Addons:        addons,
			GiftWrap:      it.GiftWrap,
			Subtotal:      sub,
		})
	}

	delivery := in.DeliveryType
	if delivery == "" {
		delivery = DeliveryStandard
	}
	t := ComputeTotals(delivery, lines...)

	o := &Order{
		GuestEmail:      in.GuestEmail,
		GuestPhone:      in.GuestPhone,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  in.BillingAddress,
		Subtotal:        t.Subtotal,
		ShippingCost:    t.ShippingCost,
		Discount:        t.Discount,
		Tax:             t.Tax,
		Total:           t.Total,
		CouponCode:      strings.ToUpper(strings.TrimSpace(in.CouponCode)),
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   PaymentPending,
		DeliveryType:    delivery,
		Status:          StatusPending,
		Gift:            in.Gift,
		Notes:           in.Notes,
	}
	if in.UserID != "" {
		uid := in.UserID
		o.UserID = &uid
	}
	return o, nil
}
