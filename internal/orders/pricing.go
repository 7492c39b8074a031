package orders

import "github.com/shopspring/decimal"

type DeliveryType string

const (
	DeliveryStandard DeliveryType = "standard"
	DeliveryExpress  DeliveryType = "express"
	DeliverySameDay  DeliveryType = "same_day"
)

var (
	ExpressShipping       = decimal.NewFromInt(50)
	SameDayShipping       = decimal.NewFromInt(100)
	StandardShipping      = decimal.NewFromInt(30)
	FreeShippingThreshold = decimal.NewFromInt(500)

	// GiftWrapFee is added per wrapped line in the cart display total only.
	GiftWrapFee = decimal.NewFromInt(15)
)

// LineSubtotal is unit price times quantity plus the flat addon surcharge.
// Addons are charged once per line, not per unit.
func LineSubtotal(unitPrice decimal.Decimal, quantity int, addonPrices ...decimal.Decimal) decimal.Decimal {
	total := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	for _, a := range addonPrices {
		total = total.Add(a)
	}
	return total
}

// ShippingCost follows the flat schedule: express and same-day are fixed,
// anything else is free from the threshold upward.
func ShippingCost(d DeliveryType, subtotal decimal.Decimal) decimal.Decimal {
	switch d {
	case DeliveryExpress:
		return ExpressShipping
	case DeliverySameDay:
		return SameDayShipping
	}
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return StandardShipping
}

type Totals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Discount     decimal.Decimal `json:"discount"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
}

// ComputeTotals sums line subtotals and applies shipping. Discount and tax stay zero.
func ComputeTotals(d DeliveryType, lines ...decimal.Decimal) Totals {
	sub := decimal.Zero
	for _, l := range lines {
		sub = sub.Add(l)
	}
	ship := ShippingCost(d, sub)
	return Totals{
		Subtotal:     sub,
		ShippingCost: ship,
		Discount:     decimal.Zero,
		Tax:          decimal.Zero,
		Total:        sub.Add(ship),
	}
}
