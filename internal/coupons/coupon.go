// Package coupons administers discount codes. Codes are stored and validated
// but checkout records the code without applying a discount.
package coupons

import (
	"strings"
	"time"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	Percentage DiscountType = "percentage"
	Fixed      DiscountType = "fixed"
)

type Coupon struct {
	ID               string              `json:"id"`
	Code             string              `json:"code"`
	Description      string              `json:"description"`
	DiscountType     DiscountType        `json:"discountType"`
	Value            decimal.Decimal     `json:"value"`
	MinPurchase      decimal.Decimal     `json:"minPurchase"`
	MaxDiscount      decimal.NullDecimal `json:"maxDiscount"`
	StartsAt         *time.Time          `json:"startsAt"`
	EndsAt           *time.Time          `json:"endsAt"`
	UsageLimit       int                 `json:"usageLimit"`
	PerUserLimit     int                 `json:"perUserLimit"`
	UsedCount        int                 `json:"usedCount"`
	Categories       []string            `json:"categories"`
	Products         []string            `json:"products"`
	ExcludedProducts []string            `json:"excludedProducts"`
	IsActive         bool                `json:"isActive"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// Active reports whether the coupon could be redeemed at now.
func (c *Coupon) Active(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false
	}
	if c.EndsAt != nil && !now.Before(*c.EndsAt) {
		return false
	}
	return c.UsageLimit == 0 || c.UsedCount < c.UsageLimit
}

type Input struct {
	Code             string           `json:"code" validate:"required,min=3,max=40,alphanum"`
	Description      string           `json:"description" validate:"max=500"`
	DiscountType     DiscountType     `json:"discountType" validate:"required,oneof=percentage fixed"`
	Value            decimal.Decimal  `json:"value"`
	MinPurchase      decimal.Decimal  `json:"minPurchase"`
	MaxDiscount      *decimal.Decimal `json:"maxDiscount"`
	StartsAt         *time.Time       `json:"startsAt"`
	EndsAt           *time.Time       `json:"endsAt"`
	UsageLimit       int              `json:"usageLimit" validate:"gte=0"`
	PerUserLimit     int              `json:"perUserLimit" validate:"gte=0"`
	Categories       []string         `json:"categories"`
	Products         []string         `json:"products"`
	ExcludedProducts []string         `json:"excludedProducts"`
	IsActive         *bool            `json:"isActive"`
}

// apply checks business rules the struct tags cannot express and copies in onto c.
func (in Input) apply(c *Coupon) error {
	fields := map[string]string{}
	if !in.Value.IsPositive() {
		fields["value"] = "القيمة يجب أن تكون أكبر من صفر"
	}
	if in.DiscountType == Percentage && in.Value.GreaterThan(decimal.NewFromInt(100)) {
		fields["value"] = "نسبة الخصم لا تتجاوز 100"
	}
	if in.MinPurchase.IsNegative() {
		fields["minPurchase"] = "قيمة غير صالحة"
	}
	if in.MaxDiscount != nil && !in.MaxDiscount.IsPositive() {
		fields["maxDiscount"] = "قيمة غير صالحة"
	}
	if in.StartsAt != nil && in.EndsAt != nil && !in.EndsAt.After(*in.StartsAt) {
		fields["endsAt"] = "تاريخ الانتهاء يجب أن يكون بعد تاريخ البدء"
	}
	if len(fields) > 0 {
		return apperr.Validation(apperr.MsgInvalidInput, fields)
	}

	c.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	c.Description = in.Description
	c.DiscountType = in.DiscountType
	c.Value = in.Value
	c.MinPurchase = in.MinPurchase
	c.MaxDiscount = decimal.NullDecimal{}
	if in.MaxDiscount != nil {
		c.MaxDiscount = decimal.NewNullDecimal(*in.MaxDiscount)
	}
	c.StartsAt = in.StartsAt
	c.EndsAt = in.EndsAt
	c.UsageLimit = in.UsageLimit
	c.PerUserLimit = in.PerUserLimit
	c.Categories = orEmpty(in.Categories)
	c.Products = orEmpty(in.Products)
	c.ExcludedProducts = orEmpty(in.ExcludedProducts)
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
