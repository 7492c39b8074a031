package orders

import (
	"time"

	"github.com/ariefcatur/go-giftshop/internal/catalog"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentCard           PaymentMethod = "card"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentWallet         PaymentMethod = "wallet"
)

type Address struct {
	FullName   string `json:"fullName" validate:"required,max=120"`
	Phone      string `json:"phone" validate:"required,max=30"`
	City       string `json:"city" validate:"required,max=80"`
	District   string `json:"district" validate:"max=80"`
	Street     string `json:"street" validate:"required,max=200"`
	Building   string `json:"building" validate:"max=80"`
	PostalCode string `json:"postalCode" validate:"max=20"`
	Notes      string `json:"notes" validate:"max=500"`
}

type Gift struct {
	IsGift        bool   `json:"isGift"`
	RecipientName string `json:"recipientName" validate:"max=120"`
	Message       string `json:"message" validate:"max=500"`
	HidePrice     bool   `json:"hidePrice"`
	DeliveryDate  string `json:"deliveryDate" validate:"omitempty,datetime=2006-01-02"`
}

// Item is a line snapshot frozen at order time.
type Item struct {
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	SelectedSize  string          `json:"selectedSize,omitempty"`
	SelectedColor string          `json:"selectedColor,omitempty"`
	Addons        []catalog.Addon `json:"addons"`
	GiftWrap      bool            `json:"giftWrap"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

type StatusEntry struct {
	Status    Status    `json:"status"`
	Note      string    `json:"note,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
	Date      time.Time `json:"date"`
}

type Order struct {
	ID              string          `json:"id"`
	Number          string          `json:"orderNumber"`
	UserID          *string         `json:"userId"`
	GuestEmail      string          `json:"guestEmail,omitempty"`
	GuestPhone      string          `json:"guestPhone,omitempty"`
	Items           []Item          `json:"items"`
	ShippingAddress Address         `json:"shippingAddress"`
	BillingAddress  *Address        `json:"billingAddress,omitempty"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingCost    decimal.Decimal `json:"shippingCost"`
	Discount        decimal.Decimal `json:"discount"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	CouponCode      string          `json:"couponCode,omitempty"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	DeliveryType    DeliveryType    `json:"deliveryType"`
	Status          Status          `json:"status"`
	StatusHistory   []StatusEntry   `json:"statusHistory"`
	Gift            *Gift           `json:"gift,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (o *Order) OwnedBy(userID string) bool {
	return o.UserID != nil && *o.UserID == userID
}

func (o *Order) ProductIDs() []string {
	out := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, it.ProductID)
	}
	return out
}

// Tracking is the public view returned by order-number lookups.
type Tracking struct {
	Number        string          `json:"orderNumber"`
	Status        Status          `json:"status"`
	DeliveryType  DeliveryType    `json:"deliveryType"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"itemCount"`
	StatusHistory []StatusEntry   `json:"statusHistory"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (o *Order) Tracking() Tracking {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return Tracking{
		Number:        o.Number,
		Status:        o.Status,
		DeliveryType:  o.DeliveryType,
		Total:         o.Total,
		ItemCount:     n,
		StatusHistory: o.StatusHistory,
		CreatedAt:     o.CreatedAt,
	}
}

type ItemInput struct {
	ProductID     string   `json:"productId" validate:"required"`
	Quantity      int      `json:"quantity" validate:"required,gte=1,lte=1000"`
	SelectedSize  string   `json:"selectedSize" validate:"max=60"`
	SelectedColor string   `json:"selectedColor" validate:"max=60"`
	Addons        []string `json:"addons" validate:"max=20,dive,required"`
	GiftWrap      bool     `json:"giftWrap"`
}

// PlaceInput is a checkout request after boundary validation.
type PlaceInput struct {
	Items           []ItemInput   `json:"items" validate:"required,min=1,max=50,dive"`
	ShippingAddress Address       `json:"shippingAddress" validate:"required"`
	BillingAddress  *Address      `json:"billingAddress" validate:"omitempty"`
	PaymentMethod   PaymentMethod `json:"paymentMethod" validate:"required,oneof=cash_on_delivery card bank_transfer wallet"`
	DeliveryType    DeliveryType  `json:"deliveryType" validate:"omitempty,oneof=standard express same_day"`
	CouponCode      string        `json:"couponCode" validate:"max=40"`
	Gift            *Gift         `json:"gift" validate:"omitempty"`
	Notes           string        `json:"notes" validate:"max=1000"`
	GuestEmail      string        `json:"guestEmail" validate:"omitempty,email"`
	GuestPhone      string        `json:"guestPhone" validate:"max=30"`

	// Set from the authenticated caller, never from the body.
	UserID string `json:"-"`
	// Owner-scoped Idempotency-Key; at most one order exists per value.
	IdempotencyKey string `json:"-"`
}

type ListFilter struct {
	UserID string
	Status string
	Search string
}
