package users

import (
	"time"

	"github.com/shopspring/decimal"
)

type Address struct {
	ID         string `json:"id"`
	Label      string `json:"label" validate:"max=40"`
	FullName   string `json:"fullName" validate:"required,max=120"`
	Phone      string `json:"phone" validate:"required,max=30"`
	City       string `json:"city" validate:"required,max=80"`
	District   string `json:"district" validate:"max=80"`
	Street     string `json:"street" validate:"required,max=200"`
	Building   string `json:"building" validate:"max=80"`
	PostalCode string `json:"postalCode" validate:"max=20"`
	IsDefault  bool   `json:"isDefault"`
}

type User struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	PasswordHash  string          `json:"-"`
	Role          string          `json:"role"`
	Addresses     []Address       `json:"addresses"`
	Wishlist      []string        `json:"wishlist"`
	WalletBalance decimal.Decimal `json:"walletBalance"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type WalletTransaction struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	Amount       decimal.Decimal `json:"amount"`
	Reason       string          `json:"reason"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	CreatedBy    string          `json:"createdBy,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=80"`
	Email    string `json:"email" validate:"required,email,max=160"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Phone    string `json:"phone" validate:"max=30"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProfileInput struct {
	Name      *string    `json:"name" validate:"omitempty,min=2,max=80"`
	Phone     *string    `json:"phone" validate:"omitempty,max=30"`
	Addresses *[]Address `json:"addresses" validate:"omitempty,max=10,dive"`
}

type PasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=128"`
}

type WalletAdjustInput struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" validate:"required,max=200"`
}

type ListFilter struct {
	Search string
	Role   string
	Active *bool
}

// normalizeAddresses assigns ids and leaves exactly one default when any exist.
func normalizeAddresses(in []Address, newID func() string) []Address {
	out := make([]Address, len(in))
	seenDefault := false
	for i, a := range in {
		if a.ID == "" {
			a.ID = newID()
		}
		if a.IsDefault && seenDefault {
			a.IsDefault = false
		}
		seenDefault = seenDefault || a.IsDefault
		out[i] = a
	}
	if !seenDefault && len(out) > 0 {
		out[0].IsDefault = true
	}
	return out
}
