package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Occasion string

const (
	OccasionBirthday    Occasion = "birthday"
	OccasionWedding     Occasion = "wedding"
	OccasionAnniversary Occasion = "anniversary"
	OccasionGraduation  Occasion = "graduation"
	OccasionNewBaby     Occasion = "new_baby"
	OccasionEid         Occasion = "eid"
	OccasionRamadan     Occasion = "ramadan"
	OccasionMothersDay  Occasion = "mothers_day"
	OccasionValentine   Occasion = "valentine"
	OccasionThankYou    Occasion = "thank_you"
	OccasionGetWell     Occasion = "get_well"
	OccasionOther       Occasion = "other"
)

var Occasions = []Occasion{
	OccasionBirthday, OccasionWedding, OccasionAnniversary, OccasionGraduation,
	OccasionNewBaby, OccasionEid, OccasionRamadan, OccasionMothersDay,
	OccasionValentine, OccasionThankYou, OccasionGetWell, OccasionOther,
}

type Recipient string

const (
	RecipientHim       Recipient = "him"
	RecipientHer       Recipient = "her"
	RecipientKids      Recipient = "kids"
	RecipientParents   Recipient = "parents"
	RecipientFriends   Recipient = "friends"
	RecipientColleague Recipient = "colleague"
	RecipientEveryone  Recipient = "everyone"
)

var Recipients = []Recipient{
	RecipientHim, RecipientHer, RecipientKids, RecipientParents,
	RecipientFriends, RecipientColleague, RecipientEveryone,
}

func ValidOccasion(s string) bool {
	for _, o := range Occasions {
		if string(o) == s {
			return true
		}
	}
	return false
}

func ValidRecipient(s string) bool {
	for _, r := range Recipients {
		if string(r) == s {
			return true
		}
	}
	return false
}

type Category struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Image        string    `json:"image"`
	ParentID     *string   `json:"parentId"`
	DisplayOrder int       `json:"displayOrder"`
	IsActive     bool      `json:"isActive"`
	ProductCount int       `json:"productCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

type Addon struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Product struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price"`
	OldPrice    decimal.NullDecimal `json:"oldPrice"`
	Stock       int                 `json:"stock"`
	CategoryID  string              `json:"categoryId"`
	Images      []string            `json:"images"`
	Tags        []string            `json:"tags"`
	Occasions   []string            `json:"occasions"`
	Recipients  []string            `json:"recipients"`
	Sizes       []string            `json:"sizes"`
	Colors      []Color             `json:"colors"`
	Addons      []Addon             `json:"addons"`
	IsFeatured  bool                `json:"isFeatured"`
	IsActive    bool                `json:"isActive"`
	Rating      Rating              `json:"rating"`
	SalesCount  int                 `json:"salesCount"`
	ViewCount   int                 `json:"viewCount"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// AddonByName returns the product's addon with the given name.
func (p *Product) AddonByName(name string) (Addon, bool) {
	for _, a := range p.Addons {
		if a.Name == name {
			return a, true
		}
	}
	return Addon{}, false
}

func (p *Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

func (p *Product) HasColor(color string) bool {
	for _, c := range p.Colors {
		if c.Name == color {
			return true
		}
	}
	return false
}

// MainImage is the first image, used for order and cart snapshots.
func (p *Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// ProductInput carries the writable product fields for admin create and update.
type ProductInput struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Slug        string           `json:"slug" validate:"omitempty,max=200"`
	Description string           `json:"description" validate:"max=5000"`
	Price       decimal.Decimal  `json:"price"`
	OldPrice    *decimal.Decimal `json:"oldPrice"`
	Stock       int              `json:"stock" validate:"gte=0"`
	CategoryID  string           `json:"categoryId" validate:"required"`
	Images      []string         `json:"images"`
	Tags        []string         `json:"tags"`
	Occasions   []string         `json:"occasions"`
	Recipients  []string         `json:"recipients"`
	Sizes       []string         `json:"sizes"`
	Colors      []Color          `json:"colors" validate:"dive"`
	Addons      []Addon          `json:"addons" validate:"dive"`
	IsFeatured  bool             `json:"isFeatured"`
	IsActive    *bool            `json:"isActive"`
}

type CategoryInput struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Slug         string  `json:"slug" validate:"omitempty,max=120"`
	Description  string  `json:"description" validate:"max=2000"`
	Image        string  `json:"image"`
	ParentID     *string `json:"parentId"`
	DisplayOrder int     `json:"displayOrder"`
	IsActive     *bool   `json:"isActive"`
}
