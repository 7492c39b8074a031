package reviews

import (
	"time"

	"github.com/ariefcatur/go-giftshop/internal/catalog"
	"github.com/shopspring/decimal"
)

type Review struct {
	ID                 string     `json:"id"`
	ProductID          string     `json:"productId"`
	UserID             string     `json:"userId"`
	UserName           string     `json:"userName"`
	Rating             int        `json:"rating"`
	Title              string     `json:"title"`
	Comment            string     `json:"comment"`
	IsVerifiedPurchase bool       `json:"isVerifiedPurchase"`
	IsApproved         bool       `json:"isApproved"`
	HelpfulCount       int        `json:"helpfulCount"`
	Reply              string     `json:"reply,omitempty"`
	RepliedAt          *time.Time `json:"repliedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type CreateInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Title   string `json:"title" validate:"max=120"`
	Comment string `json:"comment" validate:"max=2000"`
}

type UpdateInput struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Title   *string `json:"title" validate:"omitempty,max=120"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

type Sort string

const (
	SortNewest     Sort = "newest"
	SortHelpful    Sort = "helpful"
	SortRatingHigh Sort = "rating_high"
	SortRatingLow  Sort = "rating_low"
)

func (s Sort) orderBy() string {
	switch s {
	case SortHelpful:
		return "r.helpful_count DESC, r.created_at DESC"
	case SortRatingHigh:
		return "r.rating DESC, r.created_at DESC"
	case SortRatingLow:
		return "r.rating ASC, r.created_at DESC"
	}
	return "r.created_at DESC"
}

type AdminFilter struct {
	ProductID string
	Approved  *bool
}

// Distribution counts approved reviews per star, index 1..5.
type Distribution [6]int

// Summarize computes the product rating from approved review scores:
// the mean rounded half away from zero to one decimal, and the count.
func Summarize(ratings []int) catalog.Rating {
	if len(ratings) == 0 {
		return catalog.Rating{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(ratings)))).Round(1)
	return catalog.Rating{Average: avg.InexactFloat64(), Count: len(ratings)}
}
