package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/shopspring/decimal"
)

type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortRating    Sort = "rating"
	SortPopular   Sort = "popular"
)

var sortClauses = map[Sort]string{
	SortNewest:    "p.created_at DESC, p.id",
	SortPriceAsc:  "p.price ASC, p.id",
	SortPriceDesc: "p.price DESC, p.id",
	SortRating:    "p.rating_average DESC, p.rating_count DESC, p.id",
	SortPopular:   "p.sales_count DESC, p.id",
}

// ListFilter is the product listing query after parsing.
type ListFilter struct {
	Category  string
	Occasion  string
	Recipient string
	Tag       string
	Search    string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	Featured  *bool
	InStock   bool
	// IncludeInactive is set by the admin listing only.
	IncludeInactive bool
	ExcludeID       string
	Sort            Sort
	paging.Params
}

// ParseListFilter maps query parameters onto a filter. Field errors are keyed by parameter name.
func ParseListFilter(q url.Values) (ListFilter, map[string]string) {
	f := ListFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		Occasion:  strings.TrimSpace(q.Get("occasion")),
		Recipient: strings.TrimSpace(q.Get("recipient")),
		Tag:       strings.TrimSpace(q.Get("tag")),
		Search:    strings.TrimSpace(q.Get("search")),
		Sort:      SortNewest,
		Params:    paging.Parse(q, paging.DefaultLimit),
	}
	errs := map[string]string{}

	if f.Occasion != "" && !ValidOccasion(f.Occasion) {
		errs["occasion"] = "مناسبة غير معروفة"
	}
	if f.Recipient != "" && !ValidRecipient(f.Recipient) {
		errs["recipient"] = "فئة مستلم غير معروفة"
	}
	for _, k := range []string{"minPrice", "maxPrice"} {
		raw := q.Get(k)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			errs[k] = "قيمة السعر غير صالحة"
			continue
		}
		if k == "minPrice" {
			f.MinPrice = &d
		} else {
			f.MaxPrice = &d
		}
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		errs["minPrice"] = "الحد الأدنى للسعر أكبر من الحد الأعلى"
	}
	if raw := q.Get("featured"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs["featured"] = "قيمة غير صالحة"
		} else {
			f.Featured = &b
		}
	}
	if raw := q.Get("inStock"); raw != "" {
		f.InStock, _ = strconv.ParseBool(raw)
	}
	if raw := q.Get("sort"); raw != "" {
		if _, ok := sortClauses[Sort(raw)]; !ok {
			errs["sort"] = "طريقة ترتيب غير معروفة"
		} else {
			f.Sort = Sort(raw)
		}
	}
	if len(errs) == 0 {
		errs = nil
	}
	return f, errs
}

// where renders the filter as a SQL predicate over products aliased p.
func (f ListFilter) where() (string, []any) {
	var conds []string
	var args []any
	add := func(format string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	if !f.IncludeInactive {
		conds = append(conds, "p.is_active")
	}
	if f.Category != "" {
		add("p.category_id IN (SELECT id FROM categories WHERE id = $%[1]d OR slug = $%[1]d)", f.Category)
	}
	if f.Occasion != "" {
		add("$%d = ANY(p.occasions)", f.Occasion)
	}
	if f.Recipient != "" {
		add("$%d = ANY(p.recipients)", f.Recipient)
	}
	if f.Tag != "" {
		add("$%d = ANY(p.tags)", f.Tag)
	}
	if f.MinPrice != nil {
		add("p.price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("p.price <= $%d", *f.MaxPrice)
	}
	if f.Featured != nil {
		add("p.is_featured = $%d", *f.Featured)
	}
	if f.InStock {
		conds = append(conds, "p.stock > 0")
	}
	if f.ExcludeID != "" {
		add("p.id <> $%d", f.ExcludeID)
	}
	if f.Search != "" {
		add("(to_tsvector('simple', p.name || ' ' || p.description) @@ plainto_tsquery('simple', $%[1]d)"+
			" OR p.name ILIKE '%%' || $%[1]d || '%%')", f.Search)
	}

	if len(conds) == 0 {
		return "TRUE", args
	}
	return strings.Join(conds, " AND "), args
}

func (f ListFilter) orderBy() string {
	if c, ok := sortClauses[f.Sort]; ok {
		return c
	}
	return sortClauses[SortNewest]
}
