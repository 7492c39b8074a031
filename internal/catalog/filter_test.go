package catalog

import (
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return q
}

func TestParseListFilterDefaults(t *testing.T) {
	f, errs := ParseListFilter(url.Values{})
	require.Nil(t, errs)
	require.Equal(t, SortNewest, f.Sort)
	require.Equal(t, 1, f.Page)
	require.Equal(t, 12, f.Limit)

	where, args := f.where()
	require.Equal(t, "p.is_active", where)
	require.Empty(t, args)
	require.Equal(t, "p.created_at DESC, p.id", f.orderBy())
}

func TestParseListFilterAll(t *testing.T) {
	f, errs := ParseListFilter(mustQuery(t,
		"category=flowers&occasion=birthday&recipient=her&minPrice=10&maxPrice=99.5&search=rose&sort=price_desc&page=2&limit=5&inStock=true&featured=true"))
	require.Nil(t, errs)
	require.Equal(t, SortPriceDesc, f.Sort)
	require.True(t, f.MinPrice.Equal(decimal.NewFromInt(10)))
	require.Equal(t, 5, f.Offset())

	where, args := f.where()
	require.Contains(t, where, "slug = $1")
	require.Contains(t, where, "$2 = ANY(p.occasions)")
	require.Contains(t, where, "$3 = ANY(p.recipients)")
	require.Contains(t, where, "p.price >= $4")
	require.Contains(t, where, "p.price <= $5")
	require.Contains(t, where, "p.is_featured = $6")
	require.Contains(t, where, "p.stock > 0")
	require.Contains(t, where, "plainto_tsquery('simple', $7)")
	require.Contains(t, where, "ILIKE '%' || $7 || '%'")
	require.Len(t, args, 7)
	require.Equal(t, "p.price DESC, p.id", f.orderBy())
}

func TestParseListFilterErrors(t *testing.T) {
	_, errs := ParseListFilter(mustQuery(t, "occasion=halloween&recipient=cats&minPrice=abc&sort=random&featured=maybe"))
	require.Contains(t, errs, "occasion")
	require.Contains(t, errs, "recipient")
	require.Contains(t, errs, "minPrice")
	require.Contains(t, errs, "sort")
	require.Contains(t, errs, "featured")

	_, errs = ParseListFilter(mustQuery(t, "minPrice=50&maxPrice=10"))
	require.Contains(t, errs, "minPrice")
}

func TestWhereIncludesInactiveForAdmin(t *testing.T) {
	where, _ := ListFilter{IncludeInactive: true}.where()
	require.Equal(t, "TRUE", where)
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "red-rose-bouquet", Slugify("  Red Rose -- Bouquet! "))
	require.Equal(t, "هدية-عيد-ميلاد", Slugify("هدية عيد ميلاد"))
	require.Equal(t, "", Slugify("!!!"))
}
