package cart

import (
	"testing"
	"time"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/stretchr/testify/require"
)

func TestAddMergesIdenticalOptions(t *testing.T) {
	now := time.Now()
	c := &Cart{Owner: "user:u-1"}

	a := c.Add(Line{ProductID: "p-1", Quantity: 1, Addons: []string{"card", "balloon"}}, now)
	b := c.Add(Line{ProductID: "p-1", Quantity: 2, Addons: []string{"balloon", "card"}}, now)
	require.Equal(t, a.ID, b.ID)
	require.Len(t, c.Lines, 1)
	require.Equal(t, 3, c.Lines[0].Quantity)

	c.Add(Line{ProductID: "p-1", Quantity: 1, Addons: []string{"card", "balloon"}, GiftWrap: true}, now)
	c.Add(Line{ProductID: "p-1", Quantity: 1, SelectedSize: "L"}, now)
	require.Len(t, c.Lines, 3)
	require.Equal(t, 5, c.QuantityOf("p-1"))
	require.Equal(t, 0, c.QuantityOf("p-2"))
}

func TestSetQuantityAndRemove(t *testing.T) {
	now := time.Now()
	c := &Cart{}
	l := c.Add(Line{ProductID: "p-1", Quantity: 1}, now)

	require.NoError(t, c.SetQuantity(l.ID, 4, now))
	require.Equal(t, 4, c.Lines[0].Quantity)

	require.NoError(t, c.SetQuantity(l.ID, 0, now))
	require.Empty(t, c.Lines)

	err := c.Remove(l.ID, now)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestItemInputs(t *testing.T) {
	c := &Cart{}
	c.Add(Line{ProductID: "p-1", Quantity: 2, SelectedColor: "red", GiftWrap: true}, time.Now())
	items := c.ItemInputs()
	require.Len(t, items, 1)
	require.Equal(t, "p-1", items[0].ProductID)
	require.Equal(t, 2, items[0].Quantity)
	require.Equal(t, "red", items[0].SelectedColor)
	require.True(t, items[0].GiftWrap)
	require.Equal(t, []string{}, items[0].Addons)
}

func TestOwner(t *testing.T) {
	o, err := Owner("u-1", "s-1")
	require.NoError(t, err)
	require.Equal(t, "user:u-1", o)

	o, err = Owner("", "s-1")
	require.NoError(t, err)
	require.Equal(t, "session:s-1", o)

	_, err = Owner("", "")
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
