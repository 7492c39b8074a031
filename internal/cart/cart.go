// Package cart keeps shopping carts server side, keyed by user or guest session.
package cart

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/orders"
)

type Line struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"productId"`
	Quantity      int       `json:"quantity"`
	SelectedSize  string    `json:"selectedSize,omitempty"`
	SelectedColor string    `json:"selectedColor,omitempty"`
	Addons        []string  `json:"addons"`
	GiftWrap      bool      `json:"giftWrap"`
	AddedAt       time.Time `json:"addedAt"`
}

type Cart struct {
	Owner     string    `json:"owner"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// lineID identifies a product with one option set, so identical adds merge.
func lineID(productID, size, color string, addons []string, giftWrap bool) string {
	sorted := append([]string(nil), addons...)
	sort.Strings(sorted)
	h := sha1.New()
	h.Write([]byte(strings.Join([]string{productID, size, color, strings.Join(sorted, ","), strconv.FormatBool(giftWrap)}, "|")))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func (c *Cart) find(id string) int {
	for i, l := range c.Lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Add merges into an existing line with the same options or appends a new one.
func (c *Cart) Add(l Line, now time.Time) Line {
	if l.Addons == nil {
		l.Addons = []string{}
	}
	l.ID = lineID(l.ProductID, l.SelectedSize, l.SelectedColor, l.Addons, l.GiftWrap)
	c.UpdatedAt = now
	if i := c.find(l.ID); i >= 0 {
		c.Lines[i].Quantity += l.Quantity
		return c.Lines[i]
	}
	l.AddedAt = now
	c.Lines = append(c.Lines, l)
	return l
}

// SetQuantity changes a line's quantity; zero or less removes it.
func (c *Cart) SetQuantity(id string, qty int, now time.Time) error {
	i := c.find(id)
	if i < 0 {
		return apperr.NotFound(apperr.MsgCartNotFound)
	}
	if qty <= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	} else {
		c.Lines[i].Quantity = qty
	}
	c.UpdatedAt = now
	return nil
}

func (c *Cart) Remove(id string, now time.Time) error {
	return c.SetQuantity(id, 0, now)
}

// QuantityOf sums the quantity of a product across all its option sets.
func (c *Cart) QuantityOf(productID string) int {
	n := 0
	for _, l := range c.Lines {
		if l.ProductID == productID {
			n += l.Quantity
		}
	}
	return n
}

// ItemInputs converts the cart into checkout lines.
func (c *Cart) ItemInputs() []orders.ItemInput {
	out := make([]orders.ItemInput, 0, len(c.Lines))
	for _, l := range c.Lines {
		out = append(out, orders.ItemInput{
			ProductID:     l.ProductID,
			Quantity:      l.Quantity,
			SelectedSize:  l.SelectedSize,
			SelectedColor: l.SelectedColor,
			Addons:        l.Addons,
			GiftWrap:      l.GiftWrap,
		})
	}
	return out
}
