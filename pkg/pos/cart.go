package pos

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/sablepay/coffee-pos/pkg/sablepay"
)

var ErrUnknownItem = errors.New("item is not on the menu")

type cartLine struct {
	item     MenuItem
	quantity uint32
}

// Cart is the set of selected menu items. Lines keep the order in which they
// were added. A Cart isn't safe for concurrent use.
type Cart struct {
	lines []*cartLine
}

// NewCart returns an empty Cart.
func NewCart() *Cart {
	return &Cart{}
}

// Toggle adds an item with quantity 1, or removes it if it's already in the
// cart. It returns whether the item is selected afterwards.
func (c *Cart) Toggle(name string) (bool, error) {
	item, ok := FindMenuItem(name)
	if !ok {
		return false, ErrUnknownItem
	}

	for i, line := range c.lines {
		if line.item.Name == item.Name {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return false, nil
		}
	}

	c.lines = append(c.lines, &cartLine{item: item, quantity: 1})
	return true, nil
}

// Has returns whether the item is in the cart.
func (c *Cart) Has(name string) bool {
	item, ok := FindMenuItem(name)
	if !ok {
		return false
	}

	for _, line := range c.lines {
		if line.item.Name == item.Name {
			return true
		}
	}
	return false
}

// Total is the sum of price times quantity over every line.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.item.Price.Mul(decimal.NewFromInt(int64(line.quantity))))
	}
	return total
}

// Count returns the number of distinct items.
func (c *Cart) Count() int {
	return len(c.lines)
}

// IsEmpty returns whether nothing is selected.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Items returns the cart as payment line items.
func (c *Cart) Items() []sablepay.PaymentItem {
	res := make([]sablepay.PaymentItem, 0, len(c.lines))
	for _, line := range c.lines {
		res = append(res, sablepay.PaymentItem{
			Name:     line.item.Name,
			Quantity: line.quantity,
			Amount:   line.item.Price,
		})
	}
	return res
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}
