// Package cart implements the line-item state machine behind a customer's
// cart: merge-on-add identity, quantity rules, and derived totals.
package cart

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type Line struct {
	ID             int64           `json:"id"`
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name"`
	Image          string          `json:"image,omitempty"`
	Size           string          `json:"size,omitempty"`
	Customizations []string        `json:"customizations,omitempty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int             `json:"quantity"`
}

// Cart holds the full line set plus the counter that hands out line ids.
// The counter is monotonic and never derived from the clock, so rapid
// successive adds cannot collide.
type Cart struct {
	Lines    []Line `json:"lines"`
	NextLine int64  `json:"next_line"`
	Promo    string `json:"promo,omitempty"`
	PromoPct int    `json:"promo_pct,omitempty"`
}

type AddRequest struct {
	ProductID      string
	Name           string
	Image          string
	Size           string
	Customizations []string
	UnitPrice      decimal.Decimal
	Quantity       int
}

func New() *Cart {
	return &Cart{NextLine: 1}
}

// identityKey builds the merge key for a line. Customizations are sorted
// first so ["extra cheese","olives"] and ["olives","extra cheese"] land on
// the same line.
func identityKey(productID, size string, customizations []string) string {
	sorted := append([]string(nil), customizations...)
	sort.Strings(sorted)
	return productID + "\x1f" + size + "\x1f" + strings.Join(sorted, "\x1f")
}

// Add merges into an existing line when the identity matches, otherwise
// appends a new line. A non-positive quantity means one.
func (c *Cart) Add(req AddRequest) Line {
	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}

	key := identityKey(req.ProductID, req.Size, req.Customizations)
	for i := range c.Lines {
		l := &c.Lines[i]
		if identityKey(l.ProductID, l.Size, l.Customizations) == key {
			l.Quantity += qty
			return *l
		}
	}

	if c.NextLine < 1 {
		c.NextLine = 1
	}
	line := Line{
		ID:             c.NextLine,
		ProductID:      req.ProductID,
		Name:           req.Name,
		Image:          req.Image,
		Size:           req.Size,
		Customizations: req.Customizations,
		UnitPrice:      req.UnitPrice,
		Quantity:       qty,
	}
	c.NextLine++
	c.Lines = append(c.Lines, line)
	return line
}

// Remove drops the line with the given id. Unknown ids are a no-op.
func (c *Cart) Remove(lineID int64) {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// UpdateQty sets a line's quantity, floored to 1. Unknown ids are a no-op.
func (c *Cart) UpdateQty(lineID int64, qty int) {
	if qty < 1 {
		qty = 1
	}
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines[i].Quantity = qty
			return
		}
	}
}

// Clear empties the cart but keeps the line counter, so ids stay unique
// across the life of the cart.
func (c *Cart) Clear() {
	c.Lines = nil
	c.Promo = ""
	c.PromoPct = 0
}

func (c *Cart) ApplyPromo(code string, percent int) {
	c.Promo = code
	c.PromoPct = percent
}

// Pricing carries the configuration fetched from the restaurant settings.
type Pricing struct {
	TaxRate     int
	DeliveryFee decimal.Decimal
}

type Totals struct {
	ItemCount   int             `json:"item_count"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}

// Totals recomputes every derived value from the current lines:
// subtotal = sum of price*qty, tax = round(subtotal*rate%), discount =
// round(subtotal*promo%), total = subtotal + tax + fee - discount.
func (c *Cart) Totals(pricing Pricing) Totals {
	t := Totals{
		Subtotal:    decimal.Zero,
		Tax:         decimal.Zero,
		DeliveryFee: pricing.DeliveryFee,
		Discount:    decimal.Zero,
	}

	for _, l := range c.Lines {
		t.ItemCount += l.Quantity
		t.Subtotal = t.Subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	t.Tax = percentOf(t.Subtotal, pricing.TaxRate)
	if c.PromoPct > 0 {
		t.Discount = percentOf(t.Subtotal, c.PromoPct)
	}
	t.Total = t.Subtotal.Add(t.Tax).Add(t.DeliveryFee).Sub(t.Discount)
	return t
}

func percentOf(amount decimal.Decimal, percent int) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(percent))).Div(decimal.NewFromInt(100)).Round(0)
}
