// Package receipt models the priced output of a checkout.
package receipt

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/pricing"
)

// Item is one priced, undiscounted line.
type Item struct {
	Product    catalog.Product `json:"product"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// Discount is a reduction granted by an offer. Amount is negative.
type Discount struct {
	Product     catalog.Product `json:"product"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Receipt collects items and discounts in the order they were added.
// Entries are only ever appended.
type Receipt struct {
	items     []Item
	discounts []Discount
}

// New returns an empty receipt.
func New() *Receipt {
	return &Receipt{}
}

// AddProduct appends a priced line.
func (r *Receipt) AddProduct(p catalog.Product, quantity, unitPrice, totalPrice decimal.Decimal) {
	r.items = append(r.items, Item{Product: p, Quantity: quantity, UnitPrice: unitPrice, TotalPrice: totalPrice})
}

// AddDiscount appends a discount.
func (r *Receipt) AddDiscount(d Discount) {
	r.discounts = append(r.discounts, d)
}

// Items returns a copy of the lines.
func (r *Receipt) Items() []Item {
	return append([]Item(nil), r.items...)
}

// Discounts returns a copy of the discounts.
func (r *Receipt) Discounts() []Discount {
	return append([]Discount(nil), r.discounts...)
}

// Summary totals the receipt.
func (r *Receipt) Summary() pricing.Summary {
	lines := make([]decimal.Decimal, 0, len(r.items))
	for _, it := range r.items {
		lines = append(lines, it.TotalPrice)
	}
	amounts := make([]decimal.Decimal, 0, len(r.discounts))
	for _, d := range r.discounts {
		amounts = append(amounts, d.Amount)
	}
	return pricing.Summarize(lines, amounts)
}

// TotalPrice is the sum of line totals plus the (negative) discount amounts.
func (r *Receipt) TotalPrice() decimal.Decimal {
	return r.Summary().Total
}

type receiptJSON struct {
	Items     []Item          `json:"items"`
	Discounts []Discount      `json:"discounts"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discountTotal"`
	Total     decimal.Decimal `json:"total"`
}

// MarshalJSON renders items, discounts and totals.
func (r *Receipt) MarshalJSON() ([]byte, error) {
	s := r.Summary()
	return json.Marshal(receiptJSON{
		Items:     nonNil(r.items),
		Discounts: nonNil(r.discounts),
		Subtotal:  s.Subtotal,
		Discount:  s.Discount,
		Total:     s.Total,
	})
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
