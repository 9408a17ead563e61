// Package pricing holds the money arithmetic of the checkout: discount rules
// and the line/receipt summary. Nothing here rounds; rounding is left to
// presentation.
package pricing

import "github.com/shopspring/decimal"

// Adjustment is the outcome of applying a rule to one line.
type Adjustment struct {
	Description string
	// Amount is never positive.
	Amount decimal.Decimal
}

// LineTotal returns quantity * unitPrice.
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice)
}

// Apply computes the discount r grants on quantity units priced at unitPrice.
// It reports false when the rule yields no reduction, for example when the
// quantity does not reach one complete group.
func Apply(r Rule, quantity, unitPrice decimal.Decimal) (Adjustment, bool) {
	before := LineTotal(quantity, unitPrice)
	var amount decimal.Decimal
	switch r.Kind {
	case KindPercentOff:
		amount = before.Mul(r.Percent).Shift(-2).Neg()
	case KindBundle:
		bundles, remainder, ok := groups(quantity, r.N)
		if !ok {
			return Adjustment{}, false
		}
		paid := bundles.Mul(decimal.NewFromInt(int64(r.N - 1))).Mul(unitPrice)
		amount = paid.Add(remainder.Mul(unitPrice)).Sub(before)
	case KindFixedPriceForN:
		bundles, remainder, ok := groups(quantity, r.N)
		if !ok {
			return Adjustment{}, false
		}
		amount = bundles.Mul(r.Price).Add(remainder.Mul(unitPrice)).Sub(before)
	default:
		return Adjustment{}, false
	}
	// A group price above the regular price never turns into a surcharge.
	if !amount.IsNegative() {
		return Adjustment{}, false
	}
	return Adjustment{Description: r.Description(), Amount: amount}, true
}

// groups splits quantity into complete groups of n and the remainder, which
// keeps any fractional part of a weighed quantity.
func groups(quantity decimal.Decimal, n int) (bundles, remainder decimal.Decimal, ok bool) {
	if n <= 0 || !quantity.IsPositive() {
		return decimal.Zero, decimal.Zero, false
	}
	// QuoRem at precision 0 is an exact integer division; Div would round
	// 2.99999999999999999/3 up to 1 before any Floor.
	bundles, remainder = quantity.QuoRem(decimal.NewFromInt(int64(n)), 0)
	if bundles.IsZero() {
		return decimal.Zero, decimal.Zero, false
	}
	return bundles, remainder, true
}

// Summary aggregates a priced receipt.
type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Summarize adds line totals and discount amounts. Discount amounts are
// negative, so Total is Subtotal plus Discount.
func Summarize(lineTotals, discounts []decimal.Decimal) Summary {
	subtotal := decimal.Zero
	for _, t := range lineTotals {
		subtotal = subtotal.Add(t)
	}
	discount := decimal.Zero
	for _, d := range discounts {
		discount = discount.Add(d)
	}
	return Summary{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Add(discount),
	}
}
