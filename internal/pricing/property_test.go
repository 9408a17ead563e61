package pricing

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func cents(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}

func discountedTotal(r Rule, quantity, unitPrice decimal.Decimal) decimal.Decimal {
	total := LineTotal(quantity, unitPrice)
	if adj, ok := Apply(r, quantity, unitPrice); ok {
		total = total.Add(adj.Amount)
	}
	return total
}

// TestDiscountProperties checks the invariants shared by every rule.
// Property: -lineTotal <= amount < 0 whenever a discount is granted.
func TestDiscountProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	rules := gen.OneConstOf(
		PercentOff(decimal.NewFromInt(10)),
		PercentOff(decimal.NewFromInt(100)),
		ThreeForTwo(),
		BundleForN(4),
		TwoForAmount(cents(124)),
		FiveForAmount(cents(699)),
	)

	properties.Property("discounts never exceed the line total and never surcharge", prop.ForAll(
		func(r Rule, qty int64, priceCents int64) bool {
			quantity := decimal.NewFromInt(qty)
			unitPrice := cents(priceCents)
			adj, ok := Apply(r, quantity, unitPrice)
			if !ok {
				return true
			}
			before := LineTotal(quantity, unitPrice)
			return adj.Amount.IsNegative() && adj.Amount.GreaterThanOrEqual(before.Neg())
		},
		rules,
		gen.Int64Range(0, 40),
		gen.Int64Range(1, 10_000),
	))

	properties.Property("apply is deterministic", prop.ForAll(
		func(r Rule, qty int64, priceCents int64) bool {
			quantity := decimal.NewFromInt(qty)
			unitPrice := cents(priceCents)
			a1, ok1 := Apply(r, quantity, unitPrice)
			a2, ok2 := Apply(r, quantity, unitPrice)
			return ok1 == ok2 && a1.Amount.Equal(a2.Amount) && a1.Description == a2.Description
		},
		rules,
		gen.Int64Range(0, 40),
		gen.Int64Range(1, 10_000),
	))

	properties.TestingRun(t)
}

// TestBundleCompletionNeverCostsMore checks that topping a partial bundle up
// to a full one is never more expensive.
// Property: total(k*n) <= total(k*n - 1) under BundleForN(n).
func TestBundleCompletionNeverCostsMore(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("buying a full bundle costs no more than one unit less", prop.ForAll(
		func(n int, bundles int64, priceCents int64) bool {
			rule := BundleForN(n)
			unitPrice := cents(priceCents)
			full := decimal.NewFromInt(bundles * int64(n))
			short := full.Sub(decimal.NewFromInt(1))
			return discountedTotal(rule, full, unitPrice).LessThanOrEqual(discountedTotal(rule, short, unitPrice))
		},
		gen.IntRange(2, 6),
		gen.Int64Range(1, 10),
		gen.Int64Range(1, 10_000),
	))

	properties.TestingRun(t)
}
