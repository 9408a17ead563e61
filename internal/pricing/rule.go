package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidRule is returned when rule parameters are out of range.
	ErrInvalidRule = errors.New("pricing: invalid rule")
	// ErrUnknownOfferType is returned for offer type names that map to no rule.
	ErrUnknownOfferType = errors.New("pricing: unknown offer type")
)

var hundred = decimal.NewFromInt(100)

// Kind tags the variant held by a Rule.
type Kind int

const (
	// KindPercentOff reduces the line total by a percentage.
	KindPercentOff Kind = iota + 1
	// KindBundle charges n-1 unit prices for every complete group of n.
	KindBundle
	// KindFixedPriceForN charges a flat price for every complete group of n.
	KindFixedPriceForN
)

func (k Kind) String() string {
	switch k {
	case KindPercentOff:
		return "percent_off"
	case KindBundle:
		return "bundle"
	case KindFixedPriceForN:
		return "fixed_price_for_n"
	default:
		return "unknown"
	}
}

// Rule is a closed union of discount rules. Only the fields relevant to Kind
// are meaningful; build rules with the constructors below.
type Rule struct {
	Kind    Kind
	N       int
	Percent decimal.Decimal
	Price   decimal.Decimal
}

// PercentOff takes percent/100 of the line total off.
func PercentOff(percent decimal.Decimal) Rule {
	return Rule{Kind: KindPercentOff, Percent: percent}
}

// BundleForN charges for n-1 units out of every complete group of n.
func BundleForN(n int) Rule {
	return Rule{Kind: KindBundle, N: n}
}

// FixedPriceForN charges price for every complete group of n units.
func FixedPriceForN(n int, price decimal.Decimal) Rule {
	return Rule{Kind: KindFixedPriceForN, N: n, Price: price}
}

// ThreeForTwo is BundleForN(3).
func ThreeForTwo() Rule { return BundleForN(3) }

// TwoForAmount is FixedPriceForN(2, price).
func TwoForAmount(price decimal.Decimal) Rule { return FixedPriceForN(2, price) }

// FiveForAmount is FixedPriceForN(5, price).
func FiveForAmount(price decimal.Decimal) Rule { return FixedPriceForN(5, price) }

// Validate checks the parameters of r.
func (r Rule) Validate() error {
	switch r.Kind {
	case KindPercentOff:
		if r.Percent.IsNegative() || r.Percent.GreaterThan(hundred) {
			return fmt.Errorf("%w: percent %s outside [0,100]", ErrInvalidRule, r.Percent)
		}
	case KindBundle:
		if r.N < 2 {
			return fmt.Errorf("%w: bundle size %d below 2", ErrInvalidRule, r.N)
		}
	case KindFixedPriceForN:
		if r.N < 1 {
			return fmt.Errorf("%w: group size %d below 1", ErrInvalidRule, r.N)
		}
		if r.Price.IsNegative() {
			return fmt.Errorf("%w: negative group price %s", ErrInvalidRule, r.Price)
		}
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidRule, int(r.Kind))
	}
	return nil
}

// Description renders the receipt wording for r, e.g. "3 for 2" or "10.0% off".
func (r Rule) Description() string {
	switch r.Kind {
	case KindPercentOff:
		return formatAmount(r.Percent) + "% off"
	case KindBundle:
		return fmt.Sprintf("%d for %d", r.N, r.N-1)
	case KindFixedPriceForN:
		return fmt.Sprintf("%d for %s", r.N, formatAmount(r.Price))
	default:
		return "unknown offer"
	}
}

// formatAmount prints every significant fractional digit of v and at least
// one, so 9 reads "9.0" and 12.25 stays "12.25".
func formatAmount(v decimal.Decimal) string {
	s := v.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// SpecialOfferType names the offers a store can configure.
type SpecialOfferType string

// Offer type names accepted in seed files and by RuleFor.
const (
	TenPercentDiscount SpecialOfferType = "ten_percent_discount"
	ThreeForTwoOffer   SpecialOfferType = "three_for_two"
	TwoForAmountOffer  SpecialOfferType = "two_for_amount"
	FiveForAmountOffer SpecialOfferType = "five_for_amount"
	PercentOffOffer    SpecialOfferType = "percent_off"
	BundleOffer        SpecialOfferType = "bundle"
	FixedPriceOffer    SpecialOfferType = "fixed_price_for_n"
)

// RuleFor builds the rule for an offer type. argument is the percentage for
// percent offers and the group price for fixed-price offers; n is only read
// by the generic bundle and fixed-price types.
func RuleFor(offerType SpecialOfferType, argument decimal.Decimal, n int) (Rule, error) {
	var rule Rule
	switch SpecialOfferType(strings.ToLower(strings.TrimSpace(string(offerType)))) {
	case TenPercentDiscount, PercentOffOffer:
		rule = PercentOff(argument)
	case ThreeForTwoOffer:
		rule = ThreeForTwo()
	case TwoForAmountOffer:
		rule = TwoForAmount(argument)
	case FiveForAmountOffer:
		rule = FiveForAmount(argument)
	case BundleOffer:
		rule = BundleForN(n)
	case FixedPriceOffer:
		rule = FixedPriceForN(n, argument)
	default:
		return Rule{}, fmt.Errorf("%w: %q", ErrUnknownOfferType, offerType)
	}
	if err := rule.Validate(); err != nil {
		return Rule{}, err
	}
	return rule, nil
}
