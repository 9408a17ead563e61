// Package cart collects the products a shopper brings to the till.
package cart

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/catalog"
)

var (
	// ErrInvalidQuantity is returned for negative quantities.
	ErrInvalidQuantity = errors.New("cart: quantity must not be negative")
	// ErrQuantityLimit is returned when a quantity, or the running total it
	// would produce, falls outside the cart Limits.
	ErrQuantityLimit = errors.New("cart: quantity outside limits")
)

// maxQuantityDigits bounds the digit count and exponent a quantity may carry
// before any arithmetic touches it. A literal like 1e40000000 is tiny on the
// wire but expands to millions of digits once rescaled.
const maxQuantityDigits = 32

// Limits bounds the quantity a cart holds per product.
type Limits struct {
	MaxQuantity       decimal.Decimal
	MaxFractionDigits int32
}

// DefaultLimits allows up to 10000 units per product, weighed to the gram.
var DefaultLimits = Limits{MaxQuantity: decimal.NewFromInt(10_000), MaxFractionDigits: 3}

func (l Limits) orDefault() Limits {
	if !l.MaxQuantity.IsPositive() || l.MaxFractionDigits < 0 {
		return DefaultLimits
	}
	return l
}

// Check reports whether q is an acceptable quantity under l.
func (l Limits) Check(q decimal.Decimal) error {
	l = l.orDefault()
	exp := q.Exponent()
	if q.NumDigits() > maxQuantityDigits || exp > maxQuantityDigits || exp < -maxQuantityDigits {
		return fmt.Errorf("%w: %d digits with exponent %d", ErrQuantityLimit, q.NumDigits(), exp)
	}
	if q.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidQuantity, q)
	}
	if q.GreaterThan(l.MaxQuantity) {
		return fmt.Errorf("%w: %s above %s", ErrQuantityLimit, q, l.MaxQuantity)
	}
	if !q.Equal(q.Truncate(l.MaxFractionDigits)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrQuantityLimit, q, l.MaxFractionDigits)
	}
	return nil
}

// Line is one product with its accumulated quantity.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Cart accumulates quantities per product and remembers the order in which
// products were first added. It is not safe for concurrent use; each checkout
// owns its cart.
type Cart struct {
	// Limits applies to AddItem and AddItemQuantity; the zero value means
	// DefaultLimits.
	Limits Limits

	order      []catalog.Product
	quantities map[catalog.Product]decimal.Decimal
}

// New returns an empty cart with DefaultLimits.
func New() *Cart {
	return NewWithLimits(DefaultLimits)
}

// NewWithLimits returns an empty cart bounded by limits.
func NewWithLimits(limits Limits) *Cart {
	return &Cart{Limits: limits, quantities: make(map[catalog.Product]decimal.Decimal)}
}

// AddItem adds a single unit of p. It fails only when the running total
// would pass Limits.MaxQuantity.
func (c *Cart) AddItem(p catalog.Product) error {
	return c.AddItemQuantity(p, decimal.NewFromInt(1))
}

// AddItemQuantity adds quantity of p to its running total. Whether the
// quantity suits the product unit (fractions of an "each" product) is left to
// the caller.
func (c *Cart) AddItemQuantity(p catalog.Product, quantity decimal.Decimal) error {
	if err := c.Limits.Check(quantity); err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	current, ok := c.quantities[p]
	total := current.Add(quantity)
	if err := c.Limits.Check(total); err != nil {
		return fmt.Errorf("%s total: %w", p, err)
	}
	if c.quantities == nil {
		c.quantities = make(map[catalog.Product]decimal.Decimal)
	}
	if !ok {
		c.order = append(c.order, p)
	}
	c.quantities[p] = total
	return nil
}

// Quantity returns the accumulated quantity of p, zero when absent.
func (c *Cart) Quantity(p catalog.Product) decimal.Decimal {
	if q, ok := c.quantities[p]; ok {
		return q
	}
	return decimal.Zero
}

// Lines returns a copy of the cart contents in first-insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, p := range c.order {
		out = append(out, Line{Product: p, Quantity: c.quantities[p]})
	}
	return out
}

// Len returns the number of distinct products.
func (c *Cart) Len() int {
	return len(c.order)
}
