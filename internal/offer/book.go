// Package offer keeps the special offers a store runs, one per product.
package offer

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/pricing"
)

// Offer attaches a discount rule to a product.
type Offer struct {
	Product catalog.Product
	Rule    pricing.Rule
}

// Book maps each product to at most one offer; setting a second offer for
// the same product replaces the first. Reads may run concurrently, but
// writes must complete before any checkout that reads the book.
type Book struct {
	offers map[catalog.Product]Offer
}

// NewBook returns an empty offer book.
func NewBook() *Book {
	return &Book{offers: make(map[catalog.Product]Offer)}
}

// Set installs rule for p after validating it.
func (b *Book) Set(p catalog.Product, rule pricing.Rule) error {
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("offer for %s: %w", p, err)
	}
	if b.offers == nil {
		b.offers = make(map[catalog.Product]Offer)
	}
	b.offers[p] = Offer{Product: p, Rule: rule}
	return nil
}

// SetSpecialOffer installs a named offer type. argument is the percentage or
// the group price depending on offerType.
func (b *Book) SetSpecialOffer(offerType pricing.SpecialOfferType, p catalog.Product, argument decimal.Decimal) error {
	return b.SetSpecialOfferN(offerType, p, argument, 0)
}

// SetSpecialOfferN is SetSpecialOffer for the generic types that need a group size.
func (b *Book) SetSpecialOfferN(offerType pricing.SpecialOfferType, p catalog.Product, argument decimal.Decimal, n int) error {
	rule, err := pricing.RuleFor(offerType, argument, n)
	if err != nil {
		return fmt.Errorf("offer for %s: %w", p, err)
	}
	return b.Set(p, rule)
}

// Get returns the offer for p, if any.
func (b *Book) Get(p catalog.Product) (Offer, bool) {
	if b == nil {
		return Offer{}, false
	}
	o, ok := b.offers[p]
	return o, ok
}

// Remove drops the offer for p.
func (b *Book) Remove(p catalog.Product) {
	if b == nil {
		return
	}
	delete(b.offers, p)
}

// Len returns the number of products with an offer.
func (b *Book) Len() int {
	if b == nil {
		return 0
	}
	return len(b.offers)
}

// All lists the offers ordered by product name then unit.
func (b *Book) All() []Offer {
	if b == nil {
		return nil
	}
	out := make([]Offer, 0, len(b.offers))
	for _, o := range b.offers {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Product.Name != out[j].Product.Name {
			return out[i].Product.Name < out[j].Product.Name
		}
		return out[i].Product.Unit < out[j].Product.Unit
	})
	return out
}
