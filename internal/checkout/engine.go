// Package checkout prices a cart against a catalog and an offer book.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/cart"
	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/offer"
	"github.com/noah-isme/toko-checkout/internal/pricing"
	"github.com/noah-isme/toko-checkout/internal/receipt"
)

// Price builds the receipt for c. Products are priced in the order they were
// first added to the cart. A product missing from the catalog aborts the
// whole checkout and no receipt is returned.
func Price(ctx context.Context, cat catalog.Catalog, offers *offer.Book, c *cart.Cart) (*receipt.Receipt, error) {
	if cat == nil {
		return nil, errors.New("checkout: catalog is required")
	}
	r := receipt.New()
	if c == nil {
		return r, nil
	}
	for _, line := range c.Lines() {
		unitPrice, err := cat.UnitPrice(ctx, line.Product)
		if err != nil {
			return nil, fmt.Errorf("checkout: price %s: %w", line.Product, err)
		}
		r.AddProduct(line.Product, line.Quantity, unitPrice, pricing.LineTotal(line.Quantity, unitPrice))

		o, ok := offers.Get(line.Product)
		if !ok {
			continue
		}
		if adj, ok := pricing.Apply(o.Rule, line.Quantity, unitPrice); ok {
			r.AddDiscount(receipt.Discount{
				Product:     line.Product,
				Description: adj.Description,
				Amount:      adj.Amount,
			})
		}
	}
	return r, nil
}

// Teller owns an offer book and checks carts out against a catalog.
type Teller struct {
	catalog catalog.Catalog
	offers  *offer.Book
}

// NewTeller returns a teller with an empty offer book.
func NewTeller(cat catalog.Catalog) *Teller {
	return &Teller{catalog: cat, offers: offer.NewBook()}
}

// AddSpecialOffer installs or replaces the offer for p.
func (t *Teller) AddSpecialOffer(offerType pricing.SpecialOfferType, p catalog.Product, argument decimal.Decimal) error {
	return t.offers.SetSpecialOffer(offerType, p, argument)
}

// Offers exposes the teller's offer book.
func (t *Teller) Offers() *offer.Book {
	return t.offers
}

// ChecksOutArticlesFrom prices c.
func (t *Teller) ChecksOutArticlesFrom(ctx context.Context, c *cart.Cart) (*receipt.Receipt, error) {
	return Price(ctx, t.catalog, t.offers, c)
}
