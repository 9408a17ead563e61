package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/resilience"
)

// Guarded routes catalog calls through a circuit breaker. Lookups of unknown
// products are answers, not dependency failures, and do not trip the breaker.
type Guarded struct {
	next    Catalog
	breaker *resilience.Breaker
}

// NewGuarded wraps next with breaker. A nil breaker disables the guard.
func NewGuarded(next Catalog, breaker *resilience.Breaker) *Guarded {
	return &Guarded{next: next, breaker: breaker}
}

// UnitPrice implements Catalog.
func (g *Guarded) UnitPrice(ctx context.Context, p Product) (decimal.Decimal, error) {
	if g.breaker == nil {
		return g.next.UnitPrice(ctx, p)
	}
	var price decimal.Decimal
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		price, err = g.next.UnitPrice(ctx, p)
		return err
	}, isBackendFailure)
	if err != nil {
		return decimal.Zero, err
	}
	return price, nil
}

// Contains implements Catalog.
func (g *Guarded) Contains(ctx context.Context, p Product) (bool, error) {
	if g.breaker == nil {
		return g.next.Contains(ctx, p)
	}
	var found bool
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		found, err = g.next.Contains(ctx, p)
		return err
	}, isBackendFailure)
	return found, err
}

func isBackendFailure(err error) bool {
	return !errors.Is(err, ErrProductNotFound) && !errors.Is(err, context.Canceled)
}
