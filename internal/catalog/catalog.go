// Package catalog resolves unit prices for products. The checkout engine only
// depends on the Catalog interface; the concrete stores live alongside it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrProductNotFound indicates the product is not registered in the catalog.
var ErrProductNotFound = errors.New("catalog: product not found")

// ErrInvalidPrice is returned when registering a negative or zero unit price.
var ErrInvalidPrice = errors.New("catalog: unit price must be positive")

// Catalog looks up unit prices.
type Catalog interface {
	UnitPrice(ctx context.Context, p Product) (decimal.Decimal, error)
	Contains(ctx context.Context, p Product) (bool, error)
}

// Writer registers products with their unit price.
type Writer interface {
	AddProduct(ctx context.Context, p Product, price decimal.Decimal) error
}

// Entry pairs a product with its unit price.
type Entry struct {
	Product   Product         `json:"product"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// NotFound wraps ErrProductNotFound with the product that was missing.
func NotFound(p Product) error {
	return fmt.Errorf("%w: %s", ErrProductNotFound, p)
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidPrice, price)
	}
	return nil
}

// Memory is an in-process catalog. It is safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	prices map[Product]decimal.Decimal
}

// NewMemory constructs an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{prices: make(map[Product]decimal.Decimal)}
}

// AddProduct registers or replaces the unit price of p.
func (m *Memory) AddProduct(_ context.Context, p Product, price decimal.Decimal) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[p] = price
	return nil
}

// UnitPrice returns the registered price or ErrProductNotFound.
func (m *Memory) UnitPrice(_ context.Context, p Product) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	price, ok := m.prices[p]
	if !ok {
		return decimal.Zero, NotFound(p)
	}
	return price, nil
}

// Contains reports whether p is registered.
func (m *Memory) Contains(_ context.Context, p Product) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.prices[p]
	return ok, nil
}

// Entries lists every product ordered by name then unit.
func (m *Memory) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.prices))
	for p, price := range m.prices {
		out = append(out, Entry{Product: p, UnitPrice: price})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Product.Name != out[j].Product.Name {
			return out[i].Product.Name < out[j].Product.Name
		}
		return out[i].Product.Unit < out[j].Product.Unit
	})
	return out
}
