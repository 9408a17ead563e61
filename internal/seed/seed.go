// Package seed loads store data (catalog prices and special offers) from a
// YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/offer"
	"github.com/noah-isme/toko-checkout/internal/pricing"
)

// ErrInvalidSeed wraps every validation failure in a seed file.
var ErrInvalidSeed = errors.New("seed: invalid entry")

// Product is one catalog row.
type Product struct {
	Name  string `koanf:"name"`
	Unit  string `koanf:"unit"`
	Price string `koanf:"price"`
}

// Offer configures a special offer. Argument is the percentage or group
// price; N is the group size for the generic bundle and fixed price types.
type Offer struct {
	Product  string `koanf:"product"`
	Unit     string `koanf:"unit"`
	Type     string `koanf:"type"`
	Argument string `koanf:"argument"`
	N        int    `koanf:"n"`
}

// Seed is the parsed content of a seed file.
type Seed struct {
	Products []Product `koanf:"products"`
	Offers   []Offer   `koanf:"offers"`
}

// Load parses the YAML file at path.
func Load(path string) (*Seed, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("seed: load %s: %w", path, err)
	}
	var s Seed
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("seed: decode %s: %w", path, err)
	}
	return &s, nil
}

// Apply writes every product to w and every offer to book. Offers may only
// reference products declared in the same seed. book may be nil when only
// the catalog is being populated.
func (s *Seed) Apply(ctx context.Context, w catalog.Writer, book *offer.Book) error {
	declared := make(map[catalog.Product]struct{}, len(s.Products))
	for i, row := range s.Products {
		p, err := product(row.Name, row.Unit)
		if err != nil {
			return fmt.Errorf("products[%d]: %w", i, err)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(row.Price))
		if err != nil {
			return fmt.Errorf("products[%d] %s: %w: price %q", i, p, ErrInvalidSeed, row.Price)
		}
		if w != nil {
			if err := w.AddProduct(ctx, p, price); err != nil {
				return fmt.Errorf("products[%d]: %w", i, err)
			}
		}
		declared[p] = struct{}{}
	}
	if book == nil {
		return nil
	}
	for i, row := range s.Offers {
		p, err := product(row.Product, row.Unit)
		if err != nil {
			return fmt.Errorf("offers[%d]: %w", i, err)
		}
		if _, ok := declared[p]; !ok {
			return fmt.Errorf("offers[%d]: %w: %s is not in products", i, ErrInvalidSeed, p)
		}
		arg := decimal.Zero
		if raw := strings.TrimSpace(row.Argument); raw != "" {
			if arg, err = decimal.NewFromString(raw); err != nil {
				return fmt.Errorf("offers[%d] %s: %w: argument %q", i, p, ErrInvalidSeed, row.Argument)
			}
		}
		if err := book.SetSpecialOfferN(pricing.SpecialOfferType(row.Type), p, arg, row.N); err != nil {
			return fmt.Errorf("offers[%d]: %w", i, err)
		}
	}
	return nil
}

// LoadInto loads path and applies it.
func LoadInto(ctx context.Context, path string, w catalog.Writer, book *offer.Book) (*Seed, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := s.Apply(ctx, w, book); err != nil {
		return nil, err
	}
	return s, nil
}

func product(name, unit string) (catalog.Product, error) {
	u, err := catalog.ParseUnit(unit)
	if err != nil {
		return catalog.Product{}, err
	}
	p := catalog.NewProduct(name, u)
	if p.Name == "" {
		return catalog.Product{}, fmt.Errorf("%w: empty product name", ErrInvalidSeed)
	}
	return p, nil
}
