package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownUnit is returned when a unit name cannot be parsed.
var ErrUnknownUnit = errors.New("catalog: unknown unit")

// Unit describes how a product is measured at the till.
type Unit int

const (
	// UnitEach is sold by discrete count.
	UnitEach Unit = iota + 1
	// UnitKilo is sold by weight and allows fractional quantities.
	UnitKilo
)

func (u Unit) String() string {
	switch u {
	case UnitEach:
		return "each"
	case UnitKilo:
		return "kilo"
	default:
		return "unknown"
	}
}

// ParseUnit converts a textual unit into a Unit.
func ParseUnit(value string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "each", "unit", "piece":
		return UnitEach, nil
	case "kilo", "kg", "weight":
		return UnitKilo, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, value)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u Unit) MarshalText() ([]byte, error) {
	if u != UnitEach && u != UnitKilo {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUnit, int(u))
	}
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unit) UnmarshalText(text []byte) error {
	parsed, err := ParseUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Product identifies something that can be sold. Two products are the same
// when both name and unit match.
type Product struct {
	Name string `json:"name"`
	Unit Unit   `json:"unit"`
}

// NewProduct returns a product with a trimmed name.
func NewProduct(name string, unit Unit) Product {
	return Product{Name: strings.TrimSpace(name), Unit: unit}
}

// Key renders a stable identifier used by the remote stores.
func (p Product) Key() string {
	return p.Unit.String() + ":" + p.Name
}

func (p Product) String() string {
	return p.Name + " (" + p.Unit.String() + ")"
}
