package receipt

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/catalog"
)

// DefaultColumns is the paper width used when Printer.Columns is unset.
const DefaultColumns = 40

// Printer lays a receipt out as fixed-width text.
type Printer struct {
	Columns int
}

// Print renders every item, then every discount, then the total.
func (p Printer) Print(r *Receipt) string {
	var b strings.Builder
	for _, it := range r.items {
		p.writeLine(&b, it.Product.Name, formatPrice(it.TotalPrice))
		if !it.Quantity.Equal(decimal.NewFromInt(1)) {
			b.WriteString("  ")
			b.WriteString(formatPrice(it.UnitPrice))
			b.WriteString(" * ")
			b.WriteString(formatQuantity(it))
			b.WriteString("\n")
		}
	}
	for _, d := range r.discounts {
		p.writeLine(&b, d.Description+"("+d.Product.Name+")", formatPrice(d.Amount))
	}
	b.WriteString("\n")
	p.writeLine(&b, "Total: ", formatPrice(r.TotalPrice()))
	return b.String()
}

func (p Printer) columns() int {
	if p.Columns <= 0 {
		return DefaultColumns
	}
	return p.Columns
}

func (p Printer) writeLine(b *strings.Builder, name, value string) {
	b.WriteString(name)
	if pad := p.columns() - utf8.RuneCountInString(name) - utf8.RuneCountInString(value); pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	b.WriteString(value)
	b.WriteString("\n")
}

func formatPrice(v decimal.Decimal) string {
	return v.StringFixed(2)
}

func formatQuantity(it Item) string {
	if it.Product.Unit == catalog.UnitEach {
		return it.Quantity.String()
	}
	return it.Quantity.StringFixed(3)
}
