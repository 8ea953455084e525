package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PriceStyle estilo de la línea de precio de un producto
type PriceStyle string

const (
	PriceStandard PriceStyle = "standard"
	PriceNoSpaces PriceStyle = "no_spaces"
	PriceHybrid   PriceStyle = "hybrid"
)

// PriceLine tokens ya formateados de una línea de precio
type PriceLine struct {
	Quantity  string
	Unit      string
	Sign      string
	UnitPrice string
	Total     string
	Marker    string
}

// NewPriceLine formatea los valores de un producto con las variantes del recibo
func NewPriceLine(c Choices, qty decimal.Decimal, unit string, price, total decimal.Decimal, marker string) PriceLine {
	return PriceLine{
		Quantity:  Quantity(qty, unit, c.DecimalSep),
		Unit:      UnitLabel(unit, c.Unit),
		Sign:      c.MultiplySign,
		UnitPrice: Amount(price, c.DecimalSep),
		Total:     Amount(total, c.DecimalSep),
		Marker:    marker,
	}
}

// Render arma la línea según el estilo. Los tres estilos muestran los mismos
// valores; sólo cambia la puntuación.
//
//	standard:  "2 szt x 3,50 = 7,00 A"
//	no_spaces: "2sztx3,50=7,00A"
//	hybrid:    "2 szt x 3,50 = 7,00A"
func (p PriceLine) Render(style PriceStyle) string {
	head := joinNonEmpty(" ", p.Quantity, p.Unit, p.Sign, p.UnitPrice, "=", p.Total)

	switch style {
	case PriceNoSpaces:
		return strings.ReplaceAll(head, " ", "") + p.Marker
	case PriceHybrid:
		return head + p.Marker
	default:
		return joinNonEmpty(" ", head, p.Marker)
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
