package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unidades con cantidades fraccionarias
const (
	UnitKilogram = "kg"
	UnitLiter    = "l"
)

// IsMeasured indica si la unidad admite cantidades fraccionarias
func IsMeasured(unit string) bool {
	return unit == UnitKilogram || unit == UnitLiter
}

// Amount formatea un importe con 2 decimales y el separador dado
func Amount(d decimal.Decimal, sep string) string {
	return withSep(d.StringFixed(2), sep)
}

// Quantity formatea una cantidad: 3 decimales para kg/l, entero en otro caso
func Quantity(q decimal.Decimal, unit, sep string) string {
	if IsMeasured(unit) {
		return withSep(q.StringFixed(3), sep)
	}
	return q.StringFixed(0)
}

// UnitLabel unidad visible: kg y l conservan la propia, el resto usa la
// variante elegida para el recibo
func UnitLabel(itemUnit, chosen string) string {
	if IsMeasured(itemUnit) {
		return itemUnit
	}
	return chosen
}

// Total texto del importe total; añade la moneda si la etiqueta no la incluye
func Total(label string, total decimal.Decimal, sep, currency string) string {
	amount := Amount(total, sep)
	if strings.Contains(label, currency) {
		return amount
	}
	return amount + " " + currency
}

// ParseAmount interpreta un importe renderizado: quita la moneda, espacios y
// el separador decimal activo
func ParseAmount(text, sep, currency string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if currency != "" {
		s = strings.TrimSpace(strings.TrimSuffix(s, currency))
	}
	s = strings.ReplaceAll(s, " ", "")
	if sep != "." {
		if strings.Contains(s, ".") {
			return decimal.Zero, fmt.Errorf("unexpected '.' in amount %q with separator %q", text, sep)
		}
		s = strings.ReplaceAll(s, sep, ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount %q: %w", text, err)
	}
	return d, nil
}

func withSep(s, sep string) string {
	if sep == "." || sep == "" {
		return s
	}
	return strings.Replace(s, ".", sep, 1)
}
