// Package content sintetiza el contenido lógico de un recibo: tienda, fecha,
// productos, resumen de IVA, total y forma de pago. Todos los importes se
// calculan con aritmética decimal exacta.
package content

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/format"
)

// LineItem un producto del recibo. Total siempre se recalcula a partir de
// Quantity y UnitPrice.
type LineItem struct {
	Name      string
	Quantity  decimal.Decimal
	Unit      string
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
	VATSymbol string
	VATRate   string
}

// NewLineItem crea un producto con Total = round(quantity × price, 2)
func NewLineItem(name string, quantity decimal.Decimal, unit string, price decimal.Decimal, vatSymbol, vatRate string) LineItem {
	return LineItem{
		Name:      name,
		Quantity:  quantity,
		Unit:      unit,
		UnitPrice: price,
		Total:     quantity.Mul(price).Round(2),
		VATSymbol: vatSymbol,
		VATRate:   vatRate,
	}
}

// PriceLine tokens formateados de la línea de precio
func (li LineItem) PriceLine(c format.Choices) format.PriceLine {
	return format.NewPriceLine(c, li.Quantity, li.Unit, li.UnitPrice, li.Total, li.VATSymbol)
}

// VATLine resumen de IVA para un símbolo
type VATLine struct {
	Symbol string
	Rate   string
	Net    decimal.Decimal
	Tax    decimal.Decimal
}

// ReceiptContent contenido lógico completo de un recibo
type ReceiptContent struct {
	Format   format.Choices
	Currency string

	ShopName    string
	ShopAddress string
	ShopTaxID   string

	Timestamp time.Time
	Number    string
	Title     string

	Items []LineItem
	VAT   []VATLine
	Total decimal.Decimal

	PaymentMethod string
	Footer        string
}

// SumTotals suma exacta de los totales de línea, redondeada a 2 decimales
func SumTotals(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Total)
	}
	return sum.Round(2)
}

// Summarize agrupa el IVA por símbolo: net = round(total/(1+rate), 2),
// tax = round(total − net, 2), ordenado por símbolo
func Summarize(items []LineItem, rates map[string]decimal.Decimal) []VATLine {
	bySymbol := make(map[string]*VATLine)
	for _, it := range items {
		rate := rates[it.VATSymbol]
		net := it.Total.Div(decimal.NewFromInt(1).Add(rate)).Round(2)
		tax := it.Total.Sub(net).Round(2)

		line, ok := bySymbol[it.VATSymbol]
		if !ok {
			line = &VATLine{Symbol: it.VATSymbol, Rate: it.VATRate}
			bySymbol[it.VATSymbol] = line
		}
		line.Net = line.Net.Add(net)
		line.Tax = line.Tax.Add(tax)
	}

	out := make([]VATLine, 0, len(bySymbol))
	for _, line := range bySymbol {
		out = append(out, *line)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// DateText fecha visible en el recibo
func (c *ReceiptContent) DateText() string {
	return "Data: " + format.Date(c.Timestamp, c.Format.DateStyle)
}

// NumberText número de recibo con la plantilla elegida
func (c *ReceiptContent) NumberText() string {
	return format.ReceiptNumber(c.Format.NumberTemplate, c.Number)
}

// Amount formatea un importe con el separador del recibo
func (c *ReceiptContent) Amount(d decimal.Decimal) string {
	return format.Amount(d, c.Format.DecimalSep)
}

// TotalText importe de la línea de suma
func (c *ReceiptContent) TotalText() string {
	return format.Total(c.Format.SumLabel, c.Total, c.Format.DecimalSep, c.Currency)
}

// PaymentLabel etiqueta de la línea de pago
func (c *ReceiptContent) PaymentLabel() string {
	return c.PaymentMethod + ":"
}

// PaymentText importe de la línea de pago, siempre con moneda
func (c *ReceiptContent) PaymentText() string {
	return c.Amount(c.Total) + " " + c.Currency
}

// NetLabel etiqueta de la línea de base imponible
func (v VATLine) NetLabel() string {
	return "Sprzedaż opod. " + v.Symbol
}

// TaxLabel etiqueta de la línea de impuesto
func (v VATLine) TaxLabel() string {
	return "Kwota " + v.Symbol + " " + v.Rate
}
