package groundtruth

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/content"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/format"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/layout"
)

// Verify re-interpreta cada importe visible y lo compara con los datos
// estructurados, igual que la fecha y el número de recibo. También comprueba
// que el total es la suma de las líneas.
func Verify(c *content.ReceiptContent, runs []layout.Run, d Data) error {
	sep, cur := c.Format.DecimalSep, c.Currency

	sum := decimal.Zero
	for _, p := range d.Products {
		sum = sum.Add(p.TotalPrice.Decimal)
	}
	if !sum.Round(2).Equal(d.Total.Decimal) {
		return fmt.Errorf("%w: total %s != sum of lines %s", ErrDesync, d.Total, sum)
	}

	names := make([][]string, len(d.Products))
	prices := make([]int, len(d.Products))

	for _, r := range runs {
		switch r.Field {
		case layout.FieldProductName:
			if r.Item < 0 || r.Item >= len(d.Products) {
				return fmt.Errorf("%w: product name run for unknown item %d", ErrDesync, r.Item)
			}
			names[r.Item] = append(names[r.Item], r.Text)

		case layout.FieldProductPrice:
			if r.Item < 0 || r.Item >= len(d.Products) {
				return fmt.Errorf("%w: price run for unknown item %d", ErrDesync, r.Item)
			}
			prices[r.Item]++
			p := d.Products[r.Item]
			unit, total, err := priceFields(r.Text, c.Items[r.Item].PriceLine(c.Format))
			if err != nil {
				return fmt.Errorf("item %d: %w", r.Item, err)
			}
			if err := expectAmount(unit, sep, p.UnitPrice.Decimal); err != nil {
				return fmt.Errorf("item %d unit price: %w", r.Item, err)
			}
			if err := expectAmount(total, sep, p.TotalPrice.Decimal); err != nil {
				return fmt.Errorf("item %d total: %w", r.Item, err)
			}

		case layout.FieldDate:
			if r.Text != d.Date {
				return fmt.Errorf("%w: date rendered as %q, labelled %q", ErrDesync, r.Text, d.Date)
			}

		case layout.FieldNumber:
			if r.Text != d.Number {
				return fmt.Errorf("%w: receipt number rendered as %q, labelled %q", ErrDesync, r.Text, d.Number)
			}

		case layout.FieldTotalAmount, layout.FieldPaymentAmount:
			got, err := format.ParseAmount(r.Text, sep, cur)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrDesync, err)
			}
			if !got.Equal(d.Total.Decimal) {
				return fmt.Errorf("%w: %s shows %s, total is %s", ErrDesync, r.Field, got, d.Total)
			}

		case layout.FieldVATNet, layout.FieldVATTax:
			if r.Item < 0 || r.Item >= len(c.VAT) {
				return fmt.Errorf("%w: vat run for unknown line %d", ErrDesync, r.Item)
			}
			want := c.VAT[r.Item].Net
			if r.Field == layout.FieldVATTax {
				want = c.VAT[r.Item].Tax
			}
			got, err := format.ParseAmount(r.Text, sep, "")
			if err != nil {
				return fmt.Errorf("%w: %v", ErrDesync, err)
			}
			if !got.Equal(want.Round(2)) {
				return fmt.Errorf("%w: vat line %d shows %s, want %s", ErrDesync, r.Item, got, want)
			}
		}
	}

	for i, p := range d.Products {
		if prices[i] != 1 {
			return fmt.Errorf("%w: item %d has %d price runs", ErrDesync, i, prices[i])
		}
		// los nombres partidos por carácter no conservan el espacio original
		if got := strings.Join(names[i], ""); strip(got) != strip(p.Name) {
			return fmt.Errorf("%w: item %d name rendered as %q, want %q", ErrDesync, i, got, p.Name)
		}
	}
	return nil
}

// priceFields separa por posición una línea de precio renderizada: cantidad,
// unidad y signo al inicio, el precio unitario antes de "=" y el total
// después, seguido del marcador de IVA
func priceFields(text string, line format.PriceLine) (unit, total string, err error) {
	rest := text
	for _, tok := range []string{line.Quantity, line.Unit, line.Sign} {
		if tok == "" {
			continue
		}
		rest = strings.TrimLeft(rest, " ")
		if !strings.HasPrefix(rest, tok) {
			return "", "", fmt.Errorf("%w: line %q does not continue with %q", ErrDesync, text, tok)
		}
		rest = rest[len(tok):]
	}

	before, after, ok := strings.Cut(rest, "=")
	if !ok {
		return "", "", fmt.Errorf("%w: line %q has no '='", ErrDesync, text)
	}
	after = strings.TrimSpace(after)
	if line.Marker != "" {
		var found bool
		if after, found = strings.CutSuffix(after, line.Marker); !found {
			return "", "", fmt.Errorf("%w: line %q does not end with marker %q", ErrDesync, text, line.Marker)
		}
	}
	return strings.TrimSpace(before), strings.TrimSpace(after), nil
}

func expectAmount(field, sep string, want decimal.Decimal) error {
	got, err := format.ParseAmount(field, sep, "")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDesync, err)
	}
	if !got.Equal(want) {
		return fmt.Errorf("%w: %q parses to %s, want %s", ErrDesync, field, got, want)
	}
	return nil
}

func strip(s string) string {
	return strings.ReplaceAll(s, " ", "")
}
