// Package groundtruth une el layout renderizado con los datos estructurados:
// etiqueta aplanada, cajas de texto y el árbol shop/products/total.
package groundtruth

import (
	"errors"
	"image"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/content"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/layout"
)

// ErrDesync el texto renderizado no coincide con los datos estructurados
var ErrDesync = errors.New("rendered text and structured data disagree")

// Amount decimal serializado como número JSON redondeado a 2 decimales
type Amount struct {
	decimal.Decimal
}

// NewAmount redondea a 2 decimales
func NewAmount(d decimal.Decimal) Amount {
	return Amount{d.Round(2)}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Round(2).String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	d, err := decimal.NewFromString(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

type Shop struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`
}

type Product struct {
	Name       string `json:"name"`
	Quantity   Amount `json:"quantity"`
	Unit       string `json:"unit"`
	UnitPrice  Amount `json:"unit_price"`
	TotalPrice Amount `json:"total_price"`
}

// Data datos estructurados de un recibo
type Data struct {
	Shop          Shop      `json:"shop"`
	Date          string    `json:"date,omitempty"`
	Number        string    `json:"number,omitempty"`
	Products      []Product `json:"products"`
	Total         Amount    `json:"total"`
	PaymentMethod string    `json:"payment_method,omitempty"`
}

// TextBox un texto renderizado y su caja en coordenadas del documento
type TextBox struct {
	Text  string          `json:"text"`
	Field layout.Field    `json:"field"`
	Rect  image.Rectangle `json:"-"`
}

// Result salida de Synchronize
type Result struct {
	Label string
	Boxes []TextBox
	Data  Data
}

// Synchronize recorre el layout en orden de lectura y construye la etiqueta,
// las cajas y los datos estructurados. Verifica que cada importe visible
// coincide con su valor estructurado.
func Synchronize(c *content.ReceiptContent, l *layout.Layout) (*Result, error) {
	runs := l.Runs()
	sort.SliceStable(runs, func(i, j int) bool {
		a, b := runs[i].Box.Min, runs[j].Box.Min
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	res := &Result{
		Boxes: make([]TextBox, 0, len(runs)),
		Data:  structured(c),
	}
	parts := make([]string, 0, len(runs))
	for _, r := range runs {
		parts = append(parts, r.Text)
		res.Boxes = append(res.Boxes, TextBox{Text: r.Text, Field: r.Field, Rect: r.Box})
	}
	res.Label = strings.Join(parts, " ")

	if err := Verify(c, runs, res.Data); err != nil {
		return nil, err
	}
	return res, nil
}

func structured(c *content.ReceiptContent) Data {
	d := Data{
		Shop: Shop{
			Name:    c.ShopName,
			Address: c.ShopAddress,
			TaxID:   c.ShopTaxID,
		},
		Date:          c.DateText(),
		Number:        c.NumberText(),
		Products:      make([]Product, 0, len(c.Items)),
		Total:         NewAmount(c.Total),
		PaymentMethod: c.PaymentMethod,
	}
	for _, it := range c.Items {
		d.Products = append(d.Products, Product{
			Name:       it.Name,
			Quantity:   NewAmount(it.Quantity),
			Unit:       it.Unit,
			UnitPrice:  NewAmount(it.UnitPrice),
			TotalPrice: NewAmount(it.Total),
		})
	}
	return d
}
