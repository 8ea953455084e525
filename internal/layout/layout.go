// Package layout convierte el contenido de un recibo en una pila vertical de
// secciones con geometría en píxeles.
package layout

import (
	"errors"
	"image"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/render"
)

// ErrLayoutOverflow el contenido no cabe ni tras crecer el documento
var ErrLayoutOverflow = errors.New("layout overflow")

// Kind tipo de sección
type Kind string

const (
	KindShopName    Kind = "shop_name"
	KindShopAddress Kind = "shop_address"
	KindShopTaxID   Kind = "shop_tax_id"
	KindDateNumber  Kind = "date_number"
	KindTitle       Kind = "receipt_header"
	KindSeparator   Kind = "separator"
	KindProduct     Kind = "product"
	KindVAT         Kind = "vat_line"
	KindTotal       Kind = "total_sum"
	KindPayment     Kind = "payment_method"
	KindFooter      Kind = "footer"
)

// Anchor punto de inserción de un separador
type Anchor string

const (
	AnchorHeader   Anchor = "header"
	AnchorTitle    Anchor = "title"
	AnchorProducts Anchor = "products"
	AnchorVAT      Anchor = "vat"
	AnchorPayment  Anchor = "payment"
)

// Field rol semántico de un texto renderizado
type Field string

const (
	FieldShopName      Field = "shop_name"
	FieldShopAddress   Field = "shop_address"
	FieldShopTaxID     Field = "shop_tax_id"
	FieldDate          Field = "date"
	FieldNumber        Field = "number"
	FieldTitle         Field = "title"
	FieldSeparator     Field = "separator"
	FieldProductName   Field = "product_name"
	FieldProductPrice  Field = "product_price"
	FieldVATLabel      Field = "vat_label"
	FieldVATNet        Field = "vat_net"
	FieldVATTax        Field = "vat_tax"
	FieldTotalLabel    Field = "total_label"
	FieldTotalAmount   Field = "total_amount"
	FieldPaymentLabel  Field = "payment_label"
	FieldPaymentAmount Field = "payment_amount"
	FieldFooter        Field = "footer"
)

// Run un texto con su caja, fuente y alineación
type Run struct {
	Text  string
	Field Field
	// Item índice del producto o línea de IVA; -1 si no aplica
	Item  int
	Style render.Style
	Size  float64
	Align render.Align
	// Box rectángulo que ocupa el texto en coordenadas del documento
	Box image.Rectangle
}

// Section una unidad de la pila vertical
type Section struct {
	Kind   Kind
	Anchor Anchor
	Top    int
	Height int
	Runs   []Run
}

// Layout resultado de Arrange
type Layout struct {
	Width  int
	Height int
	// Planned alto muestreado antes de crecer
	Planned  int
	Margin   int
	Sections []Section
}

// Grown indica si el documento creció para acomodar el contenido
func (l *Layout) Grown() bool {
	return l.Height > l.Planned
}

// Runs todos los textos en orden de lectura
func (l *Layout) Runs() []Run {
	var out []Run
	for _, s := range l.Sections {
		out = append(out, s.Runs...)
	}
	return out
}

// CountSeparators número de separadores en un ancla
func (l *Layout) CountSeparators(anchor Anchor) int {
	n := 0
	for _, s := range l.Sections {
		if s.Kind == KindSeparator && s.Anchor == anchor {
			n++
		}
	}
	return n
}

// ContentBounds rectángulo que contiene todos los textos
func (l *Layout) ContentBounds() image.Rectangle {
	var r image.Rectangle
	for _, run := range l.Runs() {
		r = r.Union(run.Box)
	}
	return r
}
