package layout

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/content"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/render"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/rng"
)

// legibleShrink fracción mínima del tamaño nominal antes de pasar un par
// nombre/importe a dos filas
const legibleShrink = 0.8

// Measurer mide el ancho de un texto y el alto de línea de una face
type Measurer interface {
	Width(text string, style render.Style, size float64) int
	LineHeight(style render.Style, size float64) int
}

// Engine dispone secciones de recibo sobre un documento
type Engine struct {
	spec     config.ContentSpec
	measurer Measurer
}

// NewEngine crea un motor de layout
func NewEngine(spec config.ContentSpec, m Measurer) *Engine {
	return &Engine{spec: spec, measurer: m}
}

// params decisiones de layout tomadas una vez por recibo
type params struct {
	fill        float64
	headerScale float64
	align       render.Align
	sepSymbol   string
	sepFraction float64
	anchors     map[Anchor]bool
}

var anchorOrder = []Anchor{AnchorHeader, AnchorTitle, AnchorProducts, AnchorVAT, AnchorPayment}

func (e *Engine) sample(s *rng.Stream) (params, error) {
	l := e.spec.Layout
	p := params{
		fill:        s.Uniform(e.spec.Textbox.Fill.Min(), e.spec.Textbox.Fill.Max()),
		headerScale: s.Uniform(l.HeaderScale.Min(), l.HeaderScale.Max()),
		align:       render.Align(l.Align[s.IntN(len(l.Align))]),
		anchors:     make(map[Anchor]bool, len(anchorOrder)),
	}

	weights := make([]float64, len(l.Separators.Types))
	for i, t := range l.Separators.Types {
		weights[i] = t.Weight
	}
	idx, err := s.Choice(weights)
	if err != nil {
		return params{}, fmt.Errorf("separator catalog: %w", err)
	}
	sep := l.Separators.Types[idx]
	p.sepSymbol = sep.Symbol
	p.sepFraction = s.Uniform(l.Separators.Length.Min(), l.Separators.Length.Max())
	if sep.Length > 0 {
		p.sepFraction = sep.Length
	}

	loc := l.Separators.Locations
	probs := map[Anchor]float64{
		AnchorHeader:   loc.Header,
		AnchorTitle:    loc.Title,
		AnchorProducts: loc.Products,
		AnchorVAT:      loc.VAT,
		AnchorPayment:  loc.Payment,
	}
	for _, a := range anchorOrder {
		p.anchors[a] = s.Bernoulli(probs[a])
	}
	return p, nil
}

// Arrange dispone el contenido en un documento de width×height. Si la pila
// no cabe el documento crece hasta max_growth veces su alto; más allá
// retorna ErrLayoutOverflow. El texto nunca se recorta.
func (e *Engine) Arrange(c *content.ReceiptContent, width, height int, s *rng.Stream) (*Layout, error) {
	p, err := e.sample(s)
	if err != nil {
		return nil, err
	}

	margin := int(math.Round(e.spec.Margin * float64(width)))
	b := &stacker{
		engine:  e,
		p:       p,
		s:       s,
		x0:      margin,
		cw:      width - 2*margin,
		cursor:  margin,
		planned: height,
	}
	if b.cw <= 0 {
		return nil, fmt.Errorf("%w: document width %d leaves no room for content", ErrLayoutOverflow, width)
	}

	if err := b.build(c); err != nil {
		return nil, err
	}

	need := b.cursor + margin
	final := height
	if need > height {
		limit := int(float64(height) * e.spec.Layout.MaxGrowth)
		if need > limit {
			return nil, fmt.Errorf("%w: content needs %dpx, document may grow to %dpx", ErrLayoutOverflow, need, limit)
		}
		final = need
	}

	return &Layout{
		Width:    width,
		Height:   final,
		Planned:  height,
		Margin:   margin,
		Sections: b.sections,
	}, nil
}

// stacker acumula secciones de arriba hacia abajo
type stacker struct {
	engine   *Engine
	p        params
	s        *rng.Stream
	x0, cw   int
	cursor   int
	planned  int
	sections []Section
}

// text un texto pendiente de ubicar
type text struct {
	value string
	field Field
	style render.Style
}

func (b *stacker) build(c *content.ReceiptContent) error {
	h := b.engine.spec.Layout.Heights
	sp := b.engine.spec.Layout.Spacing

	steps := []func() error{
		func() error {
			return b.single(KindShopName, h.ShopName, b.p.fill, b.p.align, text{c.ShopName, FieldShopName, render.Bold}, -1)
		},
		func() error {
			return b.single(KindShopAddress, h.ShopAddress, b.p.fill, b.p.align, text{c.ShopAddress, FieldShopAddress, render.Regular}, -1)
		},
		func() error {
			if err := b.single(KindShopTaxID, h.ShopTaxID, b.p.fill, b.p.align, text{c.ShopTaxID, FieldShopTaxID, render.Regular}, -1); err != nil {
				return err
			}
			b.space(sp.AfterShopName)
			return nil
		},
		func() error { return b.separator(AnchorHeader, sp.AfterSeparator) },
		func() error {
			err := b.pair(KindDateNumber, h.DateNumber, -1,
				text{c.DateText(), FieldDate, render.Regular},
				text{c.NumberText(), FieldNumber, render.Regular}, false)
			b.space(sp.AfterDateNumber)
			return err
		},
		func() error {
			err := b.single(KindTitle, h.ReceiptHeader, b.p.headerScale, render.AlignCenter, text{c.Title, FieldTitle, render.Bold}, -1)
			b.space(sp.AfterReceiptHeader)
			return err
		},
		func() error {
			err := b.separator(AnchorTitle, sp.AfterSeparator)
			b.space(sp.BeforeProducts)
			return err
		},
		func() error {
			for i, it := range c.Items {
				price := it.PriceLine(c.Format).Render(c.Format.PriceStyle)
				if err := b.pair(KindProduct, h.Product, i,
					text{it.Name, FieldProductName, render.Regular},
					text{price, FieldProductPrice, render.Regular}, true); err != nil {
					return err
				}
			}
			b.space(sp.AfterProducts)
			return nil
		},
		func() error { return b.separator(AnchorProducts, sp.AfterSeparator) },
		func() error {
			for i, v := range c.VAT {
				if err := b.pair(KindVAT, h.VATLine, i,
					text{v.NetLabel(), FieldVATLabel, render.Regular},
					text{c.Amount(v.Net), FieldVATNet, render.Regular}, false); err != nil {
					return err
				}
				if err := b.pair(KindVAT, h.VATLine, i,
					text{v.TaxLabel(), FieldVATLabel, render.Regular},
					text{c.Amount(v.Tax), FieldVATTax, render.Regular}, false); err != nil {
					return err
				}
			}
			return nil
		},
		func() error {
			err := b.separator(AnchorVAT, sp.AfterSeparator)
			b.space(sp.BeforePayment)
			return err
		},
		func() error {
			return b.pair(KindTotal, h.TotalSum, -1,
				text{c.Format.SumLabel, FieldTotalLabel, render.Bold},
				text{c.TotalText(), FieldTotalAmount, render.Bold}, false)
		},
		func() error {
			err := b.pair(KindPayment, h.PaymentMethod, -1,
				text{c.PaymentLabel(), FieldPaymentLabel, render.Regular},
				text{c.PaymentText(), FieldPaymentAmount, render.Regular}, false)
			b.space(sp.AfterPayment)
			return err
		},
		func() error { return b.separator(AnchorPayment, sp.AfterSeparator) },
		func() error {
			return b.single(KindFooter, h.Footer, b.p.fill, b.p.align, text{c.Footer, FieldFooter, render.Regular}, -1)
		},
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// space añade el espaciado fijo de una transición más una fracción muestreada
// del alto del documento
func (b *stacker) space(fixed int) {
	ss := b.engine.spec.Layout.StackSpacing
	extra := b.s.Uniform(ss.Min(), ss.Max()) * float64(b.planned)
	b.cursor += fixed + int(math.Round(extra))
}

func (b *stacker) push(kind Kind, anchor Anchor, height int, runs ...Run) {
	b.sections = append(b.sections, Section{
		Kind:   kind,
		Anchor: anchor,
		Top:    b.cursor,
		Height: height,
		Runs:   runs,
	})
	b.cursor += height
}

func (b *stacker) place(t text, item int, size float64, width int, align render.Align, top, height int) Run {
	x := b.x0
	switch align {
	case render.AlignCenter:
		x = b.x0 + (b.cw-width)/2
	case render.AlignRight:
		x = b.x0 + b.cw - width
	}
	return Run{
		Text:  t.value,
		Field: t.field,
		Item:  item,
		Style: t.style,
		Size:  size,
		Align: align,
		Box:   image.Rect(x, top, x+width, top+height),
	}
}

// single una fila con un texto; se reduce hasta min_size para caber
func (b *stacker) single(kind Kind, height int, scale float64, align render.Align, t text, item int) error {
	size, ok := b.fit(t.value, t.style, b.inkCap(t.style, float64(height)*scale, height), b.minSize(), b.cw)
	if !ok {
		return fmt.Errorf("%w: %s %q does not fit %dpx", ErrLayoutOverflow, kind, t.value, b.cw)
	}
	w := b.engine.measurer.Width(t.value, t.style, size)
	b.push(kind, "", height, b.place(t, item, size, w, align, b.cursor, height))
	return nil
}

// pair texto a la izquierda e importe a la derecha. Si no caben juntos en un
// tamaño legible, el texto va en su propia fila (partido en varias si wrap)
// y el importe en la siguiente, salvo que quepa junto a la última línea.
func (b *stacker) pair(kind Kind, height, item int, left, right text, wrap bool) error {
	m := b.engine.measurer
	nominal := float64(height) * b.p.fill
	nominal = math.Min(b.inkCap(left.style, nominal, height), b.inkCap(right.style, nominal, height))
	floor := math.Max(b.minSize(), math.Floor(nominal*legibleShrink))

	for size := math.Floor(nominal); size >= floor; size-- {
		wl := m.Width(left.value, left.style, size)
		wr := m.Width(right.value, right.style, size)
		if wl+b.gap(size)+wr <= b.cw {
			b.push(kind, "", height,
				b.place(left, item, size, wl, render.AlignLeft, b.cursor, height),
				b.place(right, item, size, wr, render.AlignRight, b.cursor, height))
			return nil
		}
	}

	rsize, ok := b.fit(right.value, right.style, nominal, b.minSize(), b.cw)
	if !ok {
		return fmt.Errorf("%w: %s %q does not fit %dpx", ErrLayoutOverflow, kind, right.value, b.cw)
	}
	wr := m.Width(right.value, right.style, rsize)

	lines := []string{left.value}
	lsize, fits := b.fit(left.value, left.style, nominal, floor, b.cw)
	if !fits {
		if !wrap {
			lsize, fits = b.fit(left.value, left.style, nominal, b.minSize(), b.cw)
			if !fits {
				return fmt.Errorf("%w: %s %q does not fit %dpx", ErrLayoutOverflow, kind, left.value, b.cw)
			}
		} else {
			lsize = math.Floor(nominal)
			var err error
			if lines, err = b.wrap(left.value, left.style, lsize); err != nil {
				return fmt.Errorf("%w: %s", err, kind)
			}
		}
	}

	for i, line := range lines {
		t := text{line, left.field, left.style}
		wl := m.Width(line, left.style, lsize)
		last := i == len(lines)-1
		if last && len(lines) > 1 && rsize == lsize && wl+b.gap(lsize)+wr <= b.cw {
			b.push(kind, "", height,
				b.place(t, item, lsize, wl, render.AlignLeft, b.cursor, height),
				b.place(right, item, rsize, wr, render.AlignRight, b.cursor, height))
			return nil
		}
		b.push(kind, "", height, b.place(t, item, lsize, wl, render.AlignLeft, b.cursor, height))
	}
	b.push(kind, "", height, b.place(right, item, rsize, wr, render.AlignRight, b.cursor, height))
	return nil
}

// separator añade un separador si su ancla salió en el sorteo
func (b *stacker) separator(anchor Anchor, after int) error {
	if !b.p.anchors[anchor] {
		return nil
	}
	height := b.engine.spec.Layout.Heights.Separator
	size := b.inkCap(render.Regular, float64(height)*b.p.fill, height)

	glyph := b.engine.measurer.Width(b.p.sepSymbol, render.Regular, size)
	if glyph <= 0 {
		return fmt.Errorf("%w: separator glyph %q has no width", ErrLayoutOverflow, b.p.sepSymbol)
	}
	n := int(b.p.sepFraction * float64(b.cw) / float64(glyph))
	if n < 3 {
		n = 3
	}
	if limit := b.cw / glyph; n > limit {
		n = limit
	}
	value := strings.Repeat(b.p.sepSymbol, n)
	w := b.engine.measurer.Width(value, render.Regular, size)

	b.push(KindSeparator, anchor, height,
		b.place(text{value, FieldSeparator, render.Regular}, -1, size, w, render.AlignCenter, b.cursor, height))
	b.space(after)
	return nil
}

// fit mayor tamaño entero en [floor, size] con el que text cabe en maxWidth
func (b *stacker) fit(value string, style render.Style, size, floor float64, maxWidth int) (float64, bool) {
	start := math.Floor(size)
	if start < floor {
		start = floor
	}
	for sz := start; sz >= floor; sz-- {
		if b.engine.measurer.Width(value, style, sz) <= maxWidth {
			return sz, true
		}
	}
	return floor, false
}

// wrap parte un texto en líneas que caben en el ancho de contenido; las
// palabras más largas que una línea se parten por carácter
func (b *stacker) wrap(value string, style render.Style, size float64) ([]string, error) {
	m := b.engine.measurer
	var lines []string
	current := ""

	for _, word := range strings.Fields(value) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if m.Width(candidate, style, size) <= b.cw {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
		for m.Width(word, style, size) > b.cw {
			runes := []rune(word)
			if m.Width(string(runes[:1]), style, size) > b.cw {
				return nil, fmt.Errorf("%w: glyph %q wider than %dpx", ErrLayoutOverflow, runes[0], b.cw)
			}
			cut := len(runes) - 1
			for cut > 1 && m.Width(string(runes[:cut]), style, size) > b.cw {
				cut--
			}
			lines = append(lines, string(runes[:cut]))
			word = string(runes[cut:])
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines, nil
}

func (b *stacker) gap(size float64) int {
	return b.engine.measurer.Width(" ", render.Regular, size)
}

func (b *stacker) minSize() float64 {
	return float64(b.engine.spec.Font.MinSize)
}

// inkCap mayor tamaño entero <= size cuyo ascent+descent cabe en height;
// nunca baja de min_size
func (b *stacker) inkCap(style render.Style, size float64, height int) float64 {
	sz := math.Floor(size)
	for sz > b.minSize() && b.engine.measurer.LineHeight(style, sz) > height {
		sz--
	}
	return math.Max(sz, b.minSize())
}
