package content

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/format"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/rng"
)

// Builder genera ReceiptContent a partir de la configuración y el corpus
type Builder struct {
	spec   config.ContentSpec
	corpus *Corpus
	now    time.Time
	rates  map[string]decimal.Decimal
}

// NewBuilder crea un builder. now es la hora de referencia de la corrida;
// las fechas se muestrean hacia atrás desde ella.
func NewBuilder(spec config.ContentSpec, corpus *Corpus, now time.Time) (*Builder, error) {
	if err := corpus.Validate(); err != nil {
		return nil, err
	}

	rates := make(map[string]decimal.Decimal)
	for _, p := range corpus.Products.Grocery {
		rate, err := p.Rate()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorpus, err)
		}
		if prev, ok := rates[p.VATSymbol]; ok && !prev.Equal(rate) {
			return nil, fmt.Errorf("%w: vat symbol %q has conflicting rates", ErrCorpus, p.VATSymbol)
		}
		rates[p.VATSymbol] = rate
	}

	return &Builder{spec: spec, corpus: corpus, now: now, rates: rates}, nil
}

// Build sintetiza un recibo. El orden de extracción del flujo es fijo:
// variantes de formato, tienda, fecha, número, título, productos, pago, pie.
func (b *Builder) Build(s *rng.Stream) (*ReceiptContent, error) {
	choices, err := format.ChooseAll(s, b.spec.Formatting)
	if err != nil {
		return nil, err
	}

	c := &ReceiptContent{
		Format:   choices,
		Currency: b.spec.Currency,
	}

	c.ShopName = pick(s, b.corpus.ShopNames)
	c.ShopAddress = pick(s, b.corpus.CompanyInfo.Addresses)
	c.ShopTaxID = pick(s, b.corpus.CompanyInfo.TaxIDs)

	c.Timestamp = b.sampleTimestamp(s)
	c.Number = fmt.Sprintf("%04d/%d/%d", s.IntRange(1, 9999), int(c.Timestamp.Month()), c.Timestamp.Year())
	c.Title = pick(s, b.corpus.ReceiptHeaders)

	count := s.IntRange(b.spec.ProductsCount.Min(), b.spec.ProductsCount.Max())
	c.Items = make([]LineItem, 0, count)
	for i := 0; i < count; i++ {
		item, err := b.sampleItem(s)
		if err != nil {
			return nil, err
		}
		c.Items = append(c.Items, item)
	}
	c.Total = SumTotals(c.Items)
	c.VAT = Summarize(c.Items, b.rates)

	c.PaymentMethod = pick(s, b.corpus.PaymentMethods)
	c.Footer = pick(s, b.corpus.ReceiptFooters)

	return c, nil
}

func (b *Builder) sampleTimestamp(s *rng.Stream) time.Time {
	d := b.spec.DateRange
	daysBack := s.IntRange(d.MinDaysBack, d.MaxDaysBack)
	hour := s.IntRange(d.MinHour, d.MaxHour)
	minute := s.IntRange(0, 59)

	day := b.now.AddDate(0, 0, -daysBack)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, b.now.Location())
}

func (b *Builder) sampleItem(s *rng.Stream) (LineItem, error) {
	products := b.corpus.Products.Grocery
	p := products[s.IntN(len(products))]

	qty, err := b.sampleQuantity(s, p.Unit)
	if err != nil {
		return LineItem{}, err
	}
	price := decimal.NewFromFloat(s.Uniform(p.PriceRange[0], p.PriceRange[1])).Round(2)
	if price.IsZero() {
		price = decimal.NewFromFloat(0.01)
	}

	return NewLineItem(p.Name, qty, p.Unit, price, p.VATSymbol, p.VATRate), nil
}

func (b *Builder) sampleQuantity(s *rng.Stream, unit string) (decimal.Decimal, error) {
	lo, hi := 1.0, 20.0
	if format.IsMeasured(unit) {
		lo, hi = 0.1, 12.0
	}

	if q, ok := b.corpus.QuantityRanges[unit]; ok {
		weights := make([]float64, len(q.Ranges))
		for i, r := range q.Ranges {
			weights[i] = r.Weight
		}
		idx, err := s.Choice(weights)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: quantity_ranges.%s: %v", ErrCorpus, unit, err)
		}
		lo, hi = q.Ranges[idx].Min, q.Ranges[idx].Max
	}

	if format.IsMeasured(unit) {
		qty := decimal.NewFromFloat(s.Uniform(lo, hi)).Round(2)
		if qty.LessThanOrEqual(decimal.Zero) {
			qty = decimal.NewFromFloat(0.01)
		}
		return qty, nil
	}
	return decimal.NewFromInt(int64(s.IntRange(int(math.Ceil(lo)), int(math.Floor(hi))))), nil
}

func pick(s *rng.Stream, values []string) string {
	return values[s.IntN(len(values))]
}
