// Package format elige y aplica las variantes textuales de un recibo:
// separador decimal, signo de multiplicación, unidad, estilo de precio,
// estilo de fecha, etiqueta de suma y plantilla de número de recibo.
package format

import (
	"errors"
	"fmt"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/rng"
)

// ErrEmptyCatalog catálogo vacío o sin pesos positivos
var ErrEmptyCatalog = errors.New("empty weighted catalog")

// Choose elige un valor del catálogo con probabilidad proporcional a su peso
func Choose(s *rng.Stream, catalog []config.WeightedValue) (string, error) {
	if len(catalog) == 0 {
		return "", ErrEmptyCatalog
	}
	weights := make([]float64, len(catalog))
	for i, v := range catalog {
		weights[i] = v.Weight
	}
	idx, err := s.Choice(weights)
	if err != nil {
		return "", ErrEmptyCatalog
	}
	return catalog[idx].Value, nil
}

// Choices variantes elegidas para un recibo. Se eligen una vez y se aplican
// a todas las superficies del recibo.
type Choices struct {
	MultiplySign   string
	Unit           string
	DecimalSep     string
	PriceStyle     PriceStyle
	DateStyle      DateStyle
	SumLabel       string
	NumberTemplate string
}

// ChooseAll elige todas las variantes en orden fijo
func ChooseAll(s *rng.Stream, f config.FormattingSpec) (Choices, error) {
	var c Choices
	steps := []struct {
		name    string
		catalog []config.WeightedValue
		dst     *string
	}{
		{"multiply_signs", f.MultiplySigns, &c.MultiplySign},
		{"unit_formats", f.UnitFormats, &c.Unit},
		{"decimal_separators", f.DecimalSeparators, &c.DecimalSep},
		{"price_formats", f.PriceFormats, (*string)(&c.PriceStyle)},
		{"date_formats", f.DateFormats, (*string)(&c.DateStyle)},
		{"sum_formats", f.SumFormats, &c.SumLabel},
		{"receipt_number_formats", f.ReceiptNumberFormats, &c.NumberTemplate},
	}
	for _, step := range steps {
		v, err := Choose(s, step.catalog)
		if err != nil {
			return Choices{}, fmt.Errorf("%s: %w", step.name, err)
		}
		*step.dst = v
	}
	return c, nil
}
