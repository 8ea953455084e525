package content

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

// ErrCorpus corpus ilegible o incompleto
var ErrCorpus = errors.New("invalid text corpus")

//go:embed corpus_pl.json
var defaultCorpus []byte

// Corpus fuente de nombres de tiendas, productos y textos fijos
type Corpus struct {
	ShopNames      []string                  `json:"shop_names"`
	CompanyInfo    CompanyInfo               `json:"company_info"`
	Products       ProductCatalog            `json:"products"`
	QuantityRanges map[string]QuantityConfig `json:"quantity_ranges"`
	ReceiptHeaders []string                  `json:"receipt_headers"`
	ReceiptFooters []string                  `json:"receipt_footers"`
	PaymentMethods []string                  `json:"payment_methods"`
}

type CompanyInfo struct {
	Addresses []string `json:"addresses"`
	TaxIDs    []string `json:"tax_ids"`
}

type ProductCatalog struct {
	Grocery []Product `json:"grocery"`
}

// Product entrada del catálogo de productos
type Product struct {
	Name       string     `json:"name"`
	Unit       string     `json:"unit"`
	PriceRange [2]float64 `json:"price_range"`
	VATSymbol  string     `json:"vat_symbol"`
	VATRate    string     `json:"vat_rate"`
}

type QuantityConfig struct {
	Ranges []QuantityRange `json:"ranges"`
}

type QuantityRange struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Weight float64 `json:"weight"`
}

// LoadCorpus carga el corpus desde un archivo JSON; path vacío usa el
// corpus polaco embebido
func LoadCorpus(path string) (*Corpus, error) {
	data := defaultCorpus
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read %s: %v", ErrCorpus, path, err)
		}
	}
	return ParseCorpus(data)
}

// ParseCorpus decodifica y valida un corpus
func ParseCorpus(data []byte) (*Corpus, error) {
	var c Corpus
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpus, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate verifica que todas las listas tengan al menos un elemento
func (c *Corpus) Validate() error {
	lists := []struct {
		name string
		n    int
	}{
		{"shop_names", len(c.ShopNames)},
		{"company_info.addresses", len(c.CompanyInfo.Addresses)},
		{"company_info.tax_ids", len(c.CompanyInfo.TaxIDs)},
		{"products.grocery", len(c.Products.Grocery)},
		{"receipt_headers", len(c.ReceiptHeaders)},
		{"receipt_footers", len(c.ReceiptFooters)},
		{"payment_methods", len(c.PaymentMethods)},
	}
	for _, l := range lists {
		if l.n == 0 {
			return fmt.Errorf("%w: %s is empty", ErrCorpus, l.name)
		}
	}

	for _, p := range c.Products.Grocery {
		if p.Name == "" {
			return fmt.Errorf("%w: product without name", ErrCorpus)
		}
		if p.PriceRange[0] <= 0 || p.PriceRange[1] < p.PriceRange[0] {
			return fmt.Errorf("%w: invalid price_range for %q", ErrCorpus, p.Name)
		}
		if _, err := p.Rate(); err != nil {
			return fmt.Errorf("%w: %v", ErrCorpus, err)
		}
	}

	for unit, q := range c.QuantityRanges {
		if len(q.Ranges) == 0 {
			return fmt.Errorf("%w: quantity_ranges.%s has no ranges", ErrCorpus, unit)
		}
		for _, r := range q.Ranges {
			if r.Min <= 0 || r.Max < r.Min || r.Weight < 0 {
				return fmt.Errorf("%w: invalid quantity range for %s", ErrCorpus, unit)
			}
		}
	}
	return nil
}

var rateDigits = regexp.MustCompile(`[^0-9.]`)

// Rate convierte "23%" en 0.23
func (p Product) Rate() (decimal.Decimal, error) {
	raw := rateDigits.ReplaceAllString(p.VATRate, "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid vat_rate %q for %q", p.VATRate, p.Name)
	}
	return decimal.NewFromFloat(v).Div(decimal.NewFromInt(100)), nil
}
