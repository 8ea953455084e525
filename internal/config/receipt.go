package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig se retorna para cualquier configuración de recibo inválida
var ErrInvalidConfig = errors.New("invalid receipt configuration")

// IntRange rango cerrado [min, max] de enteros
type IntRange [2]int

// Min retorna el límite inferior
func (r IntRange) Min() int { return r[0] }

// Max retorna el límite superior
func (r IntRange) Max() int { return r[1] }

// FloatRange rango cerrado [min, max] de flotantes
type FloatRange [2]float64

// Min retorna el límite inferior
func (r FloatRange) Min() float64 { return r[0] }

// Max retorna el límite superior
func (r FloatRange) Max() float64 { return r[1] }

// WeightedValue una variante textual con su peso
type WeightedValue struct {
	Value  string  `yaml:"value"`
	Weight float64 `yaml:"weight"`
}

// ReceiptSpec configuración completa de una corrida de generación.
// Inmutable una vez validada.
type ReceiptSpec struct {
	Quality     IntRange   `yaml:"quality"`
	Landscape   float64    `yaml:"landscape"`
	ShortSize   IntRange   `yaml:"short_size"`
	AspectRatio FloatRange `yaml:"aspect_ratio"`

	Background BackgroundSpec    `yaml:"background"`
	Document   DocumentSpec      `yaml:"document"`
	Effect     GlobalEffectsSpec `yaml:"effect"`
	Splits     SplitSpec         `yaml:"splits"`
}

type BackgroundSpec struct {
	TextureDir string     `yaml:"texture_dir"`
	Alpha      FloatRange `yaml:"alpha"`
	Gray       IntRange   `yaml:"gray"`
	Blur       BlurSpec   `yaml:"blur"`
}

type DocumentSpec struct {
	Fullscreen  float64    `yaml:"fullscreen"`
	Landscape   float64    `yaml:"landscape"`
	ShortSize   IntRange   `yaml:"short_size"`
	AspectRatio FloatRange `yaml:"aspect_ratio"`

	Paper   PaperSpec           `yaml:"paper"`
	Content ContentSpec         `yaml:"content"`
	Effects DocumentEffectsSpec `yaml:"effects"`
}

type PaperSpec struct {
	TextureDir string     `yaml:"texture_dir"`
	Alpha      FloatRange `yaml:"alpha"`
	Gray       IntRange   `yaml:"gray"`
}

type ContentSpec struct {
	Margin        float64        `yaml:"margin"`
	ProductsCount IntRange       `yaml:"products_count"`
	CorpusPath    string         `yaml:"corpus_path"`
	Currency      string         `yaml:"currency"`
	Font          FontSpec       `yaml:"font"`
	Layout        LayoutSpec     `yaml:"layout"`
	Textbox       TextboxSpec    `yaml:"textbox"`
	Color         ColorSpec      `yaml:"color"`
	DateRange     DateRangeSpec  `yaml:"date_range"`
	Formatting    FormattingSpec `yaml:"formatting"`
}

type FontSpec struct {
	// Path y BoldPath apuntan a fuentes TTF/OTF; vacío usa Go Mono embebida
	Path     string `yaml:"path"`
	BoldPath string `yaml:"bold_path"`
	MinSize  int    `yaml:"min_size"`
}

type TextboxSpec struct {
	Fill FloatRange `yaml:"fill"`
}

type ColorSpec struct {
	Gray IntRange `yaml:"gray"`
}

type DateRangeSpec struct {
	MinDaysBack int `yaml:"min_days_back"`
	MaxDaysBack int `yaml:"max_days_back"`
	MinHour     int `yaml:"min_hour"`
	MaxHour     int `yaml:"max_hour"`
}

type FormattingSpec struct {
	MultiplySigns        []WeightedValue `yaml:"multiply_signs"`
	UnitFormats          []WeightedValue `yaml:"unit_formats"`
	DecimalSeparators    []WeightedValue `yaml:"decimal_separators"`
	PriceFormats         []WeightedValue `yaml:"price_formats"`
	DateFormats          []WeightedValue `yaml:"date_formats"`
	SumFormats           []WeightedValue `yaml:"sum_formats"`
	ReceiptNumberFormats []WeightedValue `yaml:"receipt_number_formats"`
}

type LayoutSpec struct {
	Align        []string      `yaml:"align"`
	StackSpacing FloatRange    `yaml:"stack_spacing"`
	HeaderScale  FloatRange    `yaml:"header_scale"`
	MaxGrowth    float64       `yaml:"max_growth"`
	Heights      HeightsSpec   `yaml:"heights"`
	Spacing      SpacingSpec   `yaml:"spacing"`
	Separators   SeparatorSpec `yaml:"separators"`
}

type HeightsSpec struct {
	ShopName      int `yaml:"shop_name"`
	ShopAddress   int `yaml:"shop_address"`
	ShopTaxID     int `yaml:"shop_tax_id"`
	DateNumber    int `yaml:"date_number"`
	ReceiptHeader int `yaml:"receipt_header"`
	Separator     int `yaml:"separator"`
	Product       int `yaml:"product"`
	VATLine       int `yaml:"vat_line"`
	TotalSum      int `yaml:"total_sum"`
	PaymentMethod int `yaml:"payment_method"`
	Footer        int `yaml:"footer"`
}

type SpacingSpec struct {
	AfterShopName      int `yaml:"after_shop_name"`
	AfterDateNumber    int `yaml:"after_date_number"`
	AfterReceiptHeader int `yaml:"after_receipt_header"`
	AfterSeparator     int `yaml:"after_separator"`
	BeforeProducts     int `yaml:"before_products"`
	AfterProducts      int `yaml:"after_products"`
	BeforePayment      int `yaml:"before_payment"`
	AfterPayment       int `yaml:"after_payment"`
}

type SeparatorType struct {
	Symbol string  `yaml:"symbol"`
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
	// Length > 0 reemplaza el rango global de longitud
	Length float64 `yaml:"length"`
}

type SeparatorAnchors struct {
	Header   float64 `yaml:"header"`
	Title    float64 `yaml:"title"`
	Products float64 `yaml:"products"`
	VAT      float64 `yaml:"vat"`
	Payment  float64 `yaml:"payment"`
}

type SeparatorSpec struct {
	Types     []SeparatorType  `yaml:"types"`
	Locations SeparatorAnchors `yaml:"locations"`
	Length    FloatRange       `yaml:"length"`
}

// BlurSpec etapa de desenfoque gaussiano con compuerta
type BlurSpec struct {
	Prob  float64    `yaml:"prob"`
	Sigma FloatRange `yaml:"sigma"`
}

type DocumentEffectsSpec struct {
	ElasticDistortion ElasticSpec     `yaml:"elastic_distortion"`
	Noise             NoiseSpec       `yaml:"noise"`
	Perspective       PerspectiveSpec `yaml:"perspective"`
}

type ElasticSpec struct {
	Prob       float64    `yaml:"prob"`
	Strength   FloatRange `yaml:"strength"`
	Smoothness FloatRange `yaml:"smoothness"`
}

type NoiseSpec struct {
	Prob       float64    `yaml:"prob"`
	Scale      FloatRange `yaml:"scale"`
	PerChannel float64    `yaml:"per_channel"`
}

type PerspectiveSpec struct {
	Prob     float64              `yaml:"prob"`
	Variants []PerspectiveVariant `yaml:"variants"`
}

// PerspectiveVariant desplazamiento hacia adentro de cada esquina, como
// fracción del tamaño del documento. Orden: TL, TR, BR, BL.
type PerspectiveVariant struct {
	Name    string        `yaml:"name"`
	Weight  float64       `yaml:"weight"`
	Corners [4]FloatRange `yaml:"corners"`
}

type GlobalEffectsSpec struct {
	ColorTint    TintSpec       `yaml:"color_tint"`
	Shadow       ShadowSpec     `yaml:"shadow"`
	Contrast     ContrastSpec   `yaml:"contrast"`
	Brightness   BrightnessSpec `yaml:"brightness"`
	MotionBlur   MotionBlurSpec `yaml:"motion_blur"`
	GaussianBlur BlurSpec       `yaml:"gaussian_blur"`
}

type TintSpec struct {
	Prob  float64  `yaml:"prob"`
	Shift IntRange `yaml:"shift"`
}

type ShadowSpec struct {
	Prob          float64    `yaml:"prob"`
	Intensity     FloatRange `yaml:"intensity"`
	Amount        FloatRange `yaml:"amount"`
	Smoothing     FloatRange `yaml:"smoothing"`
	Bidirectional float64    `yaml:"bidirectional"`
}

type ContrastSpec struct {
	Prob  float64    `yaml:"prob"`
	Alpha FloatRange `yaml:"alpha"`
}

type BrightnessSpec struct {
	Prob float64    `yaml:"prob"`
	Beta FloatRange `yaml:"beta"`
}

type MotionBlurSpec struct {
	Prob  float64    `yaml:"prob"`
	K     IntRange   `yaml:"k"`
	Angle FloatRange `yaml:"angle"`
}

type SplitSpec struct {
	Ratios    []float64 `yaml:"ratios"`
	TableSize int       `yaml:"table_size"`
}

// LoadReceiptSpec lee un YAML y lo mezcla sobre los valores por defecto.
// Un path vacío retorna los valores por defecto.
func LoadReceiptSpec(path string) (*ReceiptSpec, error) {
	spec := DefaultReceiptSpec()
	if path == "" {
		return spec, spec.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrInvalidConfig, path, err)
	}

	return ParseReceiptSpec(data)
}

// ParseReceiptSpec decodifica YAML sobre los valores por defecto.
// Los mapas/estructuras se mezclan; las listas se reemplazan completas.
func ParseReceiptSpec(data []byte) (*ReceiptSpec, error) {
	spec := DefaultReceiptSpec()
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("%w: invalid YAML: %v", ErrInvalidConfig, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// DefaultReceiptSpec valores por defecto de un paragon polaco
func DefaultReceiptSpec() *ReceiptSpec {
	return &ReceiptSpec{
		Quality:     IntRange{70, 95},
		Landscape:   0.0,
		ShortSize:   IntRange{480, 720},
		AspectRatio: FloatRange{2, 4},

		Background: BackgroundSpec{
			Alpha: FloatRange{0.3, 0.7},
			Gray:  IntRange{60, 200},
			Blur:  BlurSpec{Prob: 0.5, Sigma: FloatRange{0.5, 2.0}},
		},

		Document: DocumentSpec{
			Fullscreen:  1.0,
			Landscape:   0.0,
			ShortSize:   IntRange{250, 480},
			AspectRatio: FloatRange{2, 3},
			Paper: PaperSpec{
				Alpha: FloatRange{0.0, 0.3},
				Gray:  IntRange{230, 255},
			},
			Content: ContentSpec{
				Margin:        0.05,
				ProductsCount: IntRange{3, 15},
				Currency:      "PLN",
				Font:          FontSpec{MinSize: 8},
				Textbox:       TextboxSpec{Fill: FloatRange{0.65, 0.8}},
				Color:         ColorSpec{Gray: IntRange{0, 70}},
				DateRange: DateRangeSpec{
					MinDaysBack: 0,
					MaxDaysBack: 730,
					MinHour:     8,
					MaxHour:     21,
				},
				Formatting: defaultFormatting(),
				Layout: LayoutSpec{
					Align:        []string{"left", "center"},
					StackSpacing: FloatRange{0.0, 0.004},
					HeaderScale:  FloatRange{0.7, 0.9},
					MaxGrowth:    3.0,
					Heights: HeightsSpec{
						ShopName:      25,
						ShopAddress:   20,
						ShopTaxID:     20,
						DateNumber:    20,
						ReceiptHeader: 30,
						Separator:     15,
						Product:       25,
						VATLine:       20,
						TotalSum:      30,
						PaymentMethod: 20,
						Footer:        20,
					},
					Spacing: SpacingSpec{
						AfterShopName:      5,
						AfterDateNumber:    5,
						AfterReceiptHeader: 5,
						AfterSeparator:     5,
						BeforeProducts:     10,
						AfterProducts:      5,
						BeforePayment:      10,
						AfterPayment:       10,
					},
					Separators: SeparatorSpec{
						Types: []SeparatorType{
							{Symbol: "-", Name: "dash", Weight: 6, Length: 0.4},
							{Symbol: ".", Name: "dot", Weight: 2, Length: 0.5},
							{Symbol: "*", Name: "star", Weight: 2, Length: 0.21},
						},
						Locations: SeparatorAnchors{
							Header:   0.9,
							Title:    0.95,
							Products: 0.8,
							VAT:      0.6,
							Payment:  0.7,
						},
						Length: FloatRange{0.34, 0.36},
					},
				},
			},
			Effects: DocumentEffectsSpec{
				ElasticDistortion: ElasticSpec{
					Prob:       0.5,
					Strength:   FloatRange{0.0, 2.5},
					Smoothness: FloatRange{4.0, 8.0},
				},
				Noise: NoiseSpec{
					Prob:       0.5,
					Scale:      FloatRange{0.0, 8.0},
					PerChannel: 0.5,
				},
				Perspective: PerspectiveSpec{
					Prob:     0.8,
					Variants: defaultPerspectiveVariants(),
				},
			},
		},

		Effect: GlobalEffectsSpec{
			ColorTint:    TintSpec{Prob: 0.0, Shift: IntRange{-20, 20}},
			Shadow:       ShadowSpec{Prob: 0.5, Intensity: FloatRange{0, 160}, Amount: FloatRange{0, 1}, Smoothing: FloatRange{0.5, 1}, Bidirectional: 0},
			Contrast:     ContrastSpec{Prob: 0.5, Alpha: FloatRange{0.5, 1.5}},
			Brightness:   BrightnessSpec{Prob: 0.5, Beta: FloatRange{-48, 48}},
			MotionBlur:   MotionBlurSpec{Prob: 0.5, K: IntRange{3, 5}, Angle: FloatRange{0, 360}},
			GaussianBlur: BlurSpec{Prob: 0.5, Sigma: FloatRange{0, 1.5}},
		},

		Splits: SplitSpec{
			Ratios:    []float64{0.7, 0.15, 0.15},
			TableSize: 10000,
		},
	}
}

func defaultFormatting() FormattingSpec {
	return FormattingSpec{
		MultiplySigns:     []WeightedValue{{"x", 5}, {"*", 1}, {"X", 1}},
		UnitFormats:       []WeightedValue{{"szt.", 1}, {"szt", 4}, {"", 2}},
		DecimalSeparators: []WeightedValue{{".", 1}, {",", 9}},
		PriceFormats:      []WeightedValue{{"standard", 5}, {"no_spaces", 2}, {"hybrid", 5}},
		DateFormats:       []WeightedValue{{"dash", 4}, {"dot", 3}, {"slash", 2}},
		SumFormats:        []WeightedValue{{"SUMA PLN:", 8}, {"SUMA:", 1}, {"RAZEM:", 1}},
		ReceiptNumberFormats: []WeightedValue{
			{"Nr paragonu: {number}", 5},
			{"Paragon nr {number}", 3},
			{"#{number}", 2},
			{"FV {number}", 1},
		},
	}
}

func defaultPerspectiveVariants() []PerspectiveVariant {
	uniform := func(lo, hi float64) [4]FloatRange {
		return [4]FloatRange{{lo, hi}, {lo, hi}, {lo, hi}, {lo, hi}}
	}
	return []PerspectiveVariant{
		{Name: "identity", Weight: 1, Corners: uniform(0, 0)},
		{Name: "flat_scan", Weight: 8, Corners: uniform(0, 0.01)},
		{Name: "slight", Weight: 5, Corners: uniform(0.005, 0.03)},
		{Name: "top_tilt", Weight: 2, Corners: [4]FloatRange{{0.02, 0.06}, {0.02, 0.06}, {0, 0.01}, {0, 0.01}}},
		{Name: "bottom_tilt", Weight: 2, Corners: [4]FloatRange{{0, 0.01}, {0, 0.01}, {0.02, 0.06}, {0.02, 0.06}}},
		{Name: "left_tilt", Weight: 1, Corners: [4]FloatRange{{0.02, 0.05}, {0, 0.01}, {0, 0.01}, {0.02, 0.05}}},
		{Name: "right_tilt", Weight: 1, Corners: [4]FloatRange{{0, 0.01}, {0.02, 0.05}, {0.02, 0.05}, {0, 0.01}}},
		{Name: "strong", Weight: 1, Corners: uniform(0.03, 0.08)},
	}
}
