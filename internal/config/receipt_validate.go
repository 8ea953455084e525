package config

import (
	"fmt"
	"maps"
	"slices"
)

// Validate verifica la configuración completa; cualquier error envuelve ErrInvalidConfig
func (s *ReceiptSpec) Validate() error {
	checks := []func() error{
		s.validateCanvas,
		s.validateContent,
		s.validateLayout,
		s.validateEffects,
		s.validateSplits,
		s.validateFit,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (s *ReceiptSpec) validateCanvas() error {
	if err := intRange("quality", s.Quality, 1); err != nil {
		return err
	}
	if s.Quality.Max() > 100 {
		return fmt.Errorf("quality must be <= 100, got %d", s.Quality.Max())
	}
	if err := intRange("short_size", s.ShortSize, 1); err != nil {
		return err
	}
	if err := floatRange("aspect_ratio", s.AspectRatio, true); err != nil {
		return err
	}
	if err := probability("landscape", s.Landscape); err != nil {
		return err
	}

	bg := s.Background
	if err := unitRange("background.alpha", bg.Alpha); err != nil {
		return err
	}
	if err := grayRange("background.gray", bg.Gray); err != nil {
		return err
	}
	if err := probability("background.blur.prob", bg.Blur.Prob); err != nil {
		return err
	}
	if err := floatRange("background.blur.sigma", bg.Blur.Sigma, false); err != nil {
		return err
	}

	doc := s.Document
	if err := probability("document.fullscreen", doc.Fullscreen); err != nil {
		return err
	}
	if err := probability("document.landscape", doc.Landscape); err != nil {
		return err
	}
	if err := intRange("document.short_size", doc.ShortSize, 1); err != nil {
		return err
	}
	if err := floatRange("document.aspect_ratio", doc.AspectRatio, true); err != nil {
		return err
	}
	if err := unitRange("document.paper.alpha", doc.Paper.Alpha); err != nil {
		return err
	}
	return grayRange("document.paper.gray", doc.Paper.Gray)
}

func (s *ReceiptSpec) validateContent() error {
	c := s.Document.Content
	if c.Margin < 0 || c.Margin >= 0.5 {
		return fmt.Errorf("content.margin must be in [0, 0.5), got %v", c.Margin)
	}
	if err := intRange("content.products_count", c.ProductsCount, 1); err != nil {
		return err
	}
	if c.Currency == "" {
		return fmt.Errorf("content.currency is required")
	}
	if c.Font.MinSize < 1 {
		return fmt.Errorf("content.font.min_size must be >= 1, got %d", c.Font.MinSize)
	}
	if err := floatRange("content.textbox.fill", c.Textbox.Fill, true); err != nil {
		return err
	}
	if c.Textbox.Fill.Max() > 1 {
		return fmt.Errorf("content.textbox.fill must be <= 1, got %v", c.Textbox.Fill.Max())
	}
	if err := grayRange("content.color.gray", c.Color.Gray); err != nil {
		return err
	}

	d := c.DateRange
	if d.MinDaysBack < 0 || d.MaxDaysBack < d.MinDaysBack {
		return fmt.Errorf("content.date_range days back invalid: [%d, %d]", d.MinDaysBack, d.MaxDaysBack)
	}
	if d.MinHour < 0 || d.MaxHour > 23 || d.MaxHour < d.MinHour {
		return fmt.Errorf("content.date_range hours invalid: [%d, %d]", d.MinHour, d.MaxHour)
	}

	f := c.Formatting
	catalogs := map[string][]WeightedValue{
		"multiply_signs":         f.MultiplySigns,
		"unit_formats":           f.UnitFormats,
		"decimal_separators":     f.DecimalSeparators,
		"price_formats":          f.PriceFormats,
		"date_formats":           f.DateFormats,
		"sum_formats":            f.SumFormats,
		"receipt_number_formats": f.ReceiptNumberFormats,
	}
	for _, name := range slices.Sorted(maps.Keys(catalogs)) {
		if err := weighted("formatting."+name, catalogs[name]); err != nil {
			return err
		}
	}

	for _, v := range f.DecimalSeparators {
		if v.Value != "," && v.Value != "." {
			return fmt.Errorf("formatting.decimal_separators: unsupported separator %q", v.Value)
		}
	}
	for _, v := range f.PriceFormats {
		switch v.Value {
		case "standard", "no_spaces", "hybrid":
		default:
			return fmt.Errorf("formatting.price_formats: unknown format %q", v.Value)
		}
	}
	for _, v := range f.DateFormats {
		switch v.Value {
		case "dash", "dot", "slash":
		default:
			return fmt.Errorf("formatting.date_formats: unknown format %q", v.Value)
		}
	}
	return nil
}

func (s *ReceiptSpec) validateLayout() error {
	l := s.Document.Content.Layout
	if len(l.Align) == 0 {
		return fmt.Errorf("layout.align must not be empty")
	}
	for _, a := range l.Align {
		switch a {
		case "left", "center", "right":
		default:
			return fmt.Errorf("layout.align: unknown alignment %q", a)
		}
	}
	if err := floatRange("layout.stack_spacing", l.StackSpacing, false); err != nil {
		return err
	}
	if err := floatRange("layout.header_scale", l.HeaderScale, true); err != nil {
		return err
	}
	if l.MaxGrowth < 1 {
		return fmt.Errorf("layout.max_growth must be >= 1, got %v", l.MaxGrowth)
	}

	h := l.Heights
	heights := map[string]int{
		"shop_name":      h.ShopName,
		"shop_address":   h.ShopAddress,
		"shop_tax_id":    h.ShopTaxID,
		"date_number":    h.DateNumber,
		"receipt_header": h.ReceiptHeader,
		"separator":      h.Separator,
		"product":        h.Product,
		"vat_line":       h.VATLine,
		"total_sum":      h.TotalSum,
		"payment_method": h.PaymentMethod,
		"footer":         h.Footer,
	}
	for _, name := range slices.Sorted(maps.Keys(heights)) {
		if v := heights[name]; v <= 0 {
			return fmt.Errorf("layout.heights.%s must be > 0, got %d", name, v)
		}
	}

	sp := l.Spacing
	spacing := map[string]int{
		"after_shop_name":      sp.AfterShopName,
		"after_date_number":    sp.AfterDateNumber,
		"after_receipt_header": sp.AfterReceiptHeader,
		"after_separator":      sp.AfterSeparator,
		"before_products":      sp.BeforeProducts,
		"after_products":       sp.AfterProducts,
		"before_payment":       sp.BeforePayment,
		"after_payment":        sp.AfterPayment,
	}
	for _, name := range slices.Sorted(maps.Keys(spacing)) {
		if v := spacing[name]; v < 0 {
			return fmt.Errorf("layout.spacing.%s must be >= 0, got %d", name, v)
		}
	}

	sep := l.Separators
	if len(sep.Types) == 0 {
		return fmt.Errorf("layout.separators.types must not be empty")
	}
	var total float64
	for _, t := range sep.Types {
		if t.Symbol == "" {
			return fmt.Errorf("layout.separators: empty symbol in %q", t.Name)
		}
		if t.Weight < 0 {
			return fmt.Errorf("layout.separators: negative weight for %q", t.Name)
		}
		if t.Length < 0 || t.Length > 1 {
			return fmt.Errorf("layout.separators: length for %q must be in [0, 1]", t.Name)
		}
		total += t.Weight
	}
	if total <= 0 {
		return fmt.Errorf("layout.separators: weights sum to zero")
	}
	if err := unitRange("layout.separators.length", sep.Length); err != nil {
		return err
	}
	anchors := map[string]float64{
		"header":   sep.Locations.Header,
		"title":    sep.Locations.Title,
		"products": sep.Locations.Products,
		"vat":      sep.Locations.VAT,
		"payment":  sep.Locations.Payment,
	}
	for _, name := range slices.Sorted(maps.Keys(anchors)) {
		if err := probability("layout.separators.locations."+name, anchors[name]); err != nil {
			return err
		}
	}
	return nil
}

func (s *ReceiptSpec) validateEffects() error {
	d := s.Document.Effects
	if err := probability("elastic_distortion.prob", d.ElasticDistortion.Prob); err != nil {
		return err
	}
	if err := floatRange("elastic_distortion.strength", d.ElasticDistortion.Strength, false); err != nil {
		return err
	}
	if err := floatRange("elastic_distortion.smoothness", d.ElasticDistortion.Smoothness, true); err != nil {
		return err
	}
	if err := probability("noise.prob", d.Noise.Prob); err != nil {
		return err
	}
	if err := floatRange("noise.scale", d.Noise.Scale, false); err != nil {
		return err
	}
	if err := probability("noise.per_channel", d.Noise.PerChannel); err != nil {
		return err
	}
	if err := probability("perspective.prob", d.Perspective.Prob); err != nil {
		return err
	}
	if len(d.Perspective.Variants) == 0 {
		return fmt.Errorf("perspective.variants must not be empty")
	}
	var total float64
	for _, v := range d.Perspective.Variants {
		if v.Weight < 0 {
			return fmt.Errorf("perspective variant %q has negative weight", v.Name)
		}
		total += v.Weight
		for i, c := range v.Corners {
			if c.Min() < 0 || c.Max() < c.Min() || c.Max() >= 0.5 {
				return fmt.Errorf("perspective variant %q corner %d range invalid: %v", v.Name, i, c)
			}
		}
	}
	if total <= 0 {
		return fmt.Errorf("perspective.variants weights sum to zero")
	}

	g := s.Effect
	probs := map[string]float64{
		"color_tint.prob":      g.ColorTint.Prob,
		"shadow.prob":          g.Shadow.Prob,
		"shadow.bidirectional": g.Shadow.Bidirectional,
		"contrast.prob":        g.Contrast.Prob,
		"brightness.prob":      g.Brightness.Prob,
		"motion_blur.prob":     g.MotionBlur.Prob,
		"gaussian_blur.prob":   g.GaussianBlur.Prob,
	}
	for _, name := range slices.Sorted(maps.Keys(probs)) {
		if err := probability(name, probs[name]); err != nil {
			return err
		}
	}
	if g.ColorTint.Shift.Max() < g.ColorTint.Shift.Min() {
		return fmt.Errorf("color_tint.shift range inverted: %v", g.ColorTint.Shift)
	}
	if err := floatRange("shadow.intensity", g.Shadow.Intensity, false); err != nil {
		return err
	}
	if err := unitRange("shadow.amount", g.Shadow.Amount); err != nil {
		return err
	}
	if err := unitRange("shadow.smoothing", g.Shadow.Smoothing); err != nil {
		return err
	}
	if err := floatRange("contrast.alpha", g.Contrast.Alpha, true); err != nil {
		return err
	}
	if g.Brightness.Beta.Max() < g.Brightness.Beta.Min() {
		return fmt.Errorf("brightness.beta range inverted: %v", g.Brightness.Beta)
	}
	if err := intRange("motion_blur.k", g.MotionBlur.K, 3); err != nil {
		return err
	}
	if g.MotionBlur.K.Max() > 5 {
		return fmt.Errorf("motion_blur.k upper bound must be <= 5, got %d", g.MotionBlur.K.Max())
	}
	if g.MotionBlur.Angle.Max() < g.MotionBlur.Angle.Min() {
		return fmt.Errorf("motion_blur.angle range inverted: %v", g.MotionBlur.Angle)
	}
	return floatRange("gaussian_blur.sigma", g.GaussianBlur.Sigma, false)
}

func (s *ReceiptSpec) validateSplits() error {
	if len(s.Splits.Ratios) != 3 {
		return fmt.Errorf("splits.ratios must have 3 entries (train, validation, test), got %d", len(s.Splits.Ratios))
	}
	var total float64
	for _, r := range s.Splits.Ratios {
		if r < 0 {
			return fmt.Errorf("splits.ratios must be non-negative, got %v", s.Splits.Ratios)
		}
		total += r
	}
	if total <= 0 {
		return fmt.Errorf("splits.ratios sum to zero")
	}
	if s.Splits.TableSize < 1 {
		return fmt.Errorf("splits.table_size must be >= 1, got %d", s.Splits.TableSize)
	}
	return nil
}

// validateFit rechaza tablas de alturas que no caben ni en el documento más
// alto posible tras crecer
func (s *ReceiptSpec) validateFit() error {
	need := s.MinContentHeight()

	longest := float64(s.ShortSize.Max()) * s.AspectRatio.Max()
	if doc := float64(s.Document.ShortSize.Max()) * s.Document.AspectRatio.Max(); s.Document.Fullscreen < 1 && doc > longest {
		longest = doc
	}
	usable := longest * (1 - 2*s.Document.Content.Margin) * s.Document.Content.Layout.MaxGrowth
	if float64(need) > usable {
		return fmt.Errorf("minimum receipt height %dpx exceeds largest achievable document %.0fpx", need, usable)
	}
	return nil
}

// MinContentHeight altura mínima de un recibo: bloques obligatorios, el
// mínimo de productos en una fila cada uno y el espaciado fijo, sin separadores
func (s *ReceiptSpec) MinContentHeight() int {
	l := s.Document.Content.Layout
	h, sp := l.Heights, l.Spacing
	return h.ShopName + h.ShopAddress + h.ShopTaxID + h.DateNumber + h.ReceiptHeader +
		s.Document.Content.ProductsCount.Min()*h.Product +
		h.TotalSum + h.PaymentMethod + h.Footer +
		sp.AfterShopName + sp.AfterDateNumber + sp.AfterReceiptHeader +
		sp.BeforeProducts + sp.AfterProducts + sp.BeforePayment + sp.AfterPayment
}

func probability(name string, p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("%s must be in [0, 1], got %v", name, p)
	}
	return nil
}

func intRange(name string, r IntRange, min int) error {
	if r.Min() < min {
		return fmt.Errorf("%s lower bound must be >= %d, got %d", name, min, r.Min())
	}
	if r.Max() < r.Min() {
		return fmt.Errorf("%s range inverted: %v", name, r)
	}
	return nil
}

func floatRange(name string, r FloatRange, positive bool) error {
	if positive && r.Min() <= 0 {
		return fmt.Errorf("%s lower bound must be > 0, got %v", name, r.Min())
	}
	if !positive && r.Min() < 0 {
		return fmt.Errorf("%s lower bound must be >= 0, got %v", name, r.Min())
	}
	if r.Max() < r.Min() {
		return fmt.Errorf("%s range inverted: %v", name, r)
	}
	return nil
}

func unitRange(name string, r FloatRange) error {
	if err := floatRange(name, r, false); err != nil {
		return err
	}
	if r.Max() > 1 {
		return fmt.Errorf("%s upper bound must be <= 1, got %v", name, r.Max())
	}
	return nil
}

func grayRange(name string, r IntRange) error {
	if err := intRange(name, r, 0); err != nil {
		return err
	}
	if r.Max() > 255 {
		return fmt.Errorf("%s upper bound must be <= 255, got %d", name, r.Max())
	}
	return nil
}

func weighted(name string, catalog []WeightedValue) error {
	if len(catalog) == 0 {
		return fmt.Errorf("%s must not be empty", name)
	}
	var total float64
	for _, v := range catalog {
		if v.Weight < 0 {
			return fmt.Errorf("%s: negative weight for %q", name, v.Value)
		}
		total += v.Weight
	}
	if total <= 0 {
		return fmt.Errorf("%s: weights sum to zero", name)
	}
	return nil
}
