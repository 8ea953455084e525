package generator

import (
	"image"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/compose"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/groundtruth"
)

var refTime = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func smallSpec() *config.ReceiptSpec {
	spec := config.DefaultReceiptSpec()
	spec.ShortSize = config.IntRange{260, 300}
	spec.Document.ShortSize = config.IntRange{200, 240}
	spec.Document.Content.ProductsCount = config.IntRange{2, 5}
	return spec
}

func newGenerator(t *testing.T, spec *config.ReceiptSpec, seed int64) *Generator {
	t.Helper()
	g, err := New(Options{Spec: spec, Now: refTime, Seed: seed, MaxAttempts: 5})
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func TestGenerate_Deterministic(t *testing.T) {
	a := newGenerator(t, smallSpec(), 123)
	b := newGenerator(t, smallSpec(), 123)

	for i := 0; i < 3; i++ {
		sa, err := a.Generate()
		require.NoError(t, err)
		sb, err := b.Generate()
		require.NoError(t, err)

		assert.Equal(t, sa.Label, sb.Label)
		assert.Equal(t, sa.Data, sb.Data)
		assert.Equal(t, sa.Quality, sb.Quality)
		assert.Equal(t, sa.ROI, sb.ROI)
		assert.Equal(t, sa.Image.Pix, sb.Image.Pix)
	}
}

func TestGenerate_TotalsAndLabelAgree(t *testing.T) {
	g := newGenerator(t, smallSpec(), 7)

	for i := 0; i < 10; i++ {
		s, err := g.Generate()
		require.NoError(t, err)

		sum := decimal.Zero
		for _, p := range s.Data.Products {
			sum = sum.Add(p.TotalPrice.Decimal)
		}
		assert.True(t, sum.Round(2).Equal(s.Data.Total.Round(2)), "sum %s != total %s", sum, s.Data.Total)
		assert.Contains(t, s.Label, s.Data.Shop.Name)
		assert.GreaterOrEqual(t, s.Quality, 70)
		assert.LessOrEqual(t, s.Quality, 95)
	}
}

func TestGenerate_ROIInsideCanvas(t *testing.T) {
	spec := smallSpec()
	spec.Document.Fullscreen = 0
	spec.Document.Effects.Perspective.Prob = 1
	g := newGenerator(t, spec, 99)

	for i := 0; i < 5; i++ {
		s, err := g.Generate()
		require.NoError(t, err)

		canvas := compose.RectQuad(s.Image.Bounds())
		for _, p := range s.ROI {
			assert.True(t, canvas.Contains(p), "roi corner %+v outside canvas %v", p, s.Image.Bounds())
		}
		roi := s.ROI.Bounds()
		for _, b := range s.Boxes {
			assert.True(t, b.Rect.In(roi.Inset(-1)), "box %q %v outside roi %v", b.Text, b.Rect, roi)
		}
	}
}

func TestGenerate_OverflowExhaustsAttempts(t *testing.T) {
	spec := smallSpec()
	spec.Document.Content.ProductsCount = config.IntRange{40, 40}
	spec.Document.Content.Layout.MaxGrowth = 1
	spec.ShortSize = config.IntRange{100, 100}
	spec.AspectRatio = config.FloatRange{1, 1}
	spec.Document.Fullscreen = 1

	g, err := New(Options{Spec: spec, Now: refTime, Seed: 1, MaxAttempts: 2})
	if err != nil {
		// la validación puede rechazar la configuración antes de generar
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
		return
	}
	defer g.Close()

	_, err = g.Generate()
	assert.Error(t, err)
}

func TestProjectBoxes_Identity(t *testing.T) {
	doc := image.Rect(0, 0, 100, 200)
	boxes := []groundtruth.TextBox{{Text: "a", Rect: image.Rect(10, 10, 50, 20)}}

	out, err := projectBoxes(boxes, doc, compose.RectQuad(doc), image.Pt(5, 7))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(15, 17, 55, 27), out[0].Rect)
	assert.Equal(t, image.Rect(10, 10, 50, 20), boxes[0].Rect)
}

func TestProjectBoxes_Perspective(t *testing.T) {
	doc := image.Rect(0, 0, 100, 200)
	quad := compose.Quad{{X: 10, Y: 5}, {X: 90, Y: 0}, {X: 100, Y: 190}, {X: 0, Y: 200}}
	boxes := []groundtruth.TextBox{{Text: "a", Rect: image.Rect(10, 10, 50, 20)}}

	out, err := projectBoxes(boxes, doc, quad, image.Point{})
	require.NoError(t, err)
	assert.True(t, out[0].Rect.In(quad.Bounds()))
}
