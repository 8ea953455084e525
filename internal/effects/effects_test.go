package effects

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/compose"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/rng"
	"github.com/Roch-git/Synth-Receipt-Generator/pkg/logger"
)

func opaque(w, h int, gray uint8) *image.NRGBA {
	return imaging.New(w, h, color.NRGBA{gray, gray, gray, 255})
}

func quietSpec() *config.ReceiptSpec {
	spec := config.DefaultReceiptSpec()
	spec.Document.Effects.ElasticDistortion.Prob = 0
	spec.Document.Effects.Noise.Prob = 0
	spec.Document.Effects.Perspective.Prob = 0
	spec.Effect.ColorTint.Prob = 0
	spec.Effect.Shadow.Prob = 0
	spec.Effect.Contrast.Prob = 0
	spec.Effect.Brightness.Prob = 0
	spec.Effect.MotionBlur.Prob = 0
	spec.Effect.GaussianBlur.Prob = 0
	return spec
}

func TestPerspectiveQuad_CornersMoveInward(t *testing.T) {
	size := image.Pt(240, 600)
	rect := compose.RectQuad(image.Rect(0, 0, size.X, size.Y))
	center := compose.Point{X: float64(size.X) / 2, Y: float64(size.Y) / 2}

	for _, v := range config.DefaultReceiptSpec().Document.Effects.Perspective.Variants {
		t.Run(v.Name, func(t *testing.T) {
			s := rng.New(7)
			for i := 0; i < 50; i++ {
				quad, name, err := perspectiveQuad([]config.PerspectiveVariant{v}, size, s)
				require.NoError(t, err)
				assert.Equal(t, v.Name, name)
				for c, p := range quad {
					assert.True(t, rect.Contains(p), "corner %d outside document: %+v", c, p)
				}
				assert.True(t, quad.Contains(center))
			}
		})
	}
}

func TestPerspectiveQuad_NoVariants(t *testing.T) {
	_, _, err := perspectiveQuad(nil, image.Pt(10, 10), rng.New(1))
	assert.ErrorIs(t, err, rng.ErrNoWeights)
}

func TestApplyDocument_WarpedPixelsStayInsideQuad(t *testing.T) {
	spec := quietSpec()
	ps := &spec.Document.Effects.Perspective
	ps.Prob = 1

	for _, v := range config.DefaultReceiptSpec().Document.Effects.Perspective.Variants {
		t.Run(v.Name, func(t *testing.T) {
			ps.Variants = []config.PerspectiveVariant{v}
			p := NewPipeline(spec, logger.Nop())

			res, err := p.ApplyDocument(opaque(120, 300, 240), rng.New(11))
			require.NoError(t, err)
			assert.Equal(t, v.Name, res.Variant)
			assert.Equal(t, []string{StagePerspective}, res.Applied)

			roi := res.Quad.Bounds()
			b := res.Image.Bounds()
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					if res.Image.NRGBAAt(x, y).A == 0 {
						continue
					}
					require.True(t, image.Pt(x, y).In(roi), "visible pixel (%d,%d) outside %v", x, y, roi)
				}
			}
		})
	}
}

func TestApplyDocument_Deterministic(t *testing.T) {
	spec := config.DefaultReceiptSpec()
	spec.Document.Effects.ElasticDistortion.Prob = 1
	spec.Document.Effects.Noise.Prob = 1
	spec.Document.Effects.Perspective.Prob = 1
	p := NewPipeline(spec, logger.Nop())

	a, err := p.ApplyDocument(opaque(60, 90, 230), rng.New(3))
	require.NoError(t, err)
	b, err := p.ApplyDocument(opaque(60, 90, 230), rng.New(3))
	require.NoError(t, err)

	assert.Equal(t, a.Quad, b.Quad)
	assert.Equal(t, a.Applied, b.Applied)
	assert.Equal(t, a.Image.Pix, b.Image.Pix)
}

func TestApplyDocument_AllGatesClosed(t *testing.T) {
	p := NewPipeline(quietSpec(), logger.Nop())
	doc := opaque(40, 80, 250)

	res, err := p.ApplyDocument(doc, rng.New(1))
	require.NoError(t, err)
	assert.Same(t, doc, res.Image)
	assert.Empty(t, res.Applied)
	assert.Equal(t, compose.RectQuad(doc.Bounds()), res.Quad)
}

func TestApplyGlobal_StageOrder(t *testing.T) {
	spec := quietSpec()
	spec.Effect.ColorTint.Prob = 1
	spec.Effect.Shadow.Prob = 1
	spec.Effect.Contrast.Prob = 1
	spec.Effect.Brightness.Prob = 1
	spec.Effect.MotionBlur.Prob = 1
	spec.Effect.GaussianBlur.Prob = 1
	p := NewPipeline(spec, logger.Nop())

	img, applied := p.ApplyGlobal(opaque(50, 50, 128), rng.New(5))
	assert.Equal(t, image.Rect(0, 0, 50, 50), img.Bounds())
	assert.Equal(t, []string{
		StageColorTint, StageShadow, StageContrast, StageBrightness, StageMotionBlur, StageGaussian,
	}, applied)
}

func TestApplyGlobal_NoStages(t *testing.T) {
	p := NewPipeline(quietSpec(), logger.Nop())
	src := opaque(20, 20, 90)

	img, applied := p.ApplyGlobal(src, rng.New(5))
	assert.Empty(t, applied)
	assert.Equal(t, src.Pix, img.Pix)
}

func TestNoise_SkipsTransparentPixels(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	out := noise(img, 50, true, rng.New(1))
	assert.Equal(t, img.Pix, out.Pix)
}

func TestPointAdjustments(t *testing.T) {
	src := opaque(4, 4, 100)

	tests := []struct {
		name string
		fn   func(*image.NRGBA) *image.NRGBA
		want uint8
	}{
		{"contrast identity", func(i *image.NRGBA) *image.NRGBA { return contrast(i, 1) }, 100},
		{"brightness identity", func(i *image.NRGBA) *image.NRGBA { return brightness(i, 0) }, 100},
		{"tint shift", func(i *image.NRGBA) *image.NRGBA { return colorTint(i, [3]int{20, 20, 20}) }, 120},
		{"tint clamps", func(i *image.NRGBA) *image.NRGBA { return colorTint(i, [3]int{-200, -200, -200}) }, 0},
		{"blur of flat image", func(i *image.NRGBA) *image.NRGBA { return gaussianBlur(i, 1) }, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.fn(src)
			assert.Equal(t, tt.want, out.NRGBAAt(1, 1).R)
			assert.Equal(t, uint8(255), out.NRGBAAt(1, 1).A)
		})
	}
}

func TestShadow_DarkensOnly(t *testing.T) {
	src := opaque(40, 40, 200)
	out := shadow(src, shadowParams{angle: 0, intensity: 100, amount: 0.5, smoothing: 0.5})

	darker := 0
	for i := 0; i < len(out.Pix); i += 4 {
		assert.LessOrEqual(t, out.Pix[i], src.Pix[i])
		if out.Pix[i] < src.Pix[i] {
			darker++
		}
	}
	assert.Greater(t, darker, 0)
	// el lado opuesto a la sombra queda intacto
	assert.Equal(t, uint8(200), out.NRGBAAt(39, 20).R)
}

func TestLineKernel(t *testing.T) {
	k := lineKernel(3, 0)
	assert.Equal(t, []float64{0, 0, 0, 1, 1, 1, 0, 0, 0}, k)

	k = lineKernel(3, 90)
	assert.Equal(t, []float64{0, 1, 0, 0, 1, 0, 0, 1, 0}, k)
}

func TestMotionBlur_EvenKernelSize(t *testing.T) {
	src := opaque(10, 10, 77)
	out := motionBlur(src, 4, 45)
	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.Equal(t, uint8(77), out.NRGBAAt(5, 5).R)
}
