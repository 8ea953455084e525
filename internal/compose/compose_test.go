package compose

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/rng"
)

func TestSolveHomography_MapsCorners(t *testing.T) {
	src := RectQuad(image.Rect(0, 0, 100, 200))
	dst := Quad{{5, 3}, {97, 8}, {92, 195}, {2, 190}}

	h, err := SolveHomography(src, dst)
	require.NoError(t, err)
	for i := range src {
		got := h.Apply(src[i])
		assert.InDelta(t, dst[i].X, got.X, 1e-6)
		assert.InDelta(t, dst[i].Y, got.Y, 1e-6)
	}

	inv, err := h.Inverse()
	require.NoError(t, err)
	back := inv.Apply(h.Apply(Point{37, 121}))
	assert.InDelta(t, 37, back.X, 1e-6)
	assert.InDelta(t, 121, back.Y, 1e-6)
}

func TestSolveHomography_Degenerate(t *testing.T) {
	src := RectQuad(image.Rect(0, 0, 10, 10))
	dst := Quad{{0, 0}, {0, 0}, {0, 0}, {0, 0}}
	_, err := SolveHomography(src, dst)
	assert.ErrorIs(t, err, ErrSingular)
}

func TestQuad_Contains(t *testing.T) {
	q := Quad{{0, 0}, {10, 1}, {9, 10}, {1, 9}}
	assert.True(t, q.Contains(Point{5, 5}))
	assert.True(t, q.Contains(Point{0, 0}))
	assert.False(t, q.Contains(Point{-1, 5}))
	assert.False(t, q.Contains(Point{10, 10}))
	assert.Equal(t, image.Rect(0, 0, 10, 10), q.Bounds())
}

func TestWarp_TransparentOutsideQuad(t *testing.T) {
	src := imaging.New(100, 100, color.NRGBA{200, 200, 200, 255})
	dst := Quad{{10, 10}, {90, 5}, {95, 95}, {5, 90}}

	out, err := Warp(src, dst)
	require.NoError(t, err)

	assert.Equal(t, uint8(0), out.NRGBAAt(1, 1).A)
	assert.Equal(t, uint8(0), out.NRGBAAt(98, 98).A)
	assert.Equal(t, color.NRGBA{200, 200, 200, 255}, out.NRGBAAt(50, 50))

	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if out.NRGBAAt(x, y).A > 0 {
				require.True(t, dst.Contains(Point{float64(x) + 0.5, float64(y) + 0.5}), "(%d,%d)", x, y)
			}
		}
	}
}

func TestRemap_ZeroFieldIsIdentity(t *testing.T) {
	src := imaging.New(8, 8, color.NRGBA{10, 20, 30, 255})
	src.SetNRGBA(3, 4, color.NRGBA{255, 0, 0, 255})

	out := Remap(src, make([]float64, 64), make([]float64, 64))
	assert.Equal(t, src.Pix, out.Pix)
}

func TestPlanCanvas(t *testing.T) {
	spec := config.DefaultReceiptSpec()
	s := rng.New(5)

	for i := 0; i < 100; i++ {
		p := PlanCanvas(spec, s)
		assert.GreaterOrEqual(t, p.Canvas.X, 480)
		assert.LessOrEqual(t, p.Canvas.X, 720)
		assert.True(t, p.Fullscreen)
		assert.Equal(t, p.Canvas, p.Document)
	}
}

func TestPlanCanvas_SubDocumentFitsInsideMargins(t *testing.T) {
	spec := config.DefaultReceiptSpec()
	spec.Document.Fullscreen = 0
	s := rng.New(6)

	for i := 0; i < 100; i++ {
		p := PlanCanvas(spec, s)
		require.False(t, p.Fullscreen)
		off := p.Place(s)
		assert.GreaterOrEqual(t, off.X, p.Margin)
		assert.GreaterOrEqual(t, off.Y, p.Margin)
		assert.LessOrEqual(t, off.X+p.Document.X, p.Canvas.X-p.Margin)
		assert.LessOrEqual(t, off.Y+p.Document.Y, p.Canvas.Y-p.Margin)
	}
}

func TestPlan_Grow(t *testing.T) {
	p := Plan{Canvas: image.Pt(500, 1000), Document: image.Pt(300, 800)}
	g := p.Grow(950)
	assert.Equal(t, image.Pt(300, 950), g.Document)
	assert.Equal(t, image.Pt(500, 1150), g.Canvas)
	assert.Equal(t, p, p.Grow(700))
}

func TestCompose_TranslatesQuad(t *testing.T) {
	bg := imaging.New(50, 50, color.NRGBA{0, 0, 0, 255})
	doc := imaging.New(10, 10, color.NRGBA{255, 255, 255, 255})

	out, roi := Compose(bg, doc, image.Pt(20, 30), RectQuad(doc.Bounds()))
	assert.Equal(t, Point{20, 30}, roi[0])
	assert.Equal(t, Point{30, 40}, roi[2])
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, out.NRGBAAt(25, 35))
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, out.NRGBAAt(5, 5))
}

func TestBackground_Deterministic(t *testing.T) {
	spec := config.DefaultReceiptSpec().Background
	tex, err := LoadTextures("")
	require.NoError(t, err)

	a, err := Background(spec, image.Pt(40, 60), tex, rng.New(3))
	require.NoError(t, err)
	b, err := Background(spec, image.Pt(40, 60), tex, rng.New(3))
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestLoadTextures(t *testing.T) {
	dir := t.TempDir()
	img := imaging.New(4, 4, color.NRGBA{120, 110, 100, 255})
	require.NoError(t, imaging.Save(img, dir+"/b.png"))
	require.NoError(t, imaging.Save(img, dir+"/a.jpg"))

	tex, err := LoadTextures(dir)
	require.NoError(t, err)
	require.Equal(t, 2, tex.Len())

	got, err := tex.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Bounds().Dx())

	paper, err := Paper(config.DefaultReceiptSpec().Document.Paper, image.Pt(20, 20), tex, rng.New(1))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(20, 20), paper.Bounds().Size())
}
