package compose

import (
	"image"
	"math"
)

// Warp proyecta src (su rectángulo completo) sobre el cuadrilátero dst, en
// un lienzo del mismo tamaño que src. Fuera de dst queda transparente.
func Warp(src *image.NRGBA, dst Quad) (*image.NRGBA, error) {
	b := src.Bounds()
	h, err := SolveHomography(RectQuad(b), dst)
	if err != nil {
		return nil, err
	}
	inv, err := h.Inverse()
	if err != nil {
		return nil, err
	}

	out := image.NewNRGBA(b)
	area := dst.Bounds().Intersect(b)
	w, ht := float64(b.Dx()), float64(b.Dy())

	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			p := inv.Apply(Point{float64(x) + 0.5, float64(y) + 0.5})
			sx, sy := p.X-float64(b.Min.X), p.Y-float64(b.Min.Y)
			if sx < 0 || sy < 0 || sx > w || sy > ht {
				continue
			}
			bilinear(src, sx-0.5, sy-0.5, out.Pix[out.PixOffset(x, y):out.PixOffset(x, y)+4])
		}
	}
	return out, nil
}

// Remap muestrea src en (x+dx, y+dy) para cada píxel; fuera del borde se
// usa el píxel más cercano
func Remap(src *image.NRGBA, dx, dy []float64) *image.NRGBA {
	b := src.Bounds()
	out := image.NewNRGBA(b)
	w := b.Dx()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			off := out.PixOffset(b.Min.X+x, b.Min.Y+y)
			bilinear(src, float64(x)+dx[i], float64(y)+dy[i], out.Pix[off:off+4])
		}
	}
	return out
}

// bilinear interpola src en coordenadas relativas a su origen, con bordes
// replicados
func bilinear(src *image.NRGBA, fx, fy float64, dst []uint8) {
	b := src.Bounds()
	maxX, maxY := b.Dx()-1, b.Dy()-1

	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	tx, ty := fx-float64(x0), fy-float64(y0)
	x1, y1 := clampInt(x0+1, 0, maxX), clampInt(y0+1, 0, maxY)
	x0, y0 = clampInt(x0, 0, maxX), clampInt(y0, 0, maxY)

	p00 := src.PixOffset(b.Min.X+x0, b.Min.Y+y0)
	p10 := src.PixOffset(b.Min.X+x1, b.Min.Y+y0)
	p01 := src.PixOffset(b.Min.X+x0, b.Min.Y+y1)
	p11 := src.PixOffset(b.Min.X+x1, b.Min.Y+y1)

	for c := 0; c < 4; c++ {
		top := float64(src.Pix[p00+c])*(1-tx) + float64(src.Pix[p10+c])*tx
		bottom := float64(src.Pix[p01+c])*(1-tx) + float64(src.Pix[p11+c])*tx
		dst[c] = uint8(math.Round(top*(1-ty) + bottom*ty))
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
