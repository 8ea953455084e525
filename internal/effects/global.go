package effects

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

func colorTint(img *image.NRGBA, shift [3]int) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp(float64(int(c.R) + shift[0])),
			G: clamp(float64(int(c.G) + shift[1])),
			B: clamp(float64(int(c.B) + shift[2])),
			A: c.A,
		}
	})
}

type shadowParams struct {
	angle         float64
	intensity     float64
	amount        float64
	smoothing     float64
	bidirectional bool
}

// shadow oscurece una franja desde un borde en la dirección angle. amount
// es la fracción cubierta y smoothing el ancho relativo del borde difuso.
func shadow(img *image.NRGBA, p shadowParams) *image.NRGBA {
	out := imaging.Clone(img)
	b := out.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	if p.amount <= 0 || p.intensity <= 0 {
		return out
	}

	rad := p.angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	half := (math.Abs(cos)*w + math.Abs(sin)*h) / 2
	if half == 0 {
		return out
	}
	edge := p.smoothing * p.amount

	weight := func(t float64) float64 {
		switch {
		case t <= p.amount-edge:
			return 1
		case t >= p.amount:
			return 0
		default:
			x := (p.amount - t) / edge
			return x * x * (3 - 2*x)
		}
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			proj := (float64(x)-w/2)*cos + (float64(y)-h/2)*sin
			t := 0.5 + proj/(2*half)
			wt := weight(t)
			if p.bidirectional {
				wt = math.Max(wt, weight(1-t))
			}
			if wt == 0 {
				continue
			}
			i := out.PixOffset(b.Min.X+x, b.Min.Y+y)
			for c := 0; c < 3; c++ {
				out.Pix[i+c] = clamp(float64(out.Pix[i+c]) - p.intensity*wt)
			}
		}
	}
	return out
}

// contrast multiplica la distancia al gris medio por alpha, expresado como
// el porcentaje que espera imaging.AdjustContrast
func contrast(img *image.NRGBA, alpha float64) *image.NRGBA {
	var pct float64
	if alpha <= 1 {
		pct = (alpha - 1) * 100
	} else {
		pct = (1 - 1/alpha) * 100
	}
	return imaging.AdjustContrast(img, pct)
}

// brightness suma beta niveles (0-255) a cada canal
func brightness(img *image.NRGBA, beta float64) *image.NRGBA {
	return imaging.AdjustBrightness(img, beta/255*100)
}

// motionBlur convoluciona con una línea de k píxeles a angle grados.
// k par se redondea al impar siguiente.
func motionBlur(img *image.NRGBA, k int, angle float64) *image.NRGBA {
	if k%2 == 0 {
		k++
	}
	if k < 3 {
		k = 3
	}
	if k > 5 {
		k = 5
	}
	kernel := lineKernel(k, angle)
	opts := &imaging.ConvolveOptions{Normalize: true}
	if k == 3 {
		var k3 [9]float64
		copy(k3[:], kernel)
		return imaging.Convolve3x3(img, k3, opts)
	}
	var k5 [25]float64
	copy(k5[:], kernel)
	return imaging.Convolve5x5(img, k5, opts)
}

func lineKernel(k int, angle float64) []float64 {
	kernel := make([]float64, k*k)
	r := float64(k-1) / 2
	rad := angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	steps := 4 * k
	for i := 0; i <= steps; i++ {
		t := -r + 2*r*float64(i)/float64(steps)
		x := int(math.Round(r + t*cos))
		y := int(math.Round(r + t*sin))
		kernel[y*k+x] = 1
	}
	return kernel
}

func gaussianBlur(img *image.NRGBA, sigma float64) *image.NRGBA {
	if sigma <= 0 {
		return img
	}
	return imaging.Blur(img, sigma)
}
