package effects

import (
	"encoding/binary"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/compose"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/rng"
)

// elastic desplaza cada píxel según un campo aleatorio suavizado. El campo
// se guarda en los canales R/G de una imagen para suavizarlo con Blur y se
// normaliza para que el desplazamiento máximo sea strength píxeles.
func elastic(img *image.NRGBA, strength, smoothness float64, s *rng.Stream) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if strength <= 0 || w == 0 || h == 0 {
		return img
	}

	field := image.NewNRGBA(image.Rect(0, 0, w, h))
	var buf [8]byte
	for i := 0; i < w*h; i++ {
		binary.LittleEndian.PutUint64(buf[:], s.Uint64())
		field.Pix[4*i] = buf[0]
		field.Pix[4*i+1] = buf[1]
		field.Pix[4*i+3] = 255
	}
	smooth := imaging.Blur(field, smoothness)

	dx := make([]float64, w*h)
	dy := make([]float64, w*h)
	var maxAbs float64
	for i := 0; i < w*h; i++ {
		dx[i] = float64(smooth.Pix[4*i]) - 127.5
		dy[i] = float64(smooth.Pix[4*i+1]) - 127.5
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(dx[i]), math.Abs(dy[i])))
	}
	if maxAbs == 0 {
		return img
	}

	scale := strength / maxAbs
	for i := range dx {
		dx[i] *= scale
		dy[i] *= scale
	}
	return compose.Remap(img, dx, dy)
}

// noise ruido gaussiano aditivo sobre los píxeles visibles
func noise(img *image.NRGBA, scale float64, perChannel bool, s *rng.Stream) *image.NRGBA {
	out := imaging.Clone(img)
	if scale <= 0 {
		return out
	}
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i+3] == 0 {
			continue
		}
		if perChannel {
			for c := 0; c < 3; c++ {
				out.Pix[i+c] = clamp(float64(out.Pix[i+c]) + s.NormFloat64()*scale)
			}
			continue
		}
		n := s.NormFloat64() * scale
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = clamp(float64(out.Pix[i+c]) + n)
		}
	}
	return out
}

// corner signs: cada esquina se desplaza hacia el interior
var inward = [4][2]float64{{1, 1}, {-1, 1}, {-1, -1}, {1, -1}}

// perspectiveQuad elige una variante por peso y desplaza cada esquina hacia
// adentro una fracción del tamaño del documento
func perspectiveQuad(variants []config.PerspectiveVariant, size image.Point, s *rng.Stream) (compose.Quad, string, error) {
	weights := make([]float64, len(variants))
	for i, v := range variants {
		weights[i] = v.Weight
	}
	idx, err := s.Choice(weights)
	if err != nil {
		return compose.Quad{}, "", err
	}
	v := variants[idx]

	w, h := float64(size.X), float64(size.Y)
	quad := compose.RectQuad(image.Rect(0, 0, size.X, size.Y))
	for i, c := range v.Corners {
		dx := s.Uniform(c.Min(), c.Max()) * w
		dy := s.Uniform(c.Min(), c.Max()) * h
		quad[i].X += inward[i][0] * dx
		quad[i].Y += inward[i][1] * dy
	}
	return quad, v.Name, nil
}

func clamp(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Round(v))
}
