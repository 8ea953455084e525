package compose

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/rng"
)

// Plan tamaños del lienzo y del documento para una muestra
type Plan struct {
	Canvas     image.Point
	Document   image.Point
	Fullscreen bool
	// Margin separación mínima entre documento y borde del lienzo
	Margin int
}

// PlanCanvas muestrea el tamaño del lienzo y, si el documento no ocupa todo
// el lienzo, su tamaño propio reducido para caber dentro de los márgenes
func PlanCanvas(spec *config.ReceiptSpec, s *rng.Stream) Plan {
	canvas := sampleSize(s, spec.ShortSize, spec.AspectRatio, spec.Landscape)

	p := Plan{Canvas: canvas, Document: canvas}
	p.Fullscreen = s.Bernoulli(spec.Document.Fullscreen)
	if p.Fullscreen {
		return p
	}

	doc := spec.Document
	size := sampleSize(s, doc.ShortSize, doc.AspectRatio, doc.Landscape)
	p.Margin = int(math.Round(doc.Content.Margin * float64(canvas.X)))

	availX, availY := canvas.X-2*p.Margin, canvas.Y-2*p.Margin
	scale := math.Min(1, math.Min(float64(availX)/float64(size.X), float64(availY)/float64(size.Y)))
	p.Document = image.Pt(
		max(1, int(float64(size.X)*scale)),
		max(1, int(float64(size.Y)*scale)),
	)
	return p
}

func sampleSize(s *rng.Stream, short config.IntRange, aspect config.FloatRange, landscape float64) image.Point {
	w := s.IntRange(short.Min(), short.Max())
	h := int(math.Round(float64(w) * s.Uniform(aspect.Min(), aspect.Max())))
	if s.Bernoulli(landscape) {
		w, h = h, w
	}
	return image.Pt(w, h)
}

// Grow ajusta el plan a la altura final del documento tras el layout. El
// lienzo crece lo mismo que el documento.
func (p Plan) Grow(docHeight int) Plan {
	if delta := docHeight - p.Document.Y; delta > 0 {
		p.Document.Y = docHeight
		p.Canvas.Y += delta
	}
	return p
}

// Place posición del documento dentro del lienzo
func (p Plan) Place(s *rng.Stream) image.Point {
	if p.Fullscreen {
		return image.Point{}
	}
	x := s.IntRange(p.Margin, max(p.Margin, p.Canvas.X-p.Document.X-p.Margin))
	y := s.IntRange(p.Margin, max(p.Margin, p.Canvas.Y-p.Document.Y-p.Margin))
	return image.Pt(x, y)
}

// Compose superpone el documento (con su transparencia) sobre el fondo y
// traslada su cuadrilátero a coordenadas del lienzo
func Compose(background, document *image.NRGBA, offset image.Point, docQuad Quad) (*image.NRGBA, Quad) {
	out := imaging.Overlay(background, document, offset, 1.0)
	return out, docQuad.Translate(float64(offset.X), float64(offset.Y))
}
