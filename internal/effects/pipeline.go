// Package effects aplica las etapas visuales con compuerta de probabilidad:
// primero sobre la capa del documento y luego sobre la imagen compuesta.
package effects

import (
	"fmt"
	"image"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/compose"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/metrics"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/rng"
	"github.com/Roch-git/Synth-Receipt-Generator/pkg/logger"
)

// Nombres de etapa
const (
	StageElastic     = "elastic_distortion"
	StageNoise       = "noise"
	StagePerspective = "perspective"
	StageColorTint   = "color_tint"
	StageShadow      = "shadow"
	StageContrast    = "contrast"
	StageBrightness  = "brightness"
	StageMotionBlur  = "motion_blur"
	StageGaussian    = "gaussian_blur"
)

// Pipeline etapas de efectos en orden fijo. Cada etapa extrae del flujo su
// compuerta y, si pasa, sus parámetros.
type Pipeline struct {
	document config.DocumentEffectsSpec
	global   config.GlobalEffectsSpec
	logger   *logger.Logger
}

// NewPipeline crea el pipeline de efectos
func NewPipeline(spec *config.ReceiptSpec, log *logger.Logger) *Pipeline {
	return &Pipeline{
		document: spec.Document.Effects,
		global:   spec.Effect,
		logger:   log,
	}
}

// DocumentResult capa del documento transformada y su cuadrilátero en
// coordenadas de la capa
type DocumentResult struct {
	Image   *image.NRGBA
	Quad    compose.Quad
	Variant string
	Applied []string
}

// ApplyDocument aplica distorsión elástica, ruido y perspectiva sobre la
// capa del documento. La perspectiva actualiza el cuadrilátero con la misma
// transformación que aplica a los píxeles.
func (p *Pipeline) ApplyDocument(doc *image.NRGBA, s *rng.Stream) (*DocumentResult, error) {
	res := &DocumentResult{
		Image: doc,
		Quad:  compose.RectQuad(doc.Bounds()),
	}

	// 1. Distorsión elástica (arrugas del papel)
	el := p.document.ElasticDistortion
	if s.Bernoulli(el.Prob) {
		strength := s.Uniform(el.Strength.Min(), el.Strength.Max())
		smoothness := s.Uniform(el.Smoothness.Min(), el.Smoothness.Max())
		res.Image = elastic(res.Image, strength, smoothness, s.Child())
		p.applied(res, StageElastic, "strength", strength, "smoothness", smoothness)
	}

	// 2. Ruido de sensor/impresión
	nz := p.document.Noise
	if s.Bernoulli(nz.Prob) {
		scale := s.Uniform(nz.Scale.Min(), nz.Scale.Max())
		perChannel := s.Bernoulli(nz.PerChannel)
		res.Image = noise(res.Image, scale, perChannel, s.Child())
		p.applied(res, StageNoise, "scale", scale, "per_channel", perChannel)
	}

	// 3. Perspectiva
	ps := p.document.Perspective
	if s.Bernoulli(ps.Prob) {
		quad, variant, err := perspectiveQuad(ps.Variants, doc.Bounds().Size(), s)
		if err != nil {
			return nil, fmt.Errorf("perspective: %w", err)
		}
		res.Variant = variant
		if quad != res.Quad {
			warped, err := compose.Warp(res.Image, quad)
			if err != nil {
				return nil, fmt.Errorf("perspective %s: %w", variant, err)
			}
			res.Image = warped
			res.Quad = quad
		}
		p.applied(res, StagePerspective, "variant", variant)
	}

	return res, nil
}

// ApplyGlobal aplica las etapas sobre la imagen compuesta; ninguna cambia
// la geometría
func (p *Pipeline) ApplyGlobal(img *image.NRGBA, s *rng.Stream) (*image.NRGBA, []string) {
	res := &DocumentResult{Image: img}
	g := p.global

	// 4. Tinte de color
	if s.Bernoulli(g.ColorTint.Prob) {
		var shift [3]int
		for i := range shift {
			shift[i] = s.IntRange(g.ColorTint.Shift.Min(), g.ColorTint.Shift.Max())
		}
		res.Image = colorTint(res.Image, shift)
		p.applied(res, StageColorTint, "shift", shift)
	}

	// 5. Sombra
	if s.Bernoulli(g.Shadow.Prob) {
		sh := shadowParams{
			angle:         s.Uniform(0, 360),
			intensity:     s.Uniform(g.Shadow.Intensity.Min(), g.Shadow.Intensity.Max()),
			amount:        s.Uniform(g.Shadow.Amount.Min(), g.Shadow.Amount.Max()),
			smoothing:     s.Uniform(g.Shadow.Smoothing.Min(), g.Shadow.Smoothing.Max()),
			bidirectional: s.Bernoulli(g.Shadow.Bidirectional),
		}
		res.Image = shadow(res.Image, sh)
		p.applied(res, StageShadow, "intensity", sh.intensity, "amount", sh.amount)
	}

	// 6. Contraste
	if s.Bernoulli(g.Contrast.Prob) {
		alpha := s.Uniform(g.Contrast.Alpha.Min(), g.Contrast.Alpha.Max())
		res.Image = contrast(res.Image, alpha)
		p.applied(res, StageContrast, "alpha", alpha)
	}

	// 7. Brillo
	if s.Bernoulli(g.Brightness.Prob) {
		beta := s.Uniform(g.Brightness.Beta.Min(), g.Brightness.Beta.Max())
		res.Image = brightness(res.Image, beta)
		p.applied(res, StageBrightness, "beta", beta)
	}

	// 8. Desenfoque de movimiento
	if s.Bernoulli(g.MotionBlur.Prob) {
		k := s.IntRange(g.MotionBlur.K.Min(), g.MotionBlur.K.Max())
		angle := s.Uniform(g.MotionBlur.Angle.Min(), g.MotionBlur.Angle.Max())
		res.Image = motionBlur(res.Image, k, angle)
		p.applied(res, StageMotionBlur, "k", k, "angle", angle)
	}

	// 9. Desenfoque gaussiano
	if s.Bernoulli(g.GaussianBlur.Prob) {
		sigma := s.Uniform(g.GaussianBlur.Sigma.Min(), g.GaussianBlur.Sigma.Max())
		res.Image = gaussianBlur(res.Image, sigma)
		p.applied(res, StageGaussian, "sigma", sigma)
	}

	return res.Image, res.Applied
}

func (p *Pipeline) applied(res *DocumentResult, stage string, kv ...interface{}) {
	res.Applied = append(res.Applied, stage)
	metrics.RecordEffectApplied(stage)
	p.logger.Debugw("Effect applied", append([]interface{}{"stage", stage}, kv...)...)
}
