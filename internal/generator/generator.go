// Package generator arma una muestra completa: contenido, layout, etiqueta
// sincronizada, capas compuestas y efectos, todo desde un único flujo
// aleatorio.
package generator

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/compose"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/content"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/effects"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/groundtruth"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/layout"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/metrics"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/render"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/rng"
	"github.com/Roch-git/Synth-Receipt-Generator/pkg/logger"
)

// Sample muestra generada. Inmutable tras Generate.
type Sample struct {
	Image   *image.NRGBA
	Label   string
	Quality int
	// ROI cuadrilátero del documento en coordenadas del lienzo final
	ROI   compose.Quad
	Data  groundtruth.Data
	Boxes []groundtruth.TextBox

	Perspective string
	Effects     []string
	Attempts    int
}

// Options parámetros de construcción de un generador
type Options struct {
	Spec   *config.ReceiptSpec
	Corpus *content.Corpus
	// Now fecha de referencia para las fechas de los tickets
	Now         time.Time
	Seed        int64
	MaxAttempts int
	Logger      *logger.Logger
}

// Generator produce muestras en secuencia. No es seguro para uso
// concurrente: cada worker crea el suyo con una semilla derivada.
type Generator struct {
	spec        *config.ReceiptSpec
	builder     *content.Builder
	engine      *layout.Engine
	fonts       *render.Fonts
	effects     *effects.Pipeline
	background  *compose.Textures
	paper       *compose.Textures
	stream      *rng.Stream
	maxAttempts int
	logger      *logger.Logger
}

// New crea un generador. Valida la configuración y carga fuentes, corpus y
// texturas una sola vez.
func New(opts Options) (*Generator, error) {
	if opts.Spec == nil {
		opts.Spec = config.DefaultReceiptSpec()
	}
	if err := opts.Spec.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	cs := opts.Spec.Document.Content
	corpus := opts.Corpus
	if corpus == nil {
		var err error
		corpus, err = content.LoadCorpus(cs.CorpusPath)
		if err != nil {
			return nil, err
		}
	}
	builder, err := content.NewBuilder(cs, corpus, opts.Now)
	if err != nil {
		return nil, err
	}

	fonts, err := render.LoadFonts(cs.Font.Path, cs.Font.BoldPath)
	if err != nil {
		return nil, err
	}
	background, err := compose.LoadTextures(opts.Spec.Background.TextureDir)
	if err != nil {
		return nil, err
	}
	paper, err := compose.LoadTextures(opts.Spec.Document.Paper.TextureDir)
	if err != nil {
		return nil, err
	}

	return &Generator{
		spec:        opts.Spec,
		builder:     builder,
		engine:      layout.NewEngine(cs, fonts),
		fonts:       fonts,
		effects:     effects.NewPipeline(opts.Spec, opts.Logger),
		background:  background,
		paper:       paper,
		stream:      rng.New(opts.Seed),
		maxAttempts: opts.MaxAttempts,
		logger:      opts.Logger,
	}, nil
}

// Generate produce la siguiente muestra del flujo. Un desborde del layout
// descarta el intento y vuelve a muestrear; cualquier otro error es fatal.
func (g *Generator) Generate() (*Sample, error) {
	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		sample, err := g.attempt()
		if err == nil {
			sample.Attempts = attempt
			return sample, nil
		}
		if !errors.Is(err, layout.ErrLayoutOverflow) {
			return nil, err
		}
		lastErr = err
		metrics.RecordLayoutRetry()
		g.logger.Debugw("Layout overflow, retrying", "attempt", attempt, "error", err)
	}
	return nil, fmt.Errorf("no sample after %d attempts: %w", g.maxAttempts, lastErr)
}

func (g *Generator) attempt() (*Sample, error) {
	s := g.stream

	plan := compose.PlanCanvas(g.spec, s)

	c, err := g.builder.Build(s)
	if err != nil {
		return nil, err
	}

	l, err := g.engine.Arrange(c, plan.Document.X, plan.Document.Y, s)
	if err != nil {
		return nil, err
	}
	plan = plan.Grow(l.Height)

	// Texto y datos quedan fijos antes de cualquier efecto
	gt, err := groundtruth.Synchronize(c, l)
	if err != nil {
		return nil, err
	}

	doc, err := compose.Paper(g.spec.Document.Paper, plan.Document, g.paper, s)
	if err != nil {
		return nil, err
	}
	ink := compose.TextColor(g.spec.Document.Content.Color, s)
	if err := compose.DrawText(doc, l, g.fonts, ink); err != nil {
		return nil, err
	}

	docRes, err := g.effects.ApplyDocument(doc, s)
	if err != nil {
		return nil, err
	}

	bg, err := compose.Background(g.spec.Background, plan.Canvas, g.background, s)
	if err != nil {
		return nil, err
	}
	offset := plan.Place(s)
	img, roi := compose.Compose(bg, docRes.Image, offset, docRes.Quad)

	boxes, err := projectBoxes(gt.Boxes, doc.Bounds(), docRes.Quad, offset)
	if err != nil {
		return nil, err
	}

	img, applied := g.effects.ApplyGlobal(img, s)
	quality := s.IntRange(g.spec.Quality.Min(), g.spec.Quality.Max())

	return &Sample{
		Image:       img,
		Label:       gt.Label,
		Quality:     quality,
		ROI:         roi,
		Data:        gt.Data,
		Boxes:       boxes,
		Perspective: docRes.Variant,
		Effects:     append(docRes.Applied, applied...),
	}, nil
}

// projectBoxes lleva las cajas de texto al lienzo aplicando la misma
// homografía que la perspectiva aplicó a la capa del documento
func projectBoxes(boxes []groundtruth.TextBox, doc image.Rectangle, quad compose.Quad, offset image.Point) ([]groundtruth.TextBox, error) {
	out := make([]groundtruth.TextBox, len(boxes))
	if quad == compose.RectQuad(doc) {
		for i, b := range boxes {
			b.Rect = b.Rect.Add(offset)
			out[i] = b
		}
		return out, nil
	}

	h, err := compose.SolveHomography(compose.RectQuad(doc), quad)
	if err != nil {
		return nil, err
	}
	for i, b := range boxes {
		b.Rect = h.ApplyQuad(compose.RectQuad(b.Rect)).Bounds().Add(offset)
		out[i] = b
	}
	return out, nil
}

// Close libera las fuentes
func (g *Generator) Close() error {
	return g.fonts.Close()
}
