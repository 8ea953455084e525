// Package render mide y rasteriza texto con fuentes OpenType.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Style peso de la fuente
type Style int

const (
	Regular Style = iota
	Bold
)

// Align alineación horizontal dentro de una caja
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

type faceKey struct {
	style Style
	size  int
}

// Fonts fuentes regular y negrita con caché de faces por tamaño.
// No es seguro para uso concurrente; cada generador crea la suya.
type Fonts struct {
	regular *opentype.Font
	bold    *opentype.Font
	faces   map[faceKey]font.Face
}

// LoadFonts carga fuentes TTF/OTF; paths vacíos usan Go Mono embebida
func LoadFonts(regularPath, boldPath string) (*Fonts, error) {
	regular, err := parseFont(regularPath, gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load regular font: %w", err)
	}
	bold, err := parseFont(boldPath, gomonobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load bold font: %w", err)
	}
	return &Fonts{
		regular: regular,
		bold:    bold,
		faces:   make(map[faceKey]font.Face),
	}, nil
}

func parseFont(path string, fallback []byte) (*opentype.Font, error) {
	data := fallback
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	return opentype.Parse(data)
}

// Face retorna la face para un estilo y tamaño en píxeles (redondeado)
func (f *Fonts) Face(style Style, size float64) (font.Face, error) {
	key := faceKey{style: style, size: int(math.Round(size))}
	if key.size < 1 {
		key.size = 1
	}
	if face, ok := f.faces[key]; ok {
		return face, nil
	}

	src := f.regular
	if style == Bold {
		src = f.bold
	}
	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    float64(key.size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face size %d: %w", key.size, err)
	}
	f.faces[key] = face
	return face, nil
}

// Width ancho en píxeles del texto
func (f *Fonts) Width(text string, style Style, size float64) int {
	face, err := f.Face(style, size)
	if err != nil {
		return math.MaxInt32
	}
	return font.MeasureString(face, text).Ceil()
}

// LineHeight alto ascent+descent para el tamaño dado
func (f *Fonts) LineHeight(style Style, size float64) int {
	face, err := f.Face(style, size)
	if err != nil {
		return 0
	}
	m := face.Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

// Draw dibuja text dentro de box con la alineación dada, centrado en
// vertical. Retorna el rectángulo que ocupa el texto.
func (f *Fonts) Draw(dst draw.Image, text string, style Style, size float64, box image.Rectangle, align Align, c color.Color) (image.Rectangle, error) {
	face, err := f.Face(style, size)
	if err != nil {
		return image.Rectangle{}, err
	}

	width := font.MeasureString(face, text).Ceil()
	m := face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()

	x := box.Min.X
	switch align {
	case AlignCenter:
		x = box.Min.X + (box.Dx()-width)/2
	case AlignRight:
		x = box.Max.X - width
	}
	baseline := box.Min.Y + (box.Dy()-(ascent+descent))/2 + ascent

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)

	return image.Rect(x, baseline-ascent, x+width, baseline+descent), nil
}

// Close libera las faces en caché
func (f *Fonts) Close() error {
	for k, face := range f.faces {
		face.Close()
		delete(f.faces, k)
	}
	return nil
}
