package compose

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/layout"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/render"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/rng"
)

// Textures imágenes de textura de un directorio, decodificadas bajo demanda
type Textures struct {
	paths []string
	cache map[string]image.Image
}

// LoadTextures lista las imágenes de dir en orden alfabético. dir vacío
// retorna un conjunto vacío.
func LoadTextures(dir string) (*Textures, error) {
	t := &Textures{cache: make(map[string]image.Image)}
	if dir == "" {
		return t, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read texture dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			t.paths = append(t.paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(t.paths)
	return t, nil
}

// Len número de texturas
func (t *Textures) Len() int {
	return len(t.paths)
}

// Get decodifica (y guarda en caché) la textura i
func (t *Textures) Get(i int) (image.Image, error) {
	path := t.paths[i]
	if img, ok := t.cache[path]; ok {
		return img, nil
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture %s: %w", path, err)
	}
	t.cache[path] = img
	return img, nil
}

// Background capa de fondo: color gris plano, textura opcional mezclada con
// alpha y desenfoque opcional
func Background(spec config.BackgroundSpec, size image.Point, tex *Textures, s *rng.Stream) (*image.NRGBA, error) {
	img, err := flatTextured(size, spec.Gray, spec.Alpha, tex, s)
	if err != nil {
		return nil, err
	}
	if s.Bernoulli(spec.Blur.Prob) {
		img = imaging.Blur(img, s.Uniform(spec.Blur.Sigma.Min(), spec.Blur.Sigma.Max()))
	}
	return img, nil
}

// Paper capa de papel del documento
func Paper(spec config.PaperSpec, size image.Point, tex *Textures, s *rng.Stream) (*image.NRGBA, error) {
	return flatTextured(size, spec.Gray, spec.Alpha, tex, s)
}

func flatTextured(size image.Point, gray config.IntRange, alpha config.FloatRange, tex *Textures, s *rng.Stream) (*image.NRGBA, error) {
	g := uint8(s.IntRange(gray.Min(), gray.Max()))
	img := imaging.New(size.X, size.Y, color.NRGBA{g, g, g, 255})

	if tex == nil || tex.Len() == 0 {
		return img, nil
	}
	idx := s.IntN(tex.Len())
	opacity := s.Uniform(alpha.Min(), alpha.Max())

	src, err := tex.Get(idx)
	if err != nil {
		return nil, err
	}
	fill := imaging.Fill(src, size.X, size.Y, imaging.Center, imaging.Linear)
	return imaging.Overlay(img, fill, image.Pt(0, 0), opacity), nil
}

// TextColor gris del texto
func TextColor(spec config.ColorSpec, s *rng.Stream) color.NRGBA {
	g := uint8(s.IntRange(spec.Gray.Min(), spec.Gray.Max()))
	return color.NRGBA{g, g, g, 255}
}

// DrawText dibuja todos los textos del layout sobre el papel
func DrawText(paper *image.NRGBA, l *layout.Layout, fonts *render.Fonts, c color.Color) error {
	for _, r := range l.Runs() {
		if _, err := fonts.Draw(paper, r.Text, r.Style, r.Size, r.Box, r.Align, c); err != nil {
			return fmt.Errorf("failed to draw %q: %w", r.Text, err)
		}
	}
	return nil
}
