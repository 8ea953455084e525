// Package rng provee el único flujo aleatorio con semilla que usa un generador.
//
// Todas las decisiones de una muestra (contenido, layout, efectos) se toman
// de un mismo Stream, en un orden fijo, para que una semilla reproduzca el
// dataset completo byte a byte. Un Stream no es seguro para uso concurrente:
// cada worker crea el suyo con DeriveSeed.
package rng

import (
	"errors"
	"math"
	"math/rand/v2"
)

// ErrNoWeights se retorna al elegir de una lista vacía o con peso total cero
var ErrNoWeights = errors.New("no positive weights to choose from")

const pcgIncrement = 0xda3e39cb94b95bdb

// Stream flujo aleatorio determinista (PCG)
type Stream struct {
	r *rand.Rand
}

// New crea un flujo a partir de una semilla
func New(seed int64) *Stream {
	return &Stream{r: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^pcgIncrement))}
}

// DeriveSeed deriva la semilla de un rango de índices a partir de la semilla
// global. Rangos distintos obtienen flujos independientes (splitmix64).
func DeriveSeed(global int64, rangeStart int) int64 {
	z := uint64(global) + uint64(rangeStart+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return int64(z)
}

// Child crea un flujo independiente sembrado con un único valor de este.
// Se usa para etapas que consumen un número de valores dependiente del
// tamaño de la imagen (ruido por píxel), sin desalinear el flujo padre.
func (s *Stream) Child() *Stream {
	return New(int64(s.r.Uint64()))
}

// Uint64 retorna 64 bits aleatorios
func (s *Stream) Uint64() uint64 {
	return s.r.Uint64()
}

// Float64 retorna un valor en [0, 1)
func (s *Stream) Float64() float64 {
	return s.r.Float64()
}

// NormFloat64 retorna un valor con distribución normal estándar
func (s *Stream) NormFloat64() float64 {
	return s.r.NormFloat64()
}

// Uniform retorna un valor en [lo, hi]
func (s *Stream) Uniform(lo, hi float64) float64 {
	if hi <= lo {
		s.r.Float64()
		return lo
	}
	return lo + s.r.Float64()*(hi-lo)
}

// IntN retorna un entero en [0, n)
func (s *Stream) IntN(n int) int {
	if n <= 1 {
		s.r.Uint64()
		return 0
	}
	return s.r.IntN(n)
}

// IntRange retorna un entero en [lo, hi], ambos inclusive
func (s *Stream) IntRange(lo, hi int) int {
	if hi <= lo {
		s.r.Uint64()
		return lo
	}
	return lo + s.r.IntN(hi-lo+1)
}

// Bernoulli retorna true con probabilidad p. Siempre consume un valor,
// incluso con p igual a 0 o 1, para mantener estable el orden del flujo.
func (s *Stream) Bernoulli(p float64) bool {
	return s.r.Float64() < p
}

// Choice elige un índice con probabilidad proporcional a su peso.
// Los pesos no necesitan sumar 1.
func (s *Stream) Choice(weights []float64) (int, error) {
	var total float64
	for _, w := range weights {
		if w > 0 && !math.IsInf(w, 0) {
			total += w
		}
	}
	if total <= 0 {
		return 0, ErrNoWeights
	}

	target := s.r.Float64() * total
	last := 0
	for i, w := range weights {
		if w <= 0 || math.IsInf(w, 0) {
			continue
		}
		last = i
		if target < w {
			return i, nil
		}
		target -= w
	}
	// redondeo de punto flotante
	return last, nil
}
