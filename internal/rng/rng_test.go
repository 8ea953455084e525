package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_Deterministic(t *testing.T) {
	a, b := New(123), New(123)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestStream_DifferentSeedsDiffer(t *testing.T) {
	a, b := New(1), New(2)
	same := 0
	for i := 0; i < 32; i++ {
		if a.Uint64() == b.Uint64() {
			same++
		}
	}
	assert.Less(t, same, 32)
}

func TestDeriveSeed(t *testing.T) {
	assert.Equal(t, DeriveSeed(42, 100), DeriveSeed(42, 100))
	assert.NotEqual(t, DeriveSeed(42, 0), DeriveSeed(42, 100))
	assert.NotEqual(t, DeriveSeed(42, 0), DeriveSeed(43, 0))
}

func TestStream_Ranges(t *testing.T) {
	s := New(7)
	for i := 0; i < 1000; i++ {
		v := s.IntRange(3, 15)
		assert.GreaterOrEqual(t, v, 3)
		assert.LessOrEqual(t, v, 15)

		f := s.Uniform(0.5, 1.5)
		assert.GreaterOrEqual(t, f, 0.5)
		assert.LessOrEqual(t, f, 1.5)
	}
	assert.Equal(t, 4, s.IntRange(4, 4))
	assert.Equal(t, 2.0, s.Uniform(2, 2))
}

func TestStream_BernoulliAlwaysDraws(t *testing.T) {
	a, b := New(9), New(9)
	assert.False(t, a.Bernoulli(0))
	assert.True(t, a.Bernoulli(1))
	b.Float64()
	b.Float64()
	assert.Equal(t, b.Uint64(), a.Uint64())
}

func TestStream_Choice(t *testing.T) {
	s := New(11)

	_, err := s.Choice(nil)
	assert.ErrorIs(t, err, ErrNoWeights)
	_, err = s.Choice([]float64{0, 0})
	assert.ErrorIs(t, err, ErrNoWeights)

	idx, err := s.Choice([]float64{0, 5, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	counts := make([]int, 2)
	const n = 20000
	for i := 0; i < n; i++ {
		idx, err := s.Choice([]float64{9, 1})
		require.NoError(t, err)
		counts[idx]++
	}
	assert.InDelta(t, 0.9, float64(counts[0])/n, 0.02)
}

func TestStream_ChildDoesNotDesyncParent(t *testing.T) {
	a, b := New(5), New(5)
	child := a.Child()
	for i := 0; i < 50; i++ {
		child.Uint64()
	}
	b.Uint64()
	assert.Equal(t, b.Uint64(), a.Uint64())
}
