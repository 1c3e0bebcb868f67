package probability

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rnastruct/rnafold/energy_params"
	"github.com/rnastruct/rnafold/foldcompound"
	"github.com/rnastruct/rnafold/pf"
)

func TestComputeAllCHasNoPairProbability(t *testing.T) {
	fc, err := foldcompound.New("CCCCCCCCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)
	e := pf.New(fc)
	e.Fold()

	m := Compute(e)
	for i := 0; i < 10; i++ {
		for j := i + 1; j < 10; j++ {
			assert.Equalf(t, 0.0, m.At(i, j), "At(%d,%d) should carry no probability", i, j)
		}
		assert.Equal(t, 1.0, m.Unpaired(i))
	}
}

func TestComputeNestedStemHasPositiveProbability(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)
	e := pf.New(fc)
	e.Fold()

	m := Compute(e)
	assert.Greater(t, m.At(0, 9), 0.0)
	assert.Greater(t, m.At(1, 8), 0.0)
	assert.Greater(t, m.At(2, 7), 0.0)
	assert.LessOrEqual(t, m.At(0, 9), 1.0)

	// Every base pair probability is bounded by the definition of a
	// probability, and position 0's total pairing probability (summed over
	// every partner it can pair with) can't exceed 1.
	total := 0.0
	for j := 0; j < 10; j++ {
		if j == 0 {
			continue
		}
		lo, hi := 0, j
		if lo > hi {
			lo, hi = hi, lo
		}
		total += m.At(lo, hi)
	}
	assert.LessOrEqual(t, total, 1.0+1e-9)
}

func TestComputeEmptyEngine(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)
	e := pf.New(fc)
	// Compute before Fold: every Qb/Q entry is still its zero value, so the
	// total partition function is 0 and Compute must not divide by zero.
	m := Compute(e)
	assert.Equal(t, 0.0, m.At(0, 9))
}

func TestBoltzmannConstOfInfinityIsZero(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)
	e := pf.New(fc)
	e.Fold()
	assert.Equal(t, 0.0, boltzmannConst(e, energy_params.Inf))
}

func TestExpMatchesMathExp(t *testing.T) {
	assert.Equal(t, math.Exp(-1.5), exp(-1.5))
}

func TestSampleProducesSymmetricPairTable(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)
	e := pf.New(fc)
	e.Fold()

	rng := rand.New(rand.NewSource(1))
	pairs := Sample(e, 9, rng)
	require.Len(t, pairs, 10)
	for i, j := range pairs {
		if j < 0 {
			continue
		}
		assert.Equalf(t, i, pairs[j], "pair table must be symmetric: pairs[%d]=%d but pairs[%d]=%d", i, j, j, pairs[j])
		assert.NotEqual(t, i, j, "a position can't pair with itself")
	}
}

func TestSampleAllCProducesNoPairs(t *testing.T) {
	fc, err := foldcompound.New("CCCCCCCCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)
	e := pf.New(fc)
	e.Fold()

	rng := rand.New(rand.NewSource(2))
	pairs := Sample(e, 9, rng)
	for _, j := range pairs {
		assert.Equal(t, -1, j)
	}
}
