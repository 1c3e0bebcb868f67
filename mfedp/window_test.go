package mfedp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rnastruct/rnafold/energy_params"
	"github.com/rnastruct/rnafold/foldcompound"
)

func TestWindowFoldMatchesGlobalWhenWindowCoversSequence(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)

	global := New(fc)
	global.Fold()

	w := NewWindow(fc, 10)
	w.Fold()

	// With the window at least the sequence length, every banded C entry
	// must agree with the unrestricted matrix.
	for i := 0; i < 10; i++ {
		for j := i + 1; j < 10; j++ {
			assert.Equalf(t, global.C[i][j], w.C(i, j), "C(%d,%d)", i, j)
		}
	}
}

func TestWindowFoldRestrictsPairSpan(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)

	// A window of 7 forbids the outermost pair (0,9) but still allows the
	// inner stem (2,7).
	w := NewWindow(fc, 7)
	w.Fold()
	assert.Equal(t, energy_params.Inf, w.C(0, 9))
	assert.Less(t, w.C(2, 7), energy_params.Inf)
}

func TestWindowLocalStructuresReportsTheStableStem(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)

	w := NewWindow(fc, 10)
	w.Fold()

	hits := w.LocalStructures(0)
	require.NotEmpty(t, hits)

	best := hits[0]
	for _, h := range hits {
		if h.Energy < best.Energy {
			best = h
		}
	}
	assert.Equal(t, 0, best.Start)
	assert.Equal(t, 9, best.End)
	assert.Equal(t, "(((....)))", best.Structure)
	assert.Less(t, best.Energy, 0)
}

func TestWindowLocalStructuresEmptyWhenNothingStable(t *testing.T) {
	fc, err := foldcompound.New("CCCCCCCCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)
	w := NewWindow(fc, 10)
	w.Fold()
	assert.Empty(t, w.LocalStructures(0))
}
