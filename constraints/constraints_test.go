package constraints

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultModelDetails(t *testing.T) {
	md := DefaultModelDetails()
	assert.Equal(t, DangleBothAlways, md.Dangles)
	assert.Equal(t, 37.0, md.Temperature)
	assert.Equal(t, 3, md.Turn)
	assert.False(t, md.Circular)
	assert.False(t, md.GQuad)
}

func TestHardConstraintsAllowAllByDefault(t *testing.T) {
	hc := NewHardConstraints(10)
	assert.True(t, hc.Allowed(2, 8, CtxHairpinClosing))
	assert.True(t, hc.Allowed(2, 8, CtxMultiBranch))
}

func TestHardConstraintsForbid(t *testing.T) {
	hc := NewHardConstraints(10)
	hc.Forbid(2, 8, CtxHairpinClosing)
	assert.False(t, hc.Allowed(2, 8, CtxHairpinClosing))
	// Forbidding one context bit must not clear the others.
	assert.True(t, hc.Allowed(2, 8, CtxMultiBranch))
}

func TestHardConstraintsOutOfRange(t *testing.T) {
	hc := NewHardConstraints(5)
	assert.False(t, hc.Allowed(-1, 3, CtxExterior))
	assert.False(t, hc.Allowed(0, 6, CtxExterior))
}

func TestHardConstraintsVetoDefaultsToFalse(t *testing.T) {
	hc := NewHardConstraints(10)
	assert.False(t, hc.Veto(0, 9, 2, 7, CtxInteriorClosing))
}

func TestHardConstraintsSetVeto(t *testing.T) {
	hc := NewHardConstraints(10)
	hc.SetVeto(func(i, j, k, l int, ctx Context) bool {
		return k == 2 && l == 7
	})
	assert.True(t, hc.Veto(0, 9, 2, 7, CtxInteriorClosing))
	assert.False(t, hc.Veto(0, 9, 3, 7, CtxInteriorClosing))
}

func TestHardConstraintsUnpairedRunLength(t *testing.T) {
	hc := NewHardConstraints(10)
	// Everything is allowed by default, so the run from the 3' end is the
	// full remaining length for every admissible context.
	assert.Equal(t, 10, hc.UnpairedRunLength(CtxExterior, 1))
	assert.Equal(t, 0, hc.UnpairedRunLength(CtxExterior, 11))
}

func TestSoftConstraintsZeroValueIsNoOp(t *testing.T) {
	var sc *SoftConstraints
	assert.Equal(t, 0.0, sc.UnpairedEnergy(3))
	assert.Equal(t, 0.0, sc.PairEnergy(1, 9))
	assert.Equal(t, 0.0, sc.StackEnergy(1, 9))
	assert.Equal(t, 0.0, sc.DecompositionEnergy(0, 9, 2, 7, CtxMultiClosing))
}

func TestSoftConstraintsDecompositionCallback(t *testing.T) {
	sc := NewSoftConstraints(10)
	sc.DecompositionCallback = func(i, j, k, l int, ctx Context) float64 {
		return 1.5
	}
	assert.Equal(t, 1.5, sc.DecompositionEnergy(0, 9, 2, 7, CtxMultiClosing))
}

func TestDeiganSoftConstraintsUniformReactivity(t *testing.T) {
	n := 5
	reactivity := make([]float64, n)
	for i := range reactivity {
		reactivity[i] = 1.0
	}
	sc, err := SoftConstraintsFromProbing(n, reactivity, ProbingParams{
		Method:    ProbingDeigan,
		Slope:     1.8,
		Intercept: -0.6,
	})
	require.NoError(t, err)

	want := 1.8*math.Log(2) - 0.6
	assert.InDelta(t, 0.648, want, 1e-3)
	// Every stacking pair carries the per-nucleotide pseudo-energy once from
	// each of its two probed nucleotides, so with uniform reactivity every
	// pair carries twice the per-nucleotide value.
	assert.InDelta(t, 2*want, sc.StackEnergy(1, 2), 1e-9)
	assert.InDelta(t, 2*want, sc.StackEnergy(2, 5), 1e-9)
}

func TestDeiganSoftConstraintsIgnoresMissingData(t *testing.T) {
	n := 3
	reactivity := []float64{1.0, -1.0, math.NaN()}
	sc, err := SoftConstraintsFromProbing(n, reactivity, ProbingParams{
		Method:    ProbingDeigan,
		Slope:     1.8,
		Intercept: -0.6,
	})
	require.NoError(t, err)
	// Position 2 and 3 have missing reactivity; no pseudo-energy should be
	// attributed to pairs only involving them.
	assert.Equal(t, 0.0, sc.StackEnergy(2, 3))
}

func TestZarringhalamSoftConstraints(t *testing.T) {
	n := 3
	reactivity := []float64{1.0, 0.0, 0.5}
	sc, err := SoftConstraintsFromProbing(n, reactivity, ProbingParams{
		Method: ProbingZarringhalam,
		Beta:   2.0,
	})
	require.NoError(t, err)
	// pr=1 fully reactive (unpaired): Unpaired energy beta*|1-0| = 2.0.
	assert.InDelta(t, 2.0, sc.Unpaired[1], 1e-9)
	// pr=0 fully protected (paired): Unpaired energy beta*|0-0| = 0.
	assert.InDelta(t, 0.0, sc.Unpaired[2], 1e-9)
}

func TestZarringhalamAlignmentNotSupported(t *testing.T) {
	_, err := SoftConstraintsFromProbing(3, []float64{1, 1, 1}, ProbingParams{
		Method:    ProbingZarringhalam,
		Beta:      1.0,
		Alignment: true,
	})
	require.Error(t, err)
	var notSupported *ErrProbingNotSupported
	assert.ErrorAs(t, err, &notSupported)
}

func TestEddySoftConstraintsRequiresSamples(t *testing.T) {
	_, err := SoftConstraintsFromProbing(3, []float64{1, 1, 1}, ProbingParams{
		Method: ProbingEddy,
	})
	require.Error(t, err)
}

func TestEddySoftConstraintsFavorsPairedWhenReactivityLow(t *testing.T) {
	n := 2
	reactivity := []float64{0.05, 0.07}
	sc, err := SoftConstraintsFromProbing(n, reactivity, ProbingParams{
		Method:          ProbingEddy,
		PairedSamples:   []float64{0.0, 0.05, 0.1, 0.02, 0.08},
		UnpairedSamples: []float64{0.9, 1.0, 0.95, 1.1, 0.85},
	})
	require.NoError(t, err)
	// Low reactivity is far outside the unpaired sample distribution, so
	// leaving either position unpaired carries a large positive
	// (penalizing) pseudo-energy, while pairing them is rewarded: the
	// paired-state density at these reactivities is high, so
	// -kT*(ln p_paired(r_i) + ln p_paired(r_j)) comes out negative.
	assert.Greater(t, sc.Unpaired[1], 0.0)
	assert.Greater(t, sc.Unpaired[2], 0.0)
	assert.Less(t, sc.PairEnergy(1, 2), 0.0)
}

func TestWashietlNotSupported(t *testing.T) {
	_, err := SoftConstraintsFromProbing(3, []float64{1, 1, 1}, ProbingParams{
		Method: ProbingWashietl,
	})
	require.Error(t, err)
}
