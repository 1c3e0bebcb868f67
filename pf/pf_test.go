package pf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rnastruct/rnafold/foldcompound"
)

func TestFoldAllCHasOnlyTheEmptyStructure(t *testing.T) {
	fc, err := foldcompound.New("CCCCCCCCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)

	e := New(fc)
	q := e.Fold()
	// The only structure is the fully unpaired one; its weight is the
	// sequence-length scale factor exactly (10 unpaired extensions of
	// scale[1] each).
	assert.InEpsilon(t, e.scaleAt(10), q, 1e-9, "with no feasible pair the ensemble is just the unfolded structure")

	for i := range e.Qb {
		for j := range e.Qb[i] {
			assert.Equalf(t, 0.0, e.Qb[i][j], "Qb[%d][%d] should carry no weight", i, j)
		}
	}
}

func TestFoldNestedStemAddsWeight(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)

	e := New(fc)
	q := e.Fold()
	assert.Greater(t, q, e.scaleAt(10), "a feasible paired structure should add positive weight on top of the unfolded baseline")
	assert.Greater(t, e.Qb[2][7], 0.0, "the innermost stem pair should carry nonzero partition weight")
	assert.Greater(t, e.Qb[0][9], 0.0, "the outermost stem pair should carry nonzero partition weight")
}

func TestBoltzmannOfInfinityIsZero(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)
	e := New(fc)
	assert.Equal(t, 0.0, e.boltzmann(math.MaxInt32))
}

func TestBoltzmannOfZeroIsUnitWeight(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)
	e := New(fc)
	assert.Equal(t, 1.0, e.boltzmann(0))
}

func TestScaleAtClampsOutOfRangeIndices(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)
	e := New(fc)
	assert.Equal(t, e.scale[0], e.scaleAt(-5))
	assert.Equal(t, e.scale[len(e.scale)-1], e.scaleAt(1000))
}

func TestNewScaleIsDecreasingWithCoverage(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)
	e := New(fc)
	// pfScale is derived from a negative per-nucleotide free-energy
	// estimate, so larger m (more nucleotides covered) should scale down
	// the raw Boltzmann weight to keep partial sums representable.
	assert.Greater(t, e.scale[0], e.scale[e.n])
}

// TestFoldMultiLoopLeadingUnpairedIsRealized exercises a multi-loop whose
// first branch does not sit at the closing pair's left edge: the outer
// pair (0,13) encloses an unpaired base at 1 before branch (2,6), an
// unpaired base at 7 between the two branches, and no trailing unpaired
// base after branch (8,12). A fillQm missing the all-unpaired-prefix
// first-branch term can never assign any weight to this decomposition, so
// Qb[0][13] would wrongly sit at zero.
func TestFoldMultiLoopLeadingUnpairedIsRealized(t *testing.T) {
	fc, err := foldcompound.New("GUGAAACAGAAACC", foldcompound.DefaultOptions())
	require.NoError(t, err)

	e := New(fc)
	e.Fold()
	assert.Greater(t, e.Qb[0][13], 0.0, "the outer pair should carry nonzero weight from the multi-loop decomposition with a leading unpaired base")
	assert.Greater(t, e.Qm[1][12], 0.0, "the multi-loop region should carry nonzero weight even though its first branch starts after an unpaired base")
}

func TestFoldCircularSumsComponents(t *testing.T) {
	opts := foldcompound.DefaultOptions()
	opts.Model.Circular = true
	fc, err := foldcompound.New("GGGAAAUCCC", opts)
	require.NoError(t, err)

	e := New(fc)
	q := e.Fold()
	assert.InDelta(t, e.Qho+e.Qio+e.Qmo, q, 1e-9)
}

// TestFoldGQuadruplexAddsEnsembleWeight folds spec scenario 3's sequence
// through the partition function: with no Watson-Crick pair possible, any
// weight beyond the unfolded baseline must come from the quadruplex terms.
func TestFoldGQuadruplexAddsEnsembleWeight(t *testing.T) {
	opts := foldcompound.DefaultOptions()
	opts.Model.GQuad = true
	fc, err := foldcompound.New("GGGGAGGGGAGGGGAGGGG", opts)
	require.NoError(t, err)

	e := New(fc)
	q := e.Fold()
	assert.Greater(t, q, e.scaleAt(19), "quadruplex footprints must add ensemble weight beyond the unfolded baseline")
	assert.Greater(t, e.Qb[0][18], 0.0, "the full-span footprint must carry quadruplex weight")
}
