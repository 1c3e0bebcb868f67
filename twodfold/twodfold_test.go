package twodfold

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rnastruct/rnafold/energy_params"
	"github.com/rnastruct/rnafold/foldcompound"
	"github.com/rnastruct/rnafold/mfedp"
)

func TestNewReferenceParsesPairsAndCount(t *testing.T) {
	ref, err := NewReference("(((....)))")
	require.NoError(t, err)
	assert.Equal(t, 3, ref.NumPairs)
	assert.True(t, ref.Pairs(0, 9))
	assert.True(t, ref.Pairs(1, 8))
	assert.True(t, ref.Pairs(2, 7))
	assert.False(t, ref.Pairs(0, 5))
}

func TestReferenceDeltas(t *testing.T) {
	ref, err := NewReference("(((....)))")
	require.NoError(t, err)

	assert.Equal(t, 0, ref.pairDelta(0, 9), "forming a pair the reference also has costs nothing")
	// Forming (0,5) charges the non-reference pair itself, plus the loss of
	// the reference pair (0,9) whose canonical endpoint 0 is now claimed.
	assert.Equal(t, 2, ref.pairDelta(0, 5))
	// Forming (3,8) charges the non-reference pair plus the loss of (1,8)'s
	// canonical endpoint... which is 1, not 8, so only position 3 (not a
	// canonical endpoint) and 8 (not canonical either) matter: one charge.
	assert.Equal(t, 1, ref.pairDelta(3, 8))

	assert.Equal(t, 1, ref.unpairedDelta(0), "leaving a canonical 5' endpoint unpaired loses its reference pair")
	assert.Equal(t, 0, ref.unpairedDelta(9), "the 3' endpoint is not the charge point for its pair")
	assert.Equal(t, 0, ref.unpairedDelta(4), "a reference-unpaired position costs nothing")

	assert.Equal(t, 3, ref.rangeDelta(0, 9), "all three reference pairs are lost when everything is unpaired")
	assert.Equal(t, 0, ref.rangeDelta(3, 6))
	assert.Equal(t, 0, ref.rangeDelta(5, 3), "an empty range contributes nothing")
}

func TestCellSetMergesByMinimum(t *testing.T) {
	c := newCell(2, 2)
	c.set(1, 1, 100)
	c.set(1, 1, 50)
	assert.Equal(t, 50, c.At(1, 1))
}

func TestCellSetOutOfRangeGoesToOverflow(t *testing.T) {
	c := newCell(1, 1)
	c.set(5, 5, 42)
	assert.Equal(t, 42, c.Overflow)
	c.set(5, 5, 10)
	assert.Equal(t, 10, c.Overflow)
	c.set(5, 5, 99)
	assert.Equal(t, 10, c.Overflow, "a larger value must not replace a smaller overflow")
}

func TestShiftOffsetsClasses(t *testing.T) {
	src := newCell(2, 2)
	src.values[0][0] = 10
	dst := newCell(3, 3)
	shift(dst, src, 1, 1, 5)
	assert.Equal(t, 15, dst.At(1, 1))
	assert.Equal(t, energy_params.Inf, dst.At(0, 0))
}

func TestCombineSumsCrossProduct(t *testing.T) {
	a := newCell(2, 2)
	a.values[0][0] = 10
	b := newCell(2, 2)
	b.values[1][0] = 20
	dst := newCell(4, 4)
	combine(dst, a, b, 1)
	assert.Equal(t, 31, dst.At(1, 0))
}

func TestTwoDfoldUnconstrainedClassMatchesMFE(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)

	ref1, err := NewReference("(((....)))")
	require.NoError(t, err)
	ref2, err := NewReference("..........")
	require.NoError(t, err)

	mfeEngine := mfedp.New(fc)
	mfe := mfeEngine.Fold()

	solutions := TwoDfold(fc, ref1, ref2, 3, 3)
	require.NotEmpty(t, solutions)

	var byClass = map[[2]int]Solution{}
	for _, s := range solutions {
		byClass[[2]int{s.K, s.L}] = s
	}

	// The fully unpaired structure loses all three of ref1's pairs
	// (distance 3) and trivially matches the all-unpaired ref2 (distance
	// 0), landing in the (3,0) class at zero energy.
	empty, ok := byClass[[2]int{3, 0}]
	require.True(t, ok)
	assert.Equal(t, 0, empty.Energy)
	assert.Equal(t, strings.Repeat(".", 10), empty.Structure)

	// The fully nested stem matches ref1 exactly (0 mismatches) and
	// mismatches ref2 on every one of its 3 formed pairs, landing in class
	// (0,3) at the same energy as the unconstrained fold.
	nested, ok := byClass[[2]int{0, 3}]
	require.True(t, ok)
	assert.Equal(t, mfe, nested.Energy)
	assert.Equal(t, 3, strings.Count(nested.Structure, "("))
	assert.Equal(t, 3, strings.Count(nested.Structure, ")"))
}

func TestTwoDfoldNarrowWindowStillReportsTheEmptyClass(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)
	ref1, err := NewReference("..........")
	require.NoError(t, err)

	// A (0,0) window is too narrow to hold any structure that forms a pair
	// (every pair mismatches both all-unpaired references), so those land
	// in the overflow bucket; the fully unpaired structure still reports
	// in-window at (0,0), zero energy.
	solutions := TwoDfold(fc, ref1, ref1, 0, 0)
	require.NotEmpty(t, solutions)

	var zeroClass *Solution
	for i := range solutions {
		if solutions[i].K == 0 && solutions[i].L == 0 {
			zeroClass = &solutions[i]
		}
	}
	require.NotNil(t, zeroClass)
	assert.Equal(t, 0, zeroClass.Energy)
}
