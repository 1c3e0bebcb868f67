package foldcompound

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rnastruct/rnafold/energy_params"
)

func TestNewRejectsInvalidSequence(t *testing.T) {
	_, err := New("ACGTACGT", DefaultOptions())
	require.Error(t, err)
}

func TestNewValidSequence(t *testing.T) {
	fc, err := New("GGGAAAUCCC", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, Single, fc.Variant)
	assert.Equal(t, 10, fc.Length)
	assert.NotNil(t, fc.Hard)
	assert.NotNil(t, fc.Soft)
}

func TestCanPairSingle(t *testing.T) {
	fc, err := New("GGGAAAUCCC", DefaultOptions())
	require.NoError(t, err)
	// position 0 (G) and 9 (C), 0-based, should be pairable.
	assert.True(t, fc.CanPair(0, 9))
	// position 3 and 4 are both A; can't pair.
	assert.False(t, fc.CanPair(3, 4))
}

func TestToKcalFromKcalRoundTrip(t *testing.T) {
	assert.InDelta(t, -12.34, ToKcal(FromKcal(-12.34)), 1e-6)
	assert.Equal(t, 0.0, ToKcal(0))
}

func TestToKcalInfinity(t *testing.T) {
	assert.True(t, math.IsInf(ToKcal(energy_params.Inf), 1))
	assert.Equal(t, energy_params.Inf, FromKcal(math.Inf(1)))
}

func TestNewAlignmentRejectsColumnMismatch(t *testing.T) {
	_, err := NewAlignment([]string{"GGGAAAUCCC", "GGGAAAUCC"}, DefaultOptions())
	require.Error(t, err)
}

func TestNewAlignmentBuildsA2S(t *testing.T) {
	fc, err := NewAlignment([]string{"GGGAAAUCCC", "GGG--AUCCC"}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, Alignment, fc.Variant)
	assert.Equal(t, 10, fc.Length)
	require.Len(t, fc.Alignment, 2)
	// The second sequence has two gapped columns, so its ungapped length
	// should be 8.
	assert.Equal(t, 8, fc.Alignment[1].Len())
}

func TestCanPairAlignmentRequiresUnanimity(t *testing.T) {
	fc, err := NewAlignment([]string{"GGGAAAUCCC", "AAAAAAAAAA"}, DefaultOptions())
	require.NoError(t, err)
	// First sequence allows (0,9) to pair (G-C), second does not (A-A).
	assert.False(t, fc.CanPair(0, 9))
}

func TestCanPairAlignmentOldAliEnRelaxesToAnySequence(t *testing.T) {
	opts := DefaultOptions()
	opts.Model.OldAliEn = true
	fc, err := NewAlignment([]string{"GGGAAAUCCC", "AAAAAAAAAA"}, opts)
	require.NoError(t, err)
	assert.True(t, fc.CanPair(0, 9))
}

func TestSetReferenceStructuresValid(t *testing.T) {
	fc, err := New("GGGAAAUCCC", DefaultOptions())
	require.NoError(t, err)

	pt1 := onePairTable(10, map[int]int{1: 10, 2: 9, 3: 8})
	pt2 := onePairTable(10, nil)
	require.NoError(t, fc.SetReferenceStructures(pt1, pt2))
	assert.NotNil(t, fc.ReferenceOne)
	assert.NotNil(t, fc.ReferenceTwo)
}

func TestSetReferenceStructuresRejectsDisallowedPair(t *testing.T) {
	fc, err := New("AAAAAAAAAA", DefaultOptions())
	require.NoError(t, err)

	pt1 := onePairTable(10, map[int]int{1: 10})
	pt2 := onePairTable(10, nil)
	err = fc.SetReferenceStructures(pt1, pt2)
	require.Error(t, err)
}

func TestSetReferenceStructuresRejectsWrongLength(t *testing.T) {
	fc, err := New("GGGAAAUCCC", DefaultOptions())
	require.NoError(t, err)
	err = fc.SetReferenceStructures(make([]int, 5), make([]int, 11))
	require.Error(t, err)
}

// onePairTable builds a 1-based pair table of the given sequence length
// (slice length n+1, index 0 unused) from a map of one side of each pair;
// the reverse direction is filled in automatically.
func onePairTable(n int, pairs map[int]int) []int {
	pt := make([]int, n+1)
	for i := range pt {
		pt[i] = -1
	}
	for i, j := range pairs {
		pt[i] = j
		pt[j] = i
	}
	return pt
}
