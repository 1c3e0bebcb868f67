package gquad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumerateFindsCanonicalQuadruplex(t *testing.T) {
	seq := "GGG.GGG.GGG.GGG"
	quads := Enumerate(seq, 0, len(seq)-1)
	require.NotEmpty(t, quads)

	found := false
	for _, q := range quads {
		if q.StackSize == 3 && q.L1 == 1 && q.L2 == 1 && q.L3 == 1 {
			found = true
			assert.Equal(t, 0, q.FivePrimeIdx)
			assert.Equal(t, len(seq)-1, q.ThreePrimeIdx())
		}
	}
	assert.True(t, found, "expected to find the L=3, l1=l2=l3=1 quadruplex spanning the whole window")
}

func TestEnumerateRejectsNonQuadruplexSequence(t *testing.T) {
	quads := Enumerate("ACGUACGUACGUACGU", 0, 15)
	assert.Empty(t, quads)
}

func TestEnumerateOutOfRangeWindow(t *testing.T) {
	seq := "GGGG"
	assert.Empty(t, Enumerate(seq, -1, 3))
	assert.Empty(t, Enumerate(seq, 0, 10))
	assert.Empty(t, Enumerate(seq, 3, 2))
}

func TestEnergyFavorsLargerStacks(t *testing.T) {
	small := Energy(Quadruplex{StackSize: 2, L1: 1, L2: 1, L3: 1})
	large := Energy(Quadruplex{StackSize: 4, L1: 1, L2: 1, L3: 1})
	assert.Less(t, large, small, "more stacked quartets should be more favorable (more negative)")
}

func TestEnergyPenalizesLongerLinkers(t *testing.T) {
	short := Energy(Quadruplex{StackSize: 3, L1: 1, L2: 1, L3: 1})
	long := Energy(Quadruplex{StackSize: 3, L1: 10, L2: 10, L3: 10})
	assert.Less(t, short, long, "longer linkers should be less favorable")
}

func TestBoltzmannWeightDecreasesWithEnergy(t *testing.T) {
	kT := 0.616
	favorable := Quadruplex{StackSize: 4, L1: 1, L2: 1, L3: 1}
	unfavorable := Quadruplex{StackSize: 2, L1: 10, L2: 10, L3: 10}
	assert.Greater(t, BoltzmannWeight(favorable, kT), BoltzmannWeight(unfavorable, kT))
}

func TestEngineMFEAndPattern(t *testing.T) {
	seq := "GGG.GGG.GGG.GGG"
	e := NewEngine(seq, 0.616)

	energy, ok := e.MFE(0, len(seq)-1)
	require.True(t, ok)

	pattern, ok := e.Pattern(0, len(seq)-1)
	require.True(t, ok)
	assert.Equal(t, energy, Energy(pattern))

	assert.Greater(t, e.PartitionFunction(0, len(seq)-1), 0.0)
}

func TestEngineNoQuadruplexWindow(t *testing.T) {
	e := NewEngine("ACGUACGUACGUACGU", 0.616)
	_, ok := e.MFE(0, 15)
	assert.False(t, ok)
	assert.Equal(t, 0.0, e.PartitionFunction(0, 15))
}

func TestHoogsteenTriplesCoverAllTracts(t *testing.T) {
	q := Quadruplex{FivePrimeIdx: 0, StackSize: 3, L1: 1, L2: 1, L3: 1}
	triples := q.HoogsteenTriples()
	require.Len(t, triples, 4*3)

	positions := make(map[int]bool)
	for _, tr := range triples {
		positions[tr[0]] = true
	}
	// The four tracts of "GGG.GGG.GGG.GGG" start at 0, 4, 8, 12.
	for _, start := range []int{0, 4, 8, 12} {
		for layer := 0; layer < 3; layer++ {
			assert.Truef(t, positions[start+layer], "expected position %d to be covered", start+layer)
		}
	}
}

func TestDistributeProbabilitySumsToTotal(t *testing.T) {
	seq := "GGG.GGG.GGG.GGG"
	e := NewEngine(seq, 0.616)
	dist := e.DistributeProbability(0, len(seq)-1, 0.8)
	require.NotNil(t, dist)

	sum := 0.0
	for _, v := range dist {
		sum += v
	}
	assert.InDelta(t, 0.8, sum, 1e-9)
}

func TestDistributeProbabilityNoPattern(t *testing.T) {
	e := NewEngine("ACGUACGUACGUACGU", 0.616)
	assert.Nil(t, e.DistributeProbability(0, 15, 0.5))
}

func TestLayerMismatchPenaltyAllLayersIntact(t *testing.T) {
	q := Quadruplex{FivePrimeIdx: 0, StackSize: 3, L1: 1, L2: 1, L3: 1}
	seq := "GGG.GGG.GGG.GGG"
	penalty, ok := LayerMismatchPenalty(q, seq, 500, 0)
	assert.True(t, ok)
	assert.Equal(t, 0, penalty)
}

func TestLayerMismatchPenaltyDestroyedLayer(t *testing.T) {
	q := Quadruplex{FivePrimeIdx: 0, StackSize: 3, L1: 1, L2: 1, L3: 1}
	// Mutate the top layer (layer index StackSize-1 == 2) of the second
	// tract from 'G' to 'A' to destroy that layer in this sequence.
	seq := []byte("GGG.GGG.GGG.GGG")
	seq[4+2] = 'A'
	penalty, ok := LayerMismatchPenalty(q, string(seq), 500, 1)
	assert.True(t, ok)
	assert.Equal(t, 500, penalty)

	_, ok = LayerMismatchPenalty(q, string(seq), 500, 0)
	assert.False(t, ok, "exceeding maxMismatch should reject the alignment")
}

func TestInteriorFootprintsFlankRules(t *testing.T) {
	e := NewEngine("CGGGGAGGGGAGGGGAGGGGAAAC", 0.616)

	collect := func(i, j int) map[[2]int]bool {
		out := map[[2]int]bool{}
		e.InteriorFootprints(i, j, 30, func(p, q int) {
			out[[2]int{p, q}] = true
		})
		return out
	}

	// Closing pair (0,23): the footprint (1,19) sits flush against the 5'
	// side (l1=0) with a three-nucleotide 3' flank (l2=3), which the
	// interior decomposition admits.
	assert.True(t, collect(0, 23)[[2]int{1, 19}])

	// Closing pair (0,20): the same footprint would touch the closing pair
	// on both sides (l1=0, l2=0), which is a stack on the quadruplex, not
	// an interior loop.
	assert.False(t, collect(0, 20)[[2]int{1, 19}])
}
