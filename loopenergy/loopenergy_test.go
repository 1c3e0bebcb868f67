package loopenergy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rnastruct/rnafold/constraints"
	"github.com/rnastruct/rnafold/energy_params"
	"github.com/rnastruct/rnafold/rnaseq"
)

func newKernels(t *testing.T, mutate func(*constraints.ModelDetails)) Kernels {
	t.Helper()
	params := energy_params.NewEnergyParams(energy_params.Turner2004, 37.0)
	md := constraints.DefaultModelDetails()
	if mutate != nil {
		mutate(&md)
	}
	return New(params, &md)
}

func mustSeq(t *testing.T, raw string) *rnaseq.Sequence {
	t.Helper()
	seq, err := rnaseq.New(raw)
	require.NoError(t, err)
	return seq
}

func TestHairpinTooSmallIsForbidden(t *testing.T) {
	k := newKernels(t, nil)
	seq := mustSeq(t, "GGGAAAUCCC")
	// Only two unpaired bases between the pairing partners: below Turn.
	assert.Equal(t, energy_params.Inf, k.Hairpin(seq, 0, 3))
}

func TestHairpinFeasibleLoopIsFinite(t *testing.T) {
	k := newKernels(t, nil)
	seq := mustSeq(t, "GGGAAAUCCC")
	assert.Less(t, k.Hairpin(seq, 2, 7), energy_params.Inf)
}

func TestHairpinNoClosingGURejectsWobbleClosure(t *testing.T) {
	seq := mustSeq(t, "GAAAAU")
	// (0,5) is a G-U wobble closing the hairpin.
	permissive := newKernels(t, nil)
	assert.Less(t, permissive.Hairpin(seq, 0, 5), energy_params.Inf)

	strict := newKernels(t, func(md *constraints.ModelDetails) { md.NoClosingGU = true })
	assert.Equal(t, energy_params.Inf, strict.Hairpin(seq, 0, 5))
}

func TestInteriorLoopStackIsTheStackingPairEntry(t *testing.T) {
	k := newKernels(t, nil)
	seq := mustSeq(t, "GGGAAAUCCC")
	t1 := seq.PairType(0, 9)
	t2 := seq.PairType(8, 1)
	assert.Equal(t, k.Params.StackingPair[t1][t2], k.InteriorLoop(seq, 0, 9, 1, 8))
}

func TestInteriorLoopSingleBulgeKeepsTheStack(t *testing.T) {
	k := newKernels(t, nil)
	seq := mustSeq(t, "GAGAAAUCCC")
	// Outer pair (0,9), inner pair (2,8): one bulged base on the 5' side.
	t1 := seq.PairType(0, 9)
	t2 := seq.PairType(8, 2)
	want := k.Params.Bulge[1] + k.Params.StackingPair[t1][t2]
	assert.Equal(t, want, k.InteriorLoop(seq, 0, 9, 2, 8))
}

func TestInteriorLoopRejectsNonPairingClosure(t *testing.T) {
	k := newKernels(t, nil)
	seq := mustSeq(t, "GGGAAAUCCC")
	// (3,4) is A-A: the inner "pair" can't form.
	assert.Equal(t, energy_params.Inf, k.InteriorLoop(seq, 0, 9, 3, 4))
}

func TestNinioAsymmetryPenaltyIsCapped(t *testing.T) {
	k := newKernels(t, nil)
	assert.Equal(t, k.Params.Ninio, k.ninioPenalty(2, 3))
	assert.Equal(t, k.Params.MaxNinio, k.ninioPenalty(1, 20))
	assert.Equal(t, 0, k.ninioPenalty(4, 4))
}

func TestLoopLengthEnergyExtrapolatesPastTheTable(t *testing.T) {
	k := newKernels(t, nil)
	table := k.Params.InteriorLoop
	assert.Equal(t, table[energy_params.MaxLenLoop], k.loopLengthEnergy(table, energy_params.MaxLenLoop))
	// Past the tabulated maximum the logarithmic extrapolation keeps
	// growing the penalty.
	assert.Greater(t, k.loopLengthEnergy(table, 60), table[energy_params.MaxLenLoop])
}

func TestExteriorStemDangleNone(t *testing.T) {
	k := newKernels(t, func(md *constraints.ModelDetails) { md.Dangles = constraints.DangleNone })
	gc := mustSeq(t, "GGGAAAUCCC")
	assert.Equal(t, 0, k.ExteriorStem(gc, 0, 9), "a G-C closed stem carries no terminal penalty and no dangles")

	au := mustSeq(t, "AGGAAAUCCU")
	assert.Equal(t, k.Params.TerminalAUPenalty, k.ExteriorStem(au, 0, 9))
}

func TestExteriorStemOptionalDanglesNeverHurt(t *testing.T) {
	seq := mustSeq(t, "GGGAAAUCCC")
	none := newKernels(t, func(md *constraints.ModelDetails) { md.Dangles = constraints.DangleNone })
	optional := newKernels(t, func(md *constraints.ModelDetails) { md.Dangles = constraints.DangleBothOptional })
	// The optional model takes the minimum over no/5'/3'/both dangles, so
	// it can only improve on the dangle-free score.
	assert.LessOrEqual(t, optional.ExteriorStem(seq, 1, 8), none.ExteriorStem(seq, 1, 8))
}

func TestMultiBranchStemAddsTheInternPenalty(t *testing.T) {
	k := newKernels(t, func(md *constraints.ModelDetails) { md.Dangles = constraints.DangleNone })
	seq := mustSeq(t, "GGGAAAUCCC")
	diff := k.MultiBranchStem(seq, 0, 9) - k.ExteriorStem(seq, 0, 9)
	assert.Equal(t, k.Params.MultiLoopIntern[0], diff)
}
