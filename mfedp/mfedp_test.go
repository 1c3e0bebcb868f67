package mfedp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rnastruct/rnafold/constraints"
	"github.com/rnastruct/rnafold/energy_params"
	"github.com/rnastruct/rnafold/foldcompound"
	"github.com/rnastruct/rnafold/mfedp"
	"github.com/rnastruct/rnafold/traceback"
)

func TestFoldAllCCannotPair(t *testing.T) {
	fc, err := foldcompound.New("CCCCCCCCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)

	e := mfedp.New(fc)
	mfe := e.Fold()
	assert.Equal(t, 0, mfe, "a poly-C sequence has no feasible pair, so the MFE is the unfolded baseline")

	res := traceback.Backtrack(e)
	for i, j := range res.Pairs {
		assert.Equalf(t, -1, j, "position %d should be unpaired", i)
	}
}

func TestFoldNestedStemIsFavorable(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)

	e := mfedp.New(fc)
	mfe := e.Fold()
	assert.Less(t, mfe, 0, "two stacked G-C pairs should outweigh the hairpin-loop penalty")

	res := traceback.Backtrack(e)
	assert.Equal(t, mfe, res.Energy)

	// Other pairings exist (other G-C combinations, and G-U pairs with the
	// lone U), but the minimum is the fully nested three-pair stem
	// (0,9)/(1,8)/(2,7) closing the four-nucleotide hairpin.
	assert.Equal(t, 9, res.Pairs[0])
	assert.Equal(t, 8, res.Pairs[1])
	assert.Equal(t, 7, res.Pairs[2])
	for _, i := range []int{3, 4, 5, 6} {
		assert.Equalf(t, -1, res.Pairs[i], "position %d is part of the hairpin loop", i)
	}

	assert.Equal(t, "(((....)))", traceback.DotBracket(res.Pairs, res.Quadruplexes))
}

func TestFoldRejectsEmptySequence(t *testing.T) {
	_, err := foldcompound.New("", foldcompound.DefaultOptions())
	require.Error(t, err, "an empty sequence is not a valid fold compound input")
}

// bruteForcePairings exhaustively enumerates every valid (non-crossing,
// turn-respecting, base-compatible) secondary structure for the open region
// [i,j], returned as full-length pair tables (-1 outside the region). This
// is independent of mfedp's interval DP: it walks the combinatorial
// definition of "a set of nested, non-crossing compatible pairs" directly,
// so it doesn't inherit any assumption the DP's recursion happens to make
// about where a region's first branch must sit.
func bruteForcePairings(fc *foldcompound.FoldCompound, n, i, j, turn int) [][]int {
	if i > j {
		return [][]int{freshPairs(n)}
	}

	var results [][]int
	for _, sub := range bruteForcePairings(fc, n, i+1, j, turn) {
		results = append(results, sub)
	}

	for k := i + turn + 1; k <= j; k++ {
		if !fc.CanPair(i, k) {
			continue
		}
		for _, inner := range bruteForcePairings(fc, n, i+1, k-1, turn) {
			for _, outer := range bruteForcePairings(fc, n, k+1, j, turn) {
				combined := freshPairs(n)
				copyRange(combined, inner, i+1, k-1)
				copyRange(combined, outer, k+1, j)
				combined[i], combined[k] = k, i
				results = append(results, combined)
			}
		}
	}
	return results
}

func freshPairs(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = -1
	}
	return p
}

func copyRange(dst, src []int, a, b int) {
	for x := a; x <= b; x++ {
		dst[x] = src[x]
	}
}

// bruteForceEnergy computes a complete structure's total energy by walking
// its pair table directly (exterior loop -> closing pairs -> hairpin,
// interior/bulge, or multi-loop, recursing into whichever branches are
// actually present), rather than via any interval DP — an independent
// check against mfedp.Engine.Fold's decomposition.
func bruteForceEnergy(fc *foldcompound.FoldCompound, pairs []int) int {
	mlBase := fc.Params.MultiLoopUnpairedNucleotideBonus
	mlClosing := fc.Params.MultiLoopClosingPenalty
	return bruteForceExterior(fc, pairs, 0, len(pairs)-1, mlBase, mlClosing)
}

func bruteForceExterior(fc *foldcompound.FoldCompound, pairs []int, i, j, mlBase, mlClosing int) int {
	if i > j {
		return 0
	}
	if pairs[i] == -1 {
		return bruteForceExterior(fc, pairs, i+1, j, mlBase, mlClosing)
	}
	k := pairs[i]
	return fc.ExteriorStemEnergy(i, k) + bruteForceClosure(fc, pairs, i, k, mlBase, mlClosing) +
		bruteForceExterior(fc, pairs, k+1, j, mlBase, mlClosing)
}

func bruteForceClosure(fc *foldcompound.FoldCompound, pairs []int, i, j, mlBase, mlClosing int) int {
	branches := bruteForceBranches(pairs, i+1, j-1)
	switch len(branches) {
	case 0:
		return fc.HairpinEnergy(i, j)
	case 1:
		p, q := branches[0][0], branches[0][1]
		return fc.InteriorLoopEnergy(i, j, p, q) + bruteForceClosure(fc, pairs, p, q, mlBase, mlClosing)
	default:
		return mlClosing + fc.MultiLoopClosureEnergy(i, j) + bruteForceMulti(fc, pairs, i+1, j-1, mlBase, mlClosing)
	}
}

func bruteForceMulti(fc *foldcompound.FoldCompound, pairs []int, i, j, mlBase, mlClosing int) int {
	if i > j {
		return 0
	}
	if pairs[i] == -1 {
		return mlBase + bruteForceMulti(fc, pairs, i+1, j, mlBase, mlClosing)
	}
	k := pairs[i]
	return fc.MultiBranchStemEnergy(i, k) + bruteForceClosure(fc, pairs, i, k, mlBase, mlClosing) +
		bruteForceMulti(fc, pairs, k+1, j, mlBase, mlClosing)
}

func bruteForceBranches(pairs []int, a, b int) [][2]int {
	var branches [][2]int
	for x := a; x <= b; {
		if pairs[x] == -1 {
			x++
			continue
		}
		branches = append(branches, [2]int{x, pairs[x]})
		x = pairs[x] + 1
	}
	return branches
}

func assertMatchesBruteForce(t *testing.T, sequence string) {
	t.Helper()
	fc, err := foldcompound.New(sequence, foldcompound.DefaultOptions())
	require.NoError(t, err)

	e := mfedp.New(fc)
	mfe := e.Fold()

	best := energy_params.Inf
	for _, pairs := range bruteForcePairings(fc, len(sequence), 0, len(sequence)-1, fc.Model.Turn) {
		if en := bruteForceEnergy(fc, pairs); en < best {
			best = en
		}
	}
	assert.Equal(t, best, mfe, "DP MFE should equal the true minimum over every exhaustively enumerated structure")
}

func TestFoldMatchesBruteForceEnumeration(t *testing.T) {
	assertMatchesBruteForce(t, "GGGAAAUCCC")
}

// TestFoldMultiLoopLeadingUnpairedMatchesBruteForce exercises a multi-loop
// whose first branch does not sit at the closing pair's left edge: the
// outer pair (0,13) encloses an unpaired base at 1 before branch (2,6),
// an unpaired base at 7 between the two branches, and no trailing unpaired
// base after branch (8,12). A fillM missing the leading-unpaired (M[i+1,j])
// term can never realize this multi-loop and would report a higher MFE
// than the brute-force minimum.
func TestFoldMultiLoopLeadingUnpairedMatchesBruteForce(t *testing.T) {
	assertMatchesBruteForce(t, "GUGAAACAGAAACC")
}

func TestFoldCircularUsesMultiLoopClosure(t *testing.T) {
	opts := foldcompound.DefaultOptions()
	opts.Model.Circular = true
	fc, err := foldcompound.New("GGGAAAUCCC", opts)
	require.NoError(t, err)

	e := mfedp.New(fc)
	mfe := e.Fold()
	assert.Equal(t, e.Fc, mfe)
	assert.Equal(t, mfe, min(e.FcH, e.FcI, e.FcM))
	// FcM closes the whole backbone as a multi-loop: M[0,n-1] plus the
	// multi-loop closing penalty.
	assert.Equal(t, e.M[0][9]+fc.Params.MultiLoopClosingPenalty, e.FcM)
}

// The three constraint tests below pin the spec's requirement that every
// recurrence term consults the hard-constraint context mask and adds the
// installed soft pseudo-energies: forbidding every hairpin closure, or
// pricing every pair out of range, must push the fold
// back to the unfolded baseline, while a small per-unpaired pseudo-energy
// inside the loop shifts the MFE by exactly that amount.

func TestFoldHonorsHardConstraintMask(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)

	// Every structure contains a hairpin, and (2,7) is not the only pair
	// that can close one (G-C and G-U pairs such as (1,7) or (2,6) can too),
	// so forbid the hairpin-closing context for every pair. The mask is
	// 1-based.
	for i := 1; i <= 10; i++ {
		for j := i + 1; j <= 10; j++ {
			fc.Hard.Forbid(i, j, constraints.CtxHairpinClosing)
		}
	}

	e := mfedp.New(fc)
	assert.Equal(t, 0, e.Fold(), "with every hairpin closure forbidden no structure can form")
}

func TestFoldAddsSoftPairPseudoEnergy(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)
	// Each pair of a structure pays its pseudo-energy in the loop it closes,
	// so pricing every pair (1-based keys) out of range leaves the unfolded
	// structure as the minimum.
	for i := 1; i <= 10; i++ {
		for j := i + 1; j <= 10; j++ {
			fc.Soft.Pair[[2]int{i, j}] = 100.0 // kcal/mol
		}
	}

	e := mfedp.New(fc)
	assert.Equal(t, 0, e.Fold(), "a prohibitive pair pseudo-energy should leave the sequence unfolded")
}

func TestFoldAddsSoftUnpairedPseudoEnergy(t *testing.T) {
	fc, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)
	base := mfedp.New(fc)
	mfe := base.Fold()

	probed, err := foldcompound.New("GGGAAAUCCC", foldcompound.DefaultOptions())
	require.NoError(t, err)
	probed.Soft.Unpaired[5] = 1.0 // kcal/mol at 1-based position 5, inside the hairpin loop

	e := mfedp.New(probed)
	assert.Equal(t, mfe+100, e.Fold(), "one unpaired pseudo-energy inside the loop shifts the MFE by exactly its deci-cal value")
}

// TestFoldGQuadruplexScenario folds spec scenario 3 end to end: the
// all-G/A sequence has no Watson-Crick pair at all, so the only structure
// the model admits is the canonical L=4 quadruplex spanning the whole
// sequence, reported as '+' columns.
func TestFoldGQuadruplexScenario(t *testing.T) {
	opts := foldcompound.DefaultOptions()
	opts.Model.GQuad = true
	fc, err := foldcompound.New("GGGGAGGGGAGGGGAGGGG", opts)
	require.NoError(t, err)

	e := mfedp.New(fc)
	mfe := e.Fold()
	assert.Less(t, mfe, 0, "the quadruplex must stabilize the otherwise pairless sequence")

	res := traceback.Backtrack(e)
	assert.Equal(t, mfe, res.Energy)
	assert.Equal(t, "++++.++++.++++.++++", traceback.DotBracket(res.Pairs, res.Quadruplexes))
	for i, j := range res.Pairs {
		assert.Equalf(t, -1, j, "position %d must not be Watson-Crick paired", i)
	}
}

// TestFoldGQuadruplexInsideInteriorLoop embeds the quadruplex inside a
// two-pair helix: the outer stem (0,25)/(1,24) closes an interior loop
// whose enclosed element is the quadruplex at positions 2..20, with a
// three-nucleotide 3' flank. This exercises the interior-loop replacement
// term rather than the quadruplex-as-outermost-element case.
func TestFoldGQuadruplexInsideInteriorLoop(t *testing.T) {
	opts := foldcompound.DefaultOptions()
	opts.Model.GQuad = true
	fc, err := foldcompound.New("GCGGGGAGGGGAGGGGAGGGGAAAGC", opts)
	require.NoError(t, err)

	e := mfedp.New(fc)
	mfe := e.Fold()

	res := traceback.Backtrack(e)
	assert.Equal(t, mfe, res.Energy)
	assert.Equal(t, "((++++.++++.++++.++++...))", traceback.DotBracket(res.Pairs, res.Quadruplexes))

	// The helix-embedded quadruplex must beat both the bare quadruplex
	// (no helix) and the bare helix (no quadruplex): folding with gquad
	// disabled must come out strictly worse.
	plain, err := foldcompound.New("GCGGGGAGGGGAGGGGAGGGGAAAGC", foldcompound.DefaultOptions())
	require.NoError(t, err)
	plainEngine := mfedp.New(plain)
	assert.Greater(t, plainEngine.Fold(), mfe)
}
