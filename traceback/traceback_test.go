package traceback

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rnastruct/rnafold/foldcompound"
	"github.com/rnastruct/rnafold/gquad"
	"github.com/rnastruct/rnafold/mfedp"
)

func foldedEngine(t *testing.T, sequence string) *mfedp.Engine {
	t.Helper()
	fc, err := foldcompound.New(sequence, foldcompound.DefaultOptions())
	require.NoError(t, err)
	e := mfedp.New(fc)
	e.Fold()
	return e
}

func TestBacktrackEnergyMatchesFold(t *testing.T) {
	e := foldedEngine(t, "GGGAAAUCCC")
	res := Backtrack(e)
	assert.Equal(t, e.F5[9], res.Energy)
	assert.Equal(t, "(((....)))", DotBracket(res.Pairs, res.Quadruplexes))
}

func TestBacktrackPairTableIsSymmetric(t *testing.T) {
	e := foldedEngine(t, "GUGAAACAGAAACC")
	res := Backtrack(e)
	for i, j := range res.Pairs {
		if j < 0 {
			continue
		}
		assert.Equalf(t, i, res.Pairs[j], "pairs[%d]=%d but pairs[%d]=%d", i, j, j, res.Pairs[j])
	}
}

func TestDotBracketOverlaysQuadruplexColumns(t *testing.T) {
	pairs := make(PairTable, 12)
	for i := range pairs {
		pairs[i] = -1
	}
	quads := Quadruplexes{
		0: gquad.Quadruplex{FivePrimeIdx: 0, StackSize: 2, L1: 1, L2: 1, L3: 1},
	}
	assert.Equal(t, "++.++.++.++.", DotBracket(pairs, quads))
}

func TestDotBracketEmptyTable(t *testing.T) {
	assert.Equal(t, "", DotBracket(PairTable{}, Quadruplexes{}))
}

func TestSuboptimalWideWindowIncludesTheMFEStructure(t *testing.T) {
	e := foldedEngine(t, "GGGAAAUCCC")
	mfe := e.F5[9]

	results := Suboptimal(e, 10000)
	require.NotEmpty(t, results)

	structures := map[string]bool{}
	for _, res := range results {
		assert.LessOrEqual(t, res.Energy, mfe+10000)
		structures[DotBracket(res.Pairs, res.Quadruplexes)] = true
	}
	assert.True(t, structures["(((....)))"], "the MFE structure itself must be enumerated")
}

func TestSuboptimalResultsAreDeduplicated(t *testing.T) {
	e := foldedEngine(t, "GGGAAAUCCC")
	results := Suboptimal(e, 10000)

	seen := map[string]bool{}
	for _, res := range results {
		key := DotBracket(res.Pairs, res.Quadruplexes)
		assert.Falsef(t, seen[key], "structure %q enumerated twice", key)
		seen[key] = true
	}
}

func TestSuboptimalZeroWindowOnlyReturnsOptima(t *testing.T) {
	e := foldedEngine(t, "GGGAAAUCCC")
	mfe := e.F5[9]
	for _, res := range Suboptimal(e, 0) {
		assert.Equal(t, mfe, res.Energy)
	}
}

func TestBacktrackAllUnpairedIsEmptyStructure(t *testing.T) {
	e := foldedEngine(t, "CCCCCCCCCC")
	res := Backtrack(e)
	assert.Equal(t, 0, res.Energy)
	assert.Equal(t, strings.Repeat(".", 10), DotBracket(res.Pairs, res.Quadruplexes))
	assert.Empty(t, res.Quadruplexes)
}
