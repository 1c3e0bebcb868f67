package energy_params

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticInts renders n placeholder integers (1..n) on a single line, for
// directives the parser reads with one parseUntilEnoughItemsIntoIntSlice
// call (1-dimensional sections such as ML_params and NINIO).
func syntheticInts(n int) string {
	values := make([]string, n)
	for i := range values {
		values[i] = strconv.Itoa(i + 1)
	}
	return strings.Join(values, " ")
}

// syntheticIntRows renders rows*cols placeholder integers (1..rows*cols)
// as `rows` lines of `cols` ints each. parseItemsInto2DimIntMatrix and
// parseItemsInto3DimIntMatrix call parseUntilEnoughItemsIntoIntSlice once
// per innermost row, and each such call consumes a whole line at a time, so
// a multi-dimensional section must be laid out one row per line or the
// first call overreads the rest of the section and parseUntilEnoughItemsIntoIntSlice
// panics on the overshoot.
func syntheticIntRows(rows, cols int) string {
	var b strings.Builder
	v := 0
	for r := 0; r < rows; r++ {
		vals := make([]string, cols)
		for c := 0; c < cols; c++ {
			v++
			vals[c] = strconv.Itoa(v)
		}
		fmt.Fprintln(&b, strings.Join(vals, " "))
	}
	return b.String()
}

// syntheticParamFile builds a minimal but structurally valid "RNAfold
// parameter file v2.0" covering the 1-, 2- and 3-dimensional matrix shapes
// (hairpin, stack, mismatch_exterior) plus the scalar ML_params/NINIO/Misc
// sections and a Triloops block, so parseRawEnergyParams's scanning,
// comment-stripping, and dispatch logic are genuinely exercised instead of
// only ever falling through to the compiled-in defaults.
func syntheticParamFile() string {
	var b strings.Builder
	fmt.Fprintln(&b, "## RNAfold parameter file v2.0")
	fmt.Fprintln(&b, "# stack")
	fmt.Fprint(&b, syntheticIntRows(NbDistinguishableBasePairs, NbDistinguishableBasePairs))
	fmt.Fprintln(&b, "# hairpin")
	fmt.Fprintln(&b, syntheticInts(MaxLenLoop+1))
	fmt.Fprintln(&b, "# mismatch_exterior")
	fmt.Fprint(&b, syntheticIntRows(NbDistinguishableBasePairs*(NbDistinguishableNucleotides+1), NbDistinguishableNucleotides+1))
	fmt.Fprintln(&b, "# ML_params")
	fmt.Fprintln(&b, syntheticInts(6))
	fmt.Fprintln(&b, "# NINIO")
	fmt.Fprintln(&b, syntheticInts(3))
	fmt.Fprintln(&b, "# Triloops")
	fmt.Fprintln(&b, "CAACG 680 130")
	fmt.Fprintln(&b, "GUUAC 690 140")
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "# Misc")
	fmt.Fprintln(&b, "0.0 0.0 -50.0 0.0 0.0 107.856")
	fmt.Fprintln(&b, "# END")
	return b.String()
}

func TestParseRawEnergyParamsReadsEveryWiredSection(t *testing.T) {
	params, ok := parseRawEnergyParams(strings.NewReader(syntheticParamFile()))
	require.True(t, ok, "a v2.0-headered file should parse successfully")

	require.Len(t, params.stackingPairEnergy37C, NbDistinguishableBasePairs)
	require.Len(t, params.stackingPairEnergy37C[0], NbDistinguishableBasePairs)
	assert.Equal(t, 1, params.stackingPairEnergy37C[0][0])
	assert.Equal(t, NbDistinguishableBasePairs*NbDistinguishableBasePairs, params.stackingPairEnergy37C[NbDistinguishableBasePairs-1][NbDistinguishableBasePairs-1])

	require.Len(t, params.hairpinLoopEnergy37C, MaxLenLoop+1)
	assert.Equal(t, 1, params.hairpinLoopEnergy37C[0])

	require.Len(t, params.mismatchExteriorLoopEnergy37C, NbDistinguishableBasePairs)
	require.Len(t, params.mismatchExteriorLoopEnergy37C[0], NbDistinguishableNucleotides+1)
	require.Len(t, params.mismatchExteriorLoopEnergy37C[0][0], NbDistinguishableNucleotides+1)

	assert.Equal(t, 1, params.multiLoopBase37C)
	assert.Equal(t, 6, params.multiLoopInternEnthalpy)

	assert.Equal(t, 1, params.ninio37C)
	assert.Equal(t, 3, params.maxNinio)

	assert.Equal(t, map[string]int{"CAACG": 680, "GUUAC": 690}, params.triLoopEnergy37C)
	assert.Equal(t, map[string]int{"CAACG": 130, "GUUAC": 140}, params.triLoopEnthalpy)

	assert.Equal(t, -50, params.terminalAU37C)
	assert.Equal(t, 0, params.terminalAUEnthalpy)
	assert.Equal(t, 107.856, params.logExtrapolationConstant)
}

func TestParseRawEnergyParamsRejectsMissingHeader(t *testing.T) {
	_, ok := parseRawEnergyParams(strings.NewReader("not a parameter file\n# END\n"))
	assert.False(t, ok, "a file missing the v2.0 header should be rejected so the caller falls back to defaults")
}

func TestRemoveCommentsStripsCStyleComments(t *testing.T) {
	assert.Equal(t, "1 2 3", removeComments("1 /* skip this */2 3"))
}
