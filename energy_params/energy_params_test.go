package energy_params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSequence(t *testing.T) {
	encoded := EncodeSequence("ACGU")
	assert.Equal(t, []int{1, 2, 3, 4}, encoded)
}

func TestEncodeBasePair(t *testing.T) {
	testCases := []struct {
		five, three byte
		want        BasePairType
	}{
		{'C', 'G', CG},
		{'G', 'C', GC},
		{'G', 'U', GU},
		{'U', 'G', UG},
		{'A', 'U', AU},
		{'U', 'A', UA},
		{'A', 'A', NoPair},
		{'A', 'C', NoPair},
	}
	for _, tc := range testCases {
		got := EncodeBasePair(tc.five, tc.three)
		assert.Equalf(t, tc.want, got, "EncodeBasePair(%q, %q)", tc.five, tc.three)
	}
}

func TestEncodeBasePairSymmetricLookup(t *testing.T) {
	// AU and UA must be distinguishable: orientation matters for stacking.
	assert.NotEqual(t, EncodeBasePair('A', 'U'), EncodeBasePair('U', 'A'))
}

func TestNewEnergyParamsFallsBackToDefaults(t *testing.T) {
	// None of the named parameter sets have a matching .par file in this
	// retrieval pack, so every set must resolve through the compiled-in
	// default table without panicking, and produce fully-populated
	// matrices of the documented shape.
	for _, set := range []EnergyParamsSet{Langdon2018, Andronescu2007, Turner2004, Turner1999} {
		params := NewEnergyParams(set, 37.0)
		require.NotNil(t, params)
		require.Len(t, params.HairpinLoop, MaxLenLoop+1)
		require.Len(t, params.Bulge, MaxLenLoop+1)
		require.Len(t, params.InteriorLoop, MaxLenLoop+1)
		require.Len(t, params.StackingPair, NbDistinguishableBasePairs)
		for _, row := range params.StackingPair {
			require.Len(t, row, NbDistinguishableBasePairs)
		}
	}
}

func TestNewEnergyParamsHairpinLoopForbidsShortLoops(t *testing.T) {
	params := NewEnergyParams(Turner2004, 37.0)
	// Loops shorter than 3 unpaired bases are physically impossible.
	for n := 0; n < 3; n++ {
		assert.GreaterOrEqualf(t, params.HairpinLoop[n], Inf, "HairpinLoop[%d] should be forbidden", n)
	}
}

func TestNewEnergyParamsTemperatureDependence(t *testing.T) {
	at37 := NewEnergyParams(Turner2004, 37.0)
	at25 := NewEnergyParams(Turner2004, 25.0)
	// Rescaling by temperature should change at least one non-trivial
	// loop energy; tables frozen at one temperature would be a bug in
	// scaleByTemperature.
	differs := false
	for i := range at37.HairpinLoop {
		if at37.HairpinLoop[i] != at25.HairpinLoop[i] {
			differs = true
			break
		}
	}
	assert.True(t, differs, "HairpinLoop table should change with temperature")
}
