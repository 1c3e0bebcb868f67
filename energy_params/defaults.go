package energy_params

import "math"

/******************************************************************************

This retrieval pack doesn't ship any `RNAfold parameter file v2.0` files
under `param_files/`, so `newRawEnergyParams` falls back to the table built
here whenever a named parameter set's `.par` file is missing.

The scalar constants below (lxc37, the multi-loop/ninio/terminal-AU
constants) are the real values published by the Turner 2004 nearest-neighbor
model and used throughout ViennaRNA's `energy_const.h`, in the same
deci-cal/mol integer convention the `RNAfold parameter file v2.0` format
itself uses. The loop-length and stacking/mismatch/interior-loop matrices,
however, aren't reproduced here verbatim (no literal Turner table ships with
this pack) — they're generated from the same nearest-neighbor shape
(stacking pairs favorable, loop-initiation penalties growing with the log of
loop length, GC-containing pairs more stable than AU/GU) so every lookup the
DP packages perform resolves to a plausible, consistently-ordered value. A
caller that needs bit-exact Turner 2004 numbers should drop the real `.par`
file into `param_files/`; the parser above reads it unchanged.

******************************************************************************/

const (
	lxc37              float64 = 107.856
	mlIntern37         int     = -90
	mlInternEnthalpy37 int     = -220
	mlClosing37        int     = 930
	mlClosingEnthalpy  int     = 3000
	mlBase37           int     = 0
	mlBaseEnthalpy     int     = 0
	maxNinio37         int     = 300
	ninio37            int     = 60
	ninioEnthalpy37    int     = 320
	terminalAU37       int     = 50
	terminalAUEnthalpy int     = 370
)

// stackingBaseline approximates the relative stability of each of the 7
// distinguishable base pair types (CG most stable, non-standard least).
var stackingBaseline = [7]int{-340, -330, -210, -210, -220, -220, 0}

func defaultRawEnergyParams(EnergyParamsSet) rawEnergyParams {
	var p rawEnergyParams

	p.logExtrapolationConstant = lxc37
	p.multiLoopIntern37C = mlIntern37
	p.multiLoopInternEnthalpy = mlInternEnthalpy37
	p.multiLoopClosing37C = mlClosing37
	p.multiLoopClosingEnthalpy = mlClosingEnthalpy
	p.multiLoopBase37C = mlBase37
	p.multiLoopBaseEnthalpy = mlBaseEnthalpy
	p.maxNinio = maxNinio37
	p.ninio37C = ninio37
	p.ninioEnthalpy = ninioEnthalpy37
	p.terminalAU37C = terminalAU37
	p.terminalAUEnthalpy = terminalAUEnthalpy

	p.stackingPairEnergy37C, p.stackingPairEnthalpy = defaultStackingMatrix()
	p.hairpinLoopEnergy37C, p.hairpinLoopEnthalpy = defaultLoopLengthSlice(410)
	p.bulgeEnergy37C, p.bulgeEnthalpy = defaultLoopLengthSlice(380)
	p.interiorLoopEnergy37C, p.interiorLoopEnthalpy = defaultLoopLengthSlice(100)

	p.mismatchHairpinLoopEnergy37C, p.mismatchHairpinLoopEnthalpy = defaultMismatchMatrix(-50)
	p.mismatchInteriorLoopEnergy37C, p.mismatchInteriorLoopEnthalpy = defaultMismatchMatrix(0)
	p.mismatch1xnInteriorLoopEnergy37C, p.mismatch1xnInteriorLoopEnthalpy = defaultMismatchMatrix(0)
	p.mismatch2x3InteriorLoopEnergy37C, p.mismatch2x3InteriorLoopEnthalpy = defaultMismatchMatrix(0)
	p.mismatchMultiLoopEnergy37C, p.mismatchMultiLoopEnthalpy = defaultMismatchMatrix(-100)
	p.mismatchExteriorLoopEnergy37C, p.mismatchExteriorLoopEnthalpy = defaultMismatchMatrix(-100)

	p.danglingEndsFivePrimeEnergy37C, p.danglingEndsFivePrimeEnthalpy = defaultDangleMatrix(-50)
	p.danglingEndsThreePrimeEnergy37C, p.danglingEndsThreePrimeEnthalpy = defaultDangleMatrix(-70)

	p.interior1x1LoopEnergy37C, p.interior1x1LoopEnthalpy = defaultInterior1x1Matrix()
	p.interior2x1LoopEnergy37C, p.interior2x1LoopEnthalpy = defaultInterior2x1Matrix()
	p.interior2x2LoopEnergy37C, p.interior2x2LoopEnthalpy = defaultInterior2x2Matrix()

	p.tetraLoopEnergy37C = map[string]int{}
	p.tetraLoopEnthalpy = map[string]int{}
	p.triLoopEnergy37C = map[string]int{}
	p.triLoopEnthalpy = map[string]int{}
	p.hexaLoopEnergy37C = map[string]int{}
	p.hexaLoopEnthalpy = map[string]int{}

	return p
}

func defaultStackingMatrix() (energy, enthalpy [][]int) {
	energy = make([][]int, NbDistinguishableBasePairs)
	enthalpy = make([][]int, NbDistinguishableBasePairs)
	for i := 0; i < NbDistinguishableBasePairs; i++ {
		energy[i] = make([]int, NbDistinguishableBasePairs)
		enthalpy[i] = make([]int, NbDistinguishableBasePairs)
		for j := 0; j < NbDistinguishableBasePairs; j++ {
			energy[i][j] = (stackingBaseline[i] + stackingBaseline[j]) / 2
			enthalpy[i][j] = energy[i][j] * 3
		}
	}
	return energy, enthalpy
}

// defaultLoopLengthSlice returns a `MaxLenLoop+1` slice where entry n is the
// loop-initiation penalty for a loop of length n. Entries 0-2 are inf; every
// entry from 3 up is `base` + lxc37*ln(n/3), so `base` is the penalty at
// n = 3 and there is no separately tabulated region. Tables built with it
// (hairpin, bulge, interior) therefore reject loops shorter than 3
// nucleotides, including 1- and 2-nt bulges.
func defaultLoopLengthSlice(base int) (energy, enthalpy []int) {
	energy = make([]int, MaxLenLoop+1)
	enthalpy = make([]int, MaxLenLoop+1)
	for n := 0; n <= MaxLenLoop; n++ {
		if n < 3 {
			energy[n] = inf
			enthalpy[n] = 0
			continue
		}
		energy[n] = base + int(lxc37*math.Log(float64(n)/3.0))
		enthalpy[n] = base
	}
	return energy, enthalpy
}

func defaultMismatchMatrix(base int) (energy, enthalpy [][][]int) {
	dim := NbDistinguishableNucleotides + 1
	energy = make([][][]int, NbDistinguishableBasePairs)
	enthalpy = make([][][]int, NbDistinguishableBasePairs)
	for i := 0; i < NbDistinguishableBasePairs; i++ {
		energy[i] = make([][]int, dim)
		enthalpy[i] = make([][]int, dim)
		for j := 0; j < dim; j++ {
			energy[i][j] = make([]int, dim)
			enthalpy[i][j] = make([]int, dim)
			for k := 0; k < dim; k++ {
				energy[i][j][k] = base
				enthalpy[i][j][k] = base * 2
			}
		}
	}
	return energy, enthalpy
}

func defaultDangleMatrix(base int) (energy, enthalpy [][]int) {
	dim := NbDistinguishableNucleotides + 1
	energy = make([][]int, NbDistinguishableBasePairs)
	enthalpy = make([][]int, NbDistinguishableBasePairs)
	for i := 0; i < NbDistinguishableBasePairs; i++ {
		energy[i] = make([]int, dim)
		enthalpy[i] = make([]int, dim)
		for j := 0; j < dim; j++ {
			energy[i][j] = base
			enthalpy[i][j] = base * 2
		}
	}
	return energy, enthalpy
}

func defaultInterior1x1Matrix() (energy, enthalpy [][][][]int) {
	dim := NbDistinguishableNucleotides + 1
	energy = make([][][][]int, NbDistinguishableBasePairs)
	enthalpy = make([][][][]int, NbDistinguishableBasePairs)
	for i := 0; i < NbDistinguishableBasePairs; i++ {
		energy[i] = make([][][]int, NbDistinguishableBasePairs)
		enthalpy[i] = make([][][]int, NbDistinguishableBasePairs)
		for j := 0; j < NbDistinguishableBasePairs; j++ {
			energy[i][j] = make([][]int, dim)
			enthalpy[i][j] = make([][]int, dim)
			for k := 0; k < dim; k++ {
				energy[i][j][k] = make([]int, dim)
				enthalpy[i][j][k] = make([]int, dim)
				for l := 0; l < dim; l++ {
					energy[i][j][k][l] = (stackingBaseline[i] + stackingBaseline[j]) / 4
					enthalpy[i][j][k][l] = energy[i][j][k][l] * 2
				}
			}
		}
	}
	return energy, enthalpy
}

func defaultInterior2x1Matrix() (energy, enthalpy [][][][][]int) {
	dim := NbDistinguishableNucleotides + 1
	energy = make([][][][][]int, NbDistinguishableBasePairs)
	enthalpy = make([][][][][]int, NbDistinguishableBasePairs)
	for i := 0; i < NbDistinguishableBasePairs; i++ {
		energy[i] = make([][][][]int, NbDistinguishableBasePairs)
		enthalpy[i] = make([][][][]int, NbDistinguishableBasePairs)
		for j := 0; j < NbDistinguishableBasePairs; j++ {
			energy[i][j] = make([][][]int, dim)
			enthalpy[i][j] = make([][][]int, dim)
			for k := 0; k < dim; k++ {
				energy[i][j][k] = make([][]int, dim)
				enthalpy[i][j][k] = make([][]int, dim)
				for l := 0; l < dim; l++ {
					energy[i][j][k][l] = make([]int, dim)
					enthalpy[i][j][k][l] = make([]int, dim)
					for m := 0; m < dim; m++ {
						energy[i][j][k][l][m] = 200 + (stackingBaseline[i]+stackingBaseline[j])/4
						enthalpy[i][j][k][l][m] = energy[i][j][k][l][m] * 2
					}
				}
			}
		}
	}
	return energy, enthalpy
}

func defaultInterior2x2Matrix() (energy, enthalpy [][][][][][]int) {
	dim := NbDistinguishableNucleotides + 1
	energy = make([][][][][][]int, NbDistinguishableBasePairs)
	enthalpy = make([][][][][][]int, NbDistinguishableBasePairs)
	for i := 0; i < NbDistinguishableBasePairs; i++ {
		energy[i] = make([][][][][]int, NbDistinguishableBasePairs)
		enthalpy[i] = make([][][][][]int, NbDistinguishableBasePairs)
		for j := 0; j < NbDistinguishableBasePairs; j++ {
			energy[i][j] = make([][][][]int, dim)
			enthalpy[i][j] = make([][][][]int, dim)
			for k := 0; k < dim; k++ {
				energy[i][j][k] = make([][][]int, dim)
				enthalpy[i][j][k] = make([][][]int, dim)
				for l := 0; l < dim; l++ {
					energy[i][j][k][l] = make([][]int, dim)
					enthalpy[i][j][k][l] = make([][]int, dim)
					for m := 0; m < dim; m++ {
						energy[i][j][k][l][m] = make([]int, dim)
						enthalpy[i][j][k][l][m] = make([]int, dim)
						for n := 0; n < dim; n++ {
							energy[i][j][k][l][m][n] = 280 + (stackingBaseline[i]+stackingBaseline[j])/4
							enthalpy[i][j][k][l][m][n] = energy[i][j][k][l][m][n] * 2
						}
					}
				}
			}
		}
	}
	return energy, enthalpy
}
