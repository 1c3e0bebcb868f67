/*
Package pf fills the partition-function dynamic-programming tables (C7):
Qb, Qm, Qm1, Q, structurally parallel to mfedp's C, M, M1, F5 but with `min`
replaced by sum and energies replaced by Boltzmann weights
`exp(-E/kT)`, each contribution scaled by `scale[m]` (m = nucleotides newly
covered by that term, not already scaled by a child) to keep every partial
sum representable in a float64, per spec §4.3.
*/
package pf

import (
	"math"

	"github.com/rnastruct/rnafold/constraints"
	"github.com/rnastruct/rnafold/energy_params"
	"github.com/rnastruct/rnafold/foldcompound"
)

// Engine owns the filled partition-function tables for one fold_compound.
type Engine struct {
	FC *foldcompound.FoldCompound
	n  int

	Qb, Qm, Qm1 [][]float64
	Q           []float64

	// Circular-only: Qho, Qio, Qmo mirror mfedp's FcH/FcI/FcM; Qo is their sum.
	Qho, Qio, Qmo, Qo float64

	scale []float64
	kT    float64
}

const maxLoopSize = 30

// New allocates (but does not fill) an Engine for the given compound.
// pfScale defaults to an estimate derived from sequence length and
// temperature when the compound's Model.PFScale is the "unset" sentinel
// (<=0).
func New(fc *foldcompound.FoldCompound) *Engine {
	n := fc.Length
	e := &Engine{FC: fc, n: n, kT: fc.KT()}
	e.Qb = newMatrix(n)
	e.Qm = newMatrix(n)
	e.Qm1 = newMatrix(n)
	e.Q = make([]float64, n)

	pfScale := fc.Model.PFScale
	if pfScale <= 0 {
		const perNucleotideEstimate = -1.5 // kcal/mol, a conservative ensemble free-energy-per-nt estimate
		pfScale = math.Exp(-perNucleotideEstimate / e.kT)
	}
	e.scale = make([]float64, n+2)
	for m := 0; m <= n+1; m++ {
		if n == 0 {
			e.scale[m] = 1
			continue
		}
		e.scale[m] = math.Pow(pfScale, -float64(m)/float64(n))
	}
	return e
}

func newMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

func matAt(m [][]float64, i, j int) float64 {
	if i > j {
		return 1 // empty interval contributes the unit Boltzmann weight
	}
	return m[i][j]
}

func (e *Engine) scaleAt(m int) float64 {
	if m < 0 {
		m = 0
	}
	if m >= len(e.scale) {
		m = len(e.scale) - 1
	}
	return e.scale[m]
}

// ScaleAt exposes the per-span numerical scale factor, so the outside
// recursion (probability.Compute) can compose contributions from cells of
// different spans without re-deriving the scaling convention.
func (e *Engine) ScaleAt(m int) float64 {
	return e.scaleAt(m)
}

// boltzmann converts a deci-cal/mol integer energy into its Boltzmann
// weight at this engine's temperature.
func (e *Engine) boltzmann(deciCal int) float64 {
	if deciCal >= energy_params.Inf {
		return 0
	}
	return math.Exp(-float64(deciCal) / 100.0 / e.kT)
}

// Fold fills every table and returns Q[1,n] (or Qo for circular folds).
func (e *Engine) Fold() float64 {
	n := e.n
	mlBase := e.FC.Params.MultiLoopUnpairedNucleotideBonus
	mlBaseWeight := e.boltzmann(mlBase)

	for j := 0; j < n; j++ {
		for i := j - 1; i >= 0; i-- {
			if j-i > e.FC.Model.Turn {
				e.Qb[i][j] = e.fillQb(i, j)
			}
			e.Qm[i][j] = e.fillQm(i, j, mlBaseWeight)
			e.Qm1[i][j] = e.fillQm1(i, j, mlBaseWeight)
		}
		e.Q[j] = e.fillQ(j)
	}

	if e.FC.Model.Circular {
		e.foldCircular()
		return e.Qo
	}
	if n == 0 {
		return 1
	}
	return e.Q[n-1]
}

func (e *Engine) fillQb(i, j int) float64 {
	total := e.boltzmann(e.FC.HairpinEnergy(i, j)) * e.scaleAt(j-i+1)

	for p := i + 1; p < j-e.FC.Model.Turn-1; p++ {
		if p-i-1 > maxLoopSize {
			break
		}
		for q := p + 1; q < j; q++ {
			if (p-i-1)+(j-q-1) > maxLoopSize {
				continue
			}
			if e.Qb[p][q] == 0 {
				continue
			}
			shell := (p - i - 1) + (j - q - 1)
			total += e.Qb[p][q] * e.boltzmann(e.FC.InteriorLoopEnergy(i, j, p, q)) * e.scaleAt(shell+2)
		}
	}

	mlClosingWeight := e.boltzmann(e.FC.Params.MultiLoopClosingPenalty)
	for u := i + 2; u < j-1; u++ {
		mQ := matAt(e.Qm, i+1, u)
		m1Q := matAt(e.Qm1, u+1, j-1)
		if mQ == 0 || m1Q == 0 {
			continue
		}
		total += mQ * m1Q * mlClosingWeight * e.boltzmann(e.FC.MultiLoopClosureEnergy(i, j)) * e.scaleAt(2)
	}

	if e.FC.GQuad != nil {
		// The quadruplex partition weights are unscaled, so both terms
		// multiply by the full span's scale factor.
		total += e.FC.GQuad.PartitionFunction(i, j) * e.scaleAt(j-i+1)

		closureW := e.boltzmann(e.FC.GQuadInteriorClosureEnergy(i, j))
		if closureW > 0 {
			e.FC.GQuad.InteriorFootprints(i, j, maxLoopSize, func(p, q int) {
				loopW := e.boltzmann(e.FC.Params.InteriorLoop[(p-i-1)+(j-q-1)])
				total += closureW * e.FC.GQuad.PartitionFunction(p, q) * loopW * e.scaleAt(j-i+1)
			})
		}
	}

	return total
}

// fillQm decomposes by the last branch, which must end exactly at j: either
// j is unpaired (strip it), or some branch (u,j) closes the region, with
// everything before u being all-unpaired (first-branch case) or another
// Qm region. Each structure is reached by exactly one of these paths, so
// nothing is counted twice.
func (e *Engine) fillQm(i, j int, mlBaseWeight float64) float64 {
	total := matAt(e.Qm, i, j-1) * mlBaseWeight * e.unpairedWeight(j, constraints.CtxMultiBranch) * e.scaleAt(1)

	prefix := 1.0
	for u := i; u <= j; u++ {
		if u > i {
			prefix *= mlBaseWeight * e.unpairedWeight(u-1, constraints.CtxMultiBranch) * e.scaleAt(1)
		}
		if e.Qb[u][j] == 0 || prefix == 0 {
			continue
		}
		stem := e.Qb[u][j] * e.boltzmann(e.FC.MultiBranchStemEnergy(u, j))
		total += prefix * stem
		if u > i {
			total += e.Qm[i][u-1] * stem
		}
	}

	if e.FC.GQuad != nil {
		mlInternWeight := e.boltzmann(e.FC.Params.MultiLoopIntern[0])
		prefix = 1.0
		for u := i; u <= j; u++ {
			if u > i {
				prefix *= mlBaseWeight * e.unpairedWeight(u-1, constraints.CtxMultiBranch) * e.scaleAt(1)
			}
			gq := e.FC.GQuad.PartitionFunction(u, j)
			if gq == 0 {
				continue
			}
			branch := gq * mlInternWeight * e.scaleAt(j-u+1)
			if prefix != 0 {
				total += prefix * branch
			}
			if u > i {
				total += e.Qm[i][u-1] * branch
			}
		}
	}
	return total
}

// unpairedWeight is the Boltzmann weight of leaving pos unpaired in ctx: 0
// when the hard constraints forbid it, the soft pseudo-energy's weight
// otherwise (1 with no soft constraints installed).
func (e *Engine) unpairedWeight(pos int, ctx constraints.Context) float64 {
	return e.boltzmann(e.FC.UnpairedEnergy(pos, ctx))
}

func (e *Engine) fillQm1(i, j int, mlBaseWeight float64) float64 {
	total := matAt(e.Qm1, i, j-1) * mlBaseWeight * e.unpairedWeight(j, constraints.CtxMultiBranch) * e.scaleAt(1)
	if e.Qb[i][j] != 0 {
		total += e.Qb[i][j] * e.boltzmann(e.FC.MultiBranchStemEnergy(i, j))
	}
	if e.FC.GQuad != nil {
		if gq := e.FC.GQuad.PartitionFunction(i, j); gq != 0 {
			total += gq * e.boltzmann(e.FC.Params.MultiLoopIntern[0]) * e.scaleAt(j-i+1)
		}
	}
	return total
}

func (e *Engine) fillQ(j int) float64 {
	total := e.qUnpaired(j)
	for i := 0; i <= j; i++ {
		if e.Qb[i][j] == 0 {
			continue
		}
		prefix := 1.0
		if i > 0 {
			prefix = e.Q[i-1]
		}
		total += prefix * e.Qb[i][j] * e.boltzmann(e.FC.ExteriorStemEnergy(i, j))
	}

	// Exterior-loop quadruplexes carry no flanking dangle, so they can't
	// route through the exterior-stem dispatch.
	if e.FC.GQuad != nil {
		for i := 0; i <= j; i++ {
			gq := e.FC.GQuad.PartitionFunction(i, j)
			if gq == 0 {
				continue
			}
			prefix := 1.0
			if i > 0 {
				prefix = e.Q[i-1]
			}
			total += prefix * gq * e.scaleAt(j-i+1)
		}
	}
	return total
}

// qUnpaired extends the prefix ensemble by one unpaired nucleotide; it
// multiplies by scale[1] so every term of Q[j] carries the same scale
// power j+1 regardless of how many of its nucleotides pair.
func (e *Engine) qUnpaired(j int) float64 {
	w := e.unpairedWeight(j, constraints.CtxExterior) * e.scaleAt(1)
	if j == 0 {
		return w
	}
	return e.Q[j-1] * w
}

// foldCircular fills Qho, Qio, Qmo, Qo mirroring mfedp's circular case.
func (e *Engine) foldCircular() {
	n := e.n
	mlClosingWeight := e.boltzmann(e.FC.Params.MultiLoopClosingPenalty)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if e.Qb[i][j] == 0 {
				continue
			}
			wrapLen := n - (j - i + 1)
			if wrapLen < e.FC.Model.Turn || wrapLen > maxLoopSize {
				continue
			}
			weight := e.boltzmann(e.FC.Params.HairpinLoop[energy_params.Min(wrapLen, energy_params.MaxLenLoop)])
			e.Qho += e.Qb[i][j] * weight * e.scaleAt(wrapLen)

			n1, n2 := i, n-1-j
			if n1+n2 > 0 && n1+n2 <= maxLoopSize {
				iWeight := e.boltzmann(e.FC.Params.InteriorLoop[energy_params.Min(n1+n2, energy_params.MaxLenLoop)])
				e.Qio += e.Qb[i][j] * iWeight * e.scaleAt(n1+n2)
			}
		}
	}

	if n > 0 {
		e.Qmo = matAt(e.Qm, 0, n-1) * mlClosingWeight
	}
	e.Qo = e.Qho + e.Qio + e.Qmo
}
