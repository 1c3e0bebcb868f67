/*
Package probability implements the McCaskill outside recursion that turns
filled partition-function tables into base-pair probabilities (C8), and a
stochastic backtracking sampler that draws structures from the Boltzmann
ensemble those same tables define.

Compute's multi-branch context treats a pair as the last branch of its
enclosing multi-loop (see Compute's doc comment), so for a sequence whose
ensemble includes multi-loops, sum_j Matrix.At(i,j) over every j undercounts
some middle-branch configurations; Matrix.Unpaired(i), which is defined as
the complement of that sum, correspondingly overstates P(i unpaired), and
sum_j probs[i][j] + Unpaired(i) is only guaranteed to equal 1 when no
feasible structure places i inside a multi-loop with further branches to
its other side.
*/
package probability

import (
	"math"
	"math/rand"

	"github.com/rnastruct/rnafold/constraints"
	"github.com/rnastruct/rnafold/energy_params"
	"github.com/rnastruct/rnafold/pf"
)

const maxLoopSize = 30

// Matrix holds base-pair probabilities probs[i][j], 0 <= i < j < n.
type Matrix struct {
	n     int
	probs [][]float64
}

// At returns probs[i][j], 0 if i>=j or out of range.
func (m *Matrix) At(i, j int) float64 {
	if i < 0 || j >= m.n || i >= j {
		return 0
	}
	return m.probs[i][j]
}

// Unpaired returns P(i unpaired) = 1 - sum_j probs[i,j].
func (m *Matrix) Unpaired(i int) float64 {
	total := 0.0
	for j := 0; j < m.n; j++ {
		if j == i {
			continue
		}
		lo, hi := i, j
		if lo > hi {
			lo, hi = hi, lo
		}
		total += m.At(lo, hi)
	}
	if total > 1 {
		total = 1
	}
	return 1 - total
}

// suffixQ computes Q3[j] = partition function over structures on the
// suffix [j, n-1] (Q3[n] = 1), the mirror image of pf.Engine.Q needed by
// the exterior-context term of the outside recursion. The unpaired
// extension carries the same scale[1] factor pf.Engine's own prefix Q
// applies, so prefix, cell, and suffix compose to a uniform scale power.
func suffixQ(e *pf.Engine, n int) []float64 {
	q3 := make([]float64, n+1)
	q3[n] = 1
	for j := n - 1; j >= 0; j-- {
		total := q3[j+1] * unpairedWeight(e, j, constraints.CtxExterior) * e.ScaleAt(1)
		for k := j; k < n; k++ {
			if e.Qb[j][k] == 0 {
				continue
			}
			total += e.Qb[j][k] * boltzmannExteriorStem(e, j, k) * q3[k+1]
		}
		q3[j] = total
	}
	return q3
}

func boltzmannExteriorStem(e *pf.Engine, i, j int) float64 {
	return exp(-float64(e.FC.ExteriorStemEnergy(i, j)) / 100.0 / e.FC.KT())
}

func boltzmannMultiStem(e *pf.Engine, i, j int) float64 {
	return exp(-float64(e.FC.MultiBranchStemEnergy(i, j)) / 100.0 / e.FC.KT())
}

func boltzmannInterior(e *pf.Engine, i, j, p, q int) float64 {
	return exp(-float64(e.FC.InteriorLoopEnergy(i, j, p, q)) / 100.0 / e.FC.KT())
}

func exp(x float64) float64 {
	return math.Exp(x)
}

// unpairedWeight is the Boltzmann weight of leaving pos unpaired in ctx,
// 0 when the hard constraints forbid it.
func unpairedWeight(e *pf.Engine, pos int, ctx constraints.Context) float64 {
	return boltzmannConst(e, e.FC.UnpairedEnergy(pos, ctx))
}

// Compute fills the base-pair probability matrix from a fully-folded
// pf.Engine, per spec §4.3's outside recursion. Three contexts are
// summed for each (i,j): the exterior context (direct contribution when
// (i,j) is the sequence's outermost pair), the interior-enclosing context
// (summed over every possible immediately-enclosing pair), and a
// multi-branch context.
//
// The multi-branch contribution is computed by treating (i,j) as the last
// branch of the enclosing multi-loop (mirroring the M1 recursion): the
// region left of i inside the enclosing pair is a Qm region, the region
// right of j is all-unpaired. This undercounts configurations where (i,j)
// is a middle branch with further branches to its right, trading exact
// multi-loop pair probabilities for a tractable amount of code.
// Exterior-context and interior-context probabilities are exact.
func Compute(e *pf.Engine) *Matrix {
	n := len(e.Q)
	m := &Matrix{n: n, probs: make([][]float64, n)}
	for i := range m.probs {
		m.probs[i] = make([]float64, n)
	}
	if n == 0 {
		return m
	}

	total := e.Q[n-1]
	if total == 0 {
		return m
	}

	q3 := suffixQ(e, n)
	outer := make([][]float64, n)
	for i := range outer {
		outer[i] = make([]float64, n)
	}

	mlBaseWeight := boltzmannConst(e, e.FC.Params.MultiLoopUnpairedNucleotideBonus)
	mlClosingWeight := boltzmannConst(e, e.FC.Params.MultiLoopClosingPenalty)

	for span := n - 1; span >= 1; span-- {
		for i := 0; i+span < n; i++ {
			j := i + span
			if e.Qb[i][j] == 0 {
				continue
			}

			prefixQ := 1.0
			if i > 0 {
				prefixQ = e.Q[i-1]
			}
			out := prefixQ * boltzmannExteriorStem(e, i, j) * q3[j+1]

			for p := max(0, i-maxLoopSize-1); p < i; p++ {
				maxQ := min(n-1, j+maxLoopSize+1)
				for q := j + 1; q <= maxQ; q++ {
					if e.Qb[p][q] == 0 || outer[p][q] == 0 {
						continue
					}
					shell := (i - p - 1) + (q - j - 1)
					if shell > maxLoopSize {
						continue
					}
					out += outer[p][q] * boltzmannInterior(e, p, q, i, j) * e.ScaleAt(shell+2)
				}
			}

			for p := 0; p < i-1; p++ {
				trailing := 1.0
				for q := j + 1; q < n; q++ {
					if q > j+1 {
						trailing *= mlBaseWeight * unpairedWeight(e, q-1, constraints.CtxMultiBranch) * e.ScaleAt(1)
					}
					if e.Qb[p][q] == 0 || outer[p][q] == 0 || trailing == 0 {
						continue
					}
					left := e.Qm[p+1][i-1]
					if left == 0 {
						continue
					}
					out += outer[p][q] * left * trailing * mlClosingWeight *
						boltzmannConst(e, e.FC.MultiLoopClosureEnergy(p, q)) *
						boltzmannMultiStem(e, i, j) * e.ScaleAt(2)
				}
			}

			outer[i][j] = out
			m.probs[i][j] = e.Qb[i][j] * out / total
			if m.probs[i][j] > 1 {
				m.probs[i][j] = 1
			}
		}
	}
	return m
}

func matAt(mtx [][]float64, i, j int) float64 {
	if i > j {
		return 1
	}
	return mtx[i][j]
}

func boltzmannConst(e *pf.Engine, deciCal int) float64 {
	if deciCal >= energy_params.Inf {
		return 0
	}
	return exp(-float64(deciCal) / 100.0 / e.FC.KT())
}

// Sample draws one structure from the Boltzmann ensemble by descending the
// prefix partition function Q, choosing at each decomposition point a
// category with probability proportional to its Boltzmann-weighted
// contribution, per spec §4.3's "Stochastic backtracking". prefixEnd lets
// a caller sample on any prefix [0, prefixEnd]; pass n-1 to sample the
// full sequence. Sampling always descends the linear tables, so for a
// circular compound the structures closed across the sequence ends are
// not sampled.
func Sample(e *pf.Engine, prefixEnd int, rng *rand.Rand) []int {
	n := len(e.Q)
	pairs := make([]int, n)
	for i := range pairs {
		pairs[i] = -1
	}
	sampleQ(e, prefixEnd, pairs, rng)
	return pairs
}

func sampleQ(e *pf.Engine, j int, pairs []int, rng *rand.Rand) {
	if j < 0 {
		return
	}
	unpaired := unpairedWeight(e, j, constraints.CtxExterior) * e.ScaleAt(1)
	if j > 0 {
		unpaired *= e.Q[j-1]
	}
	total := e.Q[j]
	if total == 0 {
		return
	}
	draw := rng.Float64() * total
	draw -= unpaired
	if draw < 0 {
		sampleQ(e, j-1, pairs, rng)
		return
	}
	for i := 0; i <= j; i++ {
		if e.Qb[i][j] == 0 {
			continue
		}
		prefix := 1.0
		if i > 0 {
			prefix = e.Q[i-1]
		}
		weight := prefix * e.Qb[i][j] * boltzmannExteriorStem(e, i, j)
		draw -= weight
		if draw < 0 {
			pairs[i], pairs[j] = j, i
			sampleQ(e, i-1, pairs, rng)
			sampleQb(e, i, j, pairs, rng)
			return
		}
	}

	// Exterior-loop quadruplex: no Watson-Crick pair to record, only the
	// prefix left of the footprint still needs sampling.
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
			draw -= prefix * gq * e.ScaleAt(j-i+1)
			if draw < 0 {
				sampleQ(e, i-1, pairs, rng)
				return
			}
		}
	}
}

func sampleQb(e *pf.Engine, i, j int, pairs []int, rng *rand.Rand) {
	total := e.Qb[i][j]
	if total == 0 {
		return
	}
	draw := rng.Float64() * total

	hairpinWeight := boltzmannConst(e, e.FC.HairpinEnergy(i, j)) * e.ScaleAt(j-i+1)
	draw -= hairpinWeight
	if draw < 0 {
		return
	}

	for p := i + 1; p < j-e.FC.Model.Turn-1; p++ {
		if p-i-1 > maxLoopSize {
			break
		}
		for q := p + 1; q < j; q++ {
			if (p-i-1)+(j-q-1) > maxLoopSize || e.Qb[p][q] == 0 {
				continue
			}
			weight := e.Qb[p][q] * boltzmannInterior(e, i, j, p, q) * e.ScaleAt((p-i-1)+(j-q-1)+2)
			draw -= weight
			if draw < 0 {
				pairs[p], pairs[q] = q, p
				sampleQb(e, p, q, pairs, rng)
				return
			}
		}
	}

	mlClosingWeight := boltzmannConst(e, e.FC.Params.MultiLoopClosingPenalty)
	for u := i + 2; u < j-1; u++ {
		mWeight := matAt(e.Qm, i+1, u)
		m1Weight := matAt(e.Qm1, u+1, j-1)
		if mWeight == 0 || m1Weight == 0 {
			continue
		}
		weight := mWeight * m1Weight * mlClosingWeight * boltzmannConst(e, e.FC.MultiLoopClosureEnergy(i, j)) * e.ScaleAt(2)
		draw -= weight
		if draw < 0 {
			sampleQm(e, i+1, u, pairs, rng)
			sampleQm1(e, u+1, j-1, pairs, rng)
			return
		}
	}

	if e.FC.GQuad != nil {
		// Whole-cell quadruplex: undo the caller's speculative pair mark.
		draw -= e.FC.GQuad.PartitionFunction(i, j) * e.ScaleAt(j-i+1)
		if draw < 0 {
			pairs[i], pairs[j] = -1, -1
			return
		}
		closureW := boltzmannConst(e, e.FC.GQuadInteriorClosureEnergy(i, j))
		if closureW > 0 {
			hit := false
			e.FC.GQuad.InteriorFootprints(i, j, maxLoopSize, func(p, q int) {
				if hit {
					return
				}
				loopW := boltzmannConst(e, e.FC.Params.InteriorLoop[(p-i-1)+(j-q-1)])
				draw -= closureW * e.FC.GQuad.PartitionFunction(p, q) * loopW * e.ScaleAt(j-i+1)
				if draw < 0 {
					hit = true
				}
			})
			if hit {
				return
			}
		}
	}
}

// sampleQm mirrors pf.Engine's Qm recursion term for term: strip an
// unpaired j, or pick the last branch (u,j) with either an all-unpaired
// prefix or a further Qm region before it.
func sampleQm(e *pf.Engine, i, j int, pairs []int, rng *rand.Rand) {
	if i > j {
		return
	}
	total := e.Qm[i][j]
	if total == 0 {
		return
	}
	draw := rng.Float64() * total
	mlBaseWeight := boltzmannConst(e, e.FC.Params.MultiLoopUnpairedNucleotideBonus)
	draw -= matAt(e.Qm, i, j-1) * mlBaseWeight * unpairedWeight(e, j, constraints.CtxMultiBranch) * e.ScaleAt(1)
	if draw < 0 {
		sampleQm(e, i, j-1, pairs, rng)
		return
	}
	prefix := 1.0
	for u := i; u <= j; u++ {
		if u > i {
			prefix *= mlBaseWeight * unpairedWeight(e, u-1, constraints.CtxMultiBranch) * e.ScaleAt(1)
		}
		if e.Qb[u][j] == 0 || prefix == 0 {
			continue
		}
		stem := e.Qb[u][j] * boltzmannMultiStem(e, u, j)
		draw -= prefix * stem
		if draw < 0 {
			pairs[u], pairs[j] = j, u
			sampleQb(e, u, j, pairs, rng)
			return
		}
		if u > i {
			draw -= e.Qm[i][u-1] * stem
			if draw < 0 {
				sampleQm(e, i, u-1, pairs, rng)
				pairs[u], pairs[j] = j, u
				sampleQb(e, u, j, pairs, rng)
				return
			}
		}
	}

	if e.FC.GQuad != nil {
		mlInternWeight := boltzmannConst(e, e.FC.Params.MultiLoopIntern[0])
		prefix = 1.0
		for u := i; u <= j; u++ {
			if u > i {
				prefix *= mlBaseWeight * unpairedWeight(e, u-1, constraints.CtxMultiBranch) * e.ScaleAt(1)
			}
			gq := e.FC.GQuad.PartitionFunction(u, j)
			if gq == 0 {
				continue
			}
			branch := gq * mlInternWeight * e.ScaleAt(j-u+1)
			if prefix != 0 {
				draw -= prefix * branch
				if draw < 0 {
					return
				}
			}
			if u > i {
				draw -= e.Qm[i][u-1] * branch
				if draw < 0 {
					sampleQm(e, i, u-1, pairs, rng)
					return
				}
			}
		}
	}
}

func sampleQm1(e *pf.Engine, i, j int, pairs []int, rng *rand.Rand) {
	if i > j {
		return
	}
	total := e.Qm1[i][j]
	if total == 0 {
		return
	}
	draw := rng.Float64() * total
	mlBaseWeight := boltzmannConst(e, e.FC.Params.MultiLoopUnpairedNucleotideBonus)
	draw -= matAt(e.Qm1, i, j-1) * mlBaseWeight * unpairedWeight(e, j, constraints.CtxMultiBranch) * e.ScaleAt(1)
	if draw < 0 {
		sampleQm1(e, i, j-1, pairs, rng)
		return
	}
	if e.Qb[i][j] != 0 {
		draw -= e.Qb[i][j] * boltzmannMultiStem(e, i, j)
		if draw < 0 {
			pairs[i], pairs[j] = j, i
			sampleQb(e, i, j, pairs, rng)
			return
		}
	}
	if e.FC.GQuad != nil && e.FC.GQuad.PartitionFunction(i, j) != 0 {
		// Quadruplex branch: nothing to record in the pair table.
		return
	}
}
