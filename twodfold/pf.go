package twodfold

import (
	"math"
	"math/rand"

	"github.com/rnastruct/rnafold/constraints"
	"github.com/rnastruct/rnafold/energy_params"
	"github.com/rnastruct/rnafold/foldcompound"
)

// PCell is a Cell's partition-function counterpart: a dense (k,l) table of
// Boltzmann weights (sum-combined instead of min-combined) plus an
// overflow accumulator.
type PCell struct {
	maxD1, maxD2 int
	values       [][]float64
	Overflow     float64
}

func newPCell(maxD1, maxD2 int) *PCell {
	c := &PCell{maxD1: maxD1, maxD2: maxD2}
	c.values = make([][]float64, maxD1+1)
	for k := range c.values {
		c.values[k] = make([]float64, maxD2+1)
	}
	return c
}

// At returns the partition function of class (k,l), 0 if out of range.
func (c *PCell) At(k, l int) float64 {
	if c == nil || k < 0 || l < 0 || k > c.maxD1 || l > c.maxD2 {
		return 0
	}
	return c.values[k][l]
}

func (c *PCell) add(k, l int, val float64) {
	if val == 0 {
		return
	}
	if k < 0 || l < 0 || k > c.maxD1 || l > c.maxD2 {
		c.Overflow += val
		return
	}
	c.values[k][l] += val
}

func identityPCell(maxD1, maxD2 int) *PCell {
	c := newPCell(maxD1, maxD2)
	c.values[0][0] = 1
	return c
}

func pshift(dst, src *PCell, dk, dl int, factor float64) {
	if src == nil {
		return
	}
	for k := 0; k <= src.maxD1; k++ {
		for l := 0; l <= src.maxD2; l++ {
			v := src.values[k][l]
			if v == 0 {
				continue
			}
			dst.add(k+dk, l+dl, v*factor)
		}
	}
	dst.Overflow += src.Overflow * factor
}

func pcombine(dst, a, b *PCell, factor float64) {
	if a == nil || b == nil {
		return
	}
	for ka := 0; ka <= a.maxD1; ka++ {
		for la := 0; la <= a.maxD2; la++ {
			av := a.values[ka][la]
			if av == 0 {
				continue
			}
			for kb := 0; kb <= b.maxD1; kb++ {
				for lb := 0; lb <= b.maxD2; lb++ {
					bv := b.values[kb][lb]
					if bv == 0 {
						continue
					}
					dst.add(ka+kb, la+lb, av*bv*factor)
				}
			}
		}
	}
	// As with the MFE combine(), cross-overflow mass isn't re-derived here;
	// see DESIGN.md.
}

// PFEngine owns the filled 2D partition-function tables, structurally
// mirroring Engine but with Boltzmann weights summed instead of energies
// minimized, per spec §4.3/§4.6.
type PFEngine struct {
	FC           *foldcompound.FoldCompound
	Ref1, Ref2   *Reference
	MaxD1, MaxD2 int
	n            int
	kT           float64

	Qb, Qm, Qm1 [][]*PCell
	Q           []*PCell
}

// NewPF allocates (but does not fill) a 2D partition-function engine.
func NewPF(fc *foldcompound.FoldCompound, ref1, ref2 *Reference, maxD1, maxD2 int) *PFEngine {
	n := fc.Length
	e := &PFEngine{FC: fc, Ref1: ref1, Ref2: ref2, MaxD1: maxD1, MaxD2: maxD2, n: n, kT: fc.KT()}
	e.Qb = newPCellMatrix(n)
	e.Qm = newPCellMatrix(n)
	e.Qm1 = newPCellMatrix(n)
	e.Q = make([]*PCell, n)
	return e
}

func newPCellMatrix(n int) [][]*PCell {
	m := make([][]*PCell, n)
	for i := range m {
		m[i] = make([]*PCell, n)
	}
	return m
}

func (e *PFEngine) at(m [][]*PCell, i, j int) *PCell {
	if i > j {
		return identityPCell(e.MaxD1, e.MaxD2)
	}
	return m[i][j]
}

func (e *PFEngine) boltzmann(deciCal int) float64 {
	return math.Exp(-float64(deciCal) / 100.0 / e.kT)
}

// Fold fills Qb, Qm, Qm1, Q in the same order pf.Engine.Fold uses.
func (e *PFEngine) Fold() {
	n := e.n
	mlBaseWeight := e.boltzmann(e.FC.Params.MultiLoopUnpairedNucleotideBonus)

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
}

func (e *PFEngine) fillQb(i, j int) *PCell {
	c := newPCell(e.MaxD1, e.MaxD2)
	dk, dl := e.Ref1.pairDelta(i, j), e.Ref2.pairDelta(i, j)

	hk := dk + e.Ref1.rangeDelta(i+1, j-1)
	hl := dl + e.Ref2.rangeDelta(i+1, j-1)
	c.add(hk, hl, e.boltzmann(e.FC.HairpinEnergy(i, j)))

	for p := i + 1; p < j-e.FC.Model.Turn-1; p++ {
		if p-i-1 > maxLoopSize {
			break
		}
		for q := p + 1; q < j; q++ {
			if (p-i-1)+(j-q-1) > maxLoopSize {
				continue
			}
			child := e.Qb[p][q]
			if child == nil {
				continue
			}
			ik := dk + e.Ref1.rangeDelta(i+1, p-1) + e.Ref1.rangeDelta(q+1, j-1)
			il := dl + e.Ref2.rangeDelta(i+1, p-1) + e.Ref2.rangeDelta(q+1, j-1)
			pshift(c, child, ik, il, e.boltzmann(e.FC.InteriorLoopEnergy(i, j, p, q)))
		}
	}

	mlClosingWeight := e.boltzmann(e.FC.Params.MultiLoopClosingPenalty)
	for u := i + 2; u < j-1; u++ {
		left := e.at(e.Qm, i+1, u)
		right := e.at(e.Qm1, u+1, j-1)
		if left == nil || right == nil {
			continue
		}
		pair := newPCell(e.MaxD1, e.MaxD2)
		pcombine(pair, left, right, mlClosingWeight*e.boltzmann(e.FC.MultiLoopClosureEnergy(i, j)))
		pshift(c, pair, dk, dl, 1)
	}

	if e.FC.GQuad != nil {
		c.add(e.Ref1.rangeDelta(i, j), e.Ref2.rangeDelta(i, j), e.FC.GQuad.PartitionFunction(i, j))

		closure := e.FC.GQuadInteriorClosureEnergy(i, j)
		if closure < energy_params.Inf {
			closureW := e.boltzmann(closure)
			e.FC.GQuad.InteriorFootprints(i, j, maxLoopSize, func(p, q int) {
				loopW := e.boltzmann(e.FC.Params.InteriorLoop[(p-i-1)+(j-q-1)])
				c.add(hk, hl, closureW*e.FC.GQuad.PartitionFunction(p, q)*loopW)
			})
		}
	}
	return c
}

// fillQm decomposes by the last branch, which must end exactly at j:
// either j is unpaired (strip it), or some branch (u,j) closes the region,
// with everything before u all-unpaired (first-branch case, shifted by the
// unpaired distance deltas of [i,u-1]) or a further Qm region. Each
// structure is reached by exactly one path, so no class weight is counted
// twice.
func (e *PFEngine) fillQm(i, j int, mlBaseWeight float64) *PCell {
	c := newPCell(e.MaxD1, e.MaxD2)
	if prev := e.at(e.Qm, i, j-1); prev != nil {
		pshift(c, prev, e.Ref1.unpairedDelta(j), e.Ref2.unpairedDelta(j),
			mlBaseWeight*e.unpairedWeight(j, constraints.CtxMultiBranch))
	}
	prefixWeight := 1.0
	for u := i; u <= j; u++ {
		if u > i {
			prefixWeight *= mlBaseWeight * e.unpairedWeight(u-1, constraints.CtxMultiBranch)
		}
		stem := e.Qb[u][j]
		if stem == nil || prefixWeight == 0 {
			continue
		}
		stemWeight := e.boltzmann(e.FC.MultiBranchStemEnergy(u, j))
		pshift(c, stem, e.Ref1.rangeDelta(i, u-1), e.Ref2.rangeDelta(i, u-1), prefixWeight*stemWeight)
		if u > i {
			if left := e.Qm[i][u-1]; left != nil {
				pcombine(c, left, stem, stemWeight)
			}
		}
	}

	if e.FC.GQuad != nil {
		mlInternWeight := e.boltzmann(e.FC.Params.MultiLoopIntern[0])
		prefixWeight = 1.0
		for u := i; u <= j; u++ {
			if u > i {
				prefixWeight *= mlBaseWeight * e.unpairedWeight(u-1, constraints.CtxMultiBranch)
			}
			gq := e.FC.GQuad.PartitionFunction(u, j)
			if gq == 0 {
				continue
			}
			branch := gq * mlInternWeight
			dkGq, dlGq := e.Ref1.rangeDelta(u, j), e.Ref2.rangeDelta(u, j)
			if prefixWeight != 0 {
				c.add(e.Ref1.rangeDelta(i, u-1)+dkGq, e.Ref2.rangeDelta(i, u-1)+dlGq, prefixWeight*branch)
			}
			if u > i {
				if left := e.Qm[i][u-1]; left != nil {
					pshift(c, left, dkGq, dlGq, branch)
				}
			}
		}
	}
	return c
}

// unpairedWeight is the Boltzmann weight of leaving pos unpaired in ctx: 0
// when the hard constraints forbid it.
func (e *PFEngine) unpairedWeight(pos int, ctx constraints.Context) float64 {
	deciCal := e.FC.UnpairedEnergy(pos, ctx)
	if deciCal >= energy_params.Inf {
		return 0
	}
	return e.boltzmann(deciCal)
}

func (e *PFEngine) fillQm1(i, j int, mlBaseWeight float64) *PCell {
	c := newPCell(e.MaxD1, e.MaxD2)
	if prev := e.at(e.Qm1, i, j-1); prev != nil {
		pshift(c, prev, e.Ref1.unpairedDelta(j), e.Ref2.unpairedDelta(j),
			mlBaseWeight*e.unpairedWeight(j, constraints.CtxMultiBranch))
	}
	if e.Qb[i][j] != nil {
		pshift(c, e.Qb[i][j], 0, 0, e.boltzmann(e.FC.MultiBranchStemEnergy(i, j)))
	}
	if e.FC.GQuad != nil {
		if gq := e.FC.GQuad.PartitionFunction(i, j); gq != 0 {
			c.add(e.Ref1.rangeDelta(i, j), e.Ref2.rangeDelta(i, j), gq*e.boltzmann(e.FC.Params.MultiLoopIntern[0]))
		}
	}
	return c
}

func (e *PFEngine) fillQ(j int) *PCell {
	c := newPCell(e.MaxD1, e.MaxD2)
	if j == 0 {
		c.add(e.Ref1.unpairedDelta(0), e.Ref2.unpairedDelta(0), e.unpairedWeight(0, constraints.CtxExterior))
	} else if e.Q[j-1] != nil {
		pshift(c, e.Q[j-1], e.Ref1.unpairedDelta(j), e.Ref2.unpairedDelta(j),
			e.unpairedWeight(j, constraints.CtxExterior))
	}
	for i := 0; i <= j; i++ {
		stem := e.Qb[i][j]
		if stem == nil {
			continue
		}
		var prefix *PCell
		if i > 0 {
			prefix = e.Q[i-1]
		} else {
			prefix = identityPCell(e.MaxD1, e.MaxD2)
		}
		if prefix == nil {
			continue
		}
		pcombine(c, prefix, stem, e.boltzmann(e.FC.ExteriorStemEnergy(i, j)))
	}
	if e.FC.GQuad != nil {
		for i := 0; i <= j; i++ {
			gq := e.FC.GQuad.PartitionFunction(i, j)
			if gq == 0 {
				continue
			}
			var prefix *PCell
			if i > 0 {
				prefix = e.Q[i-1]
			} else {
				prefix = identityPCell(e.MaxD1, e.MaxD2)
			}
			if prefix == nil {
				continue
			}
			pshift(c, prefix, e.Ref1.rangeDelta(i, j), e.Ref2.rangeDelta(i, j), gq)
		}
	}
	return c
}

// PFSolution is spec §6's `TwoDpfold_solution` record: partition function
// of distance class (K,L).
type PFSolution struct {
	K, L int
	Q    float64
}

// TwoDpfold fills the engine and returns one PFSolution per feasible
// (k,l) class, plus one overflow record (K=L=-1) if the overflow bucket
// is non-empty. When maxD1/maxD2 are large enough that no cell overflows,
// the sum of Q across the returned records equals Q[1,n] (spec §8's
// "monotone coverage" property). Once a cell overflows the sum can fall
// short: pcombine does not carry a child's overflow mass into the parent,
// so that mass is in no record.
func TwoDpfold(fc *foldcompound.FoldCompound, ref1, ref2 *Reference, maxD1, maxD2 int) []PFSolution {
	e := NewPF(fc, ref1, ref2, maxD1, maxD2)
	e.Fold()
	n := e.n
	var out []PFSolution
	if n == 0 {
		return out
	}
	root := e.Q[n-1]
	for k := 0; k <= maxD1; k++ {
		for l := 0; l <= maxD2; l++ {
			q := root.At(k, l)
			if q == 0 {
				continue
			}
			out = append(out, PFSolution{K: k, L: l, Q: q})
		}
	}
	if root.Overflow > 0 {
		out = append(out, PFSolution{K: -1, L: -1, Q: root.Overflow})
	}
	return out
}

// TwoDpfoldPbacktrack draws one structure from the Boltzmann ensemble
// restricted to distance class (k,l), per spec §4.6's
// `TwoDpfold_pbacktrack(k,l)`. It requires a filled PFEngine (the caller
// fills it once via Fold and can then sample many classes from it).
func TwoDpfoldPbacktrack(e *PFEngine, k, l int, rng *rand.Rand) []int {
	n := e.n
	pairs := make([]int, n)
	for i := range pairs {
		pairs[i] = -1
	}
	if n == 0 {
		return pairs
	}
	sampleQ(e, n-1, k, l, pairs, rng)
	return pairs
}

func sampleQ(e *PFEngine, j, k, l int, pairs []int, rng *rand.Rand) {
	if j < 0 {
		return
	}
	total := e.Q[j].At(k, l)
	if total <= 0 {
		return
	}
	draw := rng.Float64() * total
	var unpaired float64
	if j == 0 {
		if k == e.Ref1.unpairedDelta(0) && l == e.Ref2.unpairedDelta(0) {
			unpaired = e.unpairedWeight(0, constraints.CtxExterior)
		}
	} else {
		kp, lp := k-e.Ref1.unpairedDelta(j), l-e.Ref2.unpairedDelta(j)
		unpaired = e.Q[j-1].At(kp, lp) * e.unpairedWeight(j, constraints.CtxExterior)
	}
	draw -= unpaired
	if draw < 0 {
		if j > 0 {
			sampleQ(e, j-1, k-e.Ref1.unpairedDelta(j), l-e.Ref2.unpairedDelta(j), pairs, rng)
		}
		return
	}
	for i := 0; i <= j; i++ {
		stem := e.Qb[i][j]
		if stem == nil {
			continue
		}
		for ks := 0; ks <= stem.maxD1; ks++ {
			for ls := 0; ls <= stem.maxD2; ls++ {
				stemVal := stem.values[ks][ls]
				if stemVal == 0 {
					continue
				}
				kp, lp := k-ks, l-ls
				var prefixVal float64
				if i == 0 {
					if kp != 0 || lp != 0 {
						continue
					}
					prefixVal = 1
				} else {
					prefixVal = e.Q[i-1].At(kp, lp)
					if prefixVal == 0 {
						continue
					}
				}
				weight := prefixVal * stemVal * e.boltzmann(e.FC.ExteriorStemEnergy(i, j))
				draw -= weight
				if draw < 0 {
					pairs[i], pairs[j] = j, i
					if i > 0 {
						sampleQ(e, i-1, kp, lp, pairs, rng)
					}
					sampleQb(e, i, j, ks, ls, pairs, rng)
					return
				}
			}
		}
	}

	// Exterior-loop quadruplex: nothing to record in the pair table, only
	// the prefix left of the footprint still needs sampling.
	if e.FC.GQuad != nil {
		for i := 0; i <= j; i++ {
			gq := e.FC.GQuad.PartitionFunction(i, j)
			if gq == 0 {
				continue
			}
			kp, lp := k-e.Ref1.rangeDelta(i, j), l-e.Ref2.rangeDelta(i, j)
			var prefixVal float64
			if i == 0 {
				if kp != 0 || lp != 0 {
					continue
				}
				prefixVal = 1
			} else {
				prefixVal = e.Q[i-1].At(kp, lp)
				if prefixVal == 0 {
					continue
				}
			}
			draw -= prefixVal * gq
			if draw < 0 {
				if i > 0 {
					sampleQ(e, i-1, kp, lp, pairs, rng)
				}
				return
			}
		}
	}
}

func sampleQb(e *PFEngine, i, j, k, l int, pairs []int, rng *rand.Rand) {
	cell := e.Qb[i][j]
	if cell == nil {
		return
	}
	total := cell.values[k][l]
	if total <= 0 {
		return
	}
	draw := rng.Float64() * total
	dk, dl := e.Ref1.pairDelta(i, j), e.Ref2.pairDelta(i, j)

	hk := dk + e.Ref1.rangeDelta(i+1, j-1)
	hl := dl + e.Ref2.rangeDelta(i+1, j-1)
	if k == hk && l == hl {
		hairpinWeight := e.boltzmann(e.FC.HairpinEnergy(i, j))
		draw -= hairpinWeight
		if draw < 0 {
			return
		}
	}

	for p := i + 1; p < j-e.FC.Model.Turn-1; p++ {
		if p-i-1 > maxLoopSize {
			break
		}
		for q := p + 1; q < j; q++ {
			if (p-i-1)+(j-q-1) > maxLoopSize {
				continue
			}
			child := e.Qb[p][q]
			if child == nil {
				continue
			}
			ik := dk + e.Ref1.rangeDelta(i+1, p-1) + e.Ref1.rangeDelta(q+1, j-1)
			il := dl + e.Ref2.rangeDelta(i+1, p-1) + e.Ref2.rangeDelta(q+1, j-1)
			ks, ls := k-ik, l-il
			if ks < 0 || ls < 0 || ks > child.maxD1 || ls > child.maxD2 {
				continue
			}
			childVal := child.values[ks][ls]
			if childVal == 0 {
				continue
			}
			weight := childVal * e.boltzmann(e.FC.InteriorLoopEnergy(i, j, p, q))
			draw -= weight
			if draw < 0 {
				pairs[p], pairs[q] = q, p
				sampleQb(e, p, q, ks, ls, pairs, rng)
				return
			}
		}
	}

	mlClosingWeight := e.boltzmann(e.FC.Params.MultiLoopClosingPenalty)
	closureWeight := e.boltzmann(e.FC.MultiLoopClosureEnergy(i, j))
	for u := i + 2; u < j-1; u++ {
		left := e.at(e.Qm, i+1, u)
		right := e.at(e.Qm1, u+1, j-1)
		if left == nil || right == nil {
			continue
		}
		for ka := 0; ka <= left.maxD1; ka++ {
			for la := 0; la <= left.maxD2; la++ {
				leftVal := left.values[ka][la]
				if leftVal == 0 {
					continue
				}
				kb, lb := k-dk-ka, l-dl-la
				if kb < 0 || lb < 0 || kb > right.maxD1 || lb > right.maxD2 {
					continue
				}
				rightVal := right.values[kb][lb]
				if rightVal == 0 {
					continue
				}
				weight := leftVal * rightVal * mlClosingWeight * closureWeight
				draw -= weight
				if draw < 0 {
					sampleQm(e, i+1, u, ka, la, pairs, rng)
					sampleQm1(e, u+1, j-1, kb, lb, pairs, rng)
					return
				}
			}
		}
	}
}

func sampleQm(e *PFEngine, i, j, k, l int, pairs []int, rng *rand.Rand) {
	if i > j {
		return
	}
	cell := e.Qm[i][j]
	if cell == nil {
		return
	}
	total := cell.values[k][l]
	if total <= 0 {
		return
	}
	draw := rng.Float64() * total
	mlBaseWeight := e.boltzmann(e.FC.Params.MultiLoopUnpairedNucleotideBonus)
	if prev := e.at(e.Qm, i, j-1); prev != nil {
		kp, lp := k-e.Ref1.unpairedDelta(j), l-e.Ref2.unpairedDelta(j)
		draw -= prev.At(kp, lp) * mlBaseWeight * e.unpairedWeight(j, constraints.CtxMultiBranch)
		if draw < 0 {
			sampleQm(e, i, j-1, kp, lp, pairs, rng)
			return
		}
	}
	prefixWeight := 1.0
	for u := i; u <= j; u++ {
		if u > i {
			prefixWeight *= mlBaseWeight * e.unpairedWeight(u-1, constraints.CtxMultiBranch)
		}
		stem := e.Qb[u][j]
		if stem == nil || prefixWeight == 0 {
			continue
		}
		stemWeight := e.boltzmann(e.FC.MultiBranchStemEnergy(u, j))

		ks, ls := k-e.Ref1.rangeDelta(i, u-1), l-e.Ref2.rangeDelta(i, u-1)
		draw -= stem.At(ks, ls) * prefixWeight * stemWeight
		if draw < 0 {
			pairs[u], pairs[j] = j, u
			sampleQb(e, u, j, ks, ls, pairs, rng)
			return
		}

		if u == i {
			continue
		}
		left := e.Qm[i][u-1]
		if left == nil {
			continue
		}
		for ka := 0; ka <= left.maxD1; ka++ {
			for la := 0; la <= left.maxD2; la++ {
				leftVal := left.values[ka][la]
				if leftVal == 0 {
					continue
				}
				kb, lb := k-ka, l-la
				if kb < 0 || lb < 0 || kb > stem.maxD1 || lb > stem.maxD2 {
					continue
				}
				stemVal := stem.values[kb][lb]
				if stemVal == 0 {
					continue
				}
				weight := leftVal * stemVal * stemWeight
				draw -= weight
				if draw < 0 {
					sampleQm(e, i, u-1, ka, la, pairs, rng)
					pairs[u], pairs[j] = j, u
					sampleQb(e, u, j, kb, lb, pairs, rng)
					return
				}
			}
		}
	}

	if e.FC.GQuad != nil {
		mlInternWeight := e.boltzmann(e.FC.Params.MultiLoopIntern[0])
		prefixWeight = 1.0
		for u := i; u <= j; u++ {
			if u > i {
				prefixWeight *= mlBaseWeight * e.unpairedWeight(u-1, constraints.CtxMultiBranch)
			}
			gq := e.FC.GQuad.PartitionFunction(u, j)
			if gq == 0 {
				continue
			}
			branch := gq * mlInternWeight
			dkGq, dlGq := e.Ref1.rangeDelta(u, j), e.Ref2.rangeDelta(u, j)
			if prefixWeight != 0 &&
				k == e.Ref1.rangeDelta(i, u-1)+dkGq && l == e.Ref2.rangeDelta(i, u-1)+dlGq {
				draw -= prefixWeight * branch
				if draw < 0 {
					return
				}
			}
			if u > i {
				if left := e.Qm[i][u-1]; left != nil {
					kp, lp := k-dkGq, l-dlGq
					draw -= left.At(kp, lp) * branch
					if draw < 0 {
						sampleQm(e, i, u-1, kp, lp, pairs, rng)
						return
					}
				}
			}
		}
	}
}

func sampleQm1(e *PFEngine, i, j, k, l int, pairs []int, rng *rand.Rand) {
	if i > j {
		return
	}
	cell := e.Qm1[i][j]
	if cell == nil {
		return
	}
	total := cell.values[k][l]
	if total <= 0 {
		return
	}
	draw := rng.Float64() * total
	mlBaseWeight := e.boltzmann(e.FC.Params.MultiLoopUnpairedNucleotideBonus)
	if prev := e.at(e.Qm1, i, j-1); prev != nil {
		kp, lp := k-e.Ref1.unpairedDelta(j), l-e.Ref2.unpairedDelta(j)
		draw -= prev.At(kp, lp) * mlBaseWeight * e.unpairedWeight(j, constraints.CtxMultiBranch)
		if draw < 0 {
			sampleQm1(e, i, j-1, kp, lp, pairs, rng)
			return
		}
	}
	if e.Qb[i][j] != nil {
		stemVal := e.Qb[i][j].At(k, l)
		if stemVal > 0 {
			draw -= stemVal * e.boltzmann(e.FC.MultiBranchStemEnergy(i, j))
			if draw < 0 {
				pairs[i], pairs[j] = j, i
				sampleQb(e, i, j, k, l, pairs, rng)
				return
			}
		}
	}
	if e.FC.GQuad != nil && e.FC.GQuad.PartitionFunction(i, j) != 0 {
		// Quadruplex branch: nothing to record in the pair table.
		return
	}
}
