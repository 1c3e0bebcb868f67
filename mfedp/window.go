package mfedp

import (
	"github.com/rnastruct/rnafold/constraints"
	"github.com/rnastruct/rnafold/energy_params"
	"github.com/rnastruct/rnafold/foldcompound"
	"github.com/rnastruct/rnafold/gquad"
)

// WindowEngine is the sliding-window variant of the MFE DP: pairs are
// restricted to spans of at most Window nucleotides, and the matrices are
// stored band-indexed (C[i][j-i]) so memory stays O(n*W) instead of O(n^2).
// Instead of one global F5 chain it reports, per 3' end, the best locally
// stable stem closing there; LocalStructures returns those that score at
// or below a threshold as the hit list a local-folding caller consumes.
type WindowEngine struct {
	FC     *foldcompound.FoldCompound
	Window int
	n      int

	// Band storage: c[i][d] is the value for the pair (i, i+d), 0 <= d <= Window.
	c, m, m1 [][]int

	// fl[j] is the best stem energy over all (i,j) with j-i <= Window,
	// including the exterior-stem contribution; flStart[j] is the i that
	// realizes it (-1 when no stem ends at j).
	fl      []int
	flStart []int
}

// NewWindow allocates a WindowEngine for the given compound and maximum
// pair span. A window smaller than Turn+1 can never hold a pair.
func NewWindow(fc *foldcompound.FoldCompound, window int) *WindowEngine {
	n := fc.Length
	e := &WindowEngine{FC: fc, Window: window, n: n}
	e.c = newBand(n, window)
	e.m = newBand(n, window)
	e.m1 = newBand(n, window)
	e.fl = make([]int, n)
	e.flStart = make([]int, n)
	return e
}

func newBand(n, window int) [][]int {
	b := make([][]int, n)
	for i := range b {
		b[i] = make([]int, window+1)
		for d := range b[i] {
			b[i][d] = energy_params.Inf
		}
	}
	return b
}

// C returns the banded C value for the pair (i,j), Inf outside the band.
func (e *WindowEngine) C(i, j int) int {
	if i < 0 || j >= e.n || j-i < 0 || j-i > e.Window {
		return energy_params.Inf
	}
	return e.c[i][j-i]
}

func (e *WindowEngine) mAt(b [][]int, i, j int) int {
	if i > j {
		return 0
	}
	if j-i > e.Window {
		return energy_params.Inf
	}
	return b[i][j-i]
}

// Fold fills the band. The fill order is the same j-ascending, i-descending
// order the global engine uses, with i never reaching back further than the
// window width.
func (e *WindowEngine) Fold() {
	turn := e.FC.Model.Turn
	mlBase := e.FC.Params.MultiLoopUnpairedNucleotideBonus

	for j := 0; j < e.n; j++ {
		lo := j - e.Window
		if lo < 0 {
			lo = 0
		}
		for i := j - 1; i >= lo; i-- {
			if j-i > turn {
				e.c[i][j-i] = e.fillC(i, j)
			}
			e.m[i][j-i] = e.fillM(i, j, mlBase)
			e.m1[i][j-i] = e.fillM1(i, j, mlBase)
		}
		e.fl[j], e.flStart[j] = e.fillFL(j, lo)
	}
}

func (e *WindowEngine) fillC(i, j int) int {
	best := e.FC.HairpinEnergy(i, j)

	for p := i + 1; p < j-e.FC.Model.Turn-1; p++ {
		if p-i-1 > MaxLoopSize {
			break
		}
		for q := p + 1; q < j; q++ {
			if (p-i-1)+(j-q-1) > MaxLoopSize {
				continue
			}
			inner := e.C(p, q)
			if inner >= energy_params.Inf {
				continue
			}
			cand := addInf(inner, e.FC.InteriorLoopEnergy(i, j, p, q))
			if cand < best {
				best = cand
			}
		}
	}

	mlClosing := e.FC.Params.MultiLoopClosingPenalty
	for u := i + 2; u < j-1; u++ {
		cand := addInf(e.mAt(e.m, i+1, u), e.mAt(e.m1, u+1, j-1), mlClosing, e.FC.MultiLoopClosureEnergy(i, j))
		if cand < best {
			best = cand
		}
	}

	if e.FC.GQuad != nil {
		if gqE, ok := e.FC.GQuad.MFE(i, j); ok && gqE < best {
			best = gqE
		}
		if closure := e.FC.GQuadInteriorClosureEnergy(i, j); closure < energy_params.Inf {
			e.FC.GQuad.InteriorFootprints(i, j, MaxLoopSize, func(p, q int) {
				gqE, _ := e.FC.GQuad.MFE(p, q)
				cand := addInf(closure, gqE, e.FC.Params.InteriorLoop[(p-i-1)+(j-q-1)])
				if cand < best {
					best = cand
				}
			})
		}
	}
	return best
}

func (e *WindowEngine) fillM(i, j, mlBase int) int {
	best := addInf(e.mAt(e.m, i, j-1), mlBase, e.FC.UnpairedEnergy(j, constraints.CtxMultiBranch))
	if cand := addInf(e.mAt(e.m, i+1, j), mlBase, e.FC.UnpairedEnergy(i, constraints.CtxMultiBranch)); cand < best {
		best = cand
	}
	for u := i; u <= j; u++ {
		stem := e.C(u, j)
		if stem >= energy_params.Inf {
			continue
		}
		cand := addInf(e.mAt(e.m, i, u-1), stem, e.FC.MultiBranchStemEnergy(u, j))
		if cand < best {
			best = cand
		}
	}
	if e.FC.GQuad != nil {
		mlIntern := e.FC.Params.MultiLoopIntern[0]
		for u := i; u <= j; u++ {
			gqE, ok := e.FC.GQuad.MFE(u, j)
			if !ok {
				continue
			}
			if cand := addInf(e.mAt(e.m, i, u-1), gqE, mlIntern); cand < best {
				best = cand
			}
		}
	}
	return best
}

func (e *WindowEngine) fillM1(i, j, mlBase int) int {
	best := addInf(e.mAt(e.m1, i, j-1), mlBase, e.FC.UnpairedEnergy(j, constraints.CtxMultiBranch))
	stem := e.C(i, j)
	if stem < energy_params.Inf {
		if cand := addInf(stem, e.FC.MultiBranchStemEnergy(i, j)); cand < best {
			best = cand
		}
	}
	if e.FC.GQuad != nil {
		if gqE, ok := e.FC.GQuad.MFE(i, j); ok {
			if cand := addInf(gqE, e.FC.Params.MultiLoopIntern[0]); cand < best {
				best = cand
			}
		}
	}
	return best
}

func (e *WindowEngine) fillFL(j, lo int) (int, int) {
	best, start := energy_params.Inf, -1
	for i := lo; i <= j; i++ {
		stem := e.C(i, j)
		if stem >= energy_params.Inf {
			continue
		}
		cand := addInf(stem, e.FC.ExteriorStemEnergy(i, j))
		if cand < best {
			best = cand
			start = i
		}
	}
	if e.FC.GQuad != nil {
		for i := lo; i <= j; i++ {
			gqE, ok := e.FC.GQuad.MFE(i, j)
			if !ok {
				continue
			}
			if gqE < best {
				best = gqE
				start = i
			}
		}
	}
	return best, start
}

// LocalHit is one locally stable structure found by the sliding window:
// the closing pair's bounds (0-based, inclusive), its energy in
// deci-cal/mol, and its dot-bracket rendering (relative to Start).
type LocalHit struct {
	Start, End int
	Energy     int
	Structure  string
}

// LocalStructures returns one hit per 3' end: the best local stem ending at
// that position, for every position where it scores at or below threshold.
// Hits are not filtered against each other, so a hit nested inside or
// overlapping another reported hit is returned as well.
func (e *WindowEngine) LocalStructures(threshold int) []LocalHit {
	var hits []LocalHit
	for j := 0; j < e.n; j++ {
		if e.fl[j] > threshold || e.flStart[j] < 0 {
			continue
		}
		i := e.flStart[j]
		pairs := make([]int, e.n)
		for p := range pairs {
			pairs[p] = -1
		}
		quads := map[int]gquad.Quadruplex{}
		if e.FC.GQuad != nil {
			if gqE, ok := e.FC.GQuad.MFE(i, j); ok && gqE == e.fl[j] {
				if q, ok := e.FC.GQuad.Pattern(i, j); ok {
					quads[i] = q
				}
			}
		}
		if len(quads) == 0 {
			e.trace(i, j, pairs, quads)
		}
		hits = append(hits, LocalHit{
			Start:     i,
			End:       j,
			Energy:    e.fl[j],
			Structure: renderLocal(pairs, quads, i, j),
		})
	}
	return hits
}

// trace reconstructs the structure realizing C(i,j), mirroring the global
// traceback but reading the band storage.
func (e *WindowEngine) trace(i, j int, pairs []int, quads map[int]gquad.Quadruplex) {
	pairs[i], pairs[j] = j, i
	target := e.C(i, j)
	if e.FC.HairpinEnergy(i, j) == target {
		return
	}

	for p := i + 1; p < j-e.FC.Model.Turn-1; p++ {
		if p-i-1 > MaxLoopSize {
			break
		}
		for q := p + 1; q < j; q++ {
			if (p-i-1)+(j-q-1) > MaxLoopSize {
				continue
			}
			inner := e.C(p, q)
			if inner >= energy_params.Inf {
				continue
			}
			if addInf(inner, e.FC.InteriorLoopEnergy(i, j, p, q)) == target {
				e.trace(p, q, pairs, quads)
				return
			}
		}
	}

	mlClosing := e.FC.Params.MultiLoopClosingPenalty
	for u := i + 2; u < j-1; u++ {
		if addInf(e.mAt(e.m, i+1, u), e.mAt(e.m1, u+1, j-1), mlClosing, e.FC.MultiLoopClosureEnergy(i, j)) == target {
			e.traceM(i+1, u, pairs, quads)
			e.traceM1(u+1, j-1, pairs, quads)
			return
		}
	}

	if e.FC.GQuad != nil {
		if gqE, ok := e.FC.GQuad.MFE(i, j); ok && gqE == target {
			pairs[i], pairs[j] = -1, -1
			if q, ok := e.FC.GQuad.Pattern(i, j); ok {
				quads[i] = q
			}
			return
		}
		if closure := e.FC.GQuadInteriorClosureEnergy(i, j); closure < energy_params.Inf {
			found := false
			e.FC.GQuad.InteriorFootprints(i, j, MaxLoopSize, func(p, q int) {
				if found {
					return
				}
				gqE, _ := e.FC.GQuad.MFE(p, q)
				if addInf(closure, gqE, e.FC.Params.InteriorLoop[(p-i-1)+(j-q-1)]) == target {
					if pat, ok := e.FC.GQuad.Pattern(p, q); ok {
						quads[p] = pat
					}
					found = true
				}
			})
			if found {
				return
			}
		}
	}
}

func (e *WindowEngine) traceM(i, j int, pairs []int, quads map[int]gquad.Quadruplex) {
	if i > j {
		return
	}
	mlBase := e.FC.Params.MultiLoopUnpairedNucleotideBonus
	target := e.mAt(e.m, i, j)
	if addInf(e.mAt(e.m, i, j-1), mlBase, e.FC.UnpairedEnergy(j, constraints.CtxMultiBranch)) == target {
		e.traceM(i, j-1, pairs, quads)
		return
	}
	if addInf(e.mAt(e.m, i+1, j), mlBase, e.FC.UnpairedEnergy(i, constraints.CtxMultiBranch)) == target {
		e.traceM(i+1, j, pairs, quads)
		return
	}
	for u := i; u <= j; u++ {
		stem := e.C(u, j)
		if stem >= energy_params.Inf {
			continue
		}
		if addInf(e.mAt(e.m, i, u-1), stem, e.FC.MultiBranchStemEnergy(u, j)) == target {
			e.traceM(i, u-1, pairs, quads)
			e.trace(u, j, pairs, quads)
			return
		}
	}
	if e.FC.GQuad != nil {
		mlIntern := e.FC.Params.MultiLoopIntern[0]
		for u := i; u <= j; u++ {
			gqE, ok := e.FC.GQuad.MFE(u, j)
			if !ok {
				continue
			}
			if addInf(e.mAt(e.m, i, u-1), gqE, mlIntern) == target {
				e.traceM(i, u-1, pairs, quads)
				if q, ok := e.FC.GQuad.Pattern(u, j); ok {
					quads[u] = q
				}
				return
			}
		}
	}
}

func (e *WindowEngine) traceM1(i, j int, pairs []int, quads map[int]gquad.Quadruplex) {
	if i > j {
		return
	}
	mlBase := e.FC.Params.MultiLoopUnpairedNucleotideBonus
	target := e.mAt(e.m1, i, j)
	if addInf(e.mAt(e.m1, i, j-1), mlBase, e.FC.UnpairedEnergy(j, constraints.CtxMultiBranch)) == target {
		e.traceM1(i, j-1, pairs, quads)
		return
	}
	stem := e.C(i, j)
	if stem < energy_params.Inf && addInf(stem, e.FC.MultiBranchStemEnergy(i, j)) == target {
		e.trace(i, j, pairs, quads)
		return
	}
	if e.FC.GQuad != nil {
		if gqE, ok := e.FC.GQuad.MFE(i, j); ok && addInf(gqE, e.FC.Params.MultiLoopIntern[0]) == target {
			if q, ok := e.FC.GQuad.Pattern(i, j); ok {
				quads[i] = q
			}
		}
	}
}

func renderLocal(pairs []int, quads map[int]gquad.Quadruplex, start, end int) string {
	out := make([]byte, end-start+1)
	for p := start; p <= end; p++ {
		switch {
		case pairs[p] < 0:
			out[p-start] = '.'
		case pairs[p] > p:
			out[p-start] = '('
		default:
			out[p-start] = ')'
		}
	}
	for _, q := range quads {
		for _, t := range q.HoogsteenTriples() {
			if t[0] >= start && t[0] <= end {
				out[t[0]-start] = '+'
			}
		}
	}
	return string(out)
}
