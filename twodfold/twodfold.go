/*
Package twodfold implements the distance-class (2D) extension (C10): every
cell of the MFE and partition-function recursions is replaced by a dense
inner table indexed by (k,l), the base-pair distance of the enclosed
substructure to two reference secondary structures R1, R2.

Grounded on spec §4.6 and §3's "2D distance-class tables", and structurally
on `mfedp.Engine`/`pf.Engine` (same fill order, same loop decomposition):
this package re-derives the C/M/M1/F5 recursions rather than importing
them directly, since every addition into a cell here is a (k,l)-indexed
merge instead of a scalar min/sum.

Base-pair distance is the textbook symmetric difference |S\R| + |R\S|
(spec glossary, §3). Every reference pair (p,q), p<q, is charged exactly
once: at whichever DP event resolves p's fate (p paired to q: delta 0;
p paired to anything else, or p left unpaired: delta 1), using p (the
smaller index) as the pair's sole "canonical" charge point so a lost
pair is never counted twice even when both p and q end up independently
unpaired. Forming any pair (i,j) that is not itself a reference pair
additionally charges its own +1 for |S\R|, on top of whatever canonical
losses i and j individually carry. See Reference.pairDelta/unpairedDelta/
rangeDelta below and DESIGN.md for the full derivation.
*/
package twodfold

import (
	"github.com/rnastruct/rnafold/constraints"
	"github.com/rnastruct/rnafold/energy_params"
	"github.com/rnastruct/rnafold/foldcompound"
	"github.com/rnastruct/rnafold/secondary_structure"
)

// Reference is a parsed reference secondary structure: a 0-based pair
// table (partner[i] = j if i pairs with j, else -1) plus the count of its
// pairs. canonical[p] marks p as the smaller-index (5') endpoint of one of
// the reference's own pairs — the sole position that may charge that
// pair's loss, so a pair that ends up unpaired or mispaired on both ends
// is never counted twice. canonicalPrefix is its prefix-sum, giving the
// number of canonical (lossable) positions in any range in O(1).
type Reference struct {
	PairTable       []int
	NumPairs        int
	canonical       []bool
	canonicalPrefix []int
}

// NewReference parses a dot-bracket string into a Reference usable by
// this package. G-quadruplex columns ('+') are treated as unpaired, per
// spec §6's dot-bracket grammar.
func NewReference(dotBracket string) (*Reference, error) {
	pt, err := secondary_structure.PairTable(dotBracket)
	if err != nil {
		return nil, err
	}
	n := len(pt)
	r := &Reference{PairTable: pt, canonical: make([]bool, n), canonicalPrefix: make([]int, n+1)}
	for i, j := range pt {
		if j > i {
			r.NumPairs++
			r.canonical[i] = true
		}
	}
	for i := 0; i < n; i++ {
		r.canonicalPrefix[i+1] = r.canonicalPrefix[i]
		if r.canonical[i] {
			r.canonicalPrefix[i+1]++
		}
	}
	return r, nil
}

// Pairs reports whether the reference pairs i with j.
func (r *Reference) Pairs(i, j int) bool {
	return i >= 0 && i < len(r.PairTable) && r.PairTable[i] == j
}

// pairDelta is the symmetric-difference contribution of forming the pair
// (i,j): 0 if (i,j) is itself a reference pair; otherwise 1 (the formed
// pair is in S but not R) plus, for whichever of i/j is the canonical
// endpoint of its own (different or nonexistent) reference pair, one
// more for that reference pair now being unrealized.
func (r *Reference) pairDelta(i, j int) int {
	if r.Pairs(i, j) {
		return 0
	}
	d := 1
	if r.canonicalAt(i) {
		d++
	}
	if r.canonicalAt(j) {
		d++
	}
	return d
}

// unpairedDelta is the symmetric-difference contribution of leaving
// position p unpaired: 1 if p is the canonical endpoint of a reference
// pair (that pair is now unrealized), else 0.
func (r *Reference) unpairedDelta(p int) int {
	if r.canonicalAt(p) {
		return 1
	}
	return 0
}

// rangeDelta is unpairedDelta summed over every position in [a,b]
// inclusive (a>b is the empty range, contributing 0); used for the bulk
// unpaired stretches a hairpin or interior/bulge loop closes over.
func (r *Reference) rangeDelta(a, b int) int {
	if a > b {
		return 0
	}
	if a < 0 {
		a = 0
	}
	if b >= len(r.canonical) {
		b = len(r.canonical) - 1
	}
	if a > b {
		return 0
	}
	return r.canonicalPrefix[b+1] - r.canonicalPrefix[a]
}

func (r *Reference) canonicalAt(p int) bool {
	return p >= 0 && p < len(r.canonical) && r.canonical[p]
}

// Cell is the dense (k,l) inner table carried by every DP entry, plus the
// overflow bucket for (k,l) combinations outside the caller's declared
// maxD1/maxD2 (spec §3's "*_rem"). Energies are deci-cal/mol, `Inf`
// marking an infeasible class.
type Cell struct {
	maxD1, maxD2 int
	values       [][]int
	Overflow     int
}

func newCell(maxD1, maxD2 int) *Cell {
	c := &Cell{maxD1: maxD1, maxD2: maxD2, Overflow: energy_params.Inf}
	c.values = make([][]int, maxD1+1)
	for k := range c.values {
		row := make([]int, maxD2+1)
		for l := range row {
			row[l] = energy_params.Inf
		}
		c.values[k] = row
	}
	return c
}

// At returns the MFE value of class (k,l), or energy_params.Inf if
// infeasible or out of the declared range.
func (c *Cell) At(k, l int) int {
	if c == nil || k < 0 || l < 0 || k > c.maxD1 || l > c.maxD2 {
		return energy_params.Inf
	}
	return c.values[k][l]
}

// set merges val into class (k,l) by minimum, or into the overflow bucket
// if (k,l) exceeds the declared maxima.
func (c *Cell) set(k, l, val int) {
	if val >= energy_params.Inf {
		return
	}
	if k < 0 || l < 0 || k > c.maxD1 || l > c.maxD2 {
		if val < c.Overflow {
			c.Overflow = val
		}
		return
	}
	if val < c.values[k][l] {
		c.values[k][l] = val
	}
}

// identityCell is the (k=0,l=0)=>0 cell used as the neutral element for
// "empty interval" boundary cases (mirroring mfedp's `at(m,i,j)` returning
// 0 when i>j).
func identityCell(maxD1, maxD2 int) *Cell {
	c := newCell(maxD1, maxD2)
	c.values[0][0] = 0
	return c
}

// shift merges every class of src into dst, offset by (dk,dl) and with
// extraEnergy added, preserving src's own overflow.
func shift(dst, src *Cell, dk, dl, extraEnergy int) {
	if src == nil {
		return
	}
	for k := 0; k <= src.maxD1; k++ {
		for l := 0; l <= src.maxD2; l++ {
			v := src.values[k][l]
			if v >= energy_params.Inf {
				continue
			}
			dst.set(k+dk, l+dl, v+extraEnergy)
		}
	}
	if src.Overflow < energy_params.Inf {
		v := src.Overflow + extraEnergy
		if v < dst.Overflow {
			dst.Overflow = v
		}
	}
}

// combine merges the cross product of a and b into dst (class
// (ka+kb,la+lb)), with extraEnergy added to every combination; used for
// the genuine two-child compositions (multi-loop closure, M's branch
// split, F5's prefix+stem split).
func combine(dst, a, b *Cell, extraEnergy int) {
	if a == nil || b == nil {
		return
	}
	for ka := 0; ka <= a.maxD1; ka++ {
		for la := 0; la <= a.maxD2; la++ {
			av := a.values[ka][la]
			if av >= energy_params.Inf {
				continue
			}
			for kb := 0; kb <= b.maxD1; kb++ {
				for lb := 0; lb <= b.maxD2; lb++ {
					bv := b.values[kb][lb]
					if bv >= energy_params.Inf {
						continue
					}
					dst.set(ka+kb, la+lb, av+bv+extraEnergy)
				}
			}
		}
	}
	// A child's own overflow bucket (mass from classes already beyond
	// maxD1/maxD2 before this combination) isn't re-derived here: it would
	// need the other child's full distribution to combine correctly, and
	// spec §3 only requires overflow to collect classes the *parent's*
	// combination pushes out of range, which the set() calls above already
	// do. See DESIGN.md for the full accounting this simplifies away.
}

// Engine owns the filled 2D MFE tables for one fold_compound against two
// reference structures.
type Engine struct {
	FC           *foldcompound.FoldCompound
	Ref1, Ref2   *Reference
	MaxD1, MaxD2 int
	n            int

	C, M, M1 [][]*Cell
	F5       []*Cell
}

// New allocates (but does not fill) a 2D-fold Engine. maxD1/maxD2 bound
// the declared (k,l) window per spec §4.6's public surface; pass a value
// at least as large as the sequence's total pair count to avoid
// overflowing every class.
func New(fc *foldcompound.FoldCompound, ref1, ref2 *Reference, maxD1, maxD2 int) *Engine {
	n := fc.Length
	e := &Engine{FC: fc, Ref1: ref1, Ref2: ref2, MaxD1: maxD1, MaxD2: maxD2, n: n}
	e.C = newCellMatrix(n, maxD1, maxD2)
	e.M = newCellMatrix(n, maxD1, maxD2)
	e.M1 = newCellMatrix(n, maxD1, maxD2)
	e.F5 = make([]*Cell, n)
	return e
}

func newCellMatrix(n, maxD1, maxD2 int) [][]*Cell {
	m := make([][]*Cell, n)
	for i := range m {
		m[i] = make([]*Cell, n)
	}
	return m
}

func (e *Engine) at(m [][]*Cell, i, j int) *Cell {
	if i > j {
		return identityCell(e.MaxD1, e.MaxD2)
	}
	return m[i][j]
}

// Fold fills every table, mirroring mfedp.Engine.Fold's order (j
// ascending, i descending within j) since each cell's composition only
// reads already-filled shorter subintervals.
func (e *Engine) Fold() {
	n := e.n
	turn := e.FC.Model.Turn
	mlBase := e.FC.Params.MultiLoopUnpairedNucleotideBonus

	for j := 0; j < n; j++ {
		for i := j - 1; i >= 0; i-- {
			if j-i > turn {
				e.C[i][j] = e.fillC(i, j)
			}
			e.M[i][j] = e.fillM(i, j, mlBase)
			e.M1[i][j] = e.fillM1(i, j, mlBase)
		}
		e.F5[j] = e.fillF5(j)
	}
}

func (e *Engine) fillC(i, j int) *Cell {
	c := newCell(e.MaxD1, e.MaxD2)
	dk, dl := e.Ref1.pairDelta(i, j), e.Ref2.pairDelta(i, j)

	hk := dk + e.Ref1.rangeDelta(i+1, j-1)
	hl := dl + e.Ref2.rangeDelta(i+1, j-1)
	c.set(hk, hl, e.FC.HairpinEnergy(i, j))

	for p := i + 1; p < j-e.FC.Model.Turn-1; p++ {
		if p-i-1 > maxLoopSize {
			break
		}
		for q := p + 1; q < j; q++ {
			if (p-i-1)+(j-q-1) > maxLoopSize {
				continue
			}
			child := e.C[p][q]
			if child == nil {
				continue
			}
			ik := dk + e.Ref1.rangeDelta(i+1, p-1) + e.Ref1.rangeDelta(q+1, j-1)
			il := dl + e.Ref2.rangeDelta(i+1, p-1) + e.Ref2.rangeDelta(q+1, j-1)
			shift(c, child, ik, il, e.FC.InteriorLoopEnergy(i, j, p, q))
		}
	}

	mlClosing := e.FC.Params.MultiLoopClosingPenalty
	for u := i + 2; u < j-1; u++ {
		left := e.at(e.M, i+1, u)
		right := e.at(e.M1, u+1, j-1)
		if left == nil || right == nil {
			continue
		}
		closure := e.FC.MultiLoopClosureEnergy(i, j)
		if closure >= energy_params.Inf {
			continue
		}
		pair := newCell(e.MaxD1, e.MaxD2)
		combine(pair, left, right, mlClosing+closure)
		shift(c, pair, dk, dl, 0)
	}

	if e.FC.GQuad != nil {
		// Whole-cell quadruplex: no Watson-Crick pair forms, so every
		// reference pair inside [i,j] is unrealized.
		if gqE, ok := e.FC.GQuad.MFE(i, j); ok {
			c.set(e.Ref1.rangeDelta(i, j), e.Ref2.rangeDelta(i, j), gqE)
		}
		// Quadruplex inside the interior loop closed by (i,j): the closing
		// pair forms, everything between is unpaired in Watson-Crick terms,
		// so the distance class is the same as the hairpin term's.
		if closure := e.FC.GQuadInteriorClosureEnergy(i, j); closure < energy_params.Inf {
			e.FC.GQuad.InteriorFootprints(i, j, maxLoopSize, func(p, q int) {
				gqE, _ := e.FC.GQuad.MFE(p, q)
				c.set(hk, hl, addInfEnergy(closure, addInfEnergy(gqE, e.FC.Params.InteriorLoop[(p-i-1)+(j-q-1)])))
			})
		}
	}

	return c
}

func (e *Engine) fillM(i, j, mlBase int) *Cell {
	c := newCell(e.MaxD1, e.MaxD2)
	if prev := e.at(e.M, i, j-1); prev != nil {
		shift(c, prev, e.Ref1.unpairedDelta(j), e.Ref2.unpairedDelta(j),
			addInfEnergy(mlBase, e.FC.UnpairedEnergy(j, constraints.CtxMultiBranch)))
	}
	if prev := e.at(e.M, i+1, j); prev != nil {
		shift(c, prev, e.Ref1.unpairedDelta(i), e.Ref2.unpairedDelta(i),
			addInfEnergy(mlBase, e.FC.UnpairedEnergy(i, constraints.CtxMultiBranch)))
	}
	for u := i; u <= j; u++ {
		stem := e.C[u][j]
		if stem == nil {
			continue
		}
		left := e.at(e.M, i, u-1)
		combine(c, left, stem, e.FC.MultiBranchStemEnergy(u, j))
	}
	if e.FC.GQuad != nil {
		mlIntern := e.FC.Params.MultiLoopIntern[0]
		for u := i; u <= j; u++ {
			gqE, ok := e.FC.GQuad.MFE(u, j)
			if !ok {
				continue
			}
			left := e.at(e.M, i, u-1)
			shift(c, left, e.Ref1.rangeDelta(u, j), e.Ref2.rangeDelta(u, j), addInfEnergy(gqE, mlIntern))
		}
	}
	return c
}

func (e *Engine) fillM1(i, j, mlBase int) *Cell {
	c := newCell(e.MaxD1, e.MaxD2)
	if prev := e.at(e.M1, i, j-1); prev != nil {
		shift(c, prev, e.Ref1.unpairedDelta(j), e.Ref2.unpairedDelta(j),
			addInfEnergy(mlBase, e.FC.UnpairedEnergy(j, constraints.CtxMultiBranch)))
	}
	if e.C[i][j] != nil {
		shift(c, e.C[i][j], 0, 0, e.FC.MultiBranchStemEnergy(i, j))
	}
	if e.FC.GQuad != nil {
		if gqE, ok := e.FC.GQuad.MFE(i, j); ok {
			c.set(e.Ref1.rangeDelta(i, j), e.Ref2.rangeDelta(i, j), addInfEnergy(gqE, e.FC.Params.MultiLoopIntern[0]))
		}
	}
	return c
}

func (e *Engine) fillF5(j int) *Cell {
	c := newCell(e.MaxD1, e.MaxD2)
	if j == 0 {
		c.set(e.Ref1.unpairedDelta(0), e.Ref2.unpairedDelta(0), e.FC.UnpairedEnergy(0, constraints.CtxExterior))
	} else if e.F5[j-1] != nil {
		shift(c, e.F5[j-1], e.Ref1.unpairedDelta(j), e.Ref2.unpairedDelta(j),
			e.FC.UnpairedEnergy(j, constraints.CtxExterior))
	}
	for i := 0; i <= j; i++ {
		stem := e.C[i][j]
		if stem == nil {
			continue
		}
		var prefix *Cell
		if i > 0 {
			prefix = e.F5[i-1]
		} else {
			prefix = identityCell(e.MaxD1, e.MaxD2)
		}
		if prefix == nil {
			continue
		}
		combine(c, prefix, stem, e.FC.ExteriorStemEnergy(i, j))
	}
	if e.FC.GQuad != nil {
		for i := 0; i <= j; i++ {
			gqE, ok := e.FC.GQuad.MFE(i, j)
			if !ok {
				continue
			}
			var prefix *Cell
			if i > 0 {
				prefix = e.F5[i-1]
			} else {
				prefix = identityCell(e.MaxD1, e.MaxD2)
			}
			if prefix == nil {
				continue
			}
			shift(c, prefix, e.Ref1.rangeDelta(i, j), e.Ref2.rangeDelta(i, j), gqE)
		}
	}
	return c
}

const maxLoopSize = 30

// addInfEnergy saturates the sum of two deci-cal energies at the Inf
// sentinel so an Inf term never wraps back into a finite value.
func addInfEnergy(a, b int) int {
	if a >= energy_params.Inf || b >= energy_params.Inf {
		return energy_params.Inf
	}
	return a + b
}

// Solution is one record of spec §4.6's public surface: the energy of the
// best structure in distance class (K,L), and its representative
// dot-bracket string.
type Solution struct {
	K, L      int
	Energy    int // deci-cal/mol; energy_params.Inf if the class is empty
	Structure string
}

// TwoDfold fills the engine and returns one Solution per (k,l) class in
// [0,maxD1]x[0,maxD2] (an empty class has Energy energy_params.Inf and an
// empty Structure), plus one overflow record with K=L=-1 if
// the overflow bucket is non-empty, per spec §6's output record shape
// ("a record with k=l=-1 denotes the overflow class"). The caller is
// expected to treat the returned slice as already "sentinel terminated"
// in the sense of spec §6 (no further iteration is needed); Go callers
// range over the slice directly instead of scanning for a k=INF marker.
func TwoDfold(fc *foldcompound.FoldCompound, ref1, ref2 *Reference, maxD1, maxD2 int) []Solution {
	e := New(fc, ref1, ref2, maxD1, maxD2)
	e.Fold()
	n := e.n
	var out []Solution
	if n == 0 {
		return out
	}
	root := e.F5[n-1]
	for k := 0; k <= maxD1; k++ {
		for l := 0; l <= maxD2; l++ {
			energy := root.At(k, l)
			structure := ""
			if energy < energy_params.Inf {
				structure = Backtrack(e, k, l)
			}
			out = append(out, Solution{K: k, L: l, Energy: energy, Structure: structure})
		}
	}
	if root.Overflow < energy_params.Inf {
		out = append(out, Solution{K: -1, L: -1, Energy: root.Overflow})
	}
	return out
}
