package twodfold

import (
	"github.com/rnastruct/rnafold/constraints"
	"github.com/rnastruct/rnafold/energy_params"
	"github.com/rnastruct/rnafold/gquad"
)

// pairTableBuilder accumulates the pair table (and any realized
// quadruplexes) a Backtrack call produces.
type pairTableBuilder struct {
	pairs []int
	quads []gquad.Quadruplex
}

func newPairTableBuilder(n int) *pairTableBuilder {
	b := &pairTableBuilder{pairs: make([]int, n)}
	for i := range b.pairs {
		b.pairs[i] = -1
	}
	return b
}

func (b *pairTableBuilder) pair(i, j int) {
	b.pairs[i] = j
	b.pairs[j] = i
}

func (b *pairTableBuilder) unpair(i, j int) {
	b.pairs[i] = -1
	b.pairs[j] = -1
}

func (b *pairTableBuilder) quad(q gquad.Quadruplex) {
	b.quads = append(b.quads, q)
}

func (b *pairTableBuilder) dotBracket() string {
	out := make([]byte, len(b.pairs))
	for i := range out {
		out[i] = '.'
	}
	for i, j := range b.pairs {
		if j > i {
			out[i] = '('
			out[j] = ')'
		}
	}
	for _, q := range b.quads {
		for _, t := range q.HoogsteenTriples() {
			if t[0] >= 0 && t[0] < len(out) {
				out[t[0]] = '+'
			}
		}
	}
	return string(out)
}

// Backtrack reconstructs a representative structure for distance class
// (k,l) from a filled Engine, per spec §4.6's "the backtracker restricts
// itself to the chosen (k,l) class at the root, and at each recursion step
// only considers partitions whose child (k,l) sums equal the parent's".
// Returns "" if the class is infeasible.
func Backtrack(e *Engine, k, l int) string {
	n := e.n
	if n == 0 {
		return ""
	}
	root := e.F5[n-1]
	if root == nil || root.At(k, l) >= energy_params.Inf {
		return ""
	}
	b := newPairTableBuilder(n)
	backtrackF5(e, n-1, k, l, b)
	return b.dotBracket()
}

func backtrackF5(e *Engine, j, k, l int, b *pairTableBuilder) {
	if j < 0 {
		return
	}
	target := e.F5[j].At(k, l)
	if target >= energy_params.Inf {
		return
	}
	if j == 0 {
		if k == e.Ref1.unpairedDelta(0) && l == e.Ref2.unpairedDelta(0) &&
			target == e.FC.UnpairedEnergy(0, constraints.CtxExterior) {
			return
		}
	} else {
		kp, lp := k-e.Ref1.unpairedDelta(j), l-e.Ref2.unpairedDelta(j)
		unpE := e.FC.UnpairedEnergy(j, constraints.CtxExterior)
		if kp >= 0 && lp >= 0 && addInfEnergy(e.F5[j-1].At(kp, lp), unpE) == target {
			backtrackF5(e, j-1, kp, lp, b)
			return
		}
	}

	for i := 0; i <= j; i++ {
		stem := e.C[i][j]
		if stem == nil {
			continue
		}
		for ks := 0; ks <= stem.maxD1; ks++ {
			for ls := 0; ls <= stem.maxD2; ls++ {
				stemVal := stem.values[ks][ls]
				if stemVal >= energy_params.Inf {
					continue
				}
				kp, lp := k-ks, l-ls
				if kp < 0 || lp < 0 {
					continue
				}
				var prefixVal int
				if i == 0 {
					if kp != 0 || lp != 0 {
						continue
					}
					prefixVal = 0
				} else {
					prefixVal = e.F5[i-1].At(kp, lp)
					if prefixVal >= energy_params.Inf {
						continue
					}
				}
				if prefixVal+stemVal+e.FC.ExteriorStemEnergy(i, j) == target {
					b.pair(i, j)
					if i > 0 {
						backtrackF5(e, i-1, kp, lp, b)
					}
					backtrackC(e, i, j, ks, ls, b)
					return
				}
			}
		}
	}

	if e.FC.GQuad != nil {
		for i := 0; i <= j; i++ {
			gqE, ok := e.FC.GQuad.MFE(i, j)
			if !ok {
				continue
			}
			kp, lp := k-e.Ref1.rangeDelta(i, j), l-e.Ref2.rangeDelta(i, j)
			if kp < 0 || lp < 0 {
				continue
			}
			var prefixVal int
			if i == 0 {
				if kp != 0 || lp != 0 {
					continue
				}
				prefixVal = 0
			} else {
				prefixVal = e.F5[i-1].At(kp, lp)
				if prefixVal >= energy_params.Inf {
					continue
				}
			}
			if addInfEnergy(prefixVal, gqE) == target {
				if q, ok := e.FC.GQuad.Pattern(i, j); ok {
					b.quad(q)
				}
				if i > 0 {
					backtrackF5(e, i-1, kp, lp, b)
				}
				return
			}
		}
	}
}

func backtrackC(e *Engine, i, j, k, l int, b *pairTableBuilder) {
	cell := e.C[i][j]
	if cell == nil {
		return
	}
	target := cell.values[k][l]
	dk, dl := e.Ref1.pairDelta(i, j), e.Ref2.pairDelta(i, j)

	hk := dk + e.Ref1.rangeDelta(i+1, j-1)
	hl := dl + e.Ref2.rangeDelta(i+1, j-1)
	if k == hk && l == hl && e.FC.HairpinEnergy(i, j) == target {
		return
	}

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
			ks, ls := k-ik, l-il
			if ks < 0 || ls < 0 || ks > child.maxD1 || ls > child.maxD2 {
				continue
			}
			childVal := child.values[ks][ls]
			if childVal >= energy_params.Inf {
				continue
			}
			if childVal+e.FC.InteriorLoopEnergy(i, j, p, q) == target {
				b.pair(p, q)
				backtrackC(e, p, q, ks, ls, b)
				return
			}
		}
	}

	mlClosing := e.FC.Params.MultiLoopClosingPenalty
	stemEnergy := e.FC.MultiLoopClosureEnergy(i, j)
	for u := i + 2; u < j-1; u++ {
		left := e.at(e.M, i+1, u)
		right := e.at(e.M1, u+1, j-1)
		if left == nil || right == nil {
			continue
		}
		for ka := 0; ka <= left.maxD1; ka++ {
			for la := 0; la <= left.maxD2; la++ {
				leftVal := left.values[ka][la]
				if leftVal >= energy_params.Inf {
					continue
				}
				kb, lb := k-dk-ka, l-dl-la
				if kb < 0 || lb < 0 || kb > right.maxD1 || lb > right.maxD2 {
					continue
				}
				rightVal := right.values[kb][lb]
				if rightVal >= energy_params.Inf {
					continue
				}
				if stemEnergy < energy_params.Inf && leftVal+rightVal+mlClosing+stemEnergy == target {
					backtrackM(e, i+1, u, ka, la, b)
					backtrackM1(e, u+1, j-1, kb, lb, b)
					return
				}
			}
		}
	}

	if e.FC.GQuad != nil {
		// Whole-cell quadruplex: the caller speculatively marked (i,j) as a
		// pair.
		if gqE, ok := e.FC.GQuad.MFE(i, j); ok &&
			k == e.Ref1.rangeDelta(i, j) && l == e.Ref2.rangeDelta(i, j) && gqE == target {
			b.unpair(i, j)
			if q, ok := e.FC.GQuad.Pattern(i, j); ok {
				b.quad(q)
			}
			return
		}
		if closure := e.FC.GQuadInteriorClosureEnergy(i, j); closure < energy_params.Inf && k == hk && l == hl {
			found := false
			e.FC.GQuad.InteriorFootprints(i, j, maxLoopSize, func(p, q int) {
				if found {
					return
				}
				gqE, _ := e.FC.GQuad.MFE(p, q)
				if addInfEnergy(closure, addInfEnergy(gqE, e.FC.Params.InteriorLoop[(p-i-1)+(j-q-1)])) == target {
					if pat, ok := e.FC.GQuad.Pattern(p, q); ok {
						b.quad(pat)
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

func backtrackM(e *Engine, i, j, k, l int, b *pairTableBuilder) {
	if i > j {
		return
	}
	cell := e.M[i][j]
	if cell == nil {
		return
	}
	target := cell.values[k][l]
	mlBase := e.FC.Params.MultiLoopUnpairedNucleotideBonus

	if prev := e.at(e.M, i, j-1); prev != nil {
		kp, lp := k-e.Ref1.unpairedDelta(j), l-e.Ref2.unpairedDelta(j)
		strip := addInfEnergy(mlBase, e.FC.UnpairedEnergy(j, constraints.CtxMultiBranch))
		if kp >= 0 && lp >= 0 && addInfEnergy(prev.At(kp, lp), strip) == target {
			backtrackM(e, i, j-1, kp, lp, b)
			return
		}
	}
	if prev := e.at(e.M, i+1, j); prev != nil {
		kp, lp := k-e.Ref1.unpairedDelta(i), l-e.Ref2.unpairedDelta(i)
		strip := addInfEnergy(mlBase, e.FC.UnpairedEnergy(i, constraints.CtxMultiBranch))
		if kp >= 0 && lp >= 0 && addInfEnergy(prev.At(kp, lp), strip) == target {
			backtrackM(e, i+1, j, kp, lp, b)
			return
		}
	}

	for u := i; u <= j; u++ {
		stem := e.C[u][j]
		if stem == nil {
			continue
		}
		left := e.at(e.M, i, u-1)
		if left == nil {
			continue
		}
		for ka := 0; ka <= left.maxD1; ka++ {
			for la := 0; la <= left.maxD2; la++ {
				leftVal := left.values[ka][la]
				if leftVal >= energy_params.Inf {
					continue
				}
				kb, lb := k-ka, l-la
				if kb < 0 || lb < 0 || kb > stem.maxD1 || lb > stem.maxD2 {
					continue
				}
				stemVal := stem.values[kb][lb]
				if stemVal >= energy_params.Inf {
					continue
				}
				if leftVal+stemVal+e.FC.MultiBranchStemEnergy(u, j) == target {
					backtrackM(e, i, u-1, ka, la, b)
					b.pair(u, j)
					backtrackC(e, u, j, kb, lb, b)
					return
				}
			}
		}
	}

	if e.FC.GQuad != nil {
		mlIntern := e.FC.Params.MultiLoopIntern[0]
		for u := i; u <= j; u++ {
			gqE, ok := e.FC.GQuad.MFE(u, j)
			if !ok {
				continue
			}
			left := e.at(e.M, i, u-1)
			if left == nil {
				continue
			}
			for ka := 0; ka <= left.maxD1; ka++ {
				for la := 0; la <= left.maxD2; la++ {
					leftVal := left.values[ka][la]
					if leftVal >= energy_params.Inf {
						continue
					}
					if ka+e.Ref1.rangeDelta(u, j) != k || la+e.Ref2.rangeDelta(u, j) != l {
						continue
					}
					if addInfEnergy(leftVal, addInfEnergy(gqE, mlIntern)) == target {
						backtrackM(e, i, u-1, ka, la, b)
						if q, ok := e.FC.GQuad.Pattern(u, j); ok {
							b.quad(q)
						}
						return
					}
				}
			}
		}
	}
}

func backtrackM1(e *Engine, i, j, k, l int, b *pairTableBuilder) {
	if i > j {
		return
	}
	cell := e.M1[i][j]
	if cell == nil {
		return
	}
	target := cell.values[k][l]
	mlBase := e.FC.Params.MultiLoopUnpairedNucleotideBonus

	if prev := e.at(e.M1, i, j-1); prev != nil {
		kp, lp := k-e.Ref1.unpairedDelta(j), l-e.Ref2.unpairedDelta(j)
		strip := addInfEnergy(mlBase, e.FC.UnpairedEnergy(j, constraints.CtxMultiBranch))
		if kp >= 0 && lp >= 0 && addInfEnergy(prev.At(kp, lp), strip) == target {
			backtrackM1(e, i, j-1, kp, lp, b)
			return
		}
	}
	if e.C[i][j] != nil {
		stemVal := e.C[i][j].At(k, l)
		if stemVal < energy_params.Inf && stemVal+e.FC.MultiBranchStemEnergy(i, j) == target {
			b.pair(i, j)
			backtrackC(e, i, j, k, l, b)
			return
		}
	}
	if e.FC.GQuad != nil {
		if gqE, ok := e.FC.GQuad.MFE(i, j); ok &&
			k == e.Ref1.rangeDelta(i, j) && l == e.Ref2.rangeDelta(i, j) &&
			addInfEnergy(gqE, e.FC.Params.MultiLoopIntern[0]) == target {
			if q, ok := e.FC.GQuad.Pattern(i, j); ok {
				b.quad(q)
			}
		}
	}
}
