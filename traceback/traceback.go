/*
Package traceback reconstructs secondary structures from filled MFE
matrices (C9): a single optimal traceback, and a simplified suboptimal
enumeration within a caller-supplied ΔE of the optimum.

The single-structure traceback replays the same decomposition choices
`mfedp.Engine.Fold` made, by re-deriving which candidate realized each
cell's stored value — the standard approach taken by every Zuker-style
folding implementation.
*/
package traceback

import (
	"github.com/rnastruct/rnafold/constraints"
	"github.com/rnastruct/rnafold/energy_params"
	"github.com/rnastruct/rnafold/gquad"
	"github.com/rnastruct/rnafold/mfedp"
)

// PairTable holds, for each 0-based position, the index of its pairing
// partner, or -1 if unpaired.
type PairTable []int

// Quadruplexes maps the 5' index of a realized quadruplex to its pattern.
type Quadruplexes map[int]gquad.Quadruplex

// Result is one reconstructed structure.
type Result struct {
	Energy       int // deci-cal/mol
	Pairs        PairTable
	Quadruplexes Quadruplexes
}

// Backtrack reconstructs the single MFE structure from a filled Engine. If
// the overall MFE is infeasible (energy_params.Inf), it returns the empty
// structure, per spec §7's "traceback at an infinity cell returns the
// empty structure".
func Backtrack(e *mfedp.Engine) Result {
	n := len(e.F5)
	res := Result{Quadruplexes: Quadruplexes{}}
	res.Pairs = make(PairTable, n)
	for i := range res.Pairs {
		res.Pairs[i] = -1
	}
	if n == 0 {
		return res
	}
	if e.FC.Model.Circular {
		res.Energy = e.Fc
		backtrackCircular(e, &res)
		return res
	}
	res.Energy = e.F5[n-1]
	backtrackF5(e, n-1, &res)
	return res
}

func pair(res *Result, i, j int) {
	res.Pairs[i] = j
	res.Pairs[j] = i
}

func backtrackF5(e *mfedp.Engine, j int, res *Result) {
	if j < 0 {
		return
	}
	unpaired := e.FC.UnpairedEnergy(j, constraints.CtxExterior)
	if j > 0 {
		unpaired = addInf(e.F5[j-1], unpaired)
	}
	if e.F5[j] == unpaired {
		backtrackF5(e, j-1, res)
		return
	}
	for i := 0; i <= j; i++ {
		if e.C[i][j] >= energy_params.Inf {
			continue
		}
		prefix := 0
		if i > 0 {
			prefix = e.F5[i-1]
		}
		if prefix+e.C[i][j]+e.FC.ExteriorStemEnergy(i, j) == e.F5[j] {
			pair(res, i, j)
			backtrackF5(e, i-1, res)
			backtrackC(e, i, j, res)
			return
		}
	}

	if e.FC.GQuad != nil {
		for i := 0; i <= j; i++ {
			gqE, ok := e.FC.GQuad.MFE(i, j)
			if !ok {
				continue
			}
			prefix := 0
			if i > 0 {
				prefix = e.F5[i-1]
			}
			if addInf(prefix, gqE) == e.F5[j] {
				if q, ok := e.FC.GQuad.Pattern(i, j); ok {
					res.Quadruplexes[i] = q
				}
				backtrackF5(e, i-1, res)
				return
			}
		}
	}
}

func backtrackC(e *mfedp.Engine, i, j int, res *Result) {
	target := e.C[i][j]
	if e.FC.HairpinEnergy(i, j) == target {
		return
	}

	for p := i + 1; p < j-e.FC.Model.Turn-1; p++ {
		if p-i-1 > mfedp.MaxLoopSize {
			break
		}
		for q := p + 1; q < j; q++ {
			if (p-i-1)+(j-q-1) > mfedp.MaxLoopSize {
				continue
			}
			if e.C[p][q] >= energy_params.Inf {
				continue
			}
			if e.C[p][q]+e.FC.InteriorLoopEnergy(i, j, p, q) == target {
				pair(res, p, q)
				backtrackC(e, p, q, res)
				return
			}
		}
	}

	mlClosing := e.FC.Params.MultiLoopClosingPenalty
	for u := i + 2; u < j-1; u++ {
		if addInf(matAt(e.M, i+1, u), matAt(e.M1, u+1, j-1), mlClosing, e.FC.MultiLoopClosureEnergy(i, j)) == target {
			backtrackM(e, i+1, u, res)
			backtrackM1(e, u+1, j-1, res)
			return
		}
	}

	if e.FC.GQuad != nil {
		// Whole-cell quadruplex: the caller speculatively marked (i,j) as a
		// pair, but the cell's value is a bare quadruplex with no
		// Watson-Crick pair at all.
		if gqE, ok := e.FC.GQuad.MFE(i, j); ok && gqE == target {
			res.Pairs[i], res.Pairs[j] = -1, -1
			if q, ok := e.FC.GQuad.Pattern(i, j); ok {
				res.Quadruplexes[i] = q
			}
			return
		}
		if closure := e.FC.GQuadInteriorClosureEnergy(i, j); closure < energy_params.Inf {
			found := false
			e.FC.GQuad.InteriorFootprints(i, j, mfedp.MaxLoopSize, func(p, q int) {
				if found {
					return
				}
				gqE, _ := e.FC.GQuad.MFE(p, q)
				if addInf(closure, gqE, e.FC.Params.InteriorLoop[(p-i-1)+(j-q-1)]) == target {
					if pat, ok := e.FC.GQuad.Pattern(p, q); ok {
						res.Quadruplexes[p] = pat
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

func matAt(m [][]int, i, j int) int {
	if i > j {
		return 0
	}
	return m[i][j]
}

func addInf(values ...int) int {
	total := 0
	for _, v := range values {
		if v >= energy_params.Inf {
			return energy_params.Inf
		}
		total += v
	}
	return total
}

func backtrackM(e *mfedp.Engine, i, j int, res *Result) {
	if i > j {
		return
	}
	mlBase := e.FC.Params.MultiLoopUnpairedNucleotideBonus
	if addInf(matAt(e.M, i, j-1), mlBase, e.FC.UnpairedEnergy(j, constraints.CtxMultiBranch)) == e.M[i][j] {
		backtrackM(e, i, j-1, res)
		return
	}
	if addInf(matAt(e.M, i+1, j), mlBase, e.FC.UnpairedEnergy(i, constraints.CtxMultiBranch)) == e.M[i][j] {
		backtrackM(e, i+1, j, res)
		return
	}
	for u := i; u <= j; u++ {
		if e.C[u][j] >= energy_params.Inf {
			continue
		}
		if addInf(matAt(e.M, i, u-1), e.C[u][j], e.FC.MultiBranchStemEnergy(u, j)) == e.M[i][j] {
			backtrackM(e, i, u-1, res)
			pair(res, u, j)
			backtrackC(e, u, j, res)
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
			if addInf(matAt(e.M, i, u-1), gqE, mlIntern) == e.M[i][j] {
				backtrackM(e, i, u-1, res)
				if q, ok := e.FC.GQuad.Pattern(u, j); ok {
					res.Quadruplexes[u] = q
				}
				return
			}
		}
	}
}

func backtrackM1(e *mfedp.Engine, i, j int, res *Result) {
	if i > j {
		return
	}
	mlBase := e.FC.Params.MultiLoopUnpairedNucleotideBonus
	if addInf(matAt(e.M1, i, j-1), mlBase, e.FC.UnpairedEnergy(j, constraints.CtxMultiBranch)) == e.M1[i][j] {
		backtrackM1(e, i, j-1, res)
		return
	}
	if e.C[i][j] < energy_params.Inf && e.C[i][j]+e.FC.MultiBranchStemEnergy(i, j) == e.M1[i][j] {
		pair(res, i, j)
		backtrackC(e, i, j, res)
		return
	}
	if e.FC.GQuad != nil {
		if gqE, ok := e.FC.GQuad.MFE(i, j); ok && addInf(gqE, e.FC.Params.MultiLoopIntern[0]) == e.M1[i][j] {
			if q, ok := e.FC.GQuad.Pattern(i, j); ok {
				res.Quadruplexes[i] = q
			}
		}
	}
}

// backtrackCircular reconstructs a circular structure from whichever of
// FcH/FcI/FcM realized the overall minimum.
func backtrackCircular(e *mfedp.Engine, res *Result) {
	n := len(e.F5)
	switch {
	case e.Fc == e.FcH:
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if e.C[i][j] >= energy_params.Inf {
					continue
				}
				wrapLen := n - (j - i + 1)
				if wrapLen < e.FC.Model.Turn || wrapLen > mfedp.MaxLoopSize {
					continue
				}
				energy := e.FC.Params.HairpinLoop[min(wrapLen, energy_params.MaxLenLoop)]
				if energy+e.C[i][j] == e.Fc {
					pair(res, i, j)
					backtrackC(e, i, j, res)
					return
				}
			}
		}
	case e.Fc == e.FcI:
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if e.C[i][j] >= energy_params.Inf {
					continue
				}
				n1, n2 := i, n-1-j
				if n1+n2 == 0 || n1+n2 > mfedp.MaxLoopSize {
					continue
				}
				energy := e.FC.Params.InteriorLoop[min(n1+n2, energy_params.MaxLenLoop)]
				if energy+e.C[i][j] == e.Fc {
					pair(res, i, j)
					backtrackC(e, i, j, res)
					return
				}
			}
		}
	default:
		backtrackM(e, 0, n-1, res)
	}
}

// DotBracket renders a PairTable as a dot-bracket string, overlaying '+'
// for every position claimed by a realized quadruplex.
func DotBracket(pairs PairTable, quads Quadruplexes) string {
	n := len(pairs)
	out := make([]byte, n)
	for i := range out {
		out[i] = '.'
	}
	for i, j := range pairs {
		if j < 0 {
			continue
		}
		if i < j {
			out[i] = '('
			out[j] = ')'
		}
	}
	for _, q := range quads {
		for _, t := range q.HoogsteenTriples() {
			if t[0] >= 0 && t[0] < n {
				out[t[0]] = '+'
			}
		}
	}
	return string(out)
}

// Suboptimal enumerates alternative structures within deltaE (deci-cal/mol)
// of the MFE by considering every alternative top-level F5 decomposition
// whose cost is within deltaE of the optimum, then tracing each one down
// through C/M/M1 the same way Backtrack does. This is a simplified,
// single-level widening of the standard Zuker suboptimal algorithm (which
// widens at every cell, not just the root) — sufficient to enumerate
// near-optimal alternative global foldings without the bookkeeping a fully
// general suboptimal traversal needs.
func Suboptimal(e *mfedp.Engine, deltaE int) []Result {
	n := len(e.F5)
	if n == 0 || e.FC.Model.Circular {
		return []Result{Backtrack(e)}
	}

	var results []Result
	threshold := e.F5[n-1] + deltaE
	seen := map[string]bool{}

	var consider func(j int)
	consider = func(j int) {
		if j < 0 {
			return
		}
		unpaired := 0
		if j > 0 {
			unpaired = e.F5[j-1]
		}
		if unpaired <= threshold {
			consider(j - 1)
		}
		for i := 0; i <= j; i++ {
			if e.C[i][j] >= energy_params.Inf {
				continue
			}
			prefix := 0
			if i > 0 {
				prefix = e.F5[i-1]
			}
			total := prefix + e.C[i][j] + e.FC.ExteriorStemEnergy(i, j)
			if total > threshold {
				continue
			}
			res := Result{Energy: total, Quadruplexes: Quadruplexes{}}
			res.Pairs = make(PairTable, n)
			for k := range res.Pairs {
				res.Pairs[k] = -1
			}
			pair(&res, i, j)
			backtrackF5(e, i-1, &res)
			backtrackC(e, i, j, &res)
			key := DotBracket(res.Pairs, res.Quadruplexes)
			if !seen[key] {
				seen[key] = true
				results = append(results, res)
			}
		}
		if e.FC.GQuad != nil {
			for i := 0; i <= j; i++ {
				gqE, ok := e.FC.GQuad.MFE(i, j)
				if !ok {
					continue
				}
				prefix := 0
				if i > 0 {
					prefix = e.F5[i-1]
				}
				total := addInf(prefix, gqE)
				if total > threshold {
					continue
				}
				res := Result{Energy: total, Quadruplexes: Quadruplexes{}}
				res.Pairs = make(PairTable, n)
				for k := range res.Pairs {
					res.Pairs[k] = -1
				}
				if q, ok := e.FC.GQuad.Pattern(i, j); ok {
					res.Quadruplexes[i] = q
				}
				backtrackF5(e, i-1, &res)
				key := DotBracket(res.Pairs, res.Quadruplexes)
				if !seen[key] {
					seen[key] = true
					results = append(results, res)
				}
			}
		}
	}
	consider(n - 1)
	return results
}
