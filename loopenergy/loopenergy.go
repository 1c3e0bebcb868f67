/*
Package loopenergy implements the closed-form energy kernels for every loop
class the folding engine decomposes a structure into: hairpin, interior
(stack/bulge/1x1/2x1/2x2/1xn/generic), exterior stems, and multi-branch
stems, under a configurable dangling-end model.

Every kernel returns an integer in the deci-cal/mol convention
`energy_params.EnergyParams` itself uses; `foldcompound` converts to
float64 kcal/mol at the package boundary the way `fold/fold.go` did in the
teacher, so the DP packages (mfedp, pf) can stay in integer arithmetic,
which is both faster and avoids floating-point drift accumulating across a
deep recursion.

This package's classification of interior loops follows the same decision
order `mfe/mfe.go`'s `evaluateStackBulgeInteriorLoop` used in the teacher,
generalized from its hard-coded Turner99 constant set to read every value
out of an injected `*energy_params.EnergyParams` snapshot.
*/
package loopenergy

import (
	"math"

	"github.com/rnastruct/rnafold/constraints"
	"github.com/rnastruct/rnafold/energy_params"
	"github.com/rnastruct/rnafold/rnaseq"
)

// Kernels bundles the energy parameter table and model configuration every
// kernel function needs. A Kernels value is cheap to copy and holds no
// mutable state of its own; all sequence-specific state lives in the
// `*rnaseq.Sequence` passed to each call.
type Kernels struct {
	Params *energy_params.EnergyParams
	Model  *constraints.ModelDetails
}

// New returns a Kernels value for the given parameter table and model
// configuration.
func New(params *energy_params.EnergyParams, model *constraints.ModelDetails) Kernels {
	return Kernels{Params: params, Model: model}
}

func isAUorGU(t energy_params.BasePairType) bool {
	return t == energy_params.AU || t == energy_params.UA || t == energy_params.GU || t == energy_params.UG
}

// baseAt returns the encoded nucleotide at position pos, or 0 (the
// "no base here" sentinel the mismatch/dangle matrices reserve row/column 0
// for) when pos falls outside the sequence.
func baseAt(seq *rnaseq.Sequence, pos int) int {
	if pos < 0 || pos >= seq.Len() {
		return 0
	}
	return seq.Encoded[pos]
}

// Hairpin returns the energy of the hairpin loop closed by (i,j), 0-based,
// with i<j and j-i-1 unpaired bases strictly between them.
func (k Kernels) Hairpin(seq *rnaseq.Sequence, i, j int) int {
	n := j - i - 1
	if n < k.Model.Turn {
		return energy_params.Inf
	}
	t := seq.PairType(i, j)
	if t == energy_params.NoPair {
		return energy_params.Inf
	}
	if k.Model.NoClosingGU && seq.IsGUPair(i, j) {
		return energy_params.Inf
	}

	energy := k.loopLengthEnergy(k.Params.HairpinLoop, n)

	loop := seq.Raw[i : j+1]
	switch n {
	case 3:
		if bonus, ok := k.Params.TriLoop[loop]; ok {
			energy += bonus
		}
		if isAUorGU(t) {
			energy += k.Params.TerminalAUPenalty
		}
	case 4:
		si, sj := baseAt(seq, i+1), baseAt(seq, j-1)
		energy += k.Params.MismatchHairpinLoop[t][si][sj]
		if bonus, ok := k.Params.TetraLoop[loop]; ok {
			energy += bonus
		}
	case 6:
		si, sj := baseAt(seq, i+1), baseAt(seq, j-1)
		energy += k.Params.MismatchHairpinLoop[t][si][sj]
		if bonus, ok := k.Params.HexaLoop[loop]; ok {
			energy += bonus
		}
	default:
		si, sj := baseAt(seq, i+1), baseAt(seq, j-1)
		energy += k.Params.MismatchHairpinLoop[t][si][sj]
	}

	return energy
}

// InteriorLoop returns the energy of the loop closed by the outer pair
// (i,j) and the inner pair (p,q), with i<p<q<j, per spec §4.1's
// classification (ties broken in the order stack, bulge, tabulated
// 1x1/2x1/2x2, min=1&max>=3 generic, (2,3)/(3,2), generic).
func (k Kernels) InteriorLoop(seq *rnaseq.Sequence, i, j, p, q int) int {
	n1 := p - i - 1
	n2 := j - q - 1
	if n1 < 0 || n2 < 0 {
		return energy_params.Inf
	}

	t1 := seq.PairType(i, j)
	t2 := seq.PairType(q, p) // inner pair, read in the reversed orientation the tables index by
	if t1 == energy_params.NoPair || t2 == energy_params.NoPair {
		return energy_params.Inf
	}
	if k.Model.NoClosingGU && (seq.IsGUPair(i, j) || seq.IsGUPair(p, q)) {
		return energy_params.Inf
	}

	switch {
	case n1 == 0 && n2 == 0:
		return k.Params.StackingPair[t1][t2] + k.saltCorrection(0)

	case min(n1, n2) == 0 && max(n1, n2) > 0:
		m := max(n1, n2)
		e := k.loopLengthEnergy(k.Params.Bulge, m)
		if m == 1 {
			e += k.Params.StackingPair[t1][t2]
		} else {
			if isAUorGU(t1) {
				e += k.Params.TerminalAUPenalty
			}
			if isAUorGU(t2) {
				e += k.Params.TerminalAUPenalty
			}
		}
		return e + k.saltCorrection(m)

	case n1 == 1 && n2 == 1:
		return k.Params.Interior1x1Loop[t1][t2][baseAt(seq, i+1)][baseAt(seq, j-1)]

	case n1 == 2 && n2 == 1:
		return k.Params.Interior2x1Loop[t1][t2][baseAt(seq, i+1)][baseAt(seq, i+2)][baseAt(seq, j-1)]

	case n1 == 1 && n2 == 2:
		// mirrored: the table is always accessed with the larger side first,
		// 5' to 3' starting from the pair that has the larger side attached.
		return k.Params.Interior2x1Loop[t2][t1][baseAt(seq, j-1)][baseAt(seq, j-2)][baseAt(seq, i+1)]

	case n1 == 2 && n2 == 2:
		return k.Params.Interior2x2Loop[t1][t2][baseAt(seq, i+1)][baseAt(seq, i+2)][baseAt(seq, j-2)][baseAt(seq, j-1)]

	case (n1 == 2 && n2 == 3) || (n1 == 3 && n2 == 2):
		e := k.loopLengthEnergy(k.Params.InteriorLoop, 5)
		e += k.ninioPenalty(n1, n2)
		e += k.Params.Mismatch2x3InteriorLoop[t1][baseAt(seq, i+1)][baseAt(seq, j-1)]
		e += k.Params.Mismatch2x3InteriorLoop[t2][baseAt(seq, q+1)][baseAt(seq, p-1)]
		return e + k.saltCorrection(n1 + n2)

	case min(n1, n2) == 1 && max(n1, n2) >= 3:
		e := k.loopLengthEnergy(k.Params.InteriorLoop, n1+n2)
		e += k.ninioPenalty(n1, n2)
		e += k.Params.Mismatch1xnInteriorLoop[t1][baseAt(seq, i+1)][baseAt(seq, j-1)]
		e += k.Params.Mismatch1xnInteriorLoop[t2][baseAt(seq, q+1)][baseAt(seq, p-1)]
		return e + k.saltCorrection(n1 + n2)

	default:
		e := k.loopLengthEnergy(k.Params.InteriorLoop, n1+n2)
		e += k.ninioPenalty(n1, n2)
		e += k.Params.MismatchInteriorLoop[t1][baseAt(seq, i+1)][baseAt(seq, j-1)]
		e += k.Params.MismatchInteriorLoop[t2][baseAt(seq, q+1)][baseAt(seq, p-1)]
		return e + k.saltCorrection(n1 + n2)
	}
}

func (k Kernels) ninioPenalty(n1, n2 int) int {
	diff := n1 - n2
	if diff < 0 {
		diff = -diff
	}
	penalty := diff * k.Params.Ninio
	if penalty > k.Params.MaxNinio {
		return k.Params.MaxNinio
	}
	return penalty
}

// loopLengthEnergy looks up the tabulated energy for a loop of length n,
// extrapolating logarithmically past MaxLenLoop the way every loop-length
// table in the source does.
func (k Kernels) loopLengthEnergy(table []int, n int) int {
	if n <= energy_params.MaxLenLoop {
		return table[n]
	}
	extrapolated := float64(table[energy_params.MaxLenLoop]) +
		k.Params.LogExtrapolationConstant*math.Log(float64(n)/float64(energy_params.MaxLenLoop))
	return int(extrapolated)
}

// saltCorrection is left as a documented no-op: spec §9's open question (b)
// explicitly says the closed-form salt correction beyond MAXLOOP+1 depends
// on an auxiliary physical model this specification doesn't give, and that
// re-implementers must consult the salt-correction reference rather than
// invent one. At the default salt concentration this term is zero anyway,
// so every test scenario in spec §8 is unaffected.
func (k Kernels) saltCorrection(backbones int) int {
	if k.Model.Salt == 0 || k.Model.Salt == 1.021 {
		return 0
	}
	return 0
}

// GQuadInteriorClosure returns the energy of the pair (i,j) closing an
// interior loop whose enclosed element is a G-quadruplex instead of a
// Watson-Crick pair: the interior mismatch at the closing pair under dangle
// model 2, plus the terminal-AU penalty. The loop-length term is added by
// the caller, which knows the flank lengths.
func (k Kernels) GQuadInteriorClosure(seq *rnaseq.Sequence, i, j int) int {
	t := seq.PairType(i, j)
	if t == energy_params.NoPair {
		return energy_params.Inf
	}
	if k.Model.NoClosingGU && seq.IsGUPair(i, j) {
		return energy_params.Inf
	}
	e := 0
	if k.Model.Dangles == constraints.DangleBothAlways {
		e += k.Params.MismatchInteriorLoop[t][baseAt(seq, i+1)][baseAt(seq, j-1)]
	}
	if isAUorGU(t) {
		e += k.Params.TerminalAUPenalty
	}
	return e
}

// ExteriorStem returns the energy contribution of a stem closed by (i,j) in
// the exterior loop, under the configured dangle model, including the
// terminal-AU penalty.
func (k Kernels) ExteriorStem(seq *rnaseq.Sequence, i, j int) int {
	t := seq.PairType(i, j)
	if t == energy_params.NoPair {
		return energy_params.Inf
	}
	base := 0
	if isAUorGU(t) {
		base = k.Params.TerminalAUPenalty
	}
	return base + k.dangleContribution(seq, t, i, j, k.Params.MismatchExteriorLoop, k.Params.DanglingEndsFivePrime, k.Params.DanglingEndsThreePrime)
}

// MultiBranchStem returns the energy contribution of a stem closed by (i,j)
// acting as one branch of a multi-loop, under the configured dangle model.
func (k Kernels) MultiBranchStem(seq *rnaseq.Sequence, i, j int) int {
	t := seq.PairType(i, j)
	if t == energy_params.NoPair {
		return energy_params.Inf
	}
	base := k.Params.MultiLoopIntern[0]
	if isAUorGU(t) {
		base += k.Params.TerminalAUPenalty
	}
	return base + k.dangleContribution(seq, t, i, j, k.Params.MismatchMultiLoop, k.Params.DanglingEndsFivePrime, k.Params.DanglingEndsThreePrime)
}

func (k Kernels) dangleContribution(seq *rnaseq.Sequence, t energy_params.BasePairType, i, j int, mismatch [][][]int, dangleFive, dangleThree [][]int) int {
	switch k.Model.Dangles {
	case constraints.DangleNone:
		return 0
	case constraints.DangleBothAlways:
		return mismatch[t][baseAt(seq, i-1)][baseAt(seq, j+1)]
	default: // DangleOptional / DangleBothOptional: cheapest of none/5'/3'/both
		none := 0
		five := dangleFive[t][baseAt(seq, i-1)]
		three := dangleThree[t][baseAt(seq, j+1)]
		both := five + three
		return min(none, min(five, min(three, both)))
	}
}
