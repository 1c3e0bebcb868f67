/*
Package foldcompound defines the owning container every DP package builds
on: the encoded sequence(s), the parameter snapshot, the constraint layer,
and the G-quadruplex engine. The DP tables themselves are held by the
engines of the DP packages, not by the compound.

Per spec §9's redesign note, single-sequence and alignment folds are one
discriminated type rather than two incompatible struct hierarchies or a
function-pointer-dispatched interface: `FoldCompound.Variant` tags which
set of fields is populated, and callers switch on it instead of branching
on a type assertion.
*/
package foldcompound

import (
	"fmt"
	"math"

	"github.com/rnastruct/rnafold/constraints"
	"github.com/rnastruct/rnafold/energy_params"
	"github.com/rnastruct/rnafold/gquad"
	"github.com/rnastruct/rnafold/loopenergy"
	"github.com/rnastruct/rnafold/rnaseq"
)

// Variant discriminates a single-sequence fold from an alignment fold.
type Variant int

const (
	Single Variant = iota
	Alignment
)

// Options configures a FoldCompound at construction, per spec §6's
// "Configuration options".
type Options struct {
	EnergyParamsSet energy_params.EnergyParamsSet
	Model           constraints.ModelDetails
}

// DefaultOptions returns Turner2004 parameters with default model details.
func DefaultOptions() Options {
	return Options{
		EnergyParamsSet: energy_params.Turner2004,
		Model:           constraints.DefaultModelDetails(),
	}
}

// FoldCompound is the single owning container a fold is built around. It
// exclusively owns the encoded sequence(s), the parameter snapshot, and the
// constraint arrays (the DP matrices live in each DP package's engine);
// per spec §5's ownership rules, installed constraint callbacks are
// borrowed references the compound does not own.
type FoldCompound struct {
	Variant Variant
	Length  int

	// Single-variant fields. Populated iff Variant == Single.
	Sequence *rnaseq.Sequence

	// Alignment-variant fields. Populated iff Variant == Alignment.
	Alignment []*rnaseq.Sequence
	// A2S[s][i] is the ungapped column index in sequence s for alignment
	// column i, per spec §3.
	A2S [][]int

	Params *energy_params.EnergyParams
	Model  constraints.ModelDetails
	Hard   *constraints.HardConstraints
	Soft   *constraints.SoftConstraints
	Kernel loopenergy.Kernels
	GQuad  *gquad.Engine

	// ReferenceOne, ReferenceTwo hold the two 2D-fold reference structures
	// when this compound was built for a distance-class fold; nil otherwise.
	ReferenceOne, ReferenceTwo *ReferencePairTable
}

// ReferencePairTable is a pair table (pairTable[i] = j if i pairs with j,
// else -1) for a reference secondary structure, installed by
// SetReferenceStructures. The twodfold package builds its own references
// (twodfold.NewReference) and does not read these tables.
type ReferencePairTable struct {
	PairTable []int
}

// kT returns RT in cal/mol at the compound's configured temperature; KT
// converts it to the kcal/mol value Boltzmann-weight computations use.
func (fc *FoldCompound) kT() float64 {
	const gasConstant = 1.98717 // cal/(mol*K)
	kelvin := fc.Model.Temperature + energy_params.ZeroCelsiusInKelvin
	return gasConstant * kelvin // cal/mol
}

// KT returns RT in kcal/mol, matching the convention Boltzmann-weight
// consumers (pf, probability, gquad) use at the package boundary.
func (fc *FoldCompound) KT() float64 {
	return fc.kT() / 1000.0
}

// New builds a single-sequence FoldCompound.
func New(sequence string, opts Options) (*FoldCompound, error) {
	seq, err := rnaseq.New(sequence)
	if err != nil {
		return nil, fmt.Errorf("foldcompound: %w", err)
	}
	fc := &FoldCompound{
		Variant:  Single,
		Length:   seq.Len(),
		Sequence: seq,
		Params:   energy_params.NewEnergyParams(opts.EnergyParamsSet, opts.Model.Temperature),
		Model:    opts.Model,
	}
	fc.Hard = constraints.NewHardConstraints(fc.Length)
	fc.Soft = constraints.NewSoftConstraints(fc.Length)
	fc.Kernel = loopenergy.New(fc.Params, &fc.Model)
	if opts.Model.GQuad {
		fc.GQuad = gquad.NewEngine(seq.Raw, fc.KT())
	}
	return fc, nil
}

// NewAlignment builds an alignment FoldCompound from a set of equal-length,
// possibly gapped sequences. Per spec §7, unequal column counts are an
// input violation that fails the constructor.
func NewAlignment(sequences []string, opts Options) (*FoldCompound, error) {
	if len(sequences) == 0 {
		return nil, fmt.Errorf("foldcompound: alignment must have at least one sequence")
	}
	length := len(sequences[0])
	encoded := make([]*rnaseq.Sequence, len(sequences))
	a2s := make([][]int, len(sequences))
	for s, raw := range sequences {
		if len(raw) != length {
			return nil, fmt.Errorf("foldcompound: alignment column mismatch: sequence %d has length %d, want %d", s, len(raw), length)
		}
		ungapped := make([]byte, 0, length)
		cols := make([]int, length)
		for i := 0; i < length; i++ {
			if raw[i] == '-' || raw[i] == '.' {
				cols[i] = len(ungapped) - 1
				continue
			}
			ungapped = append(ungapped, raw[i])
			cols[i] = len(ungapped) - 1
		}
		seq, err := rnaseq.New(string(ungapped))
		if err != nil {
			return nil, fmt.Errorf("foldcompound: sequence %d: %w", s, err)
		}
		encoded[s] = seq
		a2s[s] = cols
	}

	fc := &FoldCompound{
		Variant:   Alignment,
		Length:    length,
		Alignment: encoded,
		A2S:       a2s,
		Params:    energy_params.NewEnergyParams(opts.EnergyParamsSet, opts.Model.Temperature),
		Model:     opts.Model,
	}
	fc.Hard = constraints.NewHardConstraints(length)
	fc.Soft = constraints.NewSoftConstraints(length)
	fc.Kernel = loopenergy.New(fc.Params, &fc.Model)
	return fc, nil
}

// SetReferenceStructures installs two dot-bracket reference structures for
// a 2D distance-class fold, per spec §6's "Reference structures for 2D".
// Every pair in either reference must be allowed by the sequence's pairing
// rules; violating that is an input violation per spec §7.
func (fc *FoldCompound) SetReferenceStructures(pairTable1, pairTable2 []int) error {
	if len(pairTable1) != fc.Length+1 || len(pairTable2) != fc.Length+1 {
		return fmt.Errorf("foldcompound: reference pair tables must be length %d (1-based, index 0 unused)", fc.Length+1)
	}
	if fc.Variant == Single {
		for i := 1; i <= fc.Length; i++ {
			for _, pt := range [][]int{pairTable1, pairTable2} {
				if j := pt[i]; j > i && !fc.Sequence.CanPair(i-1, j-1, fc.Model.NoGU) {
					return fmt.Errorf("foldcompound: reference pair (%d,%d) is not allowed by the sequence's pairing rules", i, j)
				}
			}
		}
	}
	fc.ReferenceOne = &ReferencePairTable{PairTable: pairTable1}
	fc.ReferenceTwo = &ReferencePairTable{PairTable: pairTable2}
	return nil
}

// CanPair reports whether positions i,j (0-based) are allowed to pair under
// this compound's model. For an alignment compound it requires every
// sequence to permit the pair (with oldAliEn, one sequence permitting it is
// enough).
func (fc *FoldCompound) CanPair(i, j int) bool {
	switch fc.Variant {
	case Single:
		return fc.Sequence.CanPair(i, j, fc.Model.NoGU)
	default:
		allowed := 0
		for _, seq := range fc.Alignment {
			if seq.CanPair(i, j, fc.Model.NoGU) {
				allowed++
			}
		}
		if fc.Model.OldAliEn {
			return allowed > 0
		}
		return allowed == len(fc.Alignment)
	}
}

// The energy dispatch below is the single seam every DP engine reads
// through: it routes a loop-energy request to the single-sequence kernel
// (Single variant) or sums it across the alignment (Alignment variant,
// honoring `oldAliEn`), gates each term on the hard-constraint context
// mask (spec §4.5: every recurrence term multiplies by the admissibility
// of its context), and adds the soft-constraint pseudo-energies the
// probing layer installs. With the default all-permissive constraints
// every gate passes and every soft term is zero.

// HairpinEnergy is the hairpin closure energy of (i,j), including the
// pair's soft pseudo-energy and the unpaired pseudo-energies of the
// enclosed run.
func (fc *FoldCompound) HairpinEnergy(i, j int) int {
	if !fc.Hard.Allowed(i+1, j+1, constraints.CtxHairpinClosing) ||
		!fc.unpairedRangeAllowed(i+1, j-1, constraints.CtxHairpinClosing) {
		return energy_params.Inf
	}
	var base int
	switch fc.Variant {
	case Single:
		base = fc.Kernel.Hairpin(fc.Sequence, i, j)
	default:
		base = fc.sumOverAlignment(func(seq *rnaseq.Sequence, ii, jj int) int {
			return fc.Kernel.Hairpin(seq, ii, jj)
		}, i, j)
	}
	if base >= energy_params.Inf {
		return energy_params.Inf
	}
	return base + fc.softPairEnergy(i, j) + fc.softUnpairedRange(i+1, j-1)
}

// InteriorLoopEnergy is the interior/bulge/stack closure energy of outer
// pair (i,j) around inner pair (p,q), gated on both pairs' contexts and
// the installed veto callback, plus the outer pair's soft pseudo-energy,
// the flanking unpaired runs' pseudo-energies, and the per-stack
// pseudo-energy when the loop is a pure stack.
func (fc *FoldCompound) InteriorLoopEnergy(i, j, p, q int) int {
	if !fc.Hard.Allowed(i+1, j+1, constraints.CtxInteriorClosing) ||
		!fc.Hard.Allowed(p+1, q+1, constraints.CtxInteriorEnclosed) ||
		fc.Hard.Veto(i+1, j+1, p+1, q+1, constraints.CtxInteriorClosing) ||
		!fc.unpairedRangeAllowed(i+1, p-1, constraints.CtxInteriorEnclosed) ||
		!fc.unpairedRangeAllowed(q+1, j-1, constraints.CtxInteriorEnclosed) {
		return energy_params.Inf
	}
	var base int
	switch fc.Variant {
	case Single:
		base = fc.Kernel.InteriorLoop(fc.Sequence, i, j, p, q)
	default:
		for s, seq := range fc.Alignment {
			ii, jj, pp, qq := fc.A2S[s][i], fc.A2S[s][j], fc.A2S[s][p], fc.A2S[s][q]
			if ii < 0 || jj < 0 || pp < 0 || qq < 0 {
				continue
			}
			base += fc.Kernel.InteriorLoop(seq, ii, jj, pp, qq)
		}
	}
	if base >= energy_params.Inf {
		return energy_params.Inf
	}
	extra := fc.softPairEnergy(i, j) + fc.softUnpairedRange(i+1, p-1) + fc.softUnpairedRange(q+1, j-1)
	if p == i+1 && q == j-1 {
		extra += deciCalFromKcal(fc.Soft.StackEnergy(i+1, j+1))
	}
	return base + extra
}

// ExteriorStemEnergy is the exterior-loop contribution of a stem closed by
// (i,j), gated on the exterior context.
func (fc *FoldCompound) ExteriorStemEnergy(i, j int) int {
	if !fc.Hard.Allowed(i+1, j+1, constraints.CtxExterior) {
		return energy_params.Inf
	}
	switch fc.Variant {
	case Single:
		return fc.Kernel.ExteriorStem(fc.Sequence, i, j)
	default:
		return fc.sumOverAlignment(func(seq *rnaseq.Sequence, ii, jj int) int {
			return fc.Kernel.ExteriorStem(seq, ii, jj)
		}, i, j)
	}
}

// MultiBranchStemEnergy is the contribution of a stem closed by (i,j)
// acting as one branch of a multi-loop, gated on the branch context.
func (fc *FoldCompound) MultiBranchStemEnergy(i, j int) int {
	if !fc.Hard.Allowed(i+1, j+1, constraints.CtxMultiBranch) {
		return energy_params.Inf
	}
	return fc.multiBranchStemKernel(i, j)
}

// MultiLoopClosureEnergy is the contribution of the pair (i,j) *closing* a
// multi-loop: the same stem term as a branch, but gated on the
// multi-loop-closing context and charged the closing pair's soft
// pseudo-energy (a branch pair's own closure charges it instead).
func (fc *FoldCompound) MultiLoopClosureEnergy(i, j int) int {
	if !fc.Hard.Allowed(i+1, j+1, constraints.CtxMultiClosing) {
		return energy_params.Inf
	}
	base := fc.multiBranchStemKernel(i, j)
	if base >= energy_params.Inf {
		return energy_params.Inf
	}
	return base + fc.softPairEnergy(i, j)
}

// GQuadInteriorClosureEnergy is the energy of the pair (i,j) closing an
// interior loop whose enclosed element is a G-quadruplex rather than a
// Watson-Crick pair, gated on the interior-closing context and charged the
// closing pair's soft pseudo-energy. The flank loop-length term is added
// by the caller.
func (fc *FoldCompound) GQuadInteriorClosureEnergy(i, j int) int {
	if !fc.Hard.Allowed(i+1, j+1, constraints.CtxInteriorClosing) {
		return energy_params.Inf
	}
	var base int
	switch fc.Variant {
	case Single:
		base = fc.Kernel.GQuadInteriorClosure(fc.Sequence, i, j)
	default:
		base = fc.sumOverAlignment(func(seq *rnaseq.Sequence, ii, jj int) int {
			return fc.Kernel.GQuadInteriorClosure(seq, ii, jj)
		}, i, j)
	}
	if base >= energy_params.Inf {
		return energy_params.Inf
	}
	return base + fc.softPairEnergy(i, j)
}

func (fc *FoldCompound) multiBranchStemKernel(i, j int) int {
	switch fc.Variant {
	case Single:
		return fc.Kernel.MultiBranchStem(fc.Sequence, i, j)
	default:
		return fc.sumOverAlignment(func(seq *rnaseq.Sequence, ii, jj int) int {
			return fc.Kernel.MultiBranchStem(seq, ii, jj)
		}, i, j)
	}
}

// UnpairedEnergy is the cost of leaving position pos (0-based) unpaired in
// the given decomposition context: Inf when the hard constraints forbid
// it, otherwise the soft per-unpaired pseudo-energy (zero by default).
func (fc *FoldCompound) UnpairedEnergy(pos int, ctx constraints.Context) int {
	if !fc.Hard.Allowed(pos+1, pos+1, ctx) {
		return energy_params.Inf
	}
	return deciCalFromKcal(fc.Soft.UnpairedEnergy(pos + 1))
}

func (fc *FoldCompound) unpairedRangeAllowed(a, b int, ctx constraints.Context) bool {
	for p := a; p <= b; p++ {
		if !fc.Hard.Allowed(p+1, p+1, ctx) {
			return false
		}
	}
	return true
}

func (fc *FoldCompound) softPairEnergy(i, j int) int {
	return deciCalFromKcal(fc.Soft.PairEnergy(i+1, j+1))
}

func (fc *FoldCompound) softUnpairedRange(a, b int) int {
	total := 0.0
	for p := a; p <= b; p++ {
		total += fc.Soft.UnpairedEnergy(p + 1)
	}
	return deciCalFromKcal(total)
}

// deciCalFromKcal is FromKcal without the Inf special case: soft
// pseudo-energies are always finite.
func deciCalFromKcal(kcal float64) int {
	return int(kcal * 100.0)
}

func (fc *FoldCompound) sumOverAlignment(f func(seq *rnaseq.Sequence, i, j int) int, i, j int) int {
	total := 0
	for s, seq := range fc.Alignment {
		ii, jj := fc.A2S[s][i], fc.A2S[s][j]
		if ii < 0 || jj < 0 {
			continue
		}
		total += f(seq, ii, jj)
	}
	return total
}

// ToKcal converts an internal deci-cal/mol integer energy to the float64
// kcal/mol convention the public API and the traceback/probability
// packages use.
func ToKcal(deciCal int) float64 {
	if deciCal >= energy_params.Inf {
		return math.Inf(1)
	}
	return float64(deciCal) / 100.0
}

// FromKcal is the inverse of ToKcal.
func FromKcal(kcal float64) int {
	if math.IsInf(kcal, 1) {
		return energy_params.Inf
	}
	return int(kcal * 100.0)
}
