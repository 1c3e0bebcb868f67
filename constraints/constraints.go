/*
Package constraints holds the model configuration and the hard/soft
constraint layer (C3) that every recursion in mfedp/pf/probability consults
before adding a term.

It replaces the teacher's (and ViennaRNA's) process-global "current model"
(`linearfold.go`'s `vrna_md_t` sketch) with a single immutable snapshot
captured once per fold, per spec §9's redesign note, and it turns
`linearfold.go`'s `vrna_hc_t`/`vrna_sc_t` struct sketches into a real,
sequence-length-sized set of arrays rather than C-style bitfields.
*/
package constraints

import "math"

// DangleModel selects how dangling ends/mismatches are scored for stems
// bordering the exterior loop or a multi-branch loop.
type DangleModel int

const (
	// DangleNone scores no dangling ends at all.
	DangleNone DangleModel = 0
	// DangleOptional takes the cheapest of no dangle, 5'-only, 3'-only, or
	// both for each stem on its own; whether a neighboring stem also uses
	// the same unpaired base is not checked.
	DangleOptional DangleModel = 1
	// DangleBothAlways always includes both the 5' and 3' dangle (as a single
	// mismatch term), regardless of whether they're also claimed by a
	// neighboring stem.
	DangleBothAlways DangleModel = 2
	// DangleBothOptional is scored exactly like DangleOptional: the cheapest
	// of no dangle, 5'-only, 3'-only, or both for each stem, with no check
	// for a dangle claimed by two neighboring stems at once.
	DangleBothOptional DangleModel = 3
)

// ModelDetails is the immutable configuration captured once per fold
// (spec §6's "Configuration options"). It is the one snapshot every
// recursion reads instead of a process-wide mutable model.
type ModelDetails struct {
	Dangles               DangleModel
	Temperature           float64 // degrees Celsius
	PFScale               float64
	Circular              bool
	GQuad                 bool
	NoGU                  bool
	NoClosingGU           bool
	OldAliEn              bool
	GQuadLayerMismatch    int
	GQuadLayerMismatchMax int
	Turn                  int     // minimum unpaired bases between pairing partners (default 3)
	Salt                  float64 // molar; 0 or 1.021 (ViennaRNA default) means "no correction"
}

// DefaultModelDetails returns the conventional folding configuration:
// dangle model 2 (both dangling ends always included, as ViennaRNA
// defaults to), 37C, circ/gquad off, Turn=3.
func DefaultModelDetails() ModelDetails {
	return ModelDetails{
		Dangles:     DangleBothAlways,
		Temperature: 37.0,
		PFScale:     -1, // sentinel: FoldCompound derives a scale from length+temperature
		Turn:        3,
		Salt:        1.021,
	}
}

// Context is a bitmask of the decomposition roles a position or pair may
// legally play, per spec §3's "Decomposition context".
type Context uint8

const (
	CtxExterior Context = 1 << iota
	CtxHairpinClosing
	CtxInteriorClosing
	CtxInteriorEnclosed
	CtxMultiClosing
	CtxMultiBranch
)

// VetoFunc is a caller-supplied hard constraint callback. It can forbid any
// decomposition of (i,j) into (k,l) under the given context; the compound
// holds only a borrowed reference to it (spec §5 ownership: "Callbacks
// installed into the constraint layer are borrowed references").
type VetoFunc func(i, j, k, l int, ctx Context) bool

// HardConstraints is the per-(i,j) admissibility mask plus the admissible-
// unpaired-run arrays from spec §4.5.
type HardConstraints struct {
	n int
	// contextMask[i][j] holds the Context bits admissible for the pair (i,j).
	// contextMask[i][i] (the diagonal) holds the bits admissible for i being
	// unpaired.
	contextMask [][]Context
	// unpairedRun[ctx][i] is the length of the maximal run of admissibly-
	// unpaired positions starting at i, in the given context. Indexed by the
	// four contexts a position can be "unpaired in": exterior, hairpin,
	// interior, multi-branch.
	unpairedRun map[Context][]int
	veto        VetoFunc
}

// NewHardConstraints builds a constraint layer where everything is allowed:
// every (i,j) may play every decomposition role, and every position may be
// unpaired in every context. Callers restrict it afterward with Forbid/
// SetVeto.
func NewHardConstraints(n int) *HardConstraints {
	hc := &HardConstraints{n: n}
	hc.contextMask = make([][]Context, n+1)
	allowAll := CtxExterior | CtxHairpinClosing | CtxInteriorClosing | CtxInteriorEnclosed | CtxMultiClosing | CtxMultiBranch
	for i := 0; i <= n; i++ {
		hc.contextMask[i] = make([]Context, n+1)
		for j := 0; j <= n; j++ {
			hc.contextMask[i][j] = allowAll
		}
	}

	hc.unpairedRun = make(map[Context][]int)
	for _, ctx := range []Context{CtxExterior, CtxHairpinClosing, CtxInteriorEnclosed, CtxMultiBranch} {
		run := make([]int, n+2)
		for i := n; i >= 1; i-- {
			if hc.contextMask[i][i]&ctx != 0 {
				run[i] = run[i+1] + 1
			}
		}
		hc.unpairedRun[ctx] = run
	}
	return hc
}

// Allowed reports whether the pair (i,j) may play the given role.
func (hc *HardConstraints) Allowed(i, j int, ctx Context) bool {
	if i < 0 || j >= len(hc.contextMask) {
		return false
	}
	return hc.contextMask[i][j]&ctx != 0
}

// Forbid clears ctx from the admissible roles of (i,j).
func (hc *HardConstraints) Forbid(i, j int, ctx Context) {
	hc.contextMask[i][j] &^= ctx
}

// SetVeto installs a caller-supplied veto callback, replacing any previous
// one.
func (hc *HardConstraints) SetVeto(f VetoFunc) {
	hc.veto = f
}

// Veto reports whether the installed callback forbids decomposing (i,j)
// into (k,l) under ctx. A nil callback never vetoes.
func (hc *HardConstraints) Veto(i, j, k, l int, ctx Context) bool {
	if hc.veto == nil {
		return false
	}
	return hc.veto(i, j, k, l, ctx)
}

// UnpairedRunLength returns the length of the maximal admissibly-unpaired
// run starting at i in the given context.
func (hc *HardConstraints) UnpairedRunLength(ctx Context, i int) int {
	run, ok := hc.unpairedRun[ctx]
	if !ok || i < 0 || i >= len(run) {
		return 0
	}
	return run[i]
}

// SoftConstraints holds additive pseudo-energies from spec §4.5: per-
// unpaired-stretch, per-pair, per-stack, and optional callbacks. The DP
// adds these unconditionally; the kernels in loopenergy don't need to know
// where they came from.
type SoftConstraints struct {
	// Unpaired[i] is the pseudo-energy (kcal/mol) added when position i is
	// unpaired.
	Unpaired []float64
	// Pair[i][j] is the pseudo-energy added when (i,j) form a pair.
	Pair map[[2]int]float64
	// Stack[i][j] is the pseudo-energy added when (i,j) stacks directly on
	// (i+1,j-1) (or any nested pair, per the installing method).
	Stack map[[2]int]float64
	// DecompositionCallback, if set, is called for every decomposition event
	// and returns an additional pseudo-energy contribution; used by methods
	// that can't be expressed as simple per-position/per-pair tables.
	DecompositionCallback func(i, j, k, l int, ctx Context) float64
}

// NewSoftConstraints returns a zero-valued (no-op) soft constraint set of
// the given sequence length.
func NewSoftConstraints(n int) *SoftConstraints {
	return &SoftConstraints{
		Unpaired: make([]float64, n+1),
		Pair:     make(map[[2]int]float64),
		Stack:    make(map[[2]int]float64),
	}
}

// UnpairedEnergy returns the pseudo-energy contribution of position i being
// unpaired.
func (sc *SoftConstraints) UnpairedEnergy(i int) float64 {
	if sc == nil || i < 0 || i >= len(sc.Unpaired) {
		return 0
	}
	return sc.Unpaired[i]
}

// PairEnergy returns the pseudo-energy contribution of (i,j) pairing.
func (sc *SoftConstraints) PairEnergy(i, j int) float64 {
	if sc == nil {
		return 0
	}
	return sc.Pair[[2]int{i, j}]
}

// StackEnergy returns the pseudo-energy contribution of (i,j) stacking
// directly on its enclosing pair.
func (sc *SoftConstraints) StackEnergy(i, j int) float64 {
	if sc == nil {
		return 0
	}
	return sc.Stack[[2]int{i, j}]
}

// DecompositionEnergy invokes the installed callback, if any.
func (sc *SoftConstraints) DecompositionEnergy(i, j, k, l int, ctx Context) float64 {
	if sc == nil || sc.DecompositionCallback == nil {
		return 0
	}
	return sc.DecompositionCallback(i, j, k, l, ctx)
}

// ProbingMethod selects how nucleotide reactivity data (SHAPE, DMS, ...) is
// translated into soft constraints, per spec §4.5.
type ProbingMethod int

const (
	ProbingDeigan ProbingMethod = iota
	ProbingZarringhalam
	ProbingEddy
	ProbingWashietl
)

// ProbingParams bundles the method-specific parameters of spec §6's
// "Probing data input".
type ProbingParams struct {
	Method ProbingMethod

	// Deigan: added energy per nucleotide is m*ln(r+1)+b.
	Slope, Intercept float64

	// Zarringhalam: added energy is beta*|pr - pairedIndicator|, where pr is
	// the reactivity converted to a target pairing probability.
	Beta float64
	// ReactivityToProbability converts a raw reactivity value into a target
	// pairing probability pr in [0,1]. If nil, the reactivity itself (clamped
	// to [0,1]) is used, matching the simplest published conversion rule.
	ReactivityToProbability func(reactivity float64) float64

	// Eddy: empirical reactivity samples observed at paired and unpaired
	// positions, turned into Gaussian-KDE log-likelihoods per position.
	PairedSamples, UnpairedSamples []float64
	// Bandwidth is the KDE bandwidth; if 0, Scott's factor n^(-1/5) times
	// the sample standard deviation (ddof=1) is used.
	Bandwidth float64
	// KT is RT in kcal/mol for the Eddy pseudo-energy conversion; if <= 0,
	// the 37 degrees Celsius value is used.
	KT float64

	// Alignment marks that the reactivity data is being applied to an
	// alignment-mode fold rather than a single sequence.
	Alignment bool
}

// ErrProbingNotSupported is returned by SoftConstraintsFromProbing for a
// mode combination the source specification leaves undefined (spec §9's
// "open questions (do not guess)" and spec §7's "Unimplemented mode
// combination" error kind).
type ErrProbingNotSupported struct {
	Method ProbingMethod
	Reason string
}

func (e *ErrProbingNotSupported) Error() string {
	return "constraints: probing method not supported: " + e.Reason
}

// SoftConstraintsFromProbing builds a SoftConstraints from per-nucleotide
// reactivity data, per spec §4.5/§6.
//
// Washietl's method and alignment-mode Zarringhalam/Eddy are left
// unimplemented on purpose: the original implementation's own
// apply_Washietl2012_method is an empty stub for both the single-sequence
// and the comparative case, and alignment-mode Zarringhalam/Eddy are
// explicitly marked unimplemented there (spec §9). Per spec §7 this
// returns a structured "not supported" error rather than guessing a
// formula.
func SoftConstraintsFromProbing(n int, reactivity []float64, params ProbingParams) (*SoftConstraints, error) {
	switch params.Method {
	case ProbingDeigan:
		return deiganSoftConstraints(n, reactivity, params), nil
	case ProbingZarringhalam:
		if params.Alignment {
			return nil, &ErrProbingNotSupported{Method: params.Method, Reason: "Zarringhalam soft constraints are unimplemented for alignment-mode folds in the source this was distilled from"}
		}
		return zarringhalamSoftConstraints(n, reactivity, params), nil
	case ProbingEddy:
		if params.Alignment {
			return nil, &ErrProbingNotSupported{Method: params.Method, Reason: "Eddy soft constraints are unimplemented for alignment-mode folds in the source this was distilled from"}
		}
		return eddySoftConstraints(n, reactivity, params)
	case ProbingWashietl:
		return nil, &ErrProbingNotSupported{Method: params.Method, Reason: "Washietl's conversion rule is named but not mathematically specified"}
	default:
		return nil, &ErrProbingNotSupported{Method: params.Method, Reason: "unknown probing method"}
	}
}

func deiganSoftConstraints(n int, reactivity []float64, params ProbingParams) *SoftConstraints {
	sc := NewSoftConstraints(n)
	for i := 1; i <= n && i <= len(reactivity); i++ {
		r := reactivity[i-1]
		if r < 0 || math.IsNaN(r) {
			continue
		}
		e := params.Slope*math.Log(r+1) + params.Intercept
		// Deigan's pseudo-energy is added to every stacking pair involving
		// the nucleotide, which this package models as a per-stack term
		// keyed by each pair the position could close or be enclosed by; the
		// DP consults StackEnergy(i,j) for the pair it actually forms.
		for j := 1; j <= n; j++ {
			if j == i {
				continue
			}
			lo, hi := i, j
			if lo > hi {
				lo, hi = hi, lo
			}
			sc.Stack[[2]int{lo, hi}] += e
		}
	}
	return sc
}

func zarringhalamSoftConstraints(n int, reactivity []float64, params ProbingParams) *SoftConstraints {
	sc := NewSoftConstraints(n)
	convert := params.ReactivityToProbability
	if convert == nil {
		convert = func(r float64) float64 {
			if r < 0 {
				return 0
			}
			if r > 1 {
				return 1
			}
			return r
		}
	}
	for i := 1; i <= n && i <= len(reactivity); i++ {
		r := reactivity[i-1]
		if r < 0 || math.IsNaN(r) {
			continue
		}
		pr := convert(r)
		sc.Unpaired[i] = params.Beta * math.Abs(pr-0)
		for j := 1; j <= n; j++ {
			if j == i {
				continue
			}
			lo, hi := i, j
			if lo > hi {
				lo, hi = hi, lo
			}
			sc.Pair[[2]int{lo, hi}] += params.Beta * math.Abs(pr-1)
		}
	}
	return sc
}

// eddySoftConstraints converts per-position reactivities into pseudo-
// energies via Gaussian-KDE log-likelihoods of the empirical paired and
// unpaired reactivity distributions: position i unpaired costs
// -kT*ln p_unpaired(r_i), and every pair (i,j) costs
// -kT*(ln p_paired(r_i) + ln p_paired(r_j)).
func eddySoftConstraints(n int, reactivity []float64, params ProbingParams) (*SoftConstraints, error) {
	if len(params.PairedSamples) == 0 || len(params.UnpairedSamples) == 0 {
		return nil, &ErrProbingNotSupported{Method: ProbingEddy, Reason: "Eddy's method requires non-empty paired/unpaired empirical reactivity samples"}
	}
	kT := params.KT
	if kT <= 0 {
		const gasConstant = 1.98717 // cal/(mol*K)
		kT = gasConstant * (37.0 + 273.15) / 1000.0
	}
	sc := NewSoftConstraints(n)
	pairedBW := kdeBandwidth(params.PairedSamples, params.Bandwidth)
	unpairedBW := kdeBandwidth(params.UnpairedSamples, params.Bandwidth)

	const epsilon = 1e-300 // keep the log finite for reactivities far outside the sample range
	logPaired := make([]float64, n+1)
	valid := make([]bool, n+1)
	for i := 1; i <= n && i <= len(reactivity); i++ {
		r := reactivity[i-1]
		if r < 0 || math.IsNaN(r) {
			continue
		}
		valid[i] = true
		sc.Unpaired[i] = -kT * math.Log(gaussianKDE(params.UnpairedSamples, unpairedBW, r)+epsilon)
		logPaired[i] = math.Log(gaussianKDE(params.PairedSamples, pairedBW, r) + epsilon)
	}
	for i := 1; i <= n; i++ {
		if !valid[i] {
			continue
		}
		for j := i + 1; j <= n; j++ {
			if !valid[j] {
				continue
			}
			sc.Pair[[2]int{i, j}] = -kT * (logPaired[i] + logPaired[j])
		}
	}
	return sc, nil
}

// kdeBandwidth is the univariate KDE bandwidth with Scott's factor,
// n^(-1/5) times the sample standard deviation (ddof=1).
func kdeBandwidth(samples []float64, override float64) float64 {
	if override > 0 {
		return override
	}
	n := float64(len(samples))
	if n < 2 {
		return 1
	}
	mean := 0.0
	for _, s := range samples {
		mean += s
	}
	mean /= n
	variance := 0.0
	for _, s := range samples {
		variance += (s - mean) * (s - mean)
	}
	variance /= n - 1
	return math.Pow(n, -1.0/5.0) * math.Sqrt(variance)
}

func gaussianKDE(samples []float64, bandwidth, x float64) float64 {
	if bandwidth <= 0 {
		bandwidth = 1
	}
	sum := 0.0
	for _, s := range samples {
		u := (x - s) / bandwidth
		sum += math.Exp(-0.5 * u * u)
	}
	return sum / (float64(len(samples)) * bandwidth * math.Sqrt(2*math.Pi))
}
