/*
Package rnaseq encodes RNA sequences and base pairs into the numerical
representation the energy parameter tables are indexed by, and validates
sequences before they're handed to the folding engine.

It is the sequence half of `energy_params.EncodeSequence`/`EncodeBasePair`:
those functions already define the numeric encoding, this package wraps them
with the validation, uppercasing, and pair-type lookups every DP
package needs, the way `mfe/mfe.go`'s `encodeSequence`/`pairTable` helpers do
in the teacher.
*/
package rnaseq

import (
	"fmt"
	"strings"

	"github.com/rnastruct/rnafold/checks"
	"github.com/rnastruct/rnafold/energy_params"
)

// Sequence is a validated, upper-cased RNA sequence together with its
// numerical encoding. Every DP package accepts a `*Sequence` instead of a
// raw string so the encoding only happens once per fold.
type Sequence struct {
	Raw     string
	Encoded []int
}

// New validates and encodes an RNA sequence. It accepts 'A', 'C', 'G', 'U'
// (case-insensitive); 'T' is rejected rather than silently treated as 'U',
// since silently rewriting a caller's sequence is more likely to hide a bug
// than help one. Validation itself defers to `checks.IsRNA`/`checks.IsDNA`
// so a caller who passes a DNA sequence by mistake gets a pointed error
// instead of a generic "invalid nucleotide" one.
func New(sequence string) (*Sequence, error) {
	if len(sequence) == 0 {
		return nil, fmt.Errorf("rnaseq: sequence is empty")
	}

	upper := strings.ToUpper(sequence)
	if !checks.IsRNA(upper) {
		if checks.IsDNA(upper) {
			return nil, fmt.Errorf("rnaseq: sequence looks like DNA, not RNA; transcribe it first (e.g. transform.Complement then swap T for U)")
		}
		return nil, fmt.Errorf("rnaseq: invalid sequence %q: only A, C, G, U are allowed", sequence)
	}

	return &Sequence{
		Raw:     upper,
		Encoded: energy_params.EncodeSequence(upper),
	}, nil
}

// GcContent returns the fraction of G and C bases in the sequence, per
// `checks.GcContent`.
func (s *Sequence) GcContent() float64 {
	return checks.GcContent(s.Raw)
}

// Len returns the length of the sequence.
func (s *Sequence) Len() int {
	return len(s.Raw)
}

// PairType returns the encoded base pair type of the bases at i and j, or
// `energy_params.NoPair` if they can't pair.
func (s *Sequence) PairType(i, j int) energy_params.BasePairType {
	return energy_params.EncodeBasePair(s.Raw[i], s.Raw[j])
}

// CanPair reports whether the bases at i and j are a canonical Watson-Crick
// or wobble pair. `noGU` excludes G-U wobble pairs (the `noGU` model detail);
// `noClosingGU` only excludes G-U pairs from closing a loop (i == closing
// base), callers check that separately since it depends on loop context.
func (s *Sequence) CanPair(i, j int, noGU bool) bool {
	pairType := s.PairType(i, j)
	if pairType == energy_params.NoPair {
		return false
	}
	if noGU && (pairType == energy_params.GU || pairType == energy_params.UG) {
		return false
	}
	return true
}

// IsGUPair reports whether the bases at i and j form a G-U wobble pair, in
// either orientation. Used by the no-closing-GU model detail, which forbids
// a wobble pair from closing a hairpin or interior loop even when wobble
// pairs are otherwise allowed.
func (s *Sequence) IsGUPair(i, j int) bool {
	pairType := s.PairType(i, j)
	return pairType == energy_params.GU || pairType == energy_params.UG
}
