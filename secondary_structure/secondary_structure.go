/*
Package secondary_structure provides the structs needed to contain
information about a RNA's secondary structure.

Overview of the structs

The struct that contains information of a RNA's secondary structure is
`SecondaryStructure`. The field `Structures` contains a list of the main
RNA secondary structures (`MultiLoop`, `Hairpin`, and
`SingleStrandedRegion`). `Hairpin`s and `MultiLoop`s both can optionally
have a `Stem`. A `SecondaryStructure` may also carry a flat list of
`GQuad`s: G-quadruplex motifs are reported independently of the bracket
nesting (the nucleotides of a quadruplex's G-tracts aren't Watson-Crick
paired with anything, so they don't participate in any `Stem`).

A `Stem` consists of a list of `StemStructure`s. A `StemStructure` consists
of a closing and enclosed base pair with the requirement that there are
no base pairs between the closing and enclosed base pair.

This package only models the topology of a secondary structure (which
bases pair with which, and how loops nest). Free energies of the loops
described here are computed by the loopenergy/mfedp/pf packages, not
stored on these structs.
*/
package secondary_structure

// SecondaryStructure is composed of a list of `MultiLoop`s, `Hairpin`s,
// and `SingleStrandedRegion`s. Note that since Go doesn't support
// inheritance, we use `interface{}` as the type for the structures list,
// but the only types that are allowed/used are `MultiLoop`, `Hairpin`
// and `SingleStrandedRegion`.
//
// `GQuads` holds any G-quadruplex motifs present in the structure. They
// are kept separate from `Structures` because their nucleotides are
// unpaired with respect to the Watson-Crick nesting, but are not free
// (they are locked into the quadruplex stack).
type SecondaryStructure struct {
	Structures []interface{}
	GQuads     []GQuad
	Length     int
}

// MultiLoop contains all the information needed to denote a multi-loop in a
// RNA's secondary structure. It consists of a `Stem` and the substructures
// enclosed by that stem. A `MultiLoop` will always contain at least one
// substructure. The substructures that can be present are `Hairpin`s,
// `SingleStrandedRegion`s, and `MultiLoop`s; G-quadruplexes are listed
// only in the top-level `SecondaryStructure.GQuads`.
type MultiLoop struct {
	Stem                       Stem
	SubstructuresFivePrimeIdx  int
	SubstructuresThreePrimeIdx int
	Substructures              SecondaryStructure
}

// Hairpin contains all the information needed to denote a hairpin loop in a
// RNA's secondary structure. It consists of a `Stem` and a single stranded
// region that forms the loop of the structure.
//
// Sometimes a `Hairpin` may only consist of a Stem without a single stranded
// region. In such cases, the `SingleStrandedFivePrimeIdx` and
// `SingleStrandedThreePrimeIdx` of the hairpin are set to `-1`.
type Hairpin struct {
	Stem                                                    Stem
	SingleStrandedFivePrimeIdx, SingleStrandedThreePrimeIdx int
}

// SingleStrandedRegion contains all the information needed to denote a
// single stranded region in a RNA's secondary structure.
// At the minimum, a `SingleStrandedRegion` consists of a single
// unpaired nucleotide. In such a case, `FivePrimeIdx` == `ThreePrimeIdx`.
type SingleStrandedRegion struct {
	FivePrimeIdx, ThreePrimeIdx int
}

// GQuad denotes a G-quadruplex motif: four equal-length runs of guanines
// (the "G-tracts", each of `StackSize` tetrads) connected by three
// linkers. `FivePrimeIdx`/`ThreePrimeIdx` give the span of the entire
// motif, `TractStarts` the start index of each of the four G-tracts.
type GQuad struct {
	FivePrimeIdx, ThreePrimeIdx int
	StackSize                   int
	TractStarts                 [4]int
	LinkerLengths                [3]int
}

// Stem contains all the information needed to denote the stems of a `Hairpin`
// or `Multiloop`. It is not a "top-level" structure of a RNA and only exists
// as part of a `Hairpin` or `Multiloop`. The closing pairs denote where the
// stem starts and enclosed pairs where the stem ends. The actual stem
// consists of a list of `StemStructure`s.
//
// Note that a `Stem` may not contain any stem structures. This occurs in cases
// where there is only one base pair that delimits a `Hairpin` or `MultiLoop`.
// For example,
// dot-bracket structure:
// . . . ( . . . ) . .
// annotated structure:
// e e e ( h h h ) e e
// index:
// 0 1 2 3 4 5 6 7 8 9
// would be a Hairpin (with a Stem with the closing base pair at indexs 3 and
// 7) whose stem doesn't contain any structures.
//
// For example,
// dot-bracket structure:
// . . ( ( . . ) ( . . )  )  .  .
// annotated structure:
// e e ( ( h h ) ( h h )  )  e  e
// index:
// 0 1 2 3 4 5 6 7 8 9 10 11 12 13
// would be a Multiloop (with a Stem with the closing base pair at indexs 2 and
// 11) whose stem doesn't contain any structures.
// In such cases, the stem will only have its `ClosingFivePrimeIdx` and
// `ClosingThreePrimeIdx` set. The `EnclosedFivePrimeIdx` and
// `EnclosedThreePrimeIdx` will be set to -1, and the list of `StemStructures`
// will be empty.
type Stem struct {
	ClosingFivePrimeIdx, EnclosedFivePrimeIdx   int
	EnclosedThreePrimeIdx, ClosingThreePrimeIdx int
	Structures                                  []StemStructure
}

// StemStructure contains all the information needed to denote the substructures
// present in a `Stem`. A `StemStructure` always consists of a closing and
// enclosed base pair with the requirement that there are no base pairs between
// the closing and enclosed base pair.
//
// A `StemStructure` is classified into a `StemStructureType` based on the
// number of unpaired nucleotides between the closing and enclosed base pairs.
// (See (*StemStructure).setStructureType for more details)
type StemStructure struct {
	ClosingFivePrimeIdx, EnclosedFivePrimeIdx   int
	EnclosedThreePrimeIdx, ClosingThreePrimeIdx int
	NBUnpairedFivePrime, NBUnpairedThreePrime   int // the number of unpaired nucleotides on the five and three prime ends
	Type                                        StemStructureType
}

// StemStructureType denotes the type of a `StemStructure`.
type StemStructureType int

const (
	// StackingPair is the type of a `StemStructure` where there are no unpaired
	// nucleotides between the closing and enclosed base pairs of the
	// `StemStructure`.
	StackingPair StemStructureType = iota
	// Bulge is the type of a `StemStructure` where there is one or more
	// unpaired nucleotides on one 'side' of the `StemStructure` and no unpaired
	// nucleotides on the other 'side'.
	Bulge
	// Interior1x1Loop is the type of a `StemStructure` where there is one
	// unpaired nucleotide on both 'sides' of the `StemStructure`.
	Interior1x1Loop
	// Interior2x1Loop is the type of a `StemStructure` where there are two
	// unpaired nucleotides on one 'side' and one unpaired nucleotides on the
	// other 'side' of the `StemStructure`.
	Interior2x1Loop
	// Interior1xnLoop is the type of a `StemStructure` where there is one
	// unpaired nucleotides on one 'side' and more than two unpaired nucleotides
	// on the other 'side' of the `StemStructure`.
	Interior1xnLoop
	// Interior2x2Loop is the type of a `StemStructure` where there are two
	// unpaired nucleotides on both 'sides' of the `StemStructure`.
	Interior2x2Loop
	// Interior2x3Loop is the type of a `StemStructure` where there are two
	// unpaired nucleotides on one 'side' and three unpaired nucleotides on the
	// other 'side' of the `StemStructure`.
	Interior2x3Loop
	// GenericInteriorLoop is the type of a `StemStructure` which is not denoted
	// by `StackingPair`, `Bulge`, `Interior1x1Loop`, `Interior2x1Loop`,
	// `Interior1xnLoop`, `Interior2x2Loop`, or `Interior2x3Loop`.
	// Thus, the `StemStructure` can be one of:
	// * two unpaired nucleotides on one 'side' and more than three on the other
	//   (2x4, 2x5, ..., 2xn interior loops)
	// * three unpaired nucleotides on one 'side' and three or more on the other
	//   (3x3, 3x4, ..., 3xn interior loops)
	GenericInteriorLoop
)

// setStructureType sets the `Type` field of a `StemStructure` based on the
// number of unpaired nucleotides between the closing and enclosed base pairs.
func (structure *StemStructure) setStructureType() {
	nbUnpairedFivePrime := structure.EnclosedFivePrimeIdx - structure.ClosingFivePrimeIdx - 1
	structure.NBUnpairedFivePrime = nbUnpairedFivePrime
	nbUnpairedThreePrime := structure.ClosingThreePrimeIdx - structure.EnclosedThreePrimeIdx - 1
	structure.NBUnpairedThreePrime = nbUnpairedThreePrime

	var nbUnpairedLarger, nbUnpairedSmaller int

	if nbUnpairedFivePrime > nbUnpairedThreePrime {
		nbUnpairedLarger = nbUnpairedFivePrime
		nbUnpairedSmaller = nbUnpairedThreePrime
	} else {
		nbUnpairedLarger = nbUnpairedThreePrime
		nbUnpairedSmaller = nbUnpairedFivePrime
	}

	switch nbUnpairedSmaller {
	case 0:
		if nbUnpairedLarger == 0 {
			structure.Type = StackingPair
		} else {
			structure.Type = Bulge
		}
	case 1:
		switch nbUnpairedLarger {
		case 1:
			structure.Type = Interior1x1Loop
		case 2:
			structure.Type = Interior2x1Loop
		default:
			structure.Type = Interior1xnLoop
		}
	case 2:
		switch nbUnpairedLarger {
		case 2:
			structure.Type = Interior2x2Loop
		case 3:
			structure.Type = Interior2x3Loop
		default:
			structure.Type = GenericInteriorLoop
		}

	default:
		structure.Type = GenericInteriorLoop
	}
}

// NewStemStructure is a wrapper to create a `StemStructure` and call the
// functions (`(*StemStructure).setStructureType`) required to initialize the
// struct.
func NewStemStructure(closingFivePrimeIdx, closingThreePrimeIdx,
	enclosedFivePrimeIdx, enclosedThreePrimeIdx int) StemStructure {

	stemStructure := StemStructure{
		ClosingFivePrimeIdx:   closingFivePrimeIdx,
		EnclosedFivePrimeIdx:  enclosedFivePrimeIdx,
		EnclosedThreePrimeIdx: enclosedThreePrimeIdx,
		ClosingThreePrimeIdx:  closingThreePrimeIdx,
	}

	stemStructure.setStructureType()

	return stemStructure
}
