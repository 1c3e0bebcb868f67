package secondary_structure

import (
	"fmt"
	"regexp"
)

/******************************************************************************
This file defines the structs and functions needed to get the 'annotated'
structure and `SecondaryStructure` of a RNA from its 'dot-bracket' notation.

'Dot-bracket' notation of a secondary structure is a string where each
character represents a base. Unpaired nucleotides are represented with a '.'
and base pairs are represented by parenthesis. '(' denotes the opening base
and ')' denotes the closing base of a base pair.
For example, "..((..)).." denotes a hairpin where the bases at index 2 and 7,
and at index 3 and 6 are paired.

A G-quadruplex motif is written as four equal-length runs of '+' separated
by '.' linkers, e.g. "..++.++.++.++.." is a quadruplex of stack size 2 with
single-nucleotide linkers. The nucleotides of a quadruplex's G-tracts are not
Watson-Crick paired with anything, so in the pair table they are treated the
same as unpaired nucleotides, and the motif itself is reported separately in
`SecondaryStructure.GQuads`.

'Annotated' structure of a secondary structure is a string where each
character represents a base. In this notation, unpaired nucleotides are set
to a character depending on what part of the secondary structure it is in.
The character mapping for the unpaired nucleotides is:
* On the exterior part of a RNA structure (not part of any loop): 'e'
* On the single stranded region of a hairpin: 'h'
* On a single stranded region of a multiloop: 'm'
* Part of an interior loop in a stem of a hairpin or multiloop: 'i'
* Part of a G-quadruplex G-tract: 'g'
For example, "..((..)).." would have an annotated structure of "ee((hh))ee".
Note that the parenthesis surrounding one or more 'h' or 'm' characters form
the stem of that hairpin or multiloop respectively. Thus, in the example above,
the bases at index 2, 3, 6, and 7 form the stem of the hairpin loop enclosed
by the bases at index 3 and 6.
******************************************************************************/

const (
	dotBracketUnpairedNucleotide       byte = '.'
	dotBracketStemFivePrimeNucleotide  byte = '('
	dotBracketStemThreePrimeNucleotide byte = ')'
	dotBracketGquadNucleotide          byte = '+'

	exteriorLoopUnpairedNucleotide          byte = 'e'
	interiorLoopUnpairedNucleotide          byte = 'i'
	hairpinLoopNucleotide                   byte = 'h'
	multiLoopSingleStrandedRegionNucleotide byte = 'm'
	gquadNucleotide                         byte = 'g'
)

var dotBracketStructureRegex = regexp.MustCompile(`^[().+]+$`)

// parseCompound holds all information needed to compute the annotated structure
// and `SecondaryStructure` of a RNA sequence
type parseCompound struct {
	length             int   // length of `sequence`
	pairTable          []int // (see `pairTable()`)
	gquads             []GQuad
	annotatedStructure []byte
}

// FromDotBracket returns the annotated structure and `SecondaryStructure` of
// a RNA sequence from its 'dot-bracket' structure.
func FromDotBracket(dotBracketStructure string) (string, *SecondaryStructure, error) {
	if err := ensureValidDotBracketStructure(dotBracketStructure); err != nil {
		return "", nil, err
	}

	gquads, err := parseGQuads(dotBracketStructure)
	if err != nil {
		return "", nil, err
	}

	pt, err := pairTable(dotBracketStructure)
	if err != nil {
		return "", nil, err
	}

	lenStructure := len(dotBracketStructure)
	pc := &parseCompound{
		length:             lenStructure,
		pairTable:          pt,
		gquads:             gquads,
		annotatedStructure: make([]byte, lenStructure),
	}

	secondaryStructure := evaluateParseCompound(pc)
	secondaryStructure.GQuads = gquads

	for _, gq := range gquads {
		for _, start := range gq.TractStarts {
			for i := start; i < start+gq.StackSize; i++ {
				pc.annotatedStructure[i] = gquadNucleotide
			}
		}
	}

	return string(pc.annotatedStructure), &secondaryStructure, nil
}

// DotBracket returns the dot-bracket string of a `SecondaryStructure`. The
// `offset` parameter exists so callers processing a substructure of a larger
// `SecondaryStructure` can render it relative to the substructure's own
// coordinate space; pass 0 when rendering a top-level structure.
func DotBracket(secondaryStructure *SecondaryStructure, offset int) string {
	dotBracket := doDotBracketFromSecondaryStructure(*secondaryStructure, offset)
	db := []byte(dotBracket)
	for _, gq := range secondaryStructure.GQuads {
		for _, start := range gq.TractStarts {
			for i := start; i < start+gq.StackSize; i++ {
				db[i-offset] = dotBracketGquadNucleotide
			}
		}
	}
	return string(db)
}

// parseGQuads scans a dot-bracket structure for G-quadruplex motifs: groups
// of four equal-length runs of '+' separated only by '.' linkers. It returns
// an error if a '+' run can't be grouped into a complete quadruplex.
func parseGQuads(structure string) ([]GQuad, error) {
	var gquads []GQuad
	lenStructure := len(structure)

	for i := 0; i < lenStructure; i++ {
		if structure[i] != dotBracketGquadNucleotide {
			continue
		}

		var tractStarts [4]int
		var linkerLengths [3]int
		pos := i
		stackSize := 0
		for tract := 0; tract < 4; tract++ {
			tractStarts[tract] = pos
			runStart := pos
			for pos < lenStructure && structure[pos] == dotBracketGquadNucleotide {
				pos++
			}
			runLength := pos - runStart
			if runLength == 0 {
				return nil, fmt.Errorf("%v\nG-quadruplex run starting at %v is empty", structure, runStart)
			}
			if tract == 0 {
				stackSize = runLength
			} else if runLength != stackSize {
				return nil, fmt.Errorf("%v\nG-quadruplex tracts must be equal length, got %v and %v", structure, stackSize, runLength)
			}

			if tract < 3 {
				linkerStart := pos
				for pos < lenStructure && structure[pos] == dotBracketUnpairedNucleotide {
					pos++
				}
				if pos == linkerStart {
					return nil, fmt.Errorf("%v\nG-quadruplex tracts must be separated by a linker", structure)
				}
				if pos >= lenStructure || structure[pos] != dotBracketGquadNucleotide {
					return nil, fmt.Errorf("%v\nincomplete G-quadruplex starting at %v", structure, i)
				}
				linkerLengths[tract] = pos - linkerStart
			}
		}

		gquads = append(gquads, GQuad{
			FivePrimeIdx:  i,
			ThreePrimeIdx: pos - 1,
			StackSize:     stackSize,
			TractStarts:   tractStarts,
			LinkerLengths: linkerLengths,
		})

		i = pos - 1
	}

	return gquads, nil
}

/**
* Returns a slice `pairTable` where `pairTable[i]` returns the index of the
* nucleotide that that the nucelotide at `i` is paired with, else -1.
* G-quadruplex nucleotides ('+') are treated as unpaired, same as '.'.
* Examples -
* Index:   0  1  2  3  4  5  6  7  8  9 10 11 12 13 14 15 16 17 18 19 20 21 22 23 24 25 26 27 28 29
* Input: " .  .  (  (  (  (  .  .  .  )  )  )  )  .  .  .  (  (  .  .  .  .  .  .  .  .  )  )  .  ."
* Output:[-1 -1 12 11 10  9 -1 -1 -1  5  4  3  2 -1 -1 -1 27 26 -1 -1 -1 -1 -1 -1 -1 -1 17 16 -1 -1]
*
* Index:   0  1  2  3  4  5  6  7  8  9 10 11 12 13 14 15 16 17 18 19 20 21 22 23 24 25 26 27 28 29
* Input: " (  .  (  (  (  (  .  .  .  )  )  )  )  .  .  .  (  (  .  .  .  .  .  .  .  .  )  )  .  )"
* Output:[29 -1 12 11 10  9 -1 -1 -1  5  4  3  2 -1 -1 -1 27 26 -1 -1 -1 -1 -1 -1 -1 -1 17 16 -1  0]
 */
// PairTable is the exported counterpart of pairTable, for callers outside
// this package (e.g. the twodfold package's reference-structure loader)
// that need a 0-based pair table from a dot-bracket string without going
// through the full SecondaryStructure construction.
func PairTable(structure string) ([]int, error) {
	return pairTable(structure)
}

func pairTable(structure string) ([]int, error) {
	lenStructure := len(structure)
	pairTable := make([]int, lenStructure)

	var openBracketIdxStack []int = make([]int, lenStructure)
	var stackIdx int = 0

	for i := 0; i < lenStructure; i++ {
		switch structure[i] {
		case dotBracketStemFivePrimeNucleotide:
			openBracketIdxStack[stackIdx] = i
			stackIdx++
		case dotBracketStemThreePrimeNucleotide:
			stackIdx--

			if stackIdx < 0 {
				return nil,
					fmt.Errorf("%v\nunbalanced brackets '%v%v' found while extracting base pairs",
						structure, dotBracketStemFivePrimeNucleotide, dotBracketStemThreePrimeNucleotide)
			}

			openBracketIdx := openBracketIdxStack[stackIdx]
			pairTable[i] = openBracketIdx
			pairTable[openBracketIdx] = i
		default:
			// '.' and '+' (G-quadruplex nucleotides) are both unpaired with
			// respect to the Watson-Crick nesting.
			pairTable[i] = -1
		}
	}

	if stackIdx != 0 {
		return nil, fmt.Errorf("%v\nunbalanced brackets '%v%v' found while extracting base pairs",
			structure, dotBracketStemFivePrimeNucleotide, dotBracketStemThreePrimeNucleotide)
	}

	return pairTable, nil
}

func ensureValidDotBracketStructure(structure string) error {
	if !dotBracketStructureRegex.MatchString(structure) {
		return fmt.Errorf("found invalid characters in structure. Only dot-bracket (with optional '+' G-quadruplex) notation allowed")
	}
	return nil
}

func evaluateParseCompound(pc *parseCompound) SecondaryStructure {
	secondaryStructures := make([]interface{}, 0)

	pairTable := pc.pairTable
	lenExteriorLoop := 0
	for i := 0; i < pc.length; i++ {
		if pairTable[i] == -1 {
			pc.annotatedStructure[i] = exteriorLoopUnpairedNucleotide
			lenExteriorLoop++
			continue
		}

		if lenExteriorLoop != 0 {
			// add single stranded region of exterior loop to structures and reset
			// lenExteriorLoop for next iteration of for-loop
			ssr := SingleStrandedRegion{
				FivePrimeIdx:  i - lenExteriorLoop,
				ThreePrimeIdx: i - 1,
			}
			secondaryStructures = append(secondaryStructures, ssr)
			lenExteriorLoop = 0
		}

		structures := evaluateLoop(pc, i)
		secondaryStructures = append(secondaryStructures, structures)

		// seek to end of current loop
		i = pairTable[i]
	}

	// add the single stranded region at the three prime end (if it exists)
	if lenExteriorLoop != 0 {
		ssr := SingleStrandedRegion{
			FivePrimeIdx:  pc.length - lenExteriorLoop,
			ThreePrimeIdx: pc.length - 1,
		}
		secondaryStructures = append(secondaryStructures, ssr)
	}

	return SecondaryStructure{
		Structures: secondaryStructures,
		Length:     pc.length,
	}
}

// evaluateLoop evaluates and returns the loop enclosed by (closingFivePrimeIdx,
// closingThreePrimeIdx) which can be either a `Hairpin` or `MultiLoop`.
//
// evaluateLoop proceeds in a stack-wise manner from the closing base pair of
// a stem till the enclosing base pair of the stem. While iterating from the
// closing base pair to the enclosed base pair, each substructure of the
// stem is categorized and added to the list of substructures of the stem.
//
// Once the enclosing base pair of the stem are encountered, `evaluateLoop`
// evaluates whether the loop is a `Hairpin` or `Multiloop` and passes the
// computed stem to the relevant function (`hairpin()` and `multiLoop()`
// respectively). The relevant function then returns the secondary structure
// with the stem set as the stem computed in this function.
func evaluateLoop(pc *parseCompound, closingFivePrimeIdx int) interface{} {

	pairTable := pc.pairTable
	closingThreePrimeIdx := pairTable[closingFivePrimeIdx]

	pc.annotatedStructure[closingFivePrimeIdx] = dotBracketStemFivePrimeNucleotide
	pc.annotatedStructure[closingThreePrimeIdx] = dotBracketStemThreePrimeNucleotide

	// init the stem structure for this loop
	stem := Stem{
		ClosingFivePrimeIdx:  closingFivePrimeIdx,
		ClosingThreePrimeIdx: closingThreePrimeIdx,
	}
	stemStructures := make([]StemStructure, 0)

	// iterator from the 5' to 3' direction
	enclosedFivePrimeIdx := closingFivePrimeIdx

	// iterator from the 3' to 5' direction
	enclosedThreePrimeIdx := closingThreePrimeIdx

	for enclosedFivePrimeIdx < enclosedThreePrimeIdx {
		// process all enclosed `StemStructure`s

		// seek to a base pair from 5' end
		enclosedFivePrimeIdx++
		for pairTable[enclosedFivePrimeIdx] == -1 {
			enclosedFivePrimeIdx++
		}

		// seek to a base pair from 3' end
		enclosedThreePrimeIdx--
		for pairTable[enclosedThreePrimeIdx] == -1 {
			enclosedThreePrimeIdx--
		}

		if pairTable[enclosedThreePrimeIdx] != enclosedFivePrimeIdx || enclosedFivePrimeIdx > enclosedThreePrimeIdx {
			// enclosedFivePrimeIdx & enclosedThreePrimeIdx don't pair. Must have found hairpin or multi-loop.
			break
		} else {
			// We have found a `StemStructure` closed by (`closingFivePrimeIdx`,
			// `closingThreePrimeIdx`) and enclosed by (`enclosedFivePrimeIdx`,
			// `enclosedThreePrimeIdx`)
			stemStructure := stemStructure(pc,
				closingFivePrimeIdx, closingThreePrimeIdx,
				enclosedFivePrimeIdx, enclosedThreePrimeIdx,
			)
			stemStructures = append(stemStructures, stemStructure)

			pc.annotatedStructure[enclosedFivePrimeIdx] = dotBracketStemFivePrimeNucleotide
			pc.annotatedStructure[enclosedThreePrimeIdx] = dotBracketStemThreePrimeNucleotide

			closingFivePrimeIdx = enclosedFivePrimeIdx
			closingThreePrimeIdx = enclosedThreePrimeIdx
		}
	} // end for

	// Set remaining fields of the stem
	if closingFivePrimeIdx == stem.ClosingFivePrimeIdx {
		// stem doesn't have any StemStructures. Thus only consists of its closing
		// base pairs
		if len(stemStructures) > 0 {
			panic("stem contains StemStructures")
		}
		stem.EnclosedFivePrimeIdx = -1
		stem.EnclosedThreePrimeIdx = -1
	} else {
		// stem has stem structures
		stem.EnclosedFivePrimeIdx = closingFivePrimeIdx
		stem.EnclosedThreePrimeIdx = closingThreePrimeIdx
		stem.Structures = stemStructures
	}

	if enclosedFivePrimeIdx > enclosedThreePrimeIdx {
		// hairpin
		return hairpin(pc, closingFivePrimeIdx, closingThreePrimeIdx, stem)
	} else {
		// we have a multi-loop
		return multiLoop(pc, closingFivePrimeIdx, stem)
	}
}

// stemStructure sets the required interior loop nucleotides of a
// `parseCompound`'s annotatedStructure and returns `StemStructure` closed
// by (`closingFivePrimeIdx`, `closingThreePrimeIdx`) and enclosed by
// (`enclosedFivePrimeIdx`, `enclosedThreePrimeIdx`)
func stemStructure(pc *parseCompound,
	closingFivePrimeIdx, closingThreePrimeIdx,
	enclosedFivePrimeIdx, enclosedThreePrimeIdx int) StemStructure {

	for i := closingFivePrimeIdx + 1; i < enclosedFivePrimeIdx; i++ {
		pc.annotatedStructure[i] = interiorLoopUnpairedNucleotide
	}

	for i := enclosedThreePrimeIdx + 1; i < closingThreePrimeIdx; i++ {
		pc.annotatedStructure[i] = interiorLoopUnpairedNucleotide
	}

	return NewStemStructure(closingFivePrimeIdx, closingThreePrimeIdx,
		enclosedFivePrimeIdx, enclosedThreePrimeIdx)
}

// hairpin sets the required single stranded hairpin nucleotides of a
// `parseCompound`'s annotatedStructure and returns `Hairpin` closed
// by (`closingFivePrimeIdx`, `closingThreePrimeIdx`)
func hairpin(pc *parseCompound, closingFivePrimeIdx, closingThreePrimeIdx int,
	stem Stem) Hairpin {

	hairpinHasSingleStrandedNucleotides := false
	for i := closingFivePrimeIdx + 1; i < closingThreePrimeIdx; i++ {
		pc.annotatedStructure[i] = hairpinLoopNucleotide
		hairpinHasSingleStrandedNucleotides = true
	}

	var singleStrandedFivePrimeIdx, singleStrandedThreePrimeIdx int
	if hairpinHasSingleStrandedNucleotides {
		singleStrandedFivePrimeIdx = closingFivePrimeIdx + 1
		singleStrandedThreePrimeIdx = closingThreePrimeIdx - 1
	} else {
		// There is no single stranded loop region
		singleStrandedFivePrimeIdx = -1
		singleStrandedThreePrimeIdx = -1
	}

	return Hairpin{
		Stem:                        stem,
		SingleStrandedFivePrimeIdx:  singleStrandedFivePrimeIdx,
		SingleStrandedThreePrimeIdx: singleStrandedThreePrimeIdx,
	}
}

// multiLoop sets the nucleotides present in a multi-loop's single stranded
// region in a `parseCompound`'s annotatedStructure and returns the
// `MultiLoop` closed by (`closingFivePrimeIdx`, `closingThreePrimeIdx`)
func multiLoop(pc *parseCompound, closingFivePrimeIdx int,
	stem Stem) MultiLoop {
	pairTable := pc.pairTable

	var substructures []interface{}

	if closingFivePrimeIdx >= pairTable[closingFivePrimeIdx] {
		panic("multiLoop: closingFivePrimeIdx is not the 5' base of a pair that closes a loop")
	}

	closingThreePrimeIdx := pairTable[closingFivePrimeIdx]

	enclosedFivePrimeIdx := closingFivePrimeIdx + 1

	lenMultiLoopSingleStrandedRegion := 0

	// seek to the first stem (i.e. the first enclosed base pair)
	for enclosedFivePrimeIdx <= closingThreePrimeIdx && pairTable[enclosedFivePrimeIdx] == -1 {
		pc.annotatedStructure[enclosedFivePrimeIdx] = multiLoopSingleStrandedRegionNucleotide
		lenMultiLoopSingleStrandedRegion++
		enclosedFivePrimeIdx++
	}

	if lenMultiLoopSingleStrandedRegion != 0 {
		ssr := SingleStrandedRegion{
			FivePrimeIdx:  enclosedFivePrimeIdx - lenMultiLoopSingleStrandedRegion,
			ThreePrimeIdx: enclosedFivePrimeIdx - 1,
		}
		substructures = append(substructures, ssr)
		lenMultiLoopSingleStrandedRegion = 0
	}

	for enclosedFivePrimeIdx < closingThreePrimeIdx {
		substructure := evaluateLoop(pc, enclosedFivePrimeIdx)
		substructures = append(substructures, substructure)

		// seek to the next stem
		enclosedFivePrimeIdx = pairTable[enclosedFivePrimeIdx] + 1
		for enclosedFivePrimeIdx < closingThreePrimeIdx && pairTable[enclosedFivePrimeIdx] == -1 {
			pc.annotatedStructure[enclosedFivePrimeIdx] = multiLoopSingleStrandedRegionNucleotide
			lenMultiLoopSingleStrandedRegion++
			enclosedFivePrimeIdx++
		}

		if lenMultiLoopSingleStrandedRegion != 0 {
			ssr := SingleStrandedRegion{
				FivePrimeIdx:  enclosedFivePrimeIdx - lenMultiLoopSingleStrandedRegion,
				ThreePrimeIdx: enclosedFivePrimeIdx - 1,
			}
			substructures = append(substructures, ssr)
			lenMultiLoopSingleStrandedRegion = 0
		}
	}

	substructuresFivePrimeIdx, substructuresThreePrimeIdx := stem.EnclosedFivePrimeIdx+1, stem.EnclosedThreePrimeIdx-1
	return MultiLoop{
		Stem:                       stem,
		SubstructuresFivePrimeIdx:  substructuresFivePrimeIdx,
		SubstructuresThreePrimeIdx: substructuresThreePrimeIdx,
		Substructures: SecondaryStructure{
			Structures: substructures,
			Length:     substructuresThreePrimeIdx - substructuresFivePrimeIdx + 1,
		},
	}
}

/************************************************************************

The following functions render a `SecondaryStructure` back into its
dot-bracket form. They round-trip against `FromDotBracket` (see the
examples in dot_bracket_test.go).

***********************************************************************/

// doDotBracketFromSecondaryStructure returns the dot-bracket structure of
// a `SecondaryStructure`.
//
// Since this is called recursively for the substructures enclosed in a
// multi-loop, it takes an `offset` param: the index fields of a
// `MultiLoop`'s substructures have an absolute reference to the indexes
// of the original `SecondaryStructure`, but when processing a `MultiLoop`
// recursively we need the relative reference for the output.
func doDotBracketFromSecondaryStructure(secondaryStructure SecondaryStructure, offset int) string {
	var dotBracket []byte = make([]byte, secondaryStructure.Length)
	for i := range dotBracket {
		dotBracket[i] = dotBracketUnpairedNucleotide
	}

	for _, structure := range secondaryStructure.Structures {
		switch structure := structure.(type) {
		case SingleStrandedRegion:
			for i := structure.FivePrimeIdx; i <= structure.ThreePrimeIdx; i++ {
				dotBracket[i-offset] = dotBracketUnpairedNucleotide
			}
		case MultiLoop:
			dotBracketFromStem(&dotBracket, structure.Stem, offset)
			substructuresDotBracket := doDotBracketFromSecondaryStructure(structure.Substructures, structure.SubstructuresFivePrimeIdx)
			lenSubstructuresDotBracket := len(substructuresDotBracket)
			if lenSubstructuresDotBracket != structure.SubstructuresThreePrimeIdx-structure.SubstructuresFivePrimeIdx+1 {
				panic("len of dot bracket from substructures != len substructure")
			}
			for i, j := structure.SubstructuresFivePrimeIdx, 0; i <= structure.SubstructuresThreePrimeIdx; i++ {
				dotBracket[i-offset] = substructuresDotBracket[j]
				j++
			}
		case Hairpin:
			dotBracketFromStem(&dotBracket, structure.Stem, offset)
			if structure.SingleStrandedFivePrimeIdx != -1 {
				for i := structure.SingleStrandedFivePrimeIdx; i <= structure.SingleStrandedThreePrimeIdx; i++ {
					dotBracket[i-offset] = dotBracketUnpairedNucleotide
				}
			}
		}
	}

	return string(dotBracket)
}

func dotBracketFromStem(dotBracket *[]byte, stem Stem, offset int) {
	(*dotBracket)[stem.ClosingFivePrimeIdx-offset] = dotBracketStemFivePrimeNucleotide
	(*dotBracket)[stem.ClosingThreePrimeIdx-offset] = dotBracketStemThreePrimeNucleotide
	for _, stemStructure := range stem.Structures {
		dotBracketFromStemStructure(dotBracket, stemStructure, offset)
	}
}

func dotBracketFromStemStructure(dotBracket *[]byte, stemStructure StemStructure, offset int) {
	for i := stemStructure.ClosingFivePrimeIdx + 1; i < stemStructure.EnclosedFivePrimeIdx; i++ {
		(*dotBracket)[i-offset] = dotBracketUnpairedNucleotide
	}
	(*dotBracket)[stemStructure.EnclosedFivePrimeIdx-offset] = dotBracketStemFivePrimeNucleotide

	for i := stemStructure.EnclosedThreePrimeIdx + 1; i < stemStructure.ClosingThreePrimeIdx; i++ {
		(*dotBracket)[i-offset] = dotBracketUnpairedNucleotide
	}
	(*dotBracket)[stemStructure.EnclosedThreePrimeIdx-offset] = dotBracketStemThreePrimeNucleotide
}
