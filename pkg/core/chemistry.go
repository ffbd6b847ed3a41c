package core

import (
	"math"
	"strings"
)

// Atomic masses (monoisotopic)
const (
	MassH = 1.00782503207
	MassC = 12.0000000000
	MassN = 14.0030740048
	MassO = 15.99491461956
	MassS = 31.97207100
	MassP = 30.97376163

	// Proton mass for charge calculations
	ProtonMass = 1.00727646688
)

// AminoAcidComposition stores elemental composition
type AminoAcidComposition struct {
	C, H, N, O, S int
}

// AminoAcidMasses maps amino acid one-letter codes to residue composition.
var AminoAcidMasses = map[rune]AminoAcidComposition{
	'A': {C: 3, H: 5, N: 1, O: 1},
	'R': {C: 6, H: 12, N: 4, O: 1},
	'N': {C: 4, H: 6, N: 2, O: 2},
	'D': {C: 4, H: 5, N: 1, O: 3},
	'C': {C: 3, H: 5, N: 1, O: 1, S: 1},
	'E': {C: 5, H: 7, N: 1, O: 3},
	'Q': {C: 5, H: 8, N: 2, O: 2},
	'G': {C: 2, H: 3, N: 1, O: 1},
	'H': {C: 6, H: 7, N: 3, O: 1},
	'I': {C: 6, H: 11, N: 1, O: 1},
	'L': {C: 6, H: 11, N: 1, O: 1},
	'K': {C: 6, H: 12, N: 2, O: 1},
	'M': {C: 5, H: 9, N: 1, O: 1, S: 1},
	'F': {C: 9, H: 9, N: 1, O: 1},
	'P': {C: 5, H: 7, N: 1, O: 1},
	'S': {C: 3, H: 5, N: 1, O: 2},
	'T': {C: 4, H: 7, N: 1, O: 2},
	'W': {C: 11, H: 10, N: 2, O: 1},
	'Y': {C: 9, H: 9, N: 1, O: 2},
	'V': {C: 5, H: 9, N: 1, O: 1},
}

// residueOrder fixes the integer code of each residue in peptide stores.
const residueOrder = "ARNDCEQGHILKMFPSTWYV"

// ResidueCode returns the store code of an amino acid, or -1 if unknown.
func ResidueCode(aa rune) int {
	return strings.IndexRune(residueOrder, aa)
}

// ResidueFromCode is the inverse of ResidueCode; unknown codes map to 'X'.
func ResidueFromCode(code int) rune {
	if code < 0 || code >= len(residueOrder) {
		return 'X'
	}
	return rune(residueOrder[code])
}

// CalculateNeutralMass computes the neutral monoisotopic mass of a peptide
// including modifications. Unknown residues contribute nothing.
func CalculateNeutralMass(sequence string, modifications []Modification) float64 {
	comp := AminoAcidComposition{H: 2, O: 1} // water

	for _, aa := range sequence {
		if aaComp, ok := AminoAcidMasses[aa]; ok {
			comp.C += aaComp.C
			comp.H += aaComp.H
			comp.N += aaComp.N
			comp.O += aaComp.O
			comp.S += aaComp.S
		}
	}

	mass := float64(comp.C)*MassC +
		float64(comp.H)*MassH +
		float64(comp.N)*MassN +
		float64(comp.O)*MassO +
		float64(comp.S)*MassS

	for _, mod := range modifications {
		mass += mod.Mass
	}

	return mass
}

// CalculatePeptideMass returns the m/z of a peptide at the given charge.
func CalculatePeptideMass(sequence string, charge int, modifications []Modification) float64 {
	if charge <= 0 {
		charge = 1
	}
	mass := CalculateNeutralMass(sequence, modifications)
	return (mass + float64(charge)*ProtonMass) / float64(charge)
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
