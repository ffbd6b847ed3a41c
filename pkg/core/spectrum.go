// Package core provides the in-memory representation of spectral library
// entries (molecules, peaks, chromatographic coordinates) and the validation
// rules shared by every reader and writer in LibKey.
package core

import (
	"strconv"
	"strings"
)

// SpectrumComment flags the origin of a peak. Values combine as a bit set and
// are stored verbatim as the comment code of the binary peak store.
type SpectrumComment int32

const (
	CommentNone       SpectrumComment = 0
	CommentExperiment SpectrumComment = 1 << (iota - 1)
	CommentReference
	CommentMatched
	CommentPrecursor
	CommentIsotope
	CommentProduct
	CommentNeutralLoss
)

var spectrumCommentNames = []struct {
	flag SpectrumComment
	name string
}{
	{CommentExperiment, "experiment"},
	{CommentReference, "reference"},
	{CommentMatched, "matched"},
	{CommentPrecursor, "precursor"},
	{CommentIsotope, "isotope"},
	{CommentProduct, "product"},
	{CommentNeutralLoss, "neutralloss"},
}

// Has reports whether all bits of flag are set.
func (c SpectrumComment) Has(flag SpectrumComment) bool {
	return flag != 0 && c&flag == flag
}

func (c SpectrumComment) String() string {
	if c == CommentNone {
		return "none"
	}
	var parts []string
	for _, n := range spectrumCommentNames {
		if c.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return strconv.Itoa(int(c))
	}
	return strings.Join(parts, "|")
}

// SpectrumPeak is a single m/z, intensity pair of an MS/MS spectrum.
type SpectrumPeak struct {
	Mass            float64
	Intensity       float64
	Comment         string // annotation; the mass as text when the source has none
	Charge          int    // fragment charge, 0 if unknown
	SpectrumComment SpectrumComment
	PeakID          int
}

// NewSpectrumPeak builds a peak, defaulting an empty comment to the mass.
func NewSpectrumPeak(mass, intensity float64, comment string) SpectrumPeak {
	if comment == "" {
		comment = FormatMass(mass)
	}
	return SpectrumPeak{
		Mass:      mass,
		Intensity: intensity,
		Comment:   comment,
	}
}

// HasDefaultComment reports whether the comment is just the mass as text.
func (p SpectrumPeak) HasDefaultComment() bool {
	return p.Comment == "" || p.Comment == FormatMass(p.Mass)
}

// FormatMass returns the shortest text form that parses back to mass.
func FormatMass(mass float64) string {
	return strconv.FormatFloat(mass, 'f', -1, 64)
}
