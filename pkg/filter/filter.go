// Package filter trims and reshapes the spectra of library molecules before
// export.
package filter

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/LibKey/pkg/core"
)

// Config holds filtering configuration
type Config struct {
	TopN            int      // Keep only top N most intense peaks (0 = no limit)
	IntensityCutoff float64  // Keep only peaks at or above this % of base peak (0 = no cutoff)
	CommentPrefixes []string // Keep only peaks whose comment starts with one of these (nil = all)
	OldModMass      float64  // Peptide modification mass whose fragments are shifted
	NewModMass      float64  // Mass that replaces OldModMass
}

// Apply applies all configured filters to a molecule's spectrum. Peaks are
// sorted by m/z afterwards.
func (c *Config) Apply(m *core.Molecule) error {
	if len(c.CommentPrefixes) > 0 {
		c.filterByComment(m)
	}

	if c.IntensityCutoff > 0 {
		c.filterByIntensity(m)
	}

	if c.TopN > 0 {
		c.filterTopN(m)
	}

	if c.OldModMass != 0 && c.NewModMass != 0 {
		if err := c.adjustFragmentMasses(m); err != nil {
			return err
		}
	}

	m.SortPeaks()
	return nil
}

// filterByComment keeps peaks annotated with one of the configured prefixes.
// Peaks that only carry their default mass comment never match.
func (c *Config) filterByComment(m *core.Molecule) {
	var filtered []core.SpectrumPeak
	for _, peak := range m.Spectrum {
		if matchesPrefix(peak, c.CommentPrefixes) {
			filtered = append(filtered, peak)
		}
	}
	m.Spectrum = filtered
}

func matchesPrefix(peak core.SpectrumPeak, prefixes []string) bool {
	if peak.HasDefaultComment() {
		return false
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(peak.Comment, prefix) {
			return true
		}
	}
	return false
}

// filterByIntensity removes peaks below the cutoff percentage of the base peak
func (c *Config) filterByIntensity(m *core.Molecule) {
	if len(m.Spectrum) == 0 {
		return
	}

	threshold := (c.IntensityCutoff / 100.0) * m.BasePeakIntensity()

	var filtered []core.SpectrumPeak
	for _, peak := range m.Spectrum {
		if peak.Intensity >= threshold {
			filtered = append(filtered, peak)
		}
	}
	m.Spectrum = filtered
}

// filterTopN keeps only the N most intense peaks. Ties keep input order.
func (c *Config) filterTopN(m *core.Molecule) {
	if len(m.Spectrum) <= c.TopN {
		return
	}

	peaks := make([]core.SpectrumPeak, len(m.Spectrum))
	copy(peaks, m.Spectrum)

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].Intensity > peaks[j].Intensity
	})

	m.Spectrum = peaks[:c.TopN]
}

// adjustFragmentMasses shifts b and y fragments that carry a modification of
// OldModMass by the difference to NewModMass, divided by fragment charge.
func (c *Config) adjustFragmentMasses(m *core.Molecule) error {
	if m.Peptide == nil || len(m.Peptide.Modifications) == 0 {
		return nil
	}

	deltaMass := c.NewModMass - c.OldModMass
	seqLen := len(m.Peptide.Sequence)

	for i := range m.Spectrum {
		peak := &m.Spectrum[i]
		if peak.HasDefaultComment() {
			continue
		}

		ion, err := parseIonAnnotation(peak.Comment)
		if err != nil {
			continue
		}

		for _, mod := range m.Peptide.Modifications {
			if math.Abs(mod.Mass-c.OldModMass) > 1e-6 {
				continue
			}

			shift := false
			switch ion.ionType {
			case "b":
				// b_n holds residues 0..n-1
				shift = mod.Position < ion.position
			case "y":
				// y_n holds the last n residues
				shift = mod.Position >= seqLen-ion.position
			}

			if shift {
				peak.Mass += deltaMass / float64(ion.charge)
			}
		}
	}

	return nil
}

// ionAnnotation stores a parsed fragment annotation
type ionAnnotation struct {
	ionType  string
	position int
	charge   int
}

var ionAnnotationPattern = regexp.MustCompile(`^([by])(\d+)(?:\^(\d+))?`)

// parseIonAnnotation parses annotations like "y3", "b2^2", "y10^3"
func parseIonAnnotation(annotation string) (*ionAnnotation, error) {
	matches := ionAnnotationPattern.FindStringSubmatch(annotation)
	if matches == nil {
		return nil, fmt.Errorf("invalid ion annotation format: %s", annotation)
	}

	info := &ionAnnotation{ionType: matches[1], charge: 1}

	position, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, fmt.Errorf("invalid position in annotation %s: %w", annotation, err)
	}
	info.position = position

	if matches[3] != "" {
		charge, err := strconv.Atoi(matches[3])
		if err != nil || charge == 0 {
			return nil, fmt.Errorf("invalid charge in annotation %s", annotation)
		}
		info.charge = charge
	}

	return info, nil
}

// RemoveZeroIntensityPeaks removes peaks with zero or negative intensity
func RemoveZeroIntensityPeaks(m *core.Molecule) {
	var filtered []core.SpectrumPeak
	for _, peak := range m.Spectrum {
		if peak.Intensity > 0 {
			filtered = append(filtered, peak)
		}
	}
	m.Spectrum = filtered
}
