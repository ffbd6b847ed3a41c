package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// IonMode is the polarity a spectrum was acquired in.
type IonMode int

const (
	IonModeUnknown IonMode = iota
	Positive
	Negative
)

func (m IonMode) String() string {
	switch m {
	case Positive:
		return "Positive"
	case Negative:
		return "Negative"
	default:
		return "Unknown"
	}
}

// Polarity returns "+" or "-", or "" when the mode is unknown.
func (m IonMode) Polarity() string {
	switch m {
	case Positive:
		return "+"
	case Negative:
		return "-"
	default:
		return ""
	}
}

// ParseIonMode accepts the spellings found in MSP, MoNA and MGF files.
// The second result is false when the value names no polarity.
func ParseIonMode(s string) (IonMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive", "pos", "p", "+", "positive mode":
		return Positive, true
	case "negative", "neg", "n", "-", "negative mode":
		return Negative, true
	}
	return IonModeUnknown, false
}

// AdductIonMode derives the polarity from the trailing sign of an adduct
// string such as "[M+H]+" or "[M-2H]2-".
func AdductIonMode(adduct string) IonMode {
	adduct = strings.TrimSpace(adduct)
	if adduct == "" {
		return IonModeUnknown
	}
	switch adduct[len(adduct)-1] {
	case '+':
		return Positive
	case '-':
		return Negative
	}
	return IonModeUnknown
}

// AdductCharge returns the charge magnitude of an adduct: 2 for "[M-2H]2-",
// 1 for "[M+H]+", 0 when the adduct carries no sign.
func AdductCharge(adduct string) int {
	adduct = strings.TrimSpace(adduct)
	if AdductIonMode(adduct) == IonModeUnknown {
		return 0
	}
	body := adduct[:len(adduct)-1]
	i := len(body)
	for i > 0 && body[i-1] >= '0' && body[i-1] <= '9' {
		i--
	}
	if i == len(body) || i == 0 || body[i-1] != ']' {
		return 1
	}
	n, err := strconv.Atoi(body[i:])
	if err != nil || n == 0 {
		return 1
	}
	return n
}

// ChromType names the primary axis of a ChromXs.
type ChromType int

const (
	ChromNone ChromType = iota
	ChromRT
	ChromRI
	ChromDrift
)

func (c ChromType) String() string {
	switch c {
	case ChromRT:
		return "RT"
	case ChromRI:
		return "RI"
	case ChromDrift:
		return "Drift"
	default:
		return "None"
	}
}

// ChromXs holds retention time (minutes), retention index and drift time.
// Unset values are -1.
type ChromXs struct {
	RT       float64
	RI       float64
	Drift    float64
	MainType ChromType
}

// NewChromXs builds a ChromXs whose main axis is the first set value in the
// order RT, RI, drift time.
func NewChromXs(rt, ri, drift float64) ChromXs {
	c := ChromXs{RT: rt, RI: ri, Drift: drift}
	switch {
	case rt >= 0:
		c.MainType = ChromRT
	case ri >= 0:
		c.MainType = ChromRI
	case drift >= 0:
		c.MainType = ChromDrift
	}
	return c
}

// UnsetChromXs returns a ChromXs with every axis unset.
func UnsetChromXs() ChromXs {
	return NewChromXs(-1, -1, -1)
}

// Value returns the value of the main axis, or -1.
func (c ChromXs) Value() float64 {
	switch c.MainType {
	case ChromRT:
		return c.RT
	case ChromRI:
		return c.RI
	case ChromDrift:
		return c.Drift
	}
	return -1
}

// IsotopicPeak is one entry of a theoretical isotope pattern; M+0 has a
// relative abundance of 1.
type IsotopicPeak struct {
	Offset            int
	Mass              float64
	RelativeAbundance float64
}

// Peptide is the sequence-level identity of a peptide spectrum.
type Peptide struct {
	Sequence      string
	Charge        int
	Modifications []Modification
}

// Molecule is a reference compound with its MS/MS spectrum, as read from a
// spectral library.
type Molecule struct {
	ScanID int
	Name   string

	Formula       string
	SMILES        string
	InChIKey      string
	CompoundClass string
	Ontology      string

	AdductType            string
	IonMode               IonMode
	PrecursorMz           float64
	PrecursorCharge       int
	CollisionEnergy       float64 // -1 if unknown
	CollisionCrossSection float64 // -1 if unknown

	ChromXs ChromXs

	Spectrum      []SpectrumPeak
	IsotopicPeaks []IsotopicPeak

	Comment        string
	InstrumentType string
	Instrument     string
	Links          string
	SpectrumType   string
	SpectrumID     string
	MsLevel        int

	Peptide *Peptide

	SourceFormat string // msp, lbm, mgf, txt
}

// NewMolecule returns a molecule with every numeric sentinel set to -1.
func NewMolecule(sourceFormat string) *Molecule {
	return &Molecule{
		CollisionEnergy:       -1,
		CollisionCrossSection: -1,
		ChromXs:               UnsetChromXs(),
		SourceFormat:          sourceFormat,
	}
}

// ValidationError represents an error found during molecule validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks that a molecule can be exported.
func (m *Molecule) Validate() error {
	var errs []string

	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, "name is required")
	}
	if math.IsNaN(m.PrecursorMz) || math.IsInf(m.PrecursorMz, 0) || m.PrecursorMz < 0 {
		errs = append(errs, "precursor m/z must be a non-negative number")
	}

	for i, peak := range m.Spectrum {
		if math.IsNaN(peak.Mass) || math.IsInf(peak.Mass, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid m/z", i))
		}
		if math.IsNaN(peak.Intensity) || math.IsInf(peak.Intensity, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid intensity", i))
		}
		if peak.Mass < 0 {
			errs = append(errs, fmt.Sprintf("peak %d m/z must be non-negative", i))
		}
		if peak.Intensity < 0 {
			errs = append(errs, fmt.Sprintf("peak %d intensity must be non-negative", i))
		}
	}

	if !m.ArePeaksSorted() {
		errs = append(errs, "peaks must be sorted by m/z")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   m.Label(),
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// ArePeaksSorted checks if peaks are sorted by m/z in ascending order.
func (m *Molecule) ArePeaksSorted() bool {
	for i := 1; i < len(m.Spectrum); i++ {
		if m.Spectrum[i].Mass < m.Spectrum[i-1].Mass {
			return false
		}
	}
	return true
}

// SortPeaks sorts peaks by m/z in ascending order. Peaks of equal mass keep
// their input order.
func (m *Molecule) SortPeaks() {
	sort.SliceStable(m.Spectrum, func(i, j int) bool {
		return m.Spectrum[i].Mass < m.Spectrum[j].Mass
	})
}

// BasePeakIntensity returns the highest peak intensity, or 0.
func (m *Molecule) BasePeakIntensity() float64 {
	max := 0.0
	for _, p := range m.Spectrum {
		if p.Intensity > max {
			max = p.Intensity
		}
	}
	return max
}

// Label identifies the molecule in messages: "Name [adduct]" or the scan id.
func (m *Molecule) Label() string {
	name := m.Name
	if name == "" {
		name = fmt.Sprintf("#%d", m.ScanID)
	}
	if m.AdductType != "" {
		return fmt.Sprintf("%s %s", name, m.AdductType)
	}
	return name
}
