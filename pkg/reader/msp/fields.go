package msp

import (
	"strconv"
	"strings"

	"github.com/ChrisMcGann/LibKey/pkg/core"
)

// field binds a lower-case line prefix to the setter of one molecule field.
type field struct {
	prefix string
	set    func(m *core.Molecule, value string)
}

// fields is checked in order and the first matching prefix wins. Aliases
// cover NIST, MS-DIAL, LipidBlast and MoNA spellings.
var fields = []field{
	{"precursormz:", setPrecursorMz},
	{"precursor_m/z:", setPrecursorMz},
	{"precursortype:", setAdduct},
	{"precursor_type:", setAdduct},
	{"retentiontime:", setRT},
	{"retention_time:", setRT},
	{"rt:", setRT},
	{"retentionindex:", setRI},
	{"retention_index:", setRI},
	{"ri:", setRI},
	{"drifttime:", setDrift},
	{"formula:", func(m *core.Molecule, v string) { m.Formula = v }},
	{"smiles:", func(m *core.Molecule, v string) { m.SMILES = v }},
	{"inchikey:", func(m *core.Molecule, v string) { m.InChIKey = v }},
	{"ionmode:", setIonMode},
	{"ion_mode:", setIonMode},
	{"ionization:", setIonMode},
	{"compoundclass:", func(m *core.Molecule, v string) { m.CompoundClass = v }},
	{"ontology:", func(m *core.Molecule, v string) { m.Ontology = v }},
	{"comment:", func(m *core.Molecule, v string) { m.Comment = v }},
	{"comments:", setMonaComments},
	{"collisioncrosssection:", setCCS},
	{"ccs:", setCCS},
	{"collisionenergy:", setCollisionEnergy},
	{"collision_energy:", setCollisionEnergy},
	{"instrumenttype:", func(m *core.Molecule, v string) { m.InstrumentType = v }},
	{"instrument_type:", func(m *core.Molecule, v string) { m.InstrumentType = v }},
	{"instrument:", func(m *core.Molecule, v string) { m.Instrument = v }},
	{"links:", func(m *core.Molecule, v string) { m.Links = v }},
	{"mslevel:", setMsLevel},
	{"spectrum_type:", func(m *core.Molecule, v string) {
		m.SpectrumType = v
		setMsLevel(m, v)
	}},
}

const (
	namePrefix     = "name:"
	numPeaksPrefix = "num peaks:"
)

// hasPrefix matches a lower-case prefix case-insensitively.
func hasPrefix(line, prefix string) bool {
	return len(line) >= len(prefix) && strings.EqualFold(line[:len(prefix)], prefix)
}

// fieldValue returns the text after the first ':' with spaces trimmed.
func fieldValue(line string) string {
	_, v, _ := strings.Cut(line, ":")
	return strings.TrimSpace(v)
}

// applyField dispatches one header line; unknown lines are ignored.
func applyField(m *core.Molecule, line string) bool {
	for _, f := range fields {
		if hasPrefix(line, f.prefix) {
			f.set(m, fieldValue(line))
			return true
		}
	}
	return false
}

// parseLeadingFloat parses a number, tolerating a trailing unit ("35 eV",
// "5.2 min").
func parseLeadingFloat(v string) (float64, bool) {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f, true
	}
	parts := strings.Fields(v)
	if len(parts) == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimRight(parts[0], "%"), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// floatOrUnset parses v, returning -1 when it is not a number.
func floatOrUnset(v string) float64 {
	f, ok := parseLeadingFloat(v)
	if !ok {
		return -1
	}
	return f
}

func setPrecursorMz(m *core.Molecule, v string) {
	if f, ok := parseLeadingFloat(v); ok {
		m.PrecursorMz = f
	}
}

func setAdduct(m *core.Molecule, v string) {
	m.AdductType = v
	m.PrecursorCharge = core.AdductCharge(v)
}

func setRT(m *core.Molecule, v string)    { m.ChromXs.RT = floatOrUnset(v) }
func setRI(m *core.Molecule, v string)    { m.ChromXs.RI = floatOrUnset(v) }
func setDrift(m *core.Molecule, v string) { m.ChromXs.Drift = floatOrUnset(v) }

func setIonMode(m *core.Molecule, v string) {
	if mode, ok := core.ParseIonMode(v); ok {
		m.IonMode = mode
	}
}

func setCCS(m *core.Molecule, v string) {
	if f, ok := parseLeadingFloat(v); ok {
		m.CollisionCrossSection = f
	}
}

func setCollisionEnergy(m *core.Molecule, v string) {
	if f, ok := parseLeadingFloat(v); ok {
		m.CollisionEnergy = f
	}
}

func setMsLevel(m *core.Molecule, v string) {
	v = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(v)), "MS")
	if n, err := strconv.Atoi(v); err == nil {
		m.MsLevel = n
	}
}

// setMonaComments reads the quoted "key=value" pairs MoNA puts in its
// Comments line and fills identifiers the record does not have yet.
func setMonaComments(m *core.Molecule, v string) {
	if m.Comment == "" {
		m.Comment = v
	}
	parts := strings.Split(v, "\"")
	for i := 1; i < len(parts); i += 2 {
		key, value, ok := strings.Cut(parts[i], "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "smiles", "computed smiles":
			if m.SMILES == "" {
				m.SMILES = value
			}
		case "inchikey", "computed inchikey":
			if m.InChIKey == "" {
				m.InChIKey = value
			}
		case "formula", "molecular formula", "computed formula":
			if m.Formula == "" {
				m.Formula = value
			}
		case "retention time":
			if m.ChromXs.RT < 0 {
				m.ChromXs.RT = floatOrUnset(value)
			}
		}
	}
}
