// Package mgf provides a streaming reader for Mascot Generic Format files.
package mgf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/LibKey/pkg/core"
	"github.com/ChrisMcGann/LibKey/pkg/reader/textio"
)

const (
	beginIons = "BEGIN IONS"
	endIons   = "END IONS"
)

// Reader provides streaming access to MGF files.
type Reader struct {
	scanner *bufio.Scanner
	lineNum int
	count   int
	current *core.Molecule
	err     error
}

// NewReader creates a new MGF reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: textio.NewScanner(r)}
}

// Next advances to the next spectrum. Returns false when no more spectra or error.
func (r *Reader) Next() bool {
	r.current = nil

	m, err := r.readMolecule()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.current = m
	return true
}

// Molecule returns the current spectrum.
func (r *Reader) Molecule() *core.Molecule {
	return r.current
}

// Err returns any error encountered during reading.
func (r *Reader) Err() error {
	return r.err
}

// ReadAll reads every BEGIN IONS block of an MGF stream.
func ReadAll(r io.Reader) ([]*core.Molecule, error) {
	reader := NewReader(r)
	var out []*core.Molecule
	for reader.Next() {
		out = append(out, reader.Molecule())
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Reader) scan() (string, bool) {
	if !r.scanner.Scan() {
		return "", false
	}
	r.lineNum++
	return strings.TrimSpace(r.scanner.Text()), true
}

func (r *Reader) readMolecule() (*core.Molecule, error) {
	started := false
	for !started {
		line, ok := r.scan()
		if !ok {
			if err := r.scanner.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		started = strings.EqualFold(line, beginIons)
	}

	m := core.NewMolecule("mgf")
	m.MsLevel = 2

	for {
		line, ok := r.scan()
		if !ok {
			break
		}
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if strings.EqualFold(line, endIons) {
			break
		}

		if key, value, isField := strings.Cut(line, "="); isField && !startsWithDigit(line) {
			applyField(m, strings.ToUpper(strings.TrimSpace(key)), strings.TrimSpace(value))
			continue
		}

		peak, err := parsePeak(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
		}
		peak.PeakID = len(m.Spectrum)
		m.Spectrum = append(m.Spectrum, peak)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	m.ChromXs = core.NewChromXs(m.ChromXs.RT, m.ChromXs.RI, m.ChromXs.Drift)
	if m.IonMode == core.IonModeUnknown {
		m.IonMode = core.AdductIonMode(m.AdductType)
	}
	m.SortPeaks()
	m.ScanID = r.count
	r.count++
	return m, nil
}

func startsWithDigit(s string) bool {
	return s != "" && (s[0] >= '0' && s[0] <= '9' || s[0] == '.')
}

// parsePeak reads "mz intensity [charge]".
func parsePeak(line string) (core.SpectrumPeak, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return core.SpectrumPeak{}, fmt.Errorf("invalid peak line '%s', expected 'mz intensity [charge]'", line)
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.SpectrumPeak{}, fmt.Errorf("invalid m/z value: %w", err)
	}
	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.SpectrumPeak{}, fmt.Errorf("invalid intensity value: %w", err)
	}

	peak := core.NewSpectrumPeak(mz, intensity, "")
	if len(fields) >= 3 {
		if charge, _, ok := parseCharge(fields[2]); ok {
			peak.Charge = charge
		}
	}
	return peak, nil
}

// parseCharge reads "2+", "1-", "+2" or "3". The mode is unknown when the
// value has no sign.
func parseCharge(s string) (int, core.IonMode, bool) {
	s = strings.TrimSpace(s)
	// Multiple charges ("2+ and 3+") keep the first.
	if i := strings.IndexAny(s, " ,"); i > 0 {
		s = s[:i]
	}
	mode := core.IonModeUnknown
	switch {
	case strings.HasSuffix(s, "+") || strings.HasPrefix(s, "+"):
		mode = core.Positive
	case strings.HasSuffix(s, "-") || strings.HasPrefix(s, "-"):
		mode = core.Negative
	}
	n, err := strconv.Atoi(strings.Trim(s, "+-"))
	if err != nil {
		return 0, mode, false
	}
	return n, mode, true
}

// applyField sets one KEY=VALUE line. Values that do not parse are ignored.
func applyField(m *core.Molecule, key, value string) {
	switch key {
	case "TITLE":
		if m.Name == "" {
			m.Name = value
		}
	case "NAME":
		m.Name = value
	case "PEPMASS", "PRECURSORMZ":
		// PEPMASS may carry the precursor intensity as a second token.
		if f, err := strconv.ParseFloat(firstToken(value), 64); err == nil {
			m.PrecursorMz = f
		}
	case "RTINSECONDS":
		if f, err := strconv.ParseFloat(firstToken(value), 64); err == nil {
			m.ChromXs.RT = f / 60
		}
	case "RTINMINUTES", "RETENTIONTIME":
		if f, err := strconv.ParseFloat(firstToken(value), 64); err == nil {
			m.ChromXs.RT = f
		}
	case "RETENTIONINDEX":
		if f, err := strconv.ParseFloat(firstToken(value), 64); err == nil {
			m.ChromXs.RI = f
		}
	case "CHARGE":
		if n, mode, ok := parseCharge(value); ok {
			m.PrecursorCharge = n
			if mode != core.IonModeUnknown {
				m.IonMode = mode
			}
		}
	case "IONMODE":
		if mode, ok := core.ParseIonMode(value); ok {
			m.IonMode = mode
		}
	case "MSLEVEL":
		if n, err := strconv.Atoi(value); err == nil {
			m.MsLevel = n
		}
	case "SMILES":
		m.SMILES = value
	case "INCHIKEY":
		m.InChIKey = value
	case "FORMULA":
		m.Formula = value
	case "SPECTRUMID":
		m.SpectrumID = value
	case "SCANS", "SCAN":
		if m.SpectrumID == "" {
			m.SpectrumID = value
		}
	case "ADDUCT", "PRECURSORTYPE", "PRECURSOR_TYPE":
		m.AdductType = value
		if m.PrecursorCharge == 0 {
			m.PrecursorCharge = core.AdductCharge(value)
		}
	case "COLLISIONENERGY", "COLLISION_ENERGY":
		if f, err := strconv.ParseFloat(firstToken(value), 64); err == nil {
			m.CollisionEnergy = f
		}
	case "CCS":
		if f, err := strconv.ParseFloat(firstToken(value), 64); err == nil {
			m.CollisionCrossSection = f
		}
	case "COMPOUNDCLASS":
		m.CompoundClass = value
	case "ONTOLOGY":
		m.Ontology = value
	case "INSTRUMENT":
		m.Instrument = value
	case "SOURCE_INSTRUMENT", "INSTRUMENTTYPE":
		m.InstrumentType = value
	}
}

func firstToken(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}
