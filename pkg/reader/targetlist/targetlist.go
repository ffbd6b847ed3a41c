// Package targetlist reads tab-separated target lists of compounds to screen
// for. Any malformed row rejects the whole list.
package targetlist

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/LibKey/pkg/core"
	"github.com/ChrisMcGann/LibKey/pkg/isotope"
	"github.com/ChrisMcGann/LibKey/pkg/reader/textio"
)

// Column positions. Only name and precursor m/z are required.
const (
	colName = iota
	colMz
	colRT
	colAdduct
	colInChIKey
	colFormula
	colSMILES
	colOntology
	colCCS
)

// isotopeOffsets is the number of isotopic peaks computed past M+0.
const isotopeOffsets = 2

// HelpText is appended to every ReportError.
const HelpText = `Target list format (tab-separated, first row is a header):
Name	Precursor m/z	RT (min)	Adduct	InChIKey	Formula	SMILES	Ontology	CCS
Glucose	203.0526	5.2	[M+Na]+	WQZGKKKJIJFFOK-GASJEMHNSA-N	C6H12O6	OCC1OC(O)C(O)C(O)C1O	Hexoses	150.3
Name and precursor m/z are required; the remaining columns may be empty.`

// Options configures Read.
type Options struct {
	// IonMode picks the default adduct: [M+H]+ or [M-H]-.
	IonMode core.IonMode
}

// ReportError carries one message per rejected row.
type ReportError struct {
	Messages []string
}

func (e *ReportError) Error() string {
	var b strings.Builder
	for _, msg := range e.Messages {
		b.WriteString(msg)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(HelpText)
	return b.String()
}

// Read parses a target list. Rows that fail are reported and skipped; if any
// row failed or none succeeded the result is nil and the error is a
// *ReportError. I/O errors are returned as they are.
func Read(r io.Reader, table *isotope.Table, opts Options) ([]*core.Molecule, error) {
	if table == nil {
		return nil, fmt.Errorf("target list: isotope table is required")
	}

	scanner := textio.NewScanner(r)

	// Skip header line
	scanner.Scan()

	var (
		out      []*core.Molecule
		messages []string
	)
	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		m, err := parseRow(strings.Split(line, "\t"), table, opts)
		if err != nil {
			messages = append(messages, fmt.Sprintf("line %d: %v", lineNum, err))
			continue
		}
		m.ScanID = len(out)
		out = append(out, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading target list: %w", err)
	}

	if len(messages) > 0 || len(out) == 0 {
		if len(messages) == 0 {
			messages = append(messages, "no valid target rows")
		}
		return nil, &ReportError{Messages: messages}
	}
	return out, nil
}

func column(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func parseRow(fields []string, table *isotope.Table, opts Options) (*core.Molecule, error) {
	m := core.NewMolecule("txt")
	m.IonMode = opts.IonMode

	m.Name = column(fields, colName)
	if m.Name == "" {
		return nil, fmt.Errorf("name is empty")
	}

	mzStr := column(fields, colMz)
	mz, err := strconv.ParseFloat(mzStr, 64)
	if err != nil {
		return nil, fmt.Errorf("precursor m/z '%s' of %s is not a number", mzStr, m.Name)
	}
	if math.IsNaN(mz) || math.IsInf(mz, 0) {
		return nil, fmt.Errorf("precursor m/z '%s' of %s is not a finite number", mzStr, m.Name)
	}
	if mz < 0 {
		return nil, fmt.Errorf("precursor m/z %g of %s is negative", mz, m.Name)
	}
	m.PrecursorMz = mz

	rt := -1.0
	if v := column(fields, colRT); v != "" {
		if f, ok := parseFinite(v); ok {
			rt = f
		}
	}
	m.ChromXs = core.NewChromXs(rt, -1, -1)

	// An explicit adduct decides the polarity; the option only picks the
	// default adduct.
	m.AdductType = column(fields, colAdduct)
	if m.AdductType == "" {
		m.AdductType = defaultAdduct(opts.IonMode)
	}
	m.PrecursorCharge = core.AdductCharge(m.AdductType)
	if mode := core.AdductIonMode(m.AdductType); mode != core.IonModeUnknown {
		m.IonMode = mode
	}

	m.InChIKey = column(fields, colInChIKey)
	m.SMILES = column(fields, colSMILES)
	m.Ontology = column(fields, colOntology)

	if v := column(fields, colFormula); v != "" {
		f, err := isotope.ParseFormula(v)
		if err != nil {
			return nil, fmt.Errorf("formula of %s: %w", m.Name, err)
		}
		peaks, err := table.IsotopicPeaks(f, isotopeOffsets)
		if err != nil {
			return nil, fmt.Errorf("formula of %s: %w", m.Name, err)
		}
		m.Formula = f.String()
		m.IsotopicPeaks = peaks
	}

	if v := column(fields, colCCS); v != "" {
		if f, ok := parseFinite(v); ok {
			m.CollisionCrossSection = f
		}
	}

	return m, nil
}

func defaultAdduct(mode core.IonMode) string {
	if mode == core.Negative {
		return "[M-H]-"
	}
	return "[M+H]+"
}

// parseFinite parses an optional numeric column; NaN and infinities count as
// unparseable.
func parseFinite(v string) (float64, bool) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
