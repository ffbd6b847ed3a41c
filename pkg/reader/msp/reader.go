// Package msp provides streaming readers for MSP format spectral libraries,
// including the MS-DIAL, NIST, MoNA and LipidBlast dialects.
package msp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/LibKey/pkg/core"
	"github.com/ChrisMcGann/LibKey/pkg/reader/textio"
)

// Reader provides streaming access to MSP format files
type Reader struct {
	scanner      *bufio.Scanner
	modDB        *core.ModDatabase
	sourceFormat string
	lineNum      int
	pending      string
	hasPending   bool
	count        int
	current      *core.Molecule
	err          error
}

// NewReader creates a new MSP reader. modDB resolves peptide modification
// names and may be nil.
func NewReader(r io.Reader, modDB *core.ModDatabase) *Reader {
	if modDB == nil {
		modDB = core.DefaultModDatabase()
	}

	return &Reader{
		scanner:      textio.NewScanner(r),
		modDB:        modDB,
		sourceFormat: "msp",
	}
}

// SetSourceFormat changes the SourceFormat stamped on each molecule.
func (r *Reader) SetSourceFormat(format string) {
	r.sourceFormat = format
}

// Next advances to the next molecule. Returns false when no more molecules or error.
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

// Molecule returns the current molecule
func (r *Reader) Molecule() *core.Molecule {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ReadAll reads every molecule of an MSP stream in file order. A malformed
// peak aborts the whole read.
func ReadAll(r io.Reader, modDB *core.ModDatabase) ([]*core.Molecule, error) {
	reader := NewReader(r, modDB)
	var out []*core.Molecule
	for reader.Next() {
		out = append(out, reader.Molecule())
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Reader) readLine() (string, bool) {
	if r.hasPending {
		r.hasPending = false
		return r.pending, true
	}
	if !r.scanner.Scan() {
		return "", false
	}
	r.lineNum++
	return strings.TrimSpace(r.scanner.Text()), true
}

func (r *Reader) unreadLine(line string) {
	r.pending = line
	r.hasPending = true
}

// readMolecule reads one record: a NAME line, header fields and an optional
// peak block, up to a blank line, the next NAME line or EOF.
func (r *Reader) readMolecule() (*core.Molecule, error) {
	var m *core.Molecule
	for m == nil {
		line, ok := r.readLine()
		if !ok {
			if err := r.scanner.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		if hasPrefix(line, namePrefix) {
			m = core.NewMolecule(r.sourceFormat)
			m.Name = fieldValue(line)
		}
	}

	for {
		line, ok := r.readLine()
		if !ok || line == "" {
			break
		}
		if hasPrefix(line, namePrefix) {
			r.unreadLine(line)
			break
		}

		if hasPrefix(line, numPeaksPrefix) {
			n, err := strconv.Atoi(fieldValue(line))
			if err != nil {
				continue
			}
			peaks, recordDone, err := r.readPeaks(n)
			if err != nil {
				return nil, err
			}
			m.Spectrum = peaks
			if recordDone {
				break
			}
			continue
		}

		applyField(m, line)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	r.finish(m)
	return m, nil
}

// readPeaks feeds lines to a PeakBlock until n peaks are read. recordDone
// is true when a blank line or a new record cut the block short.
func (r *Reader) readPeaks(n int) (peaks []core.SpectrumPeak, recordDone bool, err error) {
	block := NewPeakBlock(n)
	for !block.Full() {
		line, ok := r.readLine()
		if !ok || line == "" {
			return block.Peaks(), true, nil
		}
		if hasPrefix(line, namePrefix) {
			r.unreadLine(line)
			return block.Peaks(), true, nil
		}
		if err := block.Feed(line); err != nil {
			return nil, false, fmt.Errorf("line %d: %w", r.lineNum, err)
		}
	}
	return block.Peaks(), false, nil
}

// finish derives the fields that depend on the whole record.
func (r *Reader) finish(m *core.Molecule) {
	parsePeptide(m, r.modDB)

	m.ChromXs = core.NewChromXs(m.ChromXs.RT, m.ChromXs.RI, m.ChromXs.Drift)
	if m.IonMode == core.IonModeUnknown {
		m.IonMode = core.AdductIonMode(m.AdductType)
	}
	m.SortPeaks()

	m.ScanID = r.count
	r.count++
}
