// Package msp writes molecules as MS-DIAL style MSP text.
package msp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/LibKey/pkg/core"
)

// Writer writes MSP records
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates an MSP writer. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// recordComment keeps the text before the first ';'.
func recordComment(comment string) string {
	if i := strings.IndexByte(comment, ';'); i >= 0 {
		comment = comment[:i]
	}
	return strings.TrimSpace(comment)
}

// WriteMolecule writes one record followed by a blank line.
func (w *Writer) WriteMolecule(m *core.Molecule) error {
	var b strings.Builder

	field := func(key, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", key, value)
		}
	}
	number := func(key string, v float64) {
		if v >= 0 {
			field(key, formatFloat(v))
		}
	}

	field("NAME", m.Name)
	if m.PrecursorMz > 0 {
		field("PRECURSORMZ", formatFloat(m.PrecursorMz))
	}
	field("PRECURSORTYPE", m.AdductType)
	if m.IonMode != core.IonModeUnknown {
		field("IONMODE", m.IonMode.String())
	}
	number("RETENTIONTIME", m.ChromXs.RT)
	number("RETENTIONINDEX", m.ChromXs.RI)
	number("DRIFTTIME", m.ChromXs.Drift)
	number("CCS", m.CollisionCrossSection)
	number("COLLISIONENERGY", m.CollisionEnergy)
	field("FORMULA", m.Formula)
	field("SMILES", m.SMILES)
	field("INCHIKEY", m.InChIKey)
	field("ONTOLOGY", m.Ontology)
	field("COMPOUNDCLASS", m.CompoundClass)
	field("INSTRUMENTTYPE", m.InstrumentType)
	field("INSTRUMENT", m.Instrument)
	field("LINKS", m.Links)
	if m.MsLevel > 0 {
		field("MSLEVEL", strconv.Itoa(m.MsLevel))
	}
	field("COMMENT", recordComment(m.Comment))

	fmt.Fprintf(&b, "Num Peaks: %d\n", len(m.Spectrum))
	for _, p := range m.Spectrum {
		b.WriteString(formatFloat(p.Mass))
		b.WriteByte('\t')
		b.WriteString(formatFloat(p.Intensity))
		if !p.HasDefaultComment() {
			fmt.Fprintf(&b, "\t\"%s\"", strings.ReplaceAll(p.Comment, "\"", ""))
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	if _, err := w.w.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to write %s: %w", m.Label(), err)
	}
	return nil
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// WriteAll writes molecules to w in order and flushes.
func WriteAll(w io.Writer, molecules []*core.Molecule) error {
	mw := NewWriter(w)
	for _, m := range molecules {
		if err := mw.WriteMolecule(m); err != nil {
			return err
		}
	}
	return mw.Flush()
}
