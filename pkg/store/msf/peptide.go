package msf

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/LibKey/pkg/core"
)

// PeptideIndex pairs the spectrum and residue seekpoints of one peptide.
type PeptideIndex struct {
	Index
	Sequence         string
	Charge           int
	ResidueSeekpoint int64
}

// PeptideWriter writes a spectra store and a residue store side by side.
// Entry i of both files always belongs to the same peptide.
type PeptideWriter struct {
	spectra  *Writer
	residues *sink
}

// CreatePeptide creates both files and writes their version tags.
func CreatePeptide(spectraPath, residuePath string) (*PeptideWriter, error) {
	spectra, err := Create(spectraPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Create(residuePath)
	if err != nil {
		spectra.Close()
		return nil, fmt.Errorf("failed to create residue store: %w", err)
	}
	residues, err := newSink(file, file)
	if err != nil {
		spectra.Close()
		file.Close()
		return nil, err
	}
	return &PeptideWriter{spectra: spectra, residues: residues}, nil
}

// Write appends the peaks and residues of m. A precursor m/z of 0 is
// computed from the sequence, charge and modifications.
func (w *PeptideWriter) Write(m *core.Molecule) (PeptideIndex, error) {
	var pep core.Peptide
	if m.Peptide != nil {
		pep = *m.Peptide
	}

	entry, err := w.spectra.Write(m)
	if err != nil {
		return PeptideIndex{}, err
	}
	if entry.PrecursorMz == 0 && pep.Sequence != "" {
		entry.PrecursorMz = core.CalculatePeptideMass(pep.Sequence, pep.Charge, pep.Modifications)
	}

	residueSeekpoint, err := w.residues.write(encodeResidues(pep.Sequence))
	if err != nil {
		return PeptideIndex{}, fmt.Errorf("failed to write residues of %s: %w", m.Label(), err)
	}

	return PeptideIndex{
		Index:            entry,
		Sequence:         pep.Sequence,
		Charge:           pep.Charge,
		ResidueSeekpoint: residueSeekpoint,
	}, nil
}

// WriteAll writes molecules in order.
func (w *PeptideWriter) WriteAll(molecules []*core.Molecule) ([]PeptideIndex, error) {
	index := make([]PeptideIndex, 0, len(molecules))
	for _, m := range molecules {
		entry, err := w.Write(m)
		if err != nil {
			return index, err
		}
		index = append(index, entry)
	}
	return index, nil
}

// Close flushes and closes both files.
func (w *PeptideWriter) Close() error {
	err := w.spectra.Close()
	if rerr := w.residues.close(); err == nil {
		err = rerr
	}
	return err
}
