package sqlite

import (
	"database/sql"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/ChrisMcGann/LibKey/pkg/core"
	"github.com/ChrisMcGann/LibKey/pkg/isotope"
)

func TestWriteMolecule(t *testing.T) {
	table, err := isotope.Default()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "library.db")

	w, err := NewWriter(path, table)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	m := core.NewMolecule("msp")
	m.Name = "Glucose"
	m.Formula = "C6H12O6"
	m.SMILES = "OCC1OC(O)C(O)C(O)C1O"
	m.InChIKey = "WQZGKKKJIJFFOK-GASJEMHNSA-N"
	m.CompoundClass = "Hexoses"
	m.AdductType = "[M-H]-"
	m.IonMode = core.Negative
	m.PrecursorMz = 179.0561
	m.ChromXs = core.NewChromXs(5.2, -1, -1)
	m.Spectrum = []core.SpectrumPeak{
		core.NewSpectrumPeak(89.0244, 100, ""),
		core.NewSpectrumPeak(59.0139, 40, ""),
	}
	if err := w.WriteMolecule(m); err != nil {
		t.Fatalf("WriteMolecule() error = %v", err)
	}

	pep := core.NewMolecule("msp")
	pep.Name = "PEPTIDE/2"
	pep.Peptide = &core.Peptide{Sequence: "PEPTIDE", Charge: 2}
	pep.IonMode = core.Positive
	if err := w.WriteMolecule(pep); err != nil {
		t.Fatalf("WriteMolecule(peptide) error = %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var (
		formula, smiles, inchikey, class string
		polarity, ionType                string
		rt                               sql.NullFloat64
		neutral                          sql.NullFloat64
		blobMass                         []byte
	)
	err = db.QueryRow(`
		SELECT c.Formula, c.SmilesDescription, c.InChiKey, c.CompoundClass,
		       s.Polarity, s.PrecursorIonType, s.RetentionTime, s.NeutralMass, s.blobMass
		FROM CompoundTable c JOIN SpectrumTable s ON s.CompoundId = c.CompoundId
		WHERE c.CompoundId = 1`).Scan(&formula, &smiles, &inchikey, &class, &polarity, &ionType, &rt, &neutral, &blobMass)
	if err != nil {
		t.Fatalf("query error = %v", err)
	}

	if formula != "C6H12O6" || smiles != m.SMILES || inchikey != m.InChIKey || class != "Hexoses" {
		t.Errorf("compound row = %q %q %q %q", formula, smiles, inchikey, class)
	}
	if polarity != "-" || ionType != "[M-H]-" {
		t.Errorf("polarity = %q, ion type = %q", polarity, ionType)
	}
	if !rt.Valid || rt.Float64 != 5.2 {
		t.Errorf("retention time = %+v", rt)
	}
	if !neutral.Valid || math.Abs(neutral.Float64-180.063388) > 1e-3 {
		t.Errorf("neutral mass = %+v", neutral)
	}

	// peaks were sorted before encoding
	if len(blobMass) != 16 {
		t.Fatalf("blobMass has %d bytes, want 16", len(blobMass))
	}
	first := math.Float64frombits(binary.LittleEndian.Uint64(blobMass))
	if first != 59.0139 {
		t.Errorf("first mass = %v, want 59.0139", first)
	}

	var sequence string
	if err := db.QueryRow(`SELECT Sequence FROM CompoundTable WHERE CompoundId = 2`).Scan(&sequence); err != nil {
		t.Fatal(err)
	}
	if sequence != "PEPTIDE" {
		t.Errorf("sequence = %q", sequence)
	}
}
