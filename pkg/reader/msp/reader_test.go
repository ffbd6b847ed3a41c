package msp

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ChrisMcGann/LibKey/pkg/core"
)

func TestReadExampleRecord(t *testing.T) {
	in := `NAME: Test
PRECURSORMZ: 100.05
PRECURSORTYPE: [M+H]+
IONMODE: Positive
Num Peaks: 2
50.1 1000
100.05 500
`
	mols, err := ReadAll(strings.NewReader(in), nil)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(mols) != 1 {
		t.Fatalf("got %d molecules, want 1", len(mols))
	}

	m := mols[0]
	if m.Name != "Test" || m.PrecursorMz != 100.05 || m.IonMode != core.Positive || m.AdductType != "[M+H]+" {
		t.Errorf("unexpected header: %+v", m)
	}
	want := []core.SpectrumPeak{
		{Mass: 50.1, Intensity: 1000, Comment: "50.1", PeakID: 0},
		{Mass: 100.05, Intensity: 500, Comment: "100.05", PeakID: 1},
	}
	if diff := cmp.Diff(want, m.Spectrum); diff != "" {
		t.Errorf("spectrum mismatch (-want +got):\n%s", diff)
	}
	if m.ChromXs.MainType != core.ChromNone || m.ChromXs.RT != -1 {
		t.Errorf("ChromXs = %+v, want unset", m.ChromXs)
	}
}

func TestReadFields(t *testing.T) {
	in := `Name: PC 34:1
Formula: C42H82NO8P
SMILES: CCCC
InChIKey: JLPULHDHAOZNQI-ZTIMHPMXSA-N
CompoundClass: PC
Ontology: Phosphatidylcholine
RetentionTime: 12.5 min
RI: abc
PrecursorMZ: 760.5851
PrecursorType: [M+H]+
CollisionEnergy: 35 eV
CCS: 285.3
InstrumentType: LC-ESI-QTOF
Instrument: TripleTOF
Links: https://example.org
MSLEVEL: MS2
Comment: lipid; synthetic
Unrecognized: ignored
Num Peaks: 1
184.0733 999
`
	mols, err := ReadAll(strings.NewReader(in), nil)
	if err != nil {
		t.Fatal(err)
	}
	m := mols[0]

	checks := []struct {
		name      string
		got, want interface{}
	}{
		{"Name", m.Name, "PC 34:1"},
		{"Formula", m.Formula, "C42H82NO8P"},
		{"SMILES", m.SMILES, "CCCC"},
		{"InChIKey", m.InChIKey, "JLPULHDHAOZNQI-ZTIMHPMXSA-N"},
		{"CompoundClass", m.CompoundClass, "PC"},
		{"Ontology", m.Ontology, "Phosphatidylcholine"},
		{"RT", m.ChromXs.RT, 12.5},
		{"RI", m.ChromXs.RI, -1.0},
		{"MainType", m.ChromXs.MainType, core.ChromRT},
		{"PrecursorMz", m.PrecursorMz, 760.5851},
		{"IonMode from adduct", m.IonMode, core.Positive},
		{"PrecursorCharge", m.PrecursorCharge, 1},
		{"CollisionEnergy", m.CollisionEnergy, 35.0},
		{"CCS", m.CollisionCrossSection, 285.3},
		{"InstrumentType", m.InstrumentType, "LC-ESI-QTOF"},
		{"Instrument", m.Instrument, "TripleTOF"},
		{"Links", m.Links, "https://example.org"},
		{"MsLevel", m.MsLevel, 2},
		{"Comment", m.Comment, "lipid; synthetic"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestPeakTokenizer(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		lines []string
		want  []core.SpectrumPeak
	}{
		{
			name:  "tab separated with comment",
			n:     1,
			lines: []string{"184.0733\t999\t\"PC head group\""},
			want:  []core.SpectrumPeak{{Mass: 184.0733, Intensity: 999, Comment: "PC head group"}},
		},
		{
			name:  "fragment suffix dropped",
			n:     1,
			lines: []string{`86.0964 120 "[M-H2O]+_f_C5H12N"`},
			want:  []core.SpectrumPeak{{Mass: 86.0964, Intensity: 120, Comment: "[M-H2O]+"}},
		},
		{
			name:  "several peaks per line",
			n:     3,
			lines: []string{"50 10; 60 20;", "70:30"},
			want: []core.SpectrumPeak{
				{Mass: 50, Intensity: 10, Comment: "50", PeakID: 0},
				{Mass: 60, Intensity: 20, Comment: "60", PeakID: 1},
				{Mass: 70, Intensity: 30, Comment: "70", PeakID: 2},
			},
		},
		{
			name:  "pair split across lines",
			n:     1,
			lines: []string{"123.4", "567"},
			want:  []core.SpectrumPeak{{Mass: 123.4, Intensity: 567, Comment: "123.4"}},
		},
		{
			name:  "exponent intensity",
			n:     1,
			lines: []string{"99.5 1.5e+04"},
			want:  []core.SpectrumPeak{{Mass: 99.5, Intensity: 15000, Comment: "99.5"}},
		},
		{
			name:  "exponent marker without digits is a separator",
			n:     2,
			lines: []string{"5e+x 10", "6E 20"},
			want: []core.SpectrumPeak{
				{Mass: 5, Intensity: 10, Comment: "5", PeakID: 0},
				{Mass: 6, Intensity: 20, Comment: "6", PeakID: 1},
			},
		},
		{
			name:  "extra numbers ignored",
			n:     1,
			lines: []string{"10 20 30 40"},
			want:  []core.SpectrumPeak{{Mass: 10, Intensity: 20, Comment: "10"}},
		},
		{
			name:  "unterminated quote",
			n:     1,
			lines: []string{`10 20 "y3`},
			want:  []core.SpectrumPeak{{Mass: 10, Intensity: 20, Comment: "y3"}},
		},
		{
			name:  "quote before any peak is dropped",
			n:     1,
			lines: []string{`"orphan" 10 20`},
			want:  []core.SpectrumPeak{{Mass: 10, Intensity: 20, Comment: "10"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewPeakBlock(tt.n)
			for _, line := range tt.lines {
				if err := b.Feed(line); err != nil {
					t.Fatalf("Feed(%q) error = %v", line, err)
				}
			}
			if !b.Full() {
				t.Errorf("Full() = false after %d peaks", len(b.Peaks()))
			}
			if diff := cmp.Diff(tt.want, b.Peaks()); diff != "" {
				t.Errorf("peaks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMalformedPeakIsFatal(t *testing.T) {
	in := "NAME: A\nNum Peaks: 1\n1.2.3 100\n\nNAME: B\nNum Peaks: 0\n"
	mols, err := ReadAll(strings.NewReader(in), nil)
	if err == nil {
		t.Fatal("expected error for malformed peak")
	}
	if mols != nil {
		t.Errorf("got %d molecules alongside error", len(mols))
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error %q lacks line number", err)
	}
}

func TestSpectrumSortedAndCounted(t *testing.T) {
	in := `NAME: Unsorted
Num Peaks: 4
300 1
100 2
300 3
200 4
`
	mols, err := ReadAll(strings.NewReader(in), nil)
	if err != nil {
		t.Fatal(err)
	}
	spec := mols[0].Spectrum
	if len(spec) != 4 {
		t.Fatalf("got %d peaks, want 4", len(spec))
	}
	var masses, intensities []float64
	for _, p := range spec {
		masses = append(masses, p.Mass)
		intensities = append(intensities, p.Intensity)
	}
	if diff := cmp.Diff([]float64{100, 200, 300, 300}, masses); diff != "" {
		t.Errorf("masses (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{2, 4, 1, 3}, intensities); diff != "" {
		t.Errorf("ties not in input order (-want +got):\n%s", diff)
	}
}

func TestRecordBoundaries(t *testing.T) {
	in := `some preamble
NAME: First
IONMODE: Negative
Num Peaks: 2
10 1
NAME: Second
PRECURSORMZ: 50
Num Peaks: 1
20 2

ignored between records

NAME: Third
Num Peaks: 0
RT: 3.5
`
	mols, err := ReadAll(strings.NewReader(in), nil)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	var ids []int
	for _, m := range mols {
		names = append(names, m.Name)
		ids = append(ids, m.ScanID)
	}
	if diff := cmp.Diff([]string{"First", "Second", "Third"}, names); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, ids); diff != "" {
		t.Errorf("scan ids (-want +got):\n%s", diff)
	}
	if len(mols[0].Spectrum) != 1 || mols[0].IonMode != core.Negative {
		t.Errorf("First truncated block: %+v", mols[0])
	}
	if mols[1].PrecursorMz != 50 || len(mols[1].Spectrum) != 1 {
		t.Errorf("Second: %+v", mols[1])
	}
	if mols[2].ChromXs.RT != 3.5 || mols[2].ChromXs.MainType != core.ChromRT {
		t.Errorf("Third ChromXs: %+v", mols[2].ChromXs)
	}
}

func TestMonaRecord(t *testing.T) {
	in := `Name: Caffeine
Synon: $:00in-source
DB#: MoNA000001
Spectrum_type: MS2
Precursor_type: [M+H]+
Ion_mode: P
Collision_energy: 30 V
precursor_m/z: 195.0877
Instrument_type: LC-ESI-QTOF
Comments: "SMILES=CN1C=NC2=C1C(=O)N(C(=O)N2C)C" "InChIKey=RYYVLZVUVIJVGH-UHFFFAOYSA-N" "computed formula=C8H10N4O2" "retention time=2.1"
Num Peaks: 2
138.0662 100
195.0877 35.5
`
	mols, err := ReadAll(strings.NewReader(in), nil)
	if err != nil {
		t.Fatal(err)
	}
	m := mols[0]
	if m.PrecursorMz != 195.0877 || m.IonMode != core.Positive || m.MsLevel != 2 || m.CollisionEnergy != 30 {
		t.Errorf("header: %+v", m)
	}
	if m.SMILES != "CN1C=NC2=C1C(=O)N(C(=O)N2C)C" || m.InChIKey != "RYYVLZVUVIJVGH-UHFFFAOYSA-N" || m.Formula != "C8H10N4O2" {
		t.Errorf("MoNA comments not applied: %+v", m)
	}
	if m.ChromXs.RT != 2.1 {
		t.Errorf("RT = %v", m.ChromXs.RT)
	}
}

func TestPrositPeptide(t *testing.T) {
	in := `Name: PEPTIDEK/2
MW: 928.4
Comment: Parent=464.7 Collision_energy=27 iRT=31.2 ModString=PEPTIDEK//Oxidation@K8/2
Num peaks: 1
147.1128 1
`
	mols, err := ReadAll(strings.NewReader(in), nil)
	if err != nil {
		t.Fatal(err)
	}
	m := mols[0]
	if m.Peptide == nil {
		t.Fatal("Peptide not parsed")
	}
	want := &core.Peptide{
		Sequence:      "PEPTIDEK",
		Charge:        2,
		Modifications: []core.Modification{{Mass: 15.994915, Position: 7, Name: "Oxidation"}},
	}
	if diff := cmp.Diff(want, m.Peptide); diff != "" {
		t.Errorf("peptide (-want +got):\n%s", diff)
	}
	if m.PrecursorMz != 464.7 || m.CollisionEnergy != 27 || m.ChromXs.RT != 31.2 || m.IonMode != core.Positive {
		t.Errorf("comment metadata: %+v", m)
	}
}

func TestPrositPeptideComputesPrecursor(t *testing.T) {
	in := "Name: AAA/1\nNum peaks: 0\n"
	mols, err := ReadAll(strings.NewReader(in), nil)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(mols[0].PrecursorMz-232.129) > 0.01 {
		t.Errorf("PrecursorMz = %v", mols[0].PrecursorMz)
	}
}

func TestNonPeptideNameUntouched(t *testing.T) {
	in := "Name: 1/2-dichloro\nNum peaks: 0\n"
	mols, err := ReadAll(strings.NewReader(in), nil)
	if err != nil {
		t.Fatal(err)
	}
	if mols[0].Peptide != nil {
		t.Errorf("unexpected peptide %+v", mols[0].Peptide)
	}
}

func TestStreamingReader(t *testing.T) {
	in := "NAME: a\n\nNAME: b\n"
	r := NewReader(strings.NewReader(in), core.DefaultModDatabase())
	r.SetSourceFormat("lbm")

	var got []*core.Molecule
	for r.Next() {
		got = append(got, r.Molecule())
	}
	if r.Err() != nil {
		t.Fatal(r.Err())
	}
	want := []*core.Molecule{
		{ScanID: 0, Name: "a", CollisionEnergy: -1, CollisionCrossSection: -1, ChromXs: core.UnsetChromXs(), SourceFormat: "lbm"},
		{ScanID: 1, Name: "b", CollisionEnergy: -1, CollisionCrossSection: -1, ChromXs: core.UnsetChromXs(), SourceFormat: "lbm"},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("molecules (-want +got):\n%s", diff)
	}
}
