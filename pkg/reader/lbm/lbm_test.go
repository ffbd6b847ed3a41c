package lbm

import (
	"strings"
	"testing"

	"github.com/ChrisMcGann/LibKey/pkg/core"
)

const library = `NAME: PC 34:1; [M+HCOO]-
PRECURSORMZ: 804.576
PRECURSORTYPE: [M+HCOO]-
IONMODE: Negative
COMPOUNDCLASS: PC
Num Peaks: 1
255.2330 999

NAME: PC 34:1; [M+CH3COO]-
PRECURSORMZ: 818.592
PRECURSORTYPE: [M+CH3COO]-
IONMODE: Negative
COMPOUNDCLASS: PC
Num Peaks: 1
255.2330 999

NAME: PE 34:1; [M-H]-
PRECURSORMZ: 716.523
PRECURSORTYPE: [M-H]-
IONMODE: Negative
COMPOUNDCLASS: PE
Num Peaks: 1
140.0118 200

NAME: SPLASH PC; [M+H]+
PRECURSORMZ: 753.6
PRECURSORTYPE: [M+H]+
IONMODE: Positive
COMPOUNDCLASS: SPLASH
Num Peaks: 0

NAME: Internal standard; [M-H]-
PRECURSORMZ: 500
PRECURSORTYPE: [M-H]-
IONMODE: Negative
COMPOUNDCLASS: Others
Num Peaks: 0
`

func names(mols []*core.Molecule) []string {
	var out []string
	for _, m := range mols {
		out = append(out, m.Name)
	}
	return out
}

func TestReadFiltered(t *testing.T) {
	queries := []Query{
		{CompoundClass: "PC", AdductName: "[M+HCOO]-", IonMode: core.Negative, IsSelected: true},
		{CompoundClass: "PC", AdductName: "[M+CH3COO]-", IonMode: core.Negative, IsSelected: true},
		{CompoundClass: "PE", AdductName: "[M-H]-", IonMode: core.Negative, IsSelected: false},
	}

	tests := []struct {
		name    string
		opts    Options
		want    []string
		outcome Outcome
	}{
		{
			name:    "acetate solvent drops formate adduct",
			opts:    Options{IonMode: core.Negative, SolventType: CH3COONH4, Queries: queries},
			want:    []string{"PC 34:1; [M+CH3COO]-", "Internal standard; [M-H]-"},
			outcome: Matched,
		},
		{
			name:    "formate solvent drops acetate adduct",
			opts:    Options{IonMode: core.Negative, SolventType: HCOONH4, Queries: queries},
			want:    []string{"PC 34:1; [M+HCOO]-", "Internal standard; [M-H]-"},
			outcome: Matched,
		},
		{
			name:    "positive mode keeps passthrough class only",
			opts:    Options{IonMode: core.Positive, Queries: queries},
			want:    []string{"SPLASH PC; [M+H]+"},
			outcome: Matched,
		},
		{
			name:    "nil queries keep everything",
			opts:    Options{IonMode: core.Negative},
			want:    []string{"PC 34:1; [M+HCOO]-", "PC 34:1; [M+CH3COO]-", "PE 34:1; [M-H]-", "SPLASH PC; [M+H]+", "Internal standard; [M-H]-"},
			outcome: Matched,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Read(strings.NewReader(library), tt.opts)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if res.Outcome != tt.outcome {
				t.Errorf("Outcome = %v, want %v", res.Outcome, tt.outcome)
			}
			got := names(res.Molecules)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("names = %q, want %q", got, tt.want)
			}
			for i, m := range res.Molecules {
				if m.ScanID != i {
					t.Errorf("ScanID of %s = %d, want %d", m.Name, m.ScanID, i)
				}
				if m.SourceFormat != "lbm" {
					t.Errorf("SourceFormat = %q", m.SourceFormat)
				}
			}
		})
	}
}

func TestNoQueriesSelected(t *testing.T) {
	opts := Options{
		IonMode: core.Negative,
		Queries: []Query{{CompoundClass: "PC", AdductName: "[M+HCOO]-", IonMode: core.Negative}},
	}
	res, err := Read(strings.NewReader(library), opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != NoQueriesSelected || res.Molecules != nil {
		t.Errorf("got %v with %d molecules", res.Outcome, len(res.Molecules))
	}

	opts.Queries = []Query{}
	res, _ = Read(strings.NewReader(library), opts)
	if res.Outcome != NoQueriesSelected {
		t.Errorf("empty query list: got %v", res.Outcome)
	}
}

func TestZeroMatches(t *testing.T) {
	opts := Options{
		IonMode: core.Negative,
		Queries: []Query{{CompoundClass: "TG", AdductName: "[M+NH4]+", IonMode: core.Positive, IsSelected: true}},
	}
	in := "NAME: PE 34:1\nIONMODE: Negative\nCOMPOUNDCLASS: PE\nPRECURSORTYPE: [M-H]-\n"
	res, err := Read(strings.NewReader(in), opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != ZeroMatches || len(res.Molecules) != 0 {
		t.Errorf("got %v with %d molecules", res.Outcome, len(res.Molecules))
	}
}

func TestAcceptExcludesFormateWithAcetate(t *testing.T) {
	m := &core.Molecule{AdductType: "[M+HCOO]-", IonMode: core.Negative, CompoundClass: "PC"}
	selected := []Query{{CompoundClass: "PC", AdductName: "[M+HCOO]-", IonMode: core.Negative, IsSelected: true}}
	if Accept(m, core.Negative, CH3COONH4, selected) {
		t.Error("[M+HCOO]- accepted with CH3COONH4")
	}
	if !Accept(m, core.Negative, HCOONH4, selected) {
		t.Error("[M+HCOO]- rejected with HCOONH4")
	}
}

func TestParseSolventType(t *testing.T) {
	if s, err := ParseSolventType("ch3coonh4"); err != nil || s != CH3COONH4 {
		t.Errorf("ParseSolventType(ch3coonh4) = %v, %v", s, err)
	}
	if _, err := ParseSolventType("water"); err == nil {
		t.Error("expected error")
	}
}
