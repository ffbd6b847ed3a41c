package core

import (
	"strings"
	"testing"
)

func TestParseModString(t *testing.T) {
	db := DefaultModDatabase()

	tests := []struct {
		name    string
		in      string
		want    []Modification
		wantErr bool
	}{
		{name: "empty", in: ""},
		{
			name: "named with residue",
			in:   "Carbamidomethyl@C2;Oxidation@M8",
			want: []Modification{
				{Mass: 57.021464, Position: 1, Name: "Carbamidomethyl"},
				{Mass: 15.994915, Position: 7, Name: "Oxidation"},
			},
		},
		{
			name: "numeric mass",
			in:   "57.021464@3",
			want: []Modification{{Mass: 57.021464, Position: 2, Name: "57.021464"}},
		},
		{
			name: "prosit n-term",
			in:   "EIESAGDITFNR//TMT_Pro@R-1/4",
			want: []Modification{{Mass: 304.207146, Position: -1, Name: "TMT_Pro"}},
		},
		{name: "unknown name", in: "Nonsense@2", wantErr: true},
		{name: "missing position", in: "Oxidation", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ParseModString(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseModString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d mods, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("mod %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoadFromCSV(t *testing.T) {
	db := NewModDatabase()
	in := "mod,massshift,aa\nMyMod,12.5,K\n\nOther,-1,\n"
	if err := db.LoadFromCSV(strings.NewReader(in)); err != nil {
		t.Fatalf("LoadFromCSV() error = %v", err)
	}
	if db.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", db.Len())
	}
	if m, ok := db.GetMass("MyMod"); !ok || m != 12.5 {
		t.Errorf("GetMass(MyMod) = %v, %v", m, ok)
	}

	err := NewModDatabase().LoadFromCSV(strings.NewReader("h\nBad,abc\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line 2 error, got %v", err)
	}
}
