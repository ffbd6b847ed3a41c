package core

import (
	"errors"
	"math"
	"testing"
)

func TestMoleculeValidation(t *testing.T) {
	tests := []struct {
		name    string
		mol     *Molecule
		wantErr bool
	}{
		{
			name: "valid",
			mol: &Molecule{
				Name:        "Glucose",
				PrecursorMz: 203.05,
				Spectrum:    []SpectrumPeak{{Mass: 50, Intensity: 10}, {Mass: 100, Intensity: 20}},
			},
		},
		{
			name:    "missing name",
			mol:     &Molecule{PrecursorMz: 203.05},
			wantErr: true,
		},
		{
			name:    "negative precursor",
			mol:     &Molecule{Name: "X", PrecursorMz: -1},
			wantErr: true,
		},
		{
			name: "unsorted",
			mol: &Molecule{
				Name:     "X",
				Spectrum: []SpectrumPeak{{Mass: 200, Intensity: 1}, {Mass: 100, Intensity: 1}},
			},
			wantErr: true,
		},
		{
			name:    "NaN intensity",
			mol:     &Molecule{Name: "X", Spectrum: []SpectrumPeak{{Mass: 1, Intensity: math.NaN()}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mol.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			var ve *ValidationError
			if err != nil && !errors.As(err, &ve) {
				t.Errorf("Validate() error type %T, want *ValidationError", err)
			}
		})
	}
}

func TestSortPeaksIsStable(t *testing.T) {
	m := &Molecule{Spectrum: []SpectrumPeak{
		{Mass: 300, Intensity: 1, PeakID: 0},
		{Mass: 100, Intensity: 2, PeakID: 1},
		{Mass: 300, Intensity: 3, PeakID: 2},
		{Mass: 200, Intensity: 4, PeakID: 3},
	}}
	m.SortPeaks()

	wantIDs := []int{1, 3, 0, 2}
	for i, p := range m.Spectrum {
		if p.PeakID != wantIDs[i] {
			t.Errorf("position %d: PeakID %d, want %d", i, p.PeakID, wantIDs[i])
		}
	}
	if !m.ArePeaksSorted() {
		t.Error("ArePeaksSorted() = false after SortPeaks")
	}
}

func TestNewChromXs(t *testing.T) {
	tests := []struct {
		rt, ri, dt float64
		want       ChromType
		value      float64
	}{
		{5.2, -1, -1, ChromRT, 5.2},
		{-1, 1200, -1, ChromRI, 1200},
		{-1, -1, 22.5, ChromDrift, 22.5},
		{5.2, 1200, 22.5, ChromRT, 5.2},
		{-1, -1, -1, ChromNone, -1},
	}
	for _, tt := range tests {
		c := NewChromXs(tt.rt, tt.ri, tt.dt)
		if c.MainType != tt.want || c.Value() != tt.value {
			t.Errorf("NewChromXs(%v,%v,%v) = %v/%v, want %v/%v", tt.rt, tt.ri, tt.dt, c.MainType, c.Value(), tt.want, tt.value)
		}
	}
}

func TestIonModes(t *testing.T) {
	for in, want := range map[string]IonMode{
		"Positive": Positive, "N": Negative, " neg ": Negative, "+": Positive,
	} {
		if got, ok := ParseIonMode(in); !ok || got != want {
			t.Errorf("ParseIonMode(%q) = %v, %v", in, got, ok)
		}
	}
	if _, ok := ParseIonMode("ESI"); ok {
		t.Error("ParseIonMode(ESI) should not name a polarity")
	}
	if AdductIonMode("[M-2H]2-") != Negative || AdductIonMode("[M+Na]+") != Positive || AdductIonMode("M") != IonModeUnknown {
		t.Error("AdductIonMode misread adduct sign")
	}
}

func TestSpectrumPeakDefaults(t *testing.T) {
	p := NewSpectrumPeak(50.1, 1000, "")
	if p.Comment != "50.1" {
		t.Errorf("default comment = %q, want 50.1", p.Comment)
	}
	if !p.HasDefaultComment() {
		t.Error("HasDefaultComment() = false")
	}
	if NewSpectrumPeak(50.1, 1, "y3").HasDefaultComment() {
		t.Error("explicit comment reported as default")
	}

	c := CommentExperiment | CommentPrecursor
	if !c.Has(CommentPrecursor) || c.Has(CommentIsotope) {
		t.Errorf("Has() wrong for %v", c)
	}
	if c.String() != "experiment|precursor" {
		t.Errorf("String() = %q", c.String())
	}
}

func TestAdductCharge(t *testing.T) {
	for adduct, want := range map[string]int{
		"[M+H]+":    1,
		"[M-2H]2-":  2,
		"[M+3H]3+":  3,
		"[M+HCOO]-": 1,
		"M":         0,
		"":          0,
	} {
		if got := AdductCharge(adduct); got != want {
			t.Errorf("AdductCharge(%q) = %d, want %d", adduct, got, want)
		}
	}
}
