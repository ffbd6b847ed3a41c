package summary

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ChrisMcGann/LibKey/pkg/core"
)

func molecule(name, adduct, class string, mode core.IonMode, mz float64, peaks int) *core.Molecule {
	m := core.NewMolecule("msp")
	m.Name = name
	m.AdductType = adduct
	m.CompoundClass = class
	m.IonMode = mode
	m.PrecursorMz = mz
	for i := 0; i < peaks; i++ {
		m.Spectrum = append(m.Spectrum, core.NewSpectrumPeak(float64(50+i), 10, ""))
	}
	return m
}

func TestSummarize(t *testing.T) {
	ms := []*core.Molecule{
		molecule("a", "[M+H]+", "PC", core.Positive, 100, 2),
		molecule("b", "[M+H]+", "PC", core.Positive, 200, 4),
		molecule("c", "[M-H]-", "PE", core.Negative, 300, 0),
		molecule("d", "", "", core.IonModeUnknown, 0, 6),
	}
	ms[0].ChromXs = core.NewChromXs(1.5, -1, -1)

	s := Summarize(ms)

	if s.Molecules != 4 || s.WithRT != 1 || s.EmptySpectra != 1 || s.Peptides != 0 {
		t.Errorf("counts = %+v", s)
	}
	if diff := cmp.Diff(map[string]int{"Positive": 2, "Negative": 1, "Unknown": 1}, s.ByIonMode); diff != "" {
		t.Errorf("ByIonMode (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{"[M+H]+": 2, "[M-H]-": 1}, s.ByAdduct); diff != "" {
		t.Errorf("ByAdduct (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{"PC": 2, "PE": 1}, s.ByClass); diff != "" {
		t.Errorf("ByClass (-want +got):\n%s", diff)
	}

	mz := s.PrecursorMz
	if mz.N != 3 || mz.Mean != 200 || mz.Min != 100 || mz.Max != 300 || mz.Median != 200 {
		t.Errorf("PrecursorMz = %+v", mz)
	}
	if math.Abs(mz.StdDev-100) > 1e-9 {
		t.Errorf("StdDev = %v, want 100", mz.StdDev)
	}
	if s.PeakCount.Mean != 3 {
		t.Errorf("mean peaks = %v, want 3", s.PeakCount.Mean)
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe(nil); got != (Distribution{}) {
		t.Errorf("Describe(nil) = %+v", got)
	}
	got := Describe([]float64{42})
	if got.N != 1 || got.Mean != 42 || got.Median != 42 || got.StdDev != 0 {
		t.Errorf("Describe([42]) = %+v", got)
	}
	got = Describe([]float64{4, 1, 3, 2})
	if got.Min != 1 || got.Max != 4 || got.Q1 != 1 || got.Median != 2 || got.Q3 != 3 {
		t.Errorf("Describe = %+v", got)
	}
}

func TestWrite(t *testing.T) {
	s := Summarize([]*core.Molecule{
		molecule("a", "[M+H]+", "PC", core.Positive, 100, 1),
		molecule("b", "[M+Na]+", "PE", core.Positive, 200, 1),
		molecule("c", "[M+NH4]+", "PS", core.Positive, 300, 1),
	})
	var buf bytes.Buffer
	if err := s.Write(&buf, 2); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Molecules", "Positive", "1 more"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
