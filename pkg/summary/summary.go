// Package summary computes descriptive statistics of a spectral library.
package summary

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ChrisMcGann/LibKey/pkg/core"
)

// Distribution describes a set of values. All fields are zero when N is 0.
type Distribution struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Describe computes a Distribution of values. values is sorted in place.
func Describe(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sort.Float64s(values)
	d := Distribution{
		N:      len(values),
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Q1:     stat.Quantile(0.25, stat.Empirical, values, nil),
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, values, nil),
	}
	if len(values) > 1 {
		d.Mean, d.StdDev = stat.MeanStdDev(values, nil)
	} else {
		d.Mean = values[0]
	}
	return d
}

// Summary holds library-wide counts and distributions.
type Summary struct {
	Molecules    int
	Peptides     int
	WithRT       int
	EmptySpectra int

	ByIonMode map[string]int
	ByAdduct  map[string]int
	ByClass   map[string]int

	PrecursorMz Distribution
	PeakCount   Distribution
}

// Summarize walks molecules once. Precursors of 0 or less are not counted in
// the m/z distribution.
func Summarize(molecules []*core.Molecule) Summary {
	s := Summary{
		Molecules: len(molecules),
		ByIonMode: make(map[string]int),
		ByAdduct:  make(map[string]int),
		ByClass:   make(map[string]int),
	}

	var mzs, peaks []float64
	for _, m := range molecules {
		s.ByIonMode[m.IonMode.String()]++
		if m.AdductType != "" {
			s.ByAdduct[m.AdductType]++
		}
		class := m.CompoundClass
		if class == "" {
			class = m.Ontology
		}
		if class != "" {
			s.ByClass[class]++
		}
		if m.Peptide != nil {
			s.Peptides++
		}
		if m.ChromXs.RT >= 0 {
			s.WithRT++
		}
		if len(m.Spectrum) == 0 {
			s.EmptySpectra++
		}
		if m.PrecursorMz > 0 {
			mzs = append(mzs, m.PrecursorMz)
		}
		peaks = append(peaks, float64(len(m.Spectrum)))
	}

	s.PrecursorMz = Describe(mzs)
	s.PeakCount = Describe(peaks)
	return s
}

type entry struct {
	key   string
	count int
}

// ranked orders a count map by count descending, then key.
func ranked(counts map[string]int) []entry {
	out := make([]entry, 0, len(counts))
	for k, v := range counts {
		out = append(out, entry{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

// Write prints a human readable report. Count tables list at most limit
// rows each; limit <= 0 lists all.
func (s Summary) Write(w io.Writer, limit int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Molecules\t%d\n", s.Molecules)
	fmt.Fprintf(tw, "Peptides\t%d\n", s.Peptides)
	fmt.Fprintf(tw, "With retention time\t%d\n", s.WithRT)
	fmt.Fprintf(tw, "Empty spectra\t%d\n", s.EmptySpectra)

	d := s.PrecursorMz
	fmt.Fprintf(tw, "\nPrecursor m/z\tn=%d\tmean=%.4f\tsd=%.4f\n", d.N, d.Mean, d.StdDev)
	fmt.Fprintf(tw, "\tmin=%.4f\tq1=%.4f\tmedian=%.4f\tq3=%.4f\tmax=%.4f\n", d.Min, d.Q1, d.Median, d.Q3, d.Max)
	p := s.PeakCount
	fmt.Fprintf(tw, "Peaks per spectrum\tmean=%.2f\tmedian=%.0f\tmax=%.0f\n", p.Mean, p.Median, p.Max)

	for _, section := range []struct {
		title  string
		counts map[string]int
	}{
		{"Ion mode", s.ByIonMode},
		{"Adduct", s.ByAdduct},
		{"Class", s.ByClass},
	} {
		fmt.Fprintf(tw, "\n%s\tcount\n", section.title)
		for i, e := range ranked(section.counts) {
			if limit > 0 && i >= limit {
				fmt.Fprintf(tw, "...\t%d more\n", len(section.counts)-limit)
				break
			}
			fmt.Fprintf(tw, "%s\t%d\n", e.key, e.count)
		}
	}

	return tw.Flush()
}
