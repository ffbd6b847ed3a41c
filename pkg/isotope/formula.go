package isotope

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/ChrisMcGann/LibKey/pkg/core"
)

// ErrEmptyFormula is returned when a formula has no elements.
var ErrEmptyFormula = errors.New("empty formula")

// ElementCount is one element of a formula with its atom count.
type ElementCount struct {
	Symbol string
	Count  int
}

// Formula is an elemental composition in order of first appearance.
type Formula struct {
	Elements []ElementCount
}

// ParseFormula parses compact formulas such as "C6H12O6" or "C2H5Cl".
// Repeated symbols are summed; a trailing charge sign is ignored.
func ParseFormula(s string) (Formula, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "+-")
	var f Formula
	index := make(map[string]int)

	for i := 0; i < len(s); {
		c := rune(s[i])
		if !unicode.IsUpper(c) {
			return Formula{}, fmt.Errorf("invalid formula '%s': unexpected '%c' at %d", s, c, i)
		}
		j := i + 1
		for j < len(s) && unicode.IsLower(rune(s[j])) {
			j++
		}
		symbol := s[i:j]

		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		count := 1
		if k > j {
			n, err := strconv.Atoi(s[j:k])
			if err != nil {
				return Formula{}, fmt.Errorf("invalid count in formula '%s': %w", s, err)
			}
			count = n
		}

		if pos, ok := index[symbol]; ok {
			f.Elements[pos].Count += count
		} else {
			index[symbol] = len(f.Elements)
			f.Elements = append(f.Elements, ElementCount{Symbol: symbol, Count: count})
		}
		i = k
	}

	if len(f.Elements) == 0 {
		return Formula{}, ErrEmptyFormula
	}
	return f, nil
}

func (f Formula) String() string {
	var sb strings.Builder
	for _, e := range f.Elements {
		if e.Count == 0 {
			continue
		}
		sb.WriteString(e.Symbol)
		if e.Count != 1 {
			sb.WriteString(strconv.Itoa(e.Count))
		}
	}
	return sb.String()
}

// MonoisotopicMass returns the mass of the species built from the lightest
// isotope of every element.
func (f Formula) MonoisotopicMass(t *Table) (float64, error) {
	mass := 0.0
	for _, e := range f.Elements {
		isotopes := t.BySymbol(e.Symbol)
		if len(isotopes) == 0 {
			return 0, fmt.Errorf("unknown element '%s'", e.Symbol)
		}
		mass += float64(e.Count) * sortedIsotopes(isotopes)[0].ExactMass
	}
	return mass, nil
}

// cell is one nominal offset of a distribution: total abundance and
// abundance-weighted mean mass.
type cell struct {
	abundance float64
	mass      float64
}

func convolve(a, b []cell, maxOffset int) []cell {
	n := len(a) + len(b) - 1
	if n > maxOffset+1 {
		n = maxOffset + 1
	}
	out := make([]cell, n)
	for i := range a {
		for j := range b {
			k := i + j
			if k >= n {
				break
			}
			ab := a[i].abundance * b[j].abundance
			if ab == 0 {
				continue
			}
			total := out[k].abundance + ab
			out[k].mass = (out[k].mass*out[k].abundance + (a[i].mass+b[j].mass)*ab) / total
			out[k].abundance = total
		}
	}
	return out
}

func elementDistribution(isotopes []Element) []cell {
	sorted := sortedIsotopes(isotopes)
	base := sorted[0].NominalMass
	dist := make([]cell, sorted[len(sorted)-1].NominalMass-base+1)
	for _, iso := range sorted {
		c := &dist[iso.NominalMass-base]
		c.abundance = iso.NaturalRelativeAbundance
		c.mass = iso.ExactMass
	}
	return dist
}

// power convolves dist with itself count times by repeated squaring.
func power(dist []cell, count, maxOffset int) []cell {
	result := []cell{{abundance: 1}}
	for count > 0 {
		if count&1 == 1 {
			result = convolve(result, dist, maxOffset)
		}
		count >>= 1
		if count > 0 {
			dist = convolve(dist, dist, maxOffset)
		}
	}
	return result
}

// IsotopicPeaks returns the theoretical M+0..M+maxOffset pattern of a formula.
// Abundances are relative to M+0.
func (t *Table) IsotopicPeaks(f Formula, maxOffset int) ([]core.IsotopicPeak, error) {
	if len(f.Elements) == 0 {
		return nil, ErrEmptyFormula
	}
	if maxOffset < 0 {
		maxOffset = 0
	}

	total := []cell{{abundance: 1}}
	for _, e := range f.Elements {
		isotopes := t.BySymbol(e.Symbol)
		if len(isotopes) == 0 {
			return nil, fmt.Errorf("unknown element '%s'", e.Symbol)
		}
		if e.Count <= 0 {
			continue
		}
		total = convolve(total, power(elementDistribution(isotopes), e.Count, maxOffset), maxOffset)
	}

	peaks := make([]core.IsotopicPeak, maxOffset+1)
	m0 := total[0]
	for k := range peaks {
		peaks[k] = core.IsotopicPeak{Offset: k}
		if k < len(total) && total[k].abundance > 0 && m0.abundance > 0 {
			peaks[k].Mass = total[k].mass
			peaks[k].RelativeAbundance = total[k].abundance / m0.abundance
		} else {
			peaks[k].Mass = m0.mass + float64(k)*1.003355
		}
	}
	if math.IsNaN(peaks[0].RelativeAbundance) {
		return nil, fmt.Errorf("invalid isotope pattern for %s", f)
	}
	return peaks, nil
}
