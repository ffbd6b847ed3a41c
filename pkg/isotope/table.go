// Package isotope provides the IUPAC isotope table used for exact masses and
// theoretical isotope patterns.
package isotope

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

//go:embed iupac.txt
var iupacData []byte

// Element is one isotope of an element.
type Element struct {
	ElementID                int
	ElementName              string
	NominalMass              int
	ExactMass                float64
	NaturalRelativeAbundance float64
}

// Table groups isotopes by element, both by atomic number and by symbol.
// A Table is never modified after it is built and may be shared freely.
type Table struct {
	byID     map[int][]Element
	bySymbol map[string][]Element
	ids      []int
}

// ByID returns the isotopes of the element with the given atomic number.
func (t *Table) ByID(id int) []Element {
	return t.byID[id]
}

// BySymbol returns the isotopes of the element with the given symbol.
// ByID and BySymbol return the same slice for one element.
func (t *Table) BySymbol(symbol string) []Element {
	return t.bySymbol[symbol]
}

// Symbols returns the element symbols in table order.
func (t *Table) Symbols() []string {
	out := make([]string, 0, len(t.ids))
	for _, id := range t.ids {
		out = append(out, t.byID[id][0].ElementName)
	}
	return out
}

// Len returns the number of elements.
func (t *Table) Len() int {
	return len(t.ids)
}

// builder collects consecutive rows of one element into a group.
type builder struct {
	t     *Table
	id    int
	group []Element
}

func newBuilder() *builder {
	return &builder{t: &Table{
		byID:     make(map[int][]Element),
		bySymbol: make(map[string][]Element),
	}}
}

func (b *builder) add(e Element) {
	if e.ElementID != b.id {
		b.flush()
		b.id = e.ElementID
	}
	b.group = append(b.group, e)
}

// flush stores the pending group. Rows with ID 0 never form an element.
func (b *builder) flush() {
	if b.id == 0 || len(b.group) == 0 {
		b.group = nil
		return
	}
	if _, seen := b.t.byID[b.id]; !seen {
		b.t.ids = append(b.t.ids, b.id)
	}
	b.t.byID[b.id] = b.group
	b.t.bySymbol[b.group[0].ElementName] = b.group
	b.group = nil
}

func (b *builder) table() *Table {
	b.flush()
	return b.t
}

// Load parses an isotope table with a header line followed by whitespace
// separated rows: ID, Symbol, NominalMass, Abundance, ExactMass.
// Any malformed row fails the whole load.
func Load(r io.Reader) (*Table, error) {
	scanner := bufio.NewScanner(r)

	// Skip header line
	scanner.Scan()

	b := newBuilder()
	lineNum := 1
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 5 {
			return nil, fmt.Errorf("line %d: expected 5 fields, got %d", lineNum, len(fields))
		}

		e, err := parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		b.add(e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading isotope table: %w", err)
	}

	return b.table(), nil
}

func parseRow(fields []string) (Element, error) {
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return Element{}, fmt.Errorf("invalid element id '%s': %w", fields[0], err)
	}
	nominal, err := strconv.Atoi(fields[2])
	if err != nil {
		return Element{}, fmt.Errorf("invalid nominal mass '%s': %w", fields[2], err)
	}
	abundance, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return Element{}, fmt.Errorf("invalid abundance '%s': %w", fields[3], err)
	}
	exact, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return Element{}, fmt.Errorf("invalid exact mass '%s': %w", fields[4], err)
	}

	return Element{
		ElementID:                id,
		ElementName:              fields[1],
		NominalMass:              nominal,
		ExactMass:                exact,
		NaturalRelativeAbundance: abundance,
	}, nil
}

var loadDefault = sync.OnceValues(func() (*Table, error) {
	return Load(bytes.NewReader(iupacData))
})

// Default returns the table parsed from the bundled IUPAC resource. It is
// parsed on first use and shared afterwards.
func Default() (*Table, error) {
	return loadDefault()
}

var (
	hydrogen = []Element{
		{ElementID: 1, ElementName: "H", NominalMass: 1, ExactMass: 1.00782503207, NaturalRelativeAbundance: 0.999885},
		{ElementID: 1, ElementName: "H", NominalMass: 2, ExactMass: 2.0141017778, NaturalRelativeAbundance: 0.000115},
	}
	carbon = []Element{
		{ElementID: 6, ElementName: "C", NominalMass: 12, ExactMass: 12.0, NaturalRelativeAbundance: 0.9893},
		{ElementID: 6, ElementName: "C", NominalMass: 13, ExactMass: 13.0033548378, NaturalRelativeAbundance: 0.0107},
	}
	nitrogen = []Element{
		{ElementID: 7, ElementName: "N", NominalMass: 14, ExactMass: 14.0030740048, NaturalRelativeAbundance: 0.99636},
		{ElementID: 7, ElementName: "N", NominalMass: 15, ExactMass: 15.0001088982, NaturalRelativeAbundance: 0.00364},
	}
	oxygen = []Element{
		{ElementID: 8, ElementName: "O", NominalMass: 16, ExactMass: 15.99491461956, NaturalRelativeAbundance: 0.99757},
		{ElementID: 8, ElementName: "O", NominalMass: 17, ExactMass: 16.99913170, NaturalRelativeAbundance: 0.00038},
		{ElementID: 8, ElementName: "O", NominalMass: 18, ExactMass: 17.9991610, NaturalRelativeAbundance: 0.00205},
	}
	phosphorus = []Element{
		{ElementID: 15, ElementName: "P", NominalMass: 31, ExactMass: 30.97376163, NaturalRelativeAbundance: 1},
	}
	sulfur = []Element{
		{ElementID: 16, ElementName: "S", NominalMass: 32, ExactMass: 31.97207100, NaturalRelativeAbundance: 0.9499},
		{ElementID: 16, ElementName: "S", NominalMass: 33, ExactMass: 32.97145876, NaturalRelativeAbundance: 0.0075},
		{ElementID: 16, ElementName: "S", NominalMass: 34, ExactMass: 33.96786690, NaturalRelativeAbundance: 0.0425},
		{ElementID: 16, ElementName: "S", NominalMass: 36, ExactMass: 35.96708076, NaturalRelativeAbundance: 0.0001},
	}
)

func fromGroups(groups ...[]Element) *Table {
	b := newBuilder()
	for _, g := range groups {
		for _, e := range g {
			b.add(e)
		}
	}
	return b.table()
}

// HC returns a table with hydrogen and carbon only, built without resource I/O.
func HC() *Table {
	return fromGroups(hydrogen, carbon)
}

// CHNOPS returns a table with H, C, N, O, P and S, built without resource I/O.
func CHNOPS() *Table {
	return fromGroups(hydrogen, carbon, nitrogen, oxygen, phosphorus, sulfur)
}

// sortedIsotopes returns the isotopes of one element sorted by nominal mass.
func sortedIsotopes(isotopes []Element) []Element {
	out := append([]Element(nil), isotopes...)
	sort.Slice(out, func(i, j int) bool { return out[i].NominalMass < out[j].NominalMass })
	return out
}
