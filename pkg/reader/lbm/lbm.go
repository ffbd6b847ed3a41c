// Package lbm reads LipidBlast (LBM) libraries: MSP text filtered by the
// lipid classes and adducts a user selected.
package lbm

import (
	"fmt"
	"io"
	"strings"

	"github.com/ChrisMcGann/LibKey/pkg/core"
	"github.com/ChrisMcGann/LibKey/pkg/reader/msp"
)

// SolventType is the mobile phase modifier, which decides the anion adduct
// seen in negative mode.
type SolventType int

const (
	HCOONH4 SolventType = iota
	CH3COONH4
)

func (s SolventType) String() string {
	if s == CH3COONH4 {
		return "CH3COONH4"
	}
	return "HCOONH4"
}

// ParseSolventType accepts "HCOONH4" or "CH3COONH4" in any case.
func ParseSolventType(s string) (SolventType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HCOONH4", "":
		return HCOONH4, nil
	case "CH3COONH4":
		return CH3COONH4, nil
	}
	return HCOONH4, fmt.Errorf("unknown solvent type '%s', expected HCOONH4 or CH3COONH4", s)
}

const (
	formateAdduct = "[M+HCOO]-"
	acetateAdduct = "[M+CH3COO]-"
)

// passthroughClasses are accepted whatever the query selection.
var passthroughClasses = map[string]bool{
	"Others":  true,
	"Unknown": true,
	"SPLASH":  true,
}

// Query selects one lipid class and adduct.
type Query struct {
	CompoundClass string
	AdductName    string
	IonMode       core.IonMode
	IsSelected    bool
}

// Options configures which records Read keeps.
type Options struct {
	IonMode     core.IonMode
	SolventType SolventType
	// Queries restricts the classes and adducts kept. A nil slice keeps
	// every record.
	Queries []Query
}

// Outcome tells a filtered result apart from the two empty cases.
type Outcome int

const (
	Matched Outcome = iota
	NoQueriesSelected
	ZeroMatches
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case NoQueriesSelected:
		return "no queries selected"
	case ZeroMatches:
		return "zero matches"
	}
	return "unknown"
}

// Result is the outcome of Read and the accepted molecules in acceptance order.
type Result struct {
	Outcome   Outcome
	Molecules []*core.Molecule
}

// Selected returns the queries with IsSelected set.
func Selected(queries []Query) []Query {
	var out []Query
	for _, q := range queries {
		if q.IsSelected {
			out = append(out, q)
		}
	}
	return out
}

// Read parses an LBM stream and keeps the records accepted by opts. When a
// query list is given but nothing in it is selected, the stream is not read
// and the outcome is NoQueriesSelected.
func Read(r io.Reader, opts Options) (Result, error) {
	var selected []Query
	if opts.Queries != nil {
		selected = Selected(opts.Queries)
		if len(selected) == 0 {
			return Result{Outcome: NoQueriesSelected}, nil
		}
	}

	reader := msp.NewReader(r, nil)
	reader.SetSourceFormat("lbm")

	var res Result
	for reader.Next() {
		m := reader.Molecule()
		if opts.Queries != nil && !Accept(m, opts.IonMode, opts.SolventType, selected) {
			continue
		}
		m.ScanID = len(res.Molecules)
		res.Molecules = append(res.Molecules, m)
	}
	if err := reader.Err(); err != nil {
		return Result{}, err
	}

	if len(res.Molecules) == 0 {
		res.Outcome = ZeroMatches
	}
	return res, nil
}

// Accept reports whether m passes the ion mode, solvent and query checks.
func Accept(m *core.Molecule, ionMode core.IonMode, solvent SolventType, selected []Query) bool {
	if m.IonMode != ionMode {
		return false
	}
	if ionMode == core.Negative {
		if solvent == CH3COONH4 && m.AdductType == formateAdduct {
			return false
		}
		if solvent == HCOONH4 && m.AdductType == acetateAdduct {
			return false
		}
	}
	if passthroughClasses[m.CompoundClass] {
		return true
	}
	for _, q := range selected {
		if q.IsSelected && q.IonMode == m.IonMode &&
			q.CompoundClass == m.CompoundClass && q.AdductName == m.AdductType {
			return true
		}
	}
	return false
}
