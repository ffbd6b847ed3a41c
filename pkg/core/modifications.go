package core

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Modification represents a peptide modification with position and mass shift.
type Modification struct {
	Mass     float64
	Position int    // 0-based position; -1 for N-term
	Name     string // e.g. "Carbamidomethyl", "Oxidation"
}

// ModDatabase maps modification names to mass shifts.
type ModDatabase struct {
	mods map[string]float64
}

// NewModDatabase creates an empty modification database
func NewModDatabase() *ModDatabase {
	return &ModDatabase{
		mods: make(map[string]float64),
	}
}

// LoadFromCSV loads modifications from CSV (header line, then name,massshift[,aa]).
func (db *ModDatabase) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	// Skip header line
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return fmt.Errorf("line %d: invalid format, expected at least 2 comma-separated fields", lineNum)
		}

		massStr := strings.TrimSpace(parts[1])
		mass, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid mass value '%s': %w", lineNum, massStr, err)
		}

		db.mods[strings.TrimSpace(parts[0])] = mass
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}

	return nil
}

// GetMass returns the mass shift for a modification name
func (db *ModDatabase) GetMass(name string) (float64, bool) {
	mass, ok := db.mods[name]
	return mass, ok
}

// Add adds or updates a modification
func (db *ModDatabase) Add(name string, mass float64) {
	db.mods[name] = mass
}

// Len returns the number of known modifications.
func (db *ModDatabase) Len() int {
	return len(db.mods)
}

// ParseModString parses "Carbamidomethyl@C2;Oxidation@M8" or "57.021464@2".
// Prosit strings of the form "SEQUENCE//Mod@Pos;Mod@Pos/charge" are accepted
// as well; the sequence and charge parts are ignored.
func (db *ModDatabase) ParseModString(modStr string) ([]Modification, error) {
	if i := strings.Index(modStr, "//"); i >= 0 {
		modStr = modStr[i+2:]
		if j := strings.LastIndex(modStr, "/"); j >= 0 {
			modStr = modStr[:j]
		}
	}
	if strings.TrimSpace(modStr) == "" {
		return nil, nil
	}

	var mods []Modification
	for _, part := range strings.Split(modStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		nameOrMass, posStr, ok := strings.Cut(part, "@")
		if !ok {
			return nil, fmt.Errorf("invalid modification format '%s', expected 'name@position' or 'mass@position'", part)
		}
		nameOrMass = strings.TrimSpace(nameOrMass)

		mass, err := strconv.ParseFloat(nameOrMass, 64)
		if err != nil {
			var known bool
			mass, known = db.GetMass(nameOrMass)
			if !known {
				return nil, fmt.Errorf("unknown modification '%s'", nameOrMass)
			}
		}

		position, err := parsePosition(posStr)
		if err != nil {
			return nil, fmt.Errorf("invalid position '%s': %w", posStr, err)
		}

		mods = append(mods, Modification{
			Mass:     mass,
			Position: position,
			Name:     nameOrMass,
		})
	}

	return mods, nil
}

// parsePosition parses "2", "C2" (1-based) or "R-1" / "-1" (N-terminal).
func parsePosition(posStr string) (int, error) {
	posStr = strings.TrimSpace(posStr)
	if strings.HasSuffix(posStr, "-1") {
		return -1, nil
	}

	posStr = strings.TrimLeft(posStr, residueOrder)
	pos, err := strconv.Atoi(posStr)
	if err != nil {
		return 0, fmt.Errorf("invalid position number: %w", err)
	}
	if pos > 0 {
		pos--
	}
	return pos, nil
}

// commonModifications are unimod monoisotopic mass shifts.
var commonModifications = []struct {
	name string
	mass float64
}{
	{"Acetyl", 42.010565},
	{"Amidated", -0.984016},
	{"Biotin", 226.077598},
	{"Carbamidomethyl", 57.021464},
	{"Carbamyl", 43.005814},
	{"Carboxymethyl", 58.005479},
	{"Deamidated", 0.984016},
	{"Dehydrated", -18.010565},
	{"Dimethyl", 28.0313},
	{"Gln->pyro-Glu", -17.026549},
	{"Glu->pyro-Glu", -18.010565},
	{"Hex", 162.052824},
	{"HexNAc", 203.079373},
	{"Methyl", 14.01565},
	{"Oxidation", 15.994915},
	{"Phospho", 79.966331},
	{"Propionamide", 71.037114},
	{"Sulfo", 79.956815},
	{"Trimethyl", 42.04695},
	{"TMT", 229.162932},
	{"TMT_Pro", 304.207146},
	{"TMTPro", 304.207146},
	{"TMT6plex", 229.162932},
	{"TMT16plex", 304.207146},
	{"iTRAQ4plex", 144.102063},
	{"iTRAQ8plex", 304.205360},
}

// DefaultModDatabase returns a ModDatabase pre-loaded with common modifications
func DefaultModDatabase() *ModDatabase {
	db := NewModDatabase()
	for _, m := range commonModifications {
		db.Add(m.name, m.mass)
	}
	return db
}
