package msp

import (
	"strconv"
	"strings"

	"github.com/ChrisMcGann/LibKey/pkg/core"
)

// parsePeptide recognises Prosit/NIST peptide entries, named "SEQUENCE/CHARGE"
// with "key=value" metadata in the comment (Parent, Collision_energy, iRT,
// ModString). Anything that does not fit leaves the molecule unchanged.
func parsePeptide(m *core.Molecule, modDB *core.ModDatabase) {
	seq, chargeStr, ok := strings.Cut(m.Name, "/")
	if !ok || seq == "" {
		return
	}
	charge, err := strconv.Atoi(chargeStr)
	if err != nil || charge <= 0 {
		return
	}
	for _, aa := range seq {
		if core.ResidueCode(aa) < 0 {
			return
		}
	}

	pep := &core.Peptide{Sequence: seq, Charge: charge}

	for _, kv := range strings.Fields(m.Comment) {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch key {
		case "Parent":
			if mz, err := strconv.ParseFloat(value, 64); err == nil && m.PrecursorMz == 0 {
				m.PrecursorMz = mz
			}
		case "Collision_energy", "CollisionEnergy":
			if ce, err := strconv.ParseFloat(value, 64); err == nil && m.CollisionEnergy < 0 {
				m.CollisionEnergy = ce
			}
		case "iRT", "RetentionTime":
			if rt, err := strconv.ParseFloat(value, 64); err == nil && m.ChromXs.RT < 0 {
				m.ChromXs.RT = rt
			}
		case "ModString":
			// Unknown modifications are dropped; the spectrum itself is kept.
			if mods, err := modDB.ParseModString(value); err == nil {
				pep.Modifications = mods
			}
		}
	}

	if m.PrecursorMz == 0 {
		m.PrecursorMz = core.CalculatePeptideMass(seq, charge, pep.Modifications)
	}
	if m.PrecursorCharge == 0 {
		m.PrecursorCharge = charge
	}
	if m.IonMode == core.IonModeUnknown {
		m.IonMode = core.Positive
	}
	m.Peptide = pep
}
