package vasp

import (
	"fmt"
	"strings"

	"batkit/internal/config"
	"batkit/internal/structure"
)

// PotcarSpec is the pseudopotential specification for a calculation: the
// functional library name and one POTCAR symbol per species group, in POSCAR
// order. Actual POTCAR concatenation happens on the cluster, where the
// licensed pseudopotential library lives; the spec file tells it what to pick.
type PotcarSpec struct {
	Functional string
	Symbols    []string
}

// NewPotcarSpec maps the structure's species groups to POTCAR symbols using
// the profile's element table. Elements without a table entry use the bare
// element symbol.
func NewPotcarSpec(s *structure.Structure, settings config.PotcarSettings) PotcarSpec {
	elements, _ := s.SymbolCounts()
	symbols := make([]string, len(elements))
	for i, el := range elements {
		if mapped, ok := settings.Symbols[el]; ok {
			symbols[i] = mapped
		} else {
			symbols[i] = el
		}
	}
	functional := settings.Functional
	if functional == "" {
		functional = DefaultFunctional
	}
	return PotcarSpec{Functional: functional, Symbols: symbols}
}

// DefaultFunctional is the pseudopotential library used when a profile does
// not name one.
const DefaultFunctional = "PBE_54"

// Format renders the POTCAR.spec file contents.
func (p PotcarSpec) Format() string {
	var b strings.Builder
	fmt.Fprintln(&b, p.Functional)
	for _, s := range p.Symbols {
		fmt.Fprintln(&b, s)
	}
	return b.String()
}
