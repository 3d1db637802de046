// Package cathode models battery cathode structures on top of the plain
// crystal structure: cation-configuration-aware loading and, for lithium-rich
// compositions, enumeration of the non-equivalent oxygen dimers whose
// formation is studied during delithiation.
package cathode

import (
	"fmt"

	"batkit/internal/structure"
)

// Cathode is a cathode material structure. The underlying structure carries
// the cation configuration through its site ordering and properties, which is
// why cathodes are stored in the JSON schema rather than bare POSCAR files.
type Cathode struct {
	Struct *structure.Structure
}

// FromFile loads a cathode from a structure file.
func FromFile(path string) (*Cathode, error) {
	s, err := structure.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load cathode: %w", err)
	}
	return &Cathode{Struct: s}, nil
}

// AsStructure returns a copy of the underlying structure, decoupled from the
// cathode so calculation setup can mutate it freely.
func (c *Cathode) AsStructure() *structure.Structure {
	return c.Struct.Copy()
}

// Copy returns a deep copy of the cathode.
func (c *Cathode) Copy() *Cathode {
	return &Cathode{Struct: c.Struct.Copy()}
}

// ChangeSiteDistance moves the two given sites symmetrically until they are
// the requested distance apart.
func (c *Cathode) ChangeSiteDistance(i, j int, distance float64) error {
	return c.Struct.SetSiteDistance(i, j, distance)
}
