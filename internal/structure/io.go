package structure

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// structureJSON is the on-disk JSON schema for structures. It mirrors the
// in-memory model: a lattice matrix, sites with species and fractional
// coordinates, and named per-site property vectors.
type structureJSON struct {
	Comment    string               `json:"comment,omitempty"`
	Lattice    latticeJSON          `json:"lattice"`
	Sites      []siteJSON           `json:"sites"`
	Properties map[string][]float64 `json:"properties,omitempty"`
}

type latticeJSON struct {
	Matrix [3][3]float64 `json:"matrix"`
}

type siteJSON struct {
	Species    string     `json:"species"`
	FracCoords [3]float64 `json:"frac_coords"`
}

// FromFile loads a structure, dispatching on the file name: *.json uses the
// JSON schema, POSCAR/CONTCAR-style names and *.vasp use the POSCAR format.
func FromFile(path string) (*Structure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read structure file: %w", err)
	}
	base := filepath.Base(path)
	switch {
	case strings.HasSuffix(base, ".json"):
		return FromJSON(data)
	case strings.Contains(base, "POSCAR"), strings.Contains(base, "CONTCAR"),
		strings.HasSuffix(base, ".vasp"):
		return ParsePOSCAR(string(data))
	default:
		return nil, fmt.Errorf("unrecognized structure format: %s", base)
	}
}

// ToFile writes a structure, dispatching on the file name the same way
// FromFile does.
func (s *Structure) ToFile(path string) error {
	base := filepath.Base(path)
	var data []byte
	var err error
	switch {
	case strings.HasSuffix(base, ".json"):
		data, err = s.MarshalJSON()
	case strings.Contains(base, "POSCAR"), strings.Contains(base, "CONTCAR"),
		strings.HasSuffix(base, ".vasp"):
		data = []byte(s.FormatPOSCAR())
	default:
		return fmt.Errorf("unrecognized structure format: %s", base)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write structure file: %w", err)
	}
	return nil
}

// FromJSON decodes a structure from its JSON schema.
func FromJSON(data []byte) (*Structure, error) {
	var raw structureJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse structure JSON: %w", err)
	}
	s := &Structure{
		Comment: raw.Comment,
		Lattice: Lattice{Matrix: raw.Lattice.Matrix},
	}
	for _, site := range raw.Sites {
		s.Sites = append(s.Sites, Site{Species: site.Species, FracCoords: site.FracCoords})
	}
	for name, values := range raw.Properties {
		if err := s.AddSiteProperty(name, values); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MarshalJSON encodes the structure into its JSON schema.
func (s *Structure) MarshalJSON() ([]byte, error) {
	raw := structureJSON{
		Comment:    s.Comment,
		Lattice:    latticeJSON{Matrix: s.Lattice.Matrix},
		Properties: s.Properties,
	}
	for _, site := range s.Sites {
		raw.Sites = append(raw.Sites, siteJSON{
			Species:    site.Species,
			FracCoords: site.FracCoords,
		})
	}
	return json.MarshalIndent(raw, "", "  ")
}
