package structure

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// MagmomProperty is the site property key for the magnetic moment.
const MagmomProperty = "magmom"

// ErrSiteCountMismatch is returned when an operation requires two structures
// with the same number of sites and the counts differ.
var ErrSiteCountMismatch = errors.New("structures do not have the same number of sites")

// Site is a single atomic site: a species symbol and fractional coordinates.
type Site struct {
	Species    string
	FracCoords [3]float64
}

// Structure is an ordered collection of sites on a lattice, with optional
// named per-site property vectors (one value per site).
type Structure struct {
	Comment    string
	Lattice    Lattice
	Sites      []Site
	Properties map[string][]float64
}

// New builds a structure from a lattice, species symbols and fractional
// coordinates. The species and coordinate slices must have equal length.
func New(lattice Lattice, species []string, frac [][3]float64) (*Structure, error) {
	if len(species) != len(frac) {
		return nil, fmt.Errorf("species (%d) and coordinates (%d) differ in length",
			len(species), len(frac))
	}
	sites := make([]Site, len(species))
	for i := range species {
		sites[i] = Site{Species: species[i], FracCoords: frac[i]}
	}
	return &Structure{Lattice: lattice, Sites: sites}, nil
}

// Len returns the number of sites.
func (s *Structure) Len() int { return len(s.Sites) }

// CartesianCoords returns the cartesian coordinates of site i.
func (s *Structure) CartesianCoords(i int) [3]float64 {
	return s.Lattice.Cartesian(s.Sites[i].FracCoords)
}

// AllCartesianCoords returns the cartesian coordinates of every site, in order.
func (s *Structure) AllCartesianCoords() [][3]float64 {
	out := make([][3]float64, len(s.Sites))
	for i := range s.Sites {
		out[i] = s.CartesianCoords(i)
	}
	return out
}

// HasSiteProperty reports whether the named per-site property is present.
func (s *Structure) HasSiteProperty(name string) bool {
	_, ok := s.Properties[name]
	return ok
}

// SiteProperty returns the named per-site property vector.
func (s *Structure) SiteProperty(name string) ([]float64, bool) {
	v, ok := s.Properties[name]
	return v, ok
}

// AddSiteProperty sets a per-site property vector. The vector must have one
// value per site.
func (s *Structure) AddSiteProperty(name string, values []float64) error {
	if len(values) != len(s.Sites) {
		return fmt.Errorf("property %q has %d values for %d sites",
			name, len(values), len(s.Sites))
	}
	if s.Properties == nil {
		s.Properties = make(map[string][]float64)
	}
	s.Properties[name] = values
	return nil
}

// EnsureMagmom populates the magnetic moment property with zeros when it is
// absent. Calculations require a value for every site.
func (s *Structure) EnsureMagmom() {
	if s.HasSiteProperty(MagmomProperty) {
		return
	}
	_ = s.AddSiteProperty(MagmomProperty, make([]float64, len(s.Sites)))
}

// Copy returns a deep copy of the structure.
func (s *Structure) Copy() *Structure {
	out := &Structure{
		Comment: s.Comment,
		Lattice: s.Lattice,
		Sites:   append([]Site(nil), s.Sites...),
	}
	if s.Properties != nil {
		out.Properties = make(map[string][]float64, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = append([]float64(nil), v...)
		}
	}
	return out
}

// RemoveSites removes the sites at the given indices, along with their
// entries in every per-site property vector.
func (s *Structure) RemoveSites(indices []int) error {
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(s.Sites) {
			return fmt.Errorf("site index %d out of range [0, %d)", i, len(s.Sites))
		}
		drop[i] = true
	}
	kept := make([]Site, 0, len(s.Sites)-len(drop))
	keptIdx := make([]int, 0, len(s.Sites)-len(drop))
	for i, site := range s.Sites {
		if !drop[i] {
			kept = append(kept, site)
			keptIdx = append(keptIdx, i)
		}
	}
	s.Sites = kept
	for name, values := range s.Properties {
		filtered := make([]float64, len(keptIdx))
		for j, i := range keptIdx {
			filtered[j] = values[i]
		}
		s.Properties[name] = filtered
	}
	return nil
}

// Species returns the species symbol of every site, in order.
func (s *Structure) Species() []string {
	out := make([]string, len(s.Sites))
	for i, site := range s.Sites {
		out[i] = site.Species
	}
	return out
}

// SymbolCounts groups consecutive sites by species, the way POSCAR files
// expect them: a list of (symbol, count) pairs in site order.
func (s *Structure) SymbolCounts() ([]string, []int) {
	var symbols []string
	var counts []int
	for _, site := range s.Sites {
		n := len(symbols)
		if n > 0 && symbols[n-1] == site.Species {
			counts[n-1]++
			continue
		}
		symbols = append(symbols, site.Species)
		counts = append(counts, 1)
	}
	return symbols, counts
}

// Interpolate linearly interpolates between s and end in fractional
// coordinates, returning nimages+1 structures including both endpoints.
// Fractional differences are wrapped to the nearest periodic image so the
// path does not run across the whole cell.
func (s *Structure) Interpolate(end *Structure, nimages int) ([]*Structure, error) {
	if len(s.Sites) != len(end.Sites) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrSiteCountMismatch,
			len(s.Sites), len(end.Sites))
	}
	if nimages < 1 {
		return nil, fmt.Errorf("nimages must be positive, got %d", nimages)
	}
	for i := range s.Sites {
		if s.Sites[i].Species != end.Sites[i].Species {
			return nil, fmt.Errorf("species mismatch at site %d: %s vs %s",
				i, s.Sites[i].Species, end.Sites[i].Species)
		}
	}

	diffs := make([][3]float64, len(s.Sites))
	for i := range s.Sites {
		for k := 0; k < 3; k++ {
			d := end.Sites[i].FracCoords[k] - s.Sites[i].FracCoords[k]
			d -= math.Round(d)
			diffs[i][k] = d
		}
	}

	images := make([]*Structure, nimages+1)
	for n := 0; n <= nimages; n++ {
		img := s.Copy()
		t := float64(n) / float64(nimages)
		for i := range img.Sites {
			for k := 0; k < 3; k++ {
				img.Sites[i].FracCoords[k] = s.Sites[i].FracCoords[k] + t*diffs[i][k]
			}
		}
		img.Comment = fmt.Sprintf("%s image %d/%d", s.Comment, n, nimages)
		images[n] = img
	}
	return images, nil
}

// MakeSupercell expands the structure by integer multiples along each lattice
// vector, replicating sites and per-site properties.
func (s *Structure) MakeSupercell(scaling [3]int) error {
	for _, n := range scaling {
		if n < 1 {
			return fmt.Errorf("supercell scaling must be positive, got %v", scaling)
		}
	}
	var lat Lattice
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			lat.Matrix[i][j] = s.Lattice.Matrix[i][j] * float64(scaling[i])
		}
	}

	var sites []Site
	var srcIdx []int
	for i, site := range s.Sites {
		for a := 0; a < scaling[0]; a++ {
			for b := 0; b < scaling[1]; b++ {
				for c := 0; c < scaling[2]; c++ {
					frac := [3]float64{
						(site.FracCoords[0] + float64(a)) / float64(scaling[0]),
						(site.FracCoords[1] + float64(b)) / float64(scaling[1]),
						(site.FracCoords[2] + float64(c)) / float64(scaling[2]),
					}
					sites = append(sites, Site{Species: site.Species, FracCoords: frac})
					srcIdx = append(srcIdx, i)
				}
			}
		}
	}
	// Keep species grouped so POSCAR symbol blocks stay contiguous.
	order := make([]int, len(sites))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return srcIdx[order[a]] < srcIdx[order[b]]
	})
	ordered := make([]Site, len(sites))
	for j, i := range order {
		ordered[j] = sites[i]
	}

	props := make(map[string][]float64, len(s.Properties))
	for name, values := range s.Properties {
		expanded := make([]float64, len(ordered))
		for j, i := range order {
			expanded[j] = values[srcIdx[i]]
		}
		props[name] = expanded
	}

	s.Lattice = lat
	s.Sites = ordered
	if len(props) > 0 {
		s.Properties = props
	}
	return nil
}

// SetSiteDistance moves the two given sites symmetrically along the vector
// connecting them (minimum image) until they are the requested distance apart.
func (s *Structure) SetSiteDistance(i, j int, distance float64) error {
	if i < 0 || i >= len(s.Sites) || j < 0 || j >= len(s.Sites) || i == j {
		return fmt.Errorf("invalid site pair (%d, %d)", i, j)
	}
	if distance <= 0 {
		return fmt.Errorf("distance must be positive, got %g", distance)
	}
	disp := s.Lattice.MinimumImageDisplacement(s.Sites[i].FracCoords, s.Sites[j].FracCoords)
	current := norm(disp)
	if current < 1e-8 {
		return fmt.Errorf("sites %d and %d coincide", i, j)
	}
	// Each site moves half the correction along the connecting vector.
	shift := (current - distance) / (2 * current)
	var cartShift [3]float64
	for k := 0; k < 3; k++ {
		cartShift[k] = disp[k] * shift
	}
	fracShift, err := s.Lattice.Fractional(cartShift)
	if err != nil {
		return err
	}
	for k := 0; k < 3; k++ {
		s.Sites[i].FracCoords[k] += fracShift[k]
		s.Sites[j].FracCoords[k] -= fracShift[k]
	}
	return nil
}

// Distance returns the minimum-image distance in angstrom between sites i and j.
func (s *Structure) Distance(i, j int) float64 {
	return norm(s.Lattice.MinimumImageDisplacement(s.Sites[i].FracCoords, s.Sites[j].FracCoords))
}
