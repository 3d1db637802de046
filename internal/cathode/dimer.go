package cathode

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"batkit/internal/structure"
)

// Pair distance below which two oxygen sites are considered a candidate
// dimer, and the radius of the coordination environment used to classify
// dimers as equivalent.
const (
	dimerCutoff       = 3.0
	environmentCutoff = 3.2
)

// Dimer is a pair of oxygen sites that can form a peroxo-like dimer, plus the
// coordination environment used to tell non-equivalent dimers apart.
type Dimer struct {
	Indices     [2]int
	Distance    float64
	Environment []int // site indices within environmentCutoff of either oxygen
	fingerprint string
}

// LiRichCathode is a lithium-rich cathode, where oxygen dimer formation
// accompanies delithiation.
type LiRichCathode struct {
	Cathode
}

// LiRichFromFile loads a lithium-rich cathode from a structure file.
func LiRichFromFile(path string) (*LiRichCathode, error) {
	c, err := FromFile(path)
	if err != nil {
		return nil, err
	}
	return &LiRichCathode{Cathode: *c}, nil
}

// FindNonEqDimers enumerates the oxygen pairs close enough to dimerize and
// keeps one representative per equivalence class. Two dimers are considered
// equivalent when their pair distance and the species/distance signature of
// their coordination environments match.
func (c *LiRichCathode) FindNonEqDimers() []Dimer {
	s := c.Struct
	var oxygens []int
	for i, site := range s.Sites {
		if site.Species == "O" {
			oxygens = append(oxygens, i)
		}
	}

	seen := make(map[string]bool)
	var dimers []Dimer
	for a := 0; a < len(oxygens); a++ {
		for b := a + 1; b < len(oxygens); b++ {
			i, j := oxygens[a], oxygens[b]
			d := s.Distance(i, j)
			if d > dimerCutoff {
				continue
			}
			dimer := Dimer{Indices: [2]int{i, j}, Distance: d}
			dimer.Environment = environmentOf(s, i, j)
			dimer.fingerprint = fingerprint(s, dimer)
			if seen[dimer.fingerprint] {
				continue
			}
			seen[dimer.fingerprint] = true
			dimers = append(dimers, dimer)
		}
	}
	return dimers
}

// environmentOf collects the sites coordinating either oxygen of the pair.
func environmentOf(s *structure.Structure, i, j int) []int {
	var env []int
	for k := range s.Sites {
		if k == i || k == j {
			continue
		}
		if s.Distance(i, k) <= environmentCutoff || s.Distance(j, k) <= environmentCutoff {
			env = append(env, k)
		}
	}
	return env
}

// fingerprint builds the equivalence signature of a dimer: the rounded pair
// distance plus the sorted species/distance pairs of its environment.
func fingerprint(s *structure.Structure, d Dimer) string {
	parts := []string{fmt.Sprintf("%.2f", d.Distance)}
	var env []string
	for _, k := range d.Environment {
		da := s.Distance(d.Indices[0], k)
		db := s.Distance(d.Indices[1], k)
		if db < da {
			da, db = db, da
		}
		env = append(env, fmt.Sprintf("%s:%.2f:%.2f", s.Sites[k].Species, da, db))
	}
	sort.Strings(env)
	return strings.Join(append(parts, env...), "|")
}

// WriteEnvironment writes the dimer pair and its coordination environment as
// an XYZ file for quick inspection.
func (c *LiRichCathode) WriteEnvironment(d Dimer, path string) error {
	s := c.Struct
	indices := append([]int{d.Indices[0], d.Indices[1]}, d.Environment...)

	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", len(indices))
	fmt.Fprintf(&b, "dimer %d_%d environment\n", d.Indices[0], d.Indices[1])
	for _, i := range indices {
		cart := s.CartesianCoords(i)
		fmt.Fprintf(&b, "%-2s %12.6f %12.6f %12.6f\n",
			s.Sites[i].Species, cart[0], cart[1], cart[2])
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write dimer environment: %w", err)
	}
	return nil
}
