package vasp

import (
	"fmt"
	"math"

	"batkit/internal/structure"
)

// Kpoints is a gamma-centered automatic k-point mesh.
type Kpoints struct {
	Comment string
	Mesh    [3]int
}

// AutomaticDensityByVolume picks a gamma-centered mesh from a density of
// k-points per unit volume of reciprocal space. Subdivisions along each
// reciprocal vector are proportional to its length.
func AutomaticDensityByVolume(s *structure.Structure, kppvol float64) Kpoints {
	recipVol := math.Pow(2*math.Pi, 3) / s.Lattice.Volume()
	ngrid := kppvol * recipVol

	lengths := s.Lattice.Lengths()
	mult := math.Cbrt(ngrid * lengths[0] * lengths[1] * lengths[2])

	var mesh [3]int
	for i := 0; i < 3; i++ {
		n := int(math.Round(mult / lengths[i]))
		if n < 1 {
			n = 1
		}
		mesh[i] = n
	}
	return Kpoints{
		Comment: fmt.Sprintf("Automatic mesh, %.0f k-points per reciprocal volume", kppvol),
		Mesh:    mesh,
	}
}

// Format renders the KPOINTS file contents.
func (k Kpoints) Format() string {
	return fmt.Sprintf("%s\n0\nGamma\n%d %d %d\n0 0 0\n",
		k.Comment, k.Mesh[0], k.Mesh[1], k.Mesh[2])
}
