package setup

import (
	"errors"
	"fmt"
	"math"

	"batkit/internal/structure"
)

// ErrNoDisplacement is returned when no site moved between the two
// structures, so no migrating ion can be identified.
var ErrNoDisplacement = errors.New("no site displacement between structures")

// MaxDisplacementIndex returns the index of the coordinate triple with the
// largest Euclidean displacement between two equal-length ordered sequences.
// Coordinates are taken at face value; use FindMigratingIon for the
// periodicity-aware version.
func MaxDisplacementIndex(initial, final [][3]float64) (int, error) {
	if len(initial) != len(final) {
		return 0, fmt.Errorf("%w: %d vs %d sites",
			structure.ErrSiteCountMismatch, len(initial), len(final))
	}

	maxDistance := 0.0
	migrating := -1
	for i := range initial {
		var d2 float64
		for k := 0; k < 3; k++ {
			d := final[i][k] - initial[i][k]
			d2 += d * d
		}
		if dist := math.Sqrt(d2); dist > maxDistance {
			maxDistance = dist
			migrating = i
		}
	}
	if migrating < 0 {
		return 0, ErrNoDisplacement
	}
	return migrating, nil
}

// FindMigratingIon locates the migrating ion between two site-aligned
// structures: the site whose minimum-image displacement is largest. Using the
// minimum image keeps sites that merely crossed a periodic boundary from
// being mis-identified. Site indices of the two structures must correspond.
func FindMigratingIon(initial, final *structure.Structure) (int, error) {
	if initial.Len() != final.Len() {
		return 0, fmt.Errorf("%w: %d vs %d sites",
			structure.ErrSiteCountMismatch, initial.Len(), final.Len())
	}

	displaced := make([][3]float64, final.Len())
	zeros := make([][3]float64, final.Len())
	for i := 0; i < final.Len(); i++ {
		displaced[i] = initial.Lattice.MinimumImageDisplacement(
			initial.Sites[i].FracCoords, final.Sites[i].FracCoords)
	}
	return MaxDisplacementIndex(zeros, displaced)
}
