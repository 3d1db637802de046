// Package pathfinder refines a linearly interpolated migration path by
// relaxing the migrating site through a static potential derived from the
// host structure's charge density. Ions avoid regions of high charge density,
// so descending the normalized density gives a better NEB starting guess than
// the straight line.
package pathfinder

import (
	"fmt"
	"math"

	"batkit/internal/structure"
	"batkit/internal/vasp"
)

// Potential is a periodic scalar field over the unit cell, normalized to
// [0, 1].
type Potential struct {
	chg      *vasp.Chgcar
	min, max float64
}

// NewChgcarPotential normalizes a charge density into a potential.
func NewChgcarPotential(chg *vasp.Chgcar) (*Potential, error) {
	if len(chg.Data) == 0 {
		return nil, fmt.Errorf("empty charge density grid")
	}
	min, max := chg.MinMax()
	if max <= min {
		return nil, fmt.Errorf("charge density is constant, cannot normalize")
	}
	return &Potential{chg: chg, min: min, max: max}, nil
}

// At evaluates the normalized potential at fractional coordinates.
func (p *Potential) At(frac [3]float64) float64 {
	return (p.chg.At(frac) - p.min) / (p.max - p.min)
}

// gradient estimates the fractional-space gradient by central differences.
func (p *Potential) gradient(frac [3]float64) [3]float64 {
	const h = 1e-3
	var grad [3]float64
	for k := 0; k < 3; k++ {
		fp, fm := frac, frac
		fp[k] += h
		fm[k] -= h
		grad[k] = (p.At(fp) - p.At(fm)) / (2 * h)
	}
	return grad
}

// String-relaxation parameters. The step size is in fractional units; the
// spring term keeps images evenly spread along the path.
const (
	maxIterations = 500
	stepSize      = 0.02
	springWeight  = 0.2
	convergence   = 1e-5
)

// Pathfinder computes a potential-guided transition path between two
// structures for a chosen migrating site. All other sites follow the linear
// interpolation.
type Pathfinder struct {
	images []*structure.Structure
}

// NewPathfinder interpolates nimages intermediate images between start and
// end and relaxes the migrating site's path through the potential.
func NewPathfinder(start, end *structure.Structure, relaxSite int, v *Potential, nimages int) (*Pathfinder, error) {
	if relaxSite < 0 || relaxSite >= start.Len() {
		return nil, fmt.Errorf("relax site %d out of range [0, %d)", relaxSite, start.Len())
	}
	images, err := start.Interpolate(end, nimages)
	if err != nil {
		return nil, fmt.Errorf("interpolate path: %w", err)
	}

	path := make([][3]float64, len(images))
	for n, img := range images {
		path[n] = img.Sites[relaxSite].FracCoords
	}
	relaxPath(path, v)
	for n, img := range images {
		img.Sites[relaxSite].FracCoords = path[n]
	}

	return &Pathfinder{images: images}, nil
}

// relaxPath moves the intermediate points downhill on the potential while a
// spring term keeps the string smooth. Endpoints stay fixed.
func relaxPath(path [][3]float64, v *Potential) {
	for iter := 0; iter < maxIterations; iter++ {
		maxMove := 0.0
		for n := 1; n < len(path)-1; n++ {
			grad := v.gradient(path[n])
			var next [3]float64
			for k := 0; k < 3; k++ {
				spring := path[n-1][k] + path[n+1][k] - 2*path[n][k]
				next[k] = path[n][k] - stepSize*grad[k] + springWeight*spring
			}
			move := 0.0
			for k := 0; k < 3; k++ {
				d := next[k] - path[n][k]
				move += d * d
			}
			if m := math.Sqrt(move); m > maxMove {
				maxMove = m
			}
			path[n] = next
		}
		if maxMove < convergence {
			return
		}
	}
}

// Images returns the relaxed path, endpoints included.
func (pf *Pathfinder) Images() []*structure.Structure {
	return pf.images
}

// PlotImages writes all images superimposed into one structure file.
func (pf *Pathfinder) PlotImages(path string) error {
	combined := pf.images[0].Copy()
	combined.Comment = "pathfinder images"
	combined.Properties = nil
	for _, img := range pf.images[1:] {
		combined.Sites = append(combined.Sites, img.Sites...)
	}
	return combined.ToFile(path)
}
