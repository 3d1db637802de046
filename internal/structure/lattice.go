// Package structure implements the crystal structure model used by the setup
// workflows: a lattice, an ordered list of sites with fractional coordinates,
// and named per-site property vectors such as the magnetic moment.
package structure

import (
	"fmt"
	"math"
)

// Lattice is a 3x3 matrix of row vectors in angstrom.
type Lattice struct {
	Matrix [3][3]float64
}

// NewLattice builds a lattice from three row vectors.
func NewLattice(a, b, c [3]float64) Lattice {
	return Lattice{Matrix: [3][3]float64{a, b, c}}
}

// Cubic returns a cubic lattice with edge length a.
func Cubic(a float64) Lattice {
	return NewLattice(
		[3]float64{a, 0, 0},
		[3]float64{0, a, 0},
		[3]float64{0, 0, a},
	)
}

// Lengths returns the lengths of the three lattice vectors.
func (l Lattice) Lengths() [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = norm(l.Matrix[i])
	}
	return out
}

// Volume returns the cell volume (absolute value of the triple product).
func (l Lattice) Volume() float64 {
	m := l.Matrix
	v := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	return math.Abs(v)
}

// Cartesian converts fractional coordinates to cartesian.
func (l Lattice) Cartesian(frac [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[j] += frac[i] * l.Matrix[i][j]
		}
	}
	return out
}

// Fractional converts cartesian coordinates to fractional.
func (l Lattice) Fractional(cart [3]float64) ([3]float64, error) {
	inv, err := invert3(l.Matrix)
	if err != nil {
		return [3]float64{}, fmt.Errorf("singular lattice: %w", err)
	}
	var out [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[j] += cart[i] * inv[i][j]
		}
	}
	return out, nil
}

// ReciprocalLengths returns the lengths of the reciprocal lattice vectors,
// including the 2*pi factor. Used to pick automatic k-point meshes.
func (l Lattice) ReciprocalLengths() [3]float64 {
	vol := l.Volume()
	m := l.Matrix
	var out [3]float64
	for i := 0; i < 3; i++ {
		j, k := (i+1)%3, (i+2)%3
		out[i] = 2 * math.Pi * norm(cross(m[j], m[k])) / vol
	}
	return out
}

// MinimumImageDisplacement returns the cartesian displacement from frac1 to
// frac2 under the minimum-image convention: each fractional difference is
// wrapped into [-0.5, 0.5) before converting to cartesian.
func (l Lattice) MinimumImageDisplacement(frac1, frac2 [3]float64) [3]float64 {
	var diff [3]float64
	for i := 0; i < 3; i++ {
		d := frac2[i] - frac1[i]
		d -= math.Round(d)
		diff[i] = d
	}
	return l.Cartesian(diff)
}

func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func invert3(m [3][3]float64) ([3][3]float64, error) {
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	if math.Abs(det) < 1e-12 {
		return [3][3]float64{}, fmt.Errorf("determinant is zero")
	}
	var inv [3][3]float64
	inv[0][0] = (m[1][1]*m[2][2] - m[1][2]*m[2][1]) / det
	inv[0][1] = (m[0][2]*m[2][1] - m[0][1]*m[2][2]) / det
	inv[0][2] = (m[0][1]*m[1][2] - m[0][2]*m[1][1]) / det
	inv[1][0] = (m[1][2]*m[2][0] - m[1][0]*m[2][2]) / det
	inv[1][1] = (m[0][0]*m[2][2] - m[0][2]*m[2][0]) / det
	inv[1][2] = (m[0][2]*m[1][0] - m[0][0]*m[1][2]) / det
	inv[2][0] = (m[1][0]*m[2][1] - m[1][1]*m[2][0]) / det
	inv[2][1] = (m[0][1]*m[2][0] - m[0][0]*m[2][1]) / det
	inv[2][2] = (m[0][0]*m[1][1] - m[0][1]*m[1][0]) / det
	return inv, nil
}
