package vasp

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"batkit/internal/structure"
)

// Chgcar is a charge density on a regular grid over the unit cell, as written
// by VASP: a POSCAR header followed by grid dimensions and NGX*NGY*NGZ values
// (charge times cell volume), x-fastest.
type Chgcar struct {
	Structure *structure.Structure
	Dims      [3]int
	Data      []float64
}

// ReadChgcar parses a CHGCAR file.
func ReadChgcar(path string) (*Chgcar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read CHGCAR: %w", err)
	}
	return ParseChgcar(string(data))
}

// ParseChgcar parses CHGCAR contents. Only the first (total) density block is
// read; augmentation occupancies and spin-difference blocks are ignored.
func ParseChgcar(content string) (*Chgcar, error) {
	lines := strings.Split(content, "\n")

	// The structure header ends at the first blank line.
	headerEnd := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			headerEnd = i
			break
		}
	}
	if headerEnd < 0 {
		return nil, fmt.Errorf("CHGCAR has no grid section")
	}

	s, err := structure.ParsePOSCAR(strings.Join(lines[:headerEnd], "\n"))
	if err != nil {
		return nil, fmt.Errorf("parse CHGCAR header: %w", err)
	}

	idx := headerEnd
	for idx < len(lines) && strings.TrimSpace(lines[idx]) == "" {
		idx++
	}
	if idx >= len(lines) {
		return nil, fmt.Errorf("CHGCAR missing grid dimensions")
	}
	dimFields := strings.Fields(lines[idx])
	if len(dimFields) != 3 {
		return nil, fmt.Errorf("malformed CHGCAR grid dimensions %q", lines[idx])
	}
	var dims [3]int
	total := 1
	for i, f := range dimFields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("malformed CHGCAR grid dimension %q", f)
		}
		dims[i] = n
		total *= n
	}
	idx++

	data := make([]float64, 0, total)
	for idx < len(lines) && len(data) < total {
		for _, f := range strings.Fields(lines[idx]) {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("parse CHGCAR value %q: %w", f, err)
			}
			data = append(data, v)
			if len(data) == total {
				break
			}
		}
		idx++
	}
	if len(data) < total {
		return nil, fmt.Errorf("CHGCAR grid truncated: %d of %d values", len(data), total)
	}

	return &Chgcar{Structure: s, Dims: dims, Data: data}, nil
}

// At returns the density at fractional coordinates using periodic trilinear
// interpolation.
func (c *Chgcar) At(frac [3]float64) float64 {
	var lo, hi [3]int
	var w [3]float64
	for k := 0; k < 3; k++ {
		f := frac[k] - math.Floor(frac[k])
		x := f * float64(c.Dims[k])
		lo[k] = int(math.Floor(x)) % c.Dims[k]
		hi[k] = (lo[k] + 1) % c.Dims[k]
		w[k] = x - math.Floor(x)
	}
	value := 0.0
	for dx := 0; dx < 2; dx++ {
		for dy := 0; dy < 2; dy++ {
			for dz := 0; dz < 2; dz++ {
				ix, wx := pick(lo[0], hi[0], w[0], dx)
				iy, wy := pick(lo[1], hi[1], w[1], dy)
				iz, wz := pick(lo[2], hi[2], w[2], dz)
				value += wx * wy * wz * c.value(ix, iy, iz)
			}
		}
	}
	return value
}

func pick(lo, hi int, w float64, d int) (int, float64) {
	if d == 0 {
		return lo, 1 - w
	}
	return hi, w
}

// value reads the grid x-fastest, the CHGCAR layout.
func (c *Chgcar) value(ix, iy, iz int) float64 {
	return c.Data[ix+c.Dims[0]*(iy+c.Dims[1]*iz)]
}

// MinMax returns the smallest and largest grid values.
func (c *Chgcar) MinMax() (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range c.Data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
