package structure

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatPOSCAR renders the structure in VASP 5 POSCAR format: comment line,
// scale factor, lattice rows, symbol and count lines, then fractional
// coordinates under a "Direct" header.
func (s *Structure) FormatPOSCAR() string {
	var b strings.Builder
	comment := s.Comment
	if comment == "" {
		symbols, counts := s.SymbolCounts()
		parts := make([]string, len(symbols))
		for i := range symbols {
			parts[i] = fmt.Sprintf("%s%d", symbols[i], counts[i])
		}
		comment = strings.Join(parts, " ")
	}
	fmt.Fprintln(&b, comment)
	fmt.Fprintln(&b, "1.0")
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&b, "  %18.12f %18.12f %18.12f\n",
			s.Lattice.Matrix[i][0], s.Lattice.Matrix[i][1], s.Lattice.Matrix[i][2])
	}
	symbols, counts := s.SymbolCounts()
	fmt.Fprintln(&b, "  "+strings.Join(symbols, " "))
	countStrs := make([]string, len(counts))
	for i, c := range counts {
		countStrs[i] = strconv.Itoa(c)
	}
	fmt.Fprintln(&b, "  "+strings.Join(countStrs, " "))
	fmt.Fprintln(&b, "Direct")
	for _, site := range s.Sites {
		fmt.Fprintf(&b, "  %18.12f %18.12f %18.12f %s\n",
			site.FracCoords[0], site.FracCoords[1], site.FracCoords[2], site.Species)
	}
	return b.String()
}

// ParsePOSCAR parses a VASP 5 POSCAR/CONTCAR. Selective dynamics flags are
// skipped; cartesian coordinates are converted to fractional.
func ParsePOSCAR(content string) (*Structure, error) {
	lines := nonEmptyLines(content)
	if len(lines) < 8 {
		return nil, fmt.Errorf("POSCAR too short: %d lines", len(lines))
	}

	comment := strings.TrimSpace(lines[0])
	scale, err := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("parse POSCAR scale factor: %w", err)
	}

	var lat Lattice
	for i := 0; i < 3; i++ {
		row, err := parseFloats(lines[2+i], 3)
		if err != nil {
			return nil, fmt.Errorf("parse lattice row %d: %w", i+1, err)
		}
		for j := 0; j < 3; j++ {
			lat.Matrix[i][j] = row[j] * scale
		}
	}

	symbols := strings.Fields(lines[5])
	countFields := strings.Fields(lines[6])
	if len(symbols) != len(countFields) {
		return nil, fmt.Errorf("POSCAR symbol/count mismatch: %d symbols, %d counts",
			len(symbols), len(countFields))
	}
	counts := make([]int, len(countFields))
	total := 0
	for i, f := range countFields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("parse species count %q: %w", f, err)
		}
		counts[i] = n
		total += n
	}

	idx := 7
	mode := strings.ToLower(strings.TrimSpace(lines[idx]))
	if strings.HasPrefix(mode, "s") { // selective dynamics
		idx++
		mode = strings.ToLower(strings.TrimSpace(lines[idx]))
	}
	cartesian := strings.HasPrefix(mode, "c") || strings.HasPrefix(mode, "k")
	idx++

	if len(lines) < idx+total {
		return nil, fmt.Errorf("POSCAR declares %d sites but has %d coordinate lines",
			total, len(lines)-idx)
	}

	s := &Structure{Comment: comment, Lattice: lat}
	for i, symbol := range symbols {
		for n := 0; n < counts[i]; n++ {
			coords, err := parseFloats(lines[idx], 3)
			if err != nil {
				return nil, fmt.Errorf("parse coordinates line %d: %w", idx+1, err)
			}
			frac := [3]float64{coords[0], coords[1], coords[2]}
			if cartesian {
				frac, err = lat.Fractional([3]float64{
					coords[0] * scale, coords[1] * scale, coords[2] * scale,
				})
				if err != nil {
					return nil, err
				}
			}
			s.Sites = append(s.Sites, Site{Species: symbol, FracCoords: frac})
			idx++
		}
	}
	return s, nil
}

func nonEmptyLines(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func parseFloats(line string, n int) ([]float64, error) {
	fields := strings.Fields(line)
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
