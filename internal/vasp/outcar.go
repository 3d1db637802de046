package vasp

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Outcar holds the pieces of an OUTCAR file the workflows consume: the final
// total energy and the per-ion total magnetization of the last ionic step.
type Outcar struct {
	FinalEnergy   float64
	Magnetization []float64
}

// ReadOutcar parses an OUTCAR file.
func ReadOutcar(path string) (*Outcar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read OUTCAR: %w", err)
	}
	return ParseOutcar(string(data))
}

// ParseOutcar parses OUTCAR contents. The last magnetization block and the
// last free-energy line win, matching the end-of-run state.
func ParseOutcar(content string) (*Outcar, error) {
	lines := strings.Split(content, "\n")
	out := &Outcar{}
	foundEnergy := false

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if strings.Contains(line, "free  energy   TOTEN") {
			fields := strings.Fields(line)
			// "free  energy   TOTEN  =     -123.45678 eV"
			for j, f := range fields {
				if f == "=" && j+1 < len(fields) {
					v, err := strconv.ParseFloat(fields[j+1], 64)
					if err != nil {
						return nil, fmt.Errorf("parse TOTEN line %q: %w", line, err)
					}
					out.FinalEnergy = v
					foundEnergy = true
				}
			}
			continue
		}

		if strings.Contains(line, "magnetization (x)") {
			block, err := parseMagnetizationBlock(lines, i+1)
			if err != nil {
				return nil, err
			}
			if block != nil {
				out.Magnetization = block
			}
		}
	}

	if !foundEnergy && out.Magnetization == nil {
		return nil, fmt.Errorf("no recognizable OUTCAR content")
	}
	return out, nil
}

// parseMagnetizationBlock reads the per-ion table following a
// "magnetization (x)" marker:
//
//	# of ion       s       p       d       tot
//	------------------------------------------
//	    1        0.003   0.011   3.876   3.890
//	...
//	------------------------------------------
//	tot          ...
func parseMagnetizationBlock(lines []string, start int) ([]float64, error) {
	var values []float64
	inTable := false
	for i := start; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "---") {
			if inTable {
				return values, nil
			}
			inTable = true
			continue
		}
		if !inTable {
			continue
		}
		if strings.HasPrefix(line, "tot") {
			return values, nil
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed magnetization row %q", line)
		}
		v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse magnetization row %q: %w", line, err)
		}
		values = append(values, v)
	}
	return values, nil
}
