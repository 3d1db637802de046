// Package vasp reads and writes the VASP file formats the setup workflows
// touch: INCAR/KPOINTS/POTCAR specifications on the input side, OUTCAR
// magnetization and CHGCAR charge densities on the output side.
package vasp

import (
	"fmt"
	"sort"
	"strings"

	"batkit/internal/structure"
)

// Incar is a set of INCAR tags. Values may be bool, int, float64, string,
// []float64 (rendered with run-length compression the way VASP expects), or a
// per-element map that is expanded over the structure's species on render.
type Incar struct {
	Settings map[string]interface{}
}

// NewIncar copies the given settings into a fresh Incar.
func NewIncar(settings map[string]interface{}) *Incar {
	out := &Incar{Settings: make(map[string]interface{}, len(settings))}
	for k, v := range settings {
		out.Settings[k] = v
	}
	return out
}

// Set sets a single tag.
func (inc *Incar) Set(key string, value interface{}) {
	if inc.Settings == nil {
		inc.Settings = make(map[string]interface{})
	}
	inc.Settings[key] = value
}

// Update overlays the given settings. Later values win.
func (inc *Incar) Update(settings map[string]interface{}) {
	for k, v := range settings {
		inc.Set(k, v)
	}
}

// Render produces the INCAR file contents for the given structure. The
// structure supplies the MAGMOM vector and the species ordering for
// per-element tags such as LDAUU.
func (inc *Incar) Render(s *structure.Structure) (string, error) {
	tags := make(map[string]string, len(inc.Settings))

	symbols, _ := s.SymbolCounts()
	for key, value := range inc.Settings {
		switch v := value.(type) {
		case map[string]interface{}:
			expanded, err := expandPerElement(key, v, symbols)
			if err != nil {
				return "", err
			}
			tags[key] = expanded
		default:
			formatted, err := formatValue(value)
			if err != nil {
				return "", fmt.Errorf("INCAR tag %s: %w", key, err)
			}
			tags[key] = formatted
		}
	}

	if magmom, ok := s.SiteProperty(structure.MagmomProperty); ok {
		tags["MAGMOM"] = compressRuns(magmom)
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s = %s\n", k, tags[k])
	}
	return b.String(), nil
}

// expandPerElement turns a per-element map into a space-separated list with
// one value per species group, in POSCAR symbol order. Elements missing from
// the map get zero.
func expandPerElement(key string, m map[string]interface{}, symbols []string) (string, error) {
	parts := make([]string, len(symbols))
	for i, sym := range symbols {
		value, ok := m[sym]
		if !ok {
			value = 0
		}
		formatted, err := formatValue(value)
		if err != nil {
			return "", fmt.Errorf("INCAR tag %s element %s: %w", key, sym, err)
		}
		parts[i] = formatted
	}
	return strings.Join(parts, " "), nil
}

func formatValue(value interface{}) (string, error) {
	switch v := value.(type) {
	case bool:
		if v {
			return ".TRUE.", nil
		}
		return ".FALSE.", nil
	case int:
		return fmt.Sprintf("%d", v), nil
	case float64:
		return formatFloat(v), nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}

// compressRuns renders a float vector the way VASP expects repeated values:
// "16*0.0 2*3.7". Single values are written plainly.
func compressRuns(values []float64) string {
	var parts []string
	for i := 0; i < len(values); {
		j := i
		for j < len(values) && values[j] == values[i] {
			j++
		}
		n := j - i
		if n > 1 {
			parts = append(parts, fmt.Sprintf("%d*%s", n, formatFloat(values[i])))
		} else {
			parts = append(parts, formatFloat(values[i]))
		}
		i = j
	}
	return strings.Join(parts, " ")
}
