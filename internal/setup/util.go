package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"batkit/internal/structure"
	"batkit/internal/vasp"
)

// MakeSupercell expands the structure in structureFile by the given integer
// scaling and writes it next to the input as <name>_AxBxC.<ext>. Returns the
// path of the written file.
func MakeSupercell(structureFile string, scaling [3]int) (string, error) {
	s, err := structure.FromFile(structureFile)
	if err != nil {
		return "", err
	}
	if err := s.MakeSupercell(scaling); err != nil {
		return "", err
	}

	ext := filepath.Ext(structureFile)
	base := strings.TrimSuffix(structureFile, ext)
	if ext == "" {
		ext = ".json"
	}
	out := fmt.Sprintf("%s_%dx%dx%d%s", base, scaling[0], scaling[1], scaling[2], ext)
	if err := s.ToFile(out); err != nil {
		return "", err
	}
	return out, nil
}

// Describe renders a human-readable summary of a structure file.
func Describe(structureFile string) (string, error) {
	s, err := structure.FromFile(structureFile)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	symbols, counts := s.SymbolCounts()
	parts := make([]string, len(symbols))
	for i := range symbols {
		parts[i] = fmt.Sprintf("%s%d", symbols[i], counts[i])
	}
	fmt.Fprintf(&b, "Formula: %s (%d sites)\n", strings.Join(parts, " "), s.Len())
	lengths := s.Lattice.Lengths()
	fmt.Fprintf(&b, "Lattice: a=%.4f b=%.4f c=%.4f, volume %.3f A^3\n",
		lengths[0], lengths[1], lengths[2], s.Lattice.Volume())
	magmom, hasMagmom := s.SiteProperty(structure.MagmomProperty)
	for i, site := range s.Sites {
		fmt.Fprintf(&b, "%4d  %-2s  %10.6f %10.6f %10.6f",
			i, site.Species, site.FracCoords[0], site.FracCoords[1], site.FracCoords[2])
		if hasMagmom {
			fmt.Fprintf(&b, "  magmom=%.3f", magmom[i])
		}
		fmt.Fprintln(&b)
	}
	return b.String(), nil
}

// runData is the data.json payload extracted from a finished run.
type runData struct {
	FinalEnergy   float64   `json:"final_energy"`
	Magnetization []float64 `json:"magnetization,omitempty"`
}

// ExtractData pulls the final energy and per-site magnetization out of an
// OUTCAR and writes them as data.json next to it. Returns the path of the
// written file.
func ExtractData(outcarFile string) (string, error) {
	out, err := vasp.ReadOutcar(outcarFile)
	if err != nil {
		return "", err
	}
	payload, err := json.MarshalIndent(runData{
		FinalEnergy:   out.FinalEnergy,
		Magnetization: out.Magnetization,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run data: %w", err)
	}
	path := filepath.Join(filepath.Dir(outcarFile), "data.json")
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return "", fmt.Errorf("write run data: %w", err)
	}
	return path, nil
}

var imageDirPattern = regexp.MustCompile(`^\d{2}$`)

// ShowPath superimposes the geometries of a finished NEB run's image
// directories into a single structure file. Relaxed CONTCAR geometries are
// preferred; images without one (the fixed endpoints) use their POSCAR.
func ShowPath(dir, outFile string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scan NEB directory: %w", err)
	}
	var imageDirs []string
	for _, entry := range entries {
		if entry.IsDir() && imageDirPattern.MatchString(entry.Name()) {
			imageDirs = append(imageDirs, entry.Name())
		}
	}
	if len(imageDirs) == 0 {
		return fmt.Errorf("no image directories under %s", dir)
	}
	sort.Strings(imageDirs)

	var combined *structure.Structure
	for _, name := range imageDirs {
		path := filepath.Join(dir, name, "CONTCAR")
		if _, err := os.Stat(path); err != nil {
			path = filepath.Join(dir, name, "POSCAR")
		}
		img, err := structure.FromFile(path)
		if err != nil {
			return fmt.Errorf("load image %s: %w", name, err)
		}
		if combined == nil {
			combined = img.Copy()
			combined.Comment = "NEB path"
			combined.Properties = nil
			continue
		}
		combined.Sites = append(combined.Sites, img.Sites...)
	}
	return combined.ToFile(outFile)
}
