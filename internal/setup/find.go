package setup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"batkit/internal/structure"
)

// ErrStructureNotFound is returned when a directory does not contain a
// suitably named structure file for one of the transition endpoints.
var ErrStructureNotFound = errors.New("no suitably named structure file in directory")

// FindTransitionStructures scans a directory for the initial and final
// structure files of a transition, matching file names by substring
// (defaults "init" and "final" when the markers are empty). The last match
// wins, mirroring a plain directory scan.
func FindTransitionStructures(dir, initialContains, finalContains string) (*structure.Structure, *structure.Structure, error) {
	if initialContains == "" {
		initialContains = "init"
	}
	if finalContains == "" {
		finalContains = "final"
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("scan transition directory: %w", err)
	}

	var initialFile, finalFile string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.Contains(name, initialContains) {
			initialFile = filepath.Join(dir, name)
		}
		if strings.Contains(name, finalContains) {
			finalFile = filepath.Join(dir, name)
		}
	}

	if initialFile == "" {
		return nil, nil, fmt.Errorf("%w: initial (marker %q)", ErrStructureNotFound, initialContains)
	}
	if finalFile == "" {
		return nil, nil, fmt.Errorf("%w: final (marker %q)", ErrStructureNotFound, finalContains)
	}

	initial, err := structure.FromFile(initialFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load initial structure: %w", err)
	}
	final, err := structure.FromFile(finalFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load final structure: %w", err)
	}
	return initial, final, nil
}
