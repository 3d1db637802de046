package vasp

import (
	"fmt"
	"os"
	"path/filepath"

	"batkit/internal/config"
	"batkit/internal/structure"
)

// InputSet bundles everything needed to populate one calculation directory:
// a structure and the profile-derived INCAR, KPOINTS and POTCAR settings.
type InputSet struct {
	Structure *structure.Structure
	Incar     *Incar
	KPoints   config.KPointsSettings
	Potcar    config.PotcarSettings
}

// NewInputSet builds an input set for the structure from a calculation
// profile. The profile's INCAR settings are copied, so callers can layer
// overrides without mutating the profile.
func NewInputSet(s *structure.Structure, profile *config.Profile) *InputSet {
	return &InputSet{
		Structure: s,
		Incar:     NewIncar(profile.INCAR),
		KPoints:   profile.KPOINTS,
		Potcar:    profile.POTCAR,
	}
}

// WriteInput writes INCAR, KPOINTS, POSCAR and POTCAR.spec into dir, creating
// it if absent.
func (set *InputSet) WriteInput(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create calculation directory: %w", err)
	}

	incar, err := set.Incar.Render(set.Structure)
	if err != nil {
		return fmt.Errorf("render INCAR: %w", err)
	}
	files := map[string]string{
		"INCAR":       incar,
		"KPOINTS":     AutomaticDensityByVolume(set.Structure, set.kppvol()).Format(),
		"POSCAR":      set.Structure.FormatPOSCAR(),
		"POTCAR.spec": NewPotcarSpec(set.Structure, set.Potcar).Format(),
	}
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func (set *InputSet) kppvol() float64 {
	if set.KPoints.ReciprocalDensity > 0 {
		return set.KPoints.ReciprocalDensity
	}
	return 64
}

// NEBSet is the input set for a nudged-elastic-band run over a sequence of
// images, endpoints included.
type NEBSet struct {
	Images  []*structure.Structure
	Incar   *Incar
	KPoints config.KPointsSettings
	Potcar  config.PotcarSettings
}

// NewNEBSet builds a NEB input set from the images and profile. The IMAGES
// tag is derived from the number of intermediate images.
func NewNEBSet(images []*structure.Structure, profile *config.Profile) (*NEBSet, error) {
	if len(images) < 3 {
		return nil, fmt.Errorf("NEB needs at least one intermediate image, got %d structures", len(images))
	}
	incar := NewIncar(profile.INCAR)
	incar.Set("IMAGES", len(images)-2)
	return &NEBSet{
		Images:  images,
		Incar:   incar,
		KPoints: profile.KPOINTS,
		Potcar:  profile.POTCAR,
	}, nil
}

// WriteInput writes the shared INCAR/KPOINTS/POTCAR.spec into dir and one
// zero-padded image directory (00, 01, ...) per image, each holding a POSCAR.
func (set *NEBSet) WriteInput(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create NEB directory: %w", err)
	}

	first := set.Images[0]
	incar, err := set.Incar.Render(first)
	if err != nil {
		return fmt.Errorf("render INCAR: %w", err)
	}
	kppvol := set.KPoints.ReciprocalDensity
	if kppvol <= 0 {
		kppvol = 64
	}
	shared := map[string]string{
		"INCAR":       incar,
		"KPOINTS":     AutomaticDensityByVolume(first, kppvol).Format(),
		"POTCAR.spec": NewPotcarSpec(first, set.Potcar).Format(),
	}
	for name, contents := range shared {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	for n, image := range set.Images {
		imageDir := filepath.Join(dir, fmt.Sprintf("%02d", n))
		if err := os.MkdirAll(imageDir, 0755); err != nil {
			return fmt.Errorf("create image directory %s: %w", imageDir, err)
		}
		poscar := filepath.Join(imageDir, "POSCAR")
		if err := os.WriteFile(poscar, []byte(image.FormatPOSCAR()), 0644); err != nil {
			return fmt.Errorf("write image %02d POSCAR: %w", n, err)
		}
	}
	return nil
}

// VisualizeTransition writes all images superimposed into a single structure
// file, so the whole path can be inspected in one view.
func (set *NEBSet) VisualizeTransition(path string) error {
	combined := set.Images[0].Copy()
	combined.Comment = "transition path"
	combined.Properties = nil
	for _, image := range set.Images[1:] {
		combined.Sites = append(combined.Sites, image.Sites...)
	}
	return combined.ToFile(path)
}
