// Package config loads the calculation profiles that drive input generation.
// Profiles are YAML files bundled with the binary; a user can shadow any of
// them by dropping a file with the same name into the directory named by the
// BATKIT_SET_CONFIGS environment variable.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yaml
var embeddedProfiles embed.FS

// ProfileDirEnv names the environment variable pointing at a directory of
// user profile overrides.
const ProfileDirEnv = "BATKIT_SET_CONFIGS"

// Profile holds the calculation settings of one named configuration profile.
type Profile struct {
	// INCAR settings. Values may be scalars, or per-element maps (LDAUU and
	// friends) that the input-set builder expands over the structure's species.
	INCAR map[string]interface{} `yaml:"INCAR"`

	// KPOINTS settings.
	KPOINTS KPointsSettings `yaml:"KPOINTS"`

	// POTCAR settings: functional name and element-to-symbol table.
	POTCAR PotcarSettings `yaml:"POTCAR"`
}

// KPointsSettings configures automatic k-point mesh generation.
type KPointsSettings struct {
	// ReciprocalDensity is the number of k-points per reciprocal atom.
	ReciprocalDensity float64 `yaml:"reciprocal_density"`
}

// PotcarSettings configures the pseudopotential specification.
type PotcarSettings struct {
	Functional string            `yaml:"functional"`
	Symbols    map[string]string `yaml:"symbols"`
}

// LoadProfile loads the named profile (without the .yaml extension). A file
// in the BATKIT_SET_CONFIGS directory shadows the embedded default.
func LoadProfile(name string) (*Profile, error) {
	filename := name + ".yaml"

	if dir := os.Getenv(ProfileDirEnv); dir != "" {
		path := filepath.Join(dir, filename)
		if data, err := os.ReadFile(path); err == nil {
			return parseProfile(name, data)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read profile %s: %w", path, err)
		}
	}

	data, err := embeddedProfiles.ReadFile("profiles/" + filename)
	if err != nil {
		return nil, fmt.Errorf("unknown calculation profile %q: %w", name, err)
	}
	return parseProfile(name, data)
}

func parseProfile(name string, data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", name, err)
	}
	return &p, nil
}

// MergeINCAR overlays the INCAR settings of other onto p. Later values win.
func (p *Profile) MergeINCAR(other map[string]interface{}) {
	if p.INCAR == nil {
		p.INCAR = make(map[string]interface{}, len(other))
	}
	for k, v := range other {
		p.INCAR[k] = v
	}
}

// CopyINCAR returns a shallow copy of the INCAR settings, so callers can
// overlay calculation-specific overrides without mutating the profile.
func (p *Profile) CopyINCAR() map[string]interface{} {
	out := make(map[string]interface{}, len(p.INCAR))
	for k, v := range p.INCAR {
		out[k] = v
	}
	return out
}
