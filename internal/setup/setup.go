// Package setup implements the calculation setup workflows: bulk relaxations,
// transition endpoint optimizations, oxygen dimer formation studies and NEB
// runs. Each workflow loads structures, merges calculation profiles and
// writes a populated calculation directory; state between workflow stages
// lives in the directory tree itself.
package setup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"batkit/internal/cathode"
	"batkit/internal/config"
	"batkit/internal/pathfinder"
	"batkit/internal/structure"
	"batkit/internal/vasp"
)

// Options selects the physical and computational choices of a setup.
type Options struct {
	// Metal adds Methfessel-Paxton smearing suitable for metallic systems.
	Metal bool
	// HSE sets up the calculation with the HSE06 hybrid functional instead
	// of DFT+U.
	HSE bool
	// Migration marks a transition as a single-ion migration, enabling the
	// host charge density stage and potential-guided pathfinding.
	Migration bool
}

// metalSmearing are the INCAR overrides applied for metallic systems.
var metalSmearing = map[string]interface{}{"ISMEAR": 1, "SIGMA": 0.2}

// Relax sets up a standard geometry optimization of a cathode structure.
// When calcDir is empty the directory is named after the functional choice
// (dftu_relax or hse_relax) under the current directory.
func Relax(logger *zap.Logger, structureFile, calcDir string, opts Options) error {
	cat, err := cathode.FromFile(structureFile)
	if err != nil {
		return err
	}
	s := cat.AsStructure()
	s.EnsureMagmom()

	profile, profileName, err := relaxProfile(opts)
	if err != nil {
		return err
	}
	if calcDir == "" {
		if opts.HSE {
			calcDir = "hse_relax"
		} else {
			calcDir = "dftu_relax"
		}
	}
	if opts.Metal {
		profile.MergeINCAR(metalSmearing)
	}

	set := vasp.NewInputSet(s, profile)
	if err := set.WriteInput(calcDir); err != nil {
		return err
	}
	logger.Info("relaxation set up",
		zap.String("structure", structureFile),
		zap.String("profile", profileName),
		zap.String("dir", calcDir))
	return writeBreadcrumb(calcDir, "relax", profileName, profile)
}

// relaxProfile loads the bulk relax settings and overlays the functional
// choice: DFT+U by default, HSE06 when requested.
func relaxProfile(opts Options) (*config.Profile, string, error) {
	profile, err := config.LoadProfile("BulkRelaxSet")
	if err != nil {
		return nil, "", err
	}
	name := "DFTUSet"
	if opts.HSE {
		name = "HSESet"
	}
	overlay, err := config.LoadProfile(name)
	if err != nil {
		return nil, "", err
	}
	profile.MergeINCAR(overlay.INCAR)
	return profile, name, nil
}

// Transition sets up the geometry optimizations for the initial and final
// structures of a transition under dir. When the transition is a single-ion
// migration, it also sets up the static charge density calculation of the
// host structure (the structure with the migrating ion removed), used later
// to find a better initial pathway.
func Transition(logger *zap.Logger, dir string, initial, final *structure.Structure, opts Options) error {
	initial = initial.Copy()
	final = final.Copy()
	initial.EnsureMagmom()
	final.EnsureMagmom()

	profile, profileName, err := endpointProfile(opts)
	if err != nil {
		return err
	}

	initialSet := vasp.NewInputSet(initial, profile)
	if err := initialSet.WriteInput(filepath.Join(dir, "initial")); err != nil {
		return fmt.Errorf("set up initial optimization: %w", err)
	}
	finalSet := vasp.NewInputSet(final, profile)
	if err := finalSet.WriteInput(filepath.Join(dir, "final")); err != nil {
		return fmt.Errorf("set up final optimization: %w", err)
	}
	// Snapshots let the NEB stage run even when the optimizations never
	// produced a CONTCAR.
	if err := initial.ToFile(filepath.Join(dir, "initial", "structure.json")); err != nil {
		return err
	}
	if err := final.ToFile(filepath.Join(dir, "final", "structure.json")); err != nil {
		return err
	}
	logger.Info("transition endpoints set up",
		zap.String("dir", dir), zap.String("profile", profileName))

	if opts.Migration {
		migrating, err := FindMigratingIon(initial, final)
		if err != nil {
			return err
		}
		host := initial.Copy()
		if err := host.RemoveSites([]int{migrating}); err != nil {
			return err
		}
		staticProfile, err := config.LoadProfile("StaticSet")
		if err != nil {
			return err
		}
		hostSet := vasp.NewInputSet(host, staticProfile)
		if err := hostSet.WriteInput(filepath.Join(dir, "host")); err != nil {
			return fmt.Errorf("set up host charge density: %w", err)
		}
		logger.Info("host charge density set up",
			zap.Int("migrating_site", migrating))
	}
	return writeBreadcrumb(dir, "transition", profileName, profile)
}

// endpointProfile loads the fixed-cell relax settings for transition
// endpoints and dimers, with the functional overlay.
func endpointProfile(opts Options) (*config.Profile, string, error) {
	profile, err := config.LoadProfile("RelaxSet")
	if err != nil {
		return nil, "", err
	}
	name := "DFTUSet"
	if opts.HSE {
		name = "HSESet"
	}
	overlay, err := config.LoadProfile(name)
	if err != nil {
		return nil, "", err
	}
	profile.MergeINCAR(overlay.INCAR)
	if opts.Metal {
		profile.MergeINCAR(metalSmearing)
	}
	return profile, name, nil
}

// Dimers sets up the geometry optimizations for the non-equivalent oxygen
// dimer formations of a lithium-rich cathode under baseDir: an initial
// optimization of the pristine structure, plus one i_j/final directory per
// dimer with the oxygen pair moved to dimerDistance angstrom. Each dimer
// directory also gets a dimer.xyz visualization of the pair's environment.
func Dimers(logger *zap.Logger, structureFile, baseDir string, dimerDistance float64, opts Options) error {
	cat, err := cathode.LiRichFromFile(structureFile)
	if err != nil {
		return err
	}
	dimers := cat.FindNonEqDimers()
	logger.Info("non-equivalent dimers found", zap.Int("count", len(dimers)))

	profile, profileName, err := endpointProfile(opts)
	if err != nil {
		return err
	}

	pristine := cat.AsStructure()
	pristine.EnsureMagmom()
	initialSet := vasp.NewInputSet(pristine, profile)
	if err := initialSet.WriteInput(filepath.Join(baseDir, "initial")); err != nil {
		return fmt.Errorf("set up initial optimization: %w", err)
	}

	if opts.HSE {
		return fmt.Errorf("HSE06 dimer optimizations are not implemented")
	}

	for _, dimer := range dimers {
		dimerDir := filepath.Join(baseDir, fmt.Sprintf("%d_%d", dimer.Indices[0], dimer.Indices[1]))
		finalDir := filepath.Join(dimerDir, "final")
		if err := os.MkdirAll(finalDir, 0755); err != nil {
			return fmt.Errorf("create dimer directory: %w", err)
		}

		if err := cat.WriteEnvironment(dimer, filepath.Join(dimerDir, "dimer.xyz")); err != nil {
			return err
		}

		dimerCathode := cat.Copy()
		if err := dimerCathode.ChangeSiteDistance(dimer.Indices[0], dimer.Indices[1], dimerDistance); err != nil {
			return fmt.Errorf("form dimer %d_%d: %w", dimer.Indices[0], dimer.Indices[1], err)
		}
		dimerStructure := dimerCathode.AsStructure()
		dimerStructure.EnsureMagmom()

		dimerSet := vasp.NewInputSet(dimerStructure, profile)
		if err := dimerSet.WriteInput(finalDir); err != nil {
			return fmt.Errorf("set up dimer %d_%d: %w", dimer.Indices[0], dimer.Indices[1], err)
		}
		logger.Info("dimer optimization set up",
			zap.Int("site_a", dimer.Indices[0]),
			zap.Int("site_b", dimer.Indices[1]),
			zap.Float64("distance", dimerDistance))
	}
	return writeBreadcrumb(baseDir, "dimers", profileName, profile)
}

// NEB sets up the nudged-elastic-band calculation from previously optimized
// endpoints under dir. The relaxed initial geometry comes from
// initial/CONTCAR plus the OUTCAR magnetization; when those outputs are
// absent, initial/structure.json is used instead. For migrations the path of
// the migrating ion is refined through the host charge density; otherwise
// the endpoints are linearly interpolated.
func NEB(logger *zap.Logger, dir string, nimages int, opts Options) error {
	initial, err := relaxedEndpoint(logger, filepath.Join(dir, "initial"))
	if err != nil {
		return err
	}
	final, err := structure.FromFile(filepath.Join(dir, "final", "CONTCAR"))
	if err != nil {
		return err
	}
	initial.EnsureMagmom()

	var images []*structure.Structure
	if opts.Migration {
		chg, err := vasp.ReadChgcar(filepath.Join(dir, "host", "CHGCAR"))
		if err != nil {
			return fmt.Errorf("load host charge density: %w", err)
		}
		potential, err := pathfinder.NewChgcarPotential(chg)
		if err != nil {
			return err
		}
		migrating, err := FindMigratingIon(initial, final)
		if err != nil {
			return err
		}
		pf, err := pathfinder.NewPathfinder(initial, final, migrating, potential, nimages)
		if err != nil {
			return err
		}
		images = pf.Images()
		if err := pf.PlotImages(filepath.Join(dir, "neb.vasp")); err != nil {
			return err
		}
		logger.Info("migration path refined through host potential",
			zap.Int("migrating_site", migrating), zap.Int("images", nimages))
	} else {
		images, err = initial.Interpolate(final, nimages)
		if err != nil {
			return fmt.Errorf("interpolate transition: %w", err)
		}
		logger.Info("transition interpolated linearly", zap.Int("images", nimages))
	}

	profile, err := config.LoadProfile("NEBSet")
	if err != nil {
		return err
	}
	overlayName := "DFTUSet"
	if opts.HSE {
		overlayName = "HSESet"
	}
	overlay, err := config.LoadProfile(overlayName)
	if err != nil {
		return err
	}
	profile.MergeINCAR(overlay.INCAR)
	if opts.Metal {
		profile.MergeINCAR(metalSmearing)
	}

	nebSet, err := vasp.NewNEBSet(images, profile)
	if err != nil {
		return err
	}
	if err := nebSet.WriteInput(dir); err != nil {
		return err
	}
	if err := nebSet.VisualizeTransition(filepath.Join(dir, "transition.vasp")); err != nil {
		return err
	}
	logger.Info("NEB calculation set up", zap.String("dir", dir))
	return writeBreadcrumb(dir, "neb", "NEBSet", profile)
}

// relaxedEndpoint reads the relaxed geometry and end-of-run magnetization of
// an optimized endpoint. Missing CONTCAR/OUTCAR outputs fall back to the
// structure.json snapshot written at setup time.
func relaxedEndpoint(logger *zap.Logger, dir string) (*structure.Structure, error) {
	contcar := filepath.Join(dir, "CONTCAR")
	if _, err := os.Stat(contcar); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat %s: %w", contcar, err)
		}
		logger.Info("no relaxed output, falling back to structure snapshot",
			zap.String("dir", dir))
		return structure.FromFile(filepath.Join(dir, "structure.json"))
	}

	s, err := structure.FromFile(contcar)
	if err != nil {
		return nil, err
	}
	out, err := vasp.ReadOutcar(filepath.Join(dir, "OUTCAR"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("no OUTCAR next to CONTCAR, falling back to structure snapshot",
				zap.String("dir", dir))
			return structure.FromFile(filepath.Join(dir, "structure.json"))
		}
		return nil, err
	}
	if err := s.AddSiteProperty(structure.MagmomProperty, out.Magnetization); err != nil {
		return nil, fmt.Errorf("attach magnetization: %w", err)
	}
	return s, nil
}

// breadcrumb is the setup.yaml record dropped into each calculation
// directory, tying the generated inputs back to the profile that made them.
type breadcrumb struct {
	ID         string    `yaml:"id"`
	Workflow   string    `yaml:"workflow"`
	Profile    string    `yaml:"profile"`
	Functional string    `yaml:"functional"`
	CreatedAt  time.Time `yaml:"created_at"`
}

func writeBreadcrumb(dir, workflow, profileName string, profile *config.Profile) error {
	functional := profile.POTCAR.Functional
	if functional == "" {
		functional = vasp.DefaultFunctional
	}
	record := breadcrumb{
		ID:         uuid.NewString(),
		Workflow:   workflow,
		Profile:    profileName,
		CreatedAt:  time.Now().UTC(),
		Functional: functional,
	}
	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal setup record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "setup.yaml"), data, 0644); err != nil {
		return fmt.Errorf("write setup record: %w", err)
	}
	return nil
}
