package main

import (
	"github.com/spf13/cobra"

	"batkit/internal/setup"
)

var (
	// relax flags
	relaxDir string

	// transition flags
	initialMarker string
	finalMarker   string

	// dimers flags
	dimersDir     string
	dimerDistance float64

	// neb flags
	nebImages int

	// shared setup flags
	isMetal     bool
	useHSE      bool
	isMigration bool
)

// relaxCmd sets up a bulk geometry optimization
var relaxCmd = &cobra.Command{
	Use:   "relax [structure-file]",
	Short: "Set up a geometry optimization of a cathode structure",
	Long: `Sets up a standard relaxation of a cathode structure.

The structure file can be a JSON cathode snapshot or a POSCAR/CONTCAR. By
default the calculation uses DFT+U; --hse switches to the HSE06 hybrid
functional. Inputs are written to --dir, which defaults to dftu_relax or
hse_relax depending on the functional.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setup.Relax(logger, args[0], relaxDir, setupOptions())
	},
}

// transitionCmd sets up the endpoint optimizations of a transition
var transitionCmd = &cobra.Command{
	Use:   "transition [directory]",
	Short: "Set up the endpoint optimizations of a transition",
	Long: `Finds the initial and final structure files in the directory (matched by
name markers, default "init" and "final") and sets up their geometry
optimizations under initial/ and final/.

With --migration, the transition is treated as a single-ion migration: the
migrating ion is located by maximum displacement and a static charge density
calculation of the host structure (the structure with the migrating ion
removed) is set up under host/, to guide pathfinding in the neb stage.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		initial, final, err := setup.FindTransitionStructures(args[0], initialMarker, finalMarker)
		if err != nil {
			return err
		}
		return setup.Transition(logger, args[0], initial, final, setupOptions())
	},
}

// dimersCmd sets up oxygen dimer formation optimizations
var dimersCmd = &cobra.Command{
	Use:   "dimers [structure-file]",
	Short: "Set up dimer formation optimizations for a Li-rich cathode",
	Long: `Enumerates the non-equivalent oxygen dimers of a lithium-rich cathode and
sets up a geometry optimization for each dimer formation: the pristine
structure under initial/ and, per dimer, the structure with the oxygen pair
drawn together to --distance angstrom under <i>_<j>/final. Each dimer
directory also gets a dimer.xyz visualization of the pair's environment.

The structure file should be a JSON cathode snapshot so the cation
configuration of the structure is preserved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setup.Dimers(logger, args[0], dimersDir, dimerDistance, setupOptions())
	},
}

// nebCmd sets up the NEB calculation from optimized endpoints
var nebCmd = &cobra.Command{
	Use:   "neb [directory]",
	Short: "Set up a NEB calculation from optimized endpoints",
	Long: `Sets up the nudged-elastic-band calculation in a directory prepared by the
transition command. The relaxed endpoint geometries are read from
initial/CONTCAR and final/CONTCAR (plus the OUTCAR magnetization); when the
initial outputs are missing, the structure.json snapshot is used instead.

With --migration the path of the migrating ion is refined through the host
charge density (host/CHGCAR); otherwise the endpoints are interpolated
linearly over --nimages images.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setup.NEB(logger, args[0], nebImages, setupOptions())
	},
}

func setupOptions() setup.Options {
	return setup.Options{Metal: isMetal, HSE: useHSE, Migration: isMigration}
}

func init() {
	relaxCmd.Flags().StringVar(&relaxDir, "dir", "", "calculation directory (default dftu_relax or hse_relax)")
	relaxCmd.Flags().BoolVar(&isMetal, "metal", false, "add Methfessel-Paxton smearing for metallic systems")
	relaxCmd.Flags().BoolVar(&useHSE, "hse", false, "use the HSE06 hybrid functional")

	transitionCmd.Flags().StringVar(&initialMarker, "initial-marker", "init", "substring matching the initial structure file")
	transitionCmd.Flags().StringVar(&finalMarker, "final-marker", "final", "substring matching the final structure file")
	transitionCmd.Flags().BoolVar(&isMigration, "migration", false, "treat the transition as a single-ion migration")
	transitionCmd.Flags().BoolVar(&isMetal, "metal", false, "add Methfessel-Paxton smearing for metallic systems")
	transitionCmd.Flags().BoolVar(&useHSE, "hse", false, "use the HSE06 hybrid functional")

	dimersCmd.Flags().StringVar(&dimersDir, "dir", ".", "base directory for the dimer calculations")
	dimersCmd.Flags().Float64Var(&dimerDistance, "distance", 1.4, "final O-O distance in angstrom")
	dimersCmd.Flags().BoolVar(&isMetal, "metal", false, "add Methfessel-Paxton smearing for metallic systems")
	dimersCmd.Flags().BoolVar(&useHSE, "hse", false, "use the HSE06 hybrid functional")

	nebCmd.Flags().IntVar(&nebImages, "nimages", 8, "number of interpolation images")
	nebCmd.Flags().BoolVar(&isMigration, "migration", false, "refine the migrating ion's path through the host charge density")
	nebCmd.Flags().BoolVar(&isMetal, "metal", false, "add Methfessel-Paxton smearing for metallic systems")
	nebCmd.Flags().BoolVar(&useHSE, "hse", false, "use the HSE06 hybrid functional")

	rootCmd.AddCommand(relaxCmd, transitionCmd, dimersCmd, nebCmd)
}
