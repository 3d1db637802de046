package vasp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batkit/internal/config"
	"batkit/internal/structure"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestInputSetWriteInput(t *testing.T) {
	tmpDir := t.TempDir()
	calcDir := filepath.Join(tmpDir, "nested", "dftu_relax")

	s := lmoStructure(t)
	s.EnsureMagmom()
	profile, err := config.LoadProfile("BulkRelaxSet")
	require.NoError(t, err)

	set := NewInputSet(s, profile)
	require.NoError(t, set.WriteInput(calcDir))

	for _, name := range []string{"INCAR", "KPOINTS", "POSCAR", "POTCAR.spec"} {
		assert.FileExists(t, filepath.Join(calcDir, name))
	}

	incar := readFile(t, filepath.Join(calcDir, "INCAR"))
	assert.Contains(t, incar, "ISIF = 3")
	assert.Contains(t, incar, "MAGMOM = 4*0")

	potcar := readFile(t, filepath.Join(calcDir, "POTCAR.spec"))
	lines := strings.Split(strings.TrimSpace(potcar), "\n")
	assert.Equal(t, []string{"PBE_54", "Li_sv", "Mn_pv", "O"}, lines)

	kpoints := readFile(t, filepath.Join(calcDir, "KPOINTS"))
	assert.Contains(t, kpoints, "Gamma")
}

func TestInputSet_ProfileNotMutated(t *testing.T) {
	s := lmoStructure(t)
	profile, err := config.LoadProfile("BulkRelaxSet")
	require.NoError(t, err)

	set := NewInputSet(s, profile)
	set.Incar.Set("ISMEAR", 1)

	assert.Equal(t, 0, profile.INCAR["ISMEAR"])
}

func TestNEBSet(t *testing.T) {
	start := lmoStructure(t)
	start.EnsureMagmom()
	end := start.Copy()
	end.Sites[0].FracCoords = [3]float64{0.1, 0, 0}

	images, err := start.Interpolate(end, 4)
	require.NoError(t, err)

	profile, err := config.LoadProfile("NEBSet")
	require.NoError(t, err)
	set, err := NewNEBSet(images, profile)
	require.NoError(t, err)

	tmpDir := t.TempDir()
	require.NoError(t, set.WriteInput(tmpDir))

	incar := readFile(t, filepath.Join(tmpDir, "INCAR"))
	assert.Contains(t, incar, "IMAGES = 3")
	assert.Contains(t, incar, "SPRING = -5")
	assert.FileExists(t, filepath.Join(tmpDir, "KPOINTS"))
	assert.FileExists(t, filepath.Join(tmpDir, "POTCAR.spec"))

	for n := 0; n <= 4; n++ {
		assert.FileExists(t, filepath.Join(tmpDir, "0"+string(rune('0'+n)), "POSCAR"))
	}
	assert.NoFileExists(t, filepath.Join(tmpDir, "05", "POSCAR"))
}

func TestNEBSet_TooFewImages(t *testing.T) {
	s := lmoStructure(t)
	profile, err := config.LoadProfile("NEBSet")
	require.NoError(t, err)
	_, err = NewNEBSet([]*structure.Structure{s, s.Copy()}, profile)
	assert.Error(t, err)
}

func TestNEBSetVisualizeTransition(t *testing.T) {
	start := lmoStructure(t)
	end := start.Copy()
	end.Sites[0].FracCoords = [3]float64{0.1, 0, 0}
	images, err := start.Interpolate(end, 2)
	require.NoError(t, err)

	profile, err := config.LoadProfile("NEBSet")
	require.NoError(t, err)
	set, err := NewNEBSet(images, profile)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "transition.vasp")
	require.NoError(t, set.VisualizeTransition(out))

	combined, err := structure.FromFile(out)
	require.NoError(t, err)
	assert.Equal(t, start.Len()*3, combined.Len())
}

func TestAutomaticDensityByVolume(t *testing.T) {
	s := lmoStructure(t)
	kp := AutomaticDensityByVolume(s, 64)
	for i := 0; i < 3; i++ {
		assert.GreaterOrEqual(t, kp.Mesh[i], 1)
	}
	// Cubic cell: isotropic mesh.
	assert.Equal(t, kp.Mesh[0], kp.Mesh[1])
	assert.Equal(t, kp.Mesh[0], kp.Mesh[2])

	formatted := kp.Format()
	assert.Contains(t, formatted, "Gamma")
}
