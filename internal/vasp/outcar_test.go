package vasp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const outcarFixture = ` vasp.6.3.0
 ... preamble ...

 magnetization (x)

# of ion       s       p       d       tot
------------------------------------------
    1        0.001   0.002   0.000   0.003
    2        0.010   0.050   3.800   3.860
    3        0.002   0.030   0.000   0.032
------------------------------------------
tot          0.013   0.082   3.800   3.895

  free  energy   TOTEN  =      -100.00000000 eV

 magnetization (x)

# of ion       s       p       d       tot
------------------------------------------
    1        0.001   0.002   0.000   0.004
    2        0.010   0.050   3.850   3.910
    3        0.002   0.030   0.000   0.030
------------------------------------------
tot          0.013   0.082   3.850   3.944

  free  energy   TOTEN  =      -123.45678901 eV
`

func TestParseOutcar(t *testing.T) {
	out, err := ParseOutcar(outcarFixture)
	require.NoError(t, err)

	// The last ionic step wins.
	assert.InDelta(t, -123.45678901, out.FinalEnergy, 1e-9)
	require.Len(t, out.Magnetization, 3)
	assert.InDelta(t, 0.004, out.Magnetization[0], 1e-9)
	assert.InDelta(t, 3.910, out.Magnetization[1], 1e-9)
	assert.InDelta(t, 0.030, out.Magnetization[2], 1e-9)
}

func TestParseOutcar_NoContent(t *testing.T) {
	_, err := ParseOutcar("nothing of interest here\n")
	assert.Error(t, err)
}

func TestReadOutcar(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "OUTCAR")
	require.NoError(t, os.WriteFile(path, []byte(outcarFixture), 0644))

	out, err := ReadOutcar(path)
	require.NoError(t, err)
	assert.Len(t, out.Magnetization, 3)

	_, err = ReadOutcar(filepath.Join(tmpDir, "missing", "OUTCAR"))
	assert.Error(t, err)
}
