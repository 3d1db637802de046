package pathfinder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batkit/internal/structure"
	"batkit/internal/vasp"
)

// valleyChgcar builds a synthetic charge density on a cubic cell whose
// minimum runs along the plane y = 0.25: density grows quadratically with
// the fractional distance from that plane.
func valleyChgcar(t *testing.T) *vasp.Chgcar {
	t.Helper()
	host, err := structure.New(structure.Cubic(8.0),
		[]string{"O"}, [][3]float64{{0.5, 0.5, 0.5}})
	require.NoError(t, err)

	const n = 8
	data := make([]float64, n*n*n)
	for iz := 0; iz < n; iz++ {
		for iy := 0; iy < n; iy++ {
			for ix := 0; ix < n; ix++ {
				y := float64(iy) / n
				d := y - 0.25
				data[ix+n*(iy+n*iz)] = d * d
			}
		}
	}
	return &vasp.Chgcar{Structure: host, Dims: [3]int{n, n, n}, Data: data}
}

func endpoints(t *testing.T) (*structure.Structure, *structure.Structure) {
	t.Helper()
	start, err := structure.New(structure.Cubic(8.0),
		[]string{"Li", "O"},
		[][3]float64{{0, 0, 0}, {0.5, 0.5, 0.5}})
	require.NoError(t, err)
	end := start.Copy()
	end.Sites[0].FracCoords = [3]float64{0.4, 0, 0}
	return start, end
}

func TestNewChgcarPotential(t *testing.T) {
	pot, err := NewChgcarPotential(valleyChgcar(t))
	require.NoError(t, err)

	// Normalized to [0, 1] with the minimum on the valley plane.
	assert.InDelta(t, 0.0, pot.At([3]float64{0.1, 0.25, 0.3}), 1e-9)
	assert.InDelta(t, 1.0, pot.At([3]float64{0.1, 0.875, 0.3}), 1e-9)
}

func TestNewChgcarPotential_Constant(t *testing.T) {
	chg := valleyChgcar(t)
	for i := range chg.Data {
		chg.Data[i] = 1.0
	}
	_, err := NewChgcarPotential(chg)
	assert.Error(t, err)
}

func TestPathfinder(t *testing.T) {
	start, end := endpoints(t)
	pot, err := NewChgcarPotential(valleyChgcar(t))
	require.NoError(t, err)

	pf, err := NewPathfinder(start, end, 0, pot, 6)
	require.NoError(t, err)
	images := pf.Images()
	require.Len(t, images, 7)

	t.Run("endpoints fixed", func(t *testing.T) {
		assert.Equal(t, start.Sites[0].FracCoords, images[0].Sites[0].FracCoords)
		assert.Equal(t, end.Sites[0].FracCoords, images[6].Sites[0].FracCoords)
	})

	t.Run("path bends toward the valley", func(t *testing.T) {
		// The straight line runs along y = 0; the potential minimum sits at
		// y = 0.25, so intermediate images drift to positive y.
		mid := images[3].Sites[0].FracCoords
		assert.Greater(t, mid[1], 0.01)
	})

	t.Run("other sites follow the linear interpolation", func(t *testing.T) {
		for _, img := range images {
			assert.Equal(t, start.Sites[1].FracCoords, img.Sites[1].FracCoords)
		}
	})
}

func TestPathfinder_BadRelaxSite(t *testing.T) {
	start, end := endpoints(t)
	pot, err := NewChgcarPotential(valleyChgcar(t))
	require.NoError(t, err)

	_, err = NewPathfinder(start, end, 5, pot, 4)
	assert.Error(t, err)
}

func TestPlotImages(t *testing.T) {
	start, end := endpoints(t)
	pot, err := NewChgcarPotential(valleyChgcar(t))
	require.NoError(t, err)
	pf, err := NewPathfinder(start, end, 0, pot, 4)
	require.NoError(t, err)

	out := t.TempDir() + "/neb.vasp"
	require.NoError(t, pf.PlotImages(out))

	combined, err := structure.FromFile(out)
	require.NoError(t, err)
	assert.Equal(t, start.Len()*5, combined.Len())
}
