package structure

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStructure(t *testing.T) *Structure {
	t.Helper()
	s, err := New(Cubic(4.0),
		[]string{"Li", "Li", "O", "O"},
		[][3]float64{
			{0, 0, 0},
			{0.5, 0.5, 0.5},
			{0.25, 0.25, 0.25},
			{0.75, 0.75, 0.75},
		})
	require.NoError(t, err)
	return s
}

func TestNew_LengthMismatch(t *testing.T) {
	_, err := New(Cubic(4.0), []string{"Li"}, [][3]float64{{0, 0, 0}, {0.5, 0.5, 0.5}})
	assert.Error(t, err)
}

func TestEnsureMagmom(t *testing.T) {
	s := testStructure(t)

	t.Run("populates zeros when absent", func(t *testing.T) {
		assert.False(t, s.HasSiteProperty(MagmomProperty))
		s.EnsureMagmom()
		magmom, ok := s.SiteProperty(MagmomProperty)
		require.True(t, ok)
		assert.Equal(t, []float64{0, 0, 0, 0}, magmom)
	})

	t.Run("keeps existing values", func(t *testing.T) {
		require.NoError(t, s.AddSiteProperty(MagmomProperty, []float64{1, 2, 3, 4}))
		s.EnsureMagmom()
		magmom, _ := s.SiteProperty(MagmomProperty)
		assert.Equal(t, []float64{1, 2, 3, 4}, magmom)
	})
}

func TestAddSiteProperty_WrongLength(t *testing.T) {
	s := testStructure(t)
	assert.Error(t, s.AddSiteProperty(MagmomProperty, []float64{1, 2}))
}

func TestCopy_Independent(t *testing.T) {
	s := testStructure(t)
	s.EnsureMagmom()

	c := s.Copy()
	c.Sites[0].FracCoords[0] = 0.9
	magmom, _ := c.SiteProperty(MagmomProperty)
	magmom[0] = 5

	assert.Equal(t, 0.0, s.Sites[0].FracCoords[0])
	orig, _ := s.SiteProperty(MagmomProperty)
	assert.Equal(t, 0.0, orig[0])
}

func TestRemoveSites(t *testing.T) {
	s := testStructure(t)
	require.NoError(t, s.AddSiteProperty(MagmomProperty, []float64{1, 2, 3, 4}))

	require.NoError(t, s.RemoveSites([]int{1}))

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"Li", "O", "O"}, s.Species())
	magmom, _ := s.SiteProperty(MagmomProperty)
	assert.Equal(t, []float64{1, 3, 4}, magmom)

	assert.Error(t, s.RemoveSites([]int{7}))
}

func TestSymbolCounts(t *testing.T) {
	s := testStructure(t)
	symbols, counts := s.SymbolCounts()
	assert.Equal(t, []string{"Li", "O"}, symbols)
	assert.Equal(t, []int{2, 2}, counts)
}

func TestInterpolate(t *testing.T) {
	start := testStructure(t)
	end := start.Copy()
	end.Sites[1].FracCoords = [3]float64{0.5, 0.5, 0.75}

	images, err := start.Interpolate(end, 4)
	require.NoError(t, err)
	require.Len(t, images, 5)

	assert.Equal(t, start.Sites[1].FracCoords, images[0].Sites[1].FracCoords)
	assert.Equal(t, end.Sites[1].FracCoords, images[4].Sites[1].FracCoords)
	assert.InDelta(t, 0.625, images[2].Sites[1].FracCoords[2], 1e-12)

	// Untouched sites stay put in every image.
	for _, img := range images {
		assert.Equal(t, start.Sites[0].FracCoords, img.Sites[0].FracCoords)
	}
}

func TestInterpolate_WrapsAcrossBoundary(t *testing.T) {
	start := testStructure(t)
	end := start.Copy()
	start.Sites[0].FracCoords = [3]float64{0.95, 0, 0}
	end.Sites[0].FracCoords = [3]float64{0.05, 0, 0}

	images, err := start.Interpolate(end, 2)
	require.NoError(t, err)

	// Midpoint goes through the boundary, not across the whole cell.
	assert.InDelta(t, 1.0, images[1].Sites[0].FracCoords[0], 1e-12)
}

func TestInterpolate_Errors(t *testing.T) {
	start := testStructure(t)

	smaller := start.Copy()
	require.NoError(t, smaller.RemoveSites([]int{0}))
	_, err := start.Interpolate(smaller, 4)
	assert.ErrorIs(t, err, ErrSiteCountMismatch)

	swapped := start.Copy()
	swapped.Sites[0].Species = "Na"
	_, err = start.Interpolate(swapped, 4)
	assert.Error(t, err)
}

func TestSetSiteDistance(t *testing.T) {
	s := testStructure(t)
	require.NoError(t, s.SetSiteDistance(2, 3, 1.4))
	assert.InDelta(t, 1.4, s.Distance(2, 3), 1e-9)

	// The pair midpoint is unchanged.
	for k := 0; k < 3; k++ {
		mid := (s.Sites[2].FracCoords[k] + s.Sites[3].FracCoords[k]) / 2
		assert.InDelta(t, 0.5, mid, 1e-9)
	}
}

func TestMakeSupercell(t *testing.T) {
	s := testStructure(t)
	require.NoError(t, s.AddSiteProperty(MagmomProperty, []float64{1, 2, 3, 4}))

	require.NoError(t, s.MakeSupercell([3]int{2, 1, 1}))

	assert.Equal(t, 8, s.Len())
	assert.InDelta(t, 8.0, s.Lattice.Matrix[0][0], 1e-12)
	symbols, counts := s.SymbolCounts()
	assert.Equal(t, []string{"Li", "O"}, symbols)
	assert.Equal(t, []int{4, 4}, counts)
	magmom, _ := s.SiteProperty(MagmomProperty)
	assert.Equal(t, []float64{1, 1, 2, 2, 3, 3, 4, 4}, magmom)
}

func TestLattice_MinimumImageDisplacement(t *testing.T) {
	lat := Cubic(10.0)
	d := lat.MinimumImageDisplacement([3]float64{0.95, 0, 0}, [3]float64{0.05, 0, 0})
	assert.InDelta(t, 1.0, math.Abs(d[0]), 1e-9)
	assert.InDelta(t, 0.0, d[1], 1e-12)
}

func TestLattice_FractionalRoundTrip(t *testing.T) {
	lat := NewLattice(
		[3]float64{5, 0, 0},
		[3]float64{2.5, 4.33, 0},
		[3]float64{0, 0, 7},
	)
	frac := [3]float64{0.2, 0.3, 0.4}
	cart := lat.Cartesian(frac)
	back, err := lat.Fractional(cart)
	require.NoError(t, err)
	for k := 0; k < 3; k++ {
		assert.InDelta(t, frac[k], back[k], 1e-9)
	}
}
