package setup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batkit/internal/structure"
)

func TestMaxDisplacementIndex(t *testing.T) {
	t.Run("single shifted site wins", func(t *testing.T) {
		initial := [][3]float64{
			{0, 0, 0},
			{0, 0, 0},
			{0, 0, 0},
			{0, 0, 0},
			{0, 0, 0},
		}
		final := [][3]float64{
			{0, 0, 0},
			{0.1, 0, 0},
			{0, 0.05, 0},
			{2.0, 0, 0},
			{0, 0, 0},
		}
		idx, err := MaxDisplacementIndex(initial, final)
		require.NoError(t, err)
		assert.Equal(t, 3, idx)
	})

	t.Run("mismatched site counts", func(t *testing.T) {
		_, err := MaxDisplacementIndex([][3]float64{{0, 0, 0}}, [][3]float64{})
		assert.ErrorIs(t, err, structure.ErrSiteCountMismatch)
	})

	t.Run("no displacement", func(t *testing.T) {
		coords := [][3]float64{{1, 2, 3}}
		_, err := MaxDisplacementIndex(coords, coords)
		assert.ErrorIs(t, err, ErrNoDisplacement)
	})
}

func TestFindMigratingIon(t *testing.T) {
	newStruct := func(frac [][3]float64) *structure.Structure {
		species := make([]string, len(frac))
		for i := range species {
			species[i] = "Li"
		}
		s, err := structure.New(structure.Cubic(10.0), species, frac)
		require.NoError(t, err)
		return s
	}

	t.Run("largest displacement wins", func(t *testing.T) {
		initial := newStruct([][3]float64{
			{0.1, 0.1, 0.1},
			{0.5, 0.5, 0.5},
			{0.8, 0.8, 0.8},
		})
		final := newStruct([][3]float64{
			{0.1, 0.1, 0.1},
			{0.5, 0.7, 0.5},
			{0.8, 0.8, 0.82},
		})
		idx, err := FindMigratingIon(initial, final)
		require.NoError(t, err)
		assert.Equal(t, 1, idx)
	})

	t.Run("boundary crossing is not a migration", func(t *testing.T) {
		// Site 0 crosses the periodic boundary (raw displacement 9 A, true
		// displacement 1 A); site 1 genuinely moves 2 A.
		initial := newStruct([][3]float64{
			{0.95, 0, 0},
			{0.4, 0.4, 0.4},
		})
		final := newStruct([][3]float64{
			{0.05, 0, 0},
			{0.4, 0.6, 0.4},
		})
		idx, err := FindMigratingIon(initial, final)
		require.NoError(t, err)
		assert.Equal(t, 1, idx)
	})

	t.Run("mismatched site counts", func(t *testing.T) {
		initial := newStruct([][3]float64{{0, 0, 0}, {0.5, 0.5, 0.5}})
		final := newStruct([][3]float64{{0, 0, 0}})
		_, err := FindMigratingIon(initial, final)
		assert.ErrorIs(t, err, structure.ErrSiteCountMismatch)
	})
}
