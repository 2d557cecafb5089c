package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/psi29a/worldsynth/internal/grid"
	"github.com/psi29a/worldsynth/internal/hydrology"
)

func TestGenerateDeterministic(t *testing.T) {
	cfg := SmallTestConfig()
	a, err := Generate(cfg)
	require.NoError(t, err)
	b, err := Generate(cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Elevation.Values, b.Elevation.Values)
	assert.Equal(t, a.Rainfall.Values, b.Rainfall.Values)
	assert.Equal(t, int64(42), a.Seed)

	cfg.Seed = 43
	c, err := Generate(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Elevation.Values, c.Elevation.Values)
}

func TestGenerateRanges(t *testing.T) {
	for _, wrap := range []bool{false, true} {
		cfg := SmallTestConfig()
		cfg.Wrap = wrap
		terrain, err := Generate(cfg)
		require.NoError(t, err)

		for _, f := range []*grid.Field{terrain.Elevation, terrain.Rainfall, terrain.Temperature} {
			assert.Equal(t, cfg.Width, f.Width)
			assert.Equal(t, cfg.Height, f.Height)
			for _, v := range f.Values {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			}
		}
	}
}

func TestGenerateOceanBorder(t *testing.T) {
	terrain, err := Generate(SmallTestConfig())
	require.NoError(t, err)
	assert.Zero(t, terrain.Elevation.At(grid.Point{X: 0, Y: 0}), "corners fall off to zero")
}

func TestGenerateBoundedKeepsSourceBand(t *testing.T) {
	bands := hydrology.DefaultConfig()
	for _, seed := range []int64{3, 5, 6} {
		cfg := DefaultGenConfig()
		cfg.Width, cfg.Height = 128, 96
		cfg.Wrap = false
		cfg.Seed = seed
		terrain, err := Generate(cfg)
		require.NoError(t, err)

		assert.InDelta(t, 1.0, floats.Max(terrain.Elevation.Values), 1e-12, "seed %d", seed)
		inBand := terrain.Elevation.Count(func(v float64) bool {
			return v >= bands.Hills && v <= bands.MountainLow
		})
		assert.Positive(t, inBand, "seed %d has no source-band cells", seed)
	}
}

func TestGenerateBadSize(t *testing.T) {
	cfg := SmallTestConfig()
	cfg.Width = 0
	_, err := Generate(cfg)
	assert.ErrorIs(t, err, ErrBadSize)
}

func TestClassify(t *testing.T) {
	cfg := SmallTestConfig()
	elev, _ := grid.FromRows([][]float64{{0.2, 0.4, 0.6, 0.95}})
	rain, _ := grid.FromRows([][]float64{{0.5, 0.3, 0.5, 0.5}})
	temp, _ := grid.FromRows([][]float64{{0.5, 0.4, 0.1, 0.5}})
	terrain := &Terrain{Elevation: elev, Rainfall: rain, Temperature: temp}

	m, err := Classify(terrain, nil, nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, []TerrainType{TerrainOcean, TerrainCoast, TerrainTundra, TerrainMountain}, m.Cells)

	rivers := grid.NewField(4, 1)
	rivers.Set(grid.Point{X: 2, Y: 0}, 3)
	lakes := grid.NewField(4, 1)
	lakes.Set(grid.Point{X: 1, Y: 0}, 0.01)
	m, err = Classify(terrain, rivers, lakes, cfg)
	require.NoError(t, err)
	assert.Equal(t, []TerrainType{TerrainOcean, TerrainLake, TerrainRiver, TerrainMountain}, m.Cells)
	assert.Equal(t, TerrainRiver, m.At(grid.Point{X: 2, Y: 0}))
	assert.Equal(t, TerrainOcean, m.At(grid.Point{X: 9, Y: 0}))

	counts := TerrainCounts(m)
	assert.Equal(t, 1, counts[TerrainLake])
	assert.Equal(t, "Lake", TerrainName(TerrainLake))

	_, err = Classify(terrain, grid.NewField(3, 1), nil, cfg)
	assert.ErrorIs(t, err, grid.ErrSizeMismatch)
}
