package hydrology

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/psi29a/worldsynth/internal/grid"
)

func TestCleanup(t *testing.T) {
	f := mustField(t, [][]float64{{0.7, 0.8, 0.6, 0.65, 0.5}})
	e := NewEroder(f, SmallTestConfig(), rand.New(rand.NewSource(1)), nil)
	e.Cleanup([]grid.Point{pt(0, 0), pt(1, 0), pt(2, 0), pt(3, 0), pt(4, 0)})
	assert.Equal(t, []float64{0.7, 0.7, 0.6, 0.6, 0.5}, f.Values)
}

func TestCarve(t *testing.T) {
	orig := []float64{0.7, 0.6, 0.5, 0.3}
	f := mustField(t, [][]float64{orig})
	cfg := SmallTestConfig()
	e := NewEroder(f, cfg, rand.New(rand.NewSource(1)), nil)
	path := []grid.Point{pt(0, 0), pt(1, 0), pt(2, 0), pt(3, 0)}

	e.Carve(path)
	assert.GreaterOrEqual(t, f.Values[0], cfg.CarveFraction*0.7)
	for i := range path {
		assert.LessOrEqual(t, f.Values[i], orig[i], "carving only lowers")
		if i > 0 {
			assert.LessOrEqual(t, f.Values[i], f.Values[i-1], "bed descends")
		}
	}
	assert.Equal(t, 0.3, f.Values[3], "sea cell keeps its depth")
}

func TestCarveStopsAtSeaLevel(t *testing.T) {
	cfg := SmallTestConfig()
	f := mustField(t, [][]float64{{cfg.SeaLevel + 0.002, cfg.SeaLevel + 0.001}})
	for seed := int64(0); seed < 20; seed++ {
		g := f.Clone()
		NewEroder(g, cfg, rand.New(rand.NewSource(seed)), nil).Carve([]grid.Point{pt(0, 0), pt(1, 0)})
		for _, v := range g.Values {
			assert.GreaterOrEqual(t, v, cfg.SeaLevel)
		}
	}
}

func TestWiden(t *testing.T) {
	cfg := SmallTestConfig()
	newField := func() *grid.Field {
		f := grid.Filled(5, 5, 0.8)
		f.Set(pt(2, 2), 0.4)
		f.Set(pt(3, 2), 0.3)
		return f
	}
	path := []grid.Point{pt(2, 2)}

	f := newField()
	river := func(p grid.Point) bool { return p == pt(2, 2) }
	NewEroder(f, cfg, rand.New(rand.NewSource(1)), river).Widen(path)

	assert.InDelta(t, 0.72, f.At(pt(1, 2)), 1e-12, "adjacent")
	assert.InDelta(t, 0.72, f.At(pt(1, 1)), 1e-12, "diagonal")
	assert.InDelta(t, 0.78, f.At(pt(0, 2)), 1e-12, "two cells out")
	assert.Equal(t, 0.8, f.At(pt(0, 0)), "outside the circle")
	assert.Equal(t, 0.8, f.At(pt(0, 1)), "outside the circle")
	assert.Equal(t, 0.3, f.At(pt(3, 2)), "already below the river")
	assert.Equal(t, 0.4, f.At(pt(2, 2)), "river cell untouched")

	f = newField()
	rivers := func(p grid.Point) bool { return p == pt(2, 2) || p == pt(2, 1) }
	NewEroder(f, cfg, rand.New(rand.NewSource(1)), rivers).Widen(path)
	assert.Equal(t, 0.8, f.At(pt(2, 1)), "other rivers untouched")
	assert.InDelta(t, 0.72, f.At(pt(2, 3)), 1e-12)
}

func TestErodeKeepsPathDescending(t *testing.T) {
	f := mustField(t, [][]float64{
		{0.80, 0.85, 0.70, 0.72, 0.50, 0.55, 0.30},
		{0.90, 0.90, 0.90, 0.90, 0.90, 0.90, 0.90},
	})
	path := []grid.Point{pt(0, 0), pt(1, 0), pt(2, 0), pt(3, 0), pt(4, 0), pt(5, 0), pt(6, 0)}
	onPath := func(p grid.Point) bool { return p.Y == 0 }
	before := f.Clone()

	NewEroder(f, SmallTestConfig(), rand.New(rand.NewSource(9)), onPath).Erode(path)
	for i := 1; i < len(path); i++ {
		assert.LessOrEqual(t, f.At(path[i]), f.At(path[i-1]))
	}
	for id, v := range f.Values {
		assert.LessOrEqual(t, v, before.Values[id], "cell %d raised", id)
	}
	assert.Less(t, f.At(pt(0, 1)), 0.9, "bank pulled toward the river")
}
