package hydrology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psi29a/worldsynth/internal/grid"
)

func TestTraceSeaSource(t *testing.T) {
	f := grid.Filled(5, 5, 0.6)
	f.Set(pt(2, 2), 0.2)
	tr, err := NewTracer(f, SmallTestConfig()).Trace(pt(2, 2))
	require.NoError(t, err)
	assert.Equal(t, ReachedSea, tr.Outcome)
	assert.Equal(t, []grid.Point{pt(2, 2)}, tr.Path)
	assert.Equal(t, -1, tr.MergedInto)
}

func TestTraceExhaustsSearchRadius(t *testing.T) {
	// The sea lies 90 cells away, beyond the 40-cell search radius.
	f := grid.Filled(100, 3, 0.5)
	f.Set(pt(5, 1), 0.4)
	f.Set(pt(95, 1), 0.2)

	tr, err := NewTracer(f, SmallTestConfig()).Trace(pt(5, 1))
	require.NoError(t, err)
	assert.Equal(t, BecameLake, tr.Outcome)
	assert.Equal(t, []grid.Point{pt(5, 1)}, tr.Path)
	assert.Equal(t, pt(5, 1), tr.Terminus())
}

func TestTraceWalledBasin(t *testing.T) {
	// A sea cell ringed by mountains is visible to the radius search but
	// unreachable for the pathfinder.
	f := grid.Filled(9, 9, 0.6)
	for _, d := range grid.All {
		f.Set(pt(4, 4).Add(d), 0.95)
	}
	f.Set(pt(4, 4), 0.2)
	f.Set(pt(1, 1), 0.5)

	tr, err := NewTracer(f, SmallTestConfig()).Trace(pt(1, 1))
	require.NoError(t, err)
	assert.Equal(t, BecameLake, tr.Outcome)
	assert.Equal(t, []grid.Point{pt(1, 1)}, tr.Path)
}

func mergeField(t *testing.T) *grid.Field {
	f := grid.Filled(7, 5, 0.85)
	for p, v := range map[grid.Point]float64{
		pt(3, 4): 0.70, pt(3, 3): 0.65, pt(3, 2): 0.60,
		pt(4, 2): 0.55, pt(5, 2): 0.50, pt(6, 2): 0.30,
		pt(3, 0): 0.75, pt(3, 1): 0.68,
	} {
		f.Set(p, v)
	}
	return f
}

func TestTraceMerge(t *testing.T) {
	tracer := NewTracer(mergeField(t), SmallTestConfig())

	first, err := tracer.Trace(pt(3, 4))
	require.NoError(t, err)
	assert.Equal(t, ReachedSea, first.Outcome)
	assert.Equal(t, []grid.Point{pt(3, 4), pt(3, 3), pt(4, 2), pt(5, 2), pt(6, 2)}, first.Path)
	assert.Equal(t, 0, tracer.Register(first.Path))
	assert.True(t, tracer.OnRiver(pt(4, 2)))
	assert.False(t, tracer.OnRiver(pt(3, 2)))

	second, err := tracer.Trace(pt(3, 0))
	require.NoError(t, err)
	assert.Equal(t, Merged, second.Outcome)
	assert.Equal(t, 0, second.MergedInto)
	assert.Equal(t, []grid.Point{pt(3, 0), pt(3, 1), pt(4, 2), pt(5, 2), pt(6, 2)}, second.Path,
		"spliced from the shared cell onward")
	assert.Equal(t, 1, tracer.Register(second.Path))
	assert.Len(t, tracer.Rivers(), 2)
}

func TestTraceRouteCrossingRiverMerges(t *testing.T) {
	// A flat plateau strands (2,2). The only lower cell is the sea at (6,2),
	// and every route there crosses the river running down column 4.
	f := grid.Filled(9, 5, 0.6)
	f.Set(pt(6, 2), 0.3)
	river := []grid.Point{pt(4, 0), pt(4, 1), pt(4, 2), pt(4, 3), pt(4, 4)}
	for i, p := range river {
		f.Set(p, 0.70-0.02*float64(i))
	}

	tracer := NewTracer(f, SmallTestConfig())
	require.Equal(t, 0, tracer.Register([]grid.Point{pt(8, 0), pt(8, 1)}))
	require.Equal(t, 1, tracer.Register(river))

	tr, err := tracer.Trace(pt(2, 2))
	require.NoError(t, err)
	assert.Equal(t, Merged, tr.Outcome)
	assert.Equal(t, 1, tr.MergedInto)
	assert.Equal(t, []grid.Point{pt(2, 2), pt(3, 2), pt(4, 2), pt(4, 3), pt(4, 4)}, tr.Path,
		"spliced from the crossed cell onward")
	assert.NotContains(t, tr.Path, pt(6, 2), "route abandoned at the river")
}

func TestTraceWithoutRegistrationReachesSea(t *testing.T) {
	tracer := NewTracer(mergeField(t), SmallTestConfig())
	tr, err := tracer.Trace(pt(3, 0))
	require.NoError(t, err)
	assert.Equal(t, ReachedSea, tr.Outcome)
	assert.Equal(t, pt(6, 2), tr.Terminus())
	assert.Empty(t, tracer.Rivers(), "tracing does not register")
}

func TestTraceAcrossWrapSeam(t *testing.T) {
	f := grid.Filled(20, 3, 0.6)
	f.Set(pt(1, 1), 0.5)
	f.Set(pt(17, 1), 0.2)
	cfg := SmallTestConfig()
	cfg.Wrap = true

	tr, err := NewTracer(f, cfg).Trace(pt(1, 1))
	require.NoError(t, err)
	assert.Equal(t, ReachedSea, tr.Outcome)
	assert.Equal(t, []grid.Point{pt(1, 1), pt(0, 1), pt(19, 1), pt(18, 1), pt(17, 1)}, tr.Path)
}

func TestTraceOutOfBounds(t *testing.T) {
	f := grid.Filled(4, 4, 0.6)
	_, err := NewTracer(f, SmallTestConfig()).Trace(pt(-1, 0))
	assert.ErrorIs(t, err, ErrSourceOutOfBounds)

	cfg := SmallTestConfig()
	cfg.Wrap = true
	tr, err := NewTracer(f, cfg).Trace(pt(-1, 0))
	require.NoError(t, err)
	assert.Equal(t, pt(3, 0), tr.Source, "wrapped onto the grid")
}

func TestTraceTerminatesOnRandomTerrain(t *testing.T) {
	f := grid.NewField(30, 30)
	for id := range f.Values {
		f.Values[id] = float64((id*37)%23) / 23
	}
	tracer := NewTracer(f, SmallTestConfig())
	for id := 0; id < len(f.Values); id += 7 {
		tr, err := tracer.Trace(f.Topology(false).PointAt(id))
		require.NoError(t, err)
		assert.Contains(t, []Outcome{ReachedSea, Merged, BecameLake}, tr.Outcome)

		seen := make(map[grid.Point]bool)
		for _, p := range tr.Path {
			assert.False(t, seen[p], "cell %s repeated", p)
			seen[p] = true
		}
		if tr.Outcome.Accepted() {
			tracer.Register(tr.Path)
		}
	}
}

func TestWalkErasesLoops(t *testing.T) {
	w := newWalk(grid.Topology{Width: 5, Height: 5}, pt(0, 0))
	w.step(pt(1, 0))
	w.step(pt(2, 0))
	w.step(pt(1, 0))
	assert.Equal(t, []grid.Point{pt(0, 0), pt(1, 0)}, w.path)
	w.step(pt(2, 0))
	w.step(pt(2, 1))
	assert.Equal(t, []grid.Point{pt(0, 0), pt(1, 0), pt(2, 0), pt(2, 1)}, w.path)
	assert.Equal(t, 3, w.index[w.topo.Index(pt(2, 1))])
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "reached_sea", ReachedSea.String())
	assert.Equal(t, "merged", Merged.String())
	assert.Equal(t, "became_lake", BecameLake.String())
	assert.Equal(t, "unknown", Outcome(0).String())
	assert.False(t, BecameLake.Accepted())
}
