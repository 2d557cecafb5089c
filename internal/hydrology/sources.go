package hydrology

import (
	"math/rand"

	"github.com/psi29a/worldsynth/internal/grid"
)

// bandedSources picks one random cell per SourceTile×SourceTile tile among
// those whose elevation lies in [Hills, MountainLow]. Tiles hanging over the
// edge wrap on a torus and are clipped otherwise.
func bandedSources(elev *grid.Field, topo grid.Topology, cfg Config, rng *rand.Rand) []grid.Point {
	var sources []grid.Point
	taken := make(map[int]bool)
	tile := cfg.SourceTile

	for ty := 0; ty < topo.Height; ty += tile {
		for tx := 0; tx < topo.Width; tx += tile {
			var candidates []grid.Point
			for y := ty; y < ty+tile; y++ {
				for x := tx; x < tx+tile; x++ {
					p, ok := topo.Normalize(grid.Point{X: x, Y: y})
					if !ok {
						continue
					}
					e := elev.At(p)
					if e < cfg.Hills || e > cfg.MountainLow {
						continue
					}
					candidates = append(candidates, p)
				}
			}
			if len(candidates) == 0 {
				continue
			}
			pick := candidates[rng.Intn(len(candidates))]
			if id := topo.Index(pick); !taken[id] {
				taken[id] = true
				sources = append(sources, pick)
			}
		}
	}
	return sources
}

// flowSources accumulates rainfall down the direction field and seeds a
// river where the running flow first reaches FlowThreshold inside the
// [HillsLow, MountainLow] band. Seeds closer than SeedSpacing to an earlier
// seed are dropped. Returns the seeds in discovery order and the accumulated
// flow.
func flowSources(elev, rain *grid.Field, dirs *DirectionField, topo grid.Topology, cfg Config) ([]grid.Point, *grid.Field) {
	flow := rain.Clone()
	var seeds []grid.Point

	nearSeed := func(p grid.Point) bool {
		for _, s := range seeds {
			if topo.InCircle(cfg.SeedSpacing, s, p) {
				return true
			}
		}
		return false
	}

	for id := 0; id < topo.Cells(); id++ {
		start := topo.PointAt(id)
		if dirs.At(start) == NoDirection {
			continue
		}
		r := rain.AtIndex(id)
		cur := start
		// Directions only point downhill, so a chain never exceeds the cell count.
		for steps := 0; steps < topo.Cells(); steps++ {
			e := elev.At(cur)
			if e >= cfg.HillsLow && e <= cfg.MountainLow && flow.At(cur) >= cfg.FlowThreshold {
				if !nearSeed(cur) {
					seeds = append(seeds, cur)
				}
				break
			}
			next, ok := dirs.Next(cur)
			if !ok {
				break
			}
			flow.Set(next, flow.At(next)+r)
			cur = next
		}
	}
	return seeds, flow
}
