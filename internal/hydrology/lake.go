package hydrology

import (
	"github.com/psi29a/worldsynth/internal/grid"
)

// minDepth marks a flooded cell that sits exactly at the fill threshold.
const minDepth = 1e-6

// LakeFiller floods closed basins into a lake field. Each flooded cell holds
// its depth below the fill threshold.
type LakeFiller struct {
	elev  *grid.Field
	lakes *grid.Field
	topo  grid.Topology
}

// NewLakeFiller returns a filler that reads elev and writes lakes. Both
// fields must have the same size.
func NewLakeFiller(elev, lakes *grid.Field, wrap bool) *LakeFiller {
	return &LakeFiller{elev: elev, lakes: lakes, topo: elev.Topology(wrap)}
}

// Flooded reports whether p already belongs to a lake.
func (l *LakeFiller) Flooded(p grid.Point) bool {
	return l.lakes.At(p) > 0
}

// Fill floods every cell 4-connected to seed whose elevation does not exceed
// threshold and returns the number of newly flooded cells.
func (l *LakeFiller) Fill(seed grid.Point, threshold float64) int {
	filled := 0
	stack := []grid.Point{seed}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		p, ok := l.topo.Normalize(p)
		if !ok || l.Flooded(p) {
			continue
		}
		e := l.elev.At(p)
		if e > threshold {
			continue
		}
		l.lakes.Set(p, max(threshold-e, minDepth))
		filled++
		for _, d := range grid.Plus {
			stack = append(stack, p.Add(d))
		}
	}
	return filled
}
