package hydrology

import (
	"github.com/psi29a/worldsynth/internal/grid"
)

// Direction indexes grid.AllCenter. NoDirection marks a cell with no
// strictly lower neighbour.
type Direction uint8

// NoDirection is the centre offset.
const NoDirection Direction = 0

// Offset returns the neighbour displacement for d.
func (d Direction) Offset() grid.Point {
	return grid.AllCenter[d]
}

// DirectionField stores one Direction per cell.
type DirectionField struct {
	topo  grid.Topology
	codes []Direction
}

// ComputeDirections points each cell at its steepest strictly-lower
// neighbour.
func ComputeDirections(elev *grid.Field, topo grid.Topology, diagonal bool) *DirectionField {
	df := &DirectionField{topo: topo, codes: make([]Direction, topo.Cells())}
	for id := range df.codes {
		d, _, _ := steepest(elev, topo, topo.PointAt(id), diagonal)
		df.codes[id] = d
	}
	return df
}

// At returns the direction stored for p, or NoDirection off the grid.
func (df *DirectionField) At(p grid.Point) Direction {
	if !df.topo.InBounds(p) {
		return NoDirection
	}
	return df.codes[df.topo.Index(p)]
}

// Next follows the direction stored for p.
func (df *DirectionField) Next(p grid.Point) (grid.Point, bool) {
	d := df.At(p)
	if d == NoDirection {
		return p, false
	}
	return df.topo.Normalize(p.Add(d.Offset()))
}

// Sinks counts cells without an outgoing direction.
func (df *DirectionField) Sinks() int {
	n := 0
	for _, c := range df.codes {
		if c == NoDirection {
			n++
		}
	}
	return n
}

// steepest finds the lowest neighbour strictly below p. Ties keep the first
// neighbour in grid.AllCenter order.
func steepest(elev *grid.Field, topo grid.Topology, p grid.Point, diagonal bool) (Direction, grid.Point, bool) {
	lowest := elev.At(p)
	best := NoDirection
	next := p
	for i := 1; i < len(grid.AllCenter); i++ {
		d := grid.AllCenter[i]
		if !diagonal && d.X != 0 && d.Y != 0 {
			continue
		}
		q, ok := topo.Normalize(p.Add(d))
		if !ok {
			continue
		}
		if e := elev.At(q); e < lowest {
			lowest = e
			best = Direction(i)
			next = q
		}
	}
	return best, next, best != NoDirection
}
