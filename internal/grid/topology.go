// Package grid provides the rectangular cell grid shared by the hydrology
// simulation: coordinates, bounded or toroidal topology, neighbour tables and
// float64 fields stored in row-major order.
package grid

import "fmt"

// Point is a cell coordinate. X runs along the width, Y along the height.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String returns "(x,y)".
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Add returns p offset by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Neighbour offset tables.
var (
	// Plus holds the four orthogonal offsets.
	Plus = []Point{{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1}}

	// All holds the eight surrounding offsets, centre excluded.
	All = []Point{
		{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
		{X: -1, Y: 0}, {X: 1, Y: 0},
		{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1},
	}

	// AllCenter is All prefixed with the centre offset. Index 0 means "no
	// direction" wherever a direction code indexes this table.
	AllCenter = append([]Point{{X: 0, Y: 0}}, All...)
)

// Topology describes the shape of a W×H grid. When Wrap is set the grid is a
// torus: opposite edges are adjacent.
type Topology struct {
	Width  int  `json:"width"`
	Height int  `json:"height"`
	Wrap   bool `json:"wrap"`
}

// InBounds reports whether p lies inside [0,W)×[0,H) without wrapping.
func (t Topology) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < t.Width && p.Y < t.Height
}

// Normalize maps p into the grid. On a torus both axes are taken modulo the
// grid size; otherwise an out-of-bounds point is rejected.
func (t Topology) Normalize(p Point) (Point, bool) {
	if t.Width <= 0 || t.Height <= 0 {
		return p, false
	}
	if t.Wrap {
		return Point{X: mod(p.X, t.Width), Y: mod(p.Y, t.Height)}, true
	}
	return p, t.InBounds(p)
}

// Index flattens an in-bounds point to its row-major cell id.
func (t Topology) Index(p Point) int {
	return p.Y*t.Width + p.X
}

// PointAt is the inverse of Index.
func (t Topology) PointAt(id int) Point {
	return Point{X: id % t.Width, Y: id / t.Width}
}

// Cells returns W×H.
func (t Topology) Cells() int {
	return t.Width * t.Height
}

// Delta returns the displacement from a to b. On a torus each axis takes the
// shorter way around.
func (t Topology) Delta(a, b Point) (dx, dy int) {
	dx, dy = b.X-a.X, b.Y-a.Y
	if t.Wrap {
		dx = shortest(dx, t.Width)
		dy = shortest(dy, t.Height)
	}
	return dx, dy
}

// Manhattan returns |dx|+|dy| using Delta.
func (t Topology) Manhattan(a, b Point) int {
	dx, dy := t.Delta(a, b)
	return abs(dx) + abs(dy)
}

// DistanceSq returns the squared euclidean distance using Delta.
func (t Topology) DistanceSq(a, b Point) int {
	dx, dy := t.Delta(a, b)
	return dx*dx + dy*dy
}

// InCircle reports whether p is within radius of center, measured on the
// topology (wrapped on a torus).
func (t Topology) InCircle(radius int, center, p Point) bool {
	return t.DistanceSq(center, p) <= radius*radius
}

// Neighbors returns the normalised cells at p+offset for each offset,
// dropping those that fall off a bounded grid. Order follows offsets.
func (t Topology) Neighbors(p Point, offsets []Point) []Point {
	result := make([]Point, 0, len(offsets))
	for _, d := range offsets {
		if n, ok := t.Normalize(p.Add(d)); ok {
			result = append(result, n)
		}
	}
	return result
}

// InCircle reports whether p lies within radius of center using a plain
// squared-distance comparison.
func InCircle(radius int, center, p Point) bool {
	dx, dy := center.X-p.X, center.Y-p.Y
	return dx*dx+dy*dy <= radius*radius
}

func mod(v, n int) int {
	return (v%n + n) % n
}

func shortest(d, n int) int {
	d = mod(d, n)
	if d > n/2 {
		d -= n
	}
	return d
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
