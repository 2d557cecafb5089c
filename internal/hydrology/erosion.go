package hydrology

import (
	"math/rand"

	"github.com/psi29a/worldsynth/internal/grid"
)

// Eroder cuts river channels into a working elevation field.
type Eroder struct {
	elev    *grid.Field
	topo    grid.Topology
	cfg     Config
	rng     *rand.Rand
	onRiver func(grid.Point) bool
}

// NewEroder returns an eroder that mutates elev in place. onRiver reports
// cells that valley widening must leave alone; nil treats no cell as river.
func NewEroder(elev *grid.Field, cfg Config, rng *rand.Rand, onRiver func(grid.Point) bool) *Eroder {
	if onRiver == nil {
		onRiver = func(grid.Point) bool { return false }
	}
	return &Eroder{
		elev:    elev,
		topo:    elev.Topology(cfg.Wrap),
		cfg:     cfg,
		rng:     rng,
		onRiver: onRiver,
	}
}

// Erode runs cleanup, carving and widening over one river path.
func (e *Eroder) Erode(path []grid.Point) {
	e.Cleanup(path)
	e.Carve(path)
	e.Widen(path)
}

// Cleanup clamps every cell to the lowest elevation seen upstream of it, so
// the path never climbs.
func (e *Eroder) Cleanup(path []grid.Point) {
	low := 1.0
	for _, p := range path {
		v := e.elev.At(p)
		if v > low {
			e.elev.Set(p, low)
			continue
		}
		low = v
	}
}

// Carve lowers each cell to a random height just under the running maximum.
// The bed never drops below sea level and existing sea cells are never
// raised.
func (e *Eroder) Carve(path []grid.Point) {
	high := 1.0
	for _, p := range path {
		v := e.elev.At(p)
		if v < high {
			high = v
		}
		lo := e.cfg.CarveFraction * high
		bed := lo + e.rng.Float64()*(high-lo)
		floor := min(e.cfg.SeaLevel, v)
		if bed < floor {
			bed = floor
		}
		e.elev.Set(p, bed)
		high = bed
	}
}

// Widen pulls the banks within ValleyRadius of each path cell toward the
// river's elevation. Adjacent cells move by ValleyNear, the rest by
// ValleyFar.
func (e *Eroder) Widen(path []grid.Point) {
	r := e.cfg.ValleyRadius
	for _, p := range path {
		river := e.elev.At(p)
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				if !grid.InCircle(r, grid.Point{}, grid.Point{X: dx, Y: dy}) {
					continue
				}
				q, ok := e.topo.Normalize(grid.Point{X: p.X + dx, Y: p.Y + dy})
				if !ok || e.onRiver(q) {
					continue
				}
				bank := e.elev.At(q)
				if bank <= river {
					continue
				}
				w := e.cfg.ValleyFar
				if max(abs(dx), abs(dy)) <= 1 {
					w = e.cfg.ValleyNear
				}
				if v := bank - w*(bank-river); v > river {
					e.elev.Set(q, v)
				}
			}
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
