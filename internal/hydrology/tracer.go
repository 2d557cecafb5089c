package hydrology

import (
	"fmt"
	"log/slog"

	"github.com/psi29a/worldsynth/internal/astar"
	"github.com/psi29a/worldsynth/internal/grid"
)

// Outcome is the terminal state of a trace.
type Outcome uint8

const (
	ReachedSea Outcome = iota + 1 // Flowed down to sea level
	Merged                        // Joined an earlier river
	BecameLake                    // No way further down; seeds a lake
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case ReachedSea:
		return "reached_sea"
	case Merged:
		return "merged"
	case BecameLake:
		return "became_lake"
	default:
		return "unknown"
	}
}

// Accepted reports whether the trace becomes a river.
func (o Outcome) Accepted() bool {
	return o == ReachedSea || o == Merged
}

// Trace is the result of following one source downhill.
type Trace struct {
	Source     grid.Point
	Path       []grid.Point // Source first; no cell appears twice
	Outcome    Outcome
	MergedInto int // Index of the joined river, -1 unless Merged
}

// Terminus returns the last cell of the path.
func (t Trace) Terminus() grid.Point {
	return t.Path[len(t.Path)-1]
}

// riverRef locates a cell inside a registered river.
type riverRef struct {
	river int
	pos   int
}

// Tracer follows sources downhill over a shared elevation field and keeps
// the list of completed rivers that later traces may join.
type Tracer struct {
	elev   *grid.Field
	topo   grid.Topology
	cfg    Config
	finder *astar.Finder

	rivers [][]grid.Point
	cells  map[int]riverRef // first occurrence in the earliest river
}

// NewTracer returns a tracer over elev. The field is read on every step, so
// erosion applied between traces is visible to later ones.
func NewTracer(elev *grid.Field, cfg Config) *Tracer {
	topo := elev.Topology(cfg.Wrap)
	return &Tracer{
		elev: elev,
		topo: topo,
		cfg:  cfg,
		finder: astar.New(elev, topo,
			astar.WithImpassable(cfg.Mountain),
			astar.WithMaxExpansions(cfg.MaxExpansions),
		),
		cells: make(map[int]riverRef),
	}
}

// Register records path as a completed river and returns its index.
func (t *Tracer) Register(path []grid.Point) int {
	idx := len(t.rivers)
	t.rivers = append(t.rivers, path)
	for pos, p := range path {
		id := t.topo.Index(p)
		if _, ok := t.cells[id]; !ok {
			t.cells[id] = riverRef{river: idx, pos: pos}
		}
	}
	return idx
}

// Rivers returns the registered rivers in registration order.
func (t *Tracer) Rivers() [][]grid.Point {
	return t.rivers
}

// OnRiver reports whether p belongs to any registered river.
func (t *Tracer) OnRiver(p grid.Point) bool {
	_, ok := t.cells[t.topo.Index(p)]
	return ok
}

// Trace follows source downhill until it reaches the sea, joins a registered
// river or gets stuck. The trace itself is not registered.
func (t *Tracer) Trace(source grid.Point) (Trace, error) {
	src, ok := t.topo.Normalize(source)
	if !ok {
		return Trace{}, fmt.Errorf("%w: %s", ErrSourceOutOfBounds, source)
	}

	w := newWalk(t.topo, src)
	cur := src
	for {
		if ref, ok := t.mergeTarget(cur); ok {
			return t.splice(w, ref), nil
		}

		if t.elev.At(cur) <= t.cfg.SeaLevel {
			return w.finish(ReachedSea, -1), nil
		}

		if _, next, ok := steepest(t.elev, t.topo, cur, t.cfg.Diagonal); ok {
			w.step(next)
			cur = next
			continue
		}

		target, ok := t.findLower(cur)
		if !ok {
			return w.finish(BecameLake, -1), nil
		}
		route, err := t.finder.FindPath(cur, target)
		if err != nil {
			slog.Debug("no route to lower ground", "from", cur, "to", target, "error", err)
			return w.finish(BecameLake, -1), nil
		}
		for _, p := range route.Nodes {
			w.step(p)
			if ref, ok := t.cells[t.topo.Index(p)]; ok {
				return t.splice(w, ref), nil
			}
		}
		cur = target
	}
}

// splice appends the river suffix starting at ref and ends the walk.
func (t *Tracer) splice(w *walk, ref riverRef) Trace {
	for _, p := range t.rivers[ref.river][ref.pos:] {
		w.step(p)
	}
	return w.finish(Merged, ref.river)
}

// mergeTarget checks p itself, then its eight neighbours in grid.All order,
// against the registered rivers.
func (t *Tracer) mergeTarget(p grid.Point) (riverRef, bool) {
	if ref, ok := t.cells[t.topo.Index(p)]; ok {
		return ref, true
	}
	for _, d := range grid.All {
		q, ok := t.topo.Normalize(p.Add(d))
		if !ok {
			continue
		}
		if ref, ok := t.cells[t.topo.Index(q)]; ok {
			return ref, true
		}
	}
	return riverRef{}, false
}

// findLower searches growing circles around p for a strictly lower cell. The
// first radius that holds any lower cell returns the lowest of them. Inner
// radii were already searched, so each pass only visits the new ring.
func (t *Tracer) findLower(p grid.Point) (grid.Point, bool) {
	lowest := t.elev.At(p)
	var dest grid.Point
	found := false
	for r := 1; r <= t.cfg.SearchRadius && !found; r++ {
		inner := (r - 1) * (r - 1)
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				d2 := dx*dx + dy*dy
				if d2 > r*r || d2 <= inner {
					continue
				}
				q, ok := t.topo.Normalize(grid.Point{X: p.X + dx, Y: p.Y + dy})
				if !ok {
					continue
				}
				if e := t.elev.At(q); e < lowest {
					lowest = e
					dest = q
					found = true
				}
			}
		}
	}
	return dest, found
}

// walk builds a loop-free path: stepping onto a cell already on the path
// cuts the path back to that cell.
type walk struct {
	topo   grid.Topology
	source grid.Point
	path   []grid.Point
	index  map[int]int
}

func newWalk(topo grid.Topology, source grid.Point) *walk {
	w := &walk{topo: topo, source: source, index: make(map[int]int)}
	w.step(source)
	return w
}

func (w *walk) step(p grid.Point) {
	id := w.topo.Index(p)
	if at, ok := w.index[id]; ok {
		for _, q := range w.path[at+1:] {
			delete(w.index, w.topo.Index(q))
		}
		w.path = w.path[:at+1]
		return
	}
	w.index[id] = len(w.path)
	w.path = append(w.path, p)
}

func (w *walk) finish(o Outcome, mergedInto int) Trace {
	return Trace{Source: w.source, Path: w.path, Outcome: o, MergedInto: mergedInto}
}
