package astar

import (
	"container/heap"
	"fmt"

	"github.com/psi29a/worldsynth/internal/grid"
)

// Finder runs A* searches over one elevation field. The field is read, never
// written; a Finder sees later changes to it.
type Finder struct {
	field   *grid.Field
	topo    grid.Topology
	options Options
}

// New returns a Finder over field using topo for bounds and wrapping.
func New(field *grid.Field, topo grid.Topology, opts ...Option) *Finder {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Finder{field: field, topo: topo, options: cfg}
}

// Options returns the finder's configuration.
func (f *Finder) Options() Options {
	return f.options
}

// FindPath returns the least-cost route from start to goal.
//
// Returns ErrOutOfBounds, ErrImpassable or ErrNoPath (wrapped with the number
// of expansions) when no route is produced. start == goal yields an empty
// path with zero cost.
func (f *Finder) FindPath(start, goal grid.Point) (*Path, error) {
	s, ok := f.topo.Normalize(start)
	if !ok {
		return nil, fmt.Errorf("%w: start %s", ErrOutOfBounds, start)
	}
	g, ok := f.topo.Normalize(goal)
	if !ok {
		return nil, fmt.Errorf("%w: goal %s", ErrOutOfBounds, goal)
	}
	if s == g {
		return &Path{}, nil
	}
	if f.field.At(s) >= f.options.Impassable {
		return nil, fmt.Errorf("%w: %s elevation %.3f", ErrImpassable, s, f.field.At(s))
	}

	r := &search{
		f:        f,
		goal:     g,
		openBest: make(map[int]int),
		closed:   make(map[int]bool),
	}
	r.push(f.topo.Index(s), 0, -1)
	return r.run()
}

// node is one arena entry. parent indexes the arena; -1 marks the start.
type node struct {
	id     int
	cost   float64
	score  float64
	parent int
}

// search holds the state of a single FindPath call.
type search struct {
	f          *Finder
	goal       grid.Point
	arena      []node
	open       openHeap
	openBest   map[int]int // cell id → arena index of its live open node
	closed     map[int]bool
	seq        uint64
	expansions int
}

func (r *search) push(id int, cost float64, parent int) {
	p := r.f.topo.PointAt(id)
	n := node{
		id:     id,
		cost:   cost,
		score:  cost + float64(r.f.topo.Manhattan(p, r.goal)),
		parent: parent,
	}
	r.arena = append(r.arena, n)
	idx := len(r.arena) - 1
	r.openBest[id] = idx
	heap.Push(&r.open, openItem{node: idx, score: n.score, seq: r.seq})
	r.seq++
}

func (r *search) run() (*Path, error) {
	topo := r.f.topo
	field := r.f.field
	for r.open.Len() > 0 {
		item := heap.Pop(&r.open).(openItem)
		cur := r.arena[item.node]
		if r.closed[cur.id] || r.openBest[cur.id] != item.node {
			continue // stale entry
		}
		if r.expansions >= r.f.options.MaxExpansions {
			break
		}
		r.expansions++
		delete(r.openBest, cur.id)
		r.closed[cur.id] = true

		for _, q := range topo.Neighbors(topo.PointAt(cur.id), grid.Plus) {
			e := field.At(q)
			if e >= r.f.options.Impassable {
				continue
			}
			cost := cur.cost + e
			if q == r.goal {
				r.arena = append(r.arena, node{id: topo.Index(q), cost: cost, parent: item.node})
				return r.trace(len(r.arena) - 1), nil
			}
			qid := topo.Index(q)
			if r.closed[qid] {
				continue
			}
			if oi, ok := r.openBest[qid]; ok && cost >= r.arena[oi].cost {
				continue
			}
			r.push(qid, cost, item.node)
		}
	}
	return nil, fmt.Errorf("%w after %d expansions", ErrNoPath, r.expansions)
}

// trace walks parent indices back from the goal, dropping the start node.
func (r *search) trace(goal int) *Path {
	var rev []grid.Point
	for i := goal; r.arena[i].parent != -1; i = r.arena[i].parent {
		rev = append(rev, r.f.topo.PointAt(r.arena[i].id))
	}
	nodes := make([]grid.Point, len(rev))
	for i, p := range rev {
		nodes[len(rev)-1-i] = p
	}
	return &Path{Nodes: nodes, Cost: r.arena[goal].cost, Expansions: r.expansions}
}

// openItem is a heap entry pointing into the arena.
type openItem struct {
	node  int
	score float64
	seq   uint64
}

// openHeap orders by score, then by insertion so the earliest node wins ties.
type openHeap []openItem

func (h openHeap) Len() int { return len(h) }

func (h openHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score < h[j].score
	}
	return h[i].seq < h[j].seq
}

func (h openHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *openHeap) Push(x any) { *h = append(*h, x.(openItem)) }

func (h *openHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
