package hydrology

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/psi29a/worldsynth/internal/grid"
)

// Milestone marks a coarse stage of a run.
type Milestone uint8

const (
	FlowDirections Milestone = iota + 1 // Direction field computed
	Sources                             // River sources discovered
	RiversTraced                        // Every source traced
	ErosionApplied                      // All accepted rivers carved
	LakesFilled                         // Every lake seed flooded
)

// String returns the milestone name.
func (m Milestone) String() string {
	switch m {
	case FlowDirections:
		return "flow_directions"
	case Sources:
		return "sources"
	case RiversTraced:
		return "rivers_traced"
	case ErosionApplied:
		return "erosion_applied"
	case LakesFilled:
		return "lakes_filled"
	default:
		return "unknown"
	}
}

type runOptions struct {
	progress func(Milestone)
	rng      *rand.Rand
}

// Option customizes a run.
type Option func(*runOptions)

// WithProgress registers a hook called once per milestone, in order.
func WithProgress(fn func(Milestone)) Option {
	return func(o *runOptions) { o.progress = fn }
}

// WithRand replaces the run's random source. Source sampling and bed carving
// draw from it, so a fixed seed gives a repeatable run.
func WithRand(rng *rand.Rand) Option {
	return func(o *runOptions) { o.rng = rng }
}

// Result holds the outputs of a run. Every field has the input's size.
type Result struct {
	Elevation *grid.Field // Eroded working copy
	Rivers    *grid.Field // Flow intensity; 0 means no river
	Lakes     *grid.Field // Depth below the fill threshold; 0 means dry
	Erosion   *grid.Field // Input elevation minus Elevation

	Sources    []grid.Point   // In processing order
	Traces     []Trace        // One per source
	LakeSeeds  []grid.Point   // Deduplicated, in discovery order
	RiverPaths [][]grid.Point // Accepted paths, indexed as Trace.MergedInto
}

// Stats summarises a run.
type Stats struct {
	Sources      int     `json:"sources"`
	ReachedSea   int     `json:"reached_sea"`
	Merged       int     `json:"merged"`
	BecameLake   int     `json:"became_lake"`
	RiverCells   int     `json:"river_cells"`
	LakeCells    int     `json:"lake_cells"`
	TotalErosion float64 `json:"total_erosion"`
}

// Stats counts outcomes and wet cells.
func (r *Result) Stats() Stats {
	s := Stats{Sources: len(r.Sources)}
	for _, t := range r.Traces {
		switch t.Outcome {
		case ReachedSea:
			s.ReachedSea++
		case Merged:
			s.Merged++
		case BecameLake:
			s.BecameLake++
		}
	}
	wet := func(v float64) bool { return v > 0 }
	s.RiverCells = r.Rivers.Count(wet)
	s.LakeCells = r.Lakes.Count(wet)
	s.TotalErosion = r.Erosion.Sum()
	return s
}

// Run simulates rivers, lakes and erosion over elevation. rainfall may be
// nil, in which case sources are sampled from the hill band instead of
// seeded by accumulated flow. Neither input is modified.
func Run(elevation, rainfall *grid.Field, cfg Config, opts ...Option) (*Result, error) {
	if elevation == nil {
		return nil, ErrNilElevation
	}
	if elevation.Empty() {
		return nil, fmt.Errorf("run: %w", grid.ErrEmptyGrid)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rainfall != nil {
		if !rainfall.SameSize(elevation) {
			return nil, fmt.Errorf("run: rainfall %dx%d vs elevation %dx%d: %w",
				rainfall.Width, rainfall.Height, elevation.Width, elevation.Height, grid.ErrSizeMismatch)
		}
		if rainfall.Count(func(v float64) bool { return v < 0 }) > 0 {
			return nil, ErrNegativeRainfall
		}
	}

	o := runOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(cfg.Seed))
	}
	notify := func(m Milestone) {
		if o.progress != nil {
			o.progress(m)
		}
	}

	work := elevation.Clone()
	topo := work.Topology(cfg.Wrap)
	res := &Result{
		Elevation: work,
		Rivers:    grid.NewField(work.Width, work.Height),
		Lakes:     grid.NewField(work.Width, work.Height),
	}

	// Source discovery.
	var flow *grid.Field
	if rainfall != nil {
		dirs := ComputeDirections(work, topo, cfg.Diagonal)
		notify(FlowDirections)
		res.Sources, flow = flowSources(work, rainfall, dirs, topo, cfg)
	} else {
		res.Sources = bandedSources(work, topo, cfg, o.rng)
	}
	notify(Sources)

	local := func(p grid.Point) float64 {
		if rainfall == nil {
			return cfg.BaseFlow
		}
		return rainfall.At(p)
	}
	seedFlow := func(p grid.Point) float64 {
		if flow == nil {
			return cfg.BaseFlow
		}
		return flow.At(p)
	}

	// Tracing and erosion, strictly in source order.
	tracer := NewTracer(work, cfg)
	eroder := NewEroder(work, cfg, o.rng, tracer.OnRiver)
	seeded := make(map[int]bool)
	for _, src := range res.Sources {
		tr, err := tracer.Trace(src)
		if err != nil {
			return nil, fmt.Errorf("trace %s: %w", src, err)
		}
		res.Traces = append(res.Traces, tr)
		slog.Debug("river traced", "source", src, "outcome", tr.Outcome, "length", len(tr.Path))

		if !tr.Outcome.Accepted() {
			seed := tr.Terminus()
			if id := topo.Index(seed); !seeded[id] {
				seeded[id] = true
				res.LakeSeeds = append(res.LakeSeeds, seed)
			}
			continue
		}

		tracer.Register(tr.Path)
		eroder.Erode(tr.Path)
		writeRiver(res.Rivers, tr.Path, seedFlow(tr.Path[0]), local)
	}
	res.RiverPaths = tracer.Rivers()
	notify(RiversTraced)
	notify(ErosionApplied)

	filler := NewLakeFiller(work, res.Lakes, cfg.Wrap)
	for _, seed := range res.LakeSeeds {
		if filler.Flooded(seed) {
			continue
		}
		filler.Fill(seed, work.At(seed)+cfg.LakeEpsilon)
	}
	notify(LakesFilled)

	delta, err := elevation.Sub(work)
	if err != nil {
		return nil, fmt.Errorf("erosion delta: %w", err)
	}
	res.Erosion = delta

	s := res.Stats()
	slog.Info("hydrology complete",
		"sources", s.Sources,
		"reached_sea", s.ReachedSea,
		"merged", s.Merged,
		"lakes", s.BecameLake,
		"river_cells", s.RiverCells,
		"lake_cells", s.LakeCells,
	)
	return res, nil
}

// writeRiver adds one path's flow to the river field. The seed takes the
// accumulated flow and every new cell adds its own rainfall. Cells already
// carrying an earlier river take the tributary's flow on top of their own.
func writeRiver(rivers *grid.Field, path []grid.Point, seed float64, local func(grid.Point) float64) {
	running := seed
	for i, p := range path {
		existing := rivers.At(p)
		if i > 0 && existing == 0 {
			running += local(p)
		}
		rivers.Set(p, existing+running)
	}
}
