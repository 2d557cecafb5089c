// Package astar finds least-cost routes across an elevation field.
//
// The search runs A* over the 4-neighbour cells of a grid.Topology, so on a
// toroidal topology a route may cross the wrap seam like any other edge.
//
// Cost model:
//
//   - Entering a cell costs that cell's elevation; the start cell is free.
//   - Cells whose elevation is at or above the impassable threshold are never
//     expanded and never entered.
//   - The heuristic is the Manhattan distance to the goal (wrapped on a torus).
//
// Ordering:
//
//   - The open set is a min-heap keyed by score = cost + heuristic.
//   - Equal scores are resolved in favour of the node inserted first.
//   - A node reached again with a lower cost is pushed anew; the stale heap
//     entry is discarded when popped ("lazy decrease-key").
//
// Termination:
//
//   - The search ends as soon as a neighbour of the expanded node is the goal.
//   - A hard cap on expansions bounds the run on flat or walled grids; hitting
//     it yields ErrNoPath.
//
// Errors (sentinel):
//
//   - ErrOutOfBounds if start or goal cannot be placed on the topology.
//   - ErrImpassable  if the start cell is at or above the impassable threshold.
//   - ErrNoPath      if the goal was not reached within the cap.
package astar

import (
	"errors"

	"github.com/psi29a/worldsynth/internal/grid"
)

// Sentinel errors returned by FindPath.
var (
	// ErrOutOfBounds indicates a start or goal outside a bounded grid.
	ErrOutOfBounds = errors.New("astar: point outside grid")

	// ErrImpassable indicates the start cell cannot be expanded.
	ErrImpassable = errors.New("astar: start cell is impassable")

	// ErrNoPath indicates the goal was not reached: the open set emptied or
	// the expansion cap was hit.
	ErrNoPath = errors.New("astar: no path found")

	// ErrBadMaxExpansions indicates a non-positive expansion cap.
	ErrBadMaxExpansions = errors.New("astar: MaxExpansions must be positive")
)

// Defaults for Options.
const (
	DefaultImpassable    = 0.9
	DefaultMaxExpansions = 10000
)

// Path is a route returned by FindPath.
type Path struct {
	// Nodes runs from the first step after the start up to and including the goal.
	Nodes []grid.Point
	// Cost is the cumulative entering cost of the goal node.
	Cost float64
	// Expansions is the number of nodes expanded to find the route.
	Expansions int
}

// Options configures a Finder.
//
// Impassable    – cells with elevation ≥ this value are walls.
// MaxExpansions – cap on expanded nodes before giving up. Must be > 0.
type Options struct {
	Impassable    float64
	MaxExpansions int
}

// Option is a functional option for New.
type Option func(*Options)

// WithImpassable sets the wall threshold.
func WithImpassable(threshold float64) Option {
	return func(o *Options) {
		o.Impassable = threshold
	}
}

// WithMaxExpansions sets the expansion cap. Panics on a non-positive cap.
func WithMaxExpansions(n int) Option {
	return func(o *Options) {
		if n <= 0 {
			panic(ErrBadMaxExpansions.Error())
		}
		o.MaxExpansions = n
	}
}

// DefaultOptions returns the thresholds used by the world generator: walls
// at mountain elevation (0.9) and a 10 000 expansion cap.
func DefaultOptions() Options {
	return Options{
		Impassable:    DefaultImpassable,
		MaxExpansions: DefaultMaxExpansions,
	}
}
