package world

import (
	"fmt"

	"github.com/psi29a/worldsynth/internal/grid"
)

// Terrain types for grid cells.
type TerrainType uint8

const (
	TerrainPlains   TerrainType = iota // Temperate lowland
	TerrainForest                      // Wet uplands
	TerrainMountain                    // At or above the mountain line
	TerrainCoast                       // Low land touching the ocean
	TerrainRiver                       // Carries river flow
	TerrainDesert                      // Hot and dry
	TerrainSwamp                       // Waterlogged lowland
	TerrainTundra                      // Frozen
	TerrainOcean                       // At or below sea level
	TerrainLake                        // Flooded basin
)

// TerrainMap holds one terrain type per cell, row-major.
type TerrainMap struct {
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Cells  []TerrainType `json:"cells"`
}

// At returns the terrain at p, or TerrainOcean off the map.
func (m *TerrainMap) At(p grid.Point) TerrainType {
	if p.X < 0 || p.Y < 0 || p.X >= m.Width || p.Y >= m.Height {
		return TerrainOcean
	}
	return m.Cells[p.Y*m.Width+p.X]
}

// String returns a summary of the map.
func (m *TerrainMap) String() string {
	return fmt.Sprintf("TerrainMap(%dx%d)", m.Width, m.Height)
}

// Classify derives a terrain type for every cell from the climate layers and
// the hydrology output. rivers and lakes may be nil.
func Classify(t *Terrain, rivers, lakes *grid.Field, cfg GenConfig) (*TerrainMap, error) {
	elev := t.Elevation
	for _, f := range []*grid.Field{t.Rainfall, t.Temperature, rivers, lakes} {
		if f != nil && !f.SameSize(elev) {
			return nil, fmt.Errorf("classify: %w", grid.ErrSizeMismatch)
		}
	}

	m := &TerrainMap{Width: elev.Width, Height: elev.Height, Cells: make([]TerrainType, len(elev.Values))}
	for id := range m.Cells {
		switch {
		case lakes != nil && lakes.AtIndex(id) > 0:
			m.Cells[id] = TerrainLake
		case elev.AtIndex(id) <= cfg.SeaLevel:
			m.Cells[id] = TerrainOcean
		case rivers != nil && rivers.AtIndex(id) > 0:
			m.Cells[id] = TerrainRiver
		default:
			m.Cells[id] = deriveTerrain(elev.AtIndex(id), t.Rainfall.AtIndex(id), t.Temperature.AtIndex(id), cfg)
		}
	}

	// Post-pass: mark coastal cells (low land adjacent to ocean).
	markCoastalCells(m, elev, cfg.Wrap)
	return m, nil
}

// deriveTerrain determines terrain type from environmental parameters.
func deriveTerrain(elev, rain, temp float64, cfg GenConfig) TerrainType {
	if elev >= cfg.MountainLvl {
		return TerrainMountain
	}
	if temp < 0.25 {
		return TerrainTundra
	}
	if rain < 0.25 && temp > 0.5 {
		return TerrainDesert
	}
	if rain > 0.7 && elev < 0.45 {
		return TerrainSwamp
	}
	if rain > 0.45 && elev > 0.45 {
		return TerrainForest
	}
	return TerrainPlains
}

// markCoastalCells converts low plains and forest next to the ocean into
// coast.
func markCoastalCells(m *TerrainMap, elev *grid.Field, wrap bool) {
	topo := elev.Topology(wrap)
	var toMark []int

	for id, terrain := range m.Cells {
		if terrain != TerrainPlains && terrain != TerrainForest {
			continue
		}
		if elev.AtIndex(id) >= 0.5 {
			continue
		}
		for _, n := range topo.Neighbors(topo.PointAt(id), grid.Plus) {
			if m.Cells[topo.Index(n)] == TerrainOcean {
				toMark = append(toMark, id)
				break
			}
		}
	}

	for _, id := range toMark {
		m.Cells[id] = TerrainCoast
	}
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(m *TerrainMap) map[TerrainType]int {
	counts := make(map[TerrainType]int)
	for _, t := range m.Cells {
		counts[t]++
	}
	return counts
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t TerrainType) string {
	switch t {
	case TerrainPlains:
		return "Plains"
	case TerrainForest:
		return "Forest"
	case TerrainMountain:
		return "Mountain"
	case TerrainCoast:
		return "Coast"
	case TerrainRiver:
		return "River"
	case TerrainDesert:
		return "Desert"
	case TerrainSwamp:
		return "Swamp"
	case TerrainTundra:
		return "Tundra"
	case TerrainOcean:
		return "Ocean"
	case TerrainLake:
		return "Lake"
	default:
		return "Unknown"
	}
}
