// World generation using layered simplex noise.
// Generates elevation, rainfall and temperature fields on a rectangular grid.
package world

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/floats"

	"github.com/psi29a/worldsynth/internal/grid"
)

// ErrBadSize indicates a generation request without cells.
var ErrBadSize = errors.New("world: width and height must be positive")

// GenConfig holds world generation parameters.
type GenConfig struct {
	Width       int     // Cells along x
	Height      int     // Cells along y
	Seed        int64   // Random seed (0 = random)
	Wrap        bool    // Seamless torus: noise tiles and no ocean border
	SeaLevel    float64 // Elevation threshold for ocean (0.0–1.0)
	MountainLvl float64 // Elevation threshold for mountains (0.0–1.0)
	Octaves     int     // Noise layers for elevation
	Frequency   float64 // Base noise frequency in cycles per cell
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:       256,
		Height:      256,
		Seed:        0,
		Wrap:        true,
		SeaLevel:    0.333,
		MountainLvl: 0.9,
		Octaves:     6,
		Frequency:   0.012,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:       48,
		Height:      32,
		Seed:        42,
		Wrap:        false,
		SeaLevel:    0.333,
		MountainLvl: 0.9,
		Octaves:     4,
		Frequency:   0.05,
	}
}

// Terrain holds the generated climate layers. Every field is normalised to
// [0,1].
type Terrain struct {
	Seed        int64
	Elevation   *grid.Field
	Rainfall    *grid.Field
	Temperature *grid.Field
}

// Generate creates elevation, rainfall and temperature fields.
func Generate(cfg GenConfig) (*Terrain, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadSize, cfg.Width, cfg.Height)
	}
	if cfg.Octaves <= 0 {
		cfg.Octaves = 1
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	// Three noise generators for independent layers.
	elevNoise := opensimplex.NewNormalized(seed)
	rainNoise := opensimplex.NewNormalized(seed + 1)
	tempNoise := opensimplex.NewNormalized(seed + 2)

	t := &Terrain{
		Seed:        seed,
		Elevation:   grid.NewField(cfg.Width, cfg.Height),
		Rainfall:    grid.NewField(cfg.Width, cfg.Height),
		Temperature: grid.NewField(cfg.Width, cfg.Height),
	}

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			p := grid.Point{X: x, Y: y}
			t.Elevation.Set(p, sample(elevNoise, cfg, x, y, cfg.Octaves, cfg.Frequency))
			t.Rainfall.Set(p, sample(rainNoise, cfg, x, y, 3, cfg.Frequency*0.75))
			t.Temperature.Set(p, sample(tempNoise, cfg, x, y, 3, cfg.Frequency*0.6))
		}
	}
	normalize(t.Elevation)

	// Continental shaping: reduce elevation near edges to create ocean border.
	// A torus has no edges to shape.
	if !cfg.Wrap {
		cx, cy := float64(cfg.Width-1)/2, float64(cfg.Height-1)/2
		for y := 0; y < cfg.Height; y++ {
			for x := 0; x < cfg.Width; x++ {
				dx := (float64(x) - cx) / (cx + 1)
				dy := (float64(y) - cy) / (cy + 1)
				dist := math.Sqrt(dx*dx + dy*dy)
				falloff := 1.0 - math.Pow(dist, 3.5)
				if falloff < 0 {
					falloff = 0
				}
				p := grid.Point{X: x, Y: y}
				t.Elevation.Set(p, t.Elevation.At(p)*falloff)
			}
		}
		// Falloff pulls the peaks down; stretch back so the hill bands exist.
		normalize(t.Elevation)
	}

	// Wetter lowlands, colder highlands and poles.
	for y := 0; y < cfg.Height; y++ {
		lat := math.Abs(2*float64(y)/float64(max(cfg.Height-1, 1)) - 1)
		for x := 0; x < cfg.Width; x++ {
			p := grid.Point{X: x, Y: y}
			elev := t.Elevation.At(p)
			t.Rainfall.Set(p, t.Rainfall.At(p)*0.8+(1.0-elev)*0.2)
			t.Temperature.Set(p, t.Temperature.At(p)*0.6+(1.0-lat)*0.3+(1.0-elev)*0.1)
		}
	}
	normalize(t.Rainfall)
	normalize(t.Temperature)

	return t, nil
}

// sample evaluates octave noise at a cell. Wrapped worlds map each axis onto
// a circle and sample 4D noise so opposite edges match.
func sample(noise opensimplex.Noise, cfg GenConfig, x, y, octaves int, frequency float64) float64 {
	if !cfg.Wrap {
		fx, fy := float64(x), float64(y)
		return octaveNoise(func(f float64) float64 {
			return noise.Eval2(fx*f, fy*f)
		}, octaves, frequency, 0.5)
	}
	rx := float64(cfg.Width) / (2 * math.Pi)
	ry := float64(cfg.Height) / (2 * math.Pi)
	ax := 2 * math.Pi * float64(x) / float64(cfg.Width)
	ay := 2 * math.Pi * float64(y) / float64(cfg.Height)
	a, b := rx*math.Cos(ax), rx*math.Sin(ax)
	c, d := ry*math.Cos(ay), ry*math.Sin(ay)
	return octaveNoise(func(f float64) float64 {
		return noise.Eval4(a*f, b*f, c*f, d*f)
	}, octaves, frequency, 0.5)
}

// octaveNoise generates fractal noise by layering multiple frequencies.
// at evaluates the noise at the given frequency.
func octaveNoise(at func(frequency float64) float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += at(frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// normalize rescales f onto [0,1]. A constant field becomes all zeros.
func normalize(f *grid.Field) {
	lo, hi := floats.Min(f.Values), floats.Max(f.Values)
	span := hi - lo
	if span == 0 {
		for i := range f.Values {
			f.Values[i] = 0
		}
		return
	}
	floats.AddConst(-lo, f.Values)
	for i := range f.Values {
		f.Values[i] /= span
	}
}
