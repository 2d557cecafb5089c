// Command worldsynth generates a terrain, runs the river and lake simulation
// over it and stores the result.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/psi29a/worldsynth/internal/hydrology"
	"github.com/psi29a/worldsynth/internal/persistence"
	"github.com/psi29a/worldsynth/internal/world"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("worldsynth", flag.ContinueOnError)
	dbPath := fs.String("db", envOrDefault("WORLDSYNTH_DB", "data/worldsynth.db"), "SQLite file for results (empty to skip saving)")
	seed := fs.Int64("seed", int64(envIntOrDefault("WORLDSYNTH_SEED", 42)), "world seed (0 = random)")
	width := fs.Int("width", 256, "map width in cells")
	height := fs.Int("height", 256, "map height in cells")
	wrap := fs.Bool("wrap", true, "toroidal world")
	useRain := fs.Bool("rain", true, "seed rivers from accumulated rainfall")
	level := fs.String("log-level", envOrDefault("WORLDSYNTH_LOG_LEVEL", "info"), "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	slog.SetDefault(newLogger(os.Stderr, parseLevel(*level)))

	// ── Terrain ───────────────────────────────────────────────────────
	genCfg := world.DefaultGenConfig()
	genCfg.Width, genCfg.Height = *width, *height
	genCfg.Seed = *seed
	genCfg.Wrap = *wrap

	slog.Info("generating terrain...", "width", genCfg.Width, "height", genCfg.Height, "wrap", genCfg.Wrap)
	terrain, err := world.Generate(genCfg)
	if err != nil {
		slog.Error("terrain generation failed", "error", err)
		return 1
	}

	// ── Hydrology ─────────────────────────────────────────────────────
	cfg := hydrology.DefaultConfig()
	cfg.Wrap = genCfg.Wrap
	cfg.SeaLevel = genCfg.SeaLevel
	cfg.Mountain = genCfg.MountainLvl
	cfg.Seed = terrain.Seed

	rainfall := terrain.Rainfall
	if !*useRain {
		rainfall = nil
	}

	start := time.Now()
	res, err := hydrology.Run(terrain.Elevation, rainfall, cfg, hydrology.WithProgress(func(m hydrology.Milestone) {
		slog.Info("hydrology", "milestone", m.String(), "elapsed", time.Since(start).Round(time.Millisecond))
	}))
	if err != nil {
		slog.Error("hydrology failed", "error", err)
		return 1
	}

	terrainMap, err := world.Classify(&world.Terrain{
		Elevation:   res.Elevation,
		Rainfall:    terrain.Rainfall,
		Temperature: terrain.Temperature,
	}, res.Rivers, res.Lakes, genCfg)
	if err != nil {
		slog.Error("classification failed", "error", err)
		return 1
	}
	for t, c := range world.TerrainCounts(terrainMap) {
		slog.Info("terrain", "type", world.TerrainName(t), "count", c)
	}

	s := res.Stats()
	fmt.Printf("\n%s cells, %s sources: %d reached the sea, %d merged, %d became lakes.\n",
		humanize.Comma(int64(len(res.Elevation.Values))), humanize.Comma(int64(s.Sources)),
		s.ReachedSea, s.Merged, s.BecameLake)
	fmt.Printf("River cells: %s  Lake cells: %s  Material removed: %.3f\n",
		humanize.Comma(int64(s.RiverCells)), humanize.Comma(int64(s.LakeCells)), s.TotalErosion)

	// ── Database ──────────────────────────────────────────────────────
	if *dbPath == "" {
		return 0
	}
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		return 1
	}
	db, err := persistence.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		return 1
	}
	defer db.Close()

	id, err := db.SaveRun(&persistence.Run{Seed: terrain.Seed, Config: cfg, Result: res})
	if err != nil {
		slog.Error("save failed", "error", err)
		return 1
	}
	if err := db.SaveMeta("last_run", id); err != nil {
		slog.Error("save meta failed", "error", err)
	}

	if info, err := os.Stat(*dbPath); err == nil {
		fmt.Printf("Saved run %s to %s (%s)\n", id, *dbPath, humanize.Bytes(uint64(info.Size())))
	}
	return 0
}

// newLogger writes text to a terminal and JSON everywhere else.
func newLogger(f *os.File, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return slog.New(slog.NewTextHandler(f, opts))
	}
	return slog.New(slog.NewJSONHandler(f, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
