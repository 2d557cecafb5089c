// Package persistence provides SQLite-based storage for hydrology runs.
package persistence

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/psi29a/worldsynth/internal/grid"
	"github.com/psi29a/worldsynth/internal/hydrology"
)

// ErrNotFound indicates a missing run, grid or metadata key.
var ErrNotFound = errors.New("persistence: not found")

// Grid names stored per run.
const (
	GridElevation = "elevation"
	GridRivers    = "rivers"
	GridLakes     = "lakes"
	GridErosion   = "erosion"
)

// timeLayout keeps created_at sortable as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		seed INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		wrap INTEGER NOT NULL,
		config_json TEXT NOT NULL,
		sources INTEGER NOT NULL,
		reached_sea INTEGER NOT NULL,
		merged INTEGER NOT NULL,
		became_lake INTEGER NOT NULL,
		river_cells INTEGER NOT NULL,
		lake_cells INTEGER NOT NULL,
		total_erosion REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS grids (
		run_id TEXT NOT NULL REFERENCES runs(id),
		name TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		data BLOB NOT NULL,
		PRIMARY KEY (run_id, name)
	);

	CREATE TABLE IF NOT EXISTS rivers (
		run_id TEXT NOT NULL REFERENCES runs(id),
		idx INTEGER NOT NULL,
		source_x INTEGER NOT NULL,
		source_y INTEGER NOT NULL,
		length INTEGER NOT NULL,
		path_json TEXT NOT NULL,
		PRIMARY KEY (run_id, idx)
	);

	CREATE TABLE IF NOT EXISTS lake_seeds (
		run_id TEXT NOT NULL REFERENCES runs(id),
		idx INTEGER NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		PRIMARY KEY (run_id, idx)
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is one completed hydrology simulation.
type Run struct {
	ID        string // Assigned by SaveRun when empty
	CreatedAt time.Time
	Seed      int64
	Config    hydrology.Config
	Result    *hydrology.Result
}

// RunRecord is the summary row of a stored run.
type RunRecord struct {
	ID           string  `db:"id"`
	CreatedAt    string  `db:"created_at"`
	Seed         int64   `db:"seed"`
	Width        int     `db:"width"`
	Height       int     `db:"height"`
	Wrap         bool    `db:"wrap"`
	ConfigJSON   string  `db:"config_json"`
	Sources      int     `db:"sources"`
	ReachedSea   int     `db:"reached_sea"`
	Merged       int     `db:"merged"`
	BecameLake   int     `db:"became_lake"`
	RiverCells   int     `db:"river_cells"`
	LakeCells    int     `db:"lake_cells"`
	TotalErosion float64 `db:"total_erosion"`
}

// Config decodes the stored simulation parameters.
func (r RunRecord) Config() (hydrology.Config, error) {
	var cfg hydrology.Config
	err := json.Unmarshal([]byte(r.ConfigJSON), &cfg)
	return cfg, err
}

// SaveRun writes a run with its grids, rivers and lake seeds in a single
// transaction and returns the run ID.
func (db *DB) SaveRun(run *Run) (string, error) {
	res := run.Result
	if res == nil || res.Elevation == nil {
		return "", fmt.Errorf("save run: empty result")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	wrap := 0
	if run.Config.Wrap {
		wrap = 1
	}
	cfgJSON, err := json.Marshal(run.Config)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	stats := res.Stats()

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(id, created_at, seed, width, height, wrap, config_json,
		 sources, reached_sea, merged, became_lake, river_cells, lake_cells, total_erosion)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(timeLayout), run.Seed,
		res.Elevation.Width, res.Elevation.Height, wrap, string(cfgJSON),
		stats.Sources, stats.ReachedSea, stats.Merged, stats.BecameLake,
		stats.RiverCells, stats.LakeCells, stats.TotalErosion,
	)
	if err != nil {
		return "", fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	grids := []struct {
		name  string
		field *grid.Field
	}{
		{GridElevation, res.Elevation},
		{GridRivers, res.Rivers},
		{GridLakes, res.Lakes},
		{GridErosion, res.Erosion},
	}
	for _, g := range grids {
		if g.field == nil {
			continue
		}
		_, err := tx.Exec(
			"INSERT INTO grids (run_id, name, width, height, data) VALUES (?, ?, ?, ?, ?)",
			run.ID, g.name, g.field.Width, g.field.Height, encodeField(g.field),
		)
		if err != nil {
			return "", fmt.Errorf("insert grid %s: %w", g.name, err)
		}
	}

	stmt, err := tx.Preparex(`INSERT INTO rivers
		(run_id, idx, source_x, source_y, length, path_json)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i, path := range res.RiverPaths {
		pathJSON, err := json.Marshal(path)
		if err != nil {
			return "", fmt.Errorf("encode river %d: %w", i, err)
		}
		if _, err := stmt.Exec(run.ID, i, path[0].X, path[0].Y, len(path), string(pathJSON)); err != nil {
			return "", fmt.Errorf("insert river %d: %w", i, err)
		}
	}

	for i, seed := range res.LakeSeeds {
		_, err := tx.Exec(
			"INSERT INTO lake_seeds (run_id, idx, x, y) VALUES (?, ?, ?, ?)",
			run.ID, i, seed.X, seed.Y,
		)
		if err != nil {
			return "", fmt.Errorf("insert lake seed %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	slog.Info("run saved", "id", run.ID, "rivers", len(res.RiverPaths), "lakes", len(res.LakeSeeds))
	return run.ID, nil
}

// LoadGrid reads one stored grid of a run.
func (db *DB) LoadGrid(runID, name string) (*grid.Field, error) {
	var row struct {
		Width  int    `db:"width"`
		Height int    `db:"height"`
		Data   []byte `db:"data"`
	}
	err := db.conn.Get(&row, "SELECT width, height, data FROM grids WHERE run_id = ? AND name = ?", runID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("grid %s of run %s: %w", name, runID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeField(row.Width, row.Height, row.Data)
}

// runExists returns ErrNotFound when no run row has the given ID.
func (db *DB) runExists(runID string) error {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM runs WHERE id = ?", runID); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// Rivers reads the stored river paths of a run in registration order.
func (db *DB) Rivers(runID string) ([][]grid.Point, error) {
	if err := db.runExists(runID); err != nil {
		return nil, err
	}
	var rows []string
	err := db.conn.Select(&rows, "SELECT path_json FROM rivers WHERE run_id = ? ORDER BY idx", runID)
	if err != nil {
		return nil, err
	}
	paths := make([][]grid.Point, 0, len(rows))
	for i, raw := range rows {
		var path []grid.Point
		if err := json.Unmarshal([]byte(raw), &path); err != nil {
			return nil, fmt.Errorf("decode river %d: %w", i, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// LakeSeeds reads the stored lake seeds of a run.
func (db *DB) LakeSeeds(runID string) ([]grid.Point, error) {
	if err := db.runExists(runID); err != nil {
		return nil, err
	}
	var seeds []grid.Point
	err := db.conn.Select(&seeds, "SELECT x, y FROM lake_seeds WHERE run_id = ? ORDER BY idx", runID)
	return seeds, err
}

// Runs returns the most recent N runs, newest first. An empty store yields an
// empty slice.
func (db *DB) Runs(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	err := db.conn.Select(&runs, "SELECT * FROM runs ORDER BY created_at DESC LIMIT ?", limit)
	return runs, err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("meta %q: %w", key, ErrNotFound)
	}
	return value, err
}

// encodeField packs values as little-endian float64.
func encodeField(f *grid.Field) []byte {
	buf := make([]byte, 8*len(f.Values))
	for i, v := range f.Values {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

func decodeField(width, height int, data []byte) (*grid.Field, error) {
	if len(data) != 8*width*height {
		return nil, fmt.Errorf("decode grid: %d bytes for %dx%d: %w", len(data), width, height, grid.ErrSizeMismatch)
	}
	f := grid.NewField(width, height)
	for i := range f.Values {
		f.Values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[8*i:]))
	}
	return f, nil
}
