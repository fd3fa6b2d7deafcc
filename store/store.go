// Package store persists processing runs, feature tables, model
// evaluations and filter studies in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("store: run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    kind TEXT NOT NULL,
    source TEXT,
    emission TEXT,
    ab_status TEXT,
    config_path TEXT
);

CREATE TABLE IF NOT EXISTS samples (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id),
    row_index INTEGER NOT NULL,
    label TEXT,
    grp TEXT
);
CREATE INDEX IF NOT EXISTS idx_samples_run ON samples(run_id);

CREATE TABLE IF NOT EXISTS features (
    sample_id INTEGER NOT NULL REFERENCES samples(id),
    name TEXT NOT NULL,
    value REAL,
    PRIMARY KEY (sample_id, name)
);

CREATE TABLE IF NOT EXISTS evaluations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id),
    dataset TEXT NOT NULL,
    model TEXT NOT NULL,
    params TEXT,
    n INTEGER NOT NULL,
    accuracy REAL,
    cv_error REAL,
    sensitivity REAL,
    specificity REAL,
    precision REAL,
    recall REAL,
    f1 REAL,
    auc REAL
);
CREATE INDEX IF NOT EXISTS idx_evaluations_run ON evaluations(run_id);

CREATE TABLE IF NOT EXISTS filter_trials (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id),
    method TEXT NOT NULL,
    params TEXT NOT NULL,
    mse REAL,
    distortion REAL,
    snr REAL,
    spnr REAL,
    pearson_r REAL,
    phase_shift INTEGER,
    error TEXT
);
`

// SQLite is a store backed by one SQLite database.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the database at dsn and ensures the schema. A busy
// timeout is added to the DSN unless it already sets one. logger may be
// nil.
func Open(dsn string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}

	path := dsn
	if i := strings.Index(dsn, "?"); i != -1 {
		path = dsn[:i]
	}
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create database directory: %w", err)
		}
	}

	if !strings.Contains(dsn, "_busy_timeout") {
		if strings.Contains(dsn, "?") {
			dsn += "&_busy_timeout=5000"
		} else {
			dsn += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	// One connection keeps in-memory databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create tables: %w", err)
	}

	logger.Debug("store opened", slog.String("path", path))

	return &SQLite{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Run describes one processing or training invocation.
type Run struct {
	ID         string
	CreatedAt  time.Time
	Kind       string
	Source     string
	Emission   string
	ABStatus   string
	ConfigPath string
}

// CreateRun inserts r with a new id and returns that id.
func (s *SQLite) CreateRun(ctx context.Context, r Run) (string, error) {
	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, source, emission, ab_status, config_path) VALUES (?, ?, ?, ?, ?, ?)`,
		id, r.Kind, r.Source, r.Emission, r.ABStatus, r.ConfigPath)
	if err != nil {
		return "", fmt.Errorf("store: insert run: %w", err)
	}

	s.logger.Info("run created", slog.String("run", id), slog.String("kind", r.Kind))

	return id, nil
}

// GetRun returns the run with id.
func (s *SQLite) GetRun(ctx context.Context, id string) (Run, error) {
	r := Run{ID: id}
	var source, emission, ab, path sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, kind, source, emission, ab_status, config_path FROM runs WHERE id = ?`, id).
		Scan(&r.CreatedAt, &r.Kind, &source, &emission, &ab, &path)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("store: get run: %w", err)
	}

	r.Source, r.Emission, r.ABStatus, r.ConfigPath = source.String, emission.String, ab.String, path.String

	return r, nil
}

// nullable maps NaN and infinities to SQL NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// value maps SQL NULL back to NaN.
func value(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
