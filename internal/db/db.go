// Package db persists analysis runs in a local sqlite database.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/roughness.report/internal/analysis"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if necessary) the results database at path and
// ensures the baseline schema exists. Schema evolution beyond the baseline
// is handled by the migrate commands.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS surface_runs (
			run_id             TEXT PRIMARY KEY,
			filename           TEXT NOT NULL,
			nx                 INTEGER NOT NULL,
			ny                 INTEGER NOT NULL,
			dx                 DOUBLE NOT NULL,
			dy                 DOUBLE NOT NULL,
			plane_a            DOUBLE NOT NULL,
			plane_b            DOUBLE NOT NULL,
			plane_c            DOUBLE NOT NULL,
			sa                 DOUBLE NOT NULL,
			sq                 DOUBLE NOT NULL,
			sz                 DOUBLE NOT NULL,
			sp                 DOUBLE NOT NULL,
			sv                 DOUBLE NOT NULL,
			ssk                DOUBLE NOT NULL,
			sku                DOUBLE NOT NULL,
			degenerate_moments INTEGER NOT NULL DEFAULT 0,
			created_unix_nanos INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS surface_runs_created
			ON surface_runs (created_unix_nanos DESC);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// RecordRun inserts one analysis result.
func (db *DB) RecordRun(res *analysis.Result) error {
	degenerate := 0
	if res.DegenerateMoments {
		degenerate = 1
	}
	_, err := db.Exec(`
		INSERT INTO surface_runs (
			run_id, filename, nx, ny, dx, dy,
			plane_a, plane_b, plane_c,
			sa, sq, sz, sp, sv, ssk, sku,
			degenerate_moments, created_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Filename, res.Nx, res.Ny, res.Dx, res.Dy,
		res.PlaneA, res.PlaneB, res.PlaneC,
		res.Sa, res.Sq, res.Sz, res.Sp, res.Sv, res.Ssk, res.Sku,
		degenerate, res.CreatedUnixNanos,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", res.RunID, err)
	}
	return nil
}

const runColumns = `run_id, filename, nx, ny, dx, dy,
	plane_a, plane_b, plane_c,
	sa, sq, sz, sp, sv, ssk, sku,
	degenerate_moments, created_unix_nanos`

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]analysis.Result, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT `+runColumns+`
		FROM surface_runs
		ORDER BY created_unix_nanos DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var results []analysis.Result
	for rows.Next() {
		res, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// GetRun returns a single run by id, or sql.ErrNoRows if absent.
func (db *DB) GetRun(runID string) (*analysis.Result, error) {
	row := db.QueryRow(`
		SELECT `+runColumns+`
		FROM surface_runs
		WHERE run_id = ?`, runID)
	return scanRun(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*analysis.Result, error) {
	var res analysis.Result
	var degenerate int
	err := row.Scan(
		&res.RunID, &res.Filename, &res.Nx, &res.Ny, &res.Dx, &res.Dy,
		&res.PlaneA, &res.PlaneB, &res.PlaneC,
		&res.Sa, &res.Sq, &res.Sz, &res.Sp, &res.Sv, &res.Ssk, &res.Sku,
		&degenerate, &res.CreatedUnixNanos,
	)
	if err != nil {
		return nil, err
	}
	res.DegenerateMoments = degenerate != 0
	return &res, nil
}
