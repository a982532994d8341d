// Package store persists run history: one row per world run, with the
// final report and scheduler counters. SQLite keeps the history local,
// so the CLI works without any external service.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentSchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	scenario      TEXT NOT NULL,
	started_at    TEXT NOT NULL,
	finished_at   TEXT,
	ticks         INTEGER NOT NULL DEFAULT 0,
	actors        INTEGER NOT NULL DEFAULT 0,
	completed     INTEGER NOT NULL DEFAULT 0,
	idle          INTEGER NOT NULL DEFAULT 0,
	events        INTEGER NOT NULL DEFAULT 0,
	edges_refused INTEGER NOT NULL DEFAULT 0,
	done_ticked   INTEGER NOT NULL DEFAULT 0,
	status        TEXT NOT NULL DEFAULT 'ok',
	error         TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_scenario ON runs(scenario);
`

// Run is one recorded world run.
type Run struct {
	ID           int64  `json:"id"`
	Scenario     string `json:"scenario"`
	StartedAt    string `json:"started_at"`
	FinishedAt   string `json:"finished_at,omitempty"`
	Ticks        int    `json:"ticks"`
	Actors       int    `json:"actors"`
	Completed    int    `json:"completed"`
	Idle         int    `json:"idle"`
	Events       int    `json:"events"`
	EdgesRefused int64  `json:"edges_refused"`
	DoneTicked   int64  `json:"done_ticked"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// nullStr converts a sql.NullString to a plain string (empty if null).
func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nilIfEmpty converts an empty string to nil for nullable columns.
func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// SqlStore is the SQLite-backed run history.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		return s.freshInstall()
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		v = currentSchemaVersion
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", v); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}

	if v != currentSchemaVersion {
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

func (s *SqlStore) freshInstall() error {
	if _, err := s.db.Exec(schemaV1); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", currentSchemaVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SqlStore) Close() error {
	return s.db.Close()
}

// --- Runs ---

// SaveRun inserts a run record and returns its id.
func (s *SqlStore) SaveRun(r *Run) (int64, error) {
	if r == nil {
		return 0, errors.New("run is nil")
	}
	if r.StartedAt == "" {
		r.StartedAt = nowUTC()
	}
	if r.Status == "" {
		r.Status = "ok"
	}
	res, err := s.db.Exec(
		`INSERT INTO runs(scenario, started_at, finished_at, ticks, actors, completed,
		                  idle, events, edges_refused, done_ticked, status, error)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Scenario, r.StartedAt, nilIfEmpty(r.FinishedAt), r.Ticks, r.Actors, r.Completed,
		r.Idle, r.Events, r.EdgesRefused, r.DoneTicked, r.Status, nilIfEmpty(r.Error),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// GetRun returns the run by id, or nil when it does not exist.
func (s *SqlStore) GetRun(id int64) (*Run, error) {
	var r Run
	var finishedAt, errMsg sql.NullString
	err := s.db.QueryRow(
		`SELECT id, scenario, started_at, finished_at, ticks, actors, completed,
		        idle, events, edges_refused, done_ticked, status, error
		 FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.Scenario, &r.StartedAt, &finishedAt, &r.Ticks, &r.Actors, &r.Completed,
		&r.Idle, &r.Events, &r.EdgesRefused, &r.DoneTicked, &r.Status, &errMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	r.FinishedAt = nullStr(finishedAt)
	r.Error = nullStr(errMsg)
	return &r, nil
}

// ListRuns returns the most recent runs, newest first. A non-positive
// limit returns up to 20.
func (s *SqlStore) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, scenario, started_at, finished_at, ticks, actors, completed,
		        idle, events, edges_refused, done_ticked, status, error
		 FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var out []*Run
	for rows.Next() {
		var r Run
		var finishedAt, errMsg sql.NullString
		if err := rows.Scan(&r.ID, &r.Scenario, &r.StartedAt, &finishedAt, &r.Ticks, &r.Actors,
			&r.Completed, &r.Idle, &r.Events, &r.EdgesRefused, &r.DoneTicked, &r.Status, &errMsg); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.FinishedAt = nullStr(finishedAt)
		r.Error = nullStr(errMsg)
		out = append(out, &r)
	}
	return out, rows.Err()
}
