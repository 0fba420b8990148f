// ============================================================================
// lox - Lox language front end
// ============================================================================
//
// Package:     store
// Description: SQLite persistence for analysis runs, their diagnostics and
//              application logs
// Author:      msto63
// Created:     2025-12-06
// Modified:    2026-10-19
// License:     MIT
// ============================================================================

package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	mdwerror "github.com/msto63/lox/foundation/core/error"
	mdwdiag "github.com/msto63/lox/foundation/lox/diag"
	"github.com/msto63/lox/foundation/utils/stringx"
	"github.com/msto63/lox/pkg/core/logging"
)

// RunKind identifies the pipeline a run went through
type RunKind string

const (
	RunKindScan  RunKind = "scan"
	RunKindParse RunKind = "parse"
)

// previewLength is the number of source characters kept per run
const previewLength = 80

// Run is one recorded scan or parse
type Run struct {
	ID          string               `json:"id" yaml:"id"`
	Kind        RunKind              `json:"kind" yaml:"kind"`
	Timestamp   time.Time            `json:"timestamp" yaml:"timestamp"`
	Origin      string               `json:"origin" yaml:"origin"`
	RequestID   string               `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	SourceHash  string               `json:"source_hash" yaml:"source_hash"`
	SourceBytes int                  `json:"source_bytes" yaml:"source_bytes"`
	Preview     string               `json:"preview" yaml:"preview"`
	TokenCount  int                  `json:"token_count" yaml:"token_count"`
	OK          bool                 `json:"ok" yaml:"ok"`
	Duration    time.Duration        `json:"duration" yaml:"duration"`
	Diagnostics []mdwdiag.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// NewRun fills the identity and source-derived fields of a run
func NewRun(kind RunKind, origin, source string) *Run {
	return &Run{
		ID:          uuid.New().String(),
		Kind:        kind,
		Timestamp:   time.Now().UTC(),
		Origin:      origin,
		SourceHash:  HashSource(source),
		SourceBytes: len(source),
		Preview:     stringx.Truncate(source, previewLength, "..."),
	}
}

// HashSource returns the hex SHA-256 of source
func HashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// RunFilter defines criteria for listing runs
type RunFilter struct {
	Kind       RunKind
	Origin     string
	FailedOnly bool
	Limit      int
}

// LogEntry is one stored log line
type LogEntry struct {
	ID        int64                  `json:"id" yaml:"id"`
	Timestamp time.Time              `json:"timestamp" yaml:"timestamp"`
	Level     string                 `json:"level" yaml:"level"`
	Logger    string                 `json:"logger,omitempty" yaml:"logger,omitempty"`
	Message   string                 `json:"message" yaml:"message"`
	Error     string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// LogFilter defines criteria for filtering logs
type LogFilter struct {
	Level  string
	Logger string
	Since  time.Time
	Limit  int
}

// Stats summarizes the store contents
type Stats struct {
	Runs        int64 `json:"runs" yaml:"runs"`
	FailedRuns  int64 `json:"failed_runs" yaml:"failed_runs"`
	Diagnostics int64 `json:"diagnostics" yaml:"diagnostics"`
	Logs        int64 `json:"logs" yaml:"logs"`
}

// Config holds configuration for the SQLite store
type Config struct {
	Path string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Path: "./data/lox-history.db",
	}
}

// Store persists runs and logs in SQLite. Safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens the database at cfg.Path
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, mdwerror.New("store path is empty").WithCode(mdwerror.CodeConfigError)
	}

	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, storageError(err, "failed to create directory")
	}

	// Open database with WAL mode
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, storageError(err, "failed to open database")
	}

	s := &Store{db: db}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, storageError(err, "failed to initialize schema")
	}

	return s, nil
}

func storageError(err error, msg string) error {
	return mdwerror.Wrap(err, msg).WithCode(mdwerror.CodeStorageError)
}

// initSchema creates the necessary tables
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		origin TEXT NOT NULL,
		request_id TEXT,
		source_hash TEXT NOT NULL,
		source_bytes INTEGER NOT NULL,
		preview TEXT NOT NULL,
		token_count INTEGER NOT NULL,
		ok INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS diagnostics (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		phase TEXT NOT NULL,
		line INTEGER NOT NULL,
		location TEXT NOT NULL,
		message TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE TABLE IF NOT EXISTS logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		level TEXT NOT NULL,
		logger TEXT,
		message TEXT NOT NULL,
		error TEXT,
		fields TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
	CREATE INDEX IF NOT EXISTS idx_runs_source_hash ON runs(source_hash);
	CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON logs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_logs_level ON logs(level);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordRun stores a run together with its diagnostics
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if run == nil {
		return mdwerror.New("run is nil").WithCode(mdwerror.CodeInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, kind, timestamp, origin, request_id, source_hash, source_bytes,
			preview, token_count, ok, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, string(run.Kind), run.Timestamp, run.Origin, run.RequestID, run.SourceHash,
		run.SourceBytes, run.Preview, run.TokenCount, run.OK, int64(run.Duration))
	if err != nil {
		return storageError(err, "failed to insert run")
	}

	if len(run.Diagnostics) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO diagnostics (run_id, seq, phase, line, location, message)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return storageError(err, "failed to prepare statement")
		}
		defer stmt.Close()

		for i, d := range run.Diagnostics {
			if _, err := stmt.ExecContext(ctx, run.ID, i, string(d.Phase), d.Line, d.Where, d.Message); err != nil {
				return storageError(err, "failed to insert diagnostic")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return storageError(err, "failed to commit transaction")
	}

	return nil
}

// GetRun loads a single run by ID
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, runColumns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, mdwerror.Newf("run %s not found", id).WithCode(mdwerror.CodeNotFound)
	}
	if err != nil {
		return nil, storageError(err, "failed to load run")
	}

	if err := s.loadDiagnostics(ctx, []*Run{run}); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs newest first
func (s *Store) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := runColumns + ` WHERE 1=1`
	var args []interface{}

	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	if filter.Origin != "" {
		query += " AND origin = ?"
		args = append(args, filter.Origin)
	}
	if filter.FailedOnly {
		query += " AND ok = 0"
	}

	query += " ORDER BY timestamp DESC, rowid DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, storageError(err, "failed to scan run")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err, "failed to iterate runs")
	}

	if err := s.loadDiagnostics(ctx, runs); err != nil {
		return nil, err
	}
	return runs, nil
}

const runColumns = `SELECT id, kind, timestamp, origin, request_id, source_hash, source_bytes,
	preview, token_count, ok, duration_ns FROM runs`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var kind string
	var requestID sql.NullString
	var durationNS int64

	if err := row.Scan(&run.ID, &kind, &run.Timestamp, &run.Origin, &requestID, &run.SourceHash,
		&run.SourceBytes, &run.Preview, &run.TokenCount, &run.OK, &durationNS); err != nil {
		return nil, err
	}

	run.Kind = RunKind(kind)
	run.Duration = time.Duration(durationNS)
	if requestID.Valid {
		run.RequestID = requestID.String
	}
	return &run, nil
}

// loadDiagnostics attaches stored diagnostics to runs; caller holds the lock
func (s *Store) loadDiagnostics(ctx context.Context, runs []*Run) error {
	for _, run := range runs {
		rows, err := s.db.QueryContext(ctx, `
			SELECT phase, line, location, message FROM diagnostics
			WHERE run_id = ? ORDER BY seq ASC
		`, run.ID)
		if err != nil {
			return storageError(err, "failed to query diagnostics")
		}

		for rows.Next() {
			var d mdwdiag.Diagnostic
			var phase string
			if err := rows.Scan(&phase, &d.Line, &d.Where, &d.Message); err != nil {
				rows.Close()
				return storageError(err, "failed to scan diagnostic")
			}
			d.Phase = mdwdiag.Phase(phase)
			run.Diagnostics = append(run.Diagnostics, d)
		}
		rows.Close()
	}
	return nil
}

// AppendLogs stores a batch of log records. It implements logging.LogSink.
func (s *Store) AppendLogs(ctx context.Context, records []logging.LogRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO logs (timestamp, level, logger, message, error, fields)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, storageError(err, "failed to prepare statement")
	}
	defer stmt.Close()

	var accepted int
	for _, rec := range records {
		ts := rec.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}

		var fieldsJSON []byte
		if len(rec.Fields) > 0 {
			fieldsJSON, _ = json.Marshal(rec.Fields)
		}

		if _, err := stmt.ExecContext(ctx, ts.UTC(), rec.Level, rec.Logger, rec.Message, rec.Error, fieldsJSON); err == nil {
			accepted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, storageError(err, "failed to commit transaction")
	}

	return accepted, nil
}

// ListLogs retrieves log entries newest first
func (s *Store) ListLogs(ctx context.Context, filter LogFilter) ([]*LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, timestamp, level, logger, message, error, fields FROM logs WHERE 1=1`
	var args []interface{}

	if filter.Level != "" {
		query += " AND level = ?"
		args = append(args, filter.Level)
	}
	if filter.Logger != "" {
		query += " AND logger = ?"
		args = append(args, filter.Logger)
	}
	if !filter.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since.UTC())
	}

	query += " ORDER BY timestamp DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError(err, "failed to query logs")
	}
	defer rows.Close()

	var entries []*LogEntry
	for rows.Next() {
		var entry LogEntry
		var logger, errText, fieldsJSON sql.NullString

		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Level, &logger,
			&entry.Message, &errText, &fieldsJSON); err != nil {
			return nil, storageError(err, "failed to scan log entry")
		}

		entry.Logger = logger.String
		entry.Error = errText.String
		if fieldsJSON.Valid && fieldsJSON.String != "" {
			_ = json.Unmarshal([]byte(fieldsJSON.String), &entry.Fields)
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// Stats counts the stored rows
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM runs),
			(SELECT COUNT(*) FROM runs WHERE ok = 0),
			(SELECT COUNT(*) FROM diagnostics),
			(SELECT COUNT(*) FROM logs)
	`).Scan(&st.Runs, &st.FailedRuns, &st.Diagnostics, &st.Logs)
	if err != nil {
		return Stats{}, storageError(err, "failed to read stats")
	}
	return st, nil
}

// Prune deletes runs and logs older than the given age. Returns the
// number of deleted rows.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)

	var total int64
	for _, stmt := range []string{
		`DELETE FROM runs WHERE timestamp < ?`,
		`DELETE FROM logs WHERE timestamp < ?`,
	} {
		res, err := s.db.ExecContext(ctx, stmt, cutoff)
		if err != nil {
			return total, storageError(err, "failed to prune")
		}
		n, _ := res.RowsAffected()
		total += n
	}

	return total, nil
}

// Vacuum compacts the database file
func (s *Store) Vacuum(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
