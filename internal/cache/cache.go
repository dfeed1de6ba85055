// # internal/cache/cache.go

// Package cache persists per-output fingerprints between runs so unchanged
// generated files are not rewritten. Keys are output-relative file names;
// the input hash covers the parsed class, the catalog fingerprint and the
// generation policy.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Entry is one cached output record.
type Entry struct {
	Path       string
	InputHash  string
	OutputHash string
	RunID      string
	UpdatedAt  time.Time
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Hash fingerprints a byte slice for use as an input or output hash.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("cache path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("cache path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite cache %q: %w", cleanPath, err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS outputs (
  path TEXT PRIMARY KEY,
  input_hash TEXT NOT NULL,
  output_hash TEXT NOT NULL,
  run_id TEXT NOT NULL DEFAULT '',
  updated_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
CREATE INDEX IF NOT EXISTS idx_outputs_run_id ON outputs(run_id);
`)
	if err != nil {
		return fmt.Errorf("create outputs table: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Lookup reports the stored entry for an output path, if any.
func (s *Store) Lookup(path string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		e     Entry
		tsRaw string
	)
	err := s.withRetry("lookup output", func() error {
		row := s.db.QueryRow(
			`SELECT path, input_hash, output_hash, run_id, updated_at_utc FROM outputs WHERE path = ?`,
			path,
		)
		return row.Scan(&e.Path, &e.InputHash, &e.OutputHash, &e.RunID, &tsRaw)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	if ts, perr := time.Parse(time.RFC3339Nano, tsRaw); perr == nil {
		e.UpdatedAt = ts
	}
	return e, true, nil
}

// Fresh reports whether the stored entry for path matches inputHash, meaning
// the output on disk is already current.
func (s *Store) Fresh(path, inputHash string) (bool, error) {
	e, ok, err := s.Lookup(path)
	if err != nil || !ok {
		return false, err
	}
	return e.InputHash == inputHash, nil
}

// Record upserts the entry for one written output.
func (s *Store) Record(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}
	return s.withRetry("record output", func() error {
		_, err := s.db.Exec(`
INSERT INTO outputs (path, input_hash, output_hash, run_id, updated_at_utc)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
  input_hash=excluded.input_hash,
  output_hash=excluded.output_hash,
  run_id=excluded.run_id,
  updated_at_utc=excluded.updated_at_utc
`,
			e.Path, e.InputHash, e.OutputHash, e.RunID, e.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		return err
	})
}

// Stale returns the cached output paths that were not touched by runID.
// The caller uses them to sweep orphaned files after classes disappear.
func (s *Store) Stale(runID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("list stale outputs", func() error {
		var qErr error
		rows, qErr = s.db.Query(`SELECT path FROM outputs WHERE run_id != ? ORDER BY path`, runID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan stale output: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Forget drops the entry for one output path.
func (s *Store) Forget(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("forget output", func() error {
		_, err := s.db.Exec(`DELETE FROM outputs WHERE path = ?`, path)
		return err
	})
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
