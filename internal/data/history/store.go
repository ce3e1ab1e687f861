package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName         = "sqlite"
	maxAttempts        = 5
	defaultBusyTimeout = 2 * time.Second
)

// Store persists runs in a single sqlite file. One connection, WAL and
// busy_timeout keep watch-mode writers and API readers from tripping
// over each other.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	return OpenWithTimeout(path, defaultBusyTimeout)
}

// OpenWithTimeout opens the store with an explicit sqlite busy_timeout,
// typically taken from the db config section.
func OpenWithTimeout(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id must not be empty")
	}
	run.Project = strings.TrimSpace(run.Project)
	if run.Project == "" {
		run.Project = "default"
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	query := `
INSERT INTO runs (
  project, id, schema_version, started_at_utc, duration_ms, file_count, symbol_count,
  import_count, edge_count, unresolved_count, diagnostic_count, cycle_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(project, id) DO UPDATE SET
  schema_version=excluded.schema_version,
  started_at_utc=excluded.started_at_utc,
  duration_ms=excluded.duration_ms,
  file_count=excluded.file_count,
  symbol_count=excluded.symbol_count,
  import_count=excluded.import_count,
  edge_count=excluded.edge_count,
  unresolved_count=excluded.unresolved_count,
  diagnostic_count=excluded.diagnostic_count,
  cycle_count=excluded.cycle_count
`
	return s.withRetry("save run", func() error {
		_, err := s.db.ExecContext(
			ctx,
			query,
			run.Project,
			run.ID,
			SchemaVersion,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.Duration.Milliseconds(),
			run.Files,
			run.Symbols,
			run.Imports,
			run.Edges,
			run.Unresolved,
			run.Diagnostics,
			run.Cycles,
		)
		return err
	})
}

// Trend returns the project's runs since the given time, oldest first.
func (s *Store) Trend(ctx context.Context, project string, since time.Time) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project = strings.TrimSpace(project)
	if project == "" {
		project = "default"
	}

	query := `
SELECT
  project, id, started_at_utc, duration_ms, file_count, symbol_count,
  import_count, edge_count, unresolved_count, diagnostic_count, cycle_count
FROM runs
 WHERE project = ?`
	args := make([]any, 0, 2)
	args = append(args, project)
	if !since.IsZero() {
		query += " AND started_at_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY started_at_utc ASC, id ASC"

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			startedRaw string
			durationMS int64
			run        Run
		)
		if err := rows.Scan(
			&run.Project,
			&run.ID,
			&startedRaw,
			&durationMS,
			&run.Files,
			&run.Symbols,
			&run.Imports,
			&run.Edges,
			&run.Unresolved,
			&run.Diagnostics,
			&run.Cycles,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		started, err := time.Parse(time.RFC3339Nano, startedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", startedRaw, err)
		}
		run.StartedAt = started.UTC()
		run.Duration = time.Duration(durationMS) * time.Millisecond

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
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

// IsCorruptError reports whether err indicates an unreadable sqlite
// file. Callers may delete the file and reopen a fresh store.
func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}
