// Package db opens and probes the SQLite database handle. The orchestrator
// owns the handle's lifecycle; everything else borrows it.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/datatools-io/batchload/pkg/batchload"
)

// Pool configuration constants.
const (
	// DefaultMaxIdleConns keeps opened connections around for the
	// verification queries that follow ingestion.
	DefaultMaxIdleConns = 1

	// DefaultConnMaxIdleTime bounds how long an idle connection keeps its
	// file handle.
	DefaultConnMaxIdleTime = 5 * time.Minute
)

// Config holds the parameters for opening the database file.
type Config struct {
	// Path is the database file. Created on first write if absent.
	Path string

	// MaxOpenConns bounds the connection pool. Zero applies
	// batchload.DefaultMaxOpenConns.
	MaxOpenConns int

	// BusyTimeout is how long the engine itself waits on a contended lock
	// before reporting SQLITE_BUSY. Zero applies
	// batchload.DefaultBusyTimeout.
	BusyTimeout time.Duration
}

// Open opens the database file and verifies it is reachable with a ping.
// The caller owns the returned handle and must close it exactly once.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required: %w", batchload.ErrInvalidConfig)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = batchload.DefaultMaxOpenConns
	}
	busyTimeout := cfg.BusyTimeout
	if busyTimeout == 0 {
		busyTimeout = batchload.DefaultBusyTimeout
	}

	handle, err := sql.Open("sqlite3", buildDSN(cfg.Path, busyTimeout))
	if err != nil {
		return nil, wrapOpenError(err, cfg.Path)
	}

	handle.SetMaxOpenConns(maxOpen)
	handle.SetMaxIdleConns(DefaultMaxIdleConns)
	handle.SetConnMaxIdleTime(DefaultConnMaxIdleTime)

	if err := handle.PingContext(ctx); err != nil {
		handle.Close()
		return nil, wrapOpenError(err, cfg.Path)
	}

	return handle, nil
}

// Probe issues the trivial liveness query the orchestrator uses before any
// ingestion. Failure is a connectivity error, never retried.
func Probe(ctx context.Context, handle *sql.DB) error {
	var one int
	if err := handle.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("liveness probe failed: %v: %w", err, batchload.ErrConnectivity)
	}
	return nil
}

// buildDSN constructs the driver DSN. The busy timeout makes the engine
// itself wait on contended locks before surfacing SQLITE_BUSY; contention
// that outlasts it goes through the retry policy.
func buildDSN(path string, busyTimeout time.Duration) string {
	q := url.Values{}
	q.Set("_busy_timeout", fmt.Sprintf("%d", busyTimeout.Milliseconds()))
	q.Set("_foreign_keys", "on")
	return fmt.Sprintf("file:%s?%s", path, q.Encode())
}

// wrapOpenError wraps raw driver errors with actionable guidance.
func wrapOpenError(err error, path string) error {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "unable to open database"):
		return fmt.Errorf(`unable to open database file %q

Possible causes:
  - The parent directory does not exist
  - The process lacks write permission on the directory
  - The path points at a directory, not a file

Original error: %v: %w`, path, err, batchload.ErrConnectivity)

	case strings.Contains(errStr, "file is not a database"):
		return fmt.Errorf(`%q exists but is not a SQLite database

Possible causes:
  - The path collides with an unrelated file
  - The file is encrypted or truncated

Original error: %v: %w`, path, err, batchload.ErrConnectivity)

	case strings.Contains(errStr, "out of memory"):
		return fmt.Errorf("out of memory opening %q: %v: %w", path, err, batchload.ErrConnectivity)

	default:
		return fmt.Errorf("failed to open database %q: %v: %w", path, err, batchload.ErrConnectivity)
	}
}
