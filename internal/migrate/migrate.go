// Package migrate provisions the destination schema. Migration files are
// plain *.sql applied in lexical order, one transaction each, with applied
// versions and content checksums recorded in schema_migrations. The
// ingestion core assumes the tables already exist and never touches schema
// itself.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/datatools-io/batchload/internal/checksum"
	"github.com/datatools-io/batchload/pkg/batchload"
)

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    checksum   TEXT NOT NULL,
    applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Migrator applies pending migrations from a directory.
type Migrator struct {
	handle *sql.DB
	dir    string
	calc   checksum.Calculator
	logger batchload.Logger
}

// New creates a Migrator. Panics if handle or logger is nil.
func New(handle *sql.DB, dir string, logger batchload.Logger) *Migrator {
	if handle == nil {
		panic("handle cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Migrator{
		handle: handle,
		dir:    dir,
		calc:   checksum.New(),
		logger: logger,
	}
}

// Apply runs every pending migration in lexical filename order and returns
// how many were applied. Already-applied versions are skipped after a
// checksum comparison; a mismatch means the file changed after it ran and
// aborts with an error rather than silently diverging.
func (m *Migrator) Apply(ctx context.Context) (int, error) {
	if _, err := m.handle.ExecContext(ctx, createMigrationsTable); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	versions, err := m.pending()
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, version := range versions {
		content, err := os.ReadFile(filepath.Join(m.dir, version))
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", version, err)
		}
		sum := m.calc.CalculateNormalized(content)

		var stored string
		err = m.handle.QueryRowContext(ctx,
			"SELECT checksum FROM schema_migrations WHERE version = ?", version).Scan(&stored)
		switch {
		case err == nil:
			if stored != sum {
				return applied, fmt.Errorf("migration %s changed after being applied: %w", version, batchload.ErrChecksumMismatch)
			}
			m.logger.Verbose("migration %s already applied", version)
			continue
		case err != sql.ErrNoRows:
			return applied, fmt.Errorf("look up migration %s: %w", version, err)
		}

		if err := m.applyOne(ctx, version, string(content), sum); err != nil {
			return applied, err
		}
		m.logger.Info("applied migration %s", version)
		applied++
	}

	return applied, nil
}

// pending lists *.sql files in the migrations directory, lexically sorted.
func (m *Migrator) pending() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory %q: %w", m.dir, err)
	}

	var versions []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		versions = append(versions, entry.Name())
	}
	sort.Strings(versions)
	return versions, nil
}

func (m *Migrator) applyOne(ctx context.Context, version, content, sum string) error {
	tx, err := m.handle.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, content); err != nil {
		return fmt.Errorf("apply migration %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, checksum) VALUES (?, ?)", version, sum); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}
