// Package loader commits one batch to one table as a single atomic unit of
// work. It borrows the database handle per call and never outlives the
// transaction it opens.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/datatools-io/batchload/internal/retry"
	"github.com/datatools-io/batchload/pkg/batchload"
)

// Inserter writes batches transactionally. Designed to be called under the
// retry executor: a failed attempt rolls back completely, so a retried
// attempt restarts from an unchanged table.
type Inserter struct {
	handle        *sql.DB
	logger        batchload.Logger
	progressEvery int
}

// NewInserter creates an Inserter on the given handle.
// Panics if handle or logger is nil (programmer error in wiring).
func NewInserter(handle *sql.DB, logger batchload.Logger) *Inserter {
	if handle == nil {
		panic("handle cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Inserter{
		handle:        handle,
		logger:        logger,
		progressEvery: batchload.ProgressInterval,
	}
}

// InsertBatch inserts every record of the batch into the dataset's table
// inside exactly one transaction, preserving batch order. A progress
// milestone is logged every ProgressInterval inserted records; the final
// partial group does not emit one.
//
// On any failure the transaction is rolled back and the table's visible
// state is unchanged. Constraint failures are wrapped with
// batchload.ErrConstraintViolation; transient lock errors propagate
// untouched so the retry classifier can see the driver's result code.
// Returns the number of inserted records on success.
//
// Per-record insertion (rather than one multi-row statement) is a
// deliberate trade: uniform retry semantics, progress visibility, and
// trivial schema mapping, at the cost of raw throughput. Appropriate for
// moderate fixed inputs, not web-scale loads.
func (ins *Inserter) InsertBatch(ctx context.Context, ds batchload.Dataset, batch *batchload.Batch) (int64, error) {
	if err := ds.Validate(); err != nil {
		return 0, err
	}

	tx, err := ins.handle.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction for %q: %w", ds.Table, err)
	}
	// No-op after a successful Commit.
	defer func() { _ = tx.Rollback() }()

	if ds.Truncate {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+ds.Table); err != nil {
			return 0, fmt.Errorf("truncate %q: %w", ds.Table, err)
		}
		ins.logger.Verbose("table %s truncated before load", ds.Table)
	}

	stmt, err := tx.PrepareContext(ctx, insertStatement(ds.Table, batch.Columns))
	if err != nil {
		return 0, fmt.Errorf("prepare insert for %q: %w", ds.Table, err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(batch.Columns))
	for i, record := range batch.Records {
		for j, value := range record {
			args[j] = value
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			if retry.IsConstraintViolation(err) {
				return 0, fmt.Errorf("insert row %d into %q: %w: %w", i+1, ds.Table, batchload.ErrConstraintViolation, err)
			}
			return 0, fmt.Errorf("insert row %d into %q: %w", i+1, ds.Table, err)
		}
		if (i+1)%ins.progressEvery == 0 {
			ins.logger.Info("  %s: %d rows inserted", ds.Table, i+1)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit %q: %w", ds.Table, err)
	}

	return int64(len(batch.Records)), nil
}

func insertStatement(table string, columns []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders)
}
