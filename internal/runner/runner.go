// Package runner sequences one ingestion run: connectivity probe, per-table
// ingestion under the retry policy, and post-load verification counts. The
// runner exclusively owns the database handle's lifecycle: it is opened at
// the start and closed exactly once on every exit path, including failure.
package runner

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/datatools-io/batchload/internal/db"
	"github.com/datatools-io/batchload/internal/loader"
	"github.com/datatools-io/batchload/internal/retry"
	"github.com/datatools-io/batchload/internal/source"
	"github.com/datatools-io/batchload/pkg/batchload"
)

// OpenFunc opens the database handle for one run.
type OpenFunc func(ctx context.Context, cfg db.Config) (*sql.DB, error)

// SourceFunc materializes one dataset's input file into a batch.
type SourceFunc func(ds batchload.Dataset) (*batchload.Batch, error)

// Inserter commits one batch to one table atomically.
type Inserter interface {
	InsertBatch(ctx context.Context, ds batchload.Dataset, batch *batchload.Batch) (int64, error)
}

// InserterFactory builds the inserter that borrows the run's handle.
type InserterFactory func(handle *sql.DB, logger batchload.Logger) Inserter

// Runner orchestrates a run. Construct with New (production wiring) or
// NewWithDeps (tests).
type Runner struct {
	open        OpenFunc
	read        SourceFunc
	newInserter InserterFactory
	executor    *retry.Executor
	logger      batchload.Logger
}

// New creates a Runner with the production collaborators wired in.
func New(executor *retry.Executor, logger batchload.Logger) *Runner {
	return NewWithDeps(
		db.Open,
		source.ReadFile,
		func(handle *sql.DB, logger batchload.Logger) Inserter {
			return loader.NewInserter(handle, logger)
		},
		executor,
		logger,
	)
}

// NewWithDeps creates a Runner with every collaborator injected.
//
// Panics if any dependency is nil. This is intentional fail-fast behavior:
// a panic here indicates incorrect dependency injection setup, not a
// runtime condition.
func NewWithDeps(
	open OpenFunc,
	read SourceFunc,
	newInserter InserterFactory,
	executor *retry.Executor,
	logger batchload.Logger,
) *Runner {
	if open == nil {
		panic("open cannot be nil")
	}
	if read == nil {
		panic("read cannot be nil")
	}
	if newInserter == nil {
		panic("newInserter cannot be nil")
	}
	if executor == nil {
		panic("executor cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Runner{
		open:        open,
		read:        read,
		newInserter: newInserter,
		executor:    executor,
		logger:      logger,
	}
}

// Run executes one ingestion run:
//
//	Disconnected → Connected → Ingesting(dataset_i)… → Verifying → Closed
//
// The connectivity probe runs first; its failure aborts the run before any
// ingestion. Datasets are ingested strictly sequentially in configured
// order, each batch fully read before its transaction opens; the first
// failure aborts all remaining datasets. Verification counts are queried
// only after every dataset has committed. The handle is released on every
// path out.
func (r *Runner) Run(ctx context.Context, cfg batchload.LoadConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	runID := uuid.NewString()[:8]

	handle, err := r.open(ctx, db.Config{
		Path:         cfg.DatabasePath,
		MaxOpenConns: cfg.MaxOpenConns,
		BusyTimeout:  cfg.BusyTimeout,
	})
	if err != nil {
		r.logger.Error("run %s: cannot open database %s: %v", runID, cfg.DatabasePath, err)
		return err
	}
	defer func() {
		handle.Close()
		r.logger.Verbose("run %s: database handle released", runID)
	}()

	if err := db.Probe(ctx, handle); err != nil {
		r.logger.Error("run %s: connectivity check failed: %v", runID, err)
		return err
	}
	r.logger.Info("run %s: connected to %s", runID, cfg.DatabasePath)

	for _, ds := range cfg.Datasets {
		if err := r.ingest(ctx, runID, handle, ds); err != nil {
			return err
		}
	}

	return r.verify(ctx, runID, handle, cfg.Datasets)
}

// ingest reads one dataset fully, then inserts it as one transaction under
// the retry policy. Transient lock contention is retried invisibly; any
// other failure (or exhaustion) aborts the run.
func (r *Runner) ingest(ctx context.Context, runID string, handle *sql.DB, ds batchload.Dataset) error {
	r.logger.Info("run %s: loading %s into %s", runID, ds.File, ds.Table)

	batch, err := r.read(ds)
	if err != nil {
		r.logger.Error("run %s: reading %s failed: %v", runID, ds.File, err)
		return err
	}
	r.logger.Verbose("run %s: %s: %d records read", runID, ds.File, batch.Len())

	inserter := r.newInserter(handle, r.logger)
	op := fmt.Sprintf("insert into %s", ds.Table)
	executor := r.executor.WithOnRetry(func(attempt int, attemptErr error, delay time.Duration) {
		r.logger.Info("run %s: %s: attempt %d hit transient contention (%v), retrying in %s",
			runID, op, attempt, attemptErr, delay)
	})

	var count int64
	err = executor.Execute(ctx, op, func(ctx context.Context) error {
		n, insErr := inserter.InsertBatch(ctx, ds, batch)
		if insErr != nil {
			return insErr
		}
		count = n
		return nil
	})
	if err != nil {
		r.logger.Error("run %s: %s failed: %v", runID, op, err)
		return err
	}

	r.logger.Info("run %s: %s: %d rows committed", runID, ds.Table, count)
	return nil
}

// verify reports a count per target table once every dataset has committed.
func (r *Runner) verify(ctx context.Context, runID string, handle *sql.DB, datasets []batchload.Dataset) error {
	for _, ds := range datasets {
		var count int64
		query := "SELECT COUNT(*) FROM " + ds.Table
		if err := handle.QueryRowContext(ctx, query).Scan(&count); err != nil {
			r.logger.Error("run %s: verification of %s failed: %v", runID, ds.Table, err)
			return fmt.Errorf("verify %q: %w", ds.Table, err)
		}
		r.logger.Info("run %s: verified %s: %d rows", runID, ds.Table, count)
	}
	return nil
}
