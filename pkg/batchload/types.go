package batchload

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// identifierPattern restricts table and column names to plain SQL
// identifiers, so they can be interpolated into statements safely.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name is usable as a table or column name.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// Dataset describes one (input file, target table) pair. The column list is
// the declared record schema: the CSV header must match it exactly, and
// values are passed through to storage as text in this column order.
type Dataset struct {
	// File is the path to the CSV input.
	File string

	// Table is the destination table name.
	Table string

	// Columns is the ordered column set, matching both the CSV header and
	// the destination table.
	Columns []string

	// PrimaryKey names the column whose values come directly from the
	// input and must be unique. Must be one of Columns.
	PrimaryKey string

	// Truncate clears the table inside the same transaction as the batch
	// insert, making repeated runs against a persisted store idempotent.
	// A failed run still leaves the prior contents intact.
	Truncate bool
}

// Validate checks the Dataset for missing fields and unsafe identifiers.
func (d *Dataset) Validate() error {
	var errs []error

	if d.File == "" {
		errs = append(errs, fmt.Errorf("dataset file is required: %w", ErrInvalidConfig))
	}
	if d.Table == "" {
		errs = append(errs, fmt.Errorf("dataset table is required: %w", ErrInvalidConfig))
	} else if !ValidIdentifier(d.Table) {
		errs = append(errs, fmt.Errorf("table name %q is not a valid identifier: %w", d.Table, ErrInvalidConfig))
	}
	if len(d.Columns) == 0 {
		errs = append(errs, fmt.Errorf("dataset %q has no columns: %w", d.Table, ErrInvalidConfig))
	}
	for _, col := range d.Columns {
		if !ValidIdentifier(col) {
			errs = append(errs, fmt.Errorf("column name %q is not a valid identifier: %w", col, ErrInvalidConfig))
		}
	}
	if d.PrimaryKey != "" {
		found := false
		for _, col := range d.Columns {
			if col == d.PrimaryKey {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, fmt.Errorf("primary key %q is not among the columns of %q: %w", d.PrimaryKey, d.Table, ErrInvalidConfig))
		}
	}

	return errors.Join(errs...)
}

// Batch is the fully materialized contents of one input file: the column
// list from the header plus every record, in file order. The whole file is
// read before any insertion begins; the batch is inserted as one
// transactional unit.
type Batch struct {
	Table   string
	Columns []string
	Records [][]string
}

// Len returns the number of records in the batch.
func (b *Batch) Len() int { return len(b.Records) }

// RetryPolicy configures the retry controller for transient lock
// conditions. Growth of the delay is an explicit choice: the default policy
// waits a fixed Delay between attempts.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Delay is the base wait between attempts.
	Delay time.Duration

	// Backoff selects the delay growth: "fixed" (default) or "exponential".
	Backoff string
}

// Validate checks the RetryPolicy bounds.
func (p *RetryPolicy) Validate() error {
	var errs []error

	if p.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry max attempts must be at least 1: %w", ErrInvalidConfig))
	}
	if p.Delay < 0 {
		errs = append(errs, fmt.Errorf("retry delay cannot be negative: %w", ErrInvalidConfig))
	}
	switch p.Backoff {
	case "", "fixed", "exponential":
	default:
		errs = append(errs, fmt.Errorf("retry backoff must be fixed or exponential, got %q: %w", p.Backoff, ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// LoadConfig contains all parameters needed for one ingestion run.
type LoadConfig struct {
	// DatabasePath is the SQLite database file.
	DatabasePath string

	// MaxOpenConns bounds the connection pool.
	MaxOpenConns int

	// BusyTimeout is the storage engine's own wait on contended locks.
	BusyTimeout time.Duration

	// MigrationsDir holds the *.sql files that provision the schema.
	MigrationsDir string

	// Datasets are ingested strictly in this order. A failure aborts the
	// remaining entries.
	Datasets []Dataset

	// Retry is the transient-failure policy for batch insertion.
	Retry RetryPolicy

	// Timeout is the global bound for the whole run.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool
}

// Validate checks if the LoadConfig has all required fields and valid
// values. It returns a multi-error if multiple validation failures occur.
func (c *LoadConfig) Validate() error {
	var errs []error

	if c.DatabasePath == "" {
		errs = append(errs, fmt.Errorf("DatabasePath is required: %w", ErrInvalidConfig))
	}
	if len(c.Datasets) == 0 {
		errs = append(errs, fmt.Errorf("at least one dataset is required: %w", ErrInvalidConfig))
	}
	for i := range c.Datasets {
		if err := c.Datasets[i].Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.Retry.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.MaxOpenConns < 0 {
		errs = append(errs, fmt.Errorf("max open connections cannot be negative: %w", ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// FetchConfig contains all parameters for acquiring the input archive.
type FetchConfig struct {
	// URL is where the compressed archive is downloaded from.
	URL string

	// ArchivePath is the local path the archive is written to.
	ArchivePath string

	// SHA256 is the optional expected digest of the downloaded archive.
	SHA256 string

	// ExtractDir is the directory the gzip+tar tree is extracted into.
	ExtractDir string

	// Verbose enables detailed logging.
	Verbose bool
}

// Validate checks if the FetchConfig has all required fields.
func (c *FetchConfig) Validate() error {
	var errs []error

	if c.URL == "" {
		errs = append(errs, fmt.Errorf("archive URL is required: %w", ErrInvalidConfig))
	}
	if c.ArchivePath == "" {
		errs = append(errs, fmt.Errorf("archive path is required: %w", ErrInvalidConfig))
	}
	if c.ExtractDir == "" {
		errs = append(errs, fmt.Errorf("extract directory is required: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}
