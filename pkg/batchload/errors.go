package batchload

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := runner.Run(ctx, config)
//	if errors.Is(err, batchload.ErrConstraintViolation) {
//	    // Input collided with an existing primary key
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectivity indicates the database could not be opened or the
	// startup liveness probe failed. No ingestion is attempted after it.
	ErrConnectivity = errors.New("database unreachable")

	// ErrParse indicates a malformed input row or header. The whole file's
	// ingestion is aborted; there is no partial-row recovery.
	ErrParse = errors.New("input parse failed")

	// ErrConstraintViolation indicates an insert violated a table
	// constraint (duplicate primary key, NOT NULL, ...). Never retried.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrRetriesExhausted indicates a transient condition persisted through
	// every allowed attempt.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrChecksumMismatch indicates downloaded or migrated content did not
	// match its expected SHA-256 digest.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// ParseError describes a malformed row or header in one input file.
// It matches ErrParse under errors.Is.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s:%d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("parse %s: %s", e.File, e.Msg)
}

// Is reports whether target is the ErrParse sentinel.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// RetriesExhaustedError wraps the last underlying error after the attempt
// bound was reached. It matches ErrRetriesExhausted under errors.Is, and
// unwraps to the final attempt's error so callers can still inspect it.
type RetriesExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("%s: retries exhausted after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Err }

// Is reports whether target is the ErrRetriesExhausted sentinel.
func (e *RetriesExhaustedError) Is(target error) bool { return target == ErrRetriesExhausted }

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Check for sentinel errors
	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrConnectivity):
		return ExitConnectionError
	case errors.Is(err, ErrParse):
		return ExitParseError
	case errors.Is(err, ErrConstraintViolation):
		return ExitConstraintError
	case errors.Is(err, ErrRetriesExhausted):
		return ExitRetriesExhausted
	case errors.Is(err, ErrChecksumMismatch):
		return ExitGeneralError
	}

	// Check for common connection error patterns
	errStr := err.Error()
	if strings.Contains(errStr, "unable to open database") ||
		strings.Contains(errStr, "no such file or directory") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
