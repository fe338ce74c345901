package batchload

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0  // Run completed successfully
	ExitGeneralError     = 1  // Unknown or unclassified error
	ExitUsageError       = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid configuration or parameters
	ExitConnectionError  = 11 // Failed to open or probe the database
	ExitParseError       = 12 // Malformed input file
	ExitConstraintError  = 13 // Insert violated a table constraint
	ExitRetriesExhausted = 14 // Transient lock condition outlasted the retry bound
)

const (
	// DefaultRetryMaxAttempts is the default total number of attempts for
	// one retried operation. Exactly this many attempts are made before
	// the failure is surfaced, never one more.
	DefaultRetryMaxAttempts = 5

	// DefaultRetryDelay is the default wait between attempts. The delay is
	// fixed by default; growth is an explicit BackoffStrategy choice.
	DefaultRetryDelay = 1000 * time.Millisecond

	// ProgressInterval is the number of inserted rows between progress log
	// milestones inside one transaction. The final partial group below the
	// interval does not emit a milestone.
	ProgressInterval = 1000

	// DefaultMaxOpenConns bounds the connection pool. All writes happen on
	// a single flow, so one writer connection plus one for verification
	// reads is enough.
	DefaultMaxOpenConns = 2

	// DefaultBusyTimeout is how long the storage engine itself waits on a
	// contended write lock before reporting the resource busy. Contention
	// outlasting this surfaces as a transient error and goes through the
	// retry policy.
	DefaultBusyTimeout = 5 * time.Second

	// DefaultTimeout is catastrophic failure protection for a whole run,
	// not normal timeout control.
	DefaultTimeout = 3 * time.Minute
)
