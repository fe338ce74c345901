package batchload

import "time"

// ErrorClassifier determines whether an error is transient (retryable) or fatal.
type ErrorClassifier interface {
	// IsTransient returns true if the error is temporary and the operation should be retried.
	IsTransient(err error) bool
}

// BackoffStrategy calculates the delay before the next attempt.
type BackoffStrategy interface {
	// NextDelay returns the duration to wait after the given attempt
	// before the next one. attempt is one-indexed (1 = first attempt).
	NextDelay(attempt int) time.Duration

	// MaxAttempts returns the total number of attempts allowed, including
	// the first. Values below 1 are treated as 1.
	MaxAttempts() int
}
