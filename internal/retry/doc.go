// Package retry provides automatic retry logic for transient storage
// failures, most importantly write-lock contention on the database file.
//
// The package supports pluggable error classification and backoff
// strategies. The default policy waits a fixed delay between attempts; the
// delay growth is an explicit strategy choice, not an implicit behavior.
//
// # Example Usage
//
//	classifier := retry.NewSQLiteErrorClassifier()
//	strategy := retry.NewFixedBackoff(5, time.Second)
//	executor := retry.NewExecutor(classifier, strategy)
//
//	err := executor.Execute(ctx, "insert users", func(ctx context.Context) error {
//	    return insertBatch(ctx)
//	})
//
// # Attempt Accounting
//
// MaxAttempts is the total number of attempts, including the first. If
// every attempt fails with a transient error, Execute makes exactly
// MaxAttempts attempts and returns a *batchload.RetriesExhaustedError,
// never one attempt more, never fewer. A non-transient error on any attempt
// propagates immediately without further attempts.
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. Use WithOnRetry() to
// create independent configurations.
package retry
