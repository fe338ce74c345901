package retry

import (
	"context"
	"time"

	"github.com/datatools-io/batchload/pkg/batchload"
)

// Executor orchestrates retry attempts with backoff and error classification.
//
// Thread Safety:
// The Executor itself is safe for concurrent use when calling Execute().
// WithOnRetry() returns a NEW instance with the callback configured, so
// each caller can have its own configuration without shared state.
type Executor struct {
	classifier batchload.ErrorClassifier
	strategy   batchload.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a new retry executor with the given configuration.
// Panics if classifier or strategy is nil.
func NewExecutor(
	classifier batchload.ErrorClassifier,
	strategy batchload.BackoffStrategy,
) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		classifier: classifier,
		strategy:   strategy,
	}
}

// WithOnRetry returns a new Executor with the specified retry callback.
// The callback is invoked after each failed transient attempt, before the
// backoff wait. This method does NOT modify the receiver.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// Execute runs the operation under the retry policy. op names the unit of
// work for diagnostics.
//
// A success returns immediately. A non-transient error propagates
// immediately without further attempts. A transient error is retried after
// the strategy's delay until the attempt bound is reached; exhaustion is
// reported as a *batchload.RetriesExhaustedError wrapping the last error.
func (e *Executor) Execute(ctx context.Context, op string, operation func(ctx context.Context) error) error {
	maxAttempts := e.strategy.MaxAttempts()
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}

		if !e.classifier.IsTransient(lastErr) {
			return lastErr
		}

		if attempt == maxAttempts {
			break
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, lastErr, delay)
		}

		// Wait for the backoff period, respecting context cancellation.
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return &batchload.RetriesExhaustedError{
		Op:       op,
		Attempts: maxAttempts,
		Err:      lastErr,
	}
}
