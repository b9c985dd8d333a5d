package service

import (
	"context"
	"time"

	"github.com/minho/pressroom/internal/logger"
)

// ErrorClass classifies a failed external call for backoff selection.
type ErrorClass int

const (
	// ErrorClassGeneric covers ordinary transient failures (timeouts,
	// 5xx responses, connection resets).
	ErrorClassGeneric ErrorClass = iota
	// ErrorClassRateLimited covers quota and 429-style rejections.
	ErrorClassRateLimited
)

// Classifier maps an error to its backoff class.
type Classifier func(error) ErrorClass

// RetryConfig holds configuration for a RetryController.
type RetryConfig struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	RateLimitDelay time.Duration
	Classify       Classifier
}

// RetryController wraps a fallible external call with bounded attempts and
// class-dependent backoff. It never mutates any record; after the attempts
// are exhausted the last error is returned and the caller decides what to do
// with the item.
type RetryController struct {
	maxAttempts    int
	baseDelay      time.Duration
	rateLimitDelay time.Duration
	classify       Classifier

	// sleep is replaceable in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryController creates a RetryController.
// Parameters:
//   - cfg: attempt bound, delays, and the error classifier; a nil classifier
//     treats every error as generic.
//
// Returns:
//   - *RetryController: initialized controller.
func NewRetryController(cfg *RetryConfig) *RetryController {
	classify := cfg.Classify
	if classify == nil {
		classify = func(error) ErrorClass { return ErrorClassGeneric }
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryController{
		maxAttempts:    maxAttempts,
		baseDelay:      cfg.BaseDelay,
		rateLimitDelay: cfg.RateLimitDelay,
		classify:       classify,
		sleep:          sleepContext,
	}
}

// Do runs op until it succeeds or the attempt bound is reached. A generic
// failure on attempt k waits baseDelay*k before the next attempt; a
// rate-limited failure always waits the fixed rateLimitDelay. The wait blocks
// the calling goroutine, honoring ctx cancellation.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - op: the external call to run.
//
// Returns:
//   - error: nil on success, the last attempt's error otherwise.
func (r *RetryController) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == r.maxAttempts {
			break
		}

		delay := r.delayFor(lastErr, attempt)
		logger.With(logger.Fields{
			logger.FieldAttempt:    attempt,
			logger.FieldDurationMs: delay.Milliseconds(),
		}).Warn(ctx, "Attempt failed, backing off: %v", lastErr)

		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

// delayFor computes the backoff before the attempt following a failed
// attempt number (1-based).
func (r *RetryController) delayFor(err error, attempt int) time.Duration {
	if r.classify(err) == ErrorClassRateLimited {
		return r.rateLimitDelay
	}
	return r.baseDelay * time.Duration(attempt)
}

// sleepContext blocks for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
