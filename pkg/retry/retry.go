// Package retry implements bounded retries for transient network failures.
//
// The attempt loop is an explicit state machine: every failure is classified
// as either transient (retry after a fixed delay) or permanent (stop
// immediately). Callers mark definitive failures with Permanent so they are
// never retried.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"
)

// Policy bounds a retry loop. MaxRetries counts the attempts after the
// first one, so a call runs at most MaxRetries+1 times.
type Policy struct {
	MaxRetries int
	Delay      time.Duration
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the retry loop stops on it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// IsTransient reports whether err looks like a transient network failure
// worth retrying: timeouts, connection errors and exceeded deadlines.
func IsTransient(err error) bool {
	if err == nil || IsPermanent(err) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// Do runs fn, retrying transient failures per the policy. It returns nil on
// the first success, the error unchanged on a permanent or non-network
// failure, and the last error once retries are exhausted.
func Do(ctx context.Context, logger *slog.Logger, p Policy, op string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("retry succeeded", "op", op, "attempt", attempt+1)
			}
			return nil
		}
		lastErr = err

		if !IsTransient(err) {
			logger.Error("non-retryable failure", "op", op, "err", err)
			return err
		}
		if attempt == p.MaxRetries {
			break
		}

		logger.Warn("transient failure, retrying",
			"op", op, "attempt", attempt+1, "max_retries", p.MaxRetries, "err", err)
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	logger.Error("retries exhausted", "op", op, "max_retries", p.MaxRetries, "err", lastErr)
	return lastErr
}
