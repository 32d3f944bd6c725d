package core

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// MaxBackoff caps the wait between two attempts.
const MaxBackoff = 5 * time.Minute

// Backoff returns base * 2^attempt (attempt is 0-indexed), at most MaxBackoff.
func Backoff(base time.Duration, attempt int) time.Duration {
	if base > MaxBackoff {
		return MaxBackoff
	}
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay > MaxBackoff {
			return MaxBackoff
		}
	}
	return delay
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Retry calls fn at most attempts times, waiting Backoff(base, i) after the i-th failure.
// Intermediate failures are swallowed; the last one is returned.
func Retry(ctx context.Context, attempts int, base time.Duration, fn func(context.Context) error) error {
	return RetryWith(ctx, attempts, base, Sleep, fn)
}

// RetryWith is Retry waiting with sleep.
func RetryWith(ctx context.Context, attempts int, base time.Duration, sleep SleepFunc, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		if sErr := sleep(ctx, Backoff(base, i)); sErr != nil {
			return errors.Wrap(err, "retry interrupted")
		}
	}
	return errors.Wrapf(err, "giving up after %d attempts", attempts)
}
