package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a transient failure (network error, 5xx, 429) that
// [Retry] should attempt again. After, if set, is the minimum time the server
// asked us to wait, as sent in a Retry-After header.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry calls fn up to attempts times. Only errors wrapping a
// [RetryableError] are retried; anything else is returned at once.
//
// The wait before the next attempt starts at delay and doubles after each
// failure, but is never shorter than the RetryableError's After. The last
// error is returned when all attempts fail, ctx.Err() when ctx is done first.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var re *RetryableError
		if !errors.As(err, &re) {
			return err
		}
		if i == attempts-1 {
			break
		}

		wait := max(delay, re.After)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return lastErr
}

// RetryWithBackoff is [Retry] with 3 attempts and a 1 second initial delay.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 3, time.Second, fn)
}
