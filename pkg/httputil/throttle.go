package httputil

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum delay between registry requests.
const DefaultInterval = time.Second

// Throttle spaces calls to Wait at least interval apart. It is safe for
// concurrent use; concurrent callers are served one slot at a time.
type Throttle struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewThrottle creates a Throttle. An interval <= 0 disables throttling.
func NewThrottle(interval time.Duration) *Throttle {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttle{limiter: rate.NewLimiter(limit, 1), interval: interval}
}

// Interval returns the configured minimum delay.
func (t *Throttle) Interval() time.Duration { return t.interval }

// Wait blocks until the next request may be sent and returns how long it
// waited. It returns ctx.Err() if the context ends first.
func (t *Throttle) Wait(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := t.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return time.Since(start), ctxErr
		}
		return time.Since(start), err
	}
	return time.Since(start), nil
}
