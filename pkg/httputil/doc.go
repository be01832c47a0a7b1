// Package httputil provides HTTP utilities for package registry clients.
//
// # Overview
//
// This package provides infrastructure used by registry API clients:
//
//   - [Retry]: Automatic retry with exponential backoff
//   - [Throttle]: A minimum delay between consecutive requests
//
// # Retry
//
// [Retry] wraps requests with automatic retry for transient failures. Only
// errors wrapped in [RetryableError] (network errors, 5xx responses, 429
// responses) are retried:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return fetch(ctx)
//	})
//
// # Throttle
//
// Registries such as crates.io ask crawlers to keep at most one request per
// second. [Throttle] enforces that interval across every request made through
// it, blocking callers in [Throttle.Wait] until their slot is due:
//
//	t := httputil.NewThrottle(time.Second)
//	if _, err := t.Wait(ctx); err != nil {
//	    return err
//	}
//
// # Configuration
//
// Default settings:
//
//   - Max retries: 3
//   - Base backoff: 1 second
//   - Request interval: 1 second ([DefaultInterval])
package httputil
