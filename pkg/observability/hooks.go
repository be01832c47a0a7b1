// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup
// to receive events about crate resolution, pinning, and registry calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetHTTPHooks(&myHTTPHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Resolve().OnCrateStart(ctx, name)
//	// ... fetch and pick ...
//	observability.Resolve().OnCrateComplete(ctx, name, version, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Resolve Hooks
// =============================================================================

// ResolveHooks receives one pair of events per crate resolved against the
// registry.
type ResolveHooks interface {
	OnCrateStart(ctx context.Context, name string)
	// OnCrateComplete reports the chosen version, or err if the crate was skipped.
	OnCrateComplete(ctx context.Context, name, version string, duration time.Duration, err error)
}

// =============================================================================
// Apply Hooks
// =============================================================================

// ApplyHooks receives events from pinning resolved versions.
type ApplyHooks interface {
	OnApply(ctx context.Context, name, version string, duration time.Duration, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)

	// OnThrottle records time spent waiting for the request limiter.
	OnThrottle(ctx context.Context, host string, waited time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopResolveHooks is a no-op implementation of ResolveHooks.
type NoopResolveHooks struct{}

func (NoopResolveHooks) OnCrateStart(context.Context, string)                                    {}
func (NoopResolveHooks) OnCrateComplete(context.Context, string, string, time.Duration, error) {}

// NoopApplyHooks is a no-op implementation of ApplyHooks.
type NoopApplyHooks struct{}

func (NoopApplyHooks) OnApply(context.Context, string, string, time.Duration, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}
func (NoopHTTPHooks) OnThrottle(context.Context, string, time.Duration)                      {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	resolveHooks ResolveHooks = NoopResolveHooks{}
	applyHooks   ApplyHooks   = NoopApplyHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetResolveHooks registers custom resolve hooks.
// This should be called once at application startup.
func SetResolveHooks(h ResolveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolveHooks = h
	}
}

// SetApplyHooks registers custom apply hooks.
// This should be called once at application startup.
func SetApplyHooks(h ApplyHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		applyHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Resolve returns the registered resolve hooks.
func Resolve() ResolveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolveHooks
}

// Apply returns the registered apply hooks.
func Apply() ApplyHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return applyHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	resolveHooks = NoopResolveHooks{}
	applyHooks = NoopApplyHooks{}
	httpHooks = NoopHTTPHooks{}
}
