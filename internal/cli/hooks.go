package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// logHooks reports registry traffic and cargo invocations at debug level.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "took", d.Round(time.Millisecond))
}

func (h *logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("request failed", "method", method, "host", host, "path", path, "err", err)
}

func (h *logHooks) OnThrottle(_ context.Context, host string, waited time.Duration) {
	if waited > 0 {
		h.logger.Debug("throttled", "host", host, "waited", waited.Round(time.Millisecond))
	}
}

func (h *logHooks) OnApply(_ context.Context, name, version string, d time.Duration, err error) {
	if err != nil {
		return
	}
	h.logger.Debug("pinned", "crate", name, "version", version, "took", d.Round(time.Millisecond))
}

func (h *logHooks) OnCrateStart(context.Context, string) {}

func (h *logHooks) OnCrateComplete(_ context.Context, name, version string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("skipped", "crate", name, "took", d.Round(time.Millisecond))
		return
	}
	h.logger.Debug("picked", "crate", name, "version", version, "took", d.Round(time.Millisecond))
}
