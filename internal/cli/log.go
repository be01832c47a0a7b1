// Package cli implements the rewind command-line interface.
//
// rewind rolls the dependencies in a Cargo.lock back to the versions crates.io
// would have served at a given moment. The CLI is built using cobra and logs
// through the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - all: Downgrade every transitive dependency, or one tier with --level
//   - this: Downgrade an explicit list of crates
//   - levels: Show the breadth-first tiers of the lockfile graph
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports every registry request. Loggers are passed through context.Context.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger writing to w at level, with short wall-clock
// timestamps ("14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one step of a run, e.g. loading the lockfile.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the time elapsed since newProgress, e.g.
// "Resolved 42 crates (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type loggerKey struct{}

// withLogger attaches l to ctx for the commands run under it.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() if there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
