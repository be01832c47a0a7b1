package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/rewind/pkg/apply"
	"github.com/matzehuels/rewind/pkg/cutoff"
	"github.com/matzehuels/rewind/pkg/dag"
	"github.com/matzehuels/rewind/pkg/downgrade"
	rwerrors "github.com/matzehuels/rewind/pkg/errors"
	"github.com/matzehuels/rewind/pkg/lockfile"
)

// =============================================================================
// Cutoff
// =============================================================================

// validateTarget checks that exactly one cutoff source was given.
func (c *CLI) validateTarget() error {
	switch {
	case c.target.date != "" && c.target.git:
		return rwerrors.New(rwerrors.ErrCodeInvalidInput, "--date and --git are mutually exclusive")
	case c.target.date == "" && !c.target.git:
		return rwerrors.New(rwerrors.ErrCodeInvalidInput, "one of --date or --git is required")
	}
	return nil
}

// cutoff returns the moment versions must have been published before.
func (c *CLI) cutoff(ctx context.Context) (time.Time, error) {
	if c.target.git {
		g := c.git
		if g.Dir == "" {
			g.Dir = c.projectDir()
		}
		return g.CommitTime(ctx, c.target.rev)
	}
	return cutoff.Parse(c.target.date)
}

// projectDir is the directory holding the lockfile.
func (c *CLI) projectDir() string {
	return filepath.Dir(c.lockfile)
}

// =============================================================================
// Pipeline
// =============================================================================

// loadGraph reads the lockfile named by --lockfile.
func (c *CLI) loadGraph(logger *log.Logger) (*dag.Graph, error) {
	prog := newProgress(logger)
	g, err := lockfile.LoadGraph(c.lockfile)
	if err != nil {
		return nil, err
	}
	prog.done("Loaded " + c.lockfile)
	logger.Debug("lockfile graph", "crates", g.NodeCount(), "edges", g.EdgeCount())
	return g, nil
}

// downgrade resolves names at the cutoff and prints or applies the result.
//
// Per-crate failures are reported and do not fail the run. The run only fails
// when nothing could be resolved because every registry request failed at the
// transport level.
func (c *CLI) downgrade(ctx context.Context, out io.Writer, names []string, at time.Time) error {
	logger := loggerFromContext(ctx)
	if len(names) == 0 {
		printWarning("No dependencies selected, nothing to do")
		return nil
	}

	prog := newProgress(logger)
	res, err := downgrade.NewResolver(c.versionSource(), logger).Resolve(ctx, names, at)
	if err != nil {
		return err
	}
	prog.done("Resolved " + pluralCrates(len(res.Targets)))

	for _, f := range res.Failures {
		printWarning("%s: %s", f.Name, rwerrors.UserMessage(f.Err))
	}
	if len(res.Targets) == 0 && allNetwork(res.Failures) {
		return rwerrors.Wrap(rwerrors.ErrCodeNetwork, res.Failures[0].Err, "crates.io is unreachable")
	}

	applyErrs := apply.All(ctx, c.applier(out), res.Targets, logger)
	for _, err := range applyErrs {
		if rwerrors.Fatal(err) {
			return err
		}
		printError("%s", rwerrors.UserMessage(err))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	pinned := len(res.Targets) - len(applyErrs)
	if c.target.run {
		printSuccess("Pinned %s at %s", pluralCrates(pinned), at.Format(time.RFC3339))
	} else {
		printInfo("Versions as of %s", at.Format(time.RFC3339))
	}
	printStats(pinned, len(res.Failures), len(applyErrs))
	return nil
}

// applier prints targets to out or pins them with cargo (--run).
func (c *CLI) applier(out io.Writer) apply.Applier {
	if !c.target.run {
		return apply.Printer{W: out}
	}
	return apply.Cargo{
		Bin:    c.Config.Cargo,
		Dir:    c.projectDir(),
		Stdout: statusOut,
		Stderr: statusOut,
	}
}

// allNetwork reports whether there is at least one failure and every failure
// is a transport error or a rate limit.
func allNetwork(failures []downgrade.Failure) bool {
	if len(failures) == 0 {
		return false
	}
	for _, f := range failures {
		if !rwerrors.Has(f.Err, rwerrors.ErrCodeNetwork) && !rwerrors.Has(f.Err, rwerrors.ErrCodeRateLimited) {
			return false
		}
	}
	return true
}

func pluralCrates(n int) string {
	if n == 1 {
		return "1 crate"
	}
	return fmt.Sprintf("%d crates", n)
}
