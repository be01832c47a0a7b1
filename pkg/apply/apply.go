// Package apply turns resolved downgrade targets into output or pins.
//
// [Printer] writes each target in Cargo.toml dependency syntax, which is the
// default dry-run mode. [Cargo] asks cargo to pin the lockfile entry with
// `cargo update -p <name> --precise <version>`, trusting cargo's resolver to
// accept or reject the version.
package apply

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/rewind/pkg/downgrade"
	"github.com/matzehuels/rewind/pkg/errors"
	"github.com/matzehuels/rewind/pkg/observability"
)

// Applier acts on one resolved target.
type Applier interface {
	Apply(ctx context.Context, t downgrade.Target) error
}

// Printer writes `name = "=version"` lines.
type Printer struct {
	W io.Writer
}

// Apply prints t.
func (p Printer) Apply(_ context.Context, t downgrade.Target) error {
	_, err := fmt.Fprintln(p.W, t.String())
	return err
}

// Cargo pins targets by running cargo in Dir.
type Cargo struct {
	Bin    string    // cargo executable (default "cargo")
	Dir    string    // project directory (default: current directory)
	Stdout io.Writer // cargo's stdout (default os.Stdout)
	Stderr io.Writer // cargo's stderr (default os.Stderr)
}

// Apply runs `cargo update -p <name> --precise <version>`. A non-zero exit is
// reported with [errors.ErrCodeApply].
func (c Cargo) Apply(ctx context.Context, t downgrade.Target) error {
	bin := c.Bin
	if bin == "" {
		bin = "cargo"
	}
	cmd := exec.CommandContext(ctx, bin, c.Args(t)...)
	cmd.Dir = c.Dir
	cmd.Stdout = orDefault(c.Stdout, os.Stdout)
	cmd.Stderr = orDefault(c.Stderr, os.Stderr)
	if err := cmd.Run(); err != nil {
		return errors.Wrap(errors.ErrCodeApply, err, "cargo update -p %s --precise %s", t.Name, t.Version)
	}
	return nil
}

// Args returns the cargo arguments used to pin t.
func (Cargo) Args(t downgrade.Target) []string {
	return []string{"update", "-p", t.Name, "--precise", t.Version}
}

func orDefault(w, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}

// All applies every target in order. A failing target is logged and recorded
// but does not stop the remaining ones. Cancellation stops the loop and is
// returned as the last error.
func All(ctx context.Context, a Applier, targets []downgrade.Target, logger *log.Logger) []error {
	if logger == nil {
		logger = log.Default()
	}
	hooks := observability.Apply()

	var errs []error
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return append(errs, err)
		}
		start := time.Now()
		err := a.Apply(ctx, t)
		hooks.OnApply(ctx, t.Name, t.Version, time.Since(start), err)
		if err != nil {
			logger.Error("pin failed", "crate", t.Name, "version", t.Version, "err", err)
			errs = append(errs, err)
		}
	}
	return errs
}
