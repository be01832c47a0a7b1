package downgrade

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/rewind/pkg/errors"
	"github.com/matzehuels/rewind/pkg/observability"
)

// VersionSource lists every published version of a crate.
type VersionSource interface {
	Versions(ctx context.Context, name string) ([]VersionRecord, error)
}

// VersionSourceFunc adapts a function to [VersionSource].
type VersionSourceFunc func(ctx context.Context, name string) ([]VersionRecord, error)

// Versions calls f.
func (f VersionSourceFunc) Versions(ctx context.Context, name string) ([]VersionRecord, error) {
	return f(ctx, name)
}

// Failure records why one crate could not be resolved.
type Failure struct {
	Name string
	Err  error
}

// Result is the outcome of [Resolver.Resolve].
type Result struct {
	Targets  []Target  // Resolved crates, in input order
	Failures []Failure // Crates that were skipped, in input order
}

// Resolver resolves crate names to their versions at a cutoff.
type Resolver struct {
	source VersionSource
	logger *log.Logger
}

// NewResolver creates a Resolver reading from source. A nil logger means
// log.Default().
func NewResolver(source VersionSource, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{source: source, logger: logger}
}

// Resolve fetches and picks a version for every name, strictly one crate at a
// time. The source is expected to pace its own requests.
//
// Fetch failures ([errors.ErrCodeRegistryFetch]) and crates without a
// qualifying version ([errors.ErrCodeNoQualifyingVersion]) are logged and
// recorded in Result.Failures; the remaining names are still processed.
// The only error returned is ctx.Err() when the context is cancelled, in
// which case the partial result is returned alongside it.
func (r *Resolver) Resolve(ctx context.Context, names []string, cutoff time.Time) (Result, error) {
	r.logger.Infof("downgrading the following %d dependencies to %s: %s",
		len(names), cutoff.UTC().Format(time.RFC3339), strings.Join(names, ", "))

	hooks := observability.Resolve()
	var res Result
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		start := time.Now()
		hooks.OnCrateStart(ctx, name)
		target, err := r.resolveOne(ctx, name, cutoff)
		hooks.OnCrateComplete(ctx, name, target.Version, time.Since(start), err)

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			r.logger.Error(errors.UserMessage(err), "crate", name)
			res.Failures = append(res.Failures, Failure{Name: name, Err: err})
			continue
		}
		r.logger.Debug("resolved", "crate", name, "version", target.Version)
		res.Targets = append(res.Targets, target)
	}
	return res, nil
}

func (r *Resolver) resolveOne(ctx context.Context, name string, cutoff time.Time) (Target, error) {
	r.logger.Infof("fetching infos for crate %s", name)
	versions, err := r.source.Versions(ctx, name)
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeRegistryFetch {
			return Target{}, err
		}
		return Target{}, errors.Wrap(errors.ErrCodeRegistryFetch, err, "fetch versions of %s", name)
	}
	return Pick(name, versions, cutoff)
}

// DedupNames returns names sorted with duplicates and blanks removed. It is
// used for explicitly listed crates, which bypass level selection.
func DedupNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
