package downgrade

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/rewind/pkg/errors"
)

// dateFormat is used when a publish date is shown to the user.
const dateFormat = "2006-01-02"

// VersionRecord is one published version of a crate as reported by the
// registry.
type VersionRecord struct {
	Number      string    // Version identifier, not necessarily valid semver
	PublishedAt time.Time // Publish instant
	Yanked      bool      // Withdrawn by the publisher
}

// Target is a crate resolved to the version it should be pinned to.
type Target struct {
	Name    string
	Version string
}

// String renders t the way it would appear in a Cargo.toml dependency table.
func (t Target) String() string {
	return fmt.Sprintf("%s = \"=%s\"", t.Name, t.Version)
}

// NoVersionError reports that no unyanked version of a crate was published
// before the cutoff.
type NoVersionError struct {
	Name   string
	Cutoff time.Time
	// Oldest is the earliest unyanked version, if the crate has any, to show
	// how far back the cutoff would need to move.
	Oldest *VersionRecord
}

func (e *NoVersionError) Error() string {
	hint := "no known versions at all?"
	if e.Oldest != nil {
		hint = fmt.Sprintf("%s (%s)", e.Oldest.Number, e.Oldest.PublishedAt.UTC().Format(dateFormat))
	}
	return fmt.Sprintf("no version of crate %s found before %s. Oldest unyanked version is: %s",
		e.Name, e.Cutoff.UTC().Format(time.RFC3339), hint)
}

// Pick returns the newest unyanked version of name published strictly before
// cutoff. versions may be in any order and is not modified.
//
// On failure the error is an [*errors.Error] with code
// [errors.ErrCodeNoQualifyingVersion] wrapping a [*NoVersionError].
func Pick(name string, versions []VersionRecord, cutoff time.Time) (Target, error) {
	sorted := slices.Clone(versions)
	slices.SortStableFunc(sorted, compareRecords)

	for i := len(sorted) - 1; i >= 0; i-- {
		v := sorted[i]
		if v.PublishedAt.Before(cutoff) && !v.Yanked {
			return Target{Name: name, Version: v.Number}, nil
		}
	}

	nv := &NoVersionError{Name: name, Cutoff: cutoff}
	if i := slices.IndexFunc(sorted, func(v VersionRecord) bool { return !v.Yanked }); i >= 0 {
		oldest := sorted[i]
		nv.Oldest = &oldest
	}
	return Target{}, errors.Wrap(errors.ErrCodeNoQualifyingVersion, nv, "crate %s", name)
}

// compareRecords orders by publish time. Equal instants fall back to the
// version string so the result does not depend on input order.
func compareRecords(a, b VersionRecord) int {
	if c := a.PublishedAt.Compare(b.PublishedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.Number, b.Number)
}
