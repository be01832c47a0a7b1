// Package cutoff determines the instant dependencies are rolled back to.
//
// The cutoff comes either from an explicit date string ([Parse]) or from the
// committer timestamp of a git revision ([Git.CommitTime]). Both return UTC.
package cutoff

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/rewind/pkg/errors"
)

// layouts are tried in order by Parse. RFC 2822 comes first since it is what
// `git log` and mail headers print, e.g. "22 Feb 2021 23:16:09 GMT".
var layouts = []string{
	"02 Jan 2006 15:04:05 MST",
	"02 Jan 2006 15:04:05 -0700",
	"Mon, 02 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC3339Nano,
	time.RFC3339,
	time.DateTime,
	time.DateOnly,
}

// zoneHours are the zone names RFC 2822 allows in a date, as hours east of
// UTC. time.Parse reads an unknown zone name as offset 0, so named zones are
// resolved here.
var zoneHours = map[string]int{
	"UT": 0, "UTC": 0, "GMT": 0, "Z": 0,
	"EST": -5, "EDT": -4,
	"CST": -6, "CDT": -5,
	"MST": -7, "MDT": -6,
	"PST": -8, "PDT": -7,
}

// Parse reads a cutoff from an RFC 2822, RFC 1123 or RFC 3339 timestamp, or
// from a plain "2006-01-02" date (midnight UTC). Layouts without a zone are
// taken as UTC. Named zones other than those of RFC 2822 are rejected.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New(errors.ErrCodeInvalidDate, "empty date")
	}

	// "UT" and "Z" are too short for the MST layout element.
	input := s
	for _, short := range []string{" UT", " Z"} {
		if strings.HasSuffix(input, short) {
			input = strings.TrimSuffix(input, short) + " GMT"
		}
	}

	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, input, time.UTC)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "MST") {
			return inNamedZone(t, s)
		}
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(errors.ErrCodeInvalidDate,
		"unrecognised date %q (expected e.g. \"22 Feb 2021 23:16:09 GMT\" or \"2021-02-22T23:16:09Z\")", s)
}

// inNamedZone reinterprets the wall clock of t in the RFC 2822 zone it was
// written with.
func inNamedZone(t time.Time, input string) (time.Time, error) {
	name, _ := t.Zone()
	hours, ok := zoneHours[name]
	if !ok {
		return time.Time{}, errors.New(errors.ErrCodeInvalidDate, "unknown time zone %q in %q (use a numeric offset such as -0800)", name, input)
	}
	loc := time.FixedZone(name, hours*60*60)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc).UTC(), nil
}

// Git runs git commands. It exists so tests can replace the binary.
type Git struct {
	Bin string // git executable (default "git")
	Dir string // working directory (default: current directory)
}

// CommitTime returns the committer time of rev (default "HEAD").
func (g Git) CommitTime(ctx context.Context, rev string) (time.Time, error) {
	bin := g.Bin
	if bin == "" {
		bin = "git"
	}
	if rev == "" {
		rev = "HEAD"
	}

	cmd := exec.CommandContext(ctx, bin, "show", "-s", "--format=%ct", rev, "--")
	cmd.Dir = g.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return time.Time{}, errors.Wrap(errors.ErrCodeGitDate, err, "git show %s: %s", rev, msg)
		}
		return time.Time{}, errors.Wrap(errors.ErrCodeGitDate, err, "git show %s", rev)
	}

	secs, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return time.Time{}, errors.Wrap(errors.ErrCodeGitDate, err, "unexpected git output %q", strings.TrimSpace(string(out)))
	}
	return time.Unix(secs, 0).UTC(), nil
}
