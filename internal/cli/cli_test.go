package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/rewind/internal/config"
	"github.com/matzehuels/rewind/pkg/cutoff"
	"github.com/matzehuels/rewind/pkg/downgrade"
	rwerrors "github.com/matzehuels/rewind/pkg/errors"
	"github.com/matzehuels/rewind/pkg/integrations"
	"github.com/matzehuels/rewind/pkg/observability"
)

const testLockfile = `version = 3

[[package]]
name = "app"
version = "0.1.0"
dependencies = [
 "log",
 "serde",
]

[[package]]
name = "itoa"
version = "1.0.1"
source = "registry+https://github.com/rust-lang/crates.io-index"

[[package]]
name = "log"
version = "0.4.14"
source = "registry+https://github.com/rust-lang/crates.io-index"

[[package]]
name = "serde"
version = "1.0.130"
source = "registry+https://github.com/rust-lang/crates.io-index"
dependencies = [
 "itoa",
]
`

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

var testVersions = map[string][]downgrade.VersionRecord{
	"serde": {
		{Number: "1.0.124", PublishedAt: day("2021-03-06")},
		{Number: "1.0.123", PublishedAt: day("2021-01-25")},
		{Number: "1.0.122", PublishedAt: day("2021-01-24"), Yanked: true},
	},
	"log": {
		{Number: "0.4.14", PublishedAt: day("2021-01-27")},
		{Number: "0.4.13", PublishedAt: day("2021-01-11")},
	},
	"itoa": {
		{Number: "0.4.7", PublishedAt: day("2020-12-31")},
		{Number: "1.0.1", PublishedAt: day("2021-12-12")},
	},
}

func fakeSource(versions map[string][]downgrade.VersionRecord) downgrade.VersionSource {
	return downgrade.VersionSourceFunc(func(_ context.Context, name string) ([]downgrade.VersionRecord, error) {
		v, ok := versions[name]
		if !ok {
			cause := rwerrors.Wrap(rwerrors.ErrCodeNotFound, integrations.ErrNotFound, "not on crates.io")
			return nil, rwerrors.Wrap(rwerrors.ErrCodeRegistryFetch, cause, "crate %s", name)
		}
		return v, nil
	})
}

// testCLI returns a CLI reading from a temporary lockfile and the given
// source, with status output captured in the returned buffer.
func testCLI(t *testing.T, source downgrade.VersionSource) (*CLI, string, *bytes.Buffer) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.lock")
	if err := os.WriteFile(path, []byte(testLockfile), 0o644); err != nil {
		t.Fatal(err)
	}

	var status bytes.Buffer
	prev := statusOut
	statusOut = &status
	t.Cleanup(func() { statusOut = prev })

	c := New(io.Discard, LogInfo)
	c.source = source
	return c, path, &status
}

func execute(c *CLI, args ...string) (string, error) {
	var out bytes.Buffer
	root := c.RootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAllCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "every level",
			args: []string{"all", "--date", "2021-02-01"},
			want: "itoa = \"=0.4.7\"\nlog = \"=0.4.14\"\nserde = \"=1.0.123\"\n",
		},
		{
			name: "direct dependencies",
			args: []string{"all", "--date", "2021-02-01", "--level", "1"},
			want: "log = \"=0.4.14\"\nserde = \"=1.0.123\"\n",
		},
		{
			name: "second level",
			args: []string{"all", "-d", "2021-02-01", "-l", "2"},
			want: "itoa = \"=0.4.7\"\n",
		},
		{
			name: "cutoff is exclusive",
			args: []string{"all", "--date", "2021-01-27", "--level", "1"},
			want: "log = \"=0.4.13\"\nserde = \"=1.0.123\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, path, _ := testCLI(t, fakeSource(testVersions))
			got, err := execute(c, append(tt.args, "--lockfile", path)...)
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			if got != tt.want {
				t.Errorf("output =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestAllCommandEmptyLevel(t *testing.T) {
	c, path, status := testCLI(t, fakeSource(testVersions))
	got, err := execute(c, "all", "--date", "2021-02-01", "--level", "7", "-f", path)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "" {
		t.Errorf("output = %q, want empty", got)
	}
	if !strings.Contains(status.String(), "nothing to do") {
		t.Errorf("status = %q, want a nothing-to-do warning", status.String())
	}
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code rwerrors.Code
	}{
		{"no cutoff", []string{"all"}, rwerrors.ErrCodeInvalidInput},
		{"both cutoffs", []string{"all", "--date", "2021-02-01", "--git"}, rwerrors.ErrCodeInvalidInput},
		{"zero level", []string{"all", "--date", "2021-02-01", "--level", "0"}, rwerrors.ErrCodeInvalidInput},
		{"bad date", []string{"all", "--date", "yesterday"}, rwerrors.ErrCodeInvalidDate},
		{"bad crate name", []string{"this", "serde,9lives", "--date", "2021-02-01"}, rwerrors.ErrCodeInvalidPackage},
		{"only commas", []string{"this", ",,", "--date", "2021-02-01"}, rwerrors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, path, _ := testCLI(t, fakeSource(testVersions))
			_, err := execute(c, append(tt.args, "-f", path)...)
			if !rwerrors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestMissingLockfile(t *testing.T) {
	c, path, _ := testCLI(t, fakeSource(testVersions))
	_, err := execute(c, "all", "--date", "2021-02-01", "-f", filepath.Join(filepath.Dir(path), "missing.lock"))
	if !rwerrors.Is(err, rwerrors.ErrCodeGraphRead) {
		t.Errorf("err = %v, want code %s", err, rwerrors.ErrCodeGraphRead)
	}
}

func TestThisCommand(t *testing.T) {
	c, _, _ := testCLI(t, fakeSource(testVersions))
	got, err := execute(c, "this", "serde,log", "serde", "--date", "22 Feb 2021 23:16:09 GMT", "-f", "/nonexistent/Cargo.lock")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	want := "log = \"=0.4.14\"\nserde = \"=1.0.123\"\n"
	if got != want {
		t.Errorf("output =\n%s\nwant\n%s", got, want)
	}
}

func TestPerCrateFailuresAreNotFatal(t *testing.T) {
	c, _, status := testCLI(t, fakeSource(testVersions))
	got, err := execute(c, "this", "serde,unknown,itoa", "--date", "2020-01-01")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "" {
		t.Errorf("output = %q, want no pins", got)
	}
	for _, want := range []string{"unknown", "itoa", "serde", "3 skipped"} {
		if !strings.Contains(status.String(), want) {
			t.Errorf("status output missing %q:\n%s", want, status.String())
		}
	}
}

func TestNetworkFailureIsFatal(t *testing.T) {
	source := downgrade.VersionSourceFunc(func(_ context.Context, name string) ([]downgrade.VersionRecord, error) {
		cause := rwerrors.Wrap(rwerrors.ErrCodeNetwork, fmt.Errorf("%w: connection refused", integrations.ErrNetwork), "crates.io request failed")
		return nil, rwerrors.Wrap(rwerrors.ErrCodeRegistryFetch, cause, "crate %s", name)
	})
	c, _, _ := testCLI(t, source)
	_, err := execute(c, "this", "serde,log", "--date", "2021-02-01")
	if !rwerrors.Is(err, rwerrors.ErrCodeNetwork) {
		t.Errorf("err = %v, want code %s", err, rwerrors.ErrCodeNetwork)
	}
}

func TestLevelsCommand(t *testing.T) {
	c, path, status := testCLI(t, nil)
	got, err := execute(c, "levels", "-f", path)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	want := "0: app\n1: log, serde\n2: itoa\n"
	if got != want {
		t.Errorf("output =\n%s\nwant\n%s", got, want)
	}
	if !strings.Contains(status.String(), "Levels") {
		t.Errorf("status output missing summary:\n%s", status.String())
	}
}

func TestLevelsCommandMaxLevels(t *testing.T) {
	c, path, status := testCLI(t, nil)
	got, err := execute(c, "levels", "-f", path, "--max-levels", "2")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "0: app\n1: log, serde\n" {
		t.Errorf("output = %q", got)
	}
	if !strings.Contains(status.String(), "Stopped after 2 levels") {
		t.Errorf("status output missing overflow warning:\n%s", status.String())
	}
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGitCutoff(t *testing.T) {
	c, path, _ := testCLI(t, fakeSource(testVersions))
	// 2021-02-01T00:00:00Z
	c.git = cutoff.Git{Bin: writeScript(t, t.TempDir(), "git", "echo 1612137600\n")}

	got, err := execute(c, "all", "--git", "--level", "1", "-f", path)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if want := "log = \"=0.4.14\"\nserde = \"=1.0.123\"\n"; got != want {
		t.Errorf("output =\n%s\nwant\n%s", got, want)
	}
}

func TestRunPinsWithCargo(t *testing.T) {
	c, path, status := testCLI(t, fakeSource(testVersions))
	dir := t.TempDir()
	record := filepath.Join(dir, "calls")
	cargo := writeScript(t, dir, "cargo", fmt.Sprintf("echo \"$@\" >> %q\n", record))
	t.Setenv(config.EnvCargo, cargo)

	got, err := execute(c, "all", "--date", "2021-02-01", "--level", "1", "--run", "-f", path)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "" {
		t.Errorf("stdout = %q, want nothing when running cargo", got)
	}

	data, err := os.ReadFile(record)
	if err != nil {
		t.Fatal(err)
	}
	want := "update -p log --precise 0.4.14\nupdate -p serde --precise 1.0.123\n"
	if string(data) != want {
		t.Errorf("cargo calls =\n%s\nwant\n%s", data, want)
	}
	if !strings.Contains(status.String(), "Pinned 2 crates") {
		t.Errorf("status output missing summary:\n%s", status.String())
	}
}

func TestRegistryFromEnvironment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crates/serde" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"versions": [
			{"num": "1.0.124", "created_at": "2021-03-06T01:12:43.000000+00:00", "yanked": false},
			{"num": "1.0.123", "created_at": "2021-01-25T20:57:16.000000+00:00", "yanked": false}
		]}`))
	}))
	defer server.Close()

	t.Setenv(config.EnvRegistryURL, server.URL)
	t.Setenv(config.EnvRequestInterval, "0s")

	c, _, _ := testCLI(t, nil)
	got, err := execute(c, "this", "serde", "--date", "2021-02-01")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if want := "serde = \"=1.0.123\"\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestCompletionCommand(t *testing.T) {
	c, _, _ := testCLI(t, nil)
	got, err := execute(c, "completion", "bash")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(got, "rewind") {
		t.Error("bash completion should mention the command name")
	}
}

func TestFailedPinIsReported(t *testing.T) {
	c, path, status := testCLI(t, fakeSource(testVersions))
	t.Setenv(config.EnvCargo, writeScript(t, t.TempDir(), "cargo", "exit 101\n"))

	if _, err := execute(c, "all", "--date", "2021-02-01", "--level", "1", "--run", "-f", path); err != nil {
		t.Fatalf("a failing pin should not fail the run: %v", err)
	}
	for _, want := range []string{"cargo update -p log --precise 0.4.14", "2 failed"} {
		if !strings.Contains(status.String(), want) {
			t.Errorf("status output missing %q:\n%s", want, status.String())
		}
	}
}

func TestVerboseRegistersLogHooks(t *testing.T) {
	t.Cleanup(observability.Reset)

	var logs bytes.Buffer
	c, _, _ := testCLI(t, fakeSource(testVersions))
	c.Logger = newLogger(&logs, LogDebug)

	if _, err := execute(c, "this", "serde", "--date", "2021-02-01"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, ok := observability.Resolve().(*logHooks); !ok {
		t.Fatalf("resolve hooks = %T, want *logHooks", observability.Resolve())
	}
	if !strings.Contains(logs.String(), "picked") {
		t.Errorf("debug log missing resolve event:\n%s", logs.String())
	}
}

func TestVersionFlag(t *testing.T) {
	c, _, _ := testCLI(t, nil)
	got, err := execute(c, "--version")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(got, "rewind version ") {
		t.Errorf("output = %q", got)
	}
}

func TestRateLimitedEverywhereIsFatal(t *testing.T) {
	source := downgrade.VersionSourceFunc(func(_ context.Context, name string) ([]downgrade.VersionRecord, error) {
		cause := rwerrors.Wrap(rwerrors.ErrCodeRateLimited, &rwerrors.RateLimitedError{RetryAfter: 60}, "crates.io is throttling requests")
		return nil, rwerrors.Wrap(rwerrors.ErrCodeRegistryFetch, cause, "crate %s", name)
	})
	c, _, _ := testCLI(t, source)
	_, err := execute(c, "this", "serde", "--date", "2021-02-01")
	if !rwerrors.Is(err, rwerrors.ErrCodeNetwork) {
		t.Errorf("err = %v, want code %s", err, rwerrors.ErrCodeNetwork)
	}
}
