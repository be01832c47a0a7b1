package cutoff

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/rewind/pkg/errors"
)

func TestParse(t *testing.T) {
	want := time.Date(2021, 2, 22, 23, 16, 9, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc2822 gmt", "22 Feb 2021 23:16:09 GMT", want},
		{"rfc2822 offset", "23 Feb 2021 00:16:09 +0100", want},
		{"rfc1123", "Mon, 22 Feb 2021 23:16:09 GMT", want},
		{"rfc1123z", "Mon, 22 Feb 2021 23:16:09 +0000", want},
		{"rfc3339", "2021-02-22T23:16:09Z", want},
		{"rfc3339 offset", "2021-02-23T00:16:09+01:00", want},
		{"datetime", "2021-02-22 23:16:09", want},
		{"date only", "2021-02-22", time.Date(2021, 2, 22, 0, 0, 0, 0, time.UTC)},
		{"surrounding space", "  2021-02-22T23:16:09Z ", want},
		{"rfc2822 ut", "22 Feb 2021 23:16:09 UT", want},
		{"rfc2822 z", "22 Feb 2021 23:16:09 Z", want},
		{"rfc2822 utc", "22 Feb 2021 23:16:09 UTC", want},
		{"rfc2822 pst", "22 Feb 2021 15:16:09 PST", want},
		{"rfc2822 pdt", "22 Feb 2021 16:16:09 PDT", want},
		{"rfc2822 est", "Mon, 22 Feb 2021 18:16:09 EST", want},
		{"rfc2822 edt", "22 Feb 2021 19:16:09 EDT", want},
		{"rfc2822 cst", "22 Feb 2021 17:16:09 CST", want},
		{"rfc2822 cdt", "22 Feb 2021 18:16:09 CDT", want},
		{"rfc2822 mst", "22 Feb 2021 16:16:09 MST", want},
		{"rfc2822 mdt", "Mon, 22 Feb 2021 17:16:09 MDT", want},
		{"named zone crosses midnight", "22 Feb 2021 23:16:09 PST", time.Date(2021, 2, 23, 7, 16, 9, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "Parse(%q) = %v, want %v", tt.input, got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, input := range []string{"", "yesterday", "2021-13-45", "22/02/2021", "22 Feb 2021 23:16:09 XYZ", "Mon, 22 Feb 2021 23:16:09 CET"} {
		_, err := Parse(input)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidDate), "Parse(%q) error = %v", input, err)
	}
}

func TestCommitTime(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
			"GIT_COMMITTER_DATE=2021-02-22T23:16:09Z",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
	git("init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0644))
	git("add", "README")
	git("commit", "-q", "-m", "initial")

	got, err := Git{Dir: dir}.CommitTime(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2021, 2, 22, 23, 16, 9, 0, time.UTC)), "CommitTime = %v", got)
}

func TestCommitTimeErrors(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as fake git")
	}
	dir := t.TempDir()
	fake := filepath.Join(dir, "git")

	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\necho 'fatal: bad revision' >&2\nexit 128\n"), 0755))
	_, err := Git{Bin: fake}.CommitTime(context.Background(), "nope")
	assert.True(t, errors.Is(err, errors.ErrCodeGitDate))
	assert.Contains(t, err.Error(), "bad revision")

	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\necho garbage\n"), 0755))
	_, err = Git{Bin: fake}.CommitTime(context.Background(), "HEAD")
	assert.True(t, errors.Is(err, errors.ErrCodeGitDate))

	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\necho 1614035769\n"), 0755))
	got, err := Git{Bin: fake}.CommitTime(context.Background(), "HEAD")
	require.NoError(t, err)
	assert.Equal(t, int64(1614035769), got.Unix())
}
