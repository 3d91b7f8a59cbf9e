package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/roach88/memimg/internal/testutil"
)

// cliRunner executes root commands against one log with deterministic IDs.
type cliRunner struct {
	t    *testing.T
	ids  *testutil.SequentialIDs
	base []string
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func (r cliResult) exitCode() int {
	return GetExitCode(r.err)
}

// newFileRunner targets a fresh file log in a temp directory.
func newFileRunner(t *testing.T) *cliRunner {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memimg.log")
	return &cliRunner{t: t, ids: testutil.NewSequentialIDs("acc"), base: []string{"--log-backend", "file", "--log-path", path}}
}

// newSQLiteRunner targets a fresh SQLite log in a temp directory.
func newSQLiteRunner(t *testing.T) *cliRunner {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memimg.db")
	return &cliRunner{t: t, ids: testutil.NewSequentialIDs("acc"), base: []string{"--log-backend", "sqlite", "--log-path", path}}
}

func (r *cliRunner) run(args ...string) cliResult {
	r.t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	cmd := newRootCommand(&RootOptions{NewID: r.ids.Next})
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append(append([]string{}, r.base...), args...))

	err := cmd.Execute()
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// mustRun fails the test unless the command exits 0.
func (r *cliRunner) mustRun(args ...string) string {
	r.t.Helper()
	res := r.run(args...)
	if res.err != nil {
		r.t.Fatalf("%v failed: %v\nstdout: %s\nstderr: %s", args, res.err, res.stdout, res.stderr)
	}
	return res.stdout
}
