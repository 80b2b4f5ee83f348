package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/silo/internal/session"
	"github.com/roach88/silo/internal/testutil"
)

// testEnv is a config file and database in a temp dir.
type testEnv struct {
	dir       string
	db        string
	cfg       string
	clock     *testutil.DeterministicClock
	connector session.Connector
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:   dir,
		db:    filepath.Join(dir, "silo.db"),
		cfg:   filepath.Join(dir, "config.yaml"),
		clock: testutil.NewDeterministicClock(1_700_000_000_000, 1),
	}
	env.write(t, "config.yaml", `
user_id: 7
reconnect:
  max_attempts: 2
  base_delay: 1ms
  max_delay: 2ms
  rate: 1000
`)
	return env
}

// write creates a file in the env dir and returns its path.
func (e *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (e *testEnv) run(args ...string) (stdout, stderr string, code int) {
	opts := &RootOptions{
		Clock:     e.clock,
		TraceIDs:  testutil.NewFixedTraceGenerator("trace-1"),
		Connector: e.connector,
	}
	full := append([]string{"--config", e.cfg, "--db", e.db}, args...)

	var out, errOut bytes.Buffer
	code = execute(context.Background(), opts, full, &out, &errOut)
	return out.String(), errOut.String(), code
}

// mustRun runs a text command and fails the test on a non-zero exit.
func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, code := e.run(args...)
	require.Equal(t, ExitSuccess, code, "silo %v\nstdout: %s\nstderr: %s", args, stdout, stderr)
	return stdout
}

type jsonResponse[T any] struct {
	Status  string    `json:"status"`
	Data    T         `json:"data"`
	Error   *CLIError `json:"error"`
	TraceID string    `json:"trace_id"`
}

// runJSON runs a command with --format json and decodes its response.
func runJSON[T any](t *testing.T, e *testEnv, args ...string) (jsonResponse[T], int) {
	t.Helper()
	stdout, stderr, code := e.run(append([]string{"--format", "json"}, args...)...)

	var resp jsonResponse[T]
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), "stdout: %s\nstderr: %s", stdout, stderr)
	return resp, code
}

// mustJSON is runJSON for commands expected to succeed.
func mustJSON[T any](t *testing.T, e *testEnv, args ...string) T {
	t.Helper()
	resp, code := runJSON[T](t, e, args...)
	require.Equal(t, ExitSuccess, code, "silo %v: %+v", args, resp.Error)
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

// auditActions returns the action column of an auditlog result.
func auditActions(r RowsResult) []string {
	actions := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		actions[i], _ = row.Values[3].(string)
	}
	return actions
}
