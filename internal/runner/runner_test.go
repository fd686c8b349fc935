package runner_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embedflow/internal/runner"
)

func sh(script string) runner.Command {
	return runner.Command{Program: "/bin/sh", Args: []string{"-c", script}}
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
}

func TestRun_SurfacesEveryLineInOrder(t *testing.T) {
	skipWithoutShell(t)
	var out bytes.Buffer
	r := runner.New(&out, "[EMBED]")

	res, err := r.Run(context.Background(), sh(`echo one; echo two >&2; echo three`), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, 3, res.Lines)
	assert.Equal(t, 3, res.Surfaced)
	assert.Equal(t, "[EMBED]one\n[EMBED]two\n[EMBED]three\n", out.String())
}

func TestRun_FilterKeepsOnlyProgressLines(t *testing.T) {
	skipWithoutShell(t)
	var out bytes.Buffer
	r := runner.New(&out, "[EMBED]")

	script := `echo "loading model"; echo " 10%|#"; echo "warning: noisy"; echo "100%|##########"; echo "done 50%"`
	res, err := r.Run(context.Background(), sh(script), runner.ProgressFilter)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Lines)
	assert.Equal(t, 2, res.Surfaced)
	assert.Equal(t, "[EMBED] 10%|#\n[EMBED]100%|##########\n", out.String())
}

func TestRun_CarriageReturnSplitsLines(t *testing.T) {
	skipWithoutShell(t)
	var out bytes.Buffer
	r := runner.New(&out, ">")

	_, err := r.Run(context.Background(), sh(`printf ' 1%%\r 2%%\r 3%%\r\nend'`), nil)
	require.NoError(t, err)
	assert.Equal(t, "> 1%\n> 2%\n> 3%\n>end\n", out.String())
}

func TestRun_NonZeroExit(t *testing.T) {
	skipWithoutShell(t)
	var out bytes.Buffer
	r := runner.New(&out, "")

	cmd := sh(`echo before; exit 3`)
	res, err := r.Run(context.Background(), cmd, nil)
	require.Error(t, err)

	var stageErr *runner.StageExecutionError
	require.True(t, errors.As(err, &stageErr), "want *StageExecutionError, got %T", err)
	assert.Equal(t, 3, stageErr.ExitCode)
	assert.Equal(t, cmd.Argv(), stageErr.Command)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "before\n", out.String(), "output produced before the failure must still be surfaced")
	assert.Contains(t, err.Error(), "non-zero exit status 3")
}

func TestRun_MissingProgram(t *testing.T) {
	r := runner.New(&bytes.Buffer{}, "")
	_, err := r.Run(context.Background(), runner.Command{Program: filepath.Join(t.TempDir(), "nope")}, nil)

	var stageErr *runner.StageExecutionError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, -1, stageErr.ExitCode)
	assert.NotNil(t, stageErr.Err)
}

// The child writes far more than a pipe buffer holds; the drain must keep up
// while it runs or the child would block forever.
func TestRun_LargeOutputDoesNotStall(t *testing.T) {
	skipWithoutShell(t)
	var out bytes.Buffer
	r := runner.New(&out, "")

	const n = 50000
	res, err := r.Run(context.Background(), sh(fmt.Sprintf(`i=0; while [ $i -lt %d ]; do echo "line $i"; i=$((i+1)); done`, n)), nil)
	require.NoError(t, err)
	assert.Equal(t, n, res.Lines)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, n)
	assert.Equal(t, "line 0", lines[0])
	assert.Equal(t, fmt.Sprintf("line %d", n-1), lines[n-1])
}

func TestRun_EnvAndDir(t *testing.T) {
	skipWithoutShell(t)
	dir := t.TempDir()
	var out bytes.Buffer
	r := runner.New(&out, "")

	cmd := sh(`echo "$GREETING"; pwd`)
	cmd.Dir = dir
	cmd.Env = map[string]string{"GREETING": "hello"}
	_, err := r.Run(context.Background(), cmd, nil)
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "hello", lines[0])
	got, err := filepath.EvalSymlinks(lines[1])
	require.NoError(t, err)
	assert.Equal(t, resolved, got)
}

func TestProbe(t *testing.T) {
	skipWithoutShell(t)
	code, err := runner.Probe(context.Background(), sh(`echo noise; exit 0`))
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	code, err = runner.Probe(context.Background(), sh(`exit 7`))
	require.NoError(t, err)
	assert.Equal(t, 7, code)

	_, err = runner.Probe(context.Background(), runner.Command{Program: filepath.Join(os.TempDir(), "embedflow-no-such-binary")})
	assert.Error(t, err)
}

func TestCommandString(t *testing.T) {
	cmd := runner.Command{Program: "bio_embeddings", Args: []string{"/tmp/my config.yml", "--overwrite"}}
	assert.Equal(t, `bio_embeddings "/tmp/my config.yml" --overwrite`, cmd.String())
	assert.Equal(t, []string{"bio_embeddings", "/tmp/my config.yml", "--overwrite"}, cmd.Argv())
}
