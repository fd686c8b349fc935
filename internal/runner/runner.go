// Package runner executes one external tool and streams its combined
// stdout/stderr line by line while the process runs.
//
// Output is surfaced as it arrives, optionally filtered, each line prefixed
// with a fixed tag. A non-zero exit status becomes a *StageExecutionError.
// Processes are never killed or timed out; they are always awaited to their
// natural exit.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"embedflow/internal/logging"
)

// maxLineBytes bounds a single output line. A longer line fails the run
// after the rest of the output has been discarded.
const maxLineBytes = 4 << 20

// Command is a program plus its arguments.
type Command struct {
	Program string
	Args    []string

	// Dir is the working directory; empty means the current one.
	Dir string
	// Env is appended to the current environment.
	Env map[string]string
}

// Argv returns the program followed by its arguments.
func (c Command) Argv() []string {
	return append([]string{c.Program}, c.Args...)
}

func (c Command) String() string {
	parts := c.Argv()
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t\"'") {
			parts[i] = fmt.Sprintf("%q", p)
		}
	}
	return strings.Join(parts, " ")
}

// Filter decides whether a line is surfaced. It sees the line without its
// terminator.
type Filter func(line string) bool

// MatchRegexp returns a Filter keeping lines that match expr.
func MatchRegexp(expr string) Filter {
	re := regexp.MustCompile(expr)
	return re.MatchString
}

// ProgressFilter keeps percentage progress lines such as "  42%|####".
var ProgressFilter = MatchRegexp(`^\s*\d+%`)

// Result describes a finished invocation.
type Result struct {
	ExitCode int
	// Lines is every line read from the process.
	Lines int
	// Surfaced is the number of lines that passed the filter.
	Surfaced int
}

// Runner streams subprocess output to Out with Prefix on every line.
type Runner struct {
	Out    io.Writer
	Prefix string
}

// New returns a Runner writing to out. A nil out means os.Stdout.
func New(out io.Writer, prefix string) *Runner {
	if out == nil {
		out = os.Stdout
	}
	return &Runner{Out: out, Prefix: prefix}
}

// Run starts cmd, drains its combined output concurrently with the process,
// and waits for it to exit. A nil filter surfaces every line.
func (r *Runner) Run(ctx context.Context, cmd Command, filter Filter) (*Result, error) {
	log := logging.Component(ctx, "runner")

	pr, pw, err := os.Pipe()
	if err != nil {
		return &Result{ExitCode: -1}, &StageExecutionError{Command: cmd.Argv(), ExitCode: -1, Err: fmt.Errorf("create output pipe: %w", err)}
	}

	c := exec.Command(cmd.Program, cmd.Args...)
	setup(c, cmd)
	// One pipe for both streams keeps lines in the order the child wrote them.
	c.Stdout = pw
	c.Stderr = pw

	if err := c.Start(); err != nil {
		pr.Close()
		pw.Close()
		return &Result{ExitCode: -1}, &StageExecutionError{Command: cmd.Argv(), ExitCode: -1, Err: err}
	}
	// The child holds its own copy of the write end; ours must go so that
	// the reader sees EOF once the child exits.
	pw.Close()
	log.Debug("process started", "command", cmd.String(), "pid", c.Process.Pid)

	res := &Result{}
	var g errgroup.Group
	g.Go(func() error {
		defer pr.Close()
		return r.drain(pr, filter, res)
	})

	waitErr := c.Wait()
	drainErr := g.Wait()

	res.ExitCode = exitCode(c, waitErr)
	log.Debug("process exited", "command", cmd.String(), "exit_code", res.ExitCode, "lines", res.Lines, "surfaced", res.Surfaced)

	if res.ExitCode != 0 {
		return res, &StageExecutionError{Command: cmd.Argv(), ExitCode: res.ExitCode, Err: waitErr}
	}
	if waitErr != nil {
		return res, &StageExecutionError{Command: cmd.Argv(), ExitCode: -1, Err: waitErr}
	}
	if drainErr != nil {
		return res, fmt.Errorf("read output of %s: %w", cmd.Program, drainErr)
	}
	return res, nil
}

// Probe runs cmd with all output discarded and returns its exit code.
// The error is non-nil only when the process could not be started.
func Probe(ctx context.Context, cmd Command) (int, error) {
	c := exec.Command(cmd.Program, cmd.Args...)
	setup(c, cmd)
	err := c.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		logging.Component(ctx, "runner").Debug("probe failed", "command", cmd.String(), "exit_code", exitErr.ExitCode())
		return exitErr.ExitCode(), nil
	default:
		return -1, err
	}
}

func (r *Runner) drain(src io.Reader, filter Filter, res *Result) error {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	sc.Split(scanLines)
	for sc.Scan() {
		line := sc.Text()
		res.Lines++
		if filter != nil && !filter(line) {
			continue
		}
		res.Surfaced++
		if _, err := fmt.Fprintf(r.Out, "%s%s\n", r.Prefix, strings.TrimRightFunc(line, unicode.IsSpace)); err != nil {
			// Keep consuming so the child never blocks on a full pipe.
			_, _ = io.Copy(io.Discard, src)
			return err
		}
	}
	if err := sc.Err(); err != nil {
		_, _ = io.Copy(io.Discard, src)
		return err
	}
	return nil
}

// scanLines splits on "\n", "\r\n" and a bare "\r". Progress bars redraw
// with "\r", and each redraw counts as its own line.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// A trailing "\r" may be the first half of "\r\n".
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func setup(c *exec.Cmd, cmd Command) {
	if cmd.Dir != "" {
		c.Dir = cmd.Dir
	}
	if len(cmd.Env) > 0 {
		c.Env = os.Environ()
		for k, v := range cmd.Env {
			c.Env = append(c.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}
}

func exitCode(c *exec.Cmd, err error) int {
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		return exitErr.ExitCode()
	case c.ProcessState != nil:
		return c.ProcessState.ExitCode()
	default:
		return -1
	}
}
