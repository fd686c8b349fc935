package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"embedflow/internal/logging"
	"embedflow/internal/runner"
	"embedflow/internal/workflow"
)

// StageError names the stage at which a run halted.
type StageError struct {
	Index int // 1-based
	Name  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("Stage %d (%s) failed: %v", e.Index, e.Name, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Printer receives the controller's progress lines.
type Printer interface {
	Printf(format string, args ...any)
}

// Controller executes stages strictly in order and stops at the first
// failure. State is persisted to Dir after every transition when set.
type Controller struct {
	Runner *runner.Runner
	Out    Printer
	Dir    *workflow.Dir
}

// Execute runs every stage. The returned state reflects the last persisted
// transition even when err is non-nil.
func (c *Controller) Execute(ctx context.Context, label string, stages []Stage) (*RunState, error) {
	log := logging.Component(ctx, "pipeline")
	var root string
	if c.Dir != nil {
		root = c.Dir.Path()
	}
	st := InitState(label, root, stages)
	log = log.With("run_id", st.RunID)
	if err := c.save(st); err != nil {
		return st, err
	}

	for i, s := range stages {
		if err := ctx.Err(); err != nil {
			return st, &StageError{Index: i + 1, Name: s.Name, Err: err}
		}
		log.Info("stage starting", "stage", i+1, "name", s.Name, "command", s.Command.String())
		if err := st.Advance(i, StatusRunning, 0, nil); err != nil {
			return st, err
		}
		if err := c.save(st); err != nil {
			return st, err
		}

		code, err := c.runStage(ctx, s)
		if err != nil {
			log.Error("stage failed", "stage", i+1, "name", s.Name, "exit_code", code, "error", err)
			if aerr := st.Advance(i, StatusFailed, code, err); aerr != nil {
				return st, aerr
			}
			if serr := c.save(st); serr != nil {
				log.Warn("persist failed state", "error", serr)
			}
			return st, &StageError{Index: i + 1, Name: s.Name, Err: err}
		}

		if err := st.Advance(i, StatusSucceeded, code, nil); err != nil {
			return st, err
		}
		if err := c.save(st); err != nil {
			return st, err
		}
		log.Info("stage succeeded", "stage", i+1, "name", s.Name, "output", s.Output, "size", outputSize(s.Output))
		if s.Done != "" {
			c.printf("%s", s.Done)
		}
	}

	if err := st.Complete(); err != nil {
		return st, err
	}
	return st, c.save(st)
}

func (c *Controller) runStage(ctx context.Context, s Stage) (int, error) {
	if s.Prepare != nil {
		if err := s.Prepare(); err != nil {
			return -1, err
		}
	}
	r := c.Runner
	if r == nil {
		r = runner.New(nil, logging.Tag)
	}
	res, err := r.Run(ctx, s.Command, s.Filter)
	code := -1
	if res != nil {
		code = res.ExitCode
	}
	if err != nil {
		return code, err
	}
	if s.Finish != nil {
		if err := s.Finish(); err != nil {
			return code, err
		}
	}
	return code, nil
}

func (c *Controller) save(st *RunState) error {
	if c.Dir == nil {
		return nil
	}
	return SaveState(c.Dir, st)
}

func (c *Controller) printf(format string, args ...any) {
	if c.Out != nil {
		c.Out.Printf(format, args...)
	}
}

// outputSize describes a stage artifact for the log; directories and
// missing outputs are reported as such.
func outputSize(path string) string {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "missing"
	case err != nil:
		return "unknown"
	case info.IsDir():
		return "directory"
	default:
		return humanize.Bytes(uint64(info.Size()))
	}
}
