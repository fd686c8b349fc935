package runner

import (
	"fmt"
	"strings"
)

// StageExecutionError reports a tool that could not start or exited non-zero.
// ExitCode is -1 when the process never ran or was terminated by a signal.
type StageExecutionError struct {
	Command  []string
	ExitCode int
	Err      error
}

func (e *StageExecutionError) Error() string {
	cmd := strings.Join(e.Command, " ")
	if e.ExitCode == -1 && e.Err != nil {
		return fmt.Sprintf("command '%s' could not be run: %v", cmd, e.Err)
	}
	return fmt.Sprintf("command '%s' returned non-zero exit status %d", cmd, e.ExitCode)
}

func (e *StageExecutionError) Unwrap() error { return e.Err }
