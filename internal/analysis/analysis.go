// Package analysis runs the standalone sequence workflows that sit next to
// the embedding pipeline: FAMSA multiple sequence alignment, MMseqs2
// easy-search and IQ-TREE model selection followed by a bootstrap tree.
//
// Each workflow checks its tool and inputs first, then runs the tool through
// runner.Runner and reports progress on a tagged console.
package analysis

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"

	"embedflow/internal/logging"
	"embedflow/internal/runner"
)

// Console tags of the three workflows.
const (
	FamsaTag  = "[FAMSA]"
	MMseqsTag = "[MMSEQS]"
	IQTreeTag = "[IQTREE]"
)

// Session carries the console and runner one workflow writes to. Tool
// output is relayed with the same tag as the console lines.
type Session struct {
	Console *logging.Console
	Runner  *runner.Runner
}

// NewSession returns a Session writing tagged lines to out.
func NewSession(out io.Writer, tag string) *Session {
	c := logging.NewTaggedConsole(out, tag)
	return &Session{Console: c, Runner: runner.New(c.Writer(), c.Prefix())}
}

// ToolMissingError reports an executable that is neither a path to a
// program nor found on PATH.
type ToolMissingError struct {
	Tool string
	Exe  string
	// Hint is a command that installs the tool.
	Hint string
}

func (e *ToolMissingError) Error() string {
	msg := fmt.Sprintf("%s is not installed in your environment (%s not found)", e.Tool, e.Exe)
	if e.Hint != "" {
		msg += fmt.Sprintf(". Can be installed with the following command: %s", e.Hint)
	}
	return msg
}

// lookTool resolves exe like a shell would.
func lookTool(tool, exe, hint string) (string, error) {
	path, err := exec.LookPath(exe)
	if err != nil {
		return "", &ToolMissingError{Tool: tool, Exe: exe, Hint: hint}
	}
	return path, nil
}

// InputError reports a missing input file.
type InputError struct {
	Kind string
	Path string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Path)
}

func requireFile(kind, path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &InputError{Kind: kind, Path: path}
	case err != nil:
		return fmt.Errorf("stat %s: %w", kind, err)
	case info.IsDir():
		return fmt.Errorf("%s %s is a directory", kind, path)
	}
	return nil
}
