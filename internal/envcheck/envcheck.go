// Package envcheck verifies that an external tool environment (a virtualenv
// or conda prefix) exposes an interpreter and a named package.
package envcheck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"embedflow/internal/logging"
	"embedflow/internal/runner"
)

// Interpreter returns the Python interpreter inside an environment root.
func Interpreter(root string) string {
	return filepath.Join(root, "bin", "python")
}

// Binary returns the path of an executable installed in an environment root.
func Binary(root, name string) string {
	return filepath.Join(root, "bin", name)
}

// Printer receives the one-line verdicts of a check.
type Printer interface {
	Printf(format string, args ...any)
}

// Checker probes environments. The zero value probes silently.
type Checker struct {
	Out Printer

	// probe is swapped in tests.
	probe func(ctx context.Context, cmd runner.Command) (int, error)
}

// New returns a Checker reporting to out.
func New(out Printer) *Checker {
	return &Checker{Out: out}
}

// HasPackage reports whether pkg can be imported with the interpreter of
// the environment at root. It never fails: a missing interpreter, a probe
// that cannot start and a failed import all yield false.
func (c *Checker) HasPackage(ctx context.Context, root, pkg string) bool {
	log := logging.Component(ctx, "envcheck")
	python := Interpreter(root)
	if _, err := os.Stat(python); err != nil {
		c.printf("Environment not found at %s", root)
		log.Debug("interpreter missing", "root", root, "error", err)
		return false
	}

	probe := c.probe
	if probe == nil {
		probe = runner.Probe
	}
	code, err := probe(ctx, runner.Command{Program: python, Args: []string{"-c", "import " + pkg}})
	if err != nil || code != 0 {
		c.printf("'%s' is NOT installed in environment: %s", pkg, root)
		log.Debug("capability probe failed", "root", root, "package", pkg, "exit_code", code, "error", err)
		return false
	}
	c.printf("'%s' is installed in environment: %s", pkg, root)
	return true
}

// Require is HasPackage for mandatory capabilities.
func (c *Checker) Require(ctx context.Context, root, pkg string) error {
	if !c.HasPackage(ctx, root, pkg) {
		return &Error{Root: root, Package: pkg}
	}
	return nil
}

func (c *Checker) printf(format string, args ...any) {
	if c.Out != nil {
		c.Out.Printf(format, args...)
	}
}

// Error reports an environment that lacks a mandatory package.
type Error struct {
	Root    string
	Package string
}

func (e *Error) Error() string {
	return fmt.Sprintf("environment %s does not provide '%s'", e.Root, e.Package)
}
