// Package pipeline drives the five embedding stages: header cleanup, hit
// merge, embedding, identifier correction and visualization.
//
// A run validates the configuration, verifies both tool environments,
// creates a fresh workflow directory and then executes each stage in order.
// The first failure halts the run; artifacts of earlier stages stay on disk.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"embedflow/internal/config"
	"embedflow/internal/envcheck"
	"embedflow/internal/logging"
	"embedflow/internal/runner"
	"embedflow/internal/workflow"
)

// Options configures a run.
type Options struct {
	ConfigPath string
	// Label is the organism name highlighted in the visualization.
	Label string
	// Helper overrides the binary providing the built-in stages. Empty means
	// the running executable.
	Helper string
	// Out receives tagged console output. Nil means stdout.
	Out io.Writer
}

// Outcome summarizes a finished run.
type Outcome struct {
	Dir   *workflow.Dir
	State *RunState
}

// Run executes the whole pipeline. Errors are returned, not printed; the
// caller reports them as the single diagnostic line.
func Run(ctx context.Context, opts Options) (*Outcome, error) {
	if err := ValidateLabel(opts.Label); err != nil {
		return nil, err
	}
	console := logging.NewConsole(opts.Out)
	ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("organism_name", opts.Label))
	log := logging.Component(ctx, "pipeline")

	cfg, err := config.LoadFile(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	console.Printf("Configuration loaded successfully for organism_name '%s'.", opts.Label)

	if err := requireEnvironments(ctx, console, cfg); err != nil {
		return nil, err
	}

	dir, err := workflow.Create(cfg.WorkflowLocation, cfg.WorkflowName)
	if err != nil {
		return nil, err
	}
	console.Printf("Workflow directory created under: %s", dir.Path())
	log.Info("workflow directory created", "path", dir.Path())

	helper, err := resolveHelper(opts.Helper)
	if err != nil {
		return &Outcome{Dir: dir}, err
	}
	stages := BuildStages(cfg, dir, opts.Label, Toolchain{Helper: helper})
	if err := VerifyChain(stages); err != nil {
		return &Outcome{Dir: dir}, err
	}

	ctrl := &Controller{
		Runner: runner.New(console.Writer(), console.Prefix()),
		Out:    console,
		Dir:    dir,
	}
	st, err := ctrl.Execute(ctx, opts.Label, stages)
	if err != nil {
		return &Outcome{Dir: dir, State: st}, err
	}
	console.Printf("Pipeline completed successfully.")
	return &Outcome{Dir: dir, State: st}, nil
}

// Check loads the configuration and probes both environments without
// creating anything. It reports every missing capability, not only the first.
func Check(ctx context.Context, configPath string, out io.Writer) error {
	console := logging.NewConsole(out)
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}
	checker := envcheck.New(console)
	var missing []string
	for _, env := range environments(cfg) {
		if !checker.HasPackage(ctx, env.root, env.pkg) {
			missing = append(missing, fmt.Sprintf("'%s' in %s", env.pkg, env.root))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("environment check failed: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateLabel rejects labels that cannot name an output directory.
func ValidateLabel(label string) error {
	switch {
	case strings.TrimSpace(label) == "":
		return fmt.Errorf("organism_name must not be empty")
	case strings.ContainsAny(label, `/\`):
		return fmt.Errorf("organism_name %q must not contain a path separator", label)
	}
	return nil
}

type environment struct {
	root, pkg string
}

func environments(cfg *config.Section) []environment {
	return []environment{
		{cfg.EnvBioEmbedding, EmbedderPackage},
		{cfg.EnvProtspace, VisualizerPackage},
	}
}

func requireEnvironments(ctx context.Context, console *logging.Console, cfg *config.Section) error {
	checker := envcheck.New(console)
	for _, env := range environments(cfg) {
		if err := checker.Require(ctx, env.root, env.pkg); err != nil {
			return err
		}
	}
	return nil
}

func resolveHelper(helper string) (string, error) {
	if helper != "" {
		return helper, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate embedflow executable: %w", err)
	}
	return exe, nil
}
