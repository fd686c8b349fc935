package analysis

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"embedflow/internal/config"
	"embedflow/internal/logging"
	"embedflow/internal/runner"
)

const iqtreeHint = "conda install -c bioconda iqtree"

var bestFitModel = regexp.MustCompile(`Best-fit model:\s+(\S+)`)

// ErrNoModel is returned when model selection names no best-fit model.
var ErrNoModel = errors.New("no best-fit model found in IQ-TREE output")

// Tree selects the best-fit substitution model for cfg.Alignment and then
// infers the tree with cfg.Bootstrap ultrafast bootstrap replicates. It
// returns the selected model.
func (s *Session) Tree(ctx context.Context, cfg *config.IQTree) (string, error) {
	log := logging.Component(ctx, "iqtree")
	exe, err := lookTool("IQ-TREE", cfg.Exe, iqtreeHint)
	if err != nil {
		return "", err
	}
	if err := requireFile("alignment", cfg.Alignment); err != nil {
		return "", err
	}

	// IQ-TREE output is kept off the console; only the model is reported.
	var model string
	selection := func(line string) bool {
		if m := bestFitModel.FindStringSubmatch(line); m != nil && model == "" {
			model = m[1]
		}
		log.Debug("model selection", "line", line)
		return false
	}
	s.Console.Printf("Running model selection...")
	cmd := runner.Command{Program: exe, Args: []string{"-s", cfg.Alignment, "-redo"}}
	if _, err := s.Runner.Run(ctx, cmd, selection); err != nil {
		return "", fmt.Errorf("IQ-TREE model selection failed: %w", err)
	}
	if model == "" {
		s.Console.Printf("No model found.")
		return "", ErrNoModel
	}
	s.Console.Printf("Best-fit model: %s", model)

	final := func(line string) bool {
		log.Debug("tree inference", "line", line)
		return false
	}
	s.Console.Printf("Running final IQ-TREE analysis...")
	cmd = runner.Command{Program: exe, Args: []string{
		"-s", cfg.Alignment,
		"-m", model,
		"-bb", strconv.Itoa(cfg.Bootstrap),
		"-redo",
	}}
	if _, err := s.Runner.Run(ctx, cmd, final); err != nil {
		return model, fmt.Errorf("IQ-TREE analysis failed: %w", err)
	}
	s.Console.Printf("IQ-TREE analysis completed.")
	return model, nil
}
