package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"embedflow/internal/config"
	"embedflow/internal/logging"
	"embedflow/internal/runner"
)

const famsaHint = "conda install -c bioconda famsa"

// Align writes the multiple sequence alignment of cfg.InputFasta to
// cfg.OutputFasta.
func (s *Session) Align(ctx context.Context, cfg *config.Famsa) error {
	log := logging.Component(ctx, "famsa")
	exe, err := lookTool("FAMSA", cfg.Exe, famsaHint)
	if err != nil {
		return err
	}
	if err := requireFile("input", cfg.InputFasta); err != nil {
		return err
	}
	if dir := filepath.Dir(cfg.OutputFasta); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create alignment dir: %w", err)
		}
	}

	cmd := runner.Command{Program: exe, Args: []string{cfg.InputFasta, cfg.OutputFasta}}
	log.Info("aligning", "command", cmd.String())
	if _, err := s.Runner.Run(ctx, cmd, nil); err != nil {
		return fmt.Errorf("FAMSA failed to run: %w", err)
	}
	s.Console.Printf("Done!")
	return nil
}
