package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"embedflow/internal/display"
	"embedflow/internal/format"
	"embedflow/internal/pipeline"
	"embedflow/internal/workflow"
)

var statusFlags struct {
	format string
}

var statusCmd = &cobra.Command{
	Use:   "status <workflow-dir>",
	Short: "Show the stage states recorded in a workflow directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFlags.format, "format", "table", "Output format: table or markdown")
}

func runStatus(cmd *cobra.Command, args []string) error {
	dir, err := workflow.Open(args[0])
	if err != nil {
		return err
	}
	state, err := pipeline.LoadState(dir)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	out := cmd.OutOrStdout()
	if state == nil {
		fmt.Fprintf(out, "No run state in %s\n", dir.Path())
		return nil
	}

	fmt.Fprintf(out, "Run:       %s\n", state.RunID)
	fmt.Fprintf(out, "Organism:  %s\n", state.Label)
	fmt.Fprintf(out, "Status:    %s\n", display.Status(string(state.Status)))
	fmt.Fprintf(out, "Elapsed:   %s\n", format.Elapsed(state.StartedAt, state.FinishedAt))

	tb := format.NewTable(format.ParseMode(statusFlags.format))
	tb.Header("#", "Stage", "Tool", "Status", "Exit", "Elapsed", "Output")
	tb.AlignRight(1, 5)
	var failed string
	for i, rec := range state.Stages {
		tb.Row(
			i+1,
			display.Stage(rec.Name),
			display.StageTool(rec.Name),
			display.StatusMark(string(rec.Status))+" "+display.Status(string(rec.Status)),
			display.ExitCode(rec.ExitCode),
			format.Elapsed(rec.StartedAt, rec.FinishedAt),
			format.FileSize(rec.Output),
		)
		if rec.Status == pipeline.StatusFailed {
			failed = fmt.Sprintf("%s: %s", display.StageWithIndex(i+1, rec.Name), format.Truncate(rec.Error, 160))
		}
	}
	fmt.Fprintln(out, tb.String())
	if failed != "" {
		fmt.Fprintf(out, "Failed at %s\n", failed)
	}
	return nil
}
