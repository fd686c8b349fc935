package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"embedflow/internal/pipeline"
)

// configEnv supplies the default for --config.
const configEnv = "EMBEDFLOW_CONFIG"

var runFlags struct {
	config       string
	organismName string
	helper       string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the five-stage embedding workflow",
	Long: "Validate the configuration, verify both tool environments, create\n" +
		"<workflow_file_name>_embedding_dir and run every stage in order.\n" +
		"The run stops at the first failing stage; earlier outputs are kept.",
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runFlags.config, "config", "c", os.Getenv(configEnv), "Path to the configuration file (JSON, YAML or HCL)")
	f.StringVarP(&runFlags.organismName, "organism_name", "o", "", "Organism label highlighted in the visualization (required)")
	f.StringVar(&runFlags.helper, "helper", "", "Binary serving the built-in stages (default: this executable)")
	_ = f.MarkHidden("helper")

	_ = runCmd.MarkFlagRequired("organism_name")
}

func runRun(cmd *cobra.Command, _ []string) error {
	if runFlags.config == "" {
		return fmt.Errorf("--config is required (or set %s)", configEnv)
	}
	_, err := pipeline.Run(cmd.Context(), pipeline.Options{
		ConfigPath: runFlags.config,
		Label:      runFlags.organismName,
		Helper:     runFlags.helper,
		Out:        cmd.OutOrStdout(),
	})
	return err
}
