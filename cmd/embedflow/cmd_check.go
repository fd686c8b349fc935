package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"embedflow/internal/pipeline"
)

var checkFlags struct {
	config string
}

var checkCmd = &cobra.Command{
	Use:   "check-env",
	Short: "Verify that both tool environments provide their packages",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkFlags.config, "config", "c", os.Getenv(configEnv), "Path to the configuration file")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	if checkFlags.config == "" {
		return fmt.Errorf("--config is required (or set %s)", configEnv)
	}
	return pipeline.Check(cmd.Context(), checkFlags.config, cmd.OutOrStdout())
}
