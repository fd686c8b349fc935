package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"embedflow/internal/analysis"
	"embedflow/internal/config"
)

var alignFlags struct {
	config string
}

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Align the sequences of the famsa section with FAMSA",
	Args:  cobra.NoArgs,
	RunE:  runAlign,
}

func init() {
	alignCmd.Flags().StringVarP(&alignFlags.config, "config", "c", os.Getenv(configEnv), "Path to the configuration file")
}

func runAlign(cmd *cobra.Command, _ []string) error {
	doc, err := loadDocument(alignFlags.config)
	if err != nil {
		return err
	}
	cfg, err := config.ValidateFamsa(doc)
	if err != nil {
		return config.WithPath(err, alignFlags.config)
	}
	return analysis.NewSession(cmd.OutOrStdout(), analysis.FamsaTag).Align(cmd.Context(), cfg)
}

// loadDocument reads the configuration for the standalone tool commands.
func loadDocument(path string) (map[string]any, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required (or set %s)", configEnv)
	}
	return config.LoadDocument(path)
}
