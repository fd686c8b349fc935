package main

import (
	"os"

	"github.com/spf13/cobra"

	"embedflow/internal/analysis"
	"embedflow/internal/config"
)

var treeFlags struct {
	config string
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Select a model and build a bootstrap tree with IQ-TREE",
	Long: "Run IQ-TREE model selection on the alignment (iqtree.alignment, or\n" +
		"famsa.output_fasta when unset), then infer the tree with the best-fit\n" +
		"model and iqtree.bootstrap ultrafast bootstrap replicates (default 1000).",
	Args: cobra.NoArgs,
	RunE: runTree,
}

func init() {
	treeCmd.Flags().StringVarP(&treeFlags.config, "config", "c", os.Getenv(configEnv), "Path to the configuration file")
}

func runTree(cmd *cobra.Command, _ []string) error {
	doc, err := loadDocument(treeFlags.config)
	if err != nil {
		return err
	}
	cfg, err := config.ValidateIQTree(doc)
	if err != nil {
		return config.WithPath(err, treeFlags.config)
	}
	_, err = analysis.NewSession(cmd.OutOrStdout(), analysis.IQTreeTag).Tree(cmd.Context(), cfg)
	return err
}
