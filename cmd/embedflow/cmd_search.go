package main

import (
	"os"

	"github.com/spf13/cobra"

	"embedflow/internal/analysis"
	"embedflow/internal/config"
)

var searchFlags struct {
	config string
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run MMseqs2 easy-search as configured in the mmseqs section",
	Long: "Search the query FASTA against the target with MMseqs2 easy-search and\n" +
		"write a tab-separated result table. An exe of the form wsl:<name> runs\n" +
		"the tool through WSL with every path translated to /mnt/<drive>/.",
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchFlags.config, "config", "c", os.Getenv(configEnv), "Path to the configuration file")
}

func runSearch(cmd *cobra.Command, _ []string) error {
	doc, err := loadDocument(searchFlags.config)
	if err != nil {
		return err
	}
	cfg, err := config.ValidateMMseqs(doc)
	if err != nil {
		return config.WithPath(err, searchFlags.config)
	}
	_, err = analysis.NewSession(cmd.OutOrStdout(), analysis.MMseqsTag).Search(cmd.Context(), cfg)
	return err
}
