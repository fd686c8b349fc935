package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"embedflow/internal/embeddings"
	"embedflow/internal/fasta"
	"embedflow/internal/logging"
	"embedflow/internal/runner"
)

// The commands below implement stages 1, 2 and 4. The pipeline runs them as
// subprocesses of this same binary, so they are hidden from help output.

var cleanHeadersFlags struct {
	in, out string
}

var cleanHeadersCmd = &cobra.Command{
	Use:    "clean-headers",
	Short:  "Reduce every FASTA header to its accession",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		n, err := fasta.CleanFile(cleanHeadersFlags.in, cleanHeadersFlags.out)
		if err != nil {
			return err
		}
		logging.Component(cmd.Context(), "fasta").Debug("headers cleaned", "records", n, "output", cleanHeadersFlags.out)
		fmt.Fprintf(cmd.OutOrStdout(), "Cleaned %d headers into %s\n", n, cleanHeadersFlags.out)
		return nil
	},
}

var mergeHitsFlags struct {
	ids, proteome, base, out string
}

var mergeHitsCmd = &cobra.Command{
	Use:    "merge-hits",
	Short:  "Append proteome records matching the hit list to a dataset",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := mergeHitsFlags
		stats, err := fasta.MergeHits(f.ids, f.proteome, f.base, f.out)
		if err != nil {
			return err
		}
		if stats.Matches < stats.IDs {
			logging.Component(cmd.Context(), "fasta").Warn("some hit identifiers matched no proteome record", "ids", stats.IDs, "matches", stats.Matches)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Appended %d of %d hit proteins into %s\n", stats.Matches, stats.IDs, f.out)
		return nil
	},
}

var renameIDsFlags struct {
	in, out, python string
}

var renameIDsCmd = &cobra.Command{
	Use:    "rename-ids",
	Short:  "Rename HDF5 embedding entries by their stored original_id",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := renameIDsFlags
		b := &embeddings.Bridge{Python: f.python, Runner: runner.New(cmd.OutOrStdout(), "")}
		n, err := embeddings.RenameFile(cmd.Context(), b, f.in, f.out)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d embeddings into %s\n", n, f.out)
		return nil
	},
}

func init() {
	f := cleanHeadersCmd.Flags()
	f.StringVarP(&cleanHeadersFlags.in, "input", "i", "", "Input FASTA (required)")
	f.StringVarP(&cleanHeadersFlags.out, "output", "o", "", "Output FASTA (required)")
	_ = cleanHeadersCmd.MarkFlagRequired("input")
	_ = cleanHeadersCmd.MarkFlagRequired("output")

	f = mergeHitsCmd.Flags()
	f.StringVarP(&mergeHitsFlags.ids, "ids", "i", "", "File with one hit identifier per line (required)")
	f.StringVarP(&mergeHitsFlags.proteome, "proteome", "p", "", "Proteome FASTA to search (required)")
	f.StringVarP(&mergeHitsFlags.base, "base", "b", "", "Cleaned base dataset (required)")
	f.StringVarP(&mergeHitsFlags.out, "output", "o", "", "Output FASTA (required)")
	for _, name := range []string{"ids", "proteome", "base", "output"} {
		_ = mergeHitsCmd.MarkFlagRequired(name)
	}

	f = renameIDsCmd.Flags()
	f.StringVarP(&renameIDsFlags.in, "input", "i", "", "Raw embeddings container (required)")
	f.StringVarP(&renameIDsFlags.out, "output", "o", "", "Renamed embeddings container (required)")
	f.StringVar(&renameIDsFlags.python, "python", "python3", "Interpreter with h5py installed")
	_ = renameIDsCmd.MarkFlagRequired("input")
	_ = renameIDsCmd.MarkFlagRequired("output")
}
