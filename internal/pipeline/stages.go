package pipeline

import (
	"fmt"
	"os"

	"embedflow/internal/config"
	"embedflow/internal/envcheck"
	"embedflow/internal/runner"
	"embedflow/internal/workflow"
)

// Stage names, in execution order.
const (
	StageCleanHeaders = "clean-headers"
	StageMergeHits    = "merge-hits"
	StageEmbed        = "embed"
	StageRenameIDs    = "rename-ids"
	StageVisualize    = "visualize"
)

// Packages that must be importable in each environment.
const (
	EmbedderPackage   = "bio_embeddings"
	VisualizerPackage = "protspace"
)

// Executables inside the environments.
const (
	EmbedderBinary   = "bio_embeddings"
	VisualizerBinary = "protspace-local"
)

// Stage describes one tool invocation. Inputs[0] is the previous stage's
// Output; further inputs come from the configuration.
type Stage struct {
	Name    string
	Command runner.Command
	Inputs  []string
	Output  string
	// Filter selects which tool lines reach the console; nil keeps all.
	Filter runner.Filter
	// Prepare runs before the command, Finish after it succeeded.
	Prepare func() error
	Finish  func() error
	// Done is printed once the stage succeeded.
	Done string
}

// Toolchain locates the programs the stages invoke besides the external
// tools found in the environments.
type Toolchain struct {
	// Helper is the embedflow binary providing clean-headers, merge-hits and
	// rename-ids.
	Helper string
}

// BuildStages derives the five stage descriptors from the configuration and
// the workflow directory. Every path is computed here, before anything runs.
func BuildStages(cfg *config.Section, dir *workflow.Dir, label string, tc Toolchain) []Stage {
	cleaned := dir.CleanedDataset()
	embedReady := dir.EmbedReadyDataset()
	embedderCfg := dir.EmbedderConfig()
	raw := dir.RawEmbeddings()
	plotReady := dir.PlotReadyEmbeddings()
	visOut := dir.ProtspaceOutput(label, cfg.ProtspaceMethods)

	return []Stage{
		{
			Name: StageCleanHeaders,
			Command: runner.Command{Program: tc.Helper, Args: []string{
				"clean-headers", "-i", cfg.BaseDatasetFile, "-o", cleaned,
			}},
			Inputs: []string{cfg.BaseDatasetFile},
			Output: cleaned,
			Done:   "Successfully cleaned headers from the base dataset.",
		},
		{
			Name: StageMergeHits,
			Command: runner.Command{Program: tc.Helper, Args: []string{
				"merge-hits", "-i", cfg.HitIDs, "-p", cfg.HitOrganismProteome, "-b", cleaned, "-o", embedReady,
			}},
			Inputs: []string{cleaned, cfg.HitIDs, cfg.HitOrganismProteome},
			Output: embedReady,
			Done:   "Successfully extracted and appended hit proteins.",
		},
		{
			Name: StageEmbed,
			Command: runner.Command{Program: envcheck.Binary(cfg.EnvBioEmbedding, EmbedderBinary), Args: []string{
				embedderCfg, "--overwrite",
			}},
			Inputs: []string{embedReady, embedderCfg},
			Output: raw,
			Filter: runner.ProgressFilter,
			Prepare: func() error {
				return WriteEmbedderConfig(embedderCfg, NewEmbedderConfig(embedReady, dir.EmbedderPrefix(), cfg))
			},
			Done: "Protein embeddings produced via bio_embeddings successfully.",
		},
		{
			Name: StageRenameIDs,
			Command: runner.Command{Program: tc.Helper, Args: []string{
				"rename-ids", "-i", raw, "-o", plotReady, "--python", envcheck.Interpreter(cfg.EnvBioEmbedding),
			}},
			Inputs: []string{raw},
			Output: plotReady,
			Done:   "Final embeddings successfully corrected and saved.",
		},
		{
			Name: StageVisualize,
			Command: runner.Command{Program: envcheck.Binary(cfg.EnvProtspace, VisualizerBinary), Args: []string{
				"-i", plotReady,
				"-o", visOut,
				"-m", cfg.ProtspaceMethods,
				"-f", cfg.ProtspaceFeatures,
				"--bundled", "false",
			}},
			Inputs: []string{plotReady},
			Output: visOut,
			Prepare: func() error {
				return os.MkdirAll(dir.ProtspaceRoot(), 0755)
			},
			Finish: func() error {
				return WriteStyleDescriptor(dir.StyleDescriptor(label, cfg.ProtspaceMethods),
					NewStyleDescriptor(label, cfg.HighlightColor, cfg.HighlightMarker))
			},
			Done: "Protspace visualization produced successfully.",
		},
	}
}

// VerifyChain checks that every stage consumes its predecessor's output.
func VerifyChain(stages []Stage) error {
	for i := 1; i < len(stages); i++ {
		prev, cur := stages[i-1], stages[i]
		if len(cur.Inputs) == 0 || cur.Inputs[0] != prev.Output {
			return fmt.Errorf("stage %s does not consume the output of %s (%s)", cur.Name, prev.Name, prev.Output)
		}
	}
	return nil
}
