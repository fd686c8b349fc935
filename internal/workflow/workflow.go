// Package workflow owns the per-run output directory and derives every
// artifact path inside it, so that no other package builds path strings.
package workflow

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirSuffix is appended to the lower-cased workflow name.
const DirSuffix = "_embedding_dir"

// Artifact file names, in the order the stages produce them.
const (
	CleanedDatasetFile      = "dataset_without_hits_cleaned.fasta"
	EmbedReadyDatasetFile   = "embed_ready_dataset.fasta"
	EmbedderConfigFile      = "bio_embedding_config.yml"
	EmbedderPrefixDir       = "bio_embeddings_out"
	RawEmbeddingsFile       = "stage_0/reduced_embeddings_file.h5"
	PlotReadyEmbeddingsFile = "reduced_embeddings_with_ids.h5"
	ProtspaceDir            = "protspace_output"
	StyleDescriptorFile     = "visualization_state.json"
	StateFile               = "pipeline_state.json"
)

// Dir is a workflow directory.
type Dir struct {
	path string
}

// Name returns the directory name derived from a workflow name.
func Name(workflowName string) string {
	return strings.ToLower(workflowName) + DirSuffix
}

// Path returns the directory path for workflowName under location.
func Path(location, workflowName string) string {
	return filepath.Join(location, Name(workflowName))
}

// Create makes a fresh workflow directory, including missing parents. It
// never reuses an existing one: if anything exists at the target path a
// *ConflictError is returned and nothing is touched.
func Create(location, workflowName string) (*Dir, error) {
	p := Path(location, workflowName)
	if _, err := os.Lstat(p); err == nil {
		return nil, &ConflictError{Path: p}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat workflow dir: %w", err)
	}
	if err := os.MkdirAll(location, 0755); err != nil {
		return nil, fmt.Errorf("create workflow location: %w", err)
	}
	// Mkdir, not MkdirAll: a directory created concurrently by another run
	// must surface as a conflict.
	if err := os.Mkdir(p, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, &ConflictError{Path: p}
		}
		return nil, fmt.Errorf("create workflow dir: %w", err)
	}
	return &Dir{path: p}, nil
}

// Open returns an existing workflow directory.
func Open(path string) (*Dir, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open workflow dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open workflow dir: %s is not a directory", path)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory itself.
func (d *Dir) Path() string { return d.path }

// Join returns a path inside the directory.
func (d *Dir) Join(elem ...string) string {
	return filepath.Join(append([]string{d.path}, elem...)...)
}

func (d *Dir) CleanedDataset() string      { return d.Join(CleanedDatasetFile) }
func (d *Dir) EmbedReadyDataset() string   { return d.Join(EmbedReadyDatasetFile) }
func (d *Dir) EmbedderConfig() string      { return d.Join(EmbedderConfigFile) }
func (d *Dir) EmbedderPrefix() string      { return d.Join(EmbedderPrefixDir) }
func (d *Dir) PlotReadyEmbeddings() string { return d.Join(PlotReadyEmbeddingsFile) }
func (d *Dir) ProtspaceRoot() string       { return d.Join(ProtspaceDir) }
func (d *Dir) StateFile() string           { return d.Join(StateFile) }

// RawEmbeddings is where the embedder writes its reduced embeddings,
// relative to EmbedderPrefix.
func (d *Dir) RawEmbeddings() string {
	return filepath.Join(d.EmbedderPrefix(), filepath.FromSlash(RawEmbeddingsFile))
}

// ProtspaceOutput is the visualization output directory for a label and a
// comma-separated method list.
func (d *Dir) ProtspaceOutput(label, methods string) string {
	return filepath.Join(d.ProtspaceRoot(), label+"_"+strings.ReplaceAll(methods, ",", "_"))
}

// StyleDescriptor is the styling document written next to the
// visualization output.
func (d *Dir) StyleDescriptor(label, methods string) string {
	return filepath.Join(d.ProtspaceOutput(label, methods), StyleDescriptorFile)
}

// ConflictError reports a workflow directory that already exists.
type ConflictError struct {
	Path string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cannot create workflow directory %s: it already exists", e.Path)
}
