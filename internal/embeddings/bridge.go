package embeddings

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"embedflow/internal/logging"
	"embedflow/internal/runner"
)

//go:embed h5bridge.py
var bridgeScript string

// Bridge reads and writes HDF5 containers through an h5py-capable
// interpreter, typically the one of the embedding environment.
type Bridge struct {
	Python string
	Runner *runner.Runner
	// TempDir holds the exchange files; empty means os.TempDir.
	TempDir string
}

func (b *Bridge) run(ctx context.Context, args ...string) error {
	cmd := runner.Command{Program: b.Python, Args: append([]string{"-c", bridgeScript}, args...)}
	if _, err := b.Runner.Run(ctx, cmd, nil); err != nil {
		return fmt.Errorf("h5 bridge %s: %w", args[0], err)
	}
	return nil
}

// List returns the entries of the container at path.
func (b *Bridge) List(ctx context.Context, path string) ([]Entry, error) {
	tmp, err := os.MkdirTemp(b.TempDir, "embedflow-h5-")
	if err != nil {
		return nil, fmt.Errorf("create exchange dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	listing := filepath.Join(tmp, "entries.json")
	if err := b.run(ctx, "list", path, listing); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(listing)
	if err != nil {
		return nil, fmt.Errorf("read entry listing: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse entry listing: %w", err)
	}
	return entries, nil
}

// Copy writes dst with every dataset of src stored under its new name,
// attributes included.
func (b *Bridge) Copy(ctx context.Context, src, dst string, renames []Rename) error {
	tmp, err := os.MkdirTemp(b.TempDir, "embedflow-h5-")
	if err != nil {
		return fmt.Errorf("create exchange dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	plan := filepath.Join(tmp, "renames.json")
	data, err := json.Marshal(renames)
	if err != nil {
		return fmt.Errorf("marshal rename plan: %w", err)
	}
	if err := os.WriteFile(plan, data, 0644); err != nil {
		return fmt.Errorf("write rename plan: %w", err)
	}
	return b.run(ctx, "copy", src, dst, plan)
}

// RenameFile renames every entry of src by its stored identifier and writes
// the result to dst. It returns the number of entries written.
func RenameFile(ctx context.Context, b *Bridge, src, dst string) (int, error) {
	log := logging.Component(ctx, "embeddings")
	entries, err := b.List(ctx, src)
	if err != nil {
		return 0, err
	}
	renames, err := PlanRenames(entries)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, r := range renames {
		if r.From != r.To {
			changed++
		}
	}
	log.Debug("rename plan ready", "entries", len(renames), "renamed", changed)
	if err := b.Copy(ctx, src, dst, renames); err != nil {
		return 0, err
	}
	return len(renames), nil
}
