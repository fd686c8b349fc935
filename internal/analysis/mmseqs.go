package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"embedflow/internal/config"
	"embedflow/internal/logging"
	"embedflow/internal/runner"
)

// wslPrefix marks an MMseqs2 executable that lives inside WSL.
const wslPrefix = "wsl:"

const (
	mmseqsHint = "conda install -c bioconda mmseqs2"
	wslHint    = "wsl --install"
)

// searchPaths are the absolute paths of one easy-search invocation.
type searchPaths struct {
	Query, Target, Result, Tmp string
}

// Search runs MMseqs2 easy-search of cfg.Query against cfg.Target and
// returns the absolute path of the result table.
func (s *Session) Search(ctx context.Context, cfg *config.MMseqs) (string, error) {
	log := logging.Component(ctx, "mmseqs")
	p, err := resolveSearch(cfg)
	if err != nil {
		return "", err
	}
	if err := requireFile("query", p.Query); err != nil {
		return "", err
	}
	if err := requireFile("target", p.Target); err != nil {
		return "", err
	}

	cmd := searchCommand(cfg, p)
	if _, err := lookTool(toolName(cfg), cmd.Program, toolHint(cfg)); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p.Result), 0755); err != nil {
		return "", fmt.Errorf("create result dir: %w", err)
	}
	if err := os.MkdirAll(p.Tmp, 0755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	s.Console.Printf("Running MMseqs2 easy-search...")
	log.Info("searching", "command", cmd.String())
	if _, err := s.Runner.Run(ctx, cmd, nil); err != nil {
		return "", fmt.Errorf("MMseqs2 easy-search failed: %w", err)
	}
	s.Console.Printf("Done. Results: %s", p.Result)
	return p.Result, nil
}

func resolveSearch(cfg *config.MMseqs) (searchPaths, error) {
	var p searchPaths
	for _, f := range []struct {
		src string
		dst *string
	}{
		{cfg.Query, &p.Query},
		{cfg.Target, &p.Target},
		{cfg.Result, &p.Result},
		{cfg.TmpDir, &p.Tmp},
	} {
		abs, err := filepath.Abs(f.src)
		if err != nil {
			return p, fmt.Errorf("resolve %s: %w", f.src, err)
		}
		*f.dst = abs
	}
	return p, nil
}

// searchCommand builds the easy-search invocation. With a "wsl:" executable
// the tool runs under wsl and every path is translated to its /mnt form.
func searchCommand(cfg *config.MMseqs, p searchPaths) runner.Command {
	exe, viaWSL := strings.CutPrefix(cfg.Exe, wslPrefix)
	paths := []string{p.Query, p.Target, p.Result, p.Tmp}
	if viaWSL {
		for i := range paths {
			paths[i] = WindowsToWSL(paths[i])
		}
	}
	args := append([]string{"easy-search"}, paths...)
	args = append(args, "--format-output", cfg.Format)
	if viaWSL {
		return runner.Command{Program: "wsl", Args: append([]string{exe}, args...)}
	}
	return runner.Command{Program: exe, Args: args}
}

func toolName(cfg *config.MMseqs) string {
	if strings.HasPrefix(cfg.Exe, wslPrefix) {
		return "WSL"
	}
	return "MMseqs2"
}

func toolHint(cfg *config.MMseqs) string {
	if strings.HasPrefix(cfg.Exe, wslPrefix) {
		return wslHint
	}
	return mmseqsHint
}

// WindowsToWSL maps a drive-letter path such as C:\data\q.fasta to
// /mnt/c/data/q.fasta. Other paths only get forward slashes.
func WindowsToWSL(path string) string {
	slashed := strings.ReplaceAll(path, `\`, "/")
	if len(slashed) < 2 || slashed[1] != ':' || !isDriveLetter(slashed[0]) {
		return slashed
	}
	drive := strings.ToLower(slashed[:1])
	tail := strings.TrimLeft(slashed[2:], "/")
	return "/mnt/" + drive + "/" + tail
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
