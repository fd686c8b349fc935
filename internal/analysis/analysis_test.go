package analysis

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"embedflow/internal/config"
	"embedflow/internal/runner"
)

func writeExec(t *testing.T, path, body string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
}

func TestAlign(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	famsa := writeExec(t, filepath.Join(dir, "famsa"), `echo "aligning $1"
cp "$1" "$2"
`)
	in := writeFile(t, filepath.Join(dir, "in.fasta"), ">P1\nMKV\n>P2\nMKA\n")
	out := filepath.Join(dir, "msa", "aln.fasta")

	var buf bytes.Buffer
	s := NewSession(&buf, FamsaTag)
	if err := s.Align(context.Background(), &config.Famsa{Exe: famsa, InputFasta: in, OutputFasta: out}); err != nil {
		t.Fatalf("Align: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("alignment not written: %v", err)
	}
	want := "[FAMSA]aligning " + in + "\n[FAMSA]Done!\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("console mismatch (-want +got):\n%s", diff)
	}
}

func TestAlign_ToolMissing(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	err := NewSession(&buf, FamsaTag).Align(context.Background(), &config.Famsa{
		Exe:         filepath.Join(dir, "famsa"),
		InputFasta:  filepath.Join(dir, "in.fasta"),
		OutputFasta: filepath.Join(dir, "aln.fasta"),
	})
	var tm *ToolMissingError
	if !errors.As(err, &tm) || tm.Tool != "FAMSA" {
		t.Fatalf("expected FAMSA ToolMissingError, got %v", err)
	}
	if !strings.Contains(err.Error(), "conda install -c bioconda famsa") {
		t.Errorf("error lacks install hint: %v", err)
	}
}

func TestAlign_ToolFails(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	famsa := writeExec(t, filepath.Join(dir, "famsa"), "echo 'bad input' >&2\nexit 2\n")
	in := writeFile(t, filepath.Join(dir, "in.fasta"), ">P1\nMKV\n")

	var buf bytes.Buffer
	err := NewSession(&buf, FamsaTag).Align(context.Background(), &config.Famsa{Exe: famsa, InputFasta: in, OutputFasta: filepath.Join(dir, "aln.fasta")})
	var ee *runner.StageExecutionError
	if !errors.As(err, &ee) || ee.ExitCode != 2 {
		t.Fatalf("expected exit status 2, got %v", err)
	}
	if strings.Contains(buf.String(), "Done!") {
		t.Errorf("success reported after failure:\n%s", buf.String())
	}
}

func TestSearch(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	argsLog := filepath.Join(dir, "args.log")
	mmseqs := writeExec(t, filepath.Join(dir, "mmseqs"), `echo "$@" > "`+argsLog+`"
printf 'q1\tt1\t1e-30\n' > "$4"
`)
	q := writeFile(t, filepath.Join(dir, "q.fasta"), ">q1\nMKV\n")
	tg := writeFile(t, filepath.Join(dir, "t.fasta"), ">t1\nMKV\n")
	cfg := &config.MMseqs{
		Exe:    mmseqs,
		Query:  q,
		Target: tg,
		Result: filepath.Join(dir, "out", "res.m8"),
		Format: config.DefaultMMseqsFormat,
		TmpDir: filepath.Join(dir, "tmp"),
	}

	var buf bytes.Buffer
	res, err := NewSession(&buf, MMseqsTag).Search(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res != cfg.Result {
		t.Errorf("result = %s, want %s", res, cfg.Result)
	}
	args, err := os.ReadFile(argsLog)
	if err != nil {
		t.Fatal(err)
	}
	wantArgs := strings.Join([]string{"easy-search", q, tg, cfg.Result, cfg.TmpDir, "--format-output", config.DefaultMMseqsFormat}, " ") + "\n"
	if diff := cmp.Diff(wantArgs, string(args)); diff != "" {
		t.Errorf("arguments mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(cfg.TmpDir); err != nil {
		t.Errorf("tmp dir not created: %v", err)
	}
	want := "[MMSEQS]Running MMseqs2 easy-search...\n[MMSEQS]Done. Results: " + cfg.Result + "\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("console mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch_MissingInputs(t *testing.T) {
	dir := t.TempDir()
	q := writeFile(t, filepath.Join(dir, "q.fasta"), ">q1\nMKV\n")
	tests := []struct {
		name, query, target, kind string
	}{
		{"query", filepath.Join(dir, "absent.fasta"), q, "query"},
		{"target", q, filepath.Join(dir, "absent.fasta"), "target"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.MMseqs{
				Exe:    "mmseqs",
				Query:  tc.query,
				Target: tc.target,
				Result: filepath.Join(dir, tc.name, "res.m8"),
				Format: config.DefaultMMseqsFormat,
				TmpDir: filepath.Join(dir, tc.name, "tmp"),
			}
			var buf bytes.Buffer
			_, err := NewSession(&buf, MMseqsTag).Search(context.Background(), cfg)
			var ie *InputError
			if !errors.As(err, &ie) || ie.Kind != tc.kind {
				t.Fatalf("expected %s InputError, got %v", tc.kind, err)
			}
			if _, err := os.Stat(filepath.Join(dir, tc.name)); !os.IsNotExist(err) {
				t.Errorf("output dirs created for a failed search: %v", err)
			}
		})
	}
}

func TestSearchCommand_WSL(t *testing.T) {
	p := searchPaths{Query: `C:\data\q.fasta`, Target: `D:\db\t.fasta`, Result: `C:\out\r.m8`, Tmp: `C:\tmp`}
	cfg := &config.MMseqs{Exe: "wsl:mmseqs", Format: "query,target"}
	got := searchCommand(cfg, p)
	want := runner.Command{Program: "wsl", Args: []string{
		"mmseqs", "easy-search",
		"/mnt/c/data/q.fasta", "/mnt/d/db/t.fasta", "/mnt/c/out/r.m8", "/mnt/c/tmp",
		"--format-output", "query,target",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("command mismatch (-want +got):\n%s", diff)
	}
	if toolName(cfg) != "WSL" || toolHint(cfg) != wslHint {
		t.Errorf("wsl executable must be checked as WSL")
	}
}

func TestWindowsToWSL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`C:\Users\me\q.fasta`, "/mnt/c/Users/me/q.fasta"},
		{"d:/data/t.fa", "/mnt/d/data/t.fa"},
		{`E:\`, "/mnt/e/"},
		{"/home/me/q.fa", "/home/me/q.fa"},
		{"rel/q.fa", "rel/q.fa"},
		{"1:/odd", "1:/odd"},
	}
	for _, tc := range tests {
		if got := WindowsToWSL(tc.in); got != tc.want {
			t.Errorf("WindowsToWSL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// fakeIQTree writes an iqtree stand-in that logs its arguments. Model
// selection prints model, or nothing when model is empty.
func fakeIQTree(t *testing.T, dir, model string) (exe, argsLog string) {
	t.Helper()
	argsLog = filepath.Join(dir, "iqtree.log")
	selection := `echo "ModelFinder will test 100 models"`
	if model != "" {
		selection += "\necho \"Best-fit model: " + model + " chosen according to BIC\""
	}
	exe = writeExec(t, filepath.Join(dir, "iqtree2"), `echo "$@" >> "`+argsLog+`"
case "$*" in
  *" -m "*) echo "Total CPU time used: 1.0 seconds" ;;
  *) `+selection+` ;;
esac
`)
	return exe, argsLog
}

func TestTree(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	exe, argsLog := fakeIQTree(t, dir, "LG+G4")
	aln := writeFile(t, filepath.Join(dir, "aln.fasta"), ">P1\nMKV\n>P2\nMKA\n")

	var buf bytes.Buffer
	model, err := NewSession(&buf, IQTreeTag).Tree(context.Background(), &config.IQTree{Exe: exe, Alignment: aln, Bootstrap: 1000})
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if model != "LG+G4" {
		t.Errorf("model = %q, want LG+G4", model)
	}

	data, err := os.ReadFile(argsLog)
	if err != nil {
		t.Fatal(err)
	}
	wantArgs := []string{
		"-s " + aln + " -redo",
		"-s " + aln + " -m LG+G4 -bb 1000 -redo",
	}
	if diff := cmp.Diff(wantArgs, strings.Split(strings.TrimSpace(string(data)), "\n")); diff != "" {
		t.Errorf("invocations mismatch (-want +got):\n%s", diff)
	}

	want := strings.Join([]string{
		"[IQTREE]Running model selection...",
		"[IQTREE]Best-fit model: LG+G4",
		"[IQTREE]Running final IQ-TREE analysis...",
		"[IQTREE]IQ-TREE analysis completed.",
	}, "\n") + "\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("console mismatch (-want +got):\n%s", diff)
	}
}

func TestTree_NoModel(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	exe, argsLog := fakeIQTree(t, dir, "")
	aln := writeFile(t, filepath.Join(dir, "aln.fasta"), ">P1\nMKV\n")

	var buf bytes.Buffer
	_, err := NewSession(&buf, IQTreeTag).Tree(context.Background(), &config.IQTree{Exe: exe, Alignment: aln, Bootstrap: 1000})
	if !errors.Is(err, ErrNoModel) {
		t.Fatalf("expected ErrNoModel, got %v", err)
	}
	data, err := os.ReadFile(argsLog)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n"); n != 1 {
		t.Errorf("tree inference ran without a model: %d invocations", n)
	}
	if !strings.Contains(buf.String(), "[IQTREE]No model found.\n") {
		t.Errorf("console lacks the no-model line:\n%s", buf.String())
	}
}

func TestTree_MissingAlignment(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	exe, _ := fakeIQTree(t, dir, "LG")
	var buf bytes.Buffer
	_, err := NewSession(&buf, IQTreeTag).Tree(context.Background(), &config.IQTree{Exe: exe, Alignment: filepath.Join(dir, "absent.fasta"), Bootstrap: 1000})
	var ie *InputError
	if !errors.As(err, &ie) || ie.Kind != "alignment" {
		t.Fatalf("expected alignment InputError, got %v", err)
	}
}
