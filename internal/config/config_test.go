package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func validSection() map[string]any {
	return map[string]any{
		"base_dataset_file":      "data/base.fasta",
		"hit_ids":                "data/hits.txt",
		"hit_organism_proteome":  "data/proteome.fasta",
		"workflow_file_location": "out",
		"env_bio_embedding":      "/opt/envs/bio",
		"env_protspace":          "/opt/envs/protspace",
		"workflow_file_name":     "Yeast",
		"protspace_methods":      "pca2,umap2",
		"protspace_features":     "species",
	}
}

func TestValidate_AllPresent(t *testing.T) {
	section := validSection()
	s, err := Validate(map[string]any{SectionName: section})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if diff := cmp.Diff(validSection(), s.Raw); diff != "" {
		t.Errorf("Raw section mismatch (-want +got):\n%s", diff)
	}
	if s.WorkflowName != "Yeast" || s.ProtspaceMethods != "pca2,umap2" {
		t.Errorf("typed fields not populated: %+v", s)
	}
	if s.EmbeddingProtocol != DefaultEmbeddingProtocol || s.HighlightMarker != DefaultHighlightMarker {
		t.Errorf("defaults not applied: protocol=%q marker=%q", s.EmbeddingProtocol, s.HighlightMarker)
	}
}

func TestValidate_BlankOptionalKeepsDefault(t *testing.T) {
	section := validSection()
	section["highlight_color"] = "  "
	s, err := Validate(map[string]any{SectionName: section})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if s.HighlightColor != DefaultHighlightColor {
		t.Errorf("HighlightColor = %q, want default", s.HighlightColor)
	}
}

func TestValidate_RawIsACopy(t *testing.T) {
	section := validSection()
	s, err := Validate(map[string]any{SectionName: section})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	section["workflow_file_name"] = "changed"
	if s.Raw["workflow_file_name"] != "Yeast" {
		t.Errorf("Raw aliases the input map")
	}
}

func TestValidate_ReportsEveryMissingKey(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(map[string]any)
		want   []string
	}{
		{
			name: "one missing",
			mutate: func(m map[string]any) {
				delete(m, "hit_ids")
			},
			want: []string{"hit_ids"},
		},
		{
			name: "missing and empty mixed",
			mutate: func(m map[string]any) {
				delete(m, "base_dataset_file")
				m["env_protspace"] = ""
				m["protspace_features"] = []any{}
				m["workflow_file_name"] = nil
			},
			want: []string{"base_dataset_file", "env_protspace", "workflow_file_name", "protspace_features"},
		},
		{
			name: "whitespace only",
			mutate: func(m map[string]any) {
				m["env_bio_embedding"] = " \t"
				m["workflow_file_name"] = "   "
			},
			want: []string{"env_bio_embedding", "workflow_file_name"},
		},
		{
			name: "all missing",
			mutate: func(m map[string]any) {
				for k := range m {
					delete(m, k)
				}
				m["unrelated"] = "x"
			},
			want: RequiredKeys(),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			section := validSection()
			tc.mutate(section)
			_, err := Validate(map[string]any{SectionName: section})
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if diff := cmp.Diff(tc.want, cerr.Missing); diff != "" {
				t.Errorf("Missing mismatch (-want +got):\n%s", diff)
			}
			for _, k := range tc.want {
				if !strings.Contains(err.Error(), k) {
					t.Errorf("error %q does not mention %s", err, k)
				}
			}
		})
	}
}

func TestValidate_MissingSection(t *testing.T) {
	for _, doc := range []map[string]any{
		nil,
		{},
		{"other": map[string]any{"a": "b"}},
		{SectionName: map[string]any{}},
		{SectionName: nil},
	} {
		_, err := Validate(doc)
		var cerr *Error
		if !errors.As(err, &cerr) {
			t.Fatalf("Validate(%v): expected *Error, got %v", doc, err)
		}
		if !strings.Contains(cerr.Reason, "missing section") {
			t.Errorf("Reason = %q, want missing section", cerr.Reason)
		}
	}
}

func TestValidate_TypeViolations(t *testing.T) {
	section := validSection()
	section["hit_ids"] = 42.0
	section["protspace_methods"] = []any{"pca2", "umap2"}
	section["env_bio_embedding"] = []any{"a", "b"}
	_, err := Validate(map[string]any{SectionName: section})
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if len(cerr.Missing) != 0 {
		t.Errorf("Missing = %v, want none", cerr.Missing)
	}
	if len(cerr.Invalid) != 2 {
		t.Fatalf("Invalid = %v, want 2 entries", cerr.Invalid)
	}
	if !strings.HasPrefix(cerr.Invalid[0], "hit_ids") || !strings.HasPrefix(cerr.Invalid[1], "env_bio_embedding") {
		t.Errorf("Invalid = %v", cerr.Invalid)
	}
}

func TestValidate_ListSelectorsJoined(t *testing.T) {
	section := validSection()
	section["protspace_methods"] = []any{"pca2", " umap2"}
	s, err := Validate(map[string]any{SectionName: section})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if s.ProtspaceMethods != "pca2,umap2" {
		t.Errorf("ProtspaceMethods = %q", s.ProtspaceMethods)
	}
}

func TestParse_Formats(t *testing.T) {
	jsonDoc := `{"embedding": {
		"base_dataset_file": "b.fasta", "hit_ids": "ids.txt", "hit_organism_proteome": "p.fasta",
		"workflow_file_location": "out", "env_bio_embedding": "/e1", "env_protspace": "/e2",
		"workflow_file_name": "Run", "protspace_methods": "pca2", "protspace_features": "species",
		"highlight_color": "blue"}}`
	yamlDoc := `embedding:
  base_dataset_file: b.fasta
  hit_ids: ids.txt
  hit_organism_proteome: p.fasta
  workflow_file_location: out
  env_bio_embedding: /e1
  env_protspace: /e2
  workflow_file_name: Run
  protspace_methods: pca2
  protspace_features: species
  highlight_color: blue
`
	hclDoc := `
embedding {
  base_dataset_file      = "b.fasta"
  hit_ids                = "ids.txt"
  hit_organism_proteome  = "p.fasta"
  workflow_file_location = "out"
  env_bio_embedding      = "/e1"
  env_protspace          = "/e2"
  workflow_file_name     = "Run"
  protspace_methods      = ["pca2"]
  protspace_features     = "species"
  highlight_color        = "blue"
}
`
	for _, tc := range []struct {
		ext, data string
	}{
		{".json", jsonDoc},
		{".yaml", yamlDoc},
		{".yml", yamlDoc},
		{".hcl", hclDoc},
		{"", jsonDoc},
		{"", yamlDoc},
	} {
		t.Run("ext="+tc.ext, func(t *testing.T) {
			s, err := Parse([]byte(tc.data), tc.ext)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if s.EnvProtspace != "/e2" || s.ProtspaceMethods != "pca2" || s.HighlightColor != "blue" {
				t.Errorf("unexpected section: %+v", s)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, tc := range []struct {
		ext, data string
	}{
		{".json", `{"embedding": `},
		{".yaml", "embedding: [unterminated"},
		{".hcl", "embedding {"},
		{".toml", "a = 1"},
	} {
		_, err := Parse([]byte(tc.data), tc.ext)
		var cerr *Error
		if !errors.As(err, &cerr) {
			t.Errorf("Parse(%s): expected *Error, got %v", tc.ext, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"embedding": {"hit_ids": "x"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFile(path)
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if cerr.Path != path {
		t.Errorf("Path = %q, want %q", cerr.Path, path)
	}
	if len(cerr.Missing) != len(RequiredKeys())-1 {
		t.Errorf("Missing = %v", cerr.Missing)
	}

	_, err = LoadFile(filepath.Join(dir, "absent.json"))
	if !errors.As(err, &cerr) || !strings.Contains(cerr.Reason, "not found") {
		t.Errorf("absent file: got %v", err)
	}
}
