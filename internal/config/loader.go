package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a configuration file (JSON, YAML or HCL, chosen by
// extension) and validates its section.
func LoadFile(path string) (*Section, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}
	s, err := Validate(doc)
	if err != nil {
		return nil, WithPath(err, path)
	}
	return s, nil
}

// LoadDocument reads and decodes a configuration file without validating
// any section. The standalone tool commands validate only their own.
func LoadDocument(path string) (map[string]any, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, &Error{Path: path, Reason: "configuration file not found", Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Reason: "read configuration", Err: err}
	}
	doc, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, WithPath(err, path)
	}
	return doc, nil
}

// WithPath records path on a *Error that does not name its file yet.
func WithPath(err error, path string) error {
	var cerr *Error
	if errors.As(err, &cerr) && cerr.Path == "" {
		cerr.Path = path
	}
	return err
}

// Parse decodes data according to ext (".json", ".yaml", ".yml", ".hcl";
// empty = detect from content) and validates the result.
func Parse(data []byte, ext string) (*Section, error) {
	doc, err := Decode(data, ext)
	if err != nil {
		return nil, err
	}
	return Validate(doc)
}

// Decode turns a configuration document into a generic map without
// validating it.
func Decode(data []byte, ext string) (map[string]any, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == "" {
		// No extension: JSON if it starts with {, else YAML.
		ext = ".yaml"
		if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			ext = ".json"
		}
	}
	switch ext {
	case ".json":
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, &Error{Reason: "failed to decode JSON from the configuration file", Err: err}
		}
		return doc, nil
	case ".yaml":
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &Error{Reason: "failed to decode YAML from the configuration file", Err: err}
		}
		return doc, nil
	case ".hcl":
		return decodeHCL(data)
	default:
		return nil, &Error{Reason: fmt.Sprintf("unsupported configuration format %q: use .json, .yaml or .hcl", ext)}
	}
}

// hclSections are the block types an HCL configuration may declare.
var hclSections = []string{SectionName, FamsaSectionName, MMseqsSectionName, IQTreeSectionName}

var hclRootSchema = func() *hcl.BodySchema {
	s := &hcl.BodySchema{}
	for _, name := range hclSections {
		s.Blocks = append(s.Blocks, hcl.BlockHeaderSchema{Type: name})
	}
	return s
}()

// decodeHCL reads
//
//	embedding {
//	  base_dataset_file = "..."
//	}
//	famsa {
//	  input_fasta = "..."
//	}
//
// into the same shape the JSON and YAML decoders produce.
func decodeHCL(data []byte) (map[string]any, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, &Error{Reason: "failed to decode HCL from the configuration file", Err: diags}
	}
	content, _, diags := file.Body.PartialContent(hclRootSchema)
	if diags.HasErrors() {
		return nil, &Error{Reason: "failed to decode HCL from the configuration file", Err: diags}
	}

	doc := map[string]any{}
	for _, block := range content.Blocks {
		if _, dup := doc[block.Type]; dup {
			return nil, &Error{Section: block.Type, Reason: fmt.Sprintf("section '%s' declared more than once", block.Type)}
		}
		attrs, diags := block.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, &Error{Section: block.Type, Reason: "failed to decode HCL section", Err: diags}
		}
		section := make(map[string]any, len(attrs))
		for name, attr := range attrs {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, &Error{Section: block.Type, Reason: fmt.Sprintf("evaluate %s", name), Err: diags}
			}
			native, err := ctyToNative(val)
			if err != nil {
				return nil, &Error{Section: block.Type, Reason: fmt.Sprintf("convert %s", name), Err: err}
			}
			section[name] = native
		}
		doc[block.Type] = section
	}
	return doc, nil
}

func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, err
		}
		return f, nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := []any{}
		for it := v.ElementIterator(); it.Next(); {
			_, el := it.Element()
			n, err := ctyToNative(el)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := map[string]any{}
		for it := v.ElementIterator(); it.Next(); {
			k, el := it.Element()
			n, err := ctyToNative(el)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", k.AsString(), err)
			}
			out[k.AsString()] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
