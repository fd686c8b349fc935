package config

import (
	"fmt"
	"math"
)

// Sections of the standalone alignment, search and tree workflows. Each is
// optional in the file and validated only by the command that uses it.
const (
	FamsaSectionName  = "famsa"
	MMseqsSectionName = "mmseqs"
	IQTreeSectionName = "iqtree"
)

// Tool section keys.
const (
	KeyExe         = "exe"
	KeyInputFasta  = "input_fasta"
	KeyOutputFasta = "output_fasta"
	KeyQuery       = "query"
	KeyTarget      = "target"
	KeyResult      = "result"
	KeyFormat      = "format"
	KeyTmpDir      = "tmp_dir"
	KeyAlignment   = "alignment"
	KeyBootstrap   = "bootstrap"
)

// Tool section defaults.
const (
	DefaultFamsaExe     = "famsa"
	DefaultMMseqsExe    = "mmseqs"
	DefaultMMseqsFormat = "query,target,evalue,pident,alnlen"
	DefaultMMseqsTmpDir = "tmp"
	DefaultIQTreeExe    = "iqtree2"
	DefaultBootstrap    = 1000
)

// Famsa is the validated "famsa" section.
type Famsa struct {
	Exe         string
	InputFasta  string
	OutputFasta string
}

// MMseqs is the validated "mmseqs" section. An Exe of the form
// "wsl:<name>" runs the search through WSL.
type MMseqs struct {
	Exe    string
	Query  string
	Target string
	Result string
	Format string
	TmpDir string
}

// IQTree is the validated "iqtree" section.
type IQTree struct {
	Exe string
	// Alignment defaults to famsa.output_fasta.
	Alignment string
	Bootstrap int
}

// ValidateFamsa checks the "famsa" section of doc.
func ValidateFamsa(doc map[string]any) (*Famsa, error) {
	r, err := openSection(doc, FamsaSectionName)
	if err != nil {
		return nil, err
	}
	f := &Famsa{Exe: DefaultFamsaExe}
	r.str(KeyExe, false, false, &f.Exe)
	r.str(KeyInputFasta, true, false, &f.InputFasta)
	r.str(KeyOutputFasta, true, false, &f.OutputFasta)
	if err := r.result(); err != nil {
		return nil, err
	}
	return f, nil
}

// ValidateMMseqs checks the "mmseqs" section of doc. The output format may
// be given as a list of column names.
func ValidateMMseqs(doc map[string]any) (*MMseqs, error) {
	r, err := openSection(doc, MMseqsSectionName)
	if err != nil {
		return nil, err
	}
	m := &MMseqs{Exe: DefaultMMseqsExe, Format: DefaultMMseqsFormat, TmpDir: DefaultMMseqsTmpDir}
	r.str(KeyExe, false, false, &m.Exe)
	r.str(KeyQuery, true, false, &m.Query)
	r.str(KeyTarget, true, false, &m.Target)
	r.str(KeyResult, true, false, &m.Result)
	r.str(KeyFormat, false, true, &m.Format)
	r.str(KeyTmpDir, false, false, &m.TmpDir)
	if err := r.result(); err != nil {
		return nil, err
	}
	return m, nil
}

// ValidateIQTree checks the "iqtree" section of doc. Without an explicit
// alignment it reads famsa.output_fasta, the file the align command writes.
func ValidateIQTree(doc map[string]any) (*IQTree, error) {
	r, err := openSection(doc, IQTreeSectionName)
	if err != nil {
		return nil, err
	}
	t := &IQTree{Exe: DefaultIQTreeExe, Bootstrap: DefaultBootstrap}
	r.str(KeyExe, false, false, &t.Exe)
	r.str(KeyAlignment, false, false, &t.Alignment)
	r.positiveInt(KeyBootstrap, &t.Bootstrap)
	if t.Alignment == "" {
		if famsa, ok := asMap(doc[FamsaSectionName]); ok {
			if v, ok := famsa[KeyOutputFasta].(string); ok && !isEmpty(v) {
				t.Alignment, _ = stringValue(v, false)
			}
		}
	}
	if t.Alignment == "" {
		r.err.Missing = append(r.err.Missing, KeyAlignment)
	}
	if err := r.result(); err != nil {
		return nil, err
	}
	return t, nil
}

type sectionReader struct {
	m   map[string]any
	err *Error
}

func openSection(doc map[string]any, name string) (*sectionReader, error) {
	raw, ok := doc[name]
	if !ok || isEmpty(raw) {
		return nil, &Error{Section: name, Reason: fmt.Sprintf("missing section: '%s'", name)}
	}
	m, ok := asMap(raw)
	if !ok {
		return nil, &Error{Section: name, Reason: fmt.Sprintf("section '%s' must be a mapping, got %T", name, raw)}
	}
	return &sectionReader{
		m:   m,
		err: &Error{Section: name, Reason: fmt.Sprintf("invalid '%s' section", name)},
	}, nil
}

// str stores the string at key in dst. Absent or blank values leave dst
// alone and are reported only when required.
func (r *sectionReader) str(key string, required, list bool, dst *string) {
	v, present := r.m[key]
	if !present || isEmpty(v) {
		if required {
			r.err.Missing = append(r.err.Missing, key)
		}
		return
	}
	got, err := stringValue(v, list)
	if err != nil {
		r.err.Invalid = append(r.err.Invalid, fmt.Sprintf("%s: %v", key, err))
		return
	}
	*dst = got
}

func (r *sectionReader) positiveInt(key string, dst *int) {
	v, present := r.m[key]
	if !present || v == nil {
		return
	}
	var n float64
	switch t := v.(type) {
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case float64:
		n = t
	default:
		r.err.Invalid = append(r.err.Invalid, fmt.Sprintf("%s: expected a number, got %T", key, v))
		return
	}
	if n < 1 || n != math.Trunc(n) || n > math.MaxInt32 {
		r.err.Invalid = append(r.err.Invalid, fmt.Sprintf("%s: must be a positive integer, got %v", key, v))
		return
	}
	*dst = int(n)
}

func (r *sectionReader) result() error {
	if len(r.err.Missing) > 0 || len(r.err.Invalid) > 0 {
		return r.err
	}
	return nil
}
