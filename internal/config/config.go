// Package config loads and validates the workflow configuration file.
//
// The file holds one required section ("embedding"). Validation reports every
// missing, empty or mistyped key in a single Error instead of stopping at the
// first one. A validated Section is immutable and is passed explicitly to the
// components that need it.
package config

import (
	"fmt"
	"strings"
)

// SectionName is the required top-level section.
const SectionName = "embedding"

// Required keys, in reporting order.
const (
	KeyBaseDataset       = "base_dataset_file"
	KeyHitIDs            = "hit_ids"
	KeyHitProteome       = "hit_organism_proteome"
	KeyWorkflowLocation  = "workflow_file_location"
	KeyEnvBioEmbedding   = "env_bio_embedding"
	KeyEnvProtspace      = "env_protspace"
	KeyWorkflowName      = "workflow_file_name"
	KeyProtspaceMethods  = "protspace_methods"
	KeyProtspaceFeatures = "protspace_features"
)

// Optional keys.
const (
	KeyEmbeddingProtocol = "embedding_protocol"
	KeyEmbeddingDevice   = "embedding_device"
	KeyHighlightColor    = "highlight_color"
	KeyHighlightMarker   = "highlight_marker"
)

// Defaults for the optional keys.
const (
	DefaultEmbeddingProtocol = "prottrans_t5_xl_u50"
	DefaultEmbeddingDevice   = "cuda"
	DefaultHighlightColor    = "rgba(255, 64, 64, 0.9)"
	DefaultHighlightMarker   = "x"
)

// RequiredKeys lists every key that must be present and non-empty.
func RequiredKeys() []string {
	return []string{
		KeyBaseDataset,
		KeyHitIDs,
		KeyHitProteome,
		KeyWorkflowLocation,
		KeyEnvBioEmbedding,
		KeyEnvProtspace,
		KeyWorkflowName,
		KeyProtspaceMethods,
		KeyProtspaceFeatures,
	}
}

// Section is the validated "embedding" section.
type Section struct {
	BaseDatasetFile     string
	HitIDs              string
	HitOrganismProteome string
	WorkflowLocation    string
	EnvBioEmbedding     string
	EnvProtspace        string
	WorkflowName        string
	ProtspaceMethods    string
	ProtspaceFeatures   string

	EmbeddingProtocol string
	EmbeddingDevice   string
	HighlightColor    string
	HighlightMarker   string

	// Raw is a deep copy of the section as it was parsed.
	Raw map[string]any
}

// Validate checks doc and returns the typed section.
func Validate(doc map[string]any) (*Section, error) {
	rawSection, ok := doc[SectionName]
	if !ok || isEmpty(rawSection) {
		return nil, &Error{Reason: fmt.Sprintf("missing section: '%s'", SectionName)}
	}
	section, ok := asMap(rawSection)
	if !ok {
		return nil, &Error{Reason: fmt.Sprintf("section '%s' must be a mapping, got %T", SectionName, rawSection)}
	}

	verr := &Error{Reason: fmt.Sprintf("invalid '%s' section", SectionName)}
	for _, key := range RequiredKeys() {
		v, present := section[key]
		if !present || isEmpty(v) {
			verr.Missing = append(verr.Missing, key)
		}
	}

	s := &Section{Raw: copyMap(section)}
	str := func(key string, list bool, dst *string) {
		v, present := section[key]
		if !present || isEmpty(v) {
			return
		}
		got, err := stringValue(v, list)
		if err != nil {
			verr.Invalid = append(verr.Invalid, fmt.Sprintf("%s: %v", key, err))
			return
		}
		*dst = got
	}
	str(KeyBaseDataset, false, &s.BaseDatasetFile)
	str(KeyHitIDs, false, &s.HitIDs)
	str(KeyHitProteome, false, &s.HitOrganismProteome)
	str(KeyWorkflowLocation, false, &s.WorkflowLocation)
	str(KeyEnvBioEmbedding, false, &s.EnvBioEmbedding)
	str(KeyEnvProtspace, false, &s.EnvProtspace)
	str(KeyWorkflowName, false, &s.WorkflowName)
	str(KeyProtspaceMethods, true, &s.ProtspaceMethods)
	str(KeyProtspaceFeatures, true, &s.ProtspaceFeatures)

	s.EmbeddingProtocol = DefaultEmbeddingProtocol
	s.EmbeddingDevice = DefaultEmbeddingDevice
	s.HighlightColor = DefaultHighlightColor
	s.HighlightMarker = DefaultHighlightMarker
	str(KeyEmbeddingProtocol, false, &s.EmbeddingProtocol)
	str(KeyEmbeddingDevice, false, &s.EmbeddingDevice)
	str(KeyHighlightColor, false, &s.HighlightColor)
	str(KeyHighlightMarker, false, &s.HighlightMarker)

	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return nil, verr
	}
	return s, nil
}

// isEmpty reports absent values. A string of only whitespace is empty.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// stringValue accepts a string, or a list of strings when list is true.
// Lists are joined with ",", the separator the visualization tool expects.
func stringValue(v any, list bool) (string, error) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nil
	case []any:
		if !list {
			return "", fmt.Errorf("expected a string, got a list")
		}
		parts := make([]string, 0, len(t))
		for i, item := range t {
			s, ok := item.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return "", fmt.Errorf("item %d must be a non-empty string", i)
			}
			parts = append(parts, strings.TrimSpace(s))
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("expected a string, got %T", v)
	}
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	}
	return v
}
