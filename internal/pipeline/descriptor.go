package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"embedflow/internal/config"
)

// styleFeature is the protspace feature the highlight applies to.
const styleFeature = "species"

// StyleDescriptor is the visualization_state.json document that makes the
// caller's label stand out from the base dataset.
type StyleDescriptor struct {
	FeatureColors map[string]map[string]string `json:"feature_colors"`
	MarkerShape   map[string]map[string]string `json:"marker_shape"`
}

// NewStyleDescriptor maps label to color and marker.
func NewStyleDescriptor(label, color, marker string) StyleDescriptor {
	return StyleDescriptor{
		FeatureColors: map[string]map[string]string{styleFeature: {label: color}},
		MarkerShape:   map[string]map[string]string{styleFeature: {label: marker}},
	}
}

// WriteStyleDescriptor writes sd as indented JSON, creating the parent
// directory when the visualizer did not.
func WriteStyleDescriptor(path string, sd StyleDescriptor) error {
	data, err := json.MarshalIndent(sd, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal style descriptor: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create style descriptor dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write style descriptor: %w", err)
	}
	return nil
}

// EmbedderConfig is the bio_embeddings pipeline file.
type EmbedderConfig struct {
	Global EmbedderGlobal `yaml:"global"`
	Stage0 EmbedderStage  `yaml:"stage_0"`
}

type EmbedderGlobal struct {
	SequencesFile   string `yaml:"sequences_file"`
	Prefix          string `yaml:"prefix"`
	SimpleRemapping bool   `yaml:"simple_remapping"`
}

type EmbedderStage struct {
	Type     string `yaml:"type"`
	Protocol string `yaml:"protocol"`
	Reduce   bool   `yaml:"reduce"`
	Device   string `yaml:"device"`
}

// NewEmbedderConfig builds a single embed stage over sequences, writing
// under prefix.
func NewEmbedderConfig(sequences, prefix string, cfg *config.Section) EmbedderConfig {
	return EmbedderConfig{
		Global: EmbedderGlobal{
			SequencesFile:   sequences,
			Prefix:          prefix,
			SimpleRemapping: true,
		},
		Stage0: EmbedderStage{
			Type:     "embed",
			Protocol: cfg.EmbeddingProtocol,
			Reduce:   true,
			Device:   cfg.EmbeddingDevice,
		},
	}
}

// WriteEmbedderConfig writes ec as YAML, keys in declaration order.
func WriteEmbedderConfig(path string, ec EmbedderConfig) error {
	data, err := yaml.Marshal(ec)
	if err != nil {
		return fmt.Errorf("marshal embedder config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write embedder config: %w", err)
	}
	return nil
}
