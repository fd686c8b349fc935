// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI output and logs meant for people.
// Keep raw codes for JSON fields, map keys, and equality comparisons.
package display

import (
	"fmt"
	"strings"
)

// --- Stages ---

var stages = map[string]string{
	"clean-headers": "Clean headers",
	"merge-hits":    "Merge hits",
	"embed":         "Embed",
	"rename-ids":    "Rename IDs",
	"visualize":     "Visualize",
}

var stageTools = map[string]string{
	"clean-headers": "embedflow",
	"merge-hits":    "embedflow",
	"embed":         "bio_embeddings",
	"rename-ids":    "embedflow + h5py",
	"visualize":     "protspace",
}

// Stage returns the human-readable name for a stage code.
// "rename-ids" -> "Rename IDs". Unknown codes are returned as-is.
func Stage(code string) string {
	if name, ok := stages[code]; ok {
		return name
	}
	return code
}

// StageWithIndex returns "Stage 3: Embed" for 1-based position i.
func StageWithIndex(i int, code string) string {
	return fmt.Sprintf("Stage %d: %s", i, Stage(code))
}

// StageTool names the program that carries out a stage, or "" if unknown.
func StageTool(code string) string {
	return stageTools[code]
}

// StagePath converts a slice of stage codes to a human-readable path.
// ["embed", "visualize"] -> "Embed → Visualize"
func StagePath(codes []string) string {
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = Stage(c)
	}
	return strings.Join(names, " → ")
}

// --- Status ---

var statuses = map[string]string{
	"pending":   "Pending",
	"running":   "Running",
	"succeeded": "Succeeded",
	"failed":    "Failed",
}

// Status returns the capitalised word for a status code.
func Status(code string) string {
	if name, ok := statuses[code]; ok {
		return name
	}
	return code
}

// StatusMark returns a one-character marker for a status code.
func StatusMark(code string) string {
	switch code {
	case "succeeded":
		return "✓"
	case "failed":
		return "✗"
	case "running":
		return "…"
	default:
		return "·"
	}
}

// ExitCode renders a recorded exit status; nil means the stage never
// finished.
func ExitCode(code *int) string {
	if code == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *code)
}
