package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"embedflow/internal/workflow"
)

// Status is the lifecycle state of a stage or of the whole run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// StageRecord is the persisted view of one stage.
type StageRecord struct {
	Name       string   `json:"name"`
	Status     Status   `json:"status"`
	Command    []string `json:"command"`
	Output     string   `json:"output"`
	ExitCode   *int     `json:"exit_code,omitempty"`
	Error      string   `json:"error,omitempty"`
	StartedAt  string   `json:"started_at,omitempty"`
	FinishedAt string   `json:"finished_at,omitempty"`
}

// RunState is the pipeline_state.json document kept in the workflow
// directory. It is rewritten after every stage transition.
type RunState struct {
	RunID       string        `json:"run_id"`
	Label       string        `json:"organism_name"`
	WorkflowDir string        `json:"workflow_dir"`
	Status      Status        `json:"status"`
	StartedAt   string        `json:"started_at"`
	FinishedAt  string        `json:"finished_at,omitempty"`
	Stages      []StageRecord `json:"stages"`
}

// InitState creates a pending record for each stage.
func InitState(label, workflowDir string, stages []Stage) *RunState {
	st := &RunState{
		RunID:       uuid.NewString(),
		Label:       label,
		WorkflowDir: workflowDir,
		Status:      StatusRunning,
		StartedAt:   now(),
	}
	for _, s := range stages {
		st.Stages = append(st.Stages, StageRecord{
			Name:    s.Name,
			Status:  StatusPending,
			Command: s.Command.Argv(),
			Output:  s.Output,
		})
	}
	return st
}

var transitions = map[Status][]Status{
	StatusPending: {StatusRunning},
	StatusRunning: {StatusSucceeded, StatusFailed},
}

func canTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Advance moves stage i to next, stamping times and recording the outcome.
// exitCode is ignored unless next is terminal.
func (s *RunState) Advance(i int, next Status, exitCode int, cause error) error {
	if i < 0 || i >= len(s.Stages) {
		return fmt.Errorf("stage index %d out of range", i)
	}
	rec := &s.Stages[i]
	if !canTransition(rec.Status, next) {
		return fmt.Errorf("stage %s: invalid transition %s -> %s", rec.Name, rec.Status, next)
	}
	rec.Status = next
	switch next {
	case StatusRunning:
		rec.StartedAt = now()
	case StatusSucceeded, StatusFailed:
		rec.FinishedAt = now()
		code := exitCode
		rec.ExitCode = &code
		if cause != nil {
			rec.Error = cause.Error()
		}
	}
	if next == StatusFailed {
		s.Status = StatusFailed
		s.FinishedAt = rec.FinishedAt
	}
	return nil
}

// Complete marks the run succeeded once every stage has.
func (s *RunState) Complete() error {
	for _, rec := range s.Stages {
		if rec.Status != StatusSucceeded {
			return fmt.Errorf("stage %s is %s", rec.Name, rec.Status)
		}
	}
	s.Status = StatusSucceeded
	s.FinishedAt = now()
	return nil
}

// LoadState reads the run state from a workflow directory.
// Returns nil if no state file exists.
func LoadState(dir *workflow.Dir) (*RunState, error) {
	data, err := os.ReadFile(dir.StateFile())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	var st RunState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	return &st, nil
}

// SaveState persists the run state to the workflow directory.
func SaveState(dir *workflow.Dir, st *RunState) error {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(dir.StateFile(), raw, 0644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
