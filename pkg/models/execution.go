package models

import "time"

// ExecutionStatus represents the state of one workflow run. RUNNING is the
// only non-terminal status; every run ends in exactly one of the others.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "RUNNING"
	ExecutionStatusSkipped   ExecutionStatus = "SKIPPED"
	ExecutionStatusCompleted ExecutionStatus = "COMPLETED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
	ExecutionStatusError     ExecutionStatus = "ERROR"
)

// IsTerminal reports whether the status ends the execution.
func (s ExecutionStatus) IsTerminal() bool {
	return s != ExecutionStatusRunning
}

// ActionResultStatus is the outcome of one action within an execution.
type ActionResultStatus string

const (
	ActionResultSuccess ActionResultStatus = "SUCCESS"
	ActionResultFailed  ActionResultStatus = "FAILED"
	ActionResultSkipped ActionResultStatus = "SKIPPED"
)

// ActionResult records the outcome of one action of an execution,
// including how many attempts were consumed.
type ActionResult struct {
	Index      int                `json:"index"`
	Type       ActionType         `json:"type"`
	Status     ActionResultStatus `json:"status"`
	Output     any                `json:"output,omitempty"`
	Error      string             `json:"error,omitempty"`
	Attempts   int                `json:"attempts"`
	DurationMs int64              `json:"duration_ms"`
}

// WorkflowExecution is one concrete run of a workflow from trigger fire to
// terminal status. Immutable once terminal.
type WorkflowExecution struct {
	ID            string          `json:"id"`
	WorkflowID    string          `json:"workflow_id"`
	WorkspaceID   string          `json:"workspace_id"`
	Status        ExecutionStatus `json:"status"`
	TriggerData   map[string]any  `json:"trigger_data,omitempty"`
	ActionResults []ActionResult  `json:"action_results,omitempty"`
	SkipReason    string          `json:"skip_reason,omitempty"`
	Error         string          `json:"error,omitempty"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	ElapsedMs     int64           `json:"elapsed_ms"`
}
