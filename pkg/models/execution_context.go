package models

// ExecutionContext carries the run-time context an action executes under.
// Prior action outputs accumulate in ActionOutputs keyed by action index,
// so later actions can reference earlier results.
type ExecutionContext struct {
	ExecutionID   string         `json:"execution_id"`
	WorkflowID    string         `json:"workflow_id"`
	WorkspaceID   string         `json:"workspace_id"`
	TriggerData   map[string]any `json:"trigger_data,omitempty"`
	ActionOutputs map[int]any    `json:"action_outputs,omitempty"`
}
