package models

import "time"

// StepStatus represents the state of a single routing step.
type StepStatus string

const (
	StepStatusPlanned    StepStatus = "PLANNED"
	StepStatusReady      StepStatus = "READY"
	StepStatusInProgress StepStatus = "IN_PROGRESS"
	StepStatusDone       StepStatus = "DONE"
	StepStatusBlocked    StepStatus = "BLOCKED"
)

// RoutingStep is one unit of production work inside an order's dependency
// graph. DependsOn references step names declared earlier in the sequence,
// so the graph is acyclic by construction. DependsOnIndexes carries the
// same references interned to sequence positions at build time.
type RoutingStep struct {
	ID               string     `json:"id"`
	OrderID          string     `json:"order_id"`
	Name             string     `json:"name"       validate:"required"`
	Workcenter       string     `json:"workcenter" validate:"required"`
	Sequence         int        `json:"sequence"`
	DependsOn        []string   `json:"depends_on"`
	DependsOnIndexes []int      `json:"depends_on_indexes,omitempty"`
	CanRunParallel   bool       `json:"can_run_parallel"`
	Status           StepStatus `json:"status"`
	ExpectedInputs   []string   `json:"expected_inputs,omitempty"`
	ExpectedOutputs  []string   `json:"expected_outputs,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// StepProgressWeight maps a step status to its contribution to order
// progress. BLOCKED deliberately counts as zero.
func StepProgressWeight(status StepStatus) int {
	switch status {
	case StepStatusReady:
		return 25
	case StepStatusInProgress:
		return 75
	case StepStatusDone:
		return 100
	case StepStatusPlanned, StepStatusBlocked:
		return 0
	default:
		return 0
	}
}
