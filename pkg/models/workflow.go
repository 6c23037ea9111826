package models

import "time"

// WorkflowStatus represents the lifecycle state of an automation workflow.
// Workflows are soft-deleted: DELETED definitions stay addressable while
// executions reference them, but refuse to run.
type WorkflowStatus string

const (
	WorkflowStatusActive  WorkflowStatus = "ACTIVE"
	WorkflowStatusDeleted WorkflowStatus = "DELETED"
)

// TriggerType identifies what causes a workflow to be evaluated.
type TriggerType string

const (
	TriggerTypeSchedule  TriggerType = "SCHEDULE"
	TriggerTypeEvent     TriggerType = "EVENT"
	TriggerTypeCondition TriggerType = "CONDITION"
	TriggerTypeManual    TriggerType = "MANUAL"
)

// WorkflowPriority orders workflows and controls failure handling:
// a failed action aborts the remaining action list only for CRITICAL runs.
type WorkflowPriority string

const (
	PriorityLow      WorkflowPriority = "LOW"
	PriorityMedium   WorkflowPriority = "MEDIUM"
	PriorityHigh     WorkflowPriority = "HIGH"
	PriorityCritical WorkflowPriority = "CRITICAL"
)

// WorkflowTrigger couples a trigger type with its type-specific
// configuration (cron expression, event name, condition field, ...).
type WorkflowTrigger struct {
	Type   TriggerType    `json:"type"   validate:"required,oneof=SCHEDULE EVENT CONDITION MANUAL"`
	Config map[string]any `json:"config"`
}

// AutomationWorkflow is a rule definition: when the trigger fires and the
// conditions pass, the actions run in order.
type AutomationWorkflow struct {
	ID          string           `json:"id"`
	WorkspaceID string           `json:"workspace_id" validate:"required"`
	Name        string           `json:"name"         validate:"required,min=3"`
	Description string           `json:"description"`
	Trigger     WorkflowTrigger  `json:"trigger"      validate:"required"`
	Conditions  []Condition      `json:"conditions"   validate:"dive"`
	Actions     []ActionSpec     `json:"actions"      validate:"required,min=1,dive"`
	Priority    WorkflowPriority `json:"priority"     validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	IsActive    bool             `json:"is_active"`
	Status      WorkflowStatus   `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   *time.Time       `json:"deleted_at,omitempty"`
}
