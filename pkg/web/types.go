// Package web provides the HTTP surface: order transitions, workflow
// management and execution lookups.
package web

import (
	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/statemachine"
)

// Actor identity headers. Authentication itself happens upstream; these
// carry the already-authenticated identity into the request.
const (
	HeaderActorID     = "X-Actor-ID"
	HeaderActorRole   = "X-Actor-Role"
	HeaderSystemToken = "X-System-Token"
)

// TransitionRequest is the body of POST /orders/:id/transition.
type TransitionRequest struct {
	ToStatus        string         `json:"to_status"                  validate:"required"`
	Reason          string         `json:"reason,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	ForceTransition bool           `json:"force_transition,omitempty"`
	AssignTo        string         `json:"assign_to,omitempty"`
	PriorityLevel   string         `json:"priority_level,omitempty"`
}

// TransitionResponse reports a committed transition plus the automation
// workflows the status change started.
type TransitionResponse struct {
	PreviousStatus            models.OrderStatus            `json:"previous_status"`
	NewStatus                 models.OrderStatus            `json:"new_status"`
	Progress                  int                           `json:"progress_percentage"`
	Validation                models.ValidationResult       `json:"validation_results"`
	Warnings                  []models.ValidationCheck      `json:"warnings,omitempty"`
	AutomatedActionsPerformed []string                      `json:"automated_actions_performed"`
	NextAvailable             []statemachine.TransitionRule `json:"next_available_transitions"`
}

// CreateWorkflowRequest is the body of POST /workflows.
type CreateWorkflowRequest struct {
	WorkspaceID string                  `json:"workspace_id" validate:"required"`
	Name        string                  `json:"name"         validate:"required,min=3"`
	Description string                  `json:"description"`
	Trigger     models.WorkflowTrigger  `json:"trigger"      validate:"required"`
	Conditions  []models.Condition      `json:"conditions"`
	Actions     []models.ActionSpec     `json:"actions"      validate:"required,min=1"`
	Priority    models.WorkflowPriority `json:"priority"     validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	IsActive    *bool                   `json:"is_active"`
}

// UpdateWorkflowRequest is the body of PATCH /workflows/:id. Absent
// fields keep their stored values.
type UpdateWorkflowRequest struct {
	Name        *string                  `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string                  `json:"description,omitempty"`
	Trigger     *models.WorkflowTrigger  `json:"trigger,omitempty"`
	Conditions  []models.Condition       `json:"conditions,omitempty"`
	Actions     []models.ActionSpec      `json:"actions,omitempty"`
	Priority    *models.WorkflowPriority `json:"priority,omitempty"    validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	IsActive    *bool                    `json:"is_active,omitempty"`
}

// ExecuteWorkflowRequest is the body of POST /workflows/:id/execute.
type ExecuteWorkflowRequest struct {
	TriggerData    map[string]any `json:"trigger_data,omitempty"`
	ForceExecution bool           `json:"force_execution,omitempty"`
}

// ExecuteWorkflowResponse acknowledges an asynchronous execution start.
type ExecuteWorkflowResponse struct {
	ExecutionID string `json:"execution_id"`
	Status      string `json:"status"`
}
