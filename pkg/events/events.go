// Package events defines the event types published on the bus. Every
// domain event embeds BaseEvent and reports its type for routing.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/loomline/loomline/pkg/models"
)

type EventType string

// Topic is the single bus topic; consumers route on the event_type
// metadata.
const Topic = "loomline.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	OrderStatusChangedEvent EventType = "order.status.changed"
	WorkflowTriggeredEvent  EventType = "workflow.triggered"
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionFinishedEvent  EventType = "execution.finished"
)

type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	WorkspaceID string         `json:"workspace_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workspaceID string) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		WorkspaceID: workspaceID,
	}
}

// OrderStatusChanged is published after a transition commits.
type OrderStatusChanged struct {
	BaseEvent

	OrderID    string             `json:"order_id"`
	FromStatus models.OrderStatus `json:"from_status"`
	ToStatus   models.OrderStatus `json:"to_status"`
	Actor      string             `json:"actor"`
	Forced     bool               `json:"forced"`
	Progress   int                `json:"progress"`
}

func (e OrderStatusChanged) GetType() EventType {
	return OrderStatusChangedEvent
}

// WorkflowTriggered is published when a trigger fires, before condition
// evaluation.
type WorkflowTriggered struct {
	BaseEvent

	WorkflowID  string             `json:"workflow_id"`
	ExecutionID string             `json:"execution_id"`
	TriggerType models.TriggerType `json:"trigger_type"`
	TriggerData map[string]any     `json:"trigger_data,omitempty"`
}

func (e WorkflowTriggered) GetType() EventType {
	return WorkflowTriggeredEvent
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	WorkflowID  string `json:"workflow_id"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

// ExecutionFinished is published once per execution, with its terminal
// status.
type ExecutionFinished struct {
	BaseEvent

	ExecutionID string                 `json:"execution_id"`
	WorkflowID  string                 `json:"workflow_id"`
	Status      models.ExecutionStatus `json:"status"`
	ElapsedMs   int64                  `json:"elapsed_ms"`
	Error       string                 `json:"error,omitempty"`
}

func (e ExecutionFinished) GetType() EventType {
	return ExecutionFinishedEvent
}
