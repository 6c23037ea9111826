// Package models defines the core domain models for manufacturing order management.
package models

import "time"

// OrderStatus represents the production lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusIntake            OrderStatus = "INTAKE"
	OrderStatusDesignApproval    OrderStatus = "DESIGN_APPROVAL"
	OrderStatusProductionPlanned OrderStatus = "PRODUCTION_PLANNED"
	OrderStatusInProgress        OrderStatus = "IN_PROGRESS"
	OrderStatusQC                OrderStatus = "QC"
	OrderStatusPacking           OrderStatus = "PACKING"
	OrderStatusReadyForDelivery  OrderStatus = "READY_FOR_DELIVERY"
	OrderStatusDelivered         OrderStatus = "DELIVERED"
	OrderStatusBlocked           OrderStatus = "BLOCKED"
)

// ActiveStatuses lists every status an order can be blocked from (and
// recovered back to). DELIVERED is terminal and BLOCKED is the refuge
// itself, so neither appears here.
func ActiveStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusIntake,
		OrderStatusDesignApproval,
		OrderStatusProductionPlanned,
		OrderStatusInProgress,
		OrderStatusQC,
		OrderStatusPacking,
		OrderStatusReadyForDelivery,
	}
}

// Order is the aggregate root for a manufacturing order. Status is only
// mutated through the state machine; routing step statuses are updated by
// production-event collaborators.
type Order struct {
	ID                 string         `json:"id"`
	WorkspaceID        string         `json:"workspace_id"        validate:"required"`
	Status             OrderStatus    `json:"status"`
	Priority           string         `json:"priority,omitempty"`
	ProductionMethod   string         `json:"production_method,omitempty"`
	AssignedTo         string         `json:"assigned_to,omitempty"`
	TargetDeliveryDate *time.Time     `json:"target_delivery_date,omitempty"`
	RoutingSteps       []*RoutingStep `json:"routing_steps"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	Version            int64          `json:"version"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Step returns the routing step with the given name, or nil.
func (o *Order) Step(name string) *RoutingStep {
	for _, step := range o.RoutingSteps {
		if step.Name == name {
			return step
		}
	}

	return nil
}
