// Package persistence provides the storage abstraction layer for orders,
// workflows and executions. Callers never assume a concrete storage
// technology; implementations live in subpackages.
package persistence

import (
	"context"

	"github.com/loomline/loomline/pkg/models"
)

// OrderRepository owns the order aggregate including its routing steps.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error

	// CommitTransition writes the order's new status and appends the audit
	// entry as one indivisible unit. On error the stored order is unchanged.
	CommitTransition(ctx context.Context, order *models.Order, audit *models.TransitionAudit) error

	// UpdateStepStatus records a production event against a single routing
	// step without touching the rest of the aggregate.
	UpdateStepStatus(ctx context.Context, orderID, stepName string, status models.StepStatus) error
}

// WorkflowRepository stores automation workflow definitions. Delete is a
// soft delete: the definition flips to DELETED and stays readable.
type WorkflowRepository interface {
	List(ctx context.Context, status *models.WorkflowStatus) ([]*models.AutomationWorkflow, error)
	GetByID(ctx context.Context, id string) (*models.AutomationWorkflow, error)
	Save(ctx context.Context, workflow *models.AutomationWorkflow) error
	SoftDelete(ctx context.Context, id string) error
}

// ExecutionRepository stores workflow execution records. Executions are
// append-then-finalize: saved RUNNING on trigger fire, rewritten once with
// their terminal state.
type ExecutionRepository interface {
	GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
	Save(ctx context.Context, execution *models.WorkflowExecution) error
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error)
}

// InspectionRepository reads quality inspection outcomes recorded by the
// QC collaborator.
type InspectionRepository interface {
	LatestByOrder(ctx context.Context, orderID string) (*models.QualityInspection, error)
	Save(ctx context.Context, inspection *models.QualityInspection) error
}

// ShipmentRepository reads shipment records created by the logistics
// collaborator.
type ShipmentRepository interface {
	GetByOrder(ctx context.Context, orderID string) (*models.Shipment, error)
	Save(ctx context.Context, shipment *models.Shipment) error
}

// AuditRepository is the append-only transition audit sink.
type AuditRepository interface {
	Append(ctx context.Context, entry *models.TransitionAudit) error
	ListByOrder(ctx context.Context, orderID string) ([]*models.TransitionAudit, error)
}

// Persistence bundles the repositories behind one connection lifecycle.
type Persistence interface {
	OrderRepository() OrderRepository
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	InspectionRepository() InspectionRepository
	ShipmentRepository() ShipmentRepository
	AuditRepository() AuditRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
