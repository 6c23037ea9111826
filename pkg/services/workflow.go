// Package services holds the business layer between the HTTP surface and
// persistence, plus development implementations of the delivery
// capabilities.
package services

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence"
)

// Workflow manages automation workflow definitions.
type Workflow struct {
	store    persistence.Persistence
	validate *validator.Validate
}

func NewWorkflow(store persistence.Persistence) *Workflow {
	return &Workflow{
		store:    store,
		validate: validator.New(),
	}
}

// HealthCheck reports the persistence layer's health.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if err := w.store.HealthCheck(ctx); err != nil {
		return "persistence layer is unhealthy: " + err.Error(), false
	}

	return "persistence layer is healthy", true
}

func (w *Workflow) List(ctx context.Context, status *models.WorkflowStatus) ([]*models.AutomationWorkflow, error) {
	return w.store.WorkflowRepository().List(ctx, status)
}

func (w *Workflow) Get(ctx context.Context, id string) (*models.AutomationWorkflow, error) {
	return w.store.WorkflowRepository().GetByID(ctx, id)
}

func (w *Workflow) Create(ctx context.Context, workflow *models.AutomationWorkflow) (*models.AutomationWorkflow, error) {
	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	if workflow.Status == "" {
		workflow.Status = models.WorkflowStatusActive
	}

	if workflow.Priority == "" {
		workflow.Priority = models.PriorityMedium
	}

	if err := w.validate.Struct(workflow); err != nil {
		return nil, err
	}

	if err := w.store.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

// Update applies the mutable fields of the incoming definition onto the
// stored one. Identity and creation time never change.
func (w *Workflow) Update(ctx context.Context, id string, incoming *models.AutomationWorkflow) (*models.AutomationWorkflow, error) {
	existing, err := w.store.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if incoming.Name != "" {
		existing.Name = incoming.Name
	}

	existing.Description = incoming.Description

	if incoming.Trigger.Type != "" {
		existing.Trigger = incoming.Trigger
	}

	if incoming.Conditions != nil {
		existing.Conditions = incoming.Conditions
	}

	if incoming.Actions != nil {
		existing.Actions = incoming.Actions
	}

	if incoming.Priority != "" {
		existing.Priority = incoming.Priority
	}

	existing.IsActive = incoming.IsActive
	existing.UpdatedAt = time.Now().UTC()

	if err := w.validate.Struct(existing); err != nil {
		return nil, err
	}

	if err := w.store.WorkflowRepository().Save(ctx, existing); err != nil {
		return nil, err
	}

	return existing, nil
}

func (w *Workflow) Delete(ctx context.Context, id string) error {
	return w.store.WorkflowRepository().SoftDelete(ctx, id)
}
