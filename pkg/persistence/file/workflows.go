package file

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence"
)

const workflowsCollection = "workflows"

// WorkflowRepository stores automation workflow definitions.
type WorkflowRepository struct {
	store *Persistence
}

func (r *WorkflowRepository) List(ctx context.Context, status *models.WorkflowStatus) ([]*models.AutomationWorkflow, error) {
	ids, err := r.store.listIDs(workflowsCollection)
	if err != nil {
		return nil, persistence.NewStorageError("ListWorkflows", "", err)
	}

	workflows := make([]*models.AutomationWorkflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if status != nil && workflow.Status != *status {
			continue
		}

		workflows = append(workflows, workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (r *WorkflowRepository) GetByID(_ context.Context, id string) (*models.AutomationWorkflow, error) {
	var workflow models.AutomationWorkflow

	err := r.store.readJSON(workflowsCollection, id, &workflow)
	if os.IsNotExist(err) {
		return nil, persistence.ErrWorkflowNotFound
	}

	if err != nil {
		return nil, persistence.NewStorageError("GetWorkflow", id, err)
	}

	return &workflow, nil
}

func (r *WorkflowRepository) Save(_ context.Context, workflow *models.AutomationWorkflow) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if err := r.store.writeJSON(workflowsCollection, workflow.ID, workflow); err != nil {
		return persistence.NewStorageError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

// SoftDelete flips the definition to DELETED and deactivates it. The
// document stays on disk because executions keep referencing it.
func (r *WorkflowRepository) SoftDelete(ctx context.Context, id string) error {
	workflow, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	workflow.Status = models.WorkflowStatusDeleted
	workflow.IsActive = false
	workflow.DeletedAt = &now

	return r.Save(ctx, workflow)
}
