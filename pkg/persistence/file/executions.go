package file

import (
	"context"
	"os"
	"sort"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence"
)

const executionsCollection = "executions"

// ExecutionRepository stores workflow execution records.
type ExecutionRepository struct {
	store *Persistence
}

func (r *ExecutionRepository) GetByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	var execution models.WorkflowExecution

	err := r.store.readJSON(executionsCollection, id, &execution)
	if os.IsNotExist(err) {
		return nil, persistence.ErrExecutionNotFound
	}

	if err != nil {
		return nil, persistence.NewStorageError("GetExecution", id, err)
	}

	return &execution, nil
}

func (r *ExecutionRepository) Save(_ context.Context, execution *models.WorkflowExecution) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.writeJSON(executionsCollection, execution.ID, execution); err != nil {
		return persistence.NewStorageError("SaveExecution", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	ids, err := r.store.listIDs(executionsCollection)
	if err != nil {
		return nil, persistence.NewStorageError("ListExecutions", workflowID, err)
	}

	executions := make([]*models.WorkflowExecution, 0)

	for _, id := range ids {
		execution, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if execution.WorkflowID == workflowID {
			executions = append(executions, execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartedAt.Before(executions[j].StartedAt)
	})

	return executions, nil
}
