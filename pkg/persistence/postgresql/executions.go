package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence"
)

// ExecutionRepository stores workflow execution records.
type ExecutionRepository struct {
	db *sql.DB
}

const executionColumns = `id, workflow_id, workspace_id, status, trigger_data, action_results,
	skip_reason, error, started_at, completed_at, elapsed_ms`

func scanExecution(row workflowScanner) (*models.WorkflowExecution, error) {
	var (
		execution   models.WorkflowExecution
		workspaceID sql.NullString
		triggerJSON []byte
		resultsJSON []byte
		skipReason  sql.NullString
		errMessage  sql.NullString
		completedAt sql.NullTime
	)

	err := row.Scan(
		&execution.ID, &execution.WorkflowID, &workspaceID, &execution.Status,
		&triggerJSON, &resultsJSON, &skipReason, &errMessage,
		&execution.StartedAt, &completedAt, &execution.ElapsedMs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrExecutionNotFound
	}

	if err != nil {
		return nil, persistence.NewStorageError("GetExecution", "", err)
	}

	execution.WorkspaceID = workspaceID.String
	execution.SkipReason = skipReason.String
	execution.Error = errMessage.String

	if completedAt.Valid {
		t := completedAt.Time
		execution.CompletedAt = &t
	}

	if len(triggerJSON) > 0 {
		if err := json.Unmarshal(triggerJSON, &execution.TriggerData); err != nil {
			return nil, persistence.NewStorageError("GetExecution", execution.ID, err)
		}
	}

	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &execution.ActionResults); err != nil {
			return nil, persistence.NewStorageError("GetExecution", execution.ID, err)
		}
	}

	return &execution, nil
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+executionColumns+" FROM workflow_executions WHERE id = $1", id)

	return scanExecution(row)
}

func (r *ExecutionRepository) Save(ctx context.Context, execution *models.WorkflowExecution) error {
	triggerJSON, err := json.Marshal(execution.TriggerData)
	if err != nil {
		return persistence.NewStorageError("SaveExecution", execution.ID, err)
	}

	resultsJSON, err := json.Marshal(execution.ActionResults)
	if err != nil {
		return persistence.NewStorageError("SaveExecution", execution.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO workflow_executions (id, workflow_id, workspace_id, status, trigger_data,
			action_results, skip_reason, error, started_at, completed_at, elapsed_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			action_results = EXCLUDED.action_results,
			skip_reason = EXCLUDED.skip_reason,
			error = EXCLUDED.error,
			completed_at = EXCLUDED.completed_at,
			elapsed_ms = EXCLUDED.elapsed_ms`,
		execution.ID, execution.WorkflowID, nullable(execution.WorkspaceID), execution.Status,
		triggerJSON, resultsJSON, nullable(execution.SkipReason), nullable(execution.Error),
		execution.StartedAt, execution.CompletedAt, execution.ElapsedMs,
	)
	if err != nil {
		return persistence.NewStorageError("SaveExecution", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+executionColumns+" FROM workflow_executions WHERE workflow_id = $1 ORDER BY started_at",
		workflowID,
	)
	if err != nil {
		return nil, persistence.NewStorageError("ListExecutions", workflowID, err)
	}
	defer rows.Close()

	var executions []*models.WorkflowExecution

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewStorageError("ListExecutions", workflowID, err)
	}

	return executions, nil
}
