package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence"
)

// WorkflowRepository stores automation workflow definitions.
type WorkflowRepository struct {
	db *sql.DB
}

type workflowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row workflowScanner) (*models.AutomationWorkflow, error) {
	var (
		workflow       models.AutomationWorkflow
		description    sql.NullString
		triggerJSON    []byte
		conditionsJSON []byte
		actionsJSON    []byte
		deletedAt      sql.NullTime
	)

	err := row.Scan(
		&workflow.ID, &workflow.WorkspaceID, &workflow.Name, &description,
		&triggerJSON, &conditionsJSON, &actionsJSON, &workflow.Priority,
		&workflow.IsActive, &workflow.Status, &workflow.CreatedAt, &workflow.UpdatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrWorkflowNotFound
	}

	if err != nil {
		return nil, persistence.NewStorageError("GetWorkflow", "", err)
	}

	workflow.Description = description.String

	if deletedAt.Valid {
		t := deletedAt.Time
		workflow.DeletedAt = &t
	}

	if err := json.Unmarshal(triggerJSON, &workflow.Trigger); err != nil {
		return nil, persistence.NewStorageError("GetWorkflow", workflow.ID, err)
	}

	if err := json.Unmarshal(conditionsJSON, &workflow.Conditions); err != nil {
		return nil, persistence.NewStorageError("GetWorkflow", workflow.ID, err)
	}

	if err := json.Unmarshal(actionsJSON, &workflow.Actions); err != nil {
		return nil, persistence.NewStorageError("GetWorkflow", workflow.ID, err)
	}

	return &workflow, nil
}

const workflowColumns = `id, workspace_id, name, description, trigger, conditions, actions,
	priority, is_active, status, created_at, updated_at, deleted_at`

func (r *WorkflowRepository) List(ctx context.Context, status *models.WorkflowStatus) ([]*models.AutomationWorkflow, error) {
	query := "SELECT " + workflowColumns + " FROM workflows"
	args := []any{}

	if status != nil {
		query += " WHERE status = $1"
		args = append(args, *status)
	}

	query += " ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewStorageError("ListWorkflows", "", err)
	}
	defer rows.Close()

	var workflows []*models.AutomationWorkflow

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewStorageError("ListWorkflows", "", err)
	}

	return workflows, nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.AutomationWorkflow, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+workflowColumns+" FROM workflows WHERE id = $1", id)

	return scanWorkflow(row)
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.AutomationWorkflow) error {
	triggerJSON, err := json.Marshal(workflow.Trigger)
	if err != nil {
		return persistence.NewStorageError("SaveWorkflow", workflow.ID, err)
	}

	conditionsJSON, err := json.Marshal(workflow.Conditions)
	if err != nil {
		return persistence.NewStorageError("SaveWorkflow", workflow.ID, err)
	}

	actionsJSON, err := json.Marshal(workflow.Actions)
	if err != nil {
		return persistence.NewStorageError("SaveWorkflow", workflow.ID, err)
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO workflows (id, workspace_id, name, description, trigger, conditions, actions,
			priority, is_active, status, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			trigger = EXCLUDED.trigger,
			conditions = EXCLUDED.conditions,
			actions = EXCLUDED.actions,
			priority = EXCLUDED.priority,
			is_active = EXCLUDED.is_active,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at`,
		workflow.ID, workflow.WorkspaceID, workflow.Name, nullable(workflow.Description),
		triggerJSON, conditionsJSON, actionsJSON, workflow.Priority,
		workflow.IsActive, workflow.Status, workflow.CreatedAt, workflow.UpdatedAt, workflow.DeletedAt,
	)
	if err != nil {
		return persistence.NewStorageError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

// SoftDelete marks the workflow DELETED in place; the row stays because
// executions reference it.
func (r *WorkflowRepository) SoftDelete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE workflows SET status = $1, is_active = FALSE, deleted_at = $2, updated_at = $2
		WHERE id = $3`,
		models.WorkflowStatusDeleted, time.Now().UTC(), id,
	)
	if err != nil {
		return persistence.NewStorageError("SoftDeleteWorkflow", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStorageError("SoftDeleteWorkflow", id, err)
	}

	if affected == 0 {
		return persistence.ErrWorkflowNotFound
	}

	return nil
}
