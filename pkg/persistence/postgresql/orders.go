package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence"
)

// OrderRepository stores order aggregates. Routing steps travel inside the
// aggregate as a JSONB column; they are never addressed relationally.
type OrderRepository struct {
	db *sql.DB
}

const orderColumns = `id, workspace_id, status, priority, production_method, assigned_to,
	target_delivery_date, routing_steps, metadata, version, created_at, updated_at`

func scanOrder(row *sql.Row) (*models.Order, error) {
	var (
		order        models.Order
		priority     sql.NullString
		method       sql.NullString
		assignedTo   sql.NullString
		targetDate   sql.NullTime
		stepsJSON    []byte
		metadataJSON []byte
	)

	err := row.Scan(
		&order.ID, &order.WorkspaceID, &order.Status, &priority, &method, &assignedTo,
		&targetDate, &stepsJSON, &metadataJSON, &order.Version, &order.CreatedAt, &order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrOrderNotFound
	}

	if err != nil {
		return nil, persistence.NewStorageError("GetOrder", "", err)
	}

	order.Priority = priority.String
	order.ProductionMethod = method.String
	order.AssignedTo = assignedTo.String

	if targetDate.Valid {
		t := targetDate.Time
		order.TargetDeliveryDate = &t
	}

	if err := json.Unmarshal(stepsJSON, &order.RoutingSteps); err != nil {
		return nil, persistence.NewStorageError("GetOrder", order.ID, err)
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &order.Metadata); err != nil {
			return nil, persistence.NewStorageError("GetOrder", order.ID, err)
		}
	}

	return &order, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM orders WHERE id = $1", orderColumns), id)

	return scanOrder(row)
}

func (r *OrderRepository) Save(ctx context.Context, order *models.Order) error {
	stepsJSON, err := json.Marshal(order.RoutingSteps)
	if err != nil {
		return persistence.NewStorageError("SaveOrder", order.ID, err)
	}

	metadataJSON, err := json.Marshal(order.Metadata)
	if err != nil {
		return persistence.NewStorageError("SaveOrder", order.ID, err)
	}

	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}

	order.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders (id, workspace_id, status, priority, production_method, assigned_to,
			target_delivery_date, routing_steps, metadata, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			workspace_id = EXCLUDED.workspace_id,
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			production_method = EXCLUDED.production_method,
			assigned_to = EXCLUDED.assigned_to,
			target_delivery_date = EXCLUDED.target_delivery_date,
			routing_steps = EXCLUDED.routing_steps,
			metadata = EXCLUDED.metadata,
			version = orders.version + 1,
			updated_at = EXCLUDED.updated_at`,
		order.ID, order.WorkspaceID, order.Status, nullable(order.Priority),
		nullable(order.ProductionMethod), nullable(order.AssignedTo),
		order.TargetDeliveryDate, stepsJSON, metadataJSON, order.Version,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return persistence.NewStorageError("SaveOrder", order.ID, err)
	}

	return nil
}

// CommitTransition updates the order status and appends the audit entry in
// one transaction, guarded by the order's version so a racing transition
// that committed first surfaces as ErrVersionConflict.
func (r *OrderRepository) CommitTransition(ctx context.Context, order *models.Order, audit *models.TransitionAudit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence.NewStorageError("CommitTransition", order.ID, err)
	}

	order.UpdatedAt = time.Now().UTC()

	result, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, assigned_to = $2, priority = $3,
			version = version + 1, updated_at = $4
		WHERE id = $5 AND version = $6`,
		order.Status, nullable(order.AssignedTo), nullable(order.Priority),
		order.UpdatedAt, order.ID, order.Version,
	)
	if err != nil {
		_ = tx.Rollback()

		return persistence.NewStorageError("CommitTransition", order.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()

		return persistence.NewStorageError("CommitTransition", order.ID, err)
	}

	if affected == 0 {
		_ = tx.Rollback()

		return persistence.ErrVersionConflict
	}

	checksJSON, err := json.Marshal(audit.Checks)
	if err != nil {
		_ = tx.Rollback()

		return persistence.NewStorageError("CommitTransition", order.ID, err)
	}

	metadataJSON, err := json.Marshal(audit.Metadata)
	if err != nil {
		_ = tx.Rollback()

		return persistence.NewStorageError("CommitTransition", order.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_audits (id, order_id, from_status, to_status, actor, role, reason, forced, checks, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		audit.ID, audit.OrderID, audit.FromStatus, audit.ToStatus, audit.Actor,
		audit.Role, audit.Reason, audit.Forced, checksJSON, metadataJSON, audit.CreatedAt,
	)
	if err != nil {
		_ = tx.Rollback()

		return persistence.NewStorageError("CommitTransition", order.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return persistence.NewStorageError("CommitTransition", order.ID, err)
	}

	order.Version++

	return nil
}

func (r *OrderRepository) UpdateStepStatus(ctx context.Context, orderID, stepName string, status models.StepStatus) error {
	order, err := r.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	step := order.Step(stepName)
	if step == nil {
		return persistence.ErrStepNotFound
	}

	now := time.Now().UTC()

	switch status {
	case models.StepStatusInProgress:
		if step.StartedAt == nil {
			step.StartedAt = &now
		}
	case models.StepStatusDone:
		step.CompletedAt = &now
	}

	step.Status = status

	stepsJSON, err := json.Marshal(order.RoutingSteps)
	if err != nil {
		return persistence.NewStorageError("UpdateStepStatus", orderID, err)
	}

	_, err = r.db.ExecContext(ctx,
		"UPDATE orders SET routing_steps = $1, updated_at = $2 WHERE id = $3",
		stepsJSON, now, orderID,
	)
	if err != nil {
		return persistence.NewStorageError("UpdateStepStatus", orderID, err)
	}

	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
