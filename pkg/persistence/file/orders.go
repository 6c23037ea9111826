package file

import (
	"context"
	"os"
	"time"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence"
)

const ordersCollection = "orders"

// OrderRepository stores order aggregates as one JSON document each.
type OrderRepository struct {
	store *Persistence
}

func (r *OrderRepository) GetByID(_ context.Context, id string) (*models.Order, error) {
	var order models.Order

	err := r.store.readJSON(ordersCollection, id, &order)
	if os.IsNotExist(err) {
		return nil, persistence.ErrOrderNotFound
	}

	if err != nil {
		return nil, persistence.NewStorageError("GetOrder", id, err)
	}

	return &order, nil
}

func (r *OrderRepository) Save(_ context.Context, order *models.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}

	order.UpdatedAt = now

	if err := r.store.writeJSON(ordersCollection, order.ID, order); err != nil {
		return persistence.NewStorageError("SaveOrder", order.ID, err)
	}

	return nil
}

// CommitTransition writes the audit entry first, then the order document
// via temp-file rename. A failure on either side leaves the previously
// stored order document intact. Only the transition fields are applied to
// the stored document, so routing-step writes racing the commit survive;
// the version guard matches the postgresql implementation.
func (r *OrderRepository) CommitTransition(_ context.Context, order *models.Order, audit *models.TransitionAudit) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var stored models.Order

	err := r.store.readJSON(ordersCollection, order.ID, &stored)
	if os.IsNotExist(err) {
		return persistence.ErrOrderNotFound
	}

	if err != nil {
		return persistence.NewStorageError("CommitTransition", order.ID, err)
	}

	if stored.Version != order.Version {
		return persistence.ErrVersionConflict
	}

	if err := r.store.audits.append(audit); err != nil {
		return persistence.NewStorageError("CommitTransition", order.ID, err)
	}

	stored.Status = order.Status
	stored.AssignedTo = order.AssignedTo
	stored.Priority = order.Priority
	stored.Version++
	stored.UpdatedAt = time.Now().UTC()

	if err := r.store.writeJSON(ordersCollection, order.ID, &stored); err != nil {
		return persistence.NewStorageError("CommitTransition", order.ID, err)
	}

	order.Version = stored.Version
	order.UpdatedAt = stored.UpdatedAt

	return nil
}

// UpdateStepStatus re-reads the stored document under the store lock and
// touches only the named step, so it never reverts a status committed by
// a concurrent transition.
func (r *OrderRepository) UpdateStepStatus(_ context.Context, orderID, stepName string, status models.StepStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var stored models.Order

	err := r.store.readJSON(ordersCollection, orderID, &stored)
	if os.IsNotExist(err) {
		return persistence.ErrOrderNotFound
	}

	if err != nil {
		return persistence.NewStorageError("UpdateStepStatus", orderID, err)
	}

	step := stored.Step(stepName)
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
	stored.UpdatedAt = now

	if err := r.store.writeJSON(ordersCollection, orderID, &stored); err != nil {
		return persistence.NewStorageError("UpdateStepStatus", orderID, err)
	}

	return nil
}
