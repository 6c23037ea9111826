// Package updaterecord mutates writable fields of a persisted order.
// Status is deliberately not writable here: status changes go through the
// state machine.
package updaterecord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence"
	"github.com/loomline/loomline/pkg/template"
)

type Action struct {
	OrderID string
	Fields  map[string]any

	orders persistence.OrderRepository
}

func NewAction(config map[string]any, orders persistence.OrderRepository) (*Action, error) {
	orderID, ok := config["order_id"].(string)
	if !ok || orderID == "" {
		return nil, fmt.Errorf("missing or invalid 'order_id' in configuration")
	}

	fields, ok := config["fields"].(map[string]any)
	if !ok || len(fields) == 0 {
		return nil, fmt.Errorf("missing or invalid 'fields' in configuration")
	}

	return &Action{OrderID: orderID, Fields: fields, orders: orders}, nil
}

func (a *Action) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	orderID, err := template.RenderString(a.OrderID, executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render order id: %w", err)
	}

	order, err := a.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	applied := make([]string, 0, len(a.Fields))

	for field, value := range a.Fields {
		resolved := value
		if str, ok := value.(string); ok {
			resolved, err = template.RenderString(str, executionCtx)
			if err != nil {
				return nil, fmt.Errorf("failed to render field %q: %w", field, err)
			}
		}

		switch field {
		case "priority":
			order.Priority = fmt.Sprintf("%v", resolved)
		case "assigned_to":
			order.AssignedTo = fmt.Sprintf("%v", resolved)
		case "production_method":
			order.ProductionMethod = fmt.Sprintf("%v", resolved)
		default:
			if order.Metadata == nil {
				order.Metadata = make(map[string]any)
			}

			order.Metadata[field] = resolved
		}

		applied = append(applied, field)
	}

	if err := a.orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	logger.Info("order record updated", "action", "update_record", "order_id", orderID, "fields", applied)

	return map[string]any{"order_id": orderID, "updated_fields": applied}, nil
}
