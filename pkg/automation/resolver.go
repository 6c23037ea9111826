package automation

import (
	"context"
	"strings"

	"github.com/loomline/loomline/pkg/persistence"
	"github.com/loomline/loomline/pkg/statemachine"
)

// OrderFieldResolver resolves "order.*" condition fields against the
// persisted order named by the trigger payload's order_id. Anything else
// is unresolvable.
type OrderFieldResolver struct {
	orders persistence.OrderRepository
}

func NewOrderFieldResolver(orders persistence.OrderRepository) *OrderFieldResolver {
	return &OrderFieldResolver{orders: orders}
}

func (r *OrderFieldResolver) Resolve(ctx context.Context, field string, triggerData map[string]any) (any, bool, error) {
	name, ok := strings.CutPrefix(field, "order.")
	if !ok {
		return nil, false, nil
	}

	orderID, ok := triggerData["order_id"].(string)
	if !ok || orderID == "" {
		return nil, false, nil
	}

	order, err := r.orders.GetByID(ctx, orderID)
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, false, nil
		}

		return nil, false, err
	}

	switch name {
	case "status":
		return string(order.Status), true, nil
	case "priority":
		return order.Priority, true, nil
	case "production_method":
		return order.ProductionMethod, true, nil
	case "assigned_to":
		return order.AssignedTo, true, nil
	case "workspace_id":
		return order.WorkspaceID, true, nil
	case "progress":
		return statemachine.Progress(order.RoutingSteps), true, nil
	default:
		if order.Metadata != nil {
			if value, ok := order.Metadata[name]; ok {
				return value, true, nil
			}
		}

		return nil, false, nil
	}
}
