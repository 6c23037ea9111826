package updaterecord

import (
	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence"
	"github.com/loomline/loomline/pkg/protocol"
)

type Factory struct {
	orders persistence.OrderRepository
}

func NewFactory(orders persistence.OrderRepository) *Factory {
	return &Factory{orders: orders}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config, f.orders)
}

func (f *Factory) ID() models.ActionType { return models.ActionTypeUpdateRecord }

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"order_id", "fields"},
		"properties": map[string]any{
			"order_id": map[string]any{"type": "string"},
			"fields":   map[string]any{"type": "object", "minProperties": 1},
		},
	}
}
