package webhook

import (
	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config)
}

func (f *Factory) ID() models.ActionType { return models.ActionTypeWebhook }

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"url"},
		"properties": map[string]any{
			"url":             map[string]any{"type": "string", "format": "uri"},
			"method":          map[string]any{"type": "string", "enum": []any{"GET", "POST", "PUT", "PATCH", "DELETE"}},
			"body":            map[string]any{"type": "string"},
			"headers":         map[string]any{"type": "object"},
			"timeout_seconds": map[string]any{"type": "number", "minimum": 1},
		},
	}
}
