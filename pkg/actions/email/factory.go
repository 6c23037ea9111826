package email

import (
	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/protocol"
)

type Factory struct {
	sender protocol.NotificationSender
}

func NewFactory(sender protocol.NotificationSender) *Factory {
	return &Factory{sender: sender}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config, f.sender)
}

func (f *Factory) ID() models.ActionType { return models.ActionTypeEmail }

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"to"},
		"properties": map[string]any{
			"to":      map[string]any{"type": "string"},
			"subject": map[string]any{"type": "string"},
			"body":    map[string]any{"type": "string"},
		},
	}
}
